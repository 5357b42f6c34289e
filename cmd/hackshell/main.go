package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nandkit/hack/internal/cli"
	"github.com/peterh/liner"
)

// hackshell reads assembly or vm lines and prints what each one translates to.

const historyFile = ".hackshell_history"

var mode = flag.String("mode", "asm", "what the typed lines are: asm or vm")

func main() {
	flag.Parse()
	os.Exit(repl(*mode))
}

func repl(mode string) int {
	tool := cli.NewTool("HackShell", os.Stderr)
	s, err := newSession(mode)
	if err != nil {
		return tool.Usage(err)
	}
	fmt.Printf("hackshell (%s mode), type :quit to exit\n", mode)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	prompt := mode + "> "
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return cli.ExitOK
		}
		if err != nil {
			return tool.Fail("stdin", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), ":") {
			switch strings.TrimSpace(strings.ToLower(line)) {
			case ":quit":
				return cli.ExitOK
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}
		ln.AppendHistory(line)
		output, err := s.eval(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			continue
		}
		if output != "" {
			fmt.Println(output)
		}
	}
}
