package main

import (
	"flag"
	"io"
	"io/ioutil"
	"os"

	"github.com/nandkit/hack/compiler"
	"github.com/nandkit/hack/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	tool := cli.NewTool("Compiler", stderr)
	flags := flag.NewFlagSet("compiler", flag.ContinueOnError)
	flags.SetOutput(stderr)
	path := flags.String("path", ".", "the path of jack files needs to be compiled")
	verbose := flags.Bool("v", false, "whether print the generated vm code")
	if err := flags.Parse(args); err != nil {
		return cli.ExitUsage
	}
	input, err := cli.InputPath(*path, "", flags.Args())
	if err != nil {
		return tool.Usage(err)
	}
	outputs, err := compiler.Compile(input)
	for _, output := range outputs {
		tool.Printf("compiled %s", output)
	}
	if err != nil {
		return tool.Fail(input, err)
	}
	if *verbose {
		for _, output := range outputs {
			content, err := ioutil.ReadFile(output)
			if err != nil {
				return tool.Fail(output, err)
			}
			stdout.Write(content)
		}
	}
	return cli.ExitOK
}
