package main

import (
	"errors"
	"flag"
	"io"
	"os"

	"github.com/nandkit/hack/assembler"
	"github.com/nandkit/hack/internal/cli"
	"github.com/nandkit/hack/util"
)

// a simple program accepts hack assembly files and transforms each of them to
// the corresponding hack machine language, written beside the input as .hack.

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	tool := cli.NewTool("Assembler", stderr)
	flags := flag.NewFlagSet("assembler", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputPath := flags.String("i", "", "the input hack assembly file, or a directory of them")
	outputPath := flags.String("o", "", "the output hack binary file path, single input file only")
	verbose := flags.Bool("v", false, "whether print all transformed binary code")
	if err := flags.Parse(args); err != nil {
		return cli.ExitUsage
	}
	input, err := cli.InputPath(*inputPath, "", flags.Args())
	if err != nil {
		return tool.Usage(err)
	}
	files, isDir, err := util.CollectInputs(input, ".asm")
	if err != nil {
		return tool.Fail(input, err)
	}
	if isDir && *outputPath != "" {
		return tool.Usage(errors.New("-o needs a single input file"))
	}
	var echo io.Writer
	if *verbose {
		echo = stdout
	}
	for _, file := range files {
		output := *outputPath
		if output == "" {
			output = util.ReplaceExt(file, ".hack")
		}
		if err := assembleFile(file, output, echo); err != nil {
			return tool.Fail(file, err)
		}
		tool.Printf("assembled %s to %s", file, output)
	}
	return cli.ExitOK
}

// assembleFile translates input completely before output is created.
func assembleFile(input, output string, echo io.Writer) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()
	codes, err := assembler.Assemble(f)
	if err != nil {
		return err
	}
	return cli.WriteFile(output, echo, func(w io.Writer) error {
		return assembler.WriteHack(w, codes)
	})
}
