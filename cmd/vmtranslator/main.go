package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nandkit/hack/internal/cli"
	"github.com/nandkit/hack/util"
	"github.com/nandkit/hack/vmtranslator"
)

// A simple program to translate hack vm codes to hack assembler. A directory
// is translated into one program named after the directory.

var bootstrapModes = map[string]vmtranslator.BootstrapMode{
	"auto":  vmtranslator.BootstrapAuto,
	"true":  vmtranslator.BootstrapAlways,
	"false": vmtranslator.BootstrapNever,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	tool := cli.NewTool("VMTranslator", stderr)
	flags := flag.NewFlagSet("vmtranslator", flag.ContinueOnError)
	flags.SetOutput(stderr)
	path := flags.String("path", ".", "the program path, a .vm file or a directory")
	output := flags.String("o", "", "the saved path, by default derived from the program path")
	verbose := flags.Bool("v", false, "whether print translate result")
	// auto writes the initialize code only when Sys.init is defined.
	writeInitializeCode := flags.String("wi", "auto", "whether write initialize code: auto, true or false")
	annotate := flags.Bool("annotate", true, "whether write each vm command as a comment")
	if err := flags.Parse(args); err != nil {
		return cli.ExitUsage
	}
	bootstrap, ok := bootstrapModes[*writeInitializeCode]
	if !ok {
		return tool.Usage(fmt.Errorf("unknown -wi value %q", *writeInitializeCode))
	}
	input, err := cli.InputPath(*path, "", flags.Args())
	if err != nil {
		return tool.Usage(err)
	}
	files, isDir, err := util.CollectInputs(input, ".vm")
	if err != nil {
		return tool.Fail(input, err)
	}
	target := *output
	if target == "" && isDir {
		target = util.DirOutput(input, ".asm")
	} else if target == "" {
		target = util.ReplaceExt(input, ".asm")
	}
	var echo io.Writer
	if *verbose {
		echo = stdout
	}
	options := vmtranslator.Options{Bootstrap: bootstrap, Annotate: *annotate}
	err = cli.WriteFile(target, echo, func(w io.Writer) error {
		return vmtranslator.TranslateFiles(w, files, options)
	})
	if err != nil {
		return tool.Fail(input, err)
	}
	tool.Printf("translated %d file(s) of %s to %s", len(files), input, target)
	return cli.ExitOK
}
