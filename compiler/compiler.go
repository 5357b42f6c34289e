package compiler

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/nandkit/hack/util"
)

// A single pass jack compiler: each class is tokenized and then compiled
// straight into vm code, one .vm file per .jack file.

// CompileClass compiles the class read from rd and writes its vm code to w.
// file is used in error messages and, when not empty, must be named after the
// class.
func CompileClass(file string, rd io.Reader, w io.Writer) error {
	tokens, err := NewTokenizer(file).Tokenize(rd)
	if err != nil {
		return err
	}
	return NewCompilationEngine(file, tokens, w).CompileClass()
}

// CompileFile compiles path into the .vm file beside it and returns that
// file's path. Nothing is left behind when compilation fails.
func CompileFile(path string) (output string, err error) {
	input, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer input.Close()
	output = util.ReplaceExt(path, ".vm")
	outputFile, err := os.Create(output)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", output, err)
	}
	defer func() {
		closeErr := outputFile.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close %s: %w", output, closeErr)
		}
		if err != nil {
			os.Remove(output)
			output = ""
		}
	}()
	bw := bufio.NewWriter(outputFile)
	err = CompileClass(path, input, bw)
	if err != nil {
		return "", err
	}
	if err = bw.Flush(); err != nil {
		return "", fmt.Errorf("write %s: %w", output, err)
	}
	return output, nil
}

// Compile compiles path, a .jack file or a directory of them. Files are
// compiled in name order and the first failure stops the run.
func Compile(path string) ([]string, error) {
	files, _, err := util.CollectInputs(path, ".jack")
	if err != nil {
		return nil, err
	}
	outputs := make([]string, 0, len(files))
	for _, file := range files {
		output, err := CompileFile(file)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, output)
	}
	return outputs, nil
}
