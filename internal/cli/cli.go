// Package cli holds what the stage binaries share: locating inputs, naming and
// writing outputs, logging a run and turning errors into exit codes.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/nandkit/hack/assembler"
	"github.com/nandkit/hack/compiler"
	"github.com/nandkit/hack/vmtranslator"
	"github.com/oklog/ulid/v2"
)

// Exit codes of every tool.
const (
	ExitOK = iota
	ExitFailure
	ExitUsage
)

var ErrUsage = errors.New("expected exactly one input path")

// Tool logs one invocation of a named binary. Every line carries the tool name
// and the invocation's run id.
type Tool struct {
	Name   string
	RunID  ulid.ULID
	logger *log.Logger
}

func NewTool(name string, w io.Writer) *Tool {
	id := ulid.Make()
	return &Tool{
		Name:   name,
		RunID:  id,
		logger: log.New(w, fmt.Sprintf("[%s]: run %s ", name, id), 0),
	}
}

func (tool *Tool) Printf(format string, args ...interface{}) {
	tool.logger.Printf(format, args...)
}

// Fail logs err for input and returns ExitFailure. Errors pointing at a
// source line are reported with that line.
func (tool *Tool) Fail(input string, err error) int {
	if line, ok := ErrorLine(err); ok {
		tool.logger.Printf("failed to process %s at line %d, err: %v", input, line, err)
	} else {
		tool.logger.Printf("failed to process %s, err: %v", input, err)
	}
	return ExitFailure
}

// Usage logs err and returns ExitUsage.
func (tool *Tool) Usage(err error) int {
	tool.logger.Printf("bad usage: %v", err)
	return ExitUsage
}

// ErrorLine returns the source line an error of any stage refers to.
func ErrorLine(err error) (int, bool) {
	var asmErr *assembler.SyntaxError
	var vmErr *vmtranslator.SyntaxError
	var jackErr *compiler.Error
	switch {
	case errors.As(err, &asmErr):
		return asmErr.Line, true
	case errors.As(err, &vmErr):
		return vmErr.Line, true
	case errors.As(err, &jackErr):
		return jackErr.Line, true
	}
	return 0, false
}

// InputPath picks the input from a flag value or a single positional argument,
// the positional one winning. fallback is used when neither is given.
func InputPath(flagValue, fallback string, args []string) (string, error) {
	if len(args) > 1 {
		return "", ErrUsage
	}
	if len(args) == 1 {
		return args[0], nil
	}
	if flagValue != "" {
		return flagValue, nil
	}
	if fallback == "" {
		return "", ErrUsage
	}
	return fallback, nil
}

// WriteFile creates path and hands a buffered writer to write. The file is
// removed again when write or any of the final flush and close fails, so a
// failed run never leaves output behind. When echo is not nil the output is
// copied to it as well.
func WriteFile(path string, echo io.Writer, write func(w io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	bw := bufio.NewWriter(file)
	var w io.Writer = bw
	if echo != nil {
		w = io.MultiWriter(bw, echo)
	}
	if err = write(w); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
