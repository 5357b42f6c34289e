package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nandkit/hack/assembler"
	"github.com/nandkit/hack/vmtranslator"
)

const shellUnit = "Shell"

// session translates lines one at a time. Symbols, labels and counters live
// as long as the session, so later lines see what earlier ones declared.
type session struct {
	mode string
	line int

	asm *assembler.Assembler

	codeWriter *vmtranslator.CodeWriter
	asmOutput  bytes.Buffer
}

func newSession(mode string) (*session, error) {
	s := &session{mode: mode}
	switch mode {
	case "asm":
		s.asm = assembler.CreateAssembler()
	case "vm":
		s.codeWriter = vmtranslator.NewCodeWriter(shellUnit, &s.asmOutput, false)
	default:
		return nil, fmt.Errorf("unknown mode %q, expected asm or vm", mode)
	}
	return s, nil
}

// eval returns the translation of one line, empty for lines without output.
func (s *session) eval(text string) (string, error) {
	s.line++
	if s.asm != nil {
		code, emitted, err := s.asm.AssembleLine(text)
		if err != nil || !emitted {
			return "", err
		}
		return assembler.FormatCode(code), nil
	}
	command, ok, err := vmtranslator.ParseLine(shellUnit, s.line, text)
	if err != nil || !ok {
		return "", err
	}
	s.asmOutput.Reset()
	if err = s.codeWriter.WriteCommand(command); err != nil {
		return "", err
	}
	return strings.TrimSuffix(s.asmOutput.String(), "\n"), nil
}
