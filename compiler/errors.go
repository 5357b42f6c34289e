package compiler

import "fmt"

type ErrorKind int

const (
	LexicalError ErrorKind = iota
	SyntaxError
	SemanticError
)

func (kind ErrorKind) String() string {
	switch kind {
	case LexicalError:
		return "tokenizer"
	case SyntaxError:
		return "syntax"
	case SemanticError:
		return "semantic"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(kind))
}

// Error is a fatal compile error. It aborts the class being compiled.
type Error struct {
	Kind ErrorKind
	File string
	Line int
	Near string
	Msg  string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error near %q at line %d, msg: %s", e.Kind, e.Near, e.Line, e.Msg)
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}
