package vmtranslator

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nandkit/hack/util"
)

// There are four kinds of vm commands:
// * Arithmetic commands: add, sub, neg, eq, gt, lt, and, or, not.
// * Memory access commands: push segment index, pop segment index, where segment is one of
//   argument, local, static, constant, this, that, pointer, temp.
// * Program flow commands: label name, goto name, if-goto name.
// * Function calling commands: function name nLocals, call name nArgs, return.
//
// Keywords are matched case-insensitively, a '//' starts a comment anywhere on a line.

type CommandType int

const (
	ArithmeticCommand CommandType = iota
	PushCommand
	PopCommand
	LabelCommand
	GotoCommand
	IfGotoCommand
	FunctionCommand
	CallCommand
	ReturnCommand
)

type ArithmeticOp int

const (
	AddOp ArithmeticOp = iota
	SubOp
	NegOp
	EqOp
	GtOp
	LtOp
	AndOp
	OrOp
	NotOp
)

type Segment int

const (
	LocalSegment Segment = iota
	ArgumentSegment
	ThisSegment
	ThatSegment
	ConstantSegment
	StaticSegment
	TempSegment
	PointerSegment
)

const (
	maxIndex     = 1<<15 - 1
	tempSize     = 8
	pointerSize  = 2
	tempBaseAddr = 5
)

var commandsMap = map[string]CommandType{
	"PUSH":     PushCommand,
	"POP":      PopCommand,
	"LABEL":    LabelCommand,
	"GOTO":     GotoCommand,
	"IF-GOTO":  IfGotoCommand,
	"FUNCTION": FunctionCommand,
	"CALL":     CallCommand,
	"RETURN":   ReturnCommand,
}

var arithmeticOpsMap = map[string]ArithmeticOp{
	"ADD": AddOp,
	"SUB": SubOp,
	"NEG": NegOp,
	"EQ":  EqOp,
	"GT":  GtOp,
	"LT":  LtOp,
	"AND": AndOp,
	"OR":  OrOp,
	"NOT": NotOp,
}

var segmentsMap = map[string]Segment{
	"LOCAL":    LocalSegment,
	"ARGUMENT": ArgumentSegment,
	"THIS":     ThisSegment,
	"THAT":     ThatSegment,
	"CONSTANT": ConstantSegment,
	"STATIC":   StaticSegment,
	"TEMP":     TempSegment,
	"POINTER":  PointerSegment,
}

func (op ArithmeticOp) String() string {
	switch op {
	case AddOp:
		return "add"
	case SubOp:
		return "sub"
	case NegOp:
		return "neg"
	case EqOp:
		return "eq"
	case GtOp:
		return "gt"
	case LtOp:
		return "lt"
	case AndOp:
		return "and"
	case OrOp:
		return "or"
	case NotOp:
		return "not"
	}
	return fmt.Sprintf("ArithmeticOp(%d)", int(op))
}

func (segment Segment) String() string {
	switch segment {
	case LocalSegment:
		return "local"
	case ArgumentSegment:
		return "argument"
	case ThisSegment:
		return "this"
	case ThatSegment:
		return "that"
	case ConstantSegment:
		return "constant"
	case StaticSegment:
		return "static"
	case TempSegment:
		return "temp"
	case PointerSegment:
		return "pointer"
	}
	return fmt.Sprintf("Segment(%d)", int(segment))
}

// Command is one parsed vm command. Which fields are meaningful depends on Tp:
// Op for arithmetic, Segment and Index for push/pop, Name for flow commands,
// Name and Index (locals or arguments) for function and call.
type Command struct {
	Tp      CommandType
	Op      ArithmeticOp
	Segment Segment
	Name    string
	Index   int
	Line    int
}

// String renders the command in canonical bytecode form.
func (command Command) String() string {
	switch command.Tp {
	case ArithmeticCommand:
		return command.Op.String()
	case PushCommand:
		return fmt.Sprintf("push %s %d", command.Segment, command.Index)
	case PopCommand:
		return fmt.Sprintf("pop %s %d", command.Segment, command.Index)
	case LabelCommand:
		return "label " + command.Name
	case GotoCommand:
		return "goto " + command.Name
	case IfGotoCommand:
		return "if-goto " + command.Name
	case FunctionCommand:
		return fmt.Sprintf("function %s %d", command.Name, command.Index)
	case CallCommand:
		return fmt.Sprintf("call %s %d", command.Name, command.Index)
	case ReturnCommand:
		return "return"
	}
	return fmt.Sprintf("CommandType(%d)", int(command.Tp))
}

// SyntaxError is a fatal error in a vm unit.
type SyntaxError struct {
	Unit string
	Line int
	Near string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError: %s:%d: syntax error near %q: %s", e.Unit, e.Line, e.Near, e.Msg)
}

func makeError(unit string, line int, near, msg string) error {
	return &SyntaxError{Unit: unit, Line: line, Near: near, Msg: msg}
}

// ParseCommands reads every command of one compilation unit. Blank and
// comment-only lines are skipped.
func ParseCommands(unit string, rd io.Reader) ([]Command, error) {
	var commands []Command
	bfReader := bufio.NewReader(rd)
	lineCounter := 0
	for {
		line, err := bfReader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		lineCounter++
		command, ok, parseErr := ParseLine(unit, lineCounter, line)
		if parseErr != nil {
			return nil, parseErr
		}
		if ok {
			commands = append(commands, command)
		}
		if err == io.EOF {
			return commands, nil
		}
	}
}

// ParseLine parses a single line. ok is false when the line holds no command.
func ParseLine(unit string, lineNo int, line string) (command Command, ok bool, err error) {
	if index := strings.Index(line, "//"); index != -1 {
		line = line[:index]
	}
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Command{}, false, nil
	}
	keyWord := strings.ToUpper(tokens[0])
	command.Line = lineNo
	if op, isArithmetic := arithmeticOpsMap[keyWord]; isArithmetic {
		if err = expectArgs(unit, lineNo, tokens, 0); err != nil {
			return Command{}, false, err
		}
		command.Tp, command.Op = ArithmeticCommand, op
		return command, true, nil
	}
	tp, exist := commandsMap[keyWord]
	if !exist {
		return Command{}, false, makeError(unit, lineNo, tokens[0], "unknown command")
	}
	command.Tp = tp
	switch tp {
	case PushCommand, PopCommand:
		err = parseMemoryAccess(unit, lineNo, tokens, &command)
	case LabelCommand, GotoCommand, IfGotoCommand:
		err = parseFlow(unit, lineNo, tokens, &command)
	case FunctionCommand, CallCommand:
		err = parseFunctionOrCall(unit, lineNo, tokens, &command)
	case ReturnCommand:
		err = expectArgs(unit, lineNo, tokens, 0)
	}
	if err != nil {
		return Command{}, false, err
	}
	return command, true, nil
}

func expectArgs(unit string, lineNo int, tokens []string, n int) error {
	if len(tokens)-1 < n {
		return makeError(unit, lineNo, strings.Join(tokens, " "), fmt.Sprintf("%s expects %d argument(s)", tokens[0], n))
	}
	if len(tokens)-1 > n {
		return makeError(unit, lineNo, tokens[n+1], "unexpected trailing content")
	}
	return nil
}

func parseMemoryAccess(unit string, lineNo int, tokens []string, command *Command) error {
	err := expectArgs(unit, lineNo, tokens, 2)
	if err != nil {
		return err
	}
	segment, exist := segmentsMap[strings.ToUpper(tokens[1])]
	if !exist {
		return makeError(unit, lineNo, tokens[1], "unknown memory segment")
	}
	index, err := parseInteger(unit, lineNo, tokens[2])
	if err != nil {
		return err
	}
	switch {
	case segment == ConstantSegment && command.Tp == PopCommand:
		return makeError(unit, lineNo, tokens[1], "constant segment is push-only")
	case segment == TempSegment && index >= tempSize:
		return makeError(unit, lineNo, tokens[2], fmt.Sprintf("temp index must be below %d", tempSize))
	case segment == PointerSegment && index >= pointerSize:
		return makeError(unit, lineNo, tokens[2], "pointer index must be 0 or 1")
	}
	command.Segment, command.Index = segment, index
	return nil
}

func parseFlow(unit string, lineNo int, tokens []string, command *Command) error {
	err := expectArgs(unit, lineNo, tokens, 1)
	if err != nil {
		return err
	}
	if !IsName(tokens[1]) {
		return makeError(unit, lineNo, tokens[1], "wrong label format")
	}
	command.Name = tokens[1]
	return nil
}

func parseFunctionOrCall(unit string, lineNo int, tokens []string, command *Command) error {
	err := expectArgs(unit, lineNo, tokens, 2)
	if err != nil {
		return err
	}
	if !IsName(tokens[1]) {
		return makeError(unit, lineNo, tokens[1], "wrong function name format")
	}
	count, err := parseInteger(unit, lineNo, tokens[2])
	if err != nil {
		return err
	}
	command.Name, command.Index = tokens[1], count
	return nil
}

// IsName reports whether s may name a unit, a function or a label. Names are
// assembly symbols without '$', which is kept for the labels the code writer
// generates.
func IsName(s string) bool {
	return util.IsSymbol(s) && !strings.Contains(s, "$")
}

func parseInteger(unit string, lineNo int, token string) (int, error) {
	if !util.IsDecimal(token) {
		return 0, makeError(unit, lineNo, token, "expect a non-negative integer")
	}
	value, err := strconv.Atoi(token)
	if err != nil || value > maxIndex {
		return 0, makeError(unit, lineNo, token, fmt.Sprintf("integer out of range 0..%d", maxIndex))
	}
	return value, nil
}
