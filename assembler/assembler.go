package assembler

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/nandkit/hack/util"
)

// A two pass assembler translating hack assembly into hack machine code.
//
// The first pass only looks at label declarations '(LABEL)' and binds each of
// them to the address of the instruction following it. The second pass encodes
// every instruction; an A instruction naming a symbol that is neither
// predefined nor a label declares a variable, which gets the next free data
// memory address starting at 16.
//
// The A instruction has several forms:
// * @10, a decimal constant loaded into A.
// * @R0-@R15, @SP, @LCL, @ARG, @THIS, @THAT, @SCREEN, @KBD, predefined symbols.
// * @label, the instruction address of a label, which may be declared later.
// * @variable, the data memory address of a variable, allocated on first use.

type CommandType int

const (
	ACommand CommandType = iota // @value
	CCommand                    // dest=comp;jump
	LCommand                    // (LABEL)
)

// Command is one parsed, validated source line.
type Command struct {
	Tp CommandType
	// Symbol is the value or symbol of an A command, or the name of an L command.
	Symbol string
	Dest   string
	Comp   string
	Jump   string
	Line   int

	OriginalContent string
}

// SyntaxError reports a fatal problem on a specific source line.
type SyntaxError struct {
	Line    int
	Content string
	Msg     string
}

func (e *SyntaxError) Error() string {
	if e.Content == "" {
		return fmt.Sprintf("syntax err at line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("syntax err at line %d: %s near %q", e.Line, e.Msg, e.Content)
}

type Assembler struct {
	line     int
	symbols  *SymbolTable
	commands []Command
	codes    []uint16
	// instructionCount is only used when lines are fed one at a time.
	instructionCount int
}

func CreateAssembler() *Assembler {
	return &Assembler{symbols: NewSymbolTable()}
}

// Symbols exposes the assembler's symbol table, mostly for inspection after
// a run.
func (asm *Assembler) Symbols() *SymbolTable {
	return asm.symbols
}

// Assemble translates a whole assembly program with a fresh assembler.
func Assemble(rd io.Reader) ([]uint16, error) {
	return CreateAssembler().Assemble(rd)
}

// Assemble parses rd and returns one machine word per instruction, in source
// order. Labels, comments and blank lines produce no word. Every call starts
// from a fresh symbol table.
func (asm *Assembler) Assemble(rd io.Reader) ([]uint16, error) {
	asm.reset()
	_, err := asm.Parse(rd)
	if err != nil {
		return nil, err
	}
	err = asm.resolveLabels()
	if err != nil {
		return nil, err
	}
	return asm.encodeCommands()
}

func (asm *Assembler) reset() {
	asm.line, asm.instructionCount = 0, 0
	asm.symbols = NewSymbolTable()
	asm.commands, asm.codes = nil, nil
}

// Parse reads rd line by line and returns the validated commands. Nothing is
// resolved yet.
func (asm *Assembler) Parse(rd io.Reader) ([]Command, error) {
	bfReader := bufio.NewReader(rd)
	for {
		line, err := bfReader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		asm.line++
		if trimmed, hasRemainCharacter := trimLine(line); hasRemainCharacter {
			command, parseErr := asm.parseLine(trimmed)
			if parseErr != nil {
				return nil, parseErr
			}
			asm.commands = append(asm.commands, command)
		}
		if err == io.EOF {
			return asm.commands, nil
		}
	}
}

// resolveLabels is the first pass. Every label is bound to the number of
// instructions seen before it.
func (asm *Assembler) resolveLabels() error {
	instructionAddr := 0
	for _, command := range asm.commands {
		if command.Tp != LCommand {
			instructionAddr++
			if instructionAddr > MaxInstructions {
				return asm.makeSyntaxErrAtSpecificLine(command.Line, command.OriginalContent,
					fmt.Sprintf("program exceeds instruction memory of %d words", MaxInstructions))
			}
			continue
		}
		err := asm.bindLabel(command, instructionAddr)
		if err != nil {
			return err
		}
	}
	return nil
}

func (asm *Assembler) bindLabel(command Command, instructionAddr int) error {
	if _, predefined := predefinedSymbols[command.Symbol]; predefined {
		return asm.makeSyntaxErrAtSpecificLine(command.Line, command.OriginalContent, "label redefines a predefined symbol")
	}
	if !asm.symbols.AddEntry(command.Symbol, uint16(instructionAddr)) {
		return asm.makeSyntaxErrAtSpecificLine(command.Line, command.OriginalContent, "found duplicate label")
	}
	return nil
}

// encodeCommands is the second pass.
func (asm *Assembler) encodeCommands() ([]uint16, error) {
	asm.codes = make([]uint16, 0, len(asm.commands))
	for _, command := range asm.commands {
		if command.Tp == LCommand {
			continue
		}
		code, err := asm.encodeCommand(command)
		if err != nil {
			return nil, err
		}
		asm.codes = append(asm.codes, code)
	}
	return asm.codes, nil
}

func (asm *Assembler) encodeCommand(command Command) (uint16, error) {
	switch command.Tp {
	case ACommand:
		if util.IsNumber(command.Symbol[0]) {
			// Range was checked while parsing.
			value, _ := strconv.Atoi(command.Symbol)
			return uint16(value), nil
		}
		addr, err := asm.symbols.Allocate(command.Symbol)
		if err != nil {
			return 0, asm.makeSyntaxErrAtSpecificLine(command.Line, command.OriginalContent, err.Error())
		}
		return addr, nil
	case CCommand:
		return encodeC(compCodes[command.Comp], destCodes[command.Dest], jumpCodes[command.Jump]), nil
	}
	return 0, asm.makeSyntaxErrAtSpecificLine(command.Line, command.OriginalContent, "label has no machine code")
}

// AssembleLine feeds a single line through both passes at once, keeping the
// symbol table and instruction count between calls. A label binds to the
// next instruction fed, so a symbol used before its label is declared becomes
// a variable. emitted is false for labels, comments and blank lines.
func (asm *Assembler) AssembleLine(text string) (code uint16, emitted bool, err error) {
	asm.line++
	trimmed, hasRemainCharacter := trimLine([]byte(text))
	if !hasRemainCharacter {
		return 0, false, nil
	}
	command, err := asm.parseLine(trimmed)
	if err != nil {
		return 0, false, err
	}
	if command.Tp == LCommand {
		return 0, false, asm.bindLabel(command, asm.instructionCount)
	}
	if asm.instructionCount >= MaxInstructions {
		return 0, false, asm.makeSyntaxErr(command.OriginalContent,
			fmt.Sprintf("program exceeds instruction memory of %d words", MaxInstructions))
	}
	code, err = asm.encodeCommand(command)
	if err != nil {
		return 0, false, err
	}
	asm.instructionCount++
	return code, true, nil
}

// trimLine removes surrounding spaces and a trailing comment, then reports
// whether anything is left.
func trimLine(line []byte) ([]byte, bool) {
	index := bytes.Index(line, []byte("//"))
	if index != -1 {
		line = line[:index]
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}
	return line, true
}

func (asm *Assembler) parseLine(line []byte) (Command, error) {
	switch line[0] {
	case '@':
		return asm.parseACommand(line)
	case '(':
		return asm.parseLabelCommand(line)
	default:
		return asm.parseCCommand(line)
	}
}

func (asm *Assembler) parseACommand(line []byte) (Command, error) {
	originalContent := string(line)
	value := string(bytes.TrimSpace(line[1:]))
	if len(value) == 0 {
		return Command{}, asm.makeSyntaxErr(originalContent, "missing address after @")
	}
	if util.IsNumber(value[0]) {
		if !util.IsDecimal(value) {
			return Command{}, asm.makeSyntaxErr(originalContent, "wrong decimal value format")
		}
		number, err := strconv.Atoi(value)
		if err != nil || number > MaxAddress {
			return Command{}, asm.makeSyntaxErr(originalContent,
				fmt.Sprintf("address out of range, must be between 0 and %d", MaxAddress))
		}
	} else if !util.IsSymbol(value) {
		return Command{}, asm.makeSyntaxErr(originalContent, "wrong variable or label format")
	}
	return Command{Tp: ACommand, Symbol: value, Line: asm.line, OriginalContent: originalContent}, nil
}

// parseLabelCommand parses '(LABEL)'. Spaces inside the parentheses are not
// allowed.
func (asm *Assembler) parseLabelCommand(line []byte) (Command, error) {
	originalContent := string(line)
	if line[len(line)-1] != ')' {
		return Command{}, asm.makeSyntaxErr(originalContent, "wrong label format, missing ')'")
	}
	label := string(line[1 : len(line)-1])
	if !util.IsSymbol(label) {
		return Command{}, asm.makeSyntaxErr(originalContent, "wrong label format")
	}
	return Command{Tp: LCommand, Symbol: label, Line: asm.line, OriginalContent: originalContent}, nil
}

// parseCCommand splits dest=comp;jump. dest and jump are optional but when
// their separator is present they must name something.
func (asm *Assembler) parseCCommand(line []byte) (Command, error) {
	originalContent := string(line)
	content := removeSpaces(line)
	command := Command{Tp: CCommand, Line: asm.line, OriginalContent: originalContent}
	if eq := bytes.IndexByte(content, '='); eq != -1 {
		command.Dest = string(content[:eq])
		if _, exist := destCodes[command.Dest]; !exist || command.Dest == "" {
			return Command{}, asm.makeSyntaxErr(originalContent, "wrong c command of dest code format")
		}
		content = content[eq+1:]
	}
	if semicolon := bytes.IndexByte(content, ';'); semicolon != -1 {
		command.Jump = string(content[semicolon+1:])
		if _, exist := jumpCodes[command.Jump]; !exist || command.Jump == "" {
			return Command{}, asm.makeSyntaxErr(originalContent, "wrong c command of jump code format")
		}
		content = content[:semicolon]
	}
	command.Comp = string(content)
	if _, exist := compCodes[command.Comp]; !exist {
		return Command{}, asm.makeSyntaxErr(originalContent, "wrong c command of comp code format")
	}
	return command, nil
}

func removeSpaces(line []byte) []byte {
	ret := make([]byte, 0, len(line))
	for _, b := range line {
		if util.IsSpace(b) {
			continue
		}
		ret = append(ret, b)
	}
	return ret
}

// FormatCode renders a machine word as 16 '0'/'1' characters, most
// significant bit first.
func FormatCode(code uint16) string {
	var buf [16]byte
	for j := 15; j >= 0; j-- {
		buf[j] = byte(code&1) + '0'
		code >>= 1
	}
	return string(buf[:])
}

// WriteHack writes codes in the .hack text format, one word per line.
func WriteHack(w io.Writer, codes []uint16) error {
	bw := bufio.NewWriter(w)
	for _, code := range codes {
		if _, err := bw.WriteString(FormatCode(code) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (asm *Assembler) makeSyntaxErr(content, msg string) error {
	return asm.makeSyntaxErrAtSpecificLine(asm.line, content, msg)
}

func (asm *Assembler) makeSyntaxErrAtSpecificLine(line int, content, msg string) error {
	return &SyntaxError{Line: line, Content: content, Msg: msg}
}
