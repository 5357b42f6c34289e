package vmtranslator

import (
	"fmt"
	"io"
	"strings"
)

// The stack pointer lives in RAM[0] and points at the first free slot. Comparison results are
// -1 for true and 0 for false. R13 and R14 are scratch registers owned by the translator.
//
// A call frame, pushed by the caller and restored by return, is laid out as:
//
//	argument 0..n-1
//	return address   <- ARG + n
//	saved LCL
//	saved ARG
//	saved THIS
//	saved THAT
//	local 0..k-1     <- LCL

const (
	// No vm name contains '$', so the bootstrap scope cannot meet a unit's.
	bootstrapScope = "$Bootstrap"
	stackBase      = 256
	frameSize      = 5
)

var segmentBaseMap = map[Segment]string{
	LocalSegment:    "LCL",
	ArgumentSegment: "ARG",
	ThisSegment:     "THIS",
	ThatSegment:     "THAT",
}

var binaryOpsMap = map[ArithmeticOp]string{
	AddOp: "M=D+M",
	SubOp: "M=M-D",
	AndOp: "M=D&M",
	OrOp:  "M=D|M",
}

var unaryOpsMap = map[ArithmeticOp]string{
	NegOp: "M=-M",
	NotOp: "M=!M",
}

var comparisonJumpsMap = map[ArithmeticOp]string{
	EqOp: "JEQ",
	GtOp: "JGT",
	LtOp: "JLT",
}

// push D onto the stack.
const pushD = `@SP
A=M
M=D
@SP
M=M+1
`

// pop the stack top into D.
const popD = `@SP
AM=M-1
D=M
`

// CodeWriter emits assembly for the commands of one compilation unit. The
// unit name namespaces static variables; label and return address counters
// are private to the writer.
type CodeWriter struct {
	unit     string
	output   io.Writer
	annotate bool
	// scopes holds the unit name at the bottom and the function being
	// translated above it.
	scopes      []string
	labelNameID int
	funcCallID  map[string]int
}

func NewCodeWriter(unit string, output io.Writer, annotate bool) *CodeWriter {
	return &CodeWriter{
		unit:       unit,
		output:     output,
		annotate:   annotate,
		scopes:     []string{unit},
		funcCallID: map[string]int{},
	}
}

func (cw *CodeWriter) currentScope() string {
	return cw.scopes[len(cw.scopes)-1]
}

// enterFunction makes name the scope of every label until the next function
// declaration. Unlike a push on function and a pop on return, return does not
// leave the scope since a function may return from several places.
func (cw *CodeWriter) enterFunction(name string) {
	cw.scopes = append(cw.scopes[:1], name)
}

func (cw *CodeWriter) scopedLabel(label string) string {
	return cw.currentScope() + "$" + label
}

func (cw *CodeWriter) nextReturnLabel() string {
	scope := cw.currentScope()
	id := cw.funcCallID[scope]
	cw.funcCallID[scope] = id + 1
	return fmt.Sprintf("%s$ret$%d", scope, id)
}

func (cw *CodeWriter) write(annotation, code string) error {
	if cw.annotate && annotation != "" {
		code = "// " + annotation + "\n" + code
	}
	_, err := io.WriteString(cw.output, code)
	return err
}

// WriteCommand translates a single command.
func (cw *CodeWriter) WriteCommand(command Command) error {
	var code string
	switch command.Tp {
	case ArithmeticCommand:
		code = cw.arithmetic(command.Op)
	case PushCommand:
		code = cw.push(command.Segment, command.Index)
	case PopCommand:
		code = cw.pop(command.Segment, command.Index)
	case LabelCommand:
		code = fmt.Sprintf("(%s)\n", cw.scopedLabel(command.Name))
	case GotoCommand:
		code = fmt.Sprintf("@%s\n0;JMP\n", cw.scopedLabel(command.Name))
	case IfGotoCommand:
		code = popD + fmt.Sprintf("@%s\nD;JNE\n", cw.scopedLabel(command.Name))
	case FunctionCommand:
		cw.enterFunction(command.Name)
		code = cw.function(command.Name, command.Index)
	case CallCommand:
		code = cw.call(command.Name, command.Index)
	case ReturnCommand:
		code = cw.ret()
	default:
		return makeError(cw.unit, command.Line, command.String(), "unknown command type")
	}
	return cw.write(command.String(), code)
}

// WriteBootstrap sets SP to 256 and calls entry with no arguments.
func (cw *CodeWriter) WriteBootstrap(entry string) error {
	saved := cw.scopes
	cw.scopes = []string{bootstrapScope}
	code := fmt.Sprintf(`@%d
D=A
@SP
M=D
`, stackBase) + cw.call(entry, 0)
	cw.scopes = saved
	return cw.write("bootstrap", code)
}

func (cw *CodeWriter) arithmetic(op ArithmeticOp) string {
	if assign, ok := unaryOpsMap[op]; ok {
		return "@SP\nA=M-1\n" + assign + "\n"
	}
	if assign, ok := binaryOpsMap[op]; ok {
		return popD + "A=A-1\n" + assign + "\n"
	}
	// x op y. Operands of different signs are decided by the sign of x alone
	// since x-y could overflow, otherwise D=x-y. The result is assumed true and
	// overwritten with false when the jump is not taken.
	label := fmt.Sprintf("%s$cmp$%d", cw.currentScope(), cw.labelNameID)
	cw.labelNameID++
	return popD + fmt.Sprintf(`@R13
M=D
@SP
A=M-1
D=M
@%[1]s$xneg
D;JLT
@R13
D=M
@%[1]s$diff
D;JGE
D=1
@%[1]s$test
0;JMP
(%[1]s$xneg)
@R13
D=M
@%[1]s$diff
D;JLT
D=-1
@%[1]s$test
0;JMP
(%[1]s$diff)
@R13
D=M
@SP
A=M-1
D=M-D
(%[1]s$test)
@SP
A=M-1
M=-1
@%[1]s$true
D;%[2]s
@SP
A=M-1
M=0
(%[1]s$true)
`, label, comparisonJumpsMap[op])
}

// segmentAddress returns the code to load the fixed address of a direct
// segment slot into A, in the form of a symbol or a number.
func (cw *CodeWriter) segmentAddress(segment Segment, index int) string {
	switch segment {
	case StaticSegment:
		return fmt.Sprintf("@%s.%d\n", cw.unit, index)
	case TempSegment:
		return fmt.Sprintf("@%d\n", tempBaseAddr+index)
	case PointerSegment:
		if index == 0 {
			return "@THIS\n"
		}
		return "@THAT\n"
	}
	return ""
}

func (cw *CodeWriter) push(segment Segment, index int) string {
	switch segment {
	case ConstantSegment:
		return fmt.Sprintf("@%d\nD=A\n", index) + pushD
	case StaticSegment, TempSegment, PointerSegment:
		return cw.segmentAddress(segment, index) + "D=M\n" + pushD
	}
	return fmt.Sprintf(`@%d
D=A
@%s
A=D+M
D=M
`, index, segmentBaseMap[segment]) + pushD
}

func (cw *CodeWriter) pop(segment Segment, index int) string {
	switch segment {
	case StaticSegment, TempSegment, PointerSegment:
		return popD + cw.segmentAddress(segment, index) + "M=D\n"
	}
	// Keep the target address in R13 while popping.
	return fmt.Sprintf(`@%d
D=A
@%s
D=D+M
@R13
M=D
`, index, segmentBaseMap[segment]) + popD + `@R13
A=M
M=D
`
}

// function f k: declare the entry label and push k zeros for the locals.
func (cw *CodeWriter) function(name string, nLocals int) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("(%s)\n", name))
	for i := 0; i < nLocals; i++ {
		builder.WriteString("@SP\nA=M\nM=0\n@SP\nM=M+1\n")
	}
	return builder.String()
}

// call f n: push the return address and the caller's LCL, ARG, THIS, THAT,
// then set ARG=SP-n-5, LCL=SP and jump to f.
func (cw *CodeWriter) call(name string, nArgs int) string {
	returnLabel := cw.nextReturnLabel()
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("@%s\nD=A\n", returnLabel))
	builder.WriteString(pushD)
	for _, register := range []string{"LCL", "ARG", "THIS", "THAT"} {
		builder.WriteString(fmt.Sprintf("@%s\nD=M\n", register))
		builder.WriteString(pushD)
	}
	builder.WriteString(fmt.Sprintf(`@SP
D=M
@%d
D=D-A
@ARG
M=D
@SP
D=M
@LCL
M=D
@%s
0;JMP
(%s)
`, nArgs+frameSize, name, returnLabel))
	return builder.String()
}

// return: R13 holds the frame base and R14 the return address. The return
// address is read before the return value is stored, since with no arguments
// *ARG is the slot holding it.
func (cw *CodeWriter) ret() string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(`@LCL
D=M
@R13
M=D
@%d
A=D-A
D=M
@R14
M=D
`, frameSize))
	builder.WriteString(popD)
	builder.WriteString(`@ARG
A=M
M=D
@ARG
D=M+1
@SP
M=D
`)
	for _, register := range []string{"THAT", "THIS", "ARG", "LCL"} {
		builder.WriteString(fmt.Sprintf("@R13\nAM=M-1\nD=M\n@%s\nM=D\n", register))
	}
	builder.WriteString("@R14\nA=M\n0;JMP\n")
	return builder.String()
}
