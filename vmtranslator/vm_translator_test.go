package vmtranslator

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nandkit/hack/assembler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, unit, source string) Unit {
	commands, err := ParseCommands(unit, strings.NewReader(source))
	require.Nil(t, err)
	return Unit{Name: unit, Commands: commands}
}

func translateSource(t *testing.T, options Options, units ...Unit) string {
	buf := bytes.Buffer{}
	err := Translate(&buf, units, options)
	require.Nil(t, err)
	return buf.String()
}

func lines(asm string) []string {
	var ret []string
	for _, l := range strings.Split(asm, "\n") {
		if l = strings.TrimSpace(l); l != "" && !strings.HasPrefix(l, "//") {
			ret = append(ret, l)
		}
	}
	return ret
}

func TestVMTranslator_Push(t *testing.T) {
	lines := []string{
		"push argument 1",
		"push argument 2",
		"push local 1",
		"push local 2",
		"push static 1",
		"push static 2",
		"push constant 1",
		"push constant 32767",
		"push this 1",
		"push that 2",
		"push pointer 0",
		"push pointer 1",
		"push temp 0",
		"push temp 7",
		"PUSH Local 3",
	}
	for i, l := range lines {
		command, ok, err := ParseLine("Foo", i+1, l)
		assert.Nil(t, err, l)
		assert.True(t, ok)
		assert.Equal(t, PushCommand, command.Tp)
		assert.Equal(t, strings.ToLower(l), command.String())
	}
}

func TestVMTranslator_Pop(t *testing.T) {
	lines := []string{
		"pop argument 1",
		"pop local 2",
		"pop static 1",
		"pop this 1",
		"pop that 2",
		"pop pointer 1",
		"pop temp 1",
	}
	for i, l := range lines {
		command, ok, err := ParseLine("Foo", i+1, l)
		assert.Nil(t, err, l)
		assert.True(t, ok)
		assert.Equal(t, PopCommand, command.Tp)
		assert.Equal(t, l, command.String())
	}
}

func TestVMTranslator_Arithmetic_Commands(t *testing.T) {
	testData := []struct {
		line string
		op   ArithmeticOp
	}{
		{"add", AddOp},
		{"sub", SubOp},
		{"neg", NegOp},
		{"eq", EqOp},
		{"gt", GtOp},
		{"lt", LtOp},
		{"and", AndOp},
		{"or", OrOp},
		{"not", NotOp},
		{"  Add   // with comment", AddOp},
	}
	for _, data := range testData {
		command, ok, err := ParseLine("Foo", 1, data.line)
		assert.Nil(t, err)
		assert.True(t, ok)
		assert.Equal(t, ArithmeticCommand, command.Tp)
		assert.Equal(t, data.op, command.Op)
	}
}

func TestVMTranslator_FunctionCallReturn(t *testing.T) {
	unit := parseSource(t, "Foo", "function m 10\ncall m 10\nreturn")
	require.Equal(t, 3, len(unit.Commands))
	assert.Equal(t, Command{Tp: FunctionCommand, Name: "m", Index: 10, Line: 1}, unit.Commands[0])
	assert.Equal(t, Command{Tp: CallCommand, Name: "m", Index: 10, Line: 2}, unit.Commands[1])
	assert.Equal(t, Command{Tp: ReturnCommand, Line: 3}, unit.Commands[2])
}

func TestNewVMTranslator_Label_IfGoto_Goto(t *testing.T) {
	unit := parseSource(t, "Foo", "label lll\nif-goto ffff\n\n// comment only\ngoto ffff\n")
	require.Equal(t, 3, len(unit.Commands))
	assert.Equal(t, LabelCommand, unit.Commands[0].Tp)
	assert.Equal(t, IfGotoCommand, unit.Commands[1].Tp)
	assert.Equal(t, GotoCommand, unit.Commands[2].Tp)
	assert.Equal(t, 5, unit.Commands[2].Line)
}

func TestParseLine_Errors(t *testing.T) {
	testData := []string{
		"pop constant 1",
		"push pointer 2",
		"push temp 8",
		"push local",
		"push local -1",
		"push local x",
		"push local 32768",
		"push heap 1",
		"add 1",
		"jump somewhere",
		"label 1abc",
		"label a$b",
		"call Foo$bar 0",
		"goto",
		"function f",
		"call f n",
		"return 1",
	}
	for i, line := range testData {
		_, ok, err := ParseLine("Foo", i+1, line)
		assert.False(t, ok, line)
		var syntaxErr *SyntaxError
		if assert.True(t, errors.As(err, &syntaxErr), line) {
			assert.Equal(t, "Foo", syntaxErr.Unit)
			assert.Equal(t, i+1, syntaxErr.Line)
		}
	}
}

func TestCodeWriter_OutputAssembles(t *testing.T) {
	source := `
function Foo.bar 2
push constant 7
push constant 8
add
pop local 0
push local 0
push argument 0
eq
if-goto DONE
push static 3
pop temp 2
push pointer 1
pop pointer 0
push this 1
pop that 0
neg
not
label DONE
push constant 0
call Foo.bar 1
return
`
	asm := translateSource(t, Options{}, parseSource(t, "Foo", source))
	_, err := assembler.Assemble(strings.NewReader(asm))
	assert.Nil(t, err)
	assert.Contains(t, asm, "@Foo.3\n")
	assert.Contains(t, asm, "(Foo.bar$DONE)\n")
	assert.Contains(t, asm, "@Foo.bar$DONE\nD;JNE\n")
	assert.Contains(t, asm, "(Foo.bar$ret$0)\n")
	// temp 2 is RAM[7]
	assert.Contains(t, asm, "@7\nM=D\n")
	// no Sys.init, no bootstrap
	assert.NotContains(t, asm, "@256")
}

func TestCodeWriter_FunctionPushesZeroLocals(t *testing.T) {
	asm := translateSource(t, Options{}, parseSource(t, "Foo", "function Foo.f 3"))
	assert.Equal(t, "(Foo.f)", lines(asm)[0])
	assert.Equal(t, 3, strings.Count(asm, "M=0\n"))
	asm = translateSource(t, Options{}, parseSource(t, "Foo", "function Foo.g 0"))
	assert.Equal(t, []string{"(Foo.g)"}, lines(asm))
}

func TestCodeWriter_Annotate(t *testing.T) {
	unit := parseSource(t, "Foo", "push constant 1\nADD\n")
	asm := translateSource(t, Options{Annotate: true}, unit)
	assert.Contains(t, asm, "// push constant 1\n")
	assert.Contains(t, asm, "// add\n")
	asm = translateSource(t, Options{}, unit)
	assert.NotContains(t, asm, "//")
}

func TestCodeWriter_LabelsAreScopedPerFunction(t *testing.T) {
	source := `
function A.f 0
label LOOP
goto LOOP
return
label AFTER
function A.g 0
label LOOP
goto LOOP
`
	asm := translateSource(t, Options{}, parseSource(t, "A", source))
	assert.Contains(t, asm, "(A.f$LOOP)")
	assert.Contains(t, asm, "(A.g$LOOP)")
	// a label after return still belongs to the enclosing function
	assert.Contains(t, asm, "(A.f$AFTER)")
	_, err := assembler.Assemble(strings.NewReader(asm))
	assert.Nil(t, err)
}

func TestCodeWriter_UniqueGeneratedLabels(t *testing.T) {
	source := "function A.f 0\neq\neq\ncall A.f 0\ncall A.f 0\nlt\n"
	a := parseSource(t, "A", source)
	b := parseSource(t, "B", strings.Replace(source, "A.f", "B.f", -1))
	asm := translateSource(t, Options{}, a, b)
	seen := map[string]bool{}
	for _, l := range lines(asm) {
		if strings.HasPrefix(l, "(") {
			assert.False(t, seen[l], "label %s declared twice", l)
			seen[l] = true
		}
	}
	assert.True(t, seen["(A.f$ret$0)"])
	assert.True(t, seen["(A.f$ret$1)"])
	assert.True(t, seen["(B.f$ret$1)"])
}

func TestCodeWriter_GeneratedLabelsNeverMeetUserLabels(t *testing.T) {
	source := `
function A.f 0
label ret.0
label cmp.0
push constant 1
push constant 2
lt
call A.f 0
return
`
	sys := parseSource(t, "Bootstrap", "call Sys.init 0\nfunction Sys.init 0\nlabel ret.0\ncall A.f 0\nreturn")
	asm := translateSource(t, Options{}, parseSource(t, "A", source), sys)
	_, err := assembler.Assemble(strings.NewReader(asm))
	assert.Nil(t, err)
	assert.Contains(t, asm, "(A.f$ret.0)\n")
	assert.Contains(t, asm, "(A.f$ret$0)\n")
	assert.Contains(t, asm, "(Bootstrap$ret$0)\n")
	assert.Contains(t, asm, "($Bootstrap$ret$0)\n")
}

func TestTranslate_Bootstrap(t *testing.T) {
	main := parseSource(t, "Main", "function Main.main 0\npush constant 0\nreturn")
	sys := parseSource(t, "Sys", "function Sys.init 0\ncall Main.main 0\nlabel END\ngoto END")

	asm := translateSource(t, Options{}, main, sys)
	l := lines(asm)
	assert.Equal(t, []string{"@256", "D=A", "@SP", "M=D", "@$Bootstrap$ret$0"}, l[:5])
	sysAt := strings.Index(asm, "(Sys.init)")
	mainAt := strings.Index(asm, "(Main.main)")
	assert.True(t, sysAt != -1 && mainAt != -1 && sysAt < mainAt)

	asm = translateSource(t, Options{Bootstrap: BootstrapNever}, main, sys)
	assert.NotContains(t, asm, "@256")
	assert.Equal(t, "(Sys.init)", lines(asm)[0])

	buf := bytes.Buffer{}
	err := Translate(&buf, []Unit{main}, Options{Bootstrap: BootstrapAlways})
	assert.NotNil(t, err)
}

func TestTranslate_Deterministic(t *testing.T) {
	unit := parseSource(t, "Foo", "function Foo.f 1\npush local 0\npush constant 2\ngt\ncall Foo.f 1\nreturn")
	assert.Equal(t, translateSource(t, Options{}, unit), translateSource(t, Options{}, unit))
}

func TestTranslate_Errors(t *testing.T) {
	f := parseSource(t, "A", "function Shared.f 0\nreturn")
	g := parseSource(t, "B", "push constant 1\nfunction Shared.f 0\nreturn")
	err := Translate(&bytes.Buffer{}, []Unit{f, g}, Options{})
	var syntaxErr *SyntaxError
	if assert.True(t, errors.As(err, &syntaxErr)) {
		assert.Equal(t, "B", syntaxErr.Unit)
		assert.Equal(t, 2, syntaxErr.Line)
	}

	main := parseSource(t, "Main", "function Main 0\nreturn")
	err = Translate(&bytes.Buffer{}, []Unit{main}, Options{})
	if assert.True(t, errors.As(err, &syntaxErr)) {
		assert.Equal(t, "Main", syntaxErr.Near)
	}

	err = Translate(&bytes.Buffer{}, []Unit{{Name: "My-File"}}, Options{})
	assert.NotNil(t, err)
	err = Translate(&bytes.Buffer{}, []Unit{{Name: "My$File"}}, Options{})
	assert.NotNil(t, err)
	err = Translate(&bytes.Buffer{}, []Unit{{Name: "A"}, {Name: "A"}}, Options{})
	assert.NotNil(t, err)
}

func TestTranslateFiles(t *testing.T) {
	dir, err := ioutil.TempDir("", "vmtranslator")
	require.Nil(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "Simple.vm")
	require.Nil(t, ioutil.WriteFile(path, []byte("push constant 1\npush static 0\nadd\n"), 0644))

	buf := bytes.Buffer{}
	err = TranslateFiles(&buf, []string{path}, Options{})
	assert.Nil(t, err)
	assert.Contains(t, buf.String(), "@Simple.0\n")

	err = TranslateFiles(&buf, []string{filepath.Join(dir, "Missing.vm")}, Options{})
	assert.NotNil(t, err)
}
