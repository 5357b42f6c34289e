package assembler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCode(t *testing.T) {
	testData := []struct {
		code     uint16
		expected string
	}{
		{0, "0000000000000000"},
		{1, "0000000000000001"},
		{2, "0000000000000010"},
		{32767, "0111111111111111"},
		{0xFFFF, "1111111111111111"},
		{0xFFFE, "1111111111111110"},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, FormatCode(data.code))
	}
}

func TestTrimLine(t *testing.T) {
	line, ok := trimLine([]byte("   // only a comment"))
	assert.False(t, ok)
	assert.Nil(t, line)
	line, ok = trimLine([]byte("  D=A // welcome\r\n"))
	assert.True(t, ok)
	assert.Equal(t, "D=A", string(line))
	_, ok = trimLine([]byte("\t\n"))
	assert.False(t, ok)
}

func TestParseCCommand(t *testing.T) {
	asm := CreateAssembler()
	type code struct {
		assembleCode string
		binaryCode   string
	}
	dest := []code{
		{assembleCode: "", binaryCode: "000"},
		{assembleCode: "M", binaryCode: "001"},
		{assembleCode: "D", binaryCode: "010"},
		{assembleCode: "MD", binaryCode: "011"},
		{assembleCode: "A", binaryCode: "100"},
		{assembleCode: "AM", binaryCode: "101"},
		{assembleCode: "AD", binaryCode: "110"},
		{assembleCode: "AMD", binaryCode: "111"},
	}
	comp := []code{
		{assembleCode: "0", binaryCode: "0101010"},
		{assembleCode: "1", binaryCode: "0111111"},
		{assembleCode: "-1", binaryCode: "0111010"},
		{assembleCode: "D", binaryCode: "0001100"},
		{assembleCode: "A", binaryCode: "0110000"},
		{assembleCode: "!D", binaryCode: "0001101"},
		{assembleCode: "!A", binaryCode: "0110001"},
		{assembleCode: "-D", binaryCode: "0001111"},
		{assembleCode: "-A", binaryCode: "0110011"},
		{assembleCode: "D+1", binaryCode: "0011111"},
		{assembleCode: "A+1", binaryCode: "0110111"},
		{assembleCode: "D-1", binaryCode: "0001110"},
		{assembleCode: "A-1", binaryCode: "0110010"},
		{assembleCode: "D+A", binaryCode: "0000010"},
		{assembleCode: "D-A", binaryCode: "0010011"},
		{assembleCode: "A-D", binaryCode: "0000111"},
		{assembleCode: "D&A", binaryCode: "0000000"},
		{assembleCode: "D|A", binaryCode: "0010101"},
		{assembleCode: "M", binaryCode: "1110000"},
		{assembleCode: "!M", binaryCode: "1110001"},
		{assembleCode: "-M", binaryCode: "1110011"},
		{assembleCode: "M+1", binaryCode: "1110111"},
		{assembleCode: "M-1", binaryCode: "1110010"},
		{assembleCode: "D+M", binaryCode: "1000010"},
		{assembleCode: "D-M", binaryCode: "1010011"},
		{assembleCode: "M-D", binaryCode: "1000111"},
		{assembleCode: "D&M", binaryCode: "1000000"},
		{assembleCode: "D|M", binaryCode: "1010101"},
	}
	jump := []code{
		{assembleCode: "", binaryCode: "000"},
		{assembleCode: "JGT", binaryCode: "001"},
		{assembleCode: "JEQ", binaryCode: "010"},
		{assembleCode: "JGE", binaryCode: "011"},
		{assembleCode: "JLT", binaryCode: "100"},
		{assembleCode: "JNE", binaryCode: "101"},
		{assembleCode: "JLE", binaryCode: "110"},
		{assembleCode: "JMP", binaryCode: "111"},
	}
	preCode := "111"
	for _, destCode := range dest {
		line := destCode.assembleCode
		if line != "" {
			line = line + "="
		}
		for _, compCode := range comp {
			withComp := line + compCode.assembleCode
			for _, jumpCode := range jump {
				full := withComp
				if jumpCode.assembleCode != "" {
					full = full + ";" + jumpCode.assembleCode
				}
				command, err := asm.parseCCommand([]byte(full))
				require.Nil(t, err, full)
				assert.Equal(t, CCommand, command.Tp, full)
				code, err := asm.encodeCommand(command)
				require.Nil(t, err, full)
				assert.Equal(t, preCode+compCode.binaryCode+destCode.binaryCode+jumpCode.binaryCode,
					FormatCode(code), full)
			}
		}
	}
}

func TestParseCCommand_Errors(t *testing.T) {
	asm := CreateAssembler()
	for _, line := range []string{"D=X", "Q=D", "=D", "D;", "D;JJJ", "D+2", "AMDX=0", "0;JMP;JMP"} {
		_, err := asm.parseCCommand([]byte(line))
		assert.NotNil(t, err, line)
	}
	command, err := asm.parseCCommand([]byte("D = D + A ; JGT"))
	require.Nil(t, err)
	assert.Equal(t, "D", command.Dest)
	assert.Equal(t, "D+A", command.Comp)
	assert.Equal(t, "JGT", command.Jump)
	command, err = asm.parseCCommand([]byte("DM=A+D"))
	require.Nil(t, err)
	code, err := asm.encodeCommand(command)
	require.Nil(t, err)
	assert.Equal(t, "1110000010011000", FormatCode(code))
}

func TestParseLabelCommand(t *testing.T) {
	asm := CreateAssembler()
	_, err := asm.parseLabelCommand([]byte("(5shsl)"))
	assert.NotNil(t, err)
	_, err = asm.parseLabelCommand([]byte("(open"))
	assert.NotNil(t, err)
	_, err = asm.parseLabelCommand([]byte("( spaced )"))
	assert.NotNil(t, err)
	command, err := asm.parseLabelCommand([]byte("(hel4lo._$:)"))
	assert.Nil(t, err)
	assert.Equal(t, LCommand, command.Tp)
	assert.Equal(t, "hel4lo._$:", command.Symbol)
}

func TestParseACommand(t *testing.T) {
	asm := CreateAssembler()
	testData := []struct {
		line      string
		expectErr bool
	}{
		{"@10", false},
		{"@0", false},
		{"@32767", false},
		{"@32768", true},
		{"@-1", true},
		{"@12abc", true},
		{"@", true},
		{"@i", false},
		{"@Main.main$ret.1", false},
		{"@a-b", true},
	}
	for _, data := range testData {
		_, err := asm.parseACommand([]byte(data.line))
		if data.expectErr {
			assert.NotNil(t, err, data.line)
		} else {
			assert.Nil(t, err, data.line)
		}
	}
}

func assembleString(t *testing.T, contents string) []string {
	codes, err := Assemble(strings.NewReader(contents))
	require.Nil(t, err)
	ret := make([]string, 0, len(codes))
	for _, code := range codes {
		ret = append(ret, FormatCode(code))
	}
	return ret
}

func TestAssemble_AddConstants(t *testing.T) {
	codes := assembleString(t, "@2\nD=A\n@3\nD=D+A\n@0\nM=D")
	assert.Equal(t, []string{
		"0000000000000010",
		"1110110000010000",
		"0000000000000011",
		"1110000010010000",
		"0000000000000000",
		"1110001100001000",
	}, codes)
}

func TestAssembler_IntegrationTest(t *testing.T) {
	contents := `
// set M[11] = 10 + M[11]
@10
D=A
@11
M=M+D
@2
D=A // welcome
@i
M=D
@10
D=A
@j
M=D


// Loop M[11] = M[11] - 2 until M[11] < 0
(LOOP)
@i
D=A
@11
M=M-D // hello
@11
D=M
@END
D;JLT
@LOOP
0;JMP

(END)
@END
0;JMP
`
	asm := CreateAssembler()
	codes, err := asm.Assemble(strings.NewReader(contents))
	require.Nil(t, err)
	assert.Len(t, codes, 24)
	assert.Equal(t, uint16(16), codes[6])
	assert.Equal(t, uint16(17), codes[10])
	assert.Equal(t, uint16(16), codes[12])
	assert.Equal(t, uint16(22), codes[18])
	assert.Equal(t, uint16(12), codes[20])
	assert.Equal(t, uint16(22), codes[22])
	loop, _ := asm.Symbols().Address("LOOP")
	end, _ := asm.Symbols().Address("END")
	assert.Equal(t, uint16(12), loop)
	assert.Equal(t, uint16(22), end)
}

func TestAssemble_LabelsIncreaseInSourceOrder(t *testing.T) {
	contents := "(A0)\n@A1\n(A1)\n(A2)\nD=D+1\n// comment\n\n(A3)\n@A0\n0;JMP\n(A4)\n"
	asm := CreateAssembler()
	_, err := asm.Assemble(strings.NewReader(contents))
	require.Nil(t, err)
	last := -1
	for i, label := range []string{"A0", "A1", "A2", "A3", "A4"} {
		addr, exist := asm.Symbols().Address(label)
		require.True(t, exist, label)
		assert.True(t, int(addr) >= last, label)
		if i > 0 && label != "A2" {
			assert.True(t, int(addr) > last, label)
		}
		last = int(addr)
	}
	addr, _ := asm.Symbols().Address("A4")
	assert.Equal(t, uint16(4), addr)
}

func TestAssemble_ForwardLabelIsNotVariable(t *testing.T) {
	codes := assembleString(t, "@END\n0;JMP\n@x\nM=1\n(END)\n@END\n0;JMP\n@y\nM=0")
	assert.Equal(t, FormatCode(4), codes[0])
	assert.Equal(t, FormatCode(16), codes[2])
	assert.Equal(t, FormatCode(17), codes[6])
}

func TestAssemble_Deterministic(t *testing.T) {
	contents := "@a\nM=1\n@b\nM=0\n(L)\n@a\nD=M\n@L\nD;JGT\n"
	first := assembleString(t, contents)
	second := assembleString(t, contents)
	assert.Equal(t, first, second)
}

func TestAssembler_AssembleTwice(t *testing.T) {
	contents := "@a\nM=1\n(L)\n@L\n0;JMP\n"
	asm := CreateAssembler()
	first, err := asm.Assemble(strings.NewReader(contents))
	require.Nil(t, err)
	second, err := asm.Assemble(strings.NewReader(contents))
	require.Nil(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 4, len(second))

	_, err = asm.Assemble(strings.NewReader("@1\nD=Q\n"))
	var syntaxErr *SyntaxError
	if assert.True(t, errors.As(err, &syntaxErr)) {
		assert.Equal(t, 2, syntaxErr.Line)
	}
}

func TestAssemble_Errors(t *testing.T) {
	testData := []struct {
		contents string
		line     int
	}{
		{"@1\nD=Q\n", 2},
		{"(LOOP)\n@1\n(LOOP)\n", 3},
		{"(SP)\n@1\n", 1},
		{"@1\n\n// x\n@99999\n", 4},
		{"D=A\n(bad label)\n", 2},
	}
	for _, data := range testData {
		_, err := Assemble(strings.NewReader(data.contents))
		require.NotNil(t, err, data.contents)
		var syntaxErr *SyntaxError
		require.True(t, errors.As(err, &syntaxErr), data.contents)
		assert.Equal(t, data.line, syntaxErr.Line, data.contents)
		assert.Contains(t, err.Error(), fmt.Sprintf("line %d", data.line))
	}
}

func TestAssemble_InstructionMemoryOverflow(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i <= MaxInstructions; i++ {
		buf.WriteString("D=D+1\n")
	}
	_, err := Assemble(&buf)
	assert.NotNil(t, err)
}

func TestAssemble_VariableOverflow(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i <= ScreenAddress-VariableBaseAddress; i++ {
		fmt.Fprintf(&buf, "@v%d\n", i)
	}
	_, err := Assemble(&buf)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "data memory exhausted")
}

func TestAssembleLine(t *testing.T) {
	asm := CreateAssembler()
	_, emitted, err := asm.AssembleLine("// nothing")
	assert.Nil(t, err)
	assert.False(t, emitted)
	code, emitted, err := asm.AssembleLine("@counter")
	require.Nil(t, err)
	assert.True(t, emitted)
	assert.Equal(t, uint16(16), code)
	_, emitted, err = asm.AssembleLine("(LOOP)")
	require.Nil(t, err)
	assert.False(t, emitted)
	code, _, err = asm.AssembleLine("@LOOP")
	require.Nil(t, err)
	assert.Equal(t, uint16(1), code)
	_, _, err = asm.AssembleLine("(LOOP)")
	assert.NotNil(t, err)
	_, _, err = asm.AssembleLine("D=Z")
	assert.NotNil(t, err)
}

func TestWriteHack(t *testing.T) {
	var buf bytes.Buffer
	require.Nil(t, WriteHack(&buf, []uint16{1, 0xEC10}))
	assert.Equal(t, "0000000000000001\n1110110000010000\n", buf.String())
}
