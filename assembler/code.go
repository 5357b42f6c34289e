package assembler

// Fixed bit patterns of the hack instruction set.
//
// A instruction: 0vvvvvvvvvvvvvvv, a 15-bit value.
// C instruction: 111accccccdddjjj, where the 7-bit comp code carries the
// a-bit selecting between A and M as the ALU's y input.

const (
	cInstructionPrefix uint16 = 0b111 << 13
	compShift                 = 6
	destShift                 = 3

	// MaxAddress is the largest value an A instruction can load.
	MaxAddress = 1<<15 - 1
	// MaxInstructions is the size of instruction memory.
	MaxInstructions = 1 << 15
	// VariableBaseAddress is where the first auto-allocated variable lives.
	VariableBaseAddress = 16
	// ScreenAddress is the base of the memory mapped screen, variables must
	// stay below it.
	ScreenAddress = 16384
	// KeyboardAddress is the memory mapped keyboard register.
	KeyboardAddress = 24576
)

var predefinedSymbols = map[string]uint16{
	"SP":     0,
	"LCL":    1,
	"ARG":    2,
	"THIS":   3,
	"THAT":   4,
	"R0":     0,
	"R1":     1,
	"R2":     2,
	"R3":     3,
	"R4":     4,
	"R5":     5,
	"R6":     6,
	"R7":     7,
	"R8":     8,
	"R9":     9,
	"R10":    10,
	"R11":    11,
	"R12":    12,
	"R13":    13,
	"R14":    14,
	"R15":    15,
	"SCREEN": ScreenAddress,
	"KBD":    KeyboardAddress,
}

// compCodes maps every accepted comp mnemonic, commuted spellings included,
// to its 7-bit a+c code.
var compCodes = map[string]uint16{
	"0":   0b0101010,
	"1":   0b0111111,
	"-1":  0b0111010,
	"D":   0b0001100,
	"A":   0b0110000,
	"!D":  0b0001101,
	"!A":  0b0110001,
	"-D":  0b0001111,
	"-A":  0b0110011,
	"D+1": 0b0011111,
	"1+D": 0b0011111,
	"A+1": 0b0110111,
	"1+A": 0b0110111,
	"D-1": 0b0001110,
	"A-1": 0b0110010,
	"D+A": 0b0000010,
	"A+D": 0b0000010,
	"D-A": 0b0010011,
	"A-D": 0b0000111,
	"D&A": 0b0000000,
	"A&D": 0b0000000,
	"D|A": 0b0010101,
	"A|D": 0b0010101,
	"M":   0b1110000,
	"!M":  0b1110001,
	"-M":  0b1110011,
	"M+1": 0b1110111,
	"1+M": 0b1110111,
	"M-1": 0b1110010,
	"D+M": 0b1000010,
	"M+D": 0b1000010,
	"D-M": 0b1010011,
	"M-D": 0b1000111,
	"D&M": 0b1000000,
	"M&D": 0b1000000,
	"D|M": 0b1010101,
	"M|D": 0b1010101,
}

// destCodes accepts any permutation of the destination registers.
var destCodes = map[string]uint16{
	"":    0b000,
	"M":   0b001,
	"D":   0b010,
	"MD":  0b011,
	"DM":  0b011,
	"A":   0b100,
	"AM":  0b101,
	"MA":  0b101,
	"AD":  0b110,
	"DA":  0b110,
	"AMD": 0b111,
	"ADM": 0b111,
	"DAM": 0b111,
	"DMA": 0b111,
	"MAD": 0b111,
	"MDA": 0b111,
}

var jumpCodes = map[string]uint16{
	"":    0b000,
	"JGT": 0b001,
	"JEQ": 0b010,
	"JGE": 0b011,
	"JLT": 0b100,
	"JNE": 0b101,
	"JLE": 0b110,
	"JMP": 0b111,
}

// encodeC builds a C instruction from already validated field codes.
func encodeC(comp, dest, jump uint16) uint16 {
	return cInstructionPrefix | comp<<compShift | dest<<destShift | jump
}
