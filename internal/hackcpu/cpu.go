// Package hackcpu executes hack machine code without any screen or keyboard,
// so translated programs can be checked by their effect on memory.
package hackcpu

import (
	"errors"
	"fmt"
)

const (
	RAMSize = 1 << 15
	ROMSize = 1 << 15

	// @n followed by 0;JMP at address n jumps to itself forever.
	jumpForever = 0xEA87
)

var ErrStepLimit = errors.New("step limit reached before the program halted")

type CPU struct {
	A  uint16
	D  uint16
	PC uint16

	RAM [RAMSize]uint16
	ROM []uint16

	Steps  int
	Halted bool
}

func NewCPU() *CPU {
	return &CPU{}
}

// Load replaces the program and resets registers. RAM is left as is so a
// test can prepare it before running.
func (c *CPU) Load(program []uint16) error {
	if len(program) > ROMSize {
		return fmt.Errorf("program has %d words, instruction memory holds %d", len(program), ROMSize)
	}
	c.ROM = append([]uint16(nil), program...)
	c.A, c.D, c.PC, c.Steps, c.Halted = 0, 0, 0, 0, false
	return nil
}

// ALU computes the hack ALU output for inputs x and y under the six control bits.
func ALU(x, y uint16, zx, nx, zy, ny, f, no bool) uint16 {
	if zx {
		x = 0
	}
	if nx {
		x = ^x
	}
	if zy {
		y = 0
	}
	if ny {
		y = ^y
	}
	var out uint16
	if f {
		out = x + y
	} else {
		out = x & y
	}
	if no {
		out = ^out
	}
	return out
}

func bit(instruction uint16, n uint) bool {
	return instruction>>n&1 == 1
}

// atHaltLoop reports whether the next two instructions jump back to themselves.
func (c *CPU) atHaltLoop() bool {
	pc := int(c.PC)
	return pc+1 < len(c.ROM) && c.ROM[pc] == c.PC && c.ROM[pc+1] == jumpForever
}

func (c *CPU) memory(addr uint16) (*uint16, error) {
	if int(addr) >= RAMSize {
		return nil, fmt.Errorf("memory access at %d out of range, pc %d", addr, c.PC)
	}
	return &c.RAM[addr], nil
}

// Step executes one instruction. Running past the last instruction or
// entering a jump-to-self loop halts the CPU.
func (c *CPU) Step() error {
	if c.Halted {
		return nil
	}
	if int(c.PC) >= len(c.ROM) || c.atHaltLoop() {
		c.Halted = true
		return nil
	}
	instruction := c.ROM[c.PC]
	c.Steps++
	if !bit(instruction, 15) {
		c.A = instruction
		c.PC++
		return nil
	}
	y := c.A
	if bit(instruction, 12) {
		m, err := c.memory(c.A)
		if err != nil {
			return err
		}
		y = *m
	}
	out := ALU(c.D, y, bit(instruction, 11), bit(instruction, 10), bit(instruction, 9),
		bit(instruction, 8), bit(instruction, 7), bit(instruction, 6))
	addressM := c.A
	if bit(instruction, 3) {
		m, err := c.memory(addressM)
		if err != nil {
			return err
		}
		*m = out
	}
	if bit(instruction, 5) {
		c.A = out
	}
	if bit(instruction, 4) {
		c.D = out
	}
	value := int16(out)
	jump := (bit(instruction, 2) && value < 0) || (bit(instruction, 1) && value == 0) ||
		(bit(instruction, 0) && value > 0)
	if jump {
		c.PC = addressM
	} else {
		c.PC++
	}
	return nil
}

// RunUntilHalt steps until the program halts, failing with ErrStepLimit after
// maxSteps instructions.
func (c *CPU) RunUntilHalt(maxSteps int) error {
	for !c.Halted {
		if c.Steps >= maxSteps {
			return ErrStepLimit
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}
