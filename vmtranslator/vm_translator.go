package vmtranslator

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/nandkit/hack/util"
)

// A vm translator transforming stack based vm code into hack assembly.
//
// A program is one or more units, normally one per .vm file of a directory.
// Each unit keeps its own static namespace and label counters, and the whole
// program is written into a single assembly output.

// EntryFunction is the function the bootstrap code calls.
const EntryFunction = "Sys.init"

// BootstrapMode decides whether the SP=256; call Sys.init prologue is written.
type BootstrapMode int

const (
	// BootstrapAuto writes the prologue when some unit defines Sys.init.
	BootstrapAuto BootstrapMode = iota
	BootstrapAlways
	BootstrapNever
)

type Options struct {
	Bootstrap BootstrapMode
	// Annotate writes each vm command as a comment above its assembly.
	Annotate bool
}

// Unit is one parsed compilation unit.
type Unit struct {
	Name     string
	Commands []Command
}

func (unit Unit) defines(function string) bool {
	for _, command := range unit.Commands {
		if command.Tp == FunctionCommand && command.Name == function {
			return true
		}
	}
	return false
}

type VMTranslator struct {
	output  *bufio.Writer
	options Options
}

func NewVMTranslator(w io.Writer, options Options) *VMTranslator {
	return &VMTranslator{output: bufio.NewWriter(w), options: options}
}

// Translate writes units as one program. The unit defining Sys.init is
// translated first so that the bootstrap is followed by the entry code, the
// rest keep their order.
func Translate(w io.Writer, units []Unit, options Options) error {
	return NewVMTranslator(w, options).Translate(units)
}

func (translator *VMTranslator) Translate(units []Unit) error {
	err := checkUnits(units)
	if err != nil {
		return err
	}
	units = orderUnits(units)
	hasEntry := len(units) > 0 && units[0].defines(EntryFunction)
	writeBootstrap := false
	switch translator.options.Bootstrap {
	case BootstrapAuto:
		writeBootstrap = hasEntry
	case BootstrapAlways:
		if !hasEntry {
			return fmt.Errorf("bootstrap requested but no unit defines %s", EntryFunction)
		}
		writeBootstrap = true
	}
	for i, unit := range units {
		cw := NewCodeWriter(unit.Name, translator.output, translator.options.Annotate)
		if i == 0 && writeBootstrap {
			err = cw.WriteBootstrap(EntryFunction)
			if err != nil {
				return err
			}
		}
		for _, command := range unit.Commands {
			err = cw.WriteCommand(command)
			if err != nil {
				return err
			}
		}
	}
	return translator.output.Flush()
}

// checkUnits rejects unit names that are not vm names, functions defined more
// than once in the program and functions named like a unit.
func checkUnits(units []Unit) error {
	unitNames := map[string]bool{}
	definedAt := map[string]string{}
	for _, unit := range units {
		if !IsName(unit.Name) {
			return fmt.Errorf("unit name %q is not a valid name", unit.Name)
		}
		if unitNames[unit.Name] {
			return fmt.Errorf("duplicate unit %s", unit.Name)
		}
		unitNames[unit.Name] = true
		for _, command := range unit.Commands {
			if command.Tp != FunctionCommand {
				continue
			}
			if previous, exist := definedAt[command.Name]; exist {
				return makeError(unit.Name, command.Line, command.Name,
					fmt.Sprintf("function already defined in unit %s", previous))
			}
			definedAt[command.Name] = unit.Name
		}
	}
	// Code outside any function is scoped by its unit name.
	for _, unit := range units {
		for _, command := range unit.Commands {
			if command.Tp == FunctionCommand && unitNames[command.Name] {
				return makeError(unit.Name, command.Line, command.Name, "function name is also a unit name")
			}
		}
	}
	return nil
}

func orderUnits(units []Unit) []Unit {
	for i, unit := range units {
		if i == 0 || !unit.defines(EntryFunction) {
			continue
		}
		ordered := make([]Unit, 0, len(units))
		ordered = append(ordered, unit)
		ordered = append(ordered, units[:i]...)
		return append(ordered, units[i+1:]...)
	}
	return units
}

// ParseFile parses a .vm file into a unit named after the file.
func ParseFile(path string) (Unit, error) {
	file, err := os.Open(path)
	if err != nil {
		return Unit{}, err
	}
	defer file.Close()
	name := util.UnitName(path)
	commands, err := ParseCommands(name, file)
	if err != nil {
		return Unit{}, err
	}
	return Unit{Name: name, Commands: commands}, nil
}

// TranslateFiles parses every path, in order, and writes them as one program.
func TranslateFiles(w io.Writer, paths []string, options Options) error {
	units := make([]Unit, 0, len(paths))
	for _, path := range paths {
		unit, err := ParseFile(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		units = append(units, unit)
	}
	return Translate(w, units, options)
}
