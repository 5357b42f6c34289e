package assembler

import "fmt"

// SymbolTable maps assembly symbols to addresses. It starts with the
// predefined registers and memory maps, receives label bindings during the
// first pass and variable bindings, on first use, during the second pass.
// A bound symbol keeps its address for the table's whole lifetime.
type SymbolTable struct {
	addresses        map[string]uint16
	nextVariableAddr int
}

func NewSymbolTable() *SymbolTable {
	table := &SymbolTable{
		addresses:        make(map[string]uint16, len(predefinedSymbols)),
		nextVariableAddr: VariableBaseAddress,
	}
	for symbol, addr := range predefinedSymbols {
		table.addresses[symbol] = addr
	}
	return table
}

// AddEntry binds symbol to addr unless it is already bound. It reports
// whether the binding happened.
func (table *SymbolTable) AddEntry(symbol string, addr uint16) bool {
	if _, exist := table.addresses[symbol]; exist {
		return false
	}
	table.addresses[symbol] = addr
	return true
}

func (table *SymbolTable) Contains(symbol string) bool {
	_, exist := table.addresses[symbol]
	return exist
}

func (table *SymbolTable) Address(symbol string) (uint16, bool) {
	addr, exist := table.addresses[symbol]
	return addr, exist
}

// Allocate resolves symbol, binding it to the next free variable address
// when it is unknown. Variables live between VariableBaseAddress and the
// screen map, running past that is an error.
func (table *SymbolTable) Allocate(symbol string) (uint16, error) {
	if addr, exist := table.addresses[symbol]; exist {
		return addr, nil
	}
	if table.nextVariableAddr >= ScreenAddress {
		return 0, fmt.Errorf("data memory exhausted, cannot allocate variable %s", symbol)
	}
	addr := uint16(table.nextVariableAddr)
	table.addresses[symbol] = addr
	table.nextVariableAddr++
	return addr, nil
}

// Len is the number of bound symbols, predefined ones included.
func (table *SymbolTable) Len() int {
	return len(table.addresses)
}
