package compiler

import (
	"fmt"

	"github.com/nandkit/hack/vmtranslator"
)

// SymbolKind is where a variable lives. Each kind maps to one vm segment and
// keeps its own running index.
type SymbolKind int

const (
	StaticKind SymbolKind = iota
	FieldKind
	ArgKind
	VarKind
)

func (kind SymbolKind) String() string {
	switch kind {
	case StaticKind:
		return "static"
	case FieldKind:
		return "field"
	case ArgKind:
		return "argument"
	case VarKind:
		return "var"
	}
	return fmt.Sprintf("SymbolKind(%d)", int(kind))
}

func (kind SymbolKind) Segment() vmtranslator.Segment {
	switch kind {
	case StaticKind:
		return vmtranslator.StaticSegment
	case FieldKind:
		return vmtranslator.ThisSegment
	case ArgKind:
		return vmtranslator.ArgumentSegment
	default:
		return vmtranslator.LocalSegment
	}
}

func (kind SymbolKind) classScope() bool {
	return kind == StaticKind || kind == FieldKind
}

type SymbolDesc struct {
	Name  string
	Type  string
	Kind  SymbolKind
	Index int
}

type scopeSymbols struct {
	symbols map[string]*SymbolDesc
	counts  map[SymbolKind]int
}

func newScopeSymbols() *scopeSymbols {
	return &scopeSymbols{symbols: map[string]*SymbolDesc{}, counts: map[SymbolKind]int{}}
}

// SymbolTable is the two level table of one class: static and field symbols
// live as long as the class, argument and var symbols are dropped at every
// new subroutine. Lookups try the subroutine scope first.
type SymbolTable struct {
	classSymbols *scopeSymbols
	funcSymbols  *scopeSymbols
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{classSymbols: newScopeSymbols(), funcSymbols: newScopeSymbols()}
}

func (table *SymbolTable) StartSubroutine() {
	table.funcSymbols = newScopeSymbols()
}

func (table *SymbolTable) scopeOf(kind SymbolKind) *scopeSymbols {
	if kind.classScope() {
		return table.classSymbols
	}
	return table.funcSymbols
}

// Define adds name to the scope its kind belongs to, with the next index of
// that kind. Declaring a name twice in one scope is an error.
func (table *SymbolTable) Define(name, varType string, kind SymbolKind) (*SymbolDesc, error) {
	scope := table.scopeOf(kind)
	if previous, exist := scope.symbols[name]; exist {
		return nil, fmt.Errorf("%s is already declared as %s %s", name, previous.Kind, previous.Type)
	}
	desc := &SymbolDesc{Name: name, Type: varType, Kind: kind, Index: scope.counts[kind]}
	scope.counts[kind]++
	scope.symbols[name] = desc
	return desc, nil
}

// VarCount is the number of symbols of kind defined in the current scope.
func (table *SymbolTable) VarCount(kind SymbolKind) int {
	return table.scopeOf(kind).counts[kind]
}

func (table *SymbolTable) Lookup(name string) (*SymbolDesc, bool) {
	if desc, ok := table.funcSymbols.symbols[name]; ok {
		return desc, true
	}
	desc, ok := table.classSymbols.symbols[name]
	return desc, ok
}
