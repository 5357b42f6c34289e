package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolTable_Predefined(t *testing.T) {
	table := NewSymbolTable()
	testData := map[string]uint16{
		"SP": 0, "LCL": 1, "ARG": 2, "THIS": 3, "THAT": 4,
		"R0": 0, "R5": 5, "R13": 13, "R15": 15,
		"SCREEN": 16384, "KBD": 24576,
	}
	for symbol, expected := range testData {
		addr, exist := table.Address(symbol)
		assert.True(t, exist, symbol)
		assert.Equal(t, expected, addr, symbol)
	}
	assert.Equal(t, 23, table.Len())
	assert.False(t, table.Contains("R16"))
}

func TestSymbolTable_AddEntryNeverRebinds(t *testing.T) {
	table := NewSymbolTable()
	assert.True(t, table.AddEntry("LOOP", 7))
	assert.False(t, table.AddEntry("LOOP", 9))
	assert.False(t, table.AddEntry("SP", 9))
	addr, _ := table.Address("LOOP")
	assert.Equal(t, uint16(7), addr)
	addr, _ = table.Address("SP")
	assert.Equal(t, uint16(0), addr)
}

func TestSymbolTable_Allocate(t *testing.T) {
	table := NewSymbolTable()
	table.AddEntry("LOOP", 3)
	first, err := table.Allocate("i")
	require.Nil(t, err)
	second, err := table.Allocate("sum")
	require.Nil(t, err)
	again, err := table.Allocate("i")
	require.Nil(t, err)
	label, err := table.Allocate("LOOP")
	require.Nil(t, err)
	assert.Equal(t, uint16(16), first)
	assert.Equal(t, uint16(17), second)
	assert.Equal(t, first, again)
	assert.Equal(t, uint16(3), label)
}
