package docparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferTables(t *testing.T) {
	t.Run("aligned block becomes a table", func(t *testing.T) {
		text := strings.Join([]string{
			"Item  Description  Price",
			"1. Demo  prep work  $2,574.00",
			"Total $5,000.00",
		}, "\n")
		tables := inferTables(text)
		require.Len(t, tables, 1)
		require.Len(t, tables[0], 2)
		assert.Equal(t, []string{"Item", "Description", "Price"}, tables[0][0])
		assert.Equal(t, []string{"1. Demo", "prep work", "$2,574.00"}, tables[0][1])
	})

	t.Run("single aligned line is not a table", func(t *testing.T) {
		assert.Empty(t, inferTables("Item  Price\nplain prose line"))
	})

	t.Run("tab separated cells", func(t *testing.T) {
		tables := inferTables("Bill To\tJane Doe\nEstimate\tES-200")
		require.Len(t, tables, 1)
		assert.Equal(t, []string{"Bill To", "Jane Doe"}, tables[0][0])
	})

	t.Run("plain prose yields nothing", func(t *testing.T) {
		assert.Empty(t, inferTables("3 Kitchen-Tile 1,989.40\nSubtotal $1,989.40"))
	})
}

func TestSplitCells(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCells("a  b"))
	assert.Equal(t, []string{"a b"}, splitCells("a b"))
	assert.Nil(t, splitCells("   "))
}
