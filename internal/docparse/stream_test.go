package docparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTextFromStream(t *testing.T) {
	t.Run("Tj with positioning operators", func(t *testing.T) {
		stream := []byte("BT\n/F1 12 Tf\n72 720 Td\n(3 Kitchen-Tile 1,989.40) Tj\n0 -14 Td\n(Subtotal \\0441,989.40) Tj\nET\n")
		got := extractTextFromStream(stream)
		assert.Equal(t, "3 Kitchen-Tile 1,989.40\nSubtotal $1,989.40", got)
	})

	t.Run("TJ array concatenates segments", func(t *testing.T) {
		stream := []byte("BT\n[(Total ) -250 ($5,000.00)] TJ\nET\n")
		assert.Equal(t, "Total $5,000.00", extractTextFromStream(stream))
	})

	t.Run("quote operator starts a new line", func(t *testing.T) {
		stream := []byte("(first) Tj\n(second) '\n")
		assert.Equal(t, "first\nsecond", extractTextFromStream(stream))
	})

	t.Run("T star breaks the line", func(t *testing.T) {
		stream := []byte("(one) Tj\nT*\n(two) Tj\n")
		assert.Equal(t, "one\ntwo", extractTextFromStream(stream))
	})

	t.Run("empty stream", func(t *testing.T) {
		assert.Equal(t, "", extractTextFromStream(nil))
	})
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"escaped parens", `\(paren\)`, "(paren)"},
		{"escaped backslash", `a\\b`, `a\b`},
		{"newline escape", `a\nb`, "a\nb"},
		{"octal escape", `\101BC`, "ABC"},
		{"octal dollar sign", `\044100`, "$100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodePDFString([]byte(tt.in)))
		})
	}
}

func TestCleanStreamText(t *testing.T) {
	t.Run("caps gaps at two spaces and trims lines", func(t *testing.T) {
		assert.Equal(t, "a  b  c\nd", cleanStreamText("a\t\tb   c\n\n  \nd"))
	})

	t.Run("drops unprintable runes", func(t *testing.T) {
		assert.Equal(t, "ab", cleanStreamText("a\x00\x01b"))
	})
}
