package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	t.Run("content wins over extension", func(t *testing.T) {
		assert.Equal(t, FormatPDF, Detect("estimate.xlsx", []byte("%PDF-1.7\n")))
		assert.Equal(t, FormatExcel, Detect("estimate.pdf", []byte("PK\x03\x04rest")))
	})

	t.Run("extension fallback", func(t *testing.T) {
		assert.Equal(t, FormatPDF, Detect("estimate.PDF", nil))
		assert.Equal(t, FormatExcel, Detect("estimate.xls", nil))
		assert.Equal(t, FormatCSV, Detect("items.csv", nil))
	})

	t.Run("delimited text without extension", func(t *testing.T) {
		assert.Equal(t, FormatCSV, Detect("export", []byte("item,price\nDemo,2574.00\n")))
	})

	t.Run("binary junk is unknown", func(t *testing.T) {
		assert.Equal(t, FormatUnknown, Detect("blob", []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0x99, 0x80, 0x7f}))
	})
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', DetectDelimiter([]byte("item,price\n")))
	assert.Equal(t, ';', DetectDelimiter([]byte("item;desc;price\nDemo;x;1\n")))
	assert.Equal(t, '\t', DetectDelimiter([]byte("item\tdesc\tprice\n")))
	// Comma wins ties.
	assert.Equal(t, ',', DetectDelimiter([]byte("a,b;c\n")))
}
