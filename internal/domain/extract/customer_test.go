package extract

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textDoc(text string) Document {
	return Document{Pages: []Page{{Text: text}}}
}

func TestExtractCustomer(t *testing.T) {
	e := newTestExtractor()

	t.Run("bill to block", func(t *testing.T) {
		info := e.ExtractCustomer(textDoc("Bill To\nJohn Smith\nEstimate ES-200"))
		assert.Equal(t, "John Smith", info.CustomerName)
		assert.Equal(t, "ES-200", info.EstimateNumber)
		assert.NotContains(t, info.Defaulted, "customer_name")
		assert.NotContains(t, info.Defaulted, "estimate_number")
	})

	t.Run("name from first-page table", func(t *testing.T) {
		doc := Document{Pages: []Page{{
			Text: "Estimate ES-300",
			Tables: []Table{{
				{"Bill To", "Jane Doe"},
				{"", ""},
			}},
		}}}
		info := e.ExtractCustomer(doc)
		assert.Equal(t, "Jane Doe", info.CustomerName)
	})

	t.Run("date patterns", func(t *testing.T) {
		info := e.ExtractCustomer(textDoc("Date: 06/01/2025"))
		assert.Equal(t, "06/01/2025", info.Date)

		info = e.ExtractCustomer(textDoc("Prepared on May 15, 2025 for review"))
		assert.Equal(t, "May 15, 2025", info.Date)
	})

	t.Run("total with thousands separator stripped", func(t *testing.T) {
		info := e.ExtractCustomer(textDoc("Total $132,991.96"))
		assert.Equal(t, "132991.96", info.Total)
		assert.NotContains(t, info.Defaulted, "total")
	})

	t.Run("subtotal stands in for a missing total", func(t *testing.T) {
		info := e.ExtractCustomer(textDoc("Subtotal $1,000.00"))
		assert.Equal(t, "1000.00", info.Total)
		assert.Equal(t, "1000.00", info.Subtotal)
	})

	t.Run("phone email and address are best effort", func(t *testing.T) {
		text := "Client: Mary Sue Mugge\nAddress: 123 Main St\nPhone: (651) 555-0100\nmary@example.com"
		info := e.ExtractCustomer(textDoc(text))
		assert.Equal(t, "(651) 555-0100", info.Phone)
		assert.Equal(t, "mary@example.com", info.Email)
		assert.Equal(t, "123 Main St", info.Address)
	})

	t.Run("missing fields fall back to the profile", func(t *testing.T) {
		info := e.ExtractCustomer(textDoc("nothing useful here"))
		assert.Equal(t, "Mary Sue Mugge", info.CustomerName)
		assert.Equal(t, "ES-10191", info.EstimateNumber)
		assert.Equal(t, "May 15, 2025", info.Date)
		assert.Equal(t, "132991.96", info.Total)
		assert.ElementsMatch(t,
			[]string{"customer_name", "estimate_number", "date", "total"},
			info.Defaulted)
		assert.True(t, info.UsedDefaults())
	})

	t.Run("arbitrary bill to names", func(t *testing.T) {
		gofakeit.Seed(42)
		for i := 0; i < 20; i++ {
			name := gofakeit.FirstName() + " " + gofakeit.LastName()
			info := e.ExtractCustomer(textDoc("Bill To\n" + name + "\n\nEstimate ES-1"))
			require.NotContains(t, info.Defaulted, "customer_name")
			assert.Equal(t, normalizeSpace(name), info.CustomerName)
		}
	})
}
