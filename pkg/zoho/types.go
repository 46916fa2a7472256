// Package zoho is a client for the Zoho Books API covering the estimate
// sync surface: estimate creation and retrieval, PDF attachments, and
// contact listing. OAuth tokens live in an encrypted file on disk and are
// refreshed transparently.
package zoho

import "fmt"

// LineItem is one line of an estimate payload.
type LineItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Rate        float64 `json:"rate"`
	Quantity    int     `json:"quantity"`
}

// Estimate is the create-estimate request payload.
type Estimate struct {
	CustomerID      string     `json:"customer_id"`
	Date            string     `json:"date"`
	ReferenceNumber string     `json:"reference_number,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	LineItems       []LineItem `json:"line_items"`
}

// EstimateInfo is what Zoho Books reports back about an estimate.
type EstimateInfo struct {
	EstimateID     string  `json:"estimate_id"`
	EstimateNumber string  `json:"estimate_number"`
	Status         string  `json:"status,omitempty"`
	Total          float64 `json:"total,omitempty"`
}

// Contact is one Zoho Books contact.
type Contact struct {
	ContactID   string `json:"contact_id"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email,omitempty"`
}

// APIError is a non-retryable error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zoho: api error %d: %s", e.StatusCode, e.Message)
}

type estimateEnvelope struct {
	Code     int          `json:"code"`
	Message  string       `json:"message"`
	Estimate EstimateInfo `json:"estimate"`
}

type contactsEnvelope struct {
	Code        int       `json:"code"`
	Message     string    `json:"message"`
	Contacts    []Contact `json:"contacts"`
	PageContext struct {
		Page        int  `json:"page"`
		HasMorePage bool `json:"has_more_page"`
	} `json:"page_context"`
}
