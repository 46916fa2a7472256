// Package customer maps names mined out of estimate documents onto Zoho
// Books contacts. Extracted names rarely match contact records exactly, so
// resolution is fuzzy with a configured fallback contact for misses.
package customer

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultThreshold is the minimum similarity score (0-100) for a fuzzy
// contact match to be trusted.
const DefaultThreshold = 70

// Contact is one Zoho Books contact.
type Contact struct {
	ID    string
	Name  string
	Email string
}

// ContactLister fetches the candidate contacts, typically from Zoho Books.
type ContactLister interface {
	ListContacts(ctx context.Context) ([]Contact, error)
}

// Resolution is the outcome of resolving one extracted name.
type Resolution struct {
	ContactID   string
	ContactName string
	Score       int
	// Fallback is set when no contact scored above the threshold and the
	// configured default contact was used instead.
	Fallback bool
}

// Resolver resolves extracted customer names to contact IDs.
type Resolver struct {
	contacts  ContactLister
	fallback  Contact
	threshold int
	logger    *slog.Logger
}

// NewResolver creates a Resolver. The fallback contact is used whenever no
// candidate scores at or above the threshold.
func NewResolver(contacts ContactLister, fallback Contact, threshold int, logger *slog.Logger) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		contacts:  contacts,
		fallback:  fallback,
		threshold: threshold,
		logger:    logger,
	}
}

// Resolve finds the best contact for an extracted customer name. It never
// fails on a bad name: anything unresolvable lands on the fallback contact.
// An error is returned only when the contact list itself cannot be fetched.
func (r *Resolver) Resolve(ctx context.Context, name string) (Resolution, error) {
	if name == "" {
		return r.fallbackResolution(), nil
	}

	candidates, err := r.contacts.ListContacts(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("customer: list contacts: %w", err)
	}

	best := Resolution{Score: -1}
	for _, c := range candidates {
		score := matchScore(name, c.Name)
		if score > best.Score {
			best = Resolution{ContactID: c.ID, ContactName: c.Name, Score: score}
		}
	}

	if best.Score < r.threshold {
		r.logger.Info("no contact match above threshold, using fallback",
			slog.String("name", name),
			slog.Int("best_score", best.Score),
			slog.Int("threshold", r.threshold),
		)
		return r.fallbackResolution(), nil
	}

	r.logger.Debug("resolved customer",
		slog.String("name", name),
		slog.String("contact", best.ContactName),
		slog.Int("score", best.Score),
	)
	return best, nil
}

func (r *Resolver) fallbackResolution() Resolution {
	return Resolution{
		ContactID:   r.fallback.ID,
		ContactName: r.fallback.Name,
		Fallback:    true,
	}
}
