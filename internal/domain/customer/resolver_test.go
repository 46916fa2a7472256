package customer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticContacts struct {
	contacts []Contact
	err      error
}

func (s staticContacts) ListContacts(context.Context) ([]Contact, error) {
	return s.contacts, s.err
}

var fallback = Contact{ID: "fallback-id", Name: "Default Customer"}

func TestResolve(t *testing.T) {
	contacts := staticContacts{contacts: []Contact{
		{ID: "c1", Name: "Mary Sue Mugge"},
		{ID: "c2", Name: "John Smith"},
		{ID: "c3", Name: "Acme Construction LLC"},
	}}
	r := NewResolver(contacts, fallback, 0, nil)

	t.Run("exact match", func(t *testing.T) {
		res, err := r.Resolve(context.Background(), "John Smith")
		require.NoError(t, err)
		assert.Equal(t, "c2", res.ContactID)
		assert.Equal(t, 100, res.Score)
		assert.False(t, res.Fallback)
	})

	t.Run("case insensitive", func(t *testing.T) {
		res, err := r.Resolve(context.Background(), "john smith")
		require.NoError(t, err)
		assert.Equal(t, "c2", res.ContactID)
	})

	t.Run("partial name matches by containment", func(t *testing.T) {
		res, err := r.Resolve(context.Background(), "Mary Sue")
		require.NoError(t, err)
		assert.Equal(t, "c1", res.ContactID)
		assert.GreaterOrEqual(t, res.Score, 75)
	})

	t.Run("unrelated name falls back", func(t *testing.T) {
		res, err := r.Resolve(context.Background(), "Zzyzx Qwerty")
		require.NoError(t, err)
		assert.True(t, res.Fallback)
		assert.Equal(t, "fallback-id", res.ContactID)
	})

	t.Run("empty name falls back without listing", func(t *testing.T) {
		failing := NewResolver(staticContacts{err: errors.New("boom")}, fallback, 0, nil)
		res, err := failing.Resolve(context.Background(), "")
		require.NoError(t, err)
		assert.True(t, res.Fallback)
	})

	t.Run("list failure surfaces", func(t *testing.T) {
		failing := NewResolver(staticContacts{err: errors.New("boom")}, fallback, 0, nil)
		_, err := failing.Resolve(context.Background(), "John Smith")
		assert.Error(t, err)
	})
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		atLeast  int
		lessThan int
	}{
		{"identical", "Mary Sue Mugge", "Mary Sue Mugge", 100, 101},
		{"containment", "Mary Sue", "Mary Sue Mugge", 75, 101},
		{"close spelling", "Jon Smith", "John Smith", 70, 100},
		{"unrelated", "Zzyzx Qwerty", "Acme Construction LLC", 0, 50},
		{"empty", "", "John Smith", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := matchScore(tt.a, tt.b)
			assert.GreaterOrEqual(t, score, tt.atLeast)
			assert.Less(t, score, tt.lessThan)
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("abc", "abc"))
	assert.Equal(t, 1, levenshteinDistance("abc", "abd"))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 2, levenshteinDistance("kitten", "sittin"))
}
