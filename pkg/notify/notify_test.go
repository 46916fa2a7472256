package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledNotifierSkipsSends(t *testing.T) {
	n := New(Config{}, nil)
	assert.False(t, n.Enabled())

	// Every send is a no-op that still succeeds.
	require.NoError(t, n.EstimateCreated("est-1", "EST-000042", "John Smith"))
	require.NoError(t, n.SyncFailed("estimate.pdf", errors.New("boom")))
	require.NoError(t, n.SyncSummary(nil, nil, nil))
}

func TestEnabledRequiresRecipients(t *testing.T) {
	n := New(Config{APIKey: "re_test_key", From: "sync@example.com"}, nil)
	assert.False(t, n.Enabled())

	n = New(Config{APIKey: "re_test_key", From: "sync@example.com", To: []string{"ops@example.com"}}, nil)
	assert.True(t, n.Enabled())
}

func TestJoinOrNone(t *testing.T) {
	assert.Equal(t, "none", joinOrNone(nil))
	assert.Equal(t, "a, b", joinOrNone([]string{"a", "b"}))
}
