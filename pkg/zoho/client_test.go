package zoho

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	invalidated atomic.Int32
}

func (s *staticTokens) AccessToken(context.Context) (string, error) { return "test-token", nil }
func (s *staticTokens) Invalidate() error {
	s.invalidated.Add(1)
	return nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *staticTokens) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tokens := &staticTokens{}
	c := New(Config{
		BaseURL:           srv.URL,
		OrganizationID:    "862183465",
		RequestsPerMinute: 60000,
	}, tokens, nil)
	return c, tokens
}

func TestCreateEstimate(t *testing.T) {
	var gotBody Estimate
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/estimates", r.URL.Path)
		assert.Equal(t, "862183465", r.URL.Query().Get("organization_id"))
		assert.Equal(t, "Zoho-oauthtoken test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"code":0,"message":"created","estimate":{"estimate_id":"est-1","estimate_number":"EST-000042"}}`))
	}))

	info, err := c.CreateEstimate(context.Background(), Estimate{
		CustomerID: "cust-1",
		Date:       "2025-05-15",
		LineItems:  []LineItem{{Name: "1. Kitchen Demo", Rate: 2574, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "est-1", info.EstimateID)
	assert.Equal(t, "EST-000042", info.EstimateNumber)
	assert.Equal(t, "cust-1", gotBody.CustomerID)
	require.Len(t, gotBody.LineItems, 1)
}

func TestUnauthorizedTriggersTokenRefresh(t *testing.T) {
	var calls atomic.Int32
	c, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":57,"message":"invalid token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":0,"estimate":{"estimate_id":"est-1"}}`))
	}))

	_, err := c.GetEstimate(context.Background(), "est-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), tokens.invalidated.Load())
}

func TestRateLimitRetriesAfterWait(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"code":0,"estimate":{"estimate_id":"est-1"}}`))
	}))

	info, err := c.GetEstimate(context.Background(), "est-1")
	require.NoError(t, err)
	assert.Equal(t, "est-1", info.EstimateID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetEstimateNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.GetEstimate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":15,"message":"invalid payload"}`))
	}))

	_, err := c.CreateEstimate(context.Background(), Estimate{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAttachPDF(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/estimates/est-1/attachment", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("attachment")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "estimate.pdf", hdr.Filename)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"code":0,"message":"attached"}`))
	}))

	err := c.AttachPDF(context.Background(), "est-1", "estimate.pdf", []byte("%PDF-1.7 fake"))
	require.NoError(t, err)
}

func TestListContactsPagination(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contacts", r.URL.Path)
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{"code":0,"contacts":[{"contact_id":"c1","contact_name":"Mary Sue Mugge"}],"page_context":{"page":1,"has_more_page":true}}`))
		default:
			_, _ = w.Write([]byte(`{"code":0,"contacts":[{"contact_id":"c2","contact_name":"John Smith"}],"page_context":{"page":2,"has_more_page":false}}`))
		}
	}))

	contacts, err := c.ListContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "c1", contacts[0].ContactID)
	assert.Equal(t, "John Smith", contacts[1].ContactName)
}
