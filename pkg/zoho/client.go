package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("houzz-to-zoho/zoho")

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("zoho: not found")

const (
	defaultBaseURL = "https://books.zoho.com/api/v3"
	maxAttempts    = 3
	retryBackoff   = 500 * time.Millisecond
	contactsPage   = 200
)

// TokenProvider serves access tokens, typically a *TokenManager.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
	Invalidate() error
}

// Config configures the API client.
type Config struct {
	BaseURL        string // default: the Zoho Books v3 API
	OrganizationID string
	HTTPClient     *http.Client
	// RequestsPerMinute throttles outgoing calls; Zoho Books allows about
	// 100 requests per minute per organization. Default 60.
	RequestsPerMinute int
}

// Client is a Zoho Books API client with retry, rate limiting and token
// refresh built in.
type Client struct {
	baseURL string
	orgID   string
	http    *http.Client
	tokens  TokenProvider
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Client.
func New(cfg Config, tokens TokenProvider, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		orgID:   cfg.OrganizationID,
		http:    cfg.HTTPClient,
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 5),
		logger:  logger,
	}
}

// CreateEstimate creates an estimate and returns its ID and number.
func (c *Client) CreateEstimate(ctx context.Context, est Estimate) (*EstimateInfo, error) {
	ctx, span := tracer.Start(ctx, "zoho.create_estimate")
	defer span.End()
	span.SetAttributes(
		attribute.String("customer_id", est.CustomerID),
		attribute.Int("line_items", len(est.LineItems)),
	)

	body, err := json.Marshal(est)
	if err != nil {
		return nil, fmt.Errorf("zoho: marshal estimate: %w", err)
	}

	var env estimateEnvelope
	if err := c.do(ctx, http.MethodPost, "/estimates", nil, "application/json", body, &env); err != nil {
		return nil, err
	}
	if env.Code != 0 {
		return nil, &APIError{StatusCode: http.StatusOK, Message: env.Message}
	}

	c.logger.Info("created estimate",
		slog.String("estimate_id", env.Estimate.EstimateID),
		slog.String("estimate_number", env.Estimate.EstimateNumber),
	)
	return &env.Estimate, nil
}

// GetEstimate fetches an estimate by ID. A missing estimate yields
// ErrNotFound.
func (c *Client) GetEstimate(ctx context.Context, estimateID string) (*EstimateInfo, error) {
	ctx, span := tracer.Start(ctx, "zoho.get_estimate")
	defer span.End()
	span.SetAttributes(attribute.String("estimate_id", estimateID))

	var env estimateEnvelope
	if err := c.do(ctx, http.MethodGet, "/estimates/"+url.PathEscape(estimateID), nil, "", nil, &env); err != nil {
		return nil, err
	}
	if env.Code != 0 {
		return nil, &APIError{StatusCode: http.StatusOK, Message: env.Message}
	}
	return &env.Estimate, nil
}

// AttachPDF uploads a PDF as an attachment on an existing estimate.
func (c *Client) AttachPDF(ctx context.Context, estimateID, fileName string, content []byte) error {
	ctx, span := tracer.Start(ctx, "zoho.attach_pdf")
	defer span.End()
	span.SetAttributes(
		attribute.String("estimate_id", estimateID),
		attribute.String("file_name", fileName),
	)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("attachment", fileName)
	if err != nil {
		return fmt.Errorf("zoho: build attachment: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("zoho: build attachment: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("zoho: build attachment: %w", err)
	}

	path := "/estimates/" + url.PathEscape(estimateID) + "/attachment"
	if err := c.do(ctx, http.MethodPost, path, nil, w.FormDataContentType(), buf.Bytes(), nil); err != nil {
		return err
	}
	c.logger.Info("attached pdf to estimate",
		slog.String("estimate_id", estimateID),
		slog.String("file_name", fileName),
	)
	return nil
}

// ListContacts fetches every contact in the organization, following
// pagination.
func (c *Client) ListContacts(ctx context.Context) ([]Contact, error) {
	ctx, span := tracer.Start(ctx, "zoho.list_contacts")
	defer span.End()

	var contacts []Contact
	for page := 1; ; page++ {
		query := url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(contactsPage)},
		}
		var env contactsEnvelope
		if err := c.do(ctx, http.MethodGet, "/contacts", query, "", nil, &env); err != nil {
			return nil, err
		}
		if env.Code != 0 {
			return nil, &APIError{StatusCode: http.StatusOK, Message: env.Message}
		}
		contacts = append(contacts, env.Contacts...)
		if !env.PageContext.HasMorePage {
			break
		}
	}
	span.SetAttributes(attribute.Int("contacts", len(contacts)))
	return contacts, nil
}

// do issues one API call with up to maxAttempts tries. 401 invalidates the
// cached access token, 429 honors Retry-After, and 5xx backs off
// exponentially.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body []byte, out interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("zoho: bad url: %w", err)
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("organization_id", c.orgID)
	u.RawQuery = query.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return err
		}

		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
		if err != nil {
			return fmt.Errorf("zoho: build request: %w", err)
		}
		req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("zoho: %s %s: %w", method, path, err)
			c.logger.Warn("request failed",
				slog.String("path", path),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
			if waitErr := sleepCtx(ctx, backoff(attempt)); waitErr != nil {
				return waitErr
			}
			continue
		}

		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("zoho: read response: %w", readErr)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("zoho: decode response: %w", err)
			}
			return nil

		case resp.StatusCode == http.StatusUnauthorized:
			c.logger.Warn("authentication error, refreshing token",
				slog.String("path", path), slog.Int("attempt", attempt))
			if err := c.tokens.Invalidate(); err != nil {
				return err
			}
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}

		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp)
			c.logger.Warn("rate limited",
				slog.String("path", path),
				slog.Duration("retry_after", wait),
			)
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
			if waitErr := sleepCtx(ctx, wait); waitErr != nil {
				return waitErr
			}

		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("zoho: %s %s: %w", method, path, ErrNotFound)

		case resp.StatusCode >= 500:
			lastErr = &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
			if waitErr := sleepCtx(ctx, backoff(attempt)); waitErr != nil {
				return waitErr
			}

		default:
			return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		}
	}
	return fmt.Errorf("zoho: %s %s failed after %d attempts: %w", method, path, maxAttempts, lastErr)
}

func backoff(attempt int) time.Duration {
	return retryBackoff << (attempt - 1)
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Minute
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
