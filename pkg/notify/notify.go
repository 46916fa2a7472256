// Package notify sends operational email via Resend: estimate-created
// confirmations, failure alerts, and sync run summaries. When no API key
// is configured every send becomes a logged no-op so the sync never
// fails on notification plumbing.
package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"
)

// Notifier sends email notifications for sync outcomes.
type Notifier struct {
	client *resend.Client
	from   string
	to     []string
	logger *slog.Logger
}

// Config holds the notifier settings. An empty APIKey disables sending.
type Config struct {
	APIKey string
	From   string
	To     []string
}

// New builds a Notifier. The notifier is usable even when disabled.
func New(cfg Config, logger *slog.Logger) *Notifier {
	var client *resend.Client
	if cfg.APIKey != "" {
		client = resend.NewClient(cfg.APIKey)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		client: client,
		from:   cfg.From,
		to:     cfg.To,
		logger: logger,
	}
}

// Enabled reports whether emails will actually be sent.
func (n *Notifier) Enabled() bool { return n.client != nil && len(n.to) > 0 }

// EstimateCreated announces a successfully created estimate.
func (n *Notifier) EstimateCreated(estimateID, estimateNumber, customerName string) error {
	customerLine := ""
	if customerName != "" {
		customerLine = fmt.Sprintf("<p>Customer: %s</p>", customerName)
	}
	html := fmt.Sprintf(`
<h2>Estimate %s created</h2>
<p>A new estimate has been created in Zoho Books.</p>
<p>Estimate Number: %s<br>Estimate ID: %s</p>
%s
<p>This is an automated notification from the Houzz to Zoho integration.</p>
`, estimateNumber, estimateNumber, estimateID, customerLine)

	return n.send(fmt.Sprintf("Houzz to Zoho: Estimate %s Created", estimateNumber), html)
}

// SyncFailed announces a failed sync run.
func (n *Notifier) SyncFailed(fileName string, cause error) error {
	html := fmt.Sprintf(`
<h2>Sync failed</h2>
<p>An error occurred while processing <strong>%s</strong>:</p>
<pre>%v</pre>
<p>Check the logs for details.</p>
<p>This is an automated notification from the Houzz to Zoho integration.</p>
`, fileName, cause)

	return n.send("Houzz to Zoho: Error Occurred", html)
}

// SyncSummary reports the outcome of a sync batch.
func (n *Notifier) SyncSummary(processedFiles, createdEstimates, errors []string) error {
	html := fmt.Sprintf(`
<h2>Sync summary</h2>
<p>Files processed: %d<br>Estimates created: %d<br>Errors: %d</p>
<p>Processed files: %s</p>
<p>Created estimates: %s</p>
<p>Errors: %s</p>
<p>This is an automated notification from the Houzz to Zoho integration.</p>
`,
		len(processedFiles), len(createdEstimates), len(errors),
		joinOrNone(processedFiles), joinOrNone(createdEstimates), joinOrNone(errors))

	return n.send("Houzz to Zoho: Sync Summary", html)
}

func (n *Notifier) send(subject, html string) error {
	if !n.Enabled() {
		n.logger.Info("email notifications disabled, skipping", slog.String("subject", subject))
		return nil
	}

	_, err := n.client.Emails.Send(&resend.SendEmailRequest{
		From:    n.from,
		To:      n.to,
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("notify: send %q: %w", subject, err)
	}
	n.logger.Info("notification sent",
		slog.String("subject", subject),
		slog.String("to", strings.Join(n.to, ", ")),
	)
	return nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
