package extract

import "log/slog"

// Extractor runs the full extraction cascade over parsed documents. It is
// safe for reuse: each call is a pure function of its input document aside
// from logging.
type Extractor struct {
	profile DefaultProfile
	logger  *slog.Logger
	headers *headerMatcher
}

// New creates an Extractor with the given fallback profile.
func New(profile DefaultProfile, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		profile: profile,
		logger:  logger,
		headers: newHeaderMatcher(),
	}
}

// Extract produces line items and customer info for one document. The
// strategies run from most structured to least structured and the first
// one yielding any records wins; when nothing at all matches, the profile's
// fixed item list is substituted so the pipeline never returns an empty
// estimate for a readable document.
func (e *Extractor) Extract(doc Document) Result {
	var (
		attempts []Attempt
		builder  Builder
		source   = SourceNone
	)

	recs := e.extractTables(doc.AllTables())
	attempts = append(attempts, Attempt{Source: SourceTables, Items: len(recs)})
	if len(recs) > 0 {
		source = SourceTables
		builder.Append(recs...)
	}

	if source == SourceNone {
		text := doc.Text()
		for _, s := range textCascade {
			recs := s.extract(e, text)
			attempts = append(attempts, Attempt{Source: s.source, Items: len(recs)})
			if len(recs) > 0 {
				source = s.source
				builder.Append(recs...)
				break
			}
		}
	}

	items := builder.Items()
	if len(items) == 0 {
		source = SourceDefaults
		items = append([]LineItem(nil), e.profile.Items...)
		attempts = append(attempts, Attempt{Source: SourceDefaults, Items: len(items)})
		e.logger.Warn("no line items extracted, substituting default item list",
			slog.Int("items", len(items)))
	} else {
		e.logger.Info("extracted line items",
			slog.String("source", string(source)),
			slog.Int("items", len(items)),
		)
	}

	return Result{
		Items:    items,
		Customer: e.ExtractCustomer(doc),
		Total:    SumUnitPrices(items),
		Source:   source,
		Attempts: attempts,
	}
}

// FailureResult is what callers hand downstream when the document parsing
// collaborator itself failed: a fully-defaulted customer record and no line
// items. The pipeline stays alive; the empty item list is the signal that
// something went wrong.
func (e *Extractor) FailureResult() Result {
	return Result{
		Items:    nil,
		Customer: e.profile.DefaultCustomerInfo(),
		Total:    SumUnitPrices(nil),
		Source:   SourceNone,
	}
}
