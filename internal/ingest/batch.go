package ingest

import (
	"context"

	"github.com/shutterboxapp/shutterbox/internal/domain"
)

// ProgressFunc is called after each item with the number processed so far.
type ProgressFunc func(done, total int, r Result)

// Report collects per-item outcomes of a batch, in input order.
type Report struct {
	Results   []Result `json:"results"`
	Abandoned int      `json:"abandoned"`
}

// Imported returns the committed assets in input order.
func (r *Report) Imported() []domain.Asset {
	var out []domain.Asset
	for _, res := range r.Results {
		if res.Asset != nil {
			out = append(out, *res.Asset)
		}
	}
	return out
}

// Failures returns the failed items in input order.
func (r *Report) Failures() []*ImportError {
	var out []*ImportError
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res.Err)
		}
	}
	return out
}

// IngestBatch ingests sources sequentially. A failed item never stops the
// batch. Cancelling ctx abandons the remaining items after the current one
// completes.
func (p *Pipeline) IngestBatch(ctx context.Context, sources []Source, progress ProgressFunc) *Report {
	report := &Report{Results: make([]Result, 0, len(sources))}

	for i, src := range sources {
		if ctx.Err() != nil {
			report.Abandoned = len(sources) - i
			p.logger.Info("import batch abandoned",
				"processed", i,
				"abandoned", report.Abandoned,
			)
			break
		}

		res := p.Ingest(ctx, src)
		report.Results = append(report.Results, res)
		if progress != nil {
			progress(i+1, len(sources), res)
		}
	}

	return report
}
