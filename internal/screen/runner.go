package screen

import (
	"context"

	"github.com/rs/zerolog"

	"swingscan-go/internal/kiwoom"
	"swingscan-go/internal/market"
	"swingscan-go/internal/metrics"
	"swingscan-go/internal/swing"
)

// ChartFetcher abstracts the minute-bar chart endpoint for batch evaluation.
type ChartFetcher interface {
	StockChart(ctx context.Context, stockCode, tickUnit string) (kiwoom.Response, error)
}

// Candidate is one instrument queued for evaluation.
type Candidate struct {
	Code string
	Name string
}

// Skip reasons recorded by the batch runner. Absence of data is an expected
// steady-state condition for illiquid instruments, not an error.
const (
	SkipTransport   = "transport"
	SkipAPIError    = "api_error"
	SkipNoItems     = "no_items"
	SkipShortSeries = "short_series"
)

// Outcome summarizes one batch run: evaluated results sorted for output plus
// a histogram of why instruments were skipped.
type Outcome struct {
	Results []swing.Result
	Skipped map[string]int
}

// SkippedTotal sums the reason histogram.
func (o Outcome) SkippedTotal() int {
	total := 0
	for _, n := range o.Skipped {
		total += n
	}
	return total
}

// Runner evaluates candidates one at a time through the shared client pacing.
type Runner struct {
	fetcher  ChartFetcher
	params   swing.Params
	tickUnit string
	log      zerolog.Logger
}

// NewRunner wires a chart source to the evaluator parameters.
func NewRunner(fetcher ChartFetcher, params swing.Params, tickUnit string, log zerolog.Logger) *Runner {
	if tickUnit == "" {
		tickUnit = "1"
	}
	return &Runner{fetcher: fetcher, params: params, tickUnit: tickUnit, log: log}
}

// Run continues past per-instrument failures, accumulating a failure count
// and reason histogram rather than aborting the batch. Results come back
// sorted descending by (signal, score, volume ratio).
func (r *Runner) Run(ctx context.Context, candidates []Candidate) Outcome {
	outcome := Outcome{Skipped: make(map[string]int)}

	for _, cand := range candidates {
		if cand.Code == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		resp, err := r.fetcher.StockChart(ctx, cand.Code, r.tickUnit)
		if err != nil {
			r.log.Warn().Err(err).Str("code", cand.Code).Msg("chart fetch failed")
			outcome.Skipped[SkipTransport]++
			continue
		}
		if err := resp.Err(); err != nil {
			r.log.Warn().Err(err).Str("code", cand.Code).Msg("chart request rejected")
			outcome.Skipped[SkipAPIError]++
			continue
		}

		items := market.ExtractItems(resp, market.ChartKeys)
		if len(items) == 0 {
			outcome.Skipped[SkipNoItems]++
			continue
		}
		closes, volumes := market.ToSeries(items)

		result, ok := swing.Evaluate(cand.Code, cand.Name, closes, volumes, r.params)
		if !ok {
			outcome.Skipped[SkipShortSeries]++
			continue
		}
		outcome.Results = append(outcome.Results, result)
		metrics.SignalsTotal.WithLabelValues(outcomeLabel(result)).Inc()
	}

	swing.Sort(outcome.Results)
	return outcome
}

func outcomeLabel(result swing.Result) string {
	switch {
	case result.Signal:
		return "buy"
	case result.PullbackOK:
		return "watch"
	default:
		return "none"
	}
}
