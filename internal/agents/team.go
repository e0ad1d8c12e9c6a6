package agents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agora-quant/agora/internal/models"
	"github.com/agora-quant/agora/internal/tools"
)

// Team runs a set of analysts concurrently and always returns a complete
// report map. A failed branch yields a fallback report instead of failing
// the whole stage.
type Team struct {
	analysts []Analyzer
	metrics  *tools.Metrics
	log      zerolog.Logger
}

// NewTeam creates a team over the given analysts.
func NewTeam(log zerolog.Logger, metrics *tools.Metrics, analysts ...Analyzer) *Team {
	return &Team{
		analysts: analysts,
		metrics:  metrics,
		log:      log.With().Str("component", "analyst_team").Logger(),
	}
}

// NewStandardTeam wires the four standard analysts.
func NewStandardTeam(fetcher DataFetcher, completer Completer, metrics *tools.Metrics, log zerolog.Logger) *Team {
	return NewTeam(log, metrics,
		NewMarketAnalyzer(fetcher, completer, log),
		NewSentimentAnalyzer(fetcher, completer, log),
		NewNewsAnalyzer(fetcher, completer, log),
		NewFundamentalsAnalyzer(fetcher, completer, log),
	)
}

// RunAll fans out one goroutine per analyst and collects every branch.
// Branch failures never cancel siblings; the failed branch contributes a
// fallback report with zero confidence.
func (t *Team) RunAll(ctx context.Context, symbol, tradeDate string) map[models.AnalystKind]*models.AnalysisReport {
	var mu sync.Mutex
	results := make(map[models.AnalystKind]*models.AnalysisReport, len(t.analysts))

	g, gctx := errgroup.WithContext(ctx)
	for _, analyst := range t.analysts {
		analyst := analyst
		g.Go(func() error {
			start := time.Now()
			report, err := runBranch(gctx, analyst, symbol, tradeDate)
			elapsed := time.Since(start)

			if t.metrics != nil {
				t.metrics.Record("analyst."+string(analyst.Kind()), elapsed, err == nil)
			}

			if err != nil {
				t.log.Error().Err(err).
					Str("analyst", string(analyst.Kind())).
					Str("symbol", symbol).
					Dur("elapsed", elapsed).
					Msg("analysis failed, using fallback report")
				report = FallbackReport(analyst.Kind(), symbol, tradeDate, err)
			} else {
				t.log.Info().
					Str("analyst", string(analyst.Kind())).
					Str("symbol", symbol).
					Float64("confidence", report.Confidence).
					Dur("elapsed", elapsed).
					Msg("analysis complete")
			}

			mu.Lock()
			results[analyst.Kind()] = report
			mu.Unlock()
			// Branches never propagate errors so siblings keep running.
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// runBranch invokes one analyst, converting a panic into a branch error
// so the fan-out survives it like any other branch failure.
func runBranch(ctx context.Context, analyst Analyzer, symbol, tradeDate string) (report *models.AnalysisReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = &AgentError{Agent: string(analyst.Kind()), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return analyst.Analyze(ctx, symbol, tradeDate)
}

// FallbackReport is the degraded report substituted for a failed branch.
func FallbackReport(kind models.AnalystKind, symbol, tradeDate string, cause error) *models.AnalysisReport {
	report := models.NewAnalysisReport(kind, symbol, tradeDate)
	report.Summary = fmt.Sprintf("Analysis failed due to: %v", cause)
	report.AddFinding(fmt.Sprintf("%s analysis unavailable", kind))
	report.AddRecommendation("Unable to provide recommendations due to analysis failure")
	report.AddRisk("Analysis failure risk")
	report.SetConfidence(0)
	return report
}
