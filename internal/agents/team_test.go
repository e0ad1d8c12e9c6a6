package agents

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/models"
	"github.com/agora-quant/agora/internal/tools"
)

type stubAnalyzer struct {
	kind  models.AnalystKind
	conf  float64
	err   error
	calls atomic.Int64
}

func (s *stubAnalyzer) Kind() models.AnalystKind { return s.kind }

func (s *stubAnalyzer) Analyze(ctx context.Context, symbol, tradeDate string) (*models.AnalysisReport, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	report := models.NewAnalysisReport(s.kind, symbol, tradeDate)
	report.Summary = string(s.kind) + " looks fine"
	report.SetConfidence(s.conf)
	return report, nil
}

func TestTeamRunAllCollectsEveryBranch(t *testing.T) {
	team := NewTeam(zerolog.Nop(), nil,
		&stubAnalyzer{kind: models.MarketAnalyst, conf: 0.8},
		&stubAnalyzer{kind: models.SentimentAnalyst, conf: 0.6},
		&stubAnalyzer{kind: models.NewsAnalyst, conf: 0.7},
		&stubAnalyzer{kind: models.FundamentalsAnalyst, conf: 0.9},
	)

	results := team.RunAll(context.Background(), "AAPL", "2024-03-15")

	if len(results) != 4 {
		t.Fatalf("expected 4 reports, got %d", len(results))
	}
	for _, kind := range models.AllAnalystKinds() {
		report, ok := results[kind]
		if !ok {
			t.Fatalf("missing report for %s", kind)
		}
		if report.Confidence == 0 {
			t.Errorf("%s report has zero confidence", kind)
		}
	}
}

func TestTeamRunAllFailedBranchGetsFallback(t *testing.T) {
	failing := &stubAnalyzer{kind: models.NewsAnalyst, err: errors.New("feed down")}
	market := &stubAnalyzer{kind: models.MarketAnalyst, conf: 0.8}

	team := NewTeam(zerolog.Nop(), nil,
		market,
		&stubAnalyzer{kind: models.SentimentAnalyst, conf: 0.6},
		failing,
		&stubAnalyzer{kind: models.FundamentalsAnalyst, conf: 0.9},
	)

	results := team.RunAll(context.Background(), "AAPL", "2024-03-15")

	if len(results) != 4 {
		t.Fatalf("expected 4 reports even with a failed branch, got %d", len(results))
	}

	news := results[models.NewsAnalyst]
	if news.Confidence != 0 {
		t.Errorf("fallback confidence = %v, want 0", news.Confidence)
	}
	if !strings.Contains(news.Summary, "feed down") {
		t.Errorf("fallback summary should carry the cause, got %q", news.Summary)
	}
	found := false
	for _, f := range news.KeyFindings {
		if strings.Contains(f, "unavailable") {
			found = true
		}
	}
	if !found {
		t.Error("fallback report missing unavailable finding")
	}

	// Siblings ran to completion despite the failure.
	if results[models.MarketAnalyst].Confidence != 0.8 {
		t.Errorf("sibling report degraded: confidence = %v", results[models.MarketAnalyst].Confidence)
	}
	if got := market.calls.Load(); got != 1 {
		t.Errorf("market analyst called %d times, want 1", got)
	}
}

type panickingAnalyzer struct {
	kind models.AnalystKind
}

func (p *panickingAnalyzer) Kind() models.AnalystKind { return p.kind }

func (p *panickingAnalyzer) Analyze(ctx context.Context, symbol, tradeDate string) (*models.AnalysisReport, error) {
	panic("index out of range in indicator window")
}

func TestTeamRunAllPanickingBranchGetsFallback(t *testing.T) {
	market := &stubAnalyzer{kind: models.MarketAnalyst, conf: 0.8}
	team := NewTeam(zerolog.Nop(), nil,
		market,
		&panickingAnalyzer{kind: models.SentimentAnalyst},
		&stubAnalyzer{kind: models.NewsAnalyst, conf: 0.7},
		&stubAnalyzer{kind: models.FundamentalsAnalyst, conf: 0.9},
	)

	results := team.RunAll(context.Background(), "AAPL", "2024-03-15")

	if len(results) != 4 {
		t.Fatalf("expected 4 reports even with a panicking branch, got %d", len(results))
	}

	sentiment := results[models.SentimentAnalyst]
	if sentiment.Confidence != 0 {
		t.Errorf("fallback confidence = %v, want 0", sentiment.Confidence)
	}
	if !strings.Contains(sentiment.Summary, "panic") {
		t.Errorf("fallback summary should carry the panic cause, got %q", sentiment.Summary)
	}

	// Siblings are untouched by the panic.
	if results[models.MarketAnalyst].Confidence != 0.8 {
		t.Errorf("sibling report degraded: confidence = %v", results[models.MarketAnalyst].Confidence)
	}
}

func TestTeamRunAllRecordsMetrics(t *testing.T) {
	metrics := tools.NewMetrics()
	team := NewTeam(zerolog.Nop(), metrics,
		&stubAnalyzer{kind: models.MarketAnalyst, conf: 0.8},
		&stubAnalyzer{kind: models.NewsAnalyst, err: errors.New("boom")},
	)

	team.RunAll(context.Background(), "MSFT", "2024-03-15")

	snap := metrics.Snapshot()
	if m, ok := snap["analyst.market"]; !ok || m.Calls != 1 || m.Errors != 0 {
		t.Errorf("market metrics = %+v", m)
	}
	if m, ok := snap["analyst.news"]; !ok || m.Calls != 1 || m.Errors != 1 {
		t.Errorf("news metrics = %+v", m)
	}
}

func TestFallbackReportShape(t *testing.T) {
	report := FallbackReport(models.SentimentAnalyst, "TSLA", "2024-03-15", errors.New("rate limited"))

	if report.Kind != models.SentimentAnalyst {
		t.Errorf("kind = %s", report.Kind)
	}
	if report.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", report.Confidence)
	}
	if len(report.Risks) == 0 {
		t.Error("fallback report should note the failure risk")
	}
}
