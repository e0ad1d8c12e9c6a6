package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/agents"
	"github.com/agora-quant/agora/internal/debate"
	"github.com/agora-quant/agora/internal/models"
	"github.com/agora-quant/agora/internal/processing"
	"github.com/agora-quant/agora/internal/storage"
)

type fakeCompleter struct {
	text string
	err  error
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.text, nil
}

type fakeAnalyzer struct {
	kind  models.AnalystKind
	conf  float64
	delay time.Duration
}

func (f *fakeAnalyzer) Kind() models.AnalystKind { return f.kind }

func (f *fakeAnalyzer) Analyze(ctx context.Context, symbol, tradeDate string) (*models.AnalysisReport, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	report := models.NewAnalysisReport(f.kind, symbol, tradeDate)
	report.Summary = string(f.kind) + " summary"
	report.SetConfidence(f.conf)
	return report, nil
}

type memoryLog struct {
	mu      sync.Mutex
	records []storage.DecisionRecord
	err     error
}

func (m *memoryLog) Append(ctx context.Context, record storage.DecisionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func (m *memoryLog) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func newTestNodes(t *testing.T, completer agents.Completer, log *memoryLog, analystConf float64, analystDelay time.Duration) *Nodes {
	t.Helper()
	team := agents.NewTeam(zerolog.Nop(), nil,
		&fakeAnalyzer{kind: models.MarketAnalyst, conf: analystConf, delay: analystDelay},
		&fakeAnalyzer{kind: models.SentimentAnalyst, conf: analystConf, delay: analystDelay},
		&fakeAnalyzer{kind: models.NewsAnalyst, conf: analystConf, delay: analystDelay},
		&fakeAnalyzer{kind: models.FundamentalsAnalyst, conf: analystConf, delay: analystDelay},
	)
	return &Nodes{
		Team: team,
		InvestDebate: debate.NewController(zerolog.Nop(), agents.NewResearchManager(completer), 2,
			agents.NewBullResearcher(completer), agents.NewBearResearcher(completer)),
		RiskDebate: debate.NewController(zerolog.Nop(), agents.NewRiskJudge(completer), 1,
			agents.NewRiskyAnalyst(completer), agents.NewSafeAnalyst(completer), agents.NewNeutralAnalyst(completer)),
		Trader:         agents.NewTrader(completer),
		Signal:         processing.NewSignalProcessor(),
		Log:            log,
		PersistMinConf: 0.5,
		Logger:         zerolog.Nop(),
	}
}

func compileTestGraph(t *testing.T, n *Nodes) *Runner {
	t.Helper()
	runner, err := n.BuildGraph().Compile(zerolog.Nop())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return runner
}

func TestPipelineEndToEndPersists(t *testing.T) {
	completer := &fakeCompleter{text: "Strong buy. Bullish growth opportunity, undervalued with upside. Buy on open."}
	log := &memoryLog{}
	n := newTestNodes(t, completer, log, 0.9, 0)
	runner := compileTestGraph(t, n)

	final, err := runner.Run(context.Background(), models.NewTradingState("s1", "AAPL", "2024-03-15"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(final.Reports) != 4 {
		t.Errorf("reports = %d, want 4", len(final.Reports))
	}
	// 2 rounds of bull/bear = 4 utterances.
	if got := len(final.InvestmentDebate.Transcript); got != 4 {
		t.Errorf("investment transcript = %d, want 4", got)
	}
	if final.InvestmentDebate.RoundCount != 2 {
		t.Errorf("investment rounds = %d, want 2", final.InvestmentDebate.RoundCount)
	}
	// 1 round of risky/safe/neutral = 3 utterances.
	if got := len(final.RiskDebate.Transcript); got != 3 {
		t.Errorf("risk transcript = %d, want 3", got)
	}
	if final.InvestmentPlan == "" || final.TraderPlan == "" {
		t.Error("plans should be populated")
	}
	if final.FinalDecision != models.DecisionBuy {
		t.Errorf("decision = %s, want BUY", final.FinalDecision)
	}
	if final.FinalConfidence <= 0.5 {
		t.Errorf("confidence = %v, want > 0.5", final.FinalConfidence)
	}
	if !final.Completed() {
		t.Error("state should be marked completed")
	}
	if log.count() != 1 {
		t.Errorf("decision log has %d records, want 1", log.count())
	}
}

func TestPipelineLowConfidenceSkipsStorage(t *testing.T) {
	// Neutral text and zero-confidence reports keep the blended score
	// under the persistence floor.
	completer := &fakeCompleter{text: "The outlook is entirely unclear at this point in the cycle."}
	log := &memoryLog{}
	n := newTestNodes(t, completer, log, 0, 0)
	runner := compileTestGraph(t, n)

	final, err := runner.Run(context.Background(), models.NewTradingState("s2", "XYZ", "2024-03-15"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if final.FinalDecision == models.DecisionPending {
		t.Error("a decision should still be produced")
	}
	if log.count() != 0 {
		t.Errorf("decision log has %d records, want 0 below threshold", log.count())
	}
	// Terminating without persist leaves the completion stamp unset.
	if final.Completed() {
		t.Error("skipped persistence should not mark the run completed")
	}
	if final.LastStage != StageFinalDecision {
		t.Errorf("LastStage = %q, want %q", final.LastStage, StageFinalDecision)
	}
}

func TestPipelineCompleterOutageStillDecides(t *testing.T) {
	// Every researcher, judge, and the trader fails; the run must still
	// reach a terminal decision on placeholder text alone.
	completer := &fakeCompleter{err: errors.New("model offline")}
	log := &memoryLog{}
	n := newTestNodes(t, completer, log, 0, 0)
	runner := compileTestGraph(t, n)

	final, err := runner.Run(context.Background(), models.NewTradingState("s6", "AAPL", "2024-03-15"))
	if err != nil {
		t.Fatalf("completer outage should not fail the run: %v", err)
	}

	if final.FinalDecision != models.DecisionHold {
		t.Errorf("decision = %s, want HOLD from a degraded run", final.FinalDecision)
	}
	if final.InvestmentPlan == "" || final.TraderPlan == "" {
		t.Error("degraded plans should still be populated")
	}
	if final.RiskDebate.JudgeRuling == "" {
		t.Error("degraded risk ruling should still be recorded")
	}
	// Placeholder arguments fill the transcripts rather than truncating them.
	if got := len(final.InvestmentDebate.Transcript); got != 4 {
		t.Errorf("investment transcript = %d, want 4", got)
	}
	if log.count() != 0 {
		t.Errorf("decision log has %d records, want 0 for a degraded run", log.count())
	}
}

func TestPipelineTimeoutDuringAnalysis(t *testing.T) {
	completer := &fakeCompleter{text: "buy"}
	log := &memoryLog{}
	n := newTestNodes(t, completer, log, 0.9, 200*time.Millisecond)
	runner := compileTestGraph(t, n)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := runner.Run(ctx, models.NewTradingState("s3", "AAPL", "2024-03-15"))
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("error type %T, want *TimeoutError", err)
	}
	if te.Stage != StageAnalysis {
		t.Errorf("stage = %q, want %q", te.Stage, StageAnalysis)
	}
	// In-flight branch results are discarded with the snapshot.
	if te.Snapshot != nil && len(te.Snapshot.Reports) != 0 {
		t.Error("snapshot should not carry partial reports")
	}
	if log.count() != 0 {
		t.Error("nothing should be persisted after a timeout")
	}
}

func TestPersistNodeValidatesState(t *testing.T) {
	completer := &fakeCompleter{text: "buy"}
	n := newTestNodes(t, completer, &memoryLog{}, 0.9, 0)

	// Missing trader plan.
	state := models.NewTradingState("s4", "AAPL", "2024-03-15")
	for _, kind := range models.AllAnalystKinds() {
		state.Reports[kind] = models.NewAnalysisReport(kind, "AAPL", "2024-03-15")
	}
	state.InvestmentPlan = "plan"
	state.FinalDecision = models.DecisionBuy

	_, err := n.Persist(context.Background(), state)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error type %T, want *ValidationError", err)
	}
}

func TestPersistStorageFailureDoesNotFailRun(t *testing.T) {
	completer := &fakeCompleter{text: "Strong buy. Bullish growth opportunity, undervalued upside. Buy now."}
	log := &memoryLog{err: errors.New("disk full")}
	n := newTestNodes(t, completer, log, 0.9, 0)
	runner := compileTestGraph(t, n)

	final, err := runner.Run(context.Background(), models.NewTradingState("s5", "AAPL", "2024-03-15"))
	if err != nil {
		t.Fatalf("storage failure should not fail the run: %v", err)
	}
	if !final.Completed() {
		t.Error("run should complete despite the storage failure")
	}
}
