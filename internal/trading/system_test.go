package trading

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/config"
	"github.com/agora-quant/agora/internal/models"
	"github.com/agora-quant/agora/internal/storage"
	"github.com/agora-quant/agora/internal/tools"
)

type fakeCompleter struct {
	text string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return f.text, nil
}

type memoryLog struct {
	mu      sync.Mutex
	records []storage.DecisionRecord
}

func (m *memoryLog) Append(ctx context.Context, record storage.DecisionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ProjectDir = dir
	cfg.ResultsDir = filepath.Join(dir, "results")
	cfg.DBPath = filepath.Join(dir, "data", "agora.db")
	cfg.LLMAPIKey = "test-key"
	cfg.FinnhubAPIKey = "test-key"
	cfg.RunTimeout = 30 * time.Second
	return cfg
}

func testGateway(t *testing.T) *tools.Gateway {
	t.Helper()
	gw := tools.NewGateway(time.Minute, tools.DefaultRetryConfig())
	payloads := map[string]string{
		"yahoo_quote":      "Quote for AAPL\nOpen: 180.00 High: 186.00 Low: 179.00 Close: 185.00\nVolume: 1000000\n",
		"yahoo_history":    "Price history for AAPL (30 bars)\nWindow change: 4.20%\n",
		"finnhub_news":     "Company news for AAPL (3 articles)\n[2024-03-14] Wire: Strong earnings beat expectations\n",
		"social_sentiment": "Sentiment for AAPL\nBullish: 0.70 Bearish: 0.20\n",
		"fundamentals":     "Company profile for AAPL\nName: Apple Inc\nTradeable: true\n",
		"macro_news":       "Macro headlines (2 articles)\n[2024-03-14] Fed holds rates steady\n",
	}
	for name, payload := range payloads {
		payload := payload
		gw.Register(name, func(ctx context.Context, params map[string]string) (string, error) {
			return payload, nil
		})
	}
	return gw
}

func TestSystemRunEndToEnd(t *testing.T) {
	log := &memoryLog{}
	completer := &fakeCompleter{text: "Strong buy. Bullish growth opportunity, undervalued with clear upside. Buy on open."}

	sys, err := NewSystem(testConfig(t), zerolog.Nop(),
		WithCompleter(completer),
		WithStore(log),
		WithGateway(testGateway(t)),
	)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	defer sys.Close()

	state, decision, err := sys.Run(context.Background(), "aapl", "2024-03-15")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if state.Symbol != "AAPL" {
		t.Errorf("symbol normalized to %q, want AAPL", state.Symbol)
	}
	if decision.Action != models.DecisionBuy {
		t.Errorf("action = %s, want BUY", decision.Action)
	}
	if decision.Confidence <= 0.5 {
		t.Errorf("confidence = %v, want > 0.5", decision.Confidence)
	}
	if !decision.Persisted {
		t.Error("high-confidence decision should be persisted")
	}
	if len(log.records) != 1 {
		t.Fatalf("decision log has %d records, want 1", len(log.records))
	}
	if log.records[0].Symbol != "AAPL" || log.records[0].Action != "BUY" {
		t.Errorf("stored record = %+v", log.records[0])
	}
	if len(state.Reports) != 4 {
		t.Errorf("reports = %d, want 4", len(state.Reports))
	}
}

func TestSystemRunRejectsBadInput(t *testing.T) {
	sys, err := NewSystem(testConfig(t), zerolog.Nop(),
		WithCompleter(&fakeCompleter{text: "hold"}),
		WithStore(&memoryLog{}),
		WithGateway(testGateway(t)),
	)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	defer sys.Close()

	if _, _, err := sys.Run(context.Background(), "", "2024-03-15"); err == nil {
		t.Error("expected error for empty symbol")
	}
	if _, _, err := sys.Run(context.Background(), "AAPL", "not-a-date"); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestSystemRequiresValidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLMAPIKey = ""
	if _, err := NewSystem(cfg, zerolog.Nop()); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestSystemMetricsExposed(t *testing.T) {
	sys, err := NewSystem(testConfig(t), zerolog.Nop(),
		WithCompleter(&fakeCompleter{text: "Strong buy, bullish, undervalued opportunity."}),
		WithStore(&memoryLog{}),
		WithGateway(testGateway(t)),
	)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	defer sys.Close()

	if _, _, err := sys.Run(context.Background(), "AAPL", "2024-03-15"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := sys.Metrics()
	if m, ok := snap["analyst.market"]; !ok || m.Calls != 1 {
		t.Errorf("analyst.market metrics = %+v", m)
	}
}
