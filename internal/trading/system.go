// Package trading assembles the full pipeline behind a single Run entry
// point.
package trading

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/agents"
	"github.com/agora-quant/agora/internal/config"
	"github.com/agora-quant/agora/internal/dataflows"
	"github.com/agora-quant/agora/internal/debate"
	"github.com/agora-quant/agora/internal/llm"
	"github.com/agora-quant/agora/internal/models"
	"github.com/agora-quant/agora/internal/processing"
	"github.com/agora-quant/agora/internal/storage"
	"github.com/agora-quant/agora/internal/storage/sqlite"
	"github.com/agora-quant/agora/internal/tools"
	"github.com/agora-quant/agora/internal/workflow"
)

// System owns the collaborators for one process and runs analysis sessions.
type System struct {
	cfg       *config.Config
	log       zerolog.Logger
	gateway   *tools.Gateway
	metrics   *tools.Metrics
	completer agents.Completer
	store     storage.DecisionLog
	runner    *workflow.Runner
	closers   []func() error
}

// Option overrides a default collaborator, mainly for tests.
type Option func(*System)

// WithCompleter substitutes the text completion backend.
func WithCompleter(c agents.Completer) Option {
	return func(s *System) { s.completer = c }
}

// WithStore substitutes the decision log.
func WithStore(store storage.DecisionLog) Option {
	return func(s *System) { s.store = store }
}

// WithGateway substitutes the data gateway.
func WithGateway(gw *tools.Gateway) Option {
	return func(s *System) { s.gateway = gw }
}

// NewSystem wires the pipeline from config. Collaborators not overridden by
// options are built once here and reused across runs.
func NewSystem(cfg *config.Config, log zerolog.Logger, opts ...Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	s := &System{
		cfg:     cfg,
		log:     log.With().Str("component", "trading_system").Logger(),
		metrics: tools.NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.gateway == nil {
		retry := tools.RetryConfig{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
			Multiplier:  2.0,
		}
		s.gateway = tools.NewGateway(cfg.CacheTTL, retry,
			tools.WithRateLimit(cfg.FetchRateLimit, cfg.FetchBurst),
			tools.WithLogger(log),
			tools.WithMetrics(s.metrics),
		)
		dataflows.NewToolkit(cfg.FinnhubAPIKey).RegisterAll(s.gateway)
	}

	if s.completer == nil {
		s.completer = llm.NewClient(llm.Config{
			BaseURL:     cfg.LLMBaseURL,
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.LLMTimeout,
		})
	}

	if s.store == nil {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open decision log: %w", err)
		}
		s.store = store
		s.closers = append(s.closers, store.Close)
	}

	nodes := &workflow.Nodes{
		Team: agents.NewStandardTeam(s.gateway, s.completer, s.metrics, log),
		InvestDebate: debate.NewController(log,
			agents.NewResearchManager(s.completer),
			cfg.MaxDebateRounds,
			agents.NewBullResearcher(s.completer),
			agents.NewBearResearcher(s.completer)),
		RiskDebate: debate.NewController(log,
			agents.NewRiskJudge(s.completer),
			cfg.MaxRiskRounds,
			agents.NewRiskyAnalyst(s.completer),
			agents.NewSafeAnalyst(s.completer),
			agents.NewNeutralAnalyst(s.completer)),
		Trader:         agents.NewTrader(s.completer),
		Signal:         processing.NewSignalProcessor(),
		Log:            s.store,
		PersistMinConf: cfg.PersistMinConfidence,
		Logger:         log,
	}

	runner, err := nodes.BuildGraph().Compile(log)
	if err != nil {
		return nil, fmt.Errorf("compile workflow: %w", err)
	}
	s.runner = runner

	return s, nil
}

// Close releases collaborators the system opened itself.
func (s *System) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Metrics exposes the per-tool and per-analyst counters.
func (s *System) Metrics() map[string]tools.MetricSnapshot {
	return s.metrics.Snapshot()
}

// Run executes one full analysis session for a symbol and trade date.
// The returned decision is always populated when err is nil; the state
// carries every intermediate artifact.
func (s *System) Run(ctx context.Context, symbol, tradeDate string) (*models.TradingState, *models.TradingDecision, error) {
	if err := dataflows.ValidateSymbol(symbol); err != nil {
		return nil, nil, err
	}
	symbol = dataflows.NormalizeSymbol(symbol)

	if tradeDate == "" {
		tradeDate = time.Now().Format("2006-01-02")
	} else {
		parsed, err := dataflows.ParseDateString(tradeDate)
		if err != nil {
			return nil, nil, err
		}
		tradeDate = parsed.Format("2006-01-02")
	}

	sessionID := uuid.NewString()
	s.log.Info().
		Str("session_id", sessionID).
		Str("symbol", symbol).
		Str("trade_date", tradeDate).
		Msg("starting analysis session")

	runCtx := ctx
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	state := models.NewTradingState(sessionID, symbol, tradeDate)
	final, err := s.runner.Run(runCtx, state)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("session failed")
		return final, nil, err
	}

	decision := &models.TradingDecision{
		Symbol:     final.Symbol,
		TradeDate:  final.TradeDate,
		Action:     final.FinalDecision,
		Confidence: final.FinalConfidence,
		Reasoning:  final.RiskDebate.JudgeRuling,
		Persisted:  final.Completed(),
		CreatedAt:  final.CreatedAt,
	}

	s.log.Info().
		Str("session_id", sessionID).
		Str("action", string(decision.Action)).
		Float64("confidence", decision.Confidence).
		Bool("persisted", decision.Persisted).
		Msg("session complete")

	return final, decision, nil
}
