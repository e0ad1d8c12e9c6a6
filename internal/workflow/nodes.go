package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/agents"
	"github.com/agora-quant/agora/internal/debate"
	"github.com/agora-quant/agora/internal/models"
	"github.com/agora-quant/agora/internal/processing"
	"github.com/agora-quant/agora/internal/storage"
)

// Stage names, also used as node names in the canonical graph.
const (
	StageAnalysis      = "analysis"
	StageDebate        = "debate"
	StageSynthesis     = "synthesis"
	StagePlan          = "plan"
	StageRiskReview    = "risk_review"
	StageFinalDecision = "final_decision"
	StagePersist       = "persist"
)

// Nodes bundles the collaborators behind each workflow stage.
type Nodes struct {
	Team           *agents.Team
	InvestDebate   *debate.Controller
	RiskDebate     *debate.Controller
	Trader         *agents.Trader
	Signal         *processing.SignalProcessor
	Log            storage.DecisionLog
	PersistMinConf float64
	Logger         zerolog.Logger
}

// BuildGraph wires the canonical pipeline:
// analysis -> [debate loop] -> synthesis -> plan -> [risk loop] ->
// final_decision -> [persist | END].
func (n *Nodes) BuildGraph() *Graph {
	g := NewGraph()
	g.AddNode(StageAnalysis, n.Analysis)
	g.AddNode(StageDebate, n.InvestmentDebateRound)
	g.AddNode(StageSynthesis, n.Synthesis)
	g.AddNode(StagePlan, n.Plan)
	g.AddNode(StageRiskReview, n.RiskReviewRound)
	g.AddNode(StageFinalDecision, n.FinalDecision)
	g.AddNode(StagePersist, n.Persist)

	g.SetEntry(StageAnalysis)
	g.AddConditionalEdge(StageAnalysis, n.debateOrSynthesis, StageDebate, StageSynthesis)
	g.AddConditionalEdge(StageDebate, n.debateOrSynthesis, StageDebate, StageSynthesis)
	g.AddEdge(StageSynthesis, StagePlan)
	g.AddConditionalEdge(StagePlan, n.riskOrDecide, StageRiskReview, StageFinalDecision)
	g.AddConditionalEdge(StageRiskReview, n.riskOrDecide, StageRiskReview, StageFinalDecision)
	g.AddConditionalEdge(StageFinalDecision, n.persistOrEnd, StagePersist, END)
	g.AddEdge(StagePersist, END)
	return g
}

// Analysis fans the analyst team out and merges every branch report.
func (n *Nodes) Analysis(ctx context.Context, state *models.TradingState) (*models.StateDelta, error) {
	reports := n.Team.RunAll(ctx, state.Symbol, state.TradeDate)
	if err := ctx.Err(); err != nil {
		// Deadline hit mid fan-out: discard partial branch results.
		return nil, err
	}
	return &models.StateDelta{Reports: reports}, nil
}

// InvestmentDebateRound runs one full rotation of the bull/bear debate.
func (n *Nodes) InvestmentDebateRound(ctx context.Context, state *models.TradingState) (*models.StateDelta, error) {
	ds := state.InvestmentDebate.Clone()
	if err := n.InvestDebate.RunRotation(ctx, state, ds); err != nil {
		return nil, err
	}
	return &models.StateDelta{InvestmentDebate: ds}, nil
}

// Synthesis asks the research manager to rule on the debate and records
// the ruling as the investment plan.
func (n *Nodes) Synthesis(ctx context.Context, state *models.TradingState) (*models.StateDelta, error) {
	ds := state.InvestmentDebate.Clone()
	ruling, err := n.InvestDebate.Conclude(ctx, state, ds)
	if err != nil {
		return nil, err
	}
	return &models.StateDelta{
		InvestmentDebate: ds,
		InvestmentPlan:   models.String(ruling),
	}, nil
}

// Plan turns the investment plan into the trader's execution plan. A
// trader failure degrades to a hold plan; only a dead context propagates.
func (n *Nodes) Plan(ctx context.Context, state *models.TradingState) (*models.StateDelta, error) {
	plan, err := n.Trader.Plan(ctx, state)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		n.Logger.Warn().Err(err).Str("symbol", state.Symbol).Msg("trader failed, recording fallback plan")
		plan = fmt.Sprintf("(trader unavailable: %v) No execution plan produced; HOLD with no position changes.", err)
	}
	return &models.StateDelta{TraderPlan: models.String(plan)}, nil
}

// RiskReviewRound runs one full rotation of the risky/safe/neutral review.
func (n *Nodes) RiskReviewRound(ctx context.Context, state *models.TradingState) (*models.StateDelta, error) {
	ds := state.RiskDebate.Clone()
	if err := n.RiskDebate.RunRotation(ctx, state, ds); err != nil {
		return nil, err
	}
	return &models.StateDelta{RiskDebate: ds}, nil
}

// FinalDecision has the risk judge rule, then distills decision and
// confidence from the accumulated text.
func (n *Nodes) FinalDecision(ctx context.Context, state *models.TradingState) (*models.StateDelta, error) {
	ds := state.RiskDebate.Clone()
	if _, err := n.RiskDebate.Conclude(ctx, state, ds); err != nil {
		return nil, err
	}

	scored := state.Clone()
	scored.RiskDebate = ds
	signal := n.Signal.Process(scored)

	n.Logger.Info().
		Str("symbol", state.Symbol).
		Str("action", string(signal.Action)).
		Float64("confidence", signal.Confidence).
		Msg("final decision extracted")

	return &models.StateDelta{
		RiskDebate:      ds,
		FinalDecision:   models.Dec(signal.Action),
		FinalConfidence: models.Float(signal.Confidence),
	}, nil
}

// Persist validates the terminal state and appends it to the decision log.
func (n *Nodes) Persist(ctx context.Context, state *models.TradingState) (*models.StateDelta, error) {
	if err := validateTerminal(state); err != nil {
		return nil, err
	}

	record := storage.DecisionRecord{
		SessionID:  state.SessionID,
		Symbol:     state.Symbol,
		TradeDate:  state.TradeDate,
		Action:     string(state.FinalDecision),
		Confidence: state.FinalConfidence,
		Plan:       state.TraderPlan,
		CreatedAt:  time.Now(),
	}
	if err := n.Log.Append(ctx, record); err != nil {
		// Storage failure is logged, not fatal: the decision still stands.
		n.Logger.Error().Err(err).Str("symbol", state.Symbol).Msg("decision log append failed")
	}

	return &models.StateDelta{CompletedAt: models.Time(time.Now())}, nil
}

func validateTerminal(state *models.TradingState) error {
	for _, kind := range models.AllAnalystKinds() {
		if state.Report(kind) == nil {
			return &ValidationError{Field: fmt.Sprintf("report.%s", kind), Reason: "missing"}
		}
	}
	if state.InvestmentPlan == "" {
		return &ValidationError{Field: "investment_plan", Reason: "empty"}
	}
	if state.TraderPlan == "" {
		return &ValidationError{Field: "trader_plan", Reason: "empty"}
	}
	if state.FinalDecision == models.DecisionPending {
		return &ValidationError{Field: "final_decision", Reason: "still pending"}
	}
	return nil
}
