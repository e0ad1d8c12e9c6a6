package models

import "time"

// Decision is the categorical recommendation produced by the pipeline.
type Decision string

const (
	DecisionBuy     Decision = "BUY"
	DecisionSell    Decision = "SELL"
	DecisionHold    Decision = "HOLD"
	DecisionPending Decision = "PENDING"
)

// Debate side names. The investment debate runs bull/bear; the risk review
// rotates risky/safe/neutral.
const (
	SideBull    = "bull"
	SideBear    = "bear"
	SideRisky   = "risky"
	SideSafe    = "safe"
	SideNeutral = "neutral"
)

// TradingState is the single record threaded through every workflow stage.
// Stages never mutate it in place: each stage returns a StateDelta and the
// engine applies it to a fresh copy.
type TradingState struct {
	SessionID string `json:"session_id"`
	Symbol    string `json:"symbol"`
	TradeDate string `json:"trade_date"`

	Reports map[AnalystKind]*AnalysisReport `json:"reports"`

	InvestmentDebate *DebateState `json:"investment_debate"`
	InvestmentPlan   string       `json:"investment_plan"`
	TraderPlan       string       `json:"trader_plan"`
	RiskDebate       *DebateState `json:"risk_debate"`

	FinalDecision   Decision `json:"final_decision"`
	FinalConfidence float64  `json:"final_confidence"`

	LastStage   string    `json:"last_stage"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// NewTradingState creates the initial state with every field at its explicit
// empty value.
func NewTradingState(sessionID, symbol, tradeDate string) *TradingState {
	return &TradingState{
		SessionID:        sessionID,
		Symbol:           symbol,
		TradeDate:        tradeDate,
		Reports:          make(map[AnalystKind]*AnalysisReport),
		InvestmentDebate: NewDebateState(SideBull, SideBear),
		RiskDebate:       NewDebateState(SideRisky, SideSafe, SideNeutral),
		FinalDecision:    DecisionPending,
		CreatedAt:        time.Now(),
	}
}

func (s *TradingState) Clone() *TradingState {
	cp := *s
	cp.Reports = make(map[AnalystKind]*AnalysisReport, len(s.Reports))
	for k, v := range s.Reports {
		cp.Reports[k] = v.Clone()
	}
	cp.InvestmentDebate = s.InvestmentDebate.Clone()
	cp.RiskDebate = s.RiskDebate.Clone()
	return &cp
}

// Report returns the report for a kind, nil if the branch has not run.
func (s *TradingState) Report(kind AnalystKind) *AnalysisReport {
	return s.Reports[kind]
}

// Completed reports whether the terminal decision stage has run.
func (s *TradingState) Completed() bool {
	return !s.CompletedAt.IsZero()
}

// TradingDecision is the terminal projection returned to callers alongside
// the full state.
type TradingDecision struct {
	Symbol     string    `json:"symbol"`
	TradeDate  string    `json:"trade_date"`
	Action     Decision  `json:"action"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
	Persisted  bool      `json:"persisted"`
	CreatedAt  time.Time `json:"created_at"`
}
