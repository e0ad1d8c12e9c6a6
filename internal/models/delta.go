package models

import "time"

// StateDelta is the partial update a workflow node returns. Nil fields leave
// the corresponding state fields untouched; Apply never clears anything a
// delta does not mention.
type StateDelta struct {
	Reports          map[AnalystKind]*AnalysisReport
	InvestmentDebate *DebateState
	InvestmentPlan   *string
	TraderPlan       *string
	RiskDebate       *DebateState
	FinalDecision    *Decision
	FinalConfidence  *float64
	CompletedAt      *time.Time
}

// Apply merges the delta into a fresh copy of the state. The input state is
// never modified, so concurrent readers of the old snapshot stay consistent.
func (d *StateDelta) Apply(s *TradingState) *TradingState {
	next := s.Clone()
	if d == nil {
		return next
	}
	for kind, report := range d.Reports {
		next.Reports[kind] = report.Clone()
	}
	if d.InvestmentDebate != nil {
		next.InvestmentDebate = d.InvestmentDebate.Clone()
	}
	if d.InvestmentPlan != nil {
		next.InvestmentPlan = *d.InvestmentPlan
	}
	if d.TraderPlan != nil {
		next.TraderPlan = *d.TraderPlan
	}
	if d.RiskDebate != nil {
		next.RiskDebate = d.RiskDebate.Clone()
	}
	if d.FinalDecision != nil {
		next.FinalDecision = *d.FinalDecision
	}
	if d.FinalConfidence != nil {
		next.FinalConfidence = *d.FinalConfidence
	}
	if d.CompletedAt != nil {
		next.CompletedAt = *d.CompletedAt
	}
	return next
}

// String and Float are small helpers for building deltas.
func String(s string) *string     { return &s }
func Float(f float64) *float64    { return &f }
func Dec(d Decision) *Decision    { return &d }
func Time(t time.Time) *time.Time { return &t }
