package models

import "time"

// AnalystKind identifies one analyst branch of the fan-out stage.
type AnalystKind string

const (
	MarketAnalyst       AnalystKind = "market"
	SentimentAnalyst    AnalystKind = "sentiment"
	NewsAnalyst         AnalystKind = "news"
	FundamentalsAnalyst AnalystKind = "fundamentals"
)

// AllAnalystKinds returns the standard branch set in registration order.
func AllAnalystKinds() []AnalystKind {
	return []AnalystKind{MarketAnalyst, SentimentAnalyst, NewsAnalyst, FundamentalsAnalyst}
}

const (
	maxKeyFindings     = 5
	maxRecommendations = 3
	maxRisks           = 3
)

// AnalysisReport is the value produced by one analyst branch. It is treated
// as immutable once created; Confidence is derived from data availability
// only, never from the sentiment of the summary text.
type AnalysisReport struct {
	Kind            AnalystKind `json:"analyst_kind"`
	Symbol          string      `json:"symbol"`
	TradeDate       string      `json:"trade_date"`
	Summary         string      `json:"summary"`
	KeyFindings     []string    `json:"key_findings"`
	DataSources     []string    `json:"data_sources"`
	Confidence      float64     `json:"confidence"`
	Recommendations []string    `json:"recommendations"`
	Risks           []string    `json:"risks"`
	CreatedAt       time.Time   `json:"created_at"`
}

// NewAnalysisReport builds a report, clamping confidence into [0,1] and list
// lengths to their caps.
func NewAnalysisReport(kind AnalystKind, symbol, tradeDate string) *AnalysisReport {
	return &AnalysisReport{
		Kind:      kind,
		Symbol:    symbol,
		TradeDate: tradeDate,
		CreatedAt: time.Now(),
	}
}

func (r *AnalysisReport) SetConfidence(c float64) {
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	r.Confidence = c
}

func (r *AnalysisReport) AddFinding(finding string) {
	if len(r.KeyFindings) < maxKeyFindings {
		r.KeyFindings = append(r.KeyFindings, finding)
	}
}

func (r *AnalysisReport) AddRecommendation(rec string) {
	if len(r.Recommendations) < maxRecommendations {
		r.Recommendations = append(r.Recommendations, rec)
	}
}

func (r *AnalysisReport) AddRisk(risk string) {
	if len(r.Risks) < maxRisks {
		r.Risks = append(r.Risks, risk)
	}
}

func (r *AnalysisReport) Clone() *AnalysisReport {
	if r == nil {
		return nil
	}
	cp := *r
	cp.KeyFindings = append([]string(nil), r.KeyFindings...)
	cp.DataSources = append([]string(nil), r.DataSources...)
	cp.Recommendations = append([]string(nil), r.Recommendations...)
	cp.Risks = append([]string(nil), r.Risks...)
	return &cp
}
