package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/agora-quant/agora/internal/models"
)

// reportsContext renders all analyst reports as prompt context.
func reportsContext(state *models.TradingState) string {
	var b strings.Builder
	for _, kind := range models.AllAnalystKinds() {
		report := state.Report(kind)
		if report == nil {
			continue
		}
		fmt.Fprintf(&b, "%s analysis (confidence %.2f):\n%s\n\n", kind, report.Confidence, report.Summary)
	}
	return b.String()
}

const bullSystemPrompt = `You are a bullish investment researcher specializing in identifying investment opportunities and positive catalysts.

Your responsibilities:
1. Analyze all available reports to build a bullish investment case
2. Identify positive catalysts, growth opportunities, and upside potential
3. Present compelling arguments for why the stock should be bought
4. Engage in structured debate with the bear researcher

Focus on building the strongest possible case for investment, backed by data and analysis.`

const bearSystemPrompt = `You are a bearish investment researcher specializing in identifying risks, red flags, and downside scenarios.

Your responsibilities:
1. Analyze all available reports to build a bearish case
2. Identify negative catalysts, overvaluation, and downside risks
3. Present compelling arguments for why the stock should be avoided or sold
4. Engage in structured debate with the bull researcher

Focus on building the strongest possible case for caution, backed by data and analysis.`

// Researcher argues one side of the investment debate.
type Researcher struct {
	side      string
	system    string
	completer Completer
}

func NewBullResearcher(completer Completer) *Researcher {
	return &Researcher{side: models.SideBull, system: bullSystemPrompt, completer: completer}
}

func NewBearResearcher(completer Completer) *Researcher {
	return &Researcher{side: models.SideBear, system: bearSystemPrompt, completer: completer}
}

func (r *Researcher) Name() string { return r.side }

func (r *Researcher) Argue(ctx context.Context, state *models.TradingState, ds *models.DebateState) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\nTrade Date: %s\n\n", state.Symbol, state.TradeDate)
	b.WriteString(reportsContext(state))

	if history := ds.History(); history != "" {
		fmt.Fprintf(&b, "Debate so far:\n%s\n\n", history)
	}
	if opposing := r.opposingLatest(ds); opposing != "" {
		fmt.Fprintf(&b, "Address your opponent's latest argument:\n%s\n\n", opposing)
	}
	fmt.Fprintf(&b, "Present your %s case for %s.", r.side, state.Symbol)

	text, err := r.completer.Complete(ctx, r.system, b.String())
	if err != nil {
		return "", &AgentError{Agent: r.side + "_researcher", Err: err}
	}
	return text, nil
}

func (r *Researcher) opposingLatest(ds *models.DebateState) string {
	for side, latest := range ds.LatestBySide {
		if side != r.side && latest != "" {
			return fmt.Sprintf("%s: %s", side, latest)
		}
	}
	return ""
}

const researchManagerPrompt = `You are a senior research manager who makes final investment decisions based on debate between bull and bear researchers.

Your responsibilities:
1. Review arguments from both bull and bear researchers
2. Weigh the strength of evidence on both sides
3. Make a final investment decision with clear rationale
4. Provide a structured investment plan for the trader to execute

State your conclusion clearly as BUY, SELL, or HOLD with supporting rationale.`

// ResearchManager judges the bull vs bear debate and produces the
// investment plan.
type ResearchManager struct {
	completer Completer
}

func NewResearchManager(completer Completer) *ResearchManager {
	return &ResearchManager{completer: completer}
}

func (m *ResearchManager) Rule(ctx context.Context, state *models.TradingState, ds *models.DebateState) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\nTrade Date: %s\n\n", state.Symbol, state.TradeDate)
	b.WriteString(reportsContext(state))

	if history := ds.History(); history != "" {
		fmt.Fprintf(&b, "Debate transcript (%d rounds):\n%s\n\n", ds.RoundCount, history)
	} else {
		b.WriteString("No debate was held; decide from the analyst reports alone.\n\n")
	}
	fmt.Fprintf(&b, "Deliver your final investment decision for %s.", state.Symbol)

	ruling, err := m.completer.Complete(ctx, researchManagerPrompt, b.String())
	if err != nil {
		return "", &AgentError{Agent: "research_manager", Err: err}
	}
	return ruling, nil
}
