package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/agora-quant/agora/internal/models"
)

const riskySystemPrompt = `You are an aggressive risk analyst who advocates for bold, high-reward positions.
Argue for maximizing upside capture: larger position sizes, earlier entries, and tolerance for drawdowns
when the expected return justifies it. Challenge overly cautious framing from the other analysts.`

const safeSystemPrompt = `You are a conservative risk analyst who prioritizes capital preservation.
Argue for downside protection: smaller position sizes, strict stop-losses, and avoiding exposure when
uncertainty is high. Challenge reckless framing from the other analysts.`

const neutralSystemPrompt = `You are a balanced risk analyst who weighs both upside and downside objectively.
Moderate between the aggressive and conservative views, pointing out where each overstates its case,
and propose a middle-ground position sizing and risk posture.`

// RiskAnalyst argues one stance in the risk review debate.
type RiskAnalyst struct {
	side      string
	system    string
	completer Completer
}

func NewRiskyAnalyst(completer Completer) *RiskAnalyst {
	return &RiskAnalyst{side: models.SideRisky, system: riskySystemPrompt, completer: completer}
}

func NewSafeAnalyst(completer Completer) *RiskAnalyst {
	return &RiskAnalyst{side: models.SideSafe, system: safeSystemPrompt, completer: completer}
}

func NewNeutralAnalyst(completer Completer) *RiskAnalyst {
	return &RiskAnalyst{side: models.SideNeutral, system: neutralSystemPrompt, completer: completer}
}

func (a *RiskAnalyst) Name() string { return a.side }

func (a *RiskAnalyst) Argue(ctx context.Context, state *models.TradingState, ds *models.DebateState) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\nTrade Date: %s\n\n", state.Symbol, state.TradeDate)
	if state.InvestmentPlan != "" {
		fmt.Fprintf(&b, "Investment plan under review:\n%s\n\n", state.InvestmentPlan)
	}
	if state.TraderPlan != "" {
		fmt.Fprintf(&b, "Trader's proposed execution plan:\n%s\n\n", state.TraderPlan)
	}
	if history := ds.History(); history != "" {
		fmt.Fprintf(&b, "Risk discussion so far:\n%s\n\n", history)
	}
	fmt.Fprintf(&b, "Give your %s risk assessment of this plan.", a.side)

	text, err := a.completer.Complete(ctx, a.system, b.String())
	if err != nil {
		return "", &AgentError{Agent: a.side + "_risk_analyst", Err: err}
	}
	return text, nil
}

const riskJudgePrompt = `You are the final risk judge who makes ultimate risk management decisions.
Review the trader's plan and the risk analysts' discussion, then issue the binding decision.
State your conclusion clearly as BUY, SELL, or HOLD with the approved risk posture.`

// RiskJudge rules on the risk review and issues the final decision text.
type RiskJudge struct {
	completer Completer
}

func NewRiskJudge(completer Completer) *RiskJudge {
	return &RiskJudge{completer: completer}
}

func (j *RiskJudge) Rule(ctx context.Context, state *models.TradingState, ds *models.DebateState) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\nTrade Date: %s\n\n", state.Symbol, state.TradeDate)
	if state.TraderPlan != "" {
		fmt.Fprintf(&b, "Trader's plan:\n%s\n\n", state.TraderPlan)
	}
	if history := ds.History(); history != "" {
		fmt.Fprintf(&b, "Risk discussion (%d rounds):\n%s\n\n", ds.RoundCount, history)
	} else {
		b.WriteString("No risk discussion was held; rule on the trader's plan directly.\n\n")
	}
	fmt.Fprintf(&b, "Issue the final trading decision for %s.", state.Symbol)

	ruling, err := j.completer.Complete(ctx, riskJudgePrompt, b.String())
	if err != nil {
		return "", &AgentError{Agent: "risk_judge", Err: err}
	}
	return ruling, nil
}
