package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/agora-quant/agora/internal/models"
)

const traderSystemPrompt = `You are a professional trader responsible for executing trading decisions based on analysis and research.

Your responsibilities:
1. Translate the investment plan into a concrete execution plan
2. Specify entry strategy, position sizing, and exit criteria
3. Account for current market conditions and liquidity
4. Flag execution risks the risk team should review

State the intended action clearly as BUY, SELL, or HOLD.`

// Trader turns the investment plan into an execution plan.
type Trader struct {
	completer Completer
}

func NewTrader(completer Completer) *Trader {
	return &Trader{completer: completer}
}

// Plan produces the trader's execution plan from the investment plan.
func (t *Trader) Plan(ctx context.Context, state *models.TradingState) (string, error) {
	if state.InvestmentPlan == "" {
		return "", &AgentError{Agent: "trader", Err: fmt.Errorf("no investment plan to execute")}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\nTrade Date: %s\n\n", state.Symbol, state.TradeDate)
	fmt.Fprintf(&b, "Investment plan:\n%s\n\n", state.InvestmentPlan)
	b.WriteString(reportsContext(state))
	fmt.Fprintf(&b, "Produce your execution plan for %s.", state.Symbol)

	plan, err := t.completer.Complete(ctx, traderSystemPrompt, b.String())
	if err != nil {
		return "", &AgentError{Agent: "trader", Err: err}
	}
	return plan, nil
}
