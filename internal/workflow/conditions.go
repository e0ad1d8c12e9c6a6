package workflow

import "github.com/agora-quant/agora/internal/models"

// debateOrSynthesis keeps re-entering the debate node while rounds remain.
func (n *Nodes) debateOrSynthesis(state *models.TradingState) string {
	if n.InvestDebate.ShouldContinue(state.InvestmentDebate) {
		return StageDebate
	}
	return StageSynthesis
}

// riskOrDecide keeps re-entering the risk review while rounds remain.
func (n *Nodes) riskOrDecide(state *models.TradingState) string {
	if n.RiskDebate.ShouldContinue(state.RiskDebate) {
		return StageRiskReview
	}
	return StageFinalDecision
}

// persistOrEnd stores the decision only above the confidence floor. The
// skip is visible in logs; the decision is still returned to the caller.
func (n *Nodes) persistOrEnd(state *models.TradingState) string {
	if state.FinalConfidence > n.PersistMinConf {
		return StagePersist
	}
	n.Logger.Info().
		Str("symbol", state.Symbol).
		Float64("confidence", state.FinalConfidence).
		Float64("threshold", n.PersistMinConf).
		Msg("confidence below persistence threshold, skipping storage")
	return END
}
