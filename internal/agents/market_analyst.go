package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/dataflows"
	"github.com/agora-quant/agora/internal/models"
)

const marketSystemPrompt = `You are a professional market analyst specializing in technical analysis.
Your role is to analyze stock price data, technical indicators, and market trends to provide
actionable insights for trading decisions.

Focus on:
- Price action and trend analysis
- Support and resistance levels
- Volume analysis
- Market momentum and volatility

Provide clear, concise analysis with specific data points and actionable recommendations.`

// MarketAnalyzer performs technical analysis on price history.
type MarketAnalyzer struct {
	fetcher   DataFetcher
	completer Completer
	log       zerolog.Logger
}

func NewMarketAnalyzer(fetcher DataFetcher, completer Completer, log zerolog.Logger) *MarketAnalyzer {
	return &MarketAnalyzer{
		fetcher:   fetcher,
		completer: completer,
		log:       log.With().Str("agent", "market_analyst").Logger(),
	}
}

func (a *MarketAnalyzer) Kind() models.AnalystKind { return models.MarketAnalyst }

func (a *MarketAnalyzer) Analyze(ctx context.Context, symbol, tradeDate string) (*models.AnalysisReport, error) {
	params := map[string]string{"symbol": symbol, "date": tradeDate, "days": "30"}

	history, err := a.fetcher.Fetch(ctx, dataflows.ToolYahooHistory, params)
	if err != nil {
		return nil, &AgentError{Agent: "market_analyst", Err: err}
	}

	quote, err := a.fetcher.Fetch(ctx, dataflows.ToolYahooQuote, map[string]string{"symbol": symbol})
	if err != nil {
		// History alone carries the analysis, log and continue.
		a.log.Warn().Err(err).Str("symbol", symbol).Msg("quote unavailable, using history only")
		quote = ""
	}

	user := fmt.Sprintf("Analyze the following market data for %s as of %s and provide a comprehensive technical analysis:\n\n%s\n%s",
		symbol, tradeDate, quote, history)

	summary, err := a.completer.Complete(ctx, marketSystemPrompt, user)
	if err != nil {
		return nil, &AgentError{Agent: "market_analyst", Err: err}
	}

	report := models.NewAnalysisReport(models.MarketAnalyst, symbol, tradeDate)
	report.Summary = summary
	report.DataSources = []string{"Yahoo Finance"}

	a.extractFindings(report, summary, history)
	a.extractRecommendations(report, summary)
	a.identifyRisks(report, summary)
	report.SetConfidence(a.confidence(history, quote))

	return report, nil
}

func (a *MarketAnalyzer) extractFindings(r *models.AnalysisReport, summary, history string) {
	if containsAny(summary, "uptrend", "higher high", "breakout") {
		r.AddFinding("Price action shows upward momentum")
	}
	if containsAny(summary, "downtrend", "lower low", "breakdown") {
		r.AddFinding("Price action shows downward pressure")
	}
	if containsAny(summary, "support") {
		r.AddFinding("Support level identified")
	}
	if containsAny(summary, "resistance") {
		r.AddFinding("Resistance level identified")
	}
	if containsAny(history, "Window change") {
		r.AddFinding("Multi-week price history analyzed")
	}
}

func (a *MarketAnalyzer) extractRecommendations(r *models.AnalysisReport, summary string) {
	if containsAny(summary, "buy", "bullish", "positive") {
		r.AddRecommendation("Consider long position")
	}
	if containsAny(summary, "sell", "bearish", "negative") {
		r.AddRecommendation("Consider short position or exit")
	}
	if containsAny(summary, "hold", "neutral", "sideways") {
		r.AddRecommendation("Hold current position")
	}
	if containsAny(summary, "volume") {
		r.AddRecommendation("Monitor volume for confirmation")
	}
}

func (a *MarketAnalyzer) identifyRisks(r *models.AnalysisReport, summary string) {
	if containsAny(summary, "overbought") {
		r.AddRisk("Overbought conditions may precede pullback")
	}
	if containsAny(summary, "oversold") {
		r.AddRisk("Oversold conditions indicate selling pressure")
	}
	if containsAny(summary, "volatil") {
		r.AddRisk("Elevated volatility increases position risk")
	}
}

// confidence is derived from data availability, not from the summary.
func (a *MarketAnalyzer) confidence(history, quote string) float64 {
	c := 0.5
	if history != "" {
		c += 0.2
	}
	if quote != "" {
		c += 0.2
	}
	return c
}
