package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/dataflows"
	"github.com/agora-quant/agora/internal/models"
)

const sentimentSystemPrompt = `You are a professional sentiment analyst specializing in social media and public sentiment analysis.
Your role is to analyze social media discussions, public sentiment, and market psychology to provide
insights for trading decisions.

Focus on:
- Social media sentiment trends
- Public perception and market psychology
- Sentiment momentum and shifts
- Contrarian indicators

Provide clear analysis of sentiment trends and their potential impact on stock price.`

// SentimentAnalyzer reads aggregate social sentiment for a symbol.
type SentimentAnalyzer struct {
	fetcher   DataFetcher
	completer Completer
	log       zerolog.Logger
}

func NewSentimentAnalyzer(fetcher DataFetcher, completer Completer, log zerolog.Logger) *SentimentAnalyzer {
	return &SentimentAnalyzer{
		fetcher:   fetcher,
		completer: completer,
		log:       log.With().Str("agent", "sentiment_analyst").Logger(),
	}
}

func (a *SentimentAnalyzer) Kind() models.AnalystKind { return models.SentimentAnalyst }

func (a *SentimentAnalyzer) Analyze(ctx context.Context, symbol, tradeDate string) (*models.AnalysisReport, error) {
	data, err := a.fetcher.Fetch(ctx, dataflows.ToolSocialSentiment, map[string]string{"symbol": symbol})
	if err != nil {
		return nil, &AgentError{Agent: "sentiment_analyst", Err: err}
	}

	user := fmt.Sprintf("Analyze the following sentiment data for %s as of %s and provide comprehensive sentiment analysis:\n\n%s",
		symbol, tradeDate, data)

	summary, err := a.completer.Complete(ctx, sentimentSystemPrompt, user)
	if err != nil {
		return nil, &AgentError{Agent: "sentiment_analyst", Err: err}
	}

	report := models.NewAnalysisReport(models.SentimentAnalyst, symbol, tradeDate)
	report.Summary = summary
	report.DataSources = []string{"Finnhub Sentiment"}

	positive := countOccurrences(data, "bullish", "positive")
	negative := countOccurrences(data, "bearish", "negative")
	switch {
	case positive > negative:
		report.AddFinding("Overall positive social sentiment")
	case negative > positive:
		report.AddFinding("Overall negative social sentiment")
	default:
		report.AddFinding("Mixed social sentiment")
	}

	if containsAny(summary, "positive sentiment") {
		report.AddRecommendation("Positive sentiment supports bullish outlook")
	}
	if containsAny(summary, "negative sentiment") {
		report.AddRecommendation("Negative sentiment suggests caution")
	}
	if containsAny(summary, "contrarian") {
		report.AddRecommendation("Consider contrarian approach")
	}

	if containsAny(summary, "extreme") {
		report.AddRisk("Extreme sentiment may indicate reversal risk")
	}
	if containsAny(summary, "hype", "fomo") {
		report.AddRisk("Hype-driven sentiment may be unsustainable")
	}

	c := 0.5
	if len(data) > 100 {
		c += 0.2
	}
	if containsAny(data, "bullish") || containsAny(data, "bearish") {
		c += 0.2
	}
	// Social signals are noisy, cap below full confidence.
	if c > 0.9 {
		c = 0.9
	}
	report.SetConfidence(c)

	return report, nil
}
