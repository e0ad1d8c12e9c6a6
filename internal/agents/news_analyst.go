package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/dataflows"
	"github.com/agora-quant/agora/internal/models"
)

const newsSystemPrompt = `You are a professional news analyst specializing in financial news and macroeconomic analysis.
Your role is to analyze company-specific news, macroeconomic events, and market-moving developments
to provide insights for trading decisions.

Focus on:
- Company-specific news and developments
- Macroeconomic events and policy changes
- Market-moving news and catalysts
- Earnings and financial announcements

Provide clear analysis of news impact and potential market implications.`

// NewsAnalyzer combines company and macroeconomic headlines.
type NewsAnalyzer struct {
	fetcher   DataFetcher
	completer Completer
	log       zerolog.Logger
}

func NewNewsAnalyzer(fetcher DataFetcher, completer Completer, log zerolog.Logger) *NewsAnalyzer {
	return &NewsAnalyzer{
		fetcher:   fetcher,
		completer: completer,
		log:       log.With().Str("agent", "news_analyst").Logger(),
	}
}

func (a *NewsAnalyzer) Kind() models.AnalystKind { return models.NewsAnalyst }

func (a *NewsAnalyzer) Analyze(ctx context.Context, symbol, tradeDate string) (*models.AnalysisReport, error) {
	companyNews, err := a.fetcher.Fetch(ctx, dataflows.ToolFinnhubNews, map[string]string{
		"symbol": symbol,
		"date":   tradeDate,
	})
	if err != nil {
		return nil, &AgentError{Agent: "news_analyst", Err: err}
	}

	macroNews, err := a.fetcher.Fetch(ctx, dataflows.ToolMacroNews, map[string]string{"date": tradeDate})
	if err != nil {
		a.log.Warn().Err(err).Msg("macro news unavailable, proceeding with company news")
		macroNews = ""
	}

	combined := fmt.Sprintf("COMPANY NEWS:\n%s\n\nMACROECONOMIC NEWS:\n%s", companyNews, macroNews)
	user := fmt.Sprintf("Analyze the following news data for %s as of %s and provide comprehensive news analysis:\n\n%s",
		symbol, tradeDate, combined)

	summary, err := a.completer.Complete(ctx, newsSystemPrompt, user)
	if err != nil {
		return nil, &AgentError{Agent: "news_analyst", Err: err}
	}

	report := models.NewAnalysisReport(models.NewsAnalyst, symbol, tradeDate)
	report.Summary = summary
	report.DataSources = []string{"Finnhub News", "Google News"}

	a.extractFindings(report, companyNews, macroNews)
	a.extractRecommendations(report, summary)
	a.identifyRisks(report, summary, companyNews)
	report.SetConfidence(a.confidence(companyNews, macroNews))

	return report, nil
}

func (a *NewsAnalyzer) extractFindings(r *models.AnalysisReport, companyNews, macroNews string) {
	if containsAny(companyNews, "earnings", "revenue", "profit") {
		r.AddFinding("Recent earnings or financial announcements")
	}
	if containsAny(companyNews, "acquisition", "merger", "deal") {
		r.AddFinding("M&A activity or strategic deals")
	}
	if containsAny(companyNews, "partnership", "contract", "agreement") {
		r.AddFinding("New partnerships or contracts announced")
	}

	positive := countOccurrences(companyNews, "positive", "beat", "strong")
	negative := countOccurrences(companyNews, "negative", "miss", "weak")
	if positive > negative {
		r.AddFinding("Generally positive news sentiment")
	} else if negative > positive {
		r.AddFinding("Generally negative news sentiment")
	}

	if containsAny(macroNews, "fed", "interest rate", "monetary policy") {
		r.AddFinding("Federal Reserve or monetary policy news")
	}
	if containsAny(macroNews, "inflation", "cpi", "ppi") {
		r.AddFinding("Inflation-related economic data")
	}
}

func (a *NewsAnalyzer) extractRecommendations(r *models.AnalysisReport, summary string) {
	if containsAny(summary, "positive", "bullish", "strong") {
		r.AddRecommendation("News supports positive outlook")
	}
	if containsAny(summary, "negative", "bearish", "weak") {
		r.AddRecommendation("News suggests caution")
	}
	if containsAny(summary, "earnings") {
		r.AddRecommendation("Monitor upcoming earnings announcements")
	}
	if containsAny(summary, "fed", "interest", "policy") {
		r.AddRecommendation("Consider macroeconomic policy impacts")
	}
}

func (a *NewsAnalyzer) identifyRisks(r *models.AnalysisReport, summary, companyNews string) {
	if containsAny(companyNews, "lawsuit", "investigation", "regulatory") {
		r.AddRisk("Legal or regulatory risks identified")
	}
	if containsAny(companyNews, "competition", "competitor", "market share") {
		r.AddRisk("Competitive pressure risks")
	}
	if containsAny(summary, "uncertainty") {
		r.AddRisk("Market uncertainty from news events")
	}
}

func (a *NewsAnalyzer) confidence(companyNews, macroNews string) float64 {
	c := 0.4
	if companyNews != "" {
		c += 0.3
	}
	if macroNews != "" {
		c += 0.2
	}
	if len(companyNews)+len(macroNews) > 1000 {
		c += 0.1
	}
	return c
}
