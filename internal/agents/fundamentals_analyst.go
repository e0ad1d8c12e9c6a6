package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/dataflows"
	"github.com/agora-quant/agora/internal/models"
)

const fundamentalsSystemPrompt = `You are a professional fundamental analyst specializing in company financial analysis.
Your role is to analyze company fundamentals, financial health, valuation metrics, and business prospects
to provide insights for investment decisions.

Focus on:
- Financial statement analysis
- Valuation metrics and ratios
- Business model and competitive position
- Growth prospects and profitability

Provide clear analysis of fundamental strengths and weaknesses.`

// FundamentalsAnalyzer reviews company profile and financial position.
type FundamentalsAnalyzer struct {
	fetcher   DataFetcher
	completer Completer
	log       zerolog.Logger
}

func NewFundamentalsAnalyzer(fetcher DataFetcher, completer Completer, log zerolog.Logger) *FundamentalsAnalyzer {
	return &FundamentalsAnalyzer{
		fetcher:   fetcher,
		completer: completer,
		log:       log.With().Str("agent", "fundamentals_analyst").Logger(),
	}
}

func (a *FundamentalsAnalyzer) Kind() models.AnalystKind { return models.FundamentalsAnalyst }

func (a *FundamentalsAnalyzer) Analyze(ctx context.Context, symbol, tradeDate string) (*models.AnalysisReport, error) {
	data, err := a.fetcher.Fetch(ctx, dataflows.ToolFundamentals, map[string]string{"symbol": symbol})
	if err != nil {
		return nil, &AgentError{Agent: "fundamentals_analyst", Err: err}
	}

	user := fmt.Sprintf("Analyze the following fundamental data for %s as of %s and provide comprehensive fundamental analysis:\n\n%s",
		symbol, tradeDate, data)

	summary, err := a.completer.Complete(ctx, fundamentalsSystemPrompt, user)
	if err != nil {
		return nil, &AgentError{Agent: "fundamentals_analyst", Err: err}
	}

	report := models.NewAnalysisReport(models.FundamentalsAnalyst, symbol, tradeDate)
	report.Summary = summary
	report.DataSources = []string{"Yahoo Finance Profile"}

	if containsAny(data, "exchange") {
		report.AddFinding("Exchange listing and market data available")
	}
	if containsAny(data, "price") {
		report.AddFinding("Current valuation reference available")
	}
	if containsAny(summary, "growth", "expansion") {
		report.AddFinding("Growth and market position analysis")
	}
	if containsAny(summary, "valuation", "pe ratio", "price-to") {
		report.AddFinding("Valuation metrics discussed")
	}

	if containsAny(summary, "strong", "solid", "healthy") {
		report.AddRecommendation("Strong fundamental position")
	}
	if containsAny(summary, "weak", "poor", "concerning") {
		report.AddRecommendation("Fundamental concerns identified")
	}
	if containsAny(summary, "undervalued") {
		report.AddRecommendation("Potential undervaluation opportunity")
	}

	if containsAny(summary, "debt", "leverage") {
		report.AddRisk("Financial leverage or debt concerns")
	}
	if containsAny(summary, "competition", "competitive") {
		report.AddRisk("Competitive position risks")
	}
	if containsAny(summary, "overvalued") {
		report.AddRisk("Valuation concerns")
	}

	c := 0.5
	if len(data) > 100 {
		c += 0.2
	}
	if containsAny(data, "tradeable: true") {
		c += 0.2
	}
	if c > 0.9 {
		c = 0.9
	}
	report.SetConfidence(c)

	return report, nil
}
