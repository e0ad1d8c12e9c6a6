package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient handles Finnhub API operations.
type FinnhubClient struct {
	client *resty.Client
	apiKey string
}

// NewFinnhubClient creates a new Finnhub client.
func NewFinnhubClient(apiKey string) *FinnhubClient {
	client := resty.New()
	client.SetBaseURL(finnhubBaseURL)
	client.SetTimeout(30 * time.Second)

	return &FinnhubClient{
		client: client,
		apiKey: apiKey,
	}
}

// finnhubNews mirrors a single item of the /company-news response.
type finnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// finnhubSentiment mirrors the /news-sentiment response.
type finnhubSentiment struct {
	Buzz struct {
		ArticlesInLastWeek int     `json:"articlesInLastWeek"`
		Buzz               float64 `json:"buzz"`
	} `json:"buzz"`
	CompanyNewsScore            float64 `json:"companyNewsScore"`
	SectorAverageNewsScore      float64 `json:"sectorAverageNewsScore"`
	SectorAverageBullishPercent float64 `json:"sectorAverageBullishPercent"`
	Sentiment                   struct {
		BearishPercent float64 `json:"bearishPercent"`
		BullishPercent float64 `json:"bullishPercent"`
	} `json:"sentiment"`
	Symbol string `json:"symbol"`
}

// GetCompanyNews gets news articles for a specific company.
func (fc *FinnhubClient) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]*NewsArticle, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	resp, err := fc.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"from":   from.Format("2006-01-02"),
			"to":     to.Format("2006-01-02"),
			"token":  fc.apiKey,
		}).
		Get("/company-news")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
	}

	var items []finnhubNews
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}

	result := make([]*NewsArticle, 0, len(items))
	for _, news := range items {
		result = append(result, &NewsArticle{
			Title:       news.Headline,
			Content:     news.Summary,
			URL:         news.URL,
			Source:      news.Source,
			PublishedAt: time.Unix(news.DateTime, 0),
			Keywords:    []string{symbol},
			Metadata: map[string]string{
				"category": news.Category,
				"related":  news.Related,
				"id":       strconv.FormatInt(news.ID, 10),
			},
		})
	}

	return result, nil
}

// GetNewsSentiment gets aggregate news sentiment for a company.
func (fc *FinnhubClient) GetNewsSentiment(ctx context.Context, symbol string) (*SentimentSummary, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	resp, err := fc.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  fc.apiKey,
		}).
		Get("/news-sentiment")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sentiment for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
	}

	var raw finnhubSentiment
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse sentiment response: %w", err)
	}

	return &SentimentSummary{
		Symbol:        symbol,
		ArticlesTotal: raw.Buzz.ArticlesInLastWeek,
		Bullish:       raw.Sentiment.BullishPercent,
		Bearish:       raw.Sentiment.BearishPercent,
		CompanyScore:  raw.CompanyNewsScore,
		SectorScore:   raw.SectorAverageNewsScore,
	}, nil
}
