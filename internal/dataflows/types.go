package dataflows

import (
	"time"

	"github.com/shopspring/decimal"
)

var decimalHundred = decimal.NewFromInt(100)

// MarketData represents a single bar of stock price data.
type MarketData struct {
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	AdjClose  decimal.Decimal `json:"adj_close"`
	Volume    int64           `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewsArticle represents a news article from any source.
type NewsArticle struct {
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	URL         string            `json:"url"`
	Source      string            `json:"source"`
	PublishedAt time.Time         `json:"published_at"`
	Keywords    []string          `json:"keywords,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SentimentSummary aggregates social sentiment for a symbol.
type SentimentSummary struct {
	Symbol        string  `json:"symbol"`
	ArticlesTotal int     `json:"articles_total"`
	Bullish       float64 `json:"bullish"`
	Bearish       float64 `json:"bearish"`
	CompanyScore  float64 `json:"company_score"`
	SectorScore   float64 `json:"sector_score"`
}

// CompanyProfile holds basic company information from the quote feed.
type CompanyProfile struct {
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	Exchange    string          `json:"exchange"`
	Currency    string          `json:"currency"`
	QuoteType   string          `json:"quote_type"`
	MarketState string          `json:"market_state"`
	Price       decimal.Decimal `json:"price"`
	Tradeable   bool            `json:"tradeable"`
	FetchedAt   time.Time       `json:"fetched_at"`
}
