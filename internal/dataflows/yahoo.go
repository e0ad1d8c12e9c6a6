package dataflows

import (
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// YahooClient fetches quotes and historical bars from Yahoo Finance.
type YahooClient struct{}

// NewYahooClient creates a new Yahoo Finance client.
func NewYahooClient() *YahooClient {
	return &YahooClient{}
}

// GetQuote gets current quote data for a symbol.
func (yc *YahooClient) GetQuote(symbol string) (*MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	if q == nil {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	now := time.Now()
	return &MarketData{
		Symbol:    symbol,
		Date:      now,
		Open:      decimal.NewFromFloat(q.RegularMarketOpen),
		High:      decimal.NewFromFloat(q.RegularMarketDayHigh),
		Low:       decimal.NewFromFloat(q.RegularMarketDayLow),
		Close:     decimal.NewFromFloat(q.RegularMarketPrice),
		AdjClose:  decimal.NewFromFloat(q.RegularMarketPrice),
		Volume:    int64(q.RegularMarketVolume),
		Timestamp: now,
	}, nil
}

// GetHistoricalData gets daily bars for a symbol between start and end.
func (yc *YahooClient) GetHistoricalData(symbol string, start, end time.Time) ([]*MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	result := make([]*MarketData, 0)
	for iter.Next() {
		bar := iter.Bar()
		result = append(result, &MarketData{
			Symbol:    symbol,
			Date:      time.Unix(int64(bar.Timestamp), 0),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			AdjClose:  bar.AdjClose,
			Volume:    int64(bar.Volume),
			Timestamp: time.Now(),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
	}

	return result, nil
}

// GetHistoricalWindow gets daily bars for a rolling window ending at end.
func (yc *YahooClient) GetHistoricalWindow(symbol string, end time.Time, days int) ([]*MarketData, error) {
	start := end.AddDate(0, 0, -days)
	return yc.GetHistoricalData(symbol, start, end)
}

// GetCompanyProfile gets basic company information via the quote feed.
func (yc *YahooClient) GetCompanyProfile(symbol string) (*CompanyProfile, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get company info for %s: %w", symbol, err)
	}
	if q == nil {
		return nil, fmt.Errorf("no company info for %s", symbol)
	}

	return &CompanyProfile{
		Symbol:      symbol,
		Name:        q.ShortName,
		Exchange:    q.FullExchangeName,
		Currency:    q.CurrencyID,
		QuoteType:   string(q.QuoteType),
		MarketState: string(q.MarketState),
		Price:       decimal.NewFromFloat(q.RegularMarketPrice),
		Tradeable:   q.IsTradeable,
		FetchedAt:   time.Now(),
	}, nil
}
