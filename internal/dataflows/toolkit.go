package dataflows

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agora-quant/agora/internal/tools"
)

// Tool names registered by the Toolkit.
const (
	ToolYahooQuote      = "yahoo_quote"
	ToolYahooHistory    = "yahoo_history"
	ToolFinnhubNews     = "finnhub_news"
	ToolSocialSentiment = "social_sentiment"
	ToolFundamentals    = "fundamentals"
	ToolMacroNews       = "macro_news"
)

// Toolkit bundles the vendor clients and registers them as named
// gateway tools returning formatted text payloads.
type Toolkit struct {
	yahoo   *YahooClient
	finnhub *FinnhubClient
	macro   *MacroNewsClient
}

// NewToolkit creates a toolkit with all vendor clients.
func NewToolkit(finnhubAPIKey string) *Toolkit {
	return &Toolkit{
		yahoo:   NewYahooClient(),
		finnhub: NewFinnhubClient(finnhubAPIKey),
		macro:   NewMacroNewsClient(),
	}
}

// RegisterAll registers every tool on the gateway.
func (tk *Toolkit) RegisterAll(gw *tools.Gateway) {
	gw.Register(ToolYahooQuote, tk.fetchQuote)
	gw.Register(ToolYahooHistory, tk.fetchHistory)
	gw.Register(ToolFinnhubNews, tk.fetchNews)
	gw.Register(ToolSocialSentiment, tk.fetchSentiment)
	gw.Register(ToolFundamentals, tk.fetchFundamentals)
	gw.Register(ToolMacroNews, tk.fetchMacroNews)
}

func (tk *Toolkit) fetchQuote(ctx context.Context, params map[string]string) (string, error) {
	symbol := params["symbol"]
	md, err := tk.yahoo.GetQuote(symbol)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Quote for %s\n", md.Symbol)
	fmt.Fprintf(&b, "Open: %s High: %s Low: %s Close: %s\n",
		md.Open.StringFixed(2), md.High.StringFixed(2),
		md.Low.StringFixed(2), md.Close.StringFixed(2))
	fmt.Fprintf(&b, "Volume: %d\n", md.Volume)
	return b.String(), nil
}

func (tk *Toolkit) fetchHistory(ctx context.Context, params map[string]string) (string, error) {
	symbol := params["symbol"]
	end := time.Now()
	if v, ok := params["date"]; ok && v != "" {
		t, err := ParseDateString(v)
		if err != nil {
			return "", err
		}
		end = t
	}

	days := 30
	if v, ok := params["days"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return "", fmt.Errorf("invalid days parameter: %q", v)
		}
		days = n
	}

	bars, err := tk.yahoo.GetHistoricalWindow(symbol, end, days)
	if err != nil {
		return "", err
	}
	if len(bars) == 0 {
		return "", fmt.Errorf("no price history for %s in window", symbol)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Price history for %s (%d bars, %s)\n",
		NormalizeSymbol(symbol), len(bars),
		FormatDateRange(end.AddDate(0, 0, -days), end))
	for _, bar := range bars {
		fmt.Fprintf(&b, "%s open=%s high=%s low=%s close=%s volume=%d\n",
			bar.Date.Format("2006-01-02"),
			bar.Open.StringFixed(2), bar.High.StringFixed(2),
			bar.Low.StringFixed(2), bar.Close.StringFixed(2), bar.Volume)
	}

	first, last := bars[0].Close, bars[len(bars)-1].Close
	if !first.IsZero() {
		change := last.Sub(first).Div(first).Mul(decimalHundred)
		fmt.Fprintf(&b, "Window change: %s%%\n", change.StringFixed(2))
	}
	return b.String(), nil
}

func (tk *Toolkit) fetchNews(ctx context.Context, params map[string]string) (string, error) {
	symbol := params["symbol"]
	to := time.Now()
	if v, ok := params["date"]; ok && v != "" {
		t, err := ParseDateString(v)
		if err != nil {
			return "", err
		}
		to = t
	}
	from := to.AddDate(0, 0, -7)

	articles, err := tk.finnhub.GetCompanyNews(ctx, symbol, from, to)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Company news for %s (%d articles)\n", NormalizeSymbol(symbol), len(articles))
	for i, a := range articles {
		if i >= 15 {
			break
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", a.PublishedAt.Format("2006-01-02"), a.Source, a.Title)
		if a.Content != "" {
			fmt.Fprintf(&b, "  %s\n", a.Content)
		}
	}
	return b.String(), nil
}

func (tk *Toolkit) fetchSentiment(ctx context.Context, params map[string]string) (string, error) {
	symbol := params["symbol"]
	s, err := tk.finnhub.GetNewsSentiment(ctx, symbol)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sentiment for %s\n", s.Symbol)
	fmt.Fprintf(&b, "Articles last week: %d\n", s.ArticlesTotal)
	fmt.Fprintf(&b, "Bullish: %.2f Bearish: %.2f\n", s.Bullish, s.Bearish)
	fmt.Fprintf(&b, "Company news score: %.2f (sector avg %.2f)\n", s.CompanyScore, s.SectorScore)
	return b.String(), nil
}

func (tk *Toolkit) fetchFundamentals(ctx context.Context, params map[string]string) (string, error) {
	symbol := params["symbol"]
	p, err := tk.yahoo.GetCompanyProfile(symbol)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Company profile for %s\n", p.Symbol)
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Exchange: %s Currency: %s Type: %s\n", p.Exchange, p.Currency, p.QuoteType)
	fmt.Fprintf(&b, "Market state: %s Price: %s Tradeable: %t\n",
		p.MarketState, p.Price.StringFixed(2), p.Tradeable)
	return b.String(), nil
}

func (tk *Toolkit) fetchMacroNews(ctx context.Context, params map[string]string) (string, error) {
	query := params["query"]
	if query == "" {
		query = "stock market economy"
	}

	end := time.Now()
	if v, ok := params["date"]; ok && v != "" {
		t, err := ParseDateString(v)
		if err != nil {
			return "", err
		}
		end = t
	}

	articles, err := tk.macro.Search(ctx, NewsSearchParams{
		Query:     query,
		StartDate: end.AddDate(0, 0, -7),
		EndDate:   end,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Macro headlines for %q (%d articles)\n", query, len(articles))
	for _, a := range articles {
		fmt.Fprintf(&b, "[%s] %s: %s\n", a.PublishedAt.Format("2006-01-02"), a.Source, a.Title)
	}
	return b.String(), nil
}
