package dataflows

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// MacroNewsClient scrapes Google News for macro and company headlines.
type MacroNewsClient struct {
	client *resty.Client
}

// NewMacroNewsClient creates a new macro news scraper.
func NewMacroNewsClient() *MacroNewsClient {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; Agora/1.0)")

	return &MacroNewsClient{client: client}
}

// NewsSearchParams configure a Google News search.
type NewsSearchParams struct {
	Query      string
	Language   string
	Country    string
	StartDate  time.Time
	EndDate    time.Time
	MaxResults int
}

// Search scrapes Google News for articles matching the params.
func (mc *MacroNewsClient) Search(ctx context.Context, params NewsSearchParams) ([]*NewsArticle, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if params.Language == "" {
		params.Language = "en"
	}
	if params.Country == "" {
		params.Country = "US"
	}
	if params.MaxResults <= 0 {
		params.MaxResults = 20
	}

	resp, err := mc.client.R().SetContext(ctx).Get(mc.buildURL(params))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("HTTP error %d when fetching news", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	articles := mc.parseHTML(doc, params.Query)
	if len(articles) > params.MaxResults {
		articles = articles[:params.MaxResults]
	}

	return articles, nil
}

func (mc *MacroNewsClient) buildURL(params NewsSearchParams) string {
	query := url.QueryEscape(params.Query)
	if !params.StartDate.IsZero() && !params.EndDate.IsZero() {
		dateQuery := fmt.Sprintf(" after:%s before:%s",
			params.StartDate.Format("2006-01-02"),
			params.EndDate.Format("2006-01-02"))
		query += url.QueryEscape(dateQuery)
	}

	return fmt.Sprintf("https://news.google.com/search?q=%s&hl=%s&gl=%s&ceid=%s:%s",
		query, params.Language, params.Country, params.Country, params.Language)
}

func (mc *MacroNewsClient) parseHTML(doc *goquery.Document, query string) []*NewsArticle {
	var articles []*NewsArticle

	doc.Find("article").Each(func(i int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h3").Text())
		if title == "" {
			title = strings.TrimSpace(s.Find("h4").Text())
		}
		if title == "" {
			return
		}

		href, exists := s.Find("a").First().Attr("href")
		if !exists {
			return
		}

		source := strings.TrimSpace(s.Find("div[data-n-tid]").Text())
		if source == "" {
			source = "Google News"
		}

		timeText := strings.TrimSpace(s.Find("time").Text())

		articles = append(articles, &NewsArticle{
			Title:       title,
			Content:     strings.TrimSpace(s.Find("span").Last().Text()),
			URL:         cleanNewsURL(href),
			Source:      source,
			PublishedAt: parseRelativeTime(timeText, time.Now()),
			Keywords:    []string{query},
			Metadata: map[string]string{
				"scraper":   "google_news",
				"time_text": timeText,
			},
		})
	})

	return articles
}

// cleanNewsURL removes the Google News redirect wrapper.
func cleanNewsURL(raw string) string {
	if strings.Contains(raw, "url=") {
		parts := strings.Split(raw, "url=")
		if len(parts) > 1 {
			if decoded, err := url.QueryUnescape(parts[1]); err == nil {
				return decoded
			}
		}
	}
	if strings.HasPrefix(raw, "./") {
		return "https://news.google.com" + raw[1:]
	}
	if strings.HasPrefix(raw, "/") {
		return "https://news.google.com" + raw
	}
	return raw
}

// parseRelativeTime converts relative time strings like "2 hours ago"
// to an absolute time. Unparseable strings resolve to now.
func parseRelativeTime(timeText string, now time.Time) time.Time {
	timeText = strings.ToLower(strings.TrimSpace(timeText))
	if timeText == "" || timeText == "yesterday" {
		if timeText == "yesterday" {
			return now.AddDate(0, 0, -1)
		}
		return now
	}

	fields := strings.Fields(timeText)
	if len(fields) < 2 {
		return now
	}

	var n int
	if _, err := fmt.Sscanf(fields[0], "%d", &n); err != nil {
		return now
	}

	unit := fields[1]
	switch {
	case strings.HasPrefix(unit, "minute"):
		return now.Add(-time.Duration(n) * time.Minute)
	case strings.HasPrefix(unit, "hour"):
		return now.Add(-time.Duration(n) * time.Hour)
	case strings.HasPrefix(unit, "day"):
		return now.AddDate(0, 0, -n)
	case strings.HasPrefix(unit, "week"):
		return now.AddDate(0, 0, -7*n)
	case strings.HasPrefix(unit, "month"):
		return now.AddDate(0, -n, 0)
	}

	return now
}
