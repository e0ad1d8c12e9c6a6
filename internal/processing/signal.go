// Package processing extracts an actionable decision from the free-text
// output of the agent pipeline.
package processing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agora-quant/agora/internal/models"
)

// SignalProcessor scores analysis text against directional keyword patterns.
type SignalProcessor struct {
	buyPatterns  []*regexp.Regexp
	sellPatterns []*regexp.Regexp
	holdPatterns []*regexp.Regexp
}

// Signal is the processed outcome of a pipeline run.
type Signal struct {
	Action     models.Decision `json:"action"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
	EntryPrice float64         `json:"entry_price"`
	StopLoss   float64         `json:"stop_loss"`
	TakeProfit float64         `json:"take_profit"`
}

// NewSignalProcessor creates a processor with the standard pattern set.
func NewSignalProcessor() *SignalProcessor {
	return &SignalProcessor{
		buyPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(buy|purchase|long|bullish|upward|invest)\b`),
			regexp.MustCompile(`(?i)\b(strong buy|recommended buy|buy recommendation)\b`),
			regexp.MustCompile(`(?i)\b(undervalued|oversold|growth potential|opportunity)\b`),
		},
		sellPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(sell|short|bearish|downward|divest)\b`),
			regexp.MustCompile(`(?i)\b(strong sell|sell recommendation|avoid)\b`),
			regexp.MustCompile(`(?i)\b(overvalued|overbought|decline)\b`),
		},
		holdPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(hold|maintain|neutral|wait|sideways)\b`),
			regexp.MustCompile(`(?i)\b(no action|stay put|keep position)\b`),
		},
	}
}

// Process scores the terminal state's text and produces the final signal.
// The judge's ruling is weighted by inclusion alongside the plans; the
// resulting confidence blends keyword density with the mean analyst
// report confidence.
func (sp *SignalProcessor) Process(state *models.TradingState) *Signal {
	combined := strings.Join([]string{
		state.InvestmentPlan,
		state.TraderPlan,
		state.RiskDebate.JudgeRuling,
	}, " ")

	action := sp.extractAction(combined)
	textConfidence := sp.textConfidence(combined, action)
	reportConfidence := meanReportConfidence(state)

	return &Signal{
		Action:     action,
		Confidence: blend(textConfidence, reportConfidence),
		Reasoning:  sp.extractReasoning(combined, action),
		EntryPrice: extractPrice(combined, "entry"),
		StopLoss:   extractPrice(combined, "stop"),
		TakeProfit: extractPrice(combined, "target"),
	}
}

func (sp *SignalProcessor) extractAction(text string) models.Decision {
	text = strings.ToLower(text)

	buyScore := countMatches(sp.buyPatterns, text)
	sellScore := countMatches(sp.sellPatterns, text)
	holdScore := countMatches(sp.holdPatterns, text)

	if buyScore > sellScore && buyScore > holdScore {
		return models.DecisionBuy
	}
	if sellScore > buyScore && sellScore > holdScore {
		return models.DecisionSell
	}
	return models.DecisionHold
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, p := range patterns {
		n += len(p.FindAllString(text, -1))
	}
	return n
}

func (sp *SignalProcessor) textConfidence(text string, action models.Decision) float64 {
	totalWords := len(strings.Fields(text))
	if totalWords == 0 {
		return 0.5
	}

	var relevant []*regexp.Regexp
	switch action {
	case models.DecisionBuy:
		relevant = sp.buyPatterns
	case models.DecisionSell:
		relevant = sp.sellPatterns
	default:
		relevant = sp.holdPatterns
	}

	confidence := float64(countMatches(relevant, strings.ToLower(text))) / float64(totalWords) * 10
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.1 {
		confidence = 0.1
	}
	return confidence
}

func meanReportConfidence(state *models.TradingState) float64 {
	total, n := 0.0, 0
	for _, kind := range models.AllAnalystKinds() {
		if r := state.Report(kind); r != nil {
			total += r.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func blend(textConf, reportConf float64) float64 {
	c := 0.6*textConf + 0.4*reportConf
	if c > 1.0 {
		c = 1.0
	}
	if c < 0 {
		c = 0
	}
	return c
}

var actionWords = map[models.Decision][]string{
	models.DecisionBuy:  {"buy", "bullish", "positive", "growth", "opportunity", "undervalued"},
	models.DecisionSell: {"sell", "bearish", "negative", "risk", "decline", "overvalued"},
	models.DecisionHold: {"hold", "neutral", "wait", "maintain", "uncertain"},
}

func (sp *SignalProcessor) extractReasoning(text string, action models.Decision) string {
	sentences := strings.Split(text, ".")
	words := actionWords[action]

	var relevant []string
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 10 {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, word := range words {
			if strings.Contains(lower, word) {
				relevant = append(relevant, sentence)
				break
			}
		}
		if len(relevant) >= 3 {
			break
		}
	}

	if len(relevant) == 0 {
		return "Decision based on comprehensive analysis of market conditions."
	}
	return strings.Join(relevant, ". ")
}

var pricePatterns = map[string]*regexp.Regexp{
	"entry":  regexp.MustCompile(`(?i)entry[^$]*\$?(\d+\.?\d*)`),
	"stop":   regexp.MustCompile(`(?i)stop[^$]*\$?(\d+\.?\d*)`),
	"target": regexp.MustCompile(`(?i)target[^$]*\$?(\d+\.?\d*)`),
}

func extractPrice(text, priceType string) float64 {
	pattern := pricePatterns[priceType]
	if pattern == nil {
		return 0
	}
	matches := pattern.FindStringSubmatch(text)
	if len(matches) > 1 {
		if price, err := strconv.ParseFloat(matches[1], 64); err == nil {
			return price
		}
	}
	return 0
}
