package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/agora-quant/agora/internal/models"
)

// Analyzer produces an analysis report for one symbol on one trade date.
type Analyzer interface {
	Kind() models.AnalystKind
	Analyze(ctx context.Context, symbol, tradeDate string) (*models.AnalysisReport, error)
}

// AgentError wraps a failure inside a specific agent.
type AgentError struct {
	Agent string
	Err   error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %s: %v", e.Agent, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// Completer generates a completion from a system and user prompt.
// Satisfied by llm.Client.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// DataFetcher retrieves a named tool payload. Satisfied by tools.Gateway.
type DataFetcher interface {
	Fetch(ctx context.Context, tool string, params map[string]string) (string, error)
}

// containsAny reports whether text contains any of the given words.
// Comparison is case-insensitive.
func containsAny(text string, words ...string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// countOccurrences counts case-insensitive occurrences of each word.
func countOccurrences(text string, words ...string) int {
	lower := strings.ToLower(text)
	total := 0
	for _, w := range words {
		total += strings.Count(lower, w)
	}
	return total
}
