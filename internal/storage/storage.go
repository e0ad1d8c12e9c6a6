// Package storage defines the decision log contract the workflow persists
// through. Implementations live in subpackages.
package storage

import (
	"context"
	"time"
)

// DecisionRecord is one appended pipeline outcome.
type DecisionRecord struct {
	SessionID  string    `json:"session_id"`
	Symbol     string    `json:"symbol"`
	TradeDate  string    `json:"trade_date"`
	Action     string    `json:"action"`
	Confidence float64   `json:"confidence"`
	Plan       string    `json:"plan"`
	CreatedAt  time.Time `json:"created_at"`
}

// DecisionLog is an append-only log of trading decisions.
type DecisionLog interface {
	Append(ctx context.Context, record DecisionRecord) error
}
