// Package debate runs bounded multi-agent debates: a fixed roster of sides
// argues in rotation for a configured number of rounds, then a judge rules
// on the transcript.
package debate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/models"
)

// Side produces one argument given the shared state and the debate so far.
type Side interface {
	Name() string
	Argue(ctx context.Context, state *models.TradingState, ds *models.DebateState) (string, error)
}

// Judge rules on a completed debate transcript.
type Judge interface {
	Rule(ctx context.Context, state *models.TradingState, ds *models.DebateState) (string, error)
}

// DebateError wraps a failure inside the debate stage.
type DebateError struct {
	Side string
	Err  error
}

func (e *DebateError) Error() string {
	if e.Side != "" {
		return fmt.Sprintf("debate side %s: %v", e.Side, e.Err)
	}
	return fmt.Sprintf("debate: %v", e.Err)
}

func (e *DebateError) Unwrap() error { return e.Err }

// Controller drives a debate to its configured round limit and then asks
// the judge for a ruling. The zero value is not usable; use NewController.
type Controller struct {
	sides     []Side
	judge     Judge
	maxRounds int
	log       zerolog.Logger
}

// NewController builds a controller. The side order fixes the speaking
// rotation; one round is one complete pass through it.
func NewController(log zerolog.Logger, judge Judge, maxRounds int, sides ...Side) *Controller {
	return &Controller{
		sides:     sides,
		judge:     judge,
		maxRounds: maxRounds,
		log:       log.With().Str("component", "debate").Logger(),
	}
}

// ShouldContinue reports whether another rotation fits under the limit.
func (c *Controller) ShouldContinue(ds *models.DebateState) bool {
	return ds.RoundCount < c.maxRounds
}

// RunRotation runs one full pass through the side order, appending each
// argument to the debate state and incrementing the round count once at
// the end. A side failure contributes a placeholder argument rather than
// aborting the rotation.
func (c *Controller) RunRotation(ctx context.Context, state *models.TradingState, ds *models.DebateState) error {
	for _, side := range c.sides {
		if err := ctx.Err(); err != nil {
			return &DebateError{Side: side.Name(), Err: err}
		}

		text, err := side.Argue(ctx, state, ds)
		if err != nil {
			c.log.Warn().Err(err).
				Str("side", side.Name()).
				Int("round", ds.RoundCount+1).
				Msg("side failed, recording placeholder")
			text = fmt.Sprintf("(%s unavailable this round: %v)", side.Name(), err)
		}
		ds.Append(side.Name(), text)
	}
	ds.RoundCount++
	return nil
}

// Conclude asks the judge for a ruling on the transcript so far and stores
// it on the debate state. A judge failure is recovered with a neutral
// ruling, like a side failure; only a dead context propagates.
func (c *Controller) Conclude(ctx context.Context, state *models.TradingState, ds *models.DebateState) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &DebateError{Err: err}
	}

	ruling, err := c.judge.Rule(ctx, state, ds)
	if err != nil {
		if ctx.Err() != nil {
			return "", &DebateError{Err: err}
		}
		c.log.Warn().Err(err).Msg("judge failed, recording neutral ruling")
		ruling = fmt.Sprintf("(judge unavailable: %v) No ruling could be produced; defaulting to a HOLD posture.", err)
	}
	ds.JudgeRuling = ruling
	return ruling, nil
}

// RunDebate runs all remaining rotations and then concludes. With a round
// limit of zero the judge rules immediately on an empty transcript.
func (c *Controller) RunDebate(ctx context.Context, state *models.TradingState, ds *models.DebateState) (string, error) {
	for c.ShouldContinue(ds) {
		if err := c.RunRotation(ctx, state, ds); err != nil {
			return "", err
		}
	}
	return c.Conclude(ctx, state, ds)
}
