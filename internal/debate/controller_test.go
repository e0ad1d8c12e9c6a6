package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agora-quant/agora/internal/models"
)

type scriptedSide struct {
	name  string
	err   error
	calls int
}

func (s *scriptedSide) Name() string { return s.name }

func (s *scriptedSide) Argue(ctx context.Context, state *models.TradingState, ds *models.DebateState) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("%s argument %d", s.name, s.calls), nil
}

type scriptedJudge struct {
	ruling string
	err    error
	calls  int
}

func (j *scriptedJudge) Rule(ctx context.Context, state *models.TradingState, ds *models.DebateState) (string, error) {
	j.calls++
	if j.err != nil {
		return "", j.err
	}
	return j.ruling, nil
}

func newTestState() *models.TradingState {
	return models.NewTradingState("session-1", "AAPL", "2024-03-15")
}

func TestRunDebateFullRotations(t *testing.T) {
	bull := &scriptedSide{name: models.SideBull}
	bear := &scriptedSide{name: models.SideBear}
	judge := &scriptedJudge{ruling: "BUY with conviction"}

	c := NewController(zerolog.Nop(), judge, 2, bull, bear)
	state := newTestState()
	ds := state.InvestmentDebate

	ruling, err := c.RunDebate(context.Background(), state, ds)
	if err != nil {
		t.Fatalf("RunDebate: %v", err)
	}

	if ruling != "BUY with conviction" {
		t.Errorf("ruling = %q", ruling)
	}
	if ds.JudgeRuling != ruling {
		t.Error("ruling not stored on debate state")
	}
	if ds.RoundCount != 2 {
		t.Errorf("round count = %d, want 2", ds.RoundCount)
	}
	// 2 rounds of 2 sides = 4 utterances.
	if len(ds.Transcript) != 4 {
		t.Fatalf("transcript length = %d, want 4", len(ds.Transcript))
	}
	if bull.calls != 2 || bear.calls != 2 {
		t.Errorf("side calls = %d/%d, want 2/2", bull.calls, bear.calls)
	}
	if judge.calls != 1 {
		t.Errorf("judge called %d times, want exactly 1", judge.calls)
	}

	// Rotation order is preserved within each round.
	wantOrder := []string{models.SideBull, models.SideBear, models.SideBull, models.SideBear}
	for i, u := range ds.Transcript {
		if u.Side != wantOrder[i] {
			t.Errorf("utterance %d from %s, want %s", i, u.Side, wantOrder[i])
		}
	}
}

func TestRunDebateZeroRoundsGoesStraightToJudge(t *testing.T) {
	bull := &scriptedSide{name: models.SideBull}
	bear := &scriptedSide{name: models.SideBear}
	judge := &scriptedJudge{ruling: "HOLD pending data"}

	c := NewController(zerolog.Nop(), judge, 0, bull, bear)
	state := newTestState()
	ds := state.InvestmentDebate

	ruling, err := c.RunDebate(context.Background(), state, ds)
	if err != nil {
		t.Fatalf("RunDebate: %v", err)
	}

	if bull.calls != 0 || bear.calls != 0 {
		t.Error("sides should not be invoked with zero rounds")
	}
	if judge.calls != 1 {
		t.Errorf("judge called %d times, want 1", judge.calls)
	}
	if len(ds.Transcript) != 0 {
		t.Errorf("transcript should be empty, got %d entries", len(ds.Transcript))
	}
	if ruling == "" {
		t.Error("judge should still rule on an empty transcript")
	}
}

func TestRunRotationSideFailureRecordsPlaceholder(t *testing.T) {
	bull := &scriptedSide{name: models.SideBull}
	bear := &scriptedSide{name: models.SideBear, err: errors.New("model unavailable")}
	judge := &scriptedJudge{ruling: "HOLD"}

	c := NewController(zerolog.Nop(), judge, 1, bull, bear)
	state := newTestState()
	ds := state.InvestmentDebate

	if _, err := c.RunDebate(context.Background(), state, ds); err != nil {
		t.Fatalf("side failure should not fail the debate: %v", err)
	}

	if len(ds.Transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(ds.Transcript))
	}
	placeholder := ds.Transcript[1]
	if placeholder.Side != models.SideBear {
		t.Errorf("placeholder attributed to %s", placeholder.Side)
	}
	if !strings.Contains(placeholder.Text, "unavailable") {
		t.Errorf("placeholder text = %q", placeholder.Text)
	}
}

func TestConcludeJudgeFailureRecordsNeutralRuling(t *testing.T) {
	judge := &scriptedJudge{err: errors.New("judge offline")}
	c := NewController(zerolog.Nop(), judge, 0, &scriptedSide{name: models.SideBull})
	state := newTestState()
	ds := state.InvestmentDebate

	ruling, err := c.RunDebate(context.Background(), state, ds)
	if err != nil {
		t.Fatalf("judge failure should not fail the debate: %v", err)
	}

	if !strings.Contains(ruling, "judge unavailable") {
		t.Errorf("ruling = %q, want neutral placeholder", ruling)
	}
	if !strings.Contains(ruling, "HOLD") {
		t.Errorf("ruling = %q, want a HOLD posture the signal scorer can read", ruling)
	}
	if ds.JudgeRuling != ruling {
		t.Error("neutral ruling not stored on debate state")
	}
}

func TestConcludeHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	judge := &scriptedJudge{ruling: "BUY"}
	c := NewController(zerolog.Nop(), judge, 0, &scriptedSide{name: models.SideBull})
	state := newTestState()

	_, err := c.Conclude(ctx, state, state.InvestmentDebate)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}
	if judge.calls != 0 {
		t.Error("judge should not rule after cancellation")
	}
}

func TestRunRotationHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bull := &scriptedSide{name: models.SideBull}
	c := NewController(zerolog.Nop(), &scriptedJudge{ruling: "HOLD"}, 1, bull)
	state := newTestState()

	err := c.RunRotation(ctx, state, state.InvestmentDebate)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}
	if bull.calls != 0 {
		t.Error("side should not argue after cancellation")
	}
}
