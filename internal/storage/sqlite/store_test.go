package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/agora-quant/agora/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "agora.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndQuery(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := storage.DecisionRecord{
		SessionID:  "sess-1",
		Symbol:     "AAPL",
		TradeDate:  "2024-03-15",
		Action:     "BUY",
		Confidence: 0.72,
		Plan:       "enter on open, stop at 165",
		CreatedAt:  time.Now(),
	}
	if err := store.Append(ctx, record); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.BySymbol(ctx, "AAPL", 10)
	if err != nil {
		t.Fatalf("BySymbol: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Action != "BUY" || got[0].Confidence != 0.72 {
		t.Errorf("record = %+v", got[0])
	}
}

func TestAppendMultipleDecisionsSameSession(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i, action := range []string{"BUY", "HOLD"} {
		err := store.Append(ctx, storage.DecisionRecord{
			SessionID:  "sess-1",
			Symbol:     "MSFT",
			TradeDate:  "2024-03-15",
			Action:     action,
			Confidence: 0.5 + float64(i)/10,
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	got, err := store.BySymbol(ctx, "MSFT", 10)
	if err != nil {
		t.Fatalf("BySymbol: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// Newest first.
	if got[0].Action != "HOLD" {
		t.Errorf("first record = %s, want HOLD", got[0].Action)
	}
}

func TestAppendRejectsMissingFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, storage.DecisionRecord{Symbol: "AAPL", Action: "BUY"}); err == nil {
		t.Error("expected error for missing session id")
	}
	if err := store.Append(ctx, storage.DecisionRecord{SessionID: "s", Symbol: "AAPL"}); err == nil {
		t.Error("expected error for missing action")
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("expected error for empty db path")
	}
}
