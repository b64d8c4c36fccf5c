package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/tygerearth-labs/finacial-tracker/internal/sheets"
)

func TestAppendAndEntries(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, sheets.Entry{TransactionID: 1, Event: "upsert", Date: "2026-04-01", Kind: "INCOME", AmountCents: 1000})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	if _, err := s.Append(ctx, sheets.Entry{Event: "upsert"}); err == nil {
		t.Error("expected error for entry without transaction id")
	}

	entries := s.Entries()
	if len(entries) != 1 || entries[0].TransactionID != 1 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestFailWith(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailWith(boom)

	if _, err := s.Append(context.Background(), sheets.Entry{TransactionID: 1}); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}

	s.FailWith(nil)
	if _, err := s.Append(context.Background(), sheets.Entry{TransactionID: 1}); err != nil {
		t.Fatalf("Append after recover: %v", err)
	}
}
