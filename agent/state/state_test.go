package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseIntent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   Intent
		wantOK bool
	}{
		{in: "FAQ", want: IntentFAQ, wantOK: true},
		{in: "  DataLookup\n", want: IntentDataLookup, wantOK: true},
		{in: "Escalation", want: IntentEscalation, wantOK: true},
		{in: "faq", want: IntentUnset, wantOK: false},
		{in: "Billing", want: IntentUnset, wantOK: false},
		{in: "", want: IntentUnset, wantOK: false},
	}
	for _, tc := range cases {
		got, ok := ParseIntent(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("ParseIntent(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestNewQueryStateTrimsAccount(t *testing.T) {
	t.Parallel()

	st := NewQueryState("hello", "  A001 ")
	if st.AccountContext != "A001" {
		t.Fatalf("AccountContext = %q, want A001", st.AccountContext)
	}
	if st.CurrentQuery != st.RawQuery {
		t.Fatal("CurrentQuery must start equal to RawQuery")
	}
	if st.Intent != IntentUnset {
		t.Fatalf("Intent = %q, want unset", st.Intent)
	}

	blank := NewQueryState("hello", "   ")
	if blank.HasAccount() {
		t.Fatal("whitespace account context must be treated as absent")
	}
}

func TestQueryStateEvidence(t *testing.T) {
	t.Parallel()

	st := NewQueryState("q", "")
	st.AddEvidence(EvidenceDoc, "pricing.md")
	st.AddEvidence(EvidenceTool, "account_lookup:account_id")
	st.AddError("Router error: %s", "boom")

	if st.Evidence[0] != "doc:pricing.md" || st.Evidence[1] != "tool:account_lookup:account_id" {
		t.Fatalf("unexpected evidence: %#v", st.Evidence)
	}
	if !st.HasEvidence(EvidenceTool) || st.HasEvidence(EvidenceEscalated) {
		t.Fatalf("HasEvidence mismatch for %#v", st.Evidence)
	}
	if st.Errors[0] != "Router error: boom" {
		t.Fatalf("unexpected errors: %#v", st.Errors)
	}
}

func TestMemoryStoreAppendHistoryDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore(2)

	for i := 0; i < 3; i++ {
		turn := sampleTurn("s1")
		turn.Answer = string(rune('a' + i))
		if err := store.Append(ctx, turn); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	turns, err := store.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(turns) != 2 || turns[0].Answer != "b" || turns[1].Answer != "c" {
		t.Fatalf("History() = %#v, want last two turns", turns)
	}

	turns[0].Evidence[0] = "mutated"
	again, _ := store.History(ctx, "s1")
	if again[0].Evidence[0] == "mutated" {
		t.Fatal("History() must return copies")
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.History(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("History() after delete error = %v, want ErrSessionNotFound", err)
	}
}

func TestTurnValidate(t *testing.T) {
	t.Parallel()

	var nilTurn *Turn
	if err := nilTurn.Validate(); !errors.Is(err, ErrNilTurn) {
		t.Fatalf("Validate(nil) = %v, want ErrNilTurn", err)
	}
	turn := sampleTurn("s")
	turn.CreatedAt = time.Time{}
	if err := turn.Validate(); err == nil {
		t.Fatal("expected error for zero created_at")
	}
	turn = sampleTurn("s")
	turn.Query = " "
	if err := turn.Validate(); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestTurnRowRoundTrip(t *testing.T) {
	t.Parallel()

	turn := sampleTurn("s")
	row := toTurnRow(turn)
	if row.Intent != "DataLookup" || row.SessionID != "s" {
		t.Fatalf("unexpected row: %#v", row)
	}
	back := row.toTurn()
	if back.Query != turn.Query || back.Intent != turn.Intent || len(back.Evidence) != 1 {
		t.Fatalf("toTurn() = %#v, want %#v", back, turn)
	}
}
