package extract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"hrflow/internal/wizard"
)

type fakeLLM struct {
	resp  string
	err   error
	calls int
}

func (f *fakeLLM) Name() string { return "fake" }
func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.resp), nil
}

const sampleResponse = `{
  "title": "CBA 2026",
  "articles": [
    {"number": 12, "title": "Vacations", "body": "...",
     "clauses": [
       {"number": 1, "text": "12 days per year",
        "rules": [{"type": "vacation_days", "config": {"days": 12}}]},
       {"number": 2, "text": "Carryover allowed", "rules": []}
     ]},
    {"number": 13, "title": "Overtime", "body": "...", "clauses": []}
  ]
}`

func TestProposeBuildsProposal(t *testing.T) {
	llm := &fakeLLM{resp: sampleResponse}
	ex, err := New(llm, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p, err := ex.Propose(context.Background(), "doc text")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(p.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(p.Items))
	}
	if p.Items[0].Key != "article:12" || p.Items[1].Key != "article:13" {
		t.Fatalf("unexpected keys %q %q", p.Items[0].Key, p.Items[1].Key)
	}
	if got := p.Summary.New; got != 2 {
		t.Fatalf("summary.New = %d, want 2", got)
	}
	if got := p.Summary.Extras["clauses"]; got != 2 {
		t.Fatalf("extras[clauses] = %d, want 2", got)
	}
	if got := p.Summary.Extras["rules"]; got != 1 {
		t.Fatalf("extras[rules] = %d, want 1", got)
	}
	for _, it := range p.Items {
		if it.Tag != wizard.TagNew {
			t.Fatalf("item %s tag = %s, want new", it.Key, it.Tag)
		}
	}
}

func TestProposeCachesByInput(t *testing.T) {
	llm := &fakeLLM{resp: sampleResponse}
	ex, _ := New(llm, nil)

	first, err := ex.Propose(context.Background(), "same text")
	if err != nil {
		t.Fatalf("first Propose: %v", err)
	}
	second, err := ex.Propose(context.Background(), "same text")
	if err != nil {
		t.Fatalf("second Propose: %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("llm calls = %d, want 1", llm.calls)
	}
	if first != second {
		t.Fatal("expected cached proposal to be reused")
	}

	if _, err := ex.Propose(context.Background(), "other text"); err != nil {
		t.Fatalf("third Propose: %v", err)
	}
	if llm.calls != 2 {
		t.Fatalf("llm calls after new input = %d, want 2", llm.calls)
	}
}

func TestProposeFencedResponse(t *testing.T) {
	llm := &fakeLLM{resp: "```json\n" + sampleResponse + "\n```"}
	ex, _ := New(llm, nil)
	p, err := ex.Propose(context.Background(), "doc")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(p.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(p.Items))
	}
}

func TestProposeModelFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("quota exceeded")}
	ex, _ := New(llm, nil)
	if _, err := ex.Propose(context.Background(), "doc"); err == nil {
		t.Fatal("expected error from failing model")
	}
	// A failed call must not poison the cache.
	llm.err = nil
	llm.resp = sampleResponse
	if _, err := ex.Propose(context.Background(), "doc"); err != nil {
		t.Fatalf("Propose after recovery: %v", err)
	}
}
