package wizard

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testManager(t *testing.T, propose ProposeFunc, writer Writer) *Manager {
	t.Helper()
	return NewManager(ManagerDeps{
		Propose: propose,
		Writers: func(Variant, string) (Writer, error) { return writer, nil },
	})
}

func proposeFixed(items ...Item) ProposeFunc {
	return func(ctx context.Context, variant Variant, input Input) (*Proposal, error) {
		return NewProposal(items)
	}
}

func waitState(t *testing.T, m *Manager, id string, want State) View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		view, err := m.ViewOf(id)
		if err != nil {
			t.Fatalf("ViewOf: %v", err)
		}
		if view.State == want {
			return view
		}
		time.Sleep(5 * time.Millisecond)
	}
	view, _ := m.ViewOf(id)
	t.Fatalf("timed out waiting for state %s, still %s", want, view.State)
	return View{}
}

func TestAnalyzeRequiresInputForImport(t *testing.T) {
	m := testManager(t, proposeFixed(), &fakeWriter{})
	s, err := m.Open(VariantImport)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := m.Analyze(s.ID); !errors.Is(err, ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
}

func TestAnalyzeDefaultSelection(t *testing.T) {
	m := testManager(t, proposeFixed(
		Item{Key: "A", Label: "A", Tag: TagNew},
		Item{Key: "B", Label: "B", Tag: TagNew},
		Item{Key: "C", Label: "C", Tag: TagUpdated},
		Item{Key: "D", Label: "D", Tag: TagUnchanged},
	), &fakeWriter{})
	s, err := m.Open(VariantSync)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := m.Analyze(s.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	view := waitState(t, m, s.ID, StateReviewing)
	if len(view.Selected) != 2 || view.Selected[0] != "A" || view.Selected[1] != "B" {
		t.Fatalf("default selection should be all new items, got %v", view.Selected)
	}
	if !view.CanCommit {
		t.Fatalf("commit should be enabled with a non-empty selection")
	}
}

func TestAnalyzeFailureReturnsToIdle(t *testing.T) {
	m := testManager(t, func(context.Context, Variant, Input) (*Proposal, error) {
		return nil, errors.New("extraction service unavailable")
	}, &fakeWriter{})
	s, _ := m.Open(VariantSync)
	if err := m.Analyze(s.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	view := waitState(t, m, s.ID, StateIdle)
	if view.Error != "extraction service unavailable" {
		t.Fatalf("oracle error should be surfaced, got %q", view.Error)
	}
	if view.Proposal != nil {
		t.Fatalf("no partial state may be retained after oracle failure")
	}
}

func TestCommitGuardEmptySelection(t *testing.T) {
	m := testManager(t, proposeFixed(
		Item{Key: "A", Label: "A", Tag: TagNew},
	), &fakeWriter{})
	s, _ := m.Open(VariantSync)
	_ = m.Analyze(s.ID)
	waitState(t, m, s.ID, StateReviewing)
	if err := m.DeselectAll(s.ID); err != nil {
		t.Fatalf("DeselectAll: %v", err)
	}
	if err := m.Commit(s.ID, ""); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	view, _ := m.ViewOf(s.ID)
	if view.CanCommit {
		t.Fatalf("commit must be disabled when the selection is empty")
	}
}

func TestFullFlowReachesDoneWithPartialFailure(t *testing.T) {
	writer := &fakeWriter{failItems: map[string]string{"E": "constraint violation"}}
	m := testManager(t, proposeFixed(
		Item{Key: "B", Label: "B", Tag: TagNew},
		Item{Key: "E", Label: "E", Tag: TagNew},
	), writer)
	s, _ := m.Open(VariantSync)
	_ = m.Analyze(s.ID)
	waitState(t, m, s.ID, StateReviewing)
	if err := m.Commit(s.ID, ""); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	view := waitState(t, m, s.ID, StateDone)
	if view.Result == nil {
		t.Fatalf("expected a commit result")
	}
	if view.Result.Created != 1 || view.Result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", view.Result)
	}
	if len(view.Result.Errors) != 1 || view.Result.Errors[0].Label != "E" {
		t.Fatalf("unexpected errors: %+v", view.Result.Errors)
	}
}

func TestHardCommitFailureTransitionsToFailed(t *testing.T) {
	m := NewManager(ManagerDeps{
		Propose: proposeFixed(Item{Key: "A", Label: "A", Tag: TagNew}),
		Writers: func(Variant, string) (Writer, error) {
			return nil, errors.New("auth expired")
		},
	})
	s, _ := m.Open(VariantSync)
	_ = m.Analyze(s.ID)
	waitState(t, m, s.ID, StateReviewing)
	if err := m.Commit(s.ID, ""); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	view := waitState(t, m, s.ID, StateFailed)
	if view.Result != nil {
		t.Fatalf("no result on hard failure")
	}
	if view.Error != "auth expired" {
		t.Fatalf("unexpected error: %q", view.Error)
	}
}

func TestResetClearsEverything(t *testing.T) {
	m := testManager(t, proposeFixed(
		Item{Key: "A", Label: "A", Tag: TagNew},
	), &fakeWriter{})
	s, _ := m.Open(VariantSync)
	_ = m.Analyze(s.ID)
	waitState(t, m, s.ID, StateReviewing)
	_ = m.Commit(s.ID, "")
	waitState(t, m, s.ID, StateDone)

	if err := m.Reset(s.ID); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	view, _ := m.ViewOf(s.ID)
	if view.State != StateIdle {
		t.Fatalf("reset should return to idle, got %s", view.State)
	}
	if view.Proposal != nil || view.SelectionCount != 0 || view.Result != nil || view.Error != "" {
		t.Fatalf("reset must clear proposal, selection and result: %+v", view)
	}
	if view.Input != (Input{}) {
		t.Fatalf("reset must clear the input reference")
	}
}

func TestLateOracleResultAfterResetIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	m := testManager(t, func(ctx context.Context, v Variant, in Input) (*Proposal, error) {
		<-release
		return NewProposal([]Item{{Key: "A", Label: "A", Tag: TagNew}})
	}, &fakeWriter{})
	s, _ := m.Open(VariantSync)
	if err := m.Analyze(s.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if err := m.Reset(s.ID); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	close(release)
	time.Sleep(30 * time.Millisecond)
	view, _ := m.ViewOf(s.ID)
	if view.State != StateIdle || view.Proposal != nil {
		t.Fatalf("ghost completion applied after reset: %+v", view)
	}
}

func TestCloseDestroysSession(t *testing.T) {
	m := testManager(t, proposeFixed(), &fakeWriter{})
	s, _ := m.Open(VariantImport)
	if err := m.Close(s.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := m.ViewOf(s.ID); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

func TestSelectionEditsOnlyInReviewing(t *testing.T) {
	m := testManager(t, proposeFixed(), &fakeWriter{})
	s, _ := m.Open(VariantSync)
	if err := m.Toggle(s.ID, "A"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
