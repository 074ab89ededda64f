package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeWriter struct {
	beginErr   error
	failItems  map[string]string // key -> error message
	failChilds map[string]string
	written    []string
}

func (w *fakeWriter) Begin(ctx context.Context) error { return w.beginErr }

func (w *fakeWriter) WriteItem(ctx context.Context, item Item) error {
	if msg, ok := w.failItems[item.Key]; ok {
		return errors.New(msg)
	}
	w.written = append(w.written, item.Key)
	return nil
}

func (w *fakeWriter) WriteChild(ctx context.Context, parent Item, child Item) error {
	if msg, ok := w.failChilds[child.Key]; ok {
		return errors.New(msg)
	}
	w.written = append(w.written, parent.Key+"/"+child.Key)
	return nil
}

func TestCommitSingleNewItem(t *testing.T) {
	// Proposal [A(new), B(new), C(updated), D(unchanged)], user deselects A,
	// commit runs with {B}.
	w := &fakeWriter{}
	exec := &Executor{Writer: w}
	res, err := exec.Run(context.Background(), []Item{{Key: "B", Label: "B", Tag: TagNew}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 || res.Updated != 0 || res.Skipped != 0 || len(res.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCommitPartialFailureStillCompletes(t *testing.T) {
	// Selection {B, E} where E fails with a constraint violation: the batch
	// completes with created 1, skipped 1, and the error recorded.
	w := &fakeWriter{failItems: map[string]string{"E": "constraint violation"}}
	exec := &Executor{Writer: w}
	res, err := exec.Run(context.Background(), []Item{
		{Key: "B", Label: "B", Tag: TagNew},
		{Key: "E", Label: "E", Tag: TagNew},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 || res.Skipped != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[0].Label != "E" || res.Errors[0].Message != "constraint violation" {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
}

func TestCommitCountsMatchSelectionSize(t *testing.T) {
	items := []Item{
		{Key: "a", Label: "a", Tag: TagNew},
		{Key: "b", Label: "b", Tag: TagUpdated},
		{Key: "c", Label: "c", Tag: TagNew},
		{Key: "d", Label: "d", Tag: TagUpdated},
		{Key: "e", Label: "e", Tag: TagNew},
	}
	w := &fakeWriter{failItems: map[string]string{"c": "boom", "d": "boom"}}
	exec := &Executor{Writer: w}
	res, err := exec.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Created + res.Updated + res.Skipped; got != len(items) {
		t.Fatalf("created+updated+skipped = %d, want %d", got, len(items))
	}
	if res.Created != 2 || res.Updated != 1 || res.Skipped != 2 {
		t.Fatalf("unexpected counts: %+v", res)
	}
}

func TestCommitContinuesAfterFailure(t *testing.T) {
	items := make([]Item, 0, 5)
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("item-%d", i)
		items = append(items, Item{Key: key, Label: key, Tag: TagNew})
	}
	w := &fakeWriter{failItems: map[string]string{"item-1": "boom"}}
	exec := &Executor{Writer: w}
	res, err := exec.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(w.written) != 4 {
		t.Fatalf("items after the failure must still be attempted, wrote %v", w.written)
	}
	if w.written[len(w.written)-1] != "item-4" {
		t.Fatalf("expected last item attempted, wrote %v", w.written)
	}
	if res.Skipped != 1 || res.Created != 4 {
		t.Fatalf("unexpected counts: %+v", res)
	}
}

func TestCommitWritesChildrenIndependently(t *testing.T) {
	article := Item{
		Key: "article:12", Label: "Article 12", Tag: TagNew,
		Children: []Item{
			{
				Key: "clause:12/1", Label: "Clause 12.1",
				Children: []Item{
					{Key: "rule:12/1", Label: "Rule 12.1"},
				},
			},
			{Key: "clause:12/2", Label: "Clause 12.2"},
		},
	}
	w := &fakeWriter{failChilds: map[string]string{"clause:12/1": "bad clause"}}
	exec := &Executor{Writer: w}
	res, err := exec.Run(context.Background(), []Item{article})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 {
		t.Fatalf("parent must succeed independently of children: %+v", res)
	}
	// Clause 12.1 failed, so its rule is skipped entirely; clause 12.2 is
	// still written.
	if res.ChildrenWritten != 1 || res.ChildrenSkipped != 1 {
		t.Fatalf("unexpected child counts: %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[0].Label != "Clause 12.1" {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
}

func TestCommitEmptyBatchIsNoopSuccess(t *testing.T) {
	exec := &Executor{Writer: &fakeWriter{}}
	res, err := exec.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 0 || res.Updated != 0 || res.Skipped != 0 || len(res.Errors) != 0 {
		t.Fatalf("empty batch must be an all-zero success: %+v", res)
	}
}

func TestCommitBeginFailureIsHardError(t *testing.T) {
	exec := &Executor{Writer: &fakeWriter{beginErr: errors.New("auth expired")}}
	res, err := exec.Run(context.Background(), []Item{{Key: "a", Label: "a", Tag: TagNew}})
	if err == nil {
		t.Fatalf("expected hard error when commit cannot start")
	}
	if res != nil {
		t.Fatalf("no result on hard failure, got %+v", res)
	}
}

func TestCommitReportsProgressAfterEveryItem(t *testing.T) {
	items := []Item{
		{Key: "a", Label: "a", Tag: TagNew},
		{Key: "b", Label: "b", Tag: TagNew},
		{Key: "c", Label: "c", Tag: TagNew},
	}
	var seen [][2]int
	exec := &Executor{
		Writer:     &fakeWriter{failItems: map[string]string{"b": "boom"}},
		OnProgress: func(processed, total int) { seen = append(seen, [2]int{processed, total}) },
	}
	if _, err := exec.Run(context.Background(), items); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(seen) != len(want) {
		t.Fatalf("expected %d progress reports, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("progress %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestCommitStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &Executor{Writer: &fakeWriter{}}
	_, err := exec.Run(ctx, []Item{{Key: "a", Label: "a", Tag: TagNew}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
