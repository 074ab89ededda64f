package wizard

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ItemError records one failed item write, in batch order.
type ItemError struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

func (e ItemError) String() string { return e.Label + ": " + e.Message }

// Result is produced by one commit attempt and discarded, not merged, on
// retry. Created+Updated+Skipped always equals the number of top-level
// items handed to the executor; children are counted separately.
type Result struct {
	Created         int         `json:"created"`
	Updated         int         `json:"updated"`
	Skipped         int         `json:"skipped"`
	ChildrenWritten int         `json:"children_written"`
	ChildrenSkipped int         `json:"children_skipped"`
	Errors          []ItemError `json:"errors,omitempty"`
}

// Writer applies proposed items to the remote data store. Begin is the
// batch-level preflight: its failure means the commit could not start at
// all and maps to the Failed state, unlike per-item errors which are
// recorded and tolerated.
type Writer interface {
	Begin(ctx context.Context) error
	WriteItem(ctx context.Context, item Item) error
	WriteChild(ctx context.Context, parent Item, child Item) error
}

// Executor applies a selected batch item by item, strictly sequentially so
// progress is deterministic and parents exist before their children. There
// is no cross-item transaction: a failed item is recorded and the batch
// continues.
type Executor struct {
	Writer     Writer
	OnProgress func(processed, total int)
	Logger     *zap.Logger
}

// Run commits items in order. It returns an error only when the batch
// itself cannot run (Begin failure or cancellation); per-item failures are
// reported inside the Result.
func (e *Executor) Run(ctx context.Context, items []Item) (*Result, error) {
	if e == nil || e.Writer == nil {
		return nil, fmt.Errorf("commit executor has no writer")
	}
	if err := e.Writer.Begin(ctx); err != nil {
		return nil, fmt.Errorf("begin commit: %w", err)
	}

	res := &Result{}
	total := len(items)
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.Writer.WriteItem(ctx, item); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, ItemError{Label: item.Label, Message: err.Error()})
			if e.Logger != nil {
				e.Logger.Warn("item write failed",
					zap.String("key", item.Key),
					zap.Error(err))
			}
		} else {
			if item.Tag == TagUpdated {
				res.Updated++
			} else {
				res.Created++
			}
			e.writeChildren(ctx, item, item.Children, res)
		}
		if e.OnProgress != nil {
			e.OnProgress(i+1, total)
		}
	}
	return res, nil
}

// writeChildren writes dependent children after a successful parent write.
// Each child is attempted independently; descendants of a failed child are
// skipped because their parent row does not exist.
func (e *Executor) writeChildren(ctx context.Context, parent Item, children []Item, res *Result) {
	for _, child := range children {
		if ctx.Err() != nil {
			return
		}
		if err := e.Writer.WriteChild(ctx, parent, child); err != nil {
			res.ChildrenSkipped++
			res.Errors = append(res.Errors, ItemError{Label: child.Label, Message: err.Error()})
			if e.Logger != nil {
				e.Logger.Warn("child write failed",
					zap.String("key", child.Key),
					zap.String("parent", parent.Key),
					zap.Error(err))
			}
			continue
		}
		res.ChildrenWritten++
		e.writeChildren(ctx, child, child.Children, res)
	}
}
