package feature

import (
	"context"
	"fmt"
	"strings"

	"hrflow/internal/jsonutil"
	"hrflow/internal/wizard"
)

// Store is the slice of the feature store the sync writer needs.
type Store interface {
	Ping(ctx context.Context) error
	InsertFeature(ctx context.Context, f Feature) error
	UpdateFeature(ctx context.Context, f Feature) error
	LinkRelease(ctx context.Context, releaseID, code string) error
}

// SyncWriter commits selected registry additions. When ReleaseID is set,
// each written feature is also linked to that release.
type SyncWriter struct {
	Store     Store
	ReleaseID string
}

func (w *SyncWriter) Begin(ctx context.Context) error {
	if w == nil || w.Store == nil {
		return fmt.Errorf("sync writer has no store")
	}
	// The preflight ping is the batch-level failure path: if the store is
	// unreachable no item is attempted and the wizard reports Failed.
	return w.Store.Ping(ctx)
}

func (w *SyncWriter) WriteItem(ctx context.Context, item wizard.Item) error {
	var f Feature
	if err := jsonutil.UnmarshalRaw(item.Payload, &f); err != nil {
		return fmt.Errorf("decode feature payload: %w", err)
	}
	var err error
	if item.Tag == wizard.TagUpdated {
		err = w.Store.UpdateFeature(ctx, f)
	} else {
		err = w.Store.InsertFeature(ctx, f)
	}
	if err != nil {
		return err
	}
	if rel := strings.TrimSpace(w.ReleaseID); rel != "" {
		if err := w.Store.LinkRelease(ctx, rel, f.Code); err != nil {
			return fmt.Errorf("link release %s: %w", rel, err)
		}
	}
	return nil
}

func (w *SyncWriter) WriteChild(ctx context.Context, parent wizard.Item, child wizard.Item) error {
	// Feature records are flat; the registry diff never produces children.
	return fmt.Errorf("unexpected child %q under %q", child.Key, parent.Key)
}
