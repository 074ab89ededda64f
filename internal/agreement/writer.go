package agreement

import (
	"context"
	"fmt"
	"strings"

	"hrflow/internal/jsonutil"
	"hrflow/internal/wizard"
)

// Store is the slice of the agreement store the import writer needs.
type Store interface {
	UpsertAgreement(ctx context.Context, a Agreement) error
	UpsertArticle(ctx context.Context, a Article) error
	UpsertClause(ctx context.Context, c Clause) error
	UpsertRule(ctx context.Context, r Rule) error
}

// ImportWriter applies extracted articles to the agreement store. The
// agreement header row is written in Begin so every per-item write has a
// parent to reference; a Begin failure means the batch never started.
type ImportWriter struct {
	Store     Store
	Agreement Agreement
}

func (w *ImportWriter) Begin(ctx context.Context) error {
	if w == nil || w.Store == nil {
		return fmt.Errorf("import writer has no store")
	}
	if strings.TrimSpace(w.Agreement.ID) == "" {
		return fmt.Errorf("agreement id is required")
	}
	return w.Store.UpsertAgreement(ctx, w.Agreement)
}

func (w *ImportWriter) WriteItem(ctx context.Context, item wizard.Item) error {
	var art Article
	if err := jsonutil.UnmarshalRaw(item.Payload, &art); err != nil {
		return fmt.Errorf("decode article payload: %w", err)
	}
	art.AgreementID = w.Agreement.ID
	return w.Store.UpsertArticle(ctx, art)
}

func (w *ImportWriter) WriteChild(ctx context.Context, parent wizard.Item, child wizard.Item) error {
	switch {
	case strings.HasPrefix(child.Key, "clause:"):
		var cl Clause
		if err := jsonutil.UnmarshalRaw(child.Payload, &cl); err != nil {
			return fmt.Errorf("decode clause payload: %w", err)
		}
		cl.AgreementID = w.Agreement.ID
		return w.Store.UpsertClause(ctx, cl)
	case strings.HasPrefix(child.Key, "rule:"):
		var rule Rule
		if err := jsonutil.UnmarshalRaw(child.Payload, &rule); err != nil {
			return fmt.Errorf("decode rule payload: %w", err)
		}
		rule.AgreementID = w.Agreement.ID
		return w.Store.UpsertRule(ctx, rule)
	default:
		return fmt.Errorf("unknown child kind %q", child.Key)
	}
}
