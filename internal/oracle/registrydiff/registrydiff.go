// Package registrydiff implements the sync-side oracle: it compares the
// code-defined feature registry against the stored records and proposes
// the additions and updates needed to reconcile them.
package registrydiff

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hrflow/internal/feature"
	"hrflow/internal/registry"
	"hrflow/internal/wizard"
)

// Lister is the slice of the feature store the differ reads from.
type Lister interface {
	ListFeatures(ctx context.Context) ([]feature.Feature, error)
}

// Differ builds sync proposals. Source is re-invoked per preview so edits
// to the registry file are picked up without a restart.
type Differ struct {
	Source func() (*registry.Registry, error)
	Store  Lister
	Logger *zap.Logger
}

func New(source func() (*registry.Registry, error), store Lister, logger *zap.Logger) *Differ {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Differ{Source: source, Store: store, Logger: logger}
}

// Propose diffs the registry against stored features. An empty scope
// covers every module; otherwise only definitions in that module are
// considered.
func (d *Differ) Propose(ctx context.Context, scope string) (*wizard.Proposal, error) {
	reg, err := d.Source()
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	stored, err := d.Store.ListFeatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored features: %w", err)
	}
	byCode := make(map[string]feature.Feature, len(stored))
	for _, f := range stored {
		byCode[f.Code] = f
	}

	scope = strings.TrimSpace(scope)
	items := make([]wizard.Item, 0, len(reg.Features))
	for _, def := range reg.Features {
		if scope != "" && def.Module != scope {
			continue
		}
		desired := def.Feature()
		tag := wizard.TagNew
		if current, ok := byCode[def.Code]; ok {
			if current.Equivalent(desired) {
				tag = wizard.TagUnchanged
			} else {
				tag = wizard.TagUpdated
			}
		}
		payload, err := json.Marshal(desired)
		if err != nil {
			return nil, fmt.Errorf("encode feature %s: %w", def.Code, err)
		}
		items = append(items, wizard.Item{
			Key:     def.Code,
			Label:   def.Name,
			Group:   def.Module,
			Tag:     tag,
			Payload: payload,
		})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("registry has no features%s", scopeSuffix(scope))
	}
	proposal, err := wizard.NewProposal(items)
	if err != nil {
		return nil, err
	}
	d.Logger.Info("registry diff computed",
		zap.String("scope", scope),
		zap.Int("new", proposal.Summary.New),
		zap.Int("updated", proposal.Summary.Updated),
		zap.Int("unchanged", proposal.Summary.Unchanged))
	return proposal, nil
}

func scopeSuffix(scope string) string {
	if scope == "" {
		return ""
	}
	return fmt.Sprintf(" in module %q", scope)
}
