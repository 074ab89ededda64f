package wizard

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tag classifies a proposed item relative to the stored data.
type Tag string

const (
	TagNew       Tag = "new"
	TagUpdated   Tag = "updated"
	TagUnchanged Tag = "unchanged"
)

// Item is one proposed change. Key is the stable natural key (feature code,
// article number) and must be unique within a proposal. Children are
// committed with their parent and are never independently selectable.
type Item struct {
	Key      string          `json:"key"`
	Label    string          `json:"label"`
	Group    string          `json:"group,omitempty"`
	Tag      Tag             `json:"tag"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Children []Item          `json:"children,omitempty"`
}

// Summary carries per-tag counts plus domain aggregates (e.g. extracted
// rule counts) set by the oracle.
type Summary struct {
	New       int            `json:"new"`
	Updated   int            `json:"updated"`
	Unchanged int            `json:"unchanged"`
	Extras    map[string]int `json:"extras,omitempty"`
}

// Proposal is the oracle's output. It is immutable once received and
// replaced wholesale on re-fetch.
type Proposal struct {
	Items   []Item  `json:"items"`
	Summary Summary `json:"summary"`
}

// NewProposal validates item keys and computes the tag summary.
func NewProposal(items []Item) (*Proposal, error) {
	seen := make(map[string]struct{}, len(items))
	summary := Summary{}
	for i, item := range items {
		key := strings.TrimSpace(item.Key)
		if key == "" {
			return nil, fmt.Errorf("proposal item %d has an empty key", i)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate proposal key %q", key)
		}
		seen[key] = struct{}{}
		switch item.Tag {
		case TagNew:
			summary.New++
		case TagUpdated:
			summary.Updated++
		case TagUnchanged:
			summary.Unchanged++
		default:
			return nil, fmt.Errorf("proposal item %q has unknown tag %q", key, item.Tag)
		}
	}
	return &Proposal{Items: items, Summary: summary}, nil
}

// SetExtra records a domain aggregate on the summary.
func (p *Proposal) SetExtra(name string, n int) {
	if p == nil {
		return
	}
	if p.Summary.Extras == nil {
		p.Summary.Extras = make(map[string]int)
	}
	p.Summary.Extras[name] = n
}

// Item returns the top-level item with the given key.
func (p *Proposal) Item(key string) (Item, bool) {
	if p == nil {
		return Item{}, false
	}
	for _, item := range p.Items {
		if item.Key == key {
			return item, true
		}
	}
	return Item{}, false
}

// Selected returns the items whose keys are in the selection, preserving
// proposal order. The commit executor depends on this ordering.
func (p *Proposal) Selected(sel *Selection) []Item {
	if p == nil || sel == nil {
		return nil
	}
	out := make([]Item, 0, sel.Count())
	for _, item := range p.Items {
		if sel.IsSelected(item.Key) {
			out = append(out, item)
		}
	}
	return out
}
