package wizard

// Selection is the set of natural keys opted into the commit. It is always
// a subset of the eligible keys of the current proposal: every item for the
// import variant, only New-tagged items for the sync variant. All
// operations are pure local state changes and cannot fail; ineligible keys
// are ignored.
type Selection struct {
	eligible map[string]struct{}
	selected map[string]struct{}
}

// NewSelection builds the default selection for a freshly arrived
// proposal: all eligible items selected.
func NewSelection(p *Proposal, variant Variant) *Selection {
	s := &Selection{
		eligible: make(map[string]struct{}),
		selected: make(map[string]struct{}),
	}
	if p == nil {
		return s
	}
	for _, item := range p.Items {
		if variant == VariantSync && item.Tag != TagNew {
			continue
		}
		s.eligible[item.Key] = struct{}{}
		s.selected[item.Key] = struct{}{}
	}
	return s
}

// Toggle flips membership of key. No-op if key is not eligible.
func (s *Selection) Toggle(key string) {
	if s == nil {
		return
	}
	if _, ok := s.eligible[key]; !ok {
		return
	}
	if _, in := s.selected[key]; in {
		delete(s.selected, key)
	} else {
		s.selected[key] = struct{}{}
	}
}

// SetMany adds or removes each eligible key in keys. Used for group-level
// select/deselect.
func (s *Selection) SetMany(keys []string, included bool) {
	if s == nil {
		return
	}
	for _, key := range keys {
		if _, ok := s.eligible[key]; !ok {
			continue
		}
		if included {
			s.selected[key] = struct{}{}
		} else {
			delete(s.selected, key)
		}
	}
}

// SelectAll selects every eligible key.
func (s *Selection) SelectAll() {
	if s == nil {
		return
	}
	for key := range s.eligible {
		s.selected[key] = struct{}{}
	}
}

// DeselectAll empties the selection.
func (s *Selection) DeselectAll() {
	if s == nil {
		return
	}
	s.selected = make(map[string]struct{})
}

func (s *Selection) IsSelected(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.selected[key]
	return ok
}

func (s *Selection) IsEligible(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.eligible[key]
	return ok
}

// Count drives the commit button label and its disabled state.
func (s *Selection) Count() int {
	if s == nil {
		return 0
	}
	return len(s.selected)
}
