package wizard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Input identifies what a session will hand to the oracle: an uploaded
// document reference for the import variant, an optional scan scope for
// the sync variant.
type Input struct {
	DocumentKey string `json:"document_key,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

func (in Input) present(variant Variant) bool {
	if variant == VariantImport {
		return strings.TrimSpace(in.DocumentKey) != ""
	}
	return true
}

func (in Input) hash() string {
	sum := sha256.Sum256([]byte(in.DocumentKey + "\x00" + in.Scope))
	return hex.EncodeToString(sum[:8])
}

// ProposeFunc invokes the diff/extraction oracle for a variant.
type ProposeFunc func(ctx context.Context, variant Variant, input Input) (*Proposal, error)

// WriterFactory builds the remote-store writer for one commit attempt.
// releaseID is the optional linked-entity choice of the sync variant.
type WriterFactory func(variant Variant, releaseID string) (Writer, error)

// Session is one open wizard. It exclusively owns its proposal, selection
// and result; nothing else reads or mutates them. Sessions live in memory
// only and are destroyed on close.
type Session struct {
	ID        string
	Variant   Variant
	CreatedAt time.Time

	mu        sync.Mutex
	state     State
	input     Input
	releaseID string
	proposal  *Proposal
	selection *Selection
	result    *Result
	lastErr   string
	closed    bool

	// gen guards against ghost completion: a run started before a
	// reset/close must not apply its outcome afterwards.
	gen int

	sessionCtx    context.Context
	sessionCancel context.CancelFunc
	runCtx        context.Context
	runCancel     context.CancelFunc

	events chan Event
}

// View is the JSON snapshot served to the review screen.
type View struct {
	ID             string    `json:"id"`
	Variant        Variant   `json:"variant"`
	State          State     `json:"state"`
	Input          Input     `json:"input"`
	ReleaseID      string    `json:"release_id,omitempty"`
	Proposal       *Proposal `json:"proposal,omitempty"`
	Selected       []string  `json:"selected,omitempty"`
	SelectionCount int       `json:"selection_count"`
	CanCommit      bool      `json:"can_commit"`
	Error          string    `json:"error,omitempty"`
	Result         *Result   `json:"result,omitempty"`
}

// ManagerDeps wires the manager to its collaborators. Propose and Writers
// are the only paths to the outside world; both receive the session's run
// context so in-flight work is cancelled on close.
type ManagerDeps struct {
	Logger  *zap.Logger
	Propose ProposeFunc
	Writers WriterFactory
	// OnCommitted is invoked after a commit reaches Done so dependent
	// views can invalidate caches and re-fetch.
	OnCommitted func(variant Variant)
}

// Manager owns all open wizard sessions.
type Manager struct {
	logger      *zap.Logger
	propose     ProposeFunc
	writers     WriterFactory
	onCommitted func(Variant)

	mu       sync.RWMutex
	sessions map[string]*Session

	previews singleflight.Group
}

func NewManager(deps ManagerDeps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger:      logger,
		propose:     deps.Propose,
		writers:     deps.Writers,
		onCommitted: deps.OnCommitted,
		sessions:    make(map[string]*Session),
	}
}

// Open creates a session in Idle.
func (m *Manager) Open(variant Variant) (*Session, error) {
	if !ValidVariant(variant) {
		return nil, fmt.Errorf("unknown wizard variant %q", variant)
	}
	sessionCtx, sessionCancel := context.WithCancel(context.Background())
	runCtx, runCancel := context.WithCancel(sessionCtx)
	s := &Session{
		ID:            uuid.NewString(),
		Variant:       variant,
		CreatedAt:     time.Now(),
		state:         StateIdle,
		sessionCtx:    sessionCtx,
		sessionCancel: sessionCancel,
		runCtx:        runCtx,
		runCancel:     runCancel,
		events:        make(chan Event, eventBuffer),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.logger.Info("wizard opened",
		zap.String("wizard_id", s.ID),
		zap.String("variant", string(variant)))
	return s, nil
}

func (m *Manager) get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[strings.TrimSpace(id)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// Close destroys a session from any state, cancelling in-flight work. The
// run goroutines observe the cancelled context and discard their results.
func (m *Manager) Close(id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.closed = true
	s.gen++
	s.mu.Unlock()
	s.runCancel()
	s.sessionCancel()
	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	m.logger.Info("wizard closed", zap.String("wizard_id", s.ID))
	return nil
}

// Reset is the Done/Failed -> Idle edge, legal from every state. It clears
// the proposal, selection, result and input so the session is
// indistinguishable from a freshly opened one.
func (m *Manager) Reset(id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.gen++
	oldCancel := s.runCancel
	s.runCtx, s.runCancel = context.WithCancel(s.sessionCtx)
	s.state = StateIdle
	s.input = Input{}
	s.releaseID = ""
	s.proposal = nil
	s.selection = nil
	s.result = nil
	s.lastErr = ""
	s.mu.Unlock()
	oldCancel()
	return nil
}

// SetInput records the uploaded document / scan scope. Only legal in Idle.
func (m *Manager) SetInput(id string, in Input) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StateIdle {
		return fmt.Errorf("%w: set input in %s", ErrInvalidTransition, s.state)
	}
	s.input = in
	return nil
}

// SetRelease records the optional linked-release choice. Part of the
// Reviewing self-loop.
func (m *Manager) SetRelease(id, releaseID string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StateReviewing {
		return fmt.Errorf("%w: set release in %s", ErrInvalidTransition, s.state)
	}
	s.releaseID = strings.TrimSpace(releaseID)
	return nil
}

// Analyze triggers Idle -> Fetching and invokes the oracle asynchronously.
func (m *Manager) Analyze(id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("%w: analyze in %s", ErrInvalidTransition, s.state)
	}
	if !s.input.present(s.Variant) {
		s.mu.Unlock()
		return ErrNoInput
	}
	s.state = StateFetching
	s.lastErr = ""
	gen := s.gen
	input := s.input
	variant := s.Variant
	ctx := s.runCtx
	ch := s.events
	s.mu.Unlock()

	emit(ch, Event{Type: EventTypeProgress, WizardID: s.ID, Message: "analyzing input"})
	go m.runAnalyze(ctx, s, gen, variant, input, ch)
	return nil
}

func (m *Manager) runAnalyze(ctx context.Context, s *Session, gen int, variant Variant, input Input, ch chan Event) {
	key := s.ID + "|" + input.hash()
	v, err, _ := m.previews.Do(key, func() (any, error) {
		return m.propose(ctx, variant, input)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gen != gen || s.state != StateFetching || ctx.Err() != nil {
		// Late oracle response after close/reset: discard.
		return
	}
	if err != nil {
		s.state = StateIdle
		s.lastErr = err.Error()
		m.logger.Warn("oracle failed",
			zap.String("wizard_id", s.ID),
			zap.Error(err))
		emit(ch, Event{Type: EventTypeError, WizardID: s.ID, Message: err.Error()})
		return
	}
	proposal, _ := v.(*Proposal)
	if proposal == nil {
		proposal = &Proposal{}
	}
	s.proposal = proposal
	s.selection = NewSelection(proposal, s.Variant)
	s.state = StateReviewing
	m.logger.Info("proposal ready",
		zap.String("wizard_id", s.ID),
		zap.Int("new", proposal.Summary.New),
		zap.Int("updated", proposal.Summary.Updated),
		zap.Int("unchanged", proposal.Summary.Unchanged))
	emit(ch, Event{Type: EventTypeComplete, WizardID: s.ID, Message: "proposal ready"})
}

// editSelection runs fn inside the Reviewing self-loop.
func (m *Manager) editSelection(id string, fn func(*Selection)) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StateReviewing {
		return fmt.Errorf("%w: edit selection in %s", ErrInvalidTransition, s.state)
	}
	fn(s.selection)
	return nil
}

func (m *Manager) Toggle(id, key string) error {
	return m.editSelection(id, func(sel *Selection) { sel.Toggle(key) })
}

func (m *Manager) SetMany(id string, keys []string, included bool) error {
	return m.editSelection(id, func(sel *Selection) { sel.SetMany(keys, included) })
}

func (m *Manager) SelectAll(id string) error {
	return m.editSelection(id, func(sel *Selection) { sel.SelectAll() })
}

func (m *Manager) DeselectAll(id string) error {
	return m.editSelection(id, func(sel *Selection) { sel.DeselectAll() })
}

// Commit triggers Reviewing -> Committing and runs the executor
// asynchronously. The batch always reaches Done unless the commit cannot
// start at all, which is the only path to Failed.
func (m *Manager) Commit(id, releaseID string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateReviewing {
		s.mu.Unlock()
		return fmt.Errorf("%w: commit in %s", ErrInvalidTransition, s.state)
	}
	if s.selection.Count() == 0 {
		s.mu.Unlock()
		return ErrEmptySelection
	}
	if rel := strings.TrimSpace(releaseID); rel != "" {
		s.releaseID = rel
	}
	items := s.proposal.Selected(s.selection)
	s.state = StateCommitting
	s.result = nil
	gen := s.gen
	variant := s.Variant
	release := s.releaseID
	ctx := s.runCtx
	ch := s.events
	s.mu.Unlock()

	go m.runCommit(ctx, s, gen, variant, release, items, ch)
	return nil
}

func (m *Manager) runCommit(ctx context.Context, s *Session, gen int, variant Variant, releaseID string, items []Item, ch chan Event) {
	writer, err := m.writers(variant, releaseID)
	var res *Result
	if err == nil {
		exec := &Executor{
			Writer: writer,
			Logger: m.logger,
			OnProgress: func(processed, total int) {
				emit(ch, Event{
					Type:      EventTypeProgress,
					WizardID:  s.ID,
					Processed: processed,
					Total:     total,
					Percent:   progressPercent(processed, total),
				})
			},
		}
		res, err = exec.Run(ctx, items)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gen != gen || s.state != StateCommitting {
		return
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return
	}
	if err != nil {
		s.state = StateFailed
		s.lastErr = err.Error()
		m.logger.Error("commit failed to start",
			zap.String("wizard_id", s.ID),
			zap.Error(err))
		emit(ch, Event{Type: EventTypeError, WizardID: s.ID, Message: err.Error()})
		return
	}
	s.result = res
	s.state = StateDone
	m.logger.Info("commit finished",
		zap.String("wizard_id", s.ID),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", len(res.Errors)))
	emit(ch, Event{
		Type:     EventTypeComplete,
		WizardID: s.ID,
		Message: fmt.Sprintf("created %d, updated %d, skipped %d",
			res.Created, res.Updated, res.Skipped),
	})
	if m.onCommitted != nil {
		m.onCommitted(variant)
	}
}

// ViewOf snapshots a session for the review screen.
func (m *Manager) ViewOf(id string) (View, error) {
	s, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	view := View{
		ID:             s.ID,
		Variant:        s.Variant,
		State:          s.state,
		Input:          s.input,
		ReleaseID:      s.releaseID,
		Proposal:       s.proposal,
		SelectionCount: s.selection.Count(),
		Error:          s.lastErr,
		Result:         s.result,
	}
	if s.proposal != nil && s.selection != nil {
		for _, item := range s.proposal.Items {
			if s.selection.IsSelected(item.Key) {
				view.Selected = append(view.Selected, item.Key)
			}
		}
	}
	view.CanCommit = s.state == StateReviewing && view.SelectionCount > 0
	return view, nil
}

// Events returns the session's event stream and a done channel that fires
// when the session is closed.
func (m *Manager) Events(id string) (<-chan Event, <-chan struct{}, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, nil, err
	}
	return s.events, s.sessionCtx.Done(), nil
}
