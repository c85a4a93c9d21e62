package submission

import (
	"fmt"
	"sync"
)

// Session holds one citizen's draft and the state of its latest submission.
// It is safe for concurrent use; a second Submit while one is running fails
// with ErrIllegalTransition.
type Session struct {
	mu    sync.Mutex
	state State
	draft Draft
}

func NewSession(draft Draft) *Session {
	draft.normalize()
	return &Session{state: StateIdle, draft: draft}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Update replaces the draft. Only allowed while no submission is running.
func (s *Session) Update(draft Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Editable() {
		return fmt.Errorf("%w: cannot edit draft while %s", ErrIllegalTransition, s.state)
	}
	draft.normalize()
	s.draft = draft
	return nil
}

// Reset discards the draft and returns to Idle
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		if err := s.transitionLocked(StateIdle); err != nil {
			return err
		}
	}
	s.draft = NewDraft()
	return nil
}

// begin validates the draft and moves to ReadyToSubmit under one lock, so the
// returned snapshot is exactly what gets submitted.
func (s *Session) begin(requireDescriptionWithPhoto bool) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft := s.draft
	if err := draft.Validate(requireDescriptionWithPhoto); err != nil {
		return draft, err
	}
	if err := s.transitionLocked(StateReadyToSubmit); err != nil {
		return draft, err
	}
	return draft, nil
}

func (s *Session) transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(to)
}

func (s *Session) transitionLocked(to State) error {
	if !s.state.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.state, to)
	}
	s.state = to
	return nil
}

// complete moves Persisting -> Idle and clears the draft
func (s *Session) complete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(StateIdle); err != nil {
		return err
	}
	s.draft = NewDraft()
	return nil
}
