package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

// ReplayStore is an in-memory implementation of app.ReplayStore.
type ReplayStore struct {
	clock func() time.Time

	mu      sync.Mutex
	replays map[string]*domain.GameReplay
	shares  []domain.ReplayShare
}

func NewReplayStore() *ReplayStore {
	return &ReplayStore{
		clock:   time.Now,
		replays: make(map[string]*domain.GameReplay),
	}
}

// NewReplayStoreWithClock is test-only for deterministic expiry checks.
func NewReplayStoreWithClock(clock func() time.Time) *ReplayStore {
	store := NewReplayStore()
	store.clock = clock
	return store
}

func (s *ReplayStore) Save(_ context.Context, replay domain.GameReplay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.replays[replay.ID]; ok {
		return nil
	}
	stored := cloneReplay(replay)
	s.replays[replay.ID] = &stored
	return nil
}

func (s *ReplayStore) Get(_ context.Context, replayID string) (domain.GameReplay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	replay, ok := s.replays[replayID]
	if !ok {
		return domain.GameReplay{}, domain.ErrReplayNotFound
	}
	if replay.Expired(s.clock()) {
		return domain.GameReplay{}, domain.ErrReplayExpired
	}
	replay.ViewCount++
	return cloneReplay(*replay), nil
}

func (s *ReplayStore) SetVisibility(_ context.Context, replayID string, public bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	replay, ok := s.replays[replayID]
	if !ok {
		return domain.ErrReplayNotFound
	}
	if replay.Expired(s.clock()) {
		return domain.ErrReplayExpired
	}
	replay.IsPublic = public
	return nil
}

func (s *ReplayStore) RecordShare(_ context.Context, share domain.ReplayShare) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.replays[share.ReplayID]; !ok {
		return domain.ErrReplayNotFound
	}
	s.shares = append(s.shares, share)
	return nil
}

// Shares returns a copy of the share log, newest last.
func (s *ReplayStore) Shares() []domain.ReplayShare {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ReplayShare, len(s.shares))
	copy(out, s.shares)
	return out
}

// cloneReplay deep-copies the slices so callers can never reach the stored record.
func cloneReplay(r domain.GameReplay) domain.GameReplay {
	out := r
	out.Scores = make([]domain.ReplayPlayerScore, len(r.Scores))
	copy(out.Scores, r.Scores)
	out.Questions = make([]domain.ReplayQuestionResult, len(r.Questions))
	for i, q := range r.Questions {
		qc := q
		qc.Options = make([]domain.Option, len(q.Options))
		copy(qc.Options, q.Options)
		qc.Answers = make([]domain.ReplayAnswer, len(q.Answers))
		copy(qc.Answers, q.Answers)
		out.Questions[i] = qc
	}
	return out
}
