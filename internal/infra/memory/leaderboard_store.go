package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

// LeaderboardStore is an in-memory implementation of app.LeaderboardStore.
// The folded-sessions set and the entries live under one mutex, so the
// idempotence check and the deltas apply atomically together.
type LeaderboardStore struct {
	clock func() time.Time

	mu      sync.Mutex
	entries map[string]*domain.LeaderboardEntry
	folded  map[string]struct{}
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{
		clock:   time.Now,
		entries: make(map[string]*domain.LeaderboardEntry),
		folded:  make(map[string]struct{}),
	}
}

func (s *LeaderboardStore) Fold(_ context.Context, sessionID string, scores []domain.ReplayPlayerScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, done := s.folded[sessionID]; done {
		return nil
	}

	now := s.clock()
	for _, score := range scores {
		entry, ok := s.entries[score.PlayerID]
		if !ok {
			entry = &domain.LeaderboardEntry{PlayerID: score.PlayerID}
			s.entries[score.PlayerID] = entry
		}
		entry.Nickname = score.Nickname
		entry.TotalScore += score.Score
		entry.SessionsPlayed++
		if entry.BestRank == 0 || score.Rank < entry.BestRank {
			entry.BestRank = score.Rank
		}
		entry.UpdatedAt = now
	}
	s.folded[sessionID] = struct{}{}
	return nil
}

func (s *LeaderboardStore) Top(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.LeaderboardEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
