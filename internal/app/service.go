package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

// SessionRepository abstracts how live sessions are stored (in-memory, Redis-backed, etc).
type SessionRepository interface {
	GetOrCreate(sessionID string, quiz domain.Quiz) *Session
	Get(sessionID string) (*Session, bool)
	DeleteIfEmpty(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ReplayStore durably stores replays and their share log.
type ReplayStore interface {
	// Save persists a replay. Saving the same replay again is a no-op.
	Save(ctx context.Context, replay domain.GameReplay) error
	// Get fetches a replay and atomically increments its view counter.
	// Returns ErrReplayExpired past retention, ErrReplayNotFound otherwise.
	Get(ctx context.Context, replayID string) (domain.GameReplay, error)
	// SetVisibility toggles the replay's public flag.
	SetVisibility(ctx context.Context, replayID string, public bool) error
	// RecordShare appends to the share log.
	RecordShare(ctx context.Context, share domain.ReplayShare) error
}

// LeaderboardStore is the durable global leaderboard plus its applied-sessions set.
type LeaderboardStore interface {
	// Fold merges one session's ranked scores into the leaderboard.
	// Idempotent per session ID: the fold check and the deltas apply
	// atomically together.
	Fold(ctx context.Context, sessionID string, scores []domain.ReplayPlayerScore) error
	// Top returns up to limit entries, total score descending then player
	// ID ascending. No side effects.
	Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// Leaderboard limit bounds for GetGlobalLeaderboard; out-of-range values are
// rejected, not clamped.
const (
	minLeaderboardLimit = 1
	maxLeaderboardLimit = 100
)

// GameService contains the scoring, ranking and replay use cases.
type GameService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	replays  ReplayStore
	board    LeaderboardStore
	policy   ReplayPolicy
}

func NewGameService(sessions SessionRepository, quizzes QuizRepository, replays ReplayStore, board LeaderboardStore, policy ReplayPolicy) *GameService {
	return &GameService{
		sessions: sessions,
		quizzes:  quizzes,
		replays:  replays,
		board:    board,
		policy:   policy,
	}
}

// Join registers or refreshes a participant, creating the session on first join.
func (s *GameService) Join(ctx context.Context, sessionID, quizID, playerID, nickname, userID string) (domain.Leaderboard, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	session := s.sessions.GetOrCreate(sessionID, quiz)
	return session.join(playerID, nickname, userID)
}

// StartSession transitions the session to in-progress and activates the
// first question.
func (s *GameService) StartSession(_ context.Context, sessionID string) (domain.Question, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Question{}, domain.ErrSessionNotFound
	}
	return session.start()
}

// AdvanceQuestion activates the next question.
func (s *GameService) AdvanceQuestion(_ context.Context, sessionID string) (domain.Question, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Question{}, domain.ErrSessionNotFound
	}
	return session.advance()
}

// SubmitAnswer runs one answer event through validation and scoring. A
// rejection comes back as (result with Reason, error); the error is one of
// the validation sentinels and only concerns the submitting player.
func (s *GameService) SubmitAnswer(_ context.Context, sessionID string, event domain.AnswerEvent) (domain.AnswerResult, domain.Leaderboard, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerResult{}, domain.Leaderboard{}, domain.ErrSessionNotFound
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}
	return session.submit(event)
}

// CompleteSession closes the session, persists its replay and folds the
// results into the global leaderboard. Idempotent: repeat calls return the
// identical cached replay. Persistence is re-attempted on repeat calls,
// which is safe because Save and Fold are themselves idempotent; callers
// retry on a returned persistence error.
func (s *GameService) CompleteSession(ctx context.Context, sessionID string) (domain.GameReplay, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.GameReplay{}, domain.ErrSessionNotFound
	}

	replay, _, err := session.complete(s.policy)
	if err != nil {
		return domain.GameReplay{}, err
	}

	if err := s.replays.Save(ctx, replay); err != nil {
		return domain.GameReplay{}, err
	}
	if err := s.board.Fold(ctx, sessionID, replay.Scores); err != nil {
		return domain.GameReplay{}, err
	}
	return replay, nil
}

// GetReplay fetches a replay by ID, incrementing its view counter.
func (s *GameService) GetReplay(ctx context.Context, replayID string) (domain.GameReplay, error) {
	return s.replays.Get(ctx, replayID)
}

// SetReplayVisibility toggles a replay's public flag.
func (s *GameService) SetReplayVisibility(ctx context.Context, replayID string, public bool) error {
	return s.replays.SetVisibility(ctx, replayID, public)
}

// RecordShare appends a share record for a replay.
func (s *GameService) RecordShare(ctx context.Context, replayID, platform, origin string) (domain.ReplayShare, error) {
	share := domain.ReplayShare{
		ID:       uuid.NewString(),
		ReplayID: replayID,
		Platform: platform,
		Origin:   origin,
		SharedAt: time.Now(),
	}
	if err := s.replays.RecordShare(ctx, share); err != nil {
		return domain.ReplayShare{}, err
	}
	return share, nil
}

// GetGlobalLeaderboard returns the top entries of the global leaderboard.
// Limits outside [1, 100] are rejected with ErrInvalidLimit.
func (s *GameService) GetGlobalLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit < minLeaderboardLimit || limit > maxLeaderboardLimit {
		return nil, domain.ErrInvalidLimit
	}
	return s.board.Top(ctx, limit)
}

// Subscribe returns a channel that receives leaderboard updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Leaderboard, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Leave removes a participant from a not-yet-started session and drops the
// session if it became empty.
func (s *GameService) Leave(_ context.Context, sessionID, playerID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.leave(playerID)
	if session.isEmpty() {
		s.sessions.DeleteIfEmpty(sessionID)
	}
}
