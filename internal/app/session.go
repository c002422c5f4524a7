package app

import (
	"sync"
	"time"

	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

// sessionState is the lifecycle of a live session.
type sessionState int

const (
	stateOpen sessionState = iota
	stateInProgress
	stateCompleted // terminal
)

// playerState is one player's live state. It is owned by the session and
// only touched under the session mutex; after completion it is never
// mutated again.
type playerState struct {
	playerID string
	nickname string
	userID   string // persistent account, optional
	score    int
	joinedAt time.Time
	answers  []domain.AnswerRecord
	answered map[string]struct{} // question IDs with an accepted answer
}

// Session is the single point of mutation for one live session. All
// mutations are serialized by mu; sessions for different IDs are fully
// independent.
type Session struct {
	id        string
	quiz      domain.Quiz
	createdAt time.Time
	now       func() time.Time

	mu                sync.RWMutex
	state             sessionState
	players           map[string]*playerState
	current           int // index of the active question while in progress
	questionStartedAt time.Time
	startedAt         time.Time
	completedAt       time.Time
	replay            *domain.GameReplay // cached at the completion barrier
	subscribers       map[chan domain.Leaderboard]struct{}
}

// NewSession creates an open session for the given quiz.
func NewSession(id string, quiz domain.Quiz) *Session {
	return NewSessionWithClock(id, quiz, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id string, quiz domain.Quiz, now func() time.Time) *Session {
	return &Session{
		id:          id,
		quiz:        quiz,
		createdAt:   now(),
		now:         now,
		players:     make(map[string]*playerState),
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// join registers or refreshes a participant. Joins are accepted until the
// session completes.
func (s *Session) join(playerID, nickname, userID string) (domain.Leaderboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateCompleted {
		return domain.Leaderboard{}, domain.ErrSessionClosed
	}

	if p, ok := s.players[playerID]; ok {
		p.nickname = nickname
	} else {
		s.players[playerID] = &playerState{
			playerID: playerID,
			nickname: nickname,
			userID:   userID,
			joinedAt: s.now(),
			answered: make(map[string]struct{}),
		}
	}
	return s.broadcastLocked(), nil
}

// start transitions Open -> InProgress and activates the first question.
// A repeat call is a no-op returning the current active question.
func (s *Session) start() (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateCompleted:
		return domain.Question{}, domain.ErrSessionClosed
	case stateInProgress:
		return s.quiz.Questions[s.current], nil
	}
	if len(s.quiz.Questions) == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}

	s.state = stateInProgress
	s.current = 0
	now := s.now()
	s.startedAt = now
	s.questionStartedAt = now
	return s.quiz.Questions[0], nil
}

// advance activates the next question, resetting the answer window.
// Returns ErrQuestionNotFound once questions are exhausted; the host is
// expected to complete the session then.
func (s *Session) advance() (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateCompleted:
		return domain.Question{}, domain.ErrSessionClosed
	case stateOpen:
		return domain.Question{}, domain.ErrSessionNotStarted
	}
	if s.current+1 >= len(s.quiz.Questions) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}

	s.current++
	s.questionStartedAt = s.now()
	return s.quiz.Questions[s.current], nil
}

// submit runs one answer event through validation and scoring and applies
// it. Validation reads run under the same lock as the mutation, so a
// duplicate can never be double-accepted and no event can apply after the
// completion barrier.
func (s *Session) submit(event domain.AnswerEvent) (domain.AnswerResult, domain.Leaderboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, question, err := s.validateLocked(event)
	if err != nil {
		return domain.AnswerResult{QuestionID: event.QuestionID, Reason: domain.RejectionReason(err)}, domain.Leaderboard{}, err
	}

	correct := false
	for _, opt := range question.Options {
		if opt.ID == event.OptionID {
			correct = opt.Correct
			break
		}
	}
	points := scoreAnswer(correct, event.Elapsed, question.TimeLimit, question.Points)

	player.answers = append(player.answers, domain.AnswerRecord{
		AnswerEvent: event,
		Correct:     correct,
		Points:      points,
	})
	player.answered[question.ID] = struct{}{}
	player.score += points

	result := domain.AnswerResult{
		QuestionID: question.ID,
		Accepted:   true,
		Correct:    correct,
		Awarded:    points,
		TotalScore: player.score,
	}
	return result, s.broadcastLocked(), nil
}

// validateLocked checks an event against current state without mutating
// anything. Callers hold the session mutex.
func (s *Session) validateLocked(event domain.AnswerEvent) (*playerState, domain.Question, error) {
	switch s.state {
	case stateOpen:
		return nil, domain.Question{}, domain.ErrSessionNotStarted
	case stateCompleted:
		return nil, domain.Question{}, domain.ErrSessionClosed
	}

	player, ok := s.players[event.PlayerID]
	if !ok {
		return nil, domain.Question{}, domain.ErrParticipantNotFound
	}

	question := s.quiz.Questions[s.current]
	if event.QuestionID != question.ID {
		return nil, domain.Question{}, domain.ErrStaleQuestion
	}
	if _, dup := player.answered[question.ID]; dup {
		return nil, domain.Question{}, domain.ErrDuplicateAnswer
	}

	valid := false
	for _, opt := range question.Options {
		if opt.ID == event.OptionID {
			valid = true
			break
		}
	}
	if !valid {
		return nil, domain.Question{}, domain.ErrInvalidOption
	}

	if question.TimeLimit > 0 {
		deadline := s.questionStartedAt.Add(question.TimeLimit + answerGrace)
		if event.ReceivedAt.After(deadline) {
			return nil, domain.Question{}, domain.ErrLateSubmission
		}
	}
	return player, question, nil
}

// complete is the one-time completion barrier. The first call builds and
// caches the replay; later calls return the cached replay with newly=false.
// The state check and transition happen under the same lock as submit, so
// an in-flight answer either fully applies before completion or is
// rejected as SessionClosed after it.
func (s *Session) complete(policy ReplayPolicy) (domain.GameReplay, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateCompleted {
		return *s.replay, false, nil
	}

	s.state = stateCompleted
	s.completedAt = s.now()
	if s.startedAt.IsZero() {
		// Host aborted an Open session; duration is zero-based on creation.
		s.startedAt = s.createdAt
	}

	ranked := rankPlayers(s.playersLocked())
	replay := buildReplay(replayInput{
		SessionID:   s.id,
		Title:       s.quiz.Title,
		Questions:   s.quiz.Questions,
		Players:     s.playersLocked(),
		Ranked:      ranked,
		CompletedAt: s.completedAt,
		Duration:    s.completedAt.Sub(s.startedAt),
	}, policy)
	s.replay = &replay

	s.broadcastLocked()
	return replay, true, nil
}

// Replay returns the replay cached at completion.
func (s *Session) Replay() (domain.GameReplay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != stateCompleted {
		return domain.GameReplay{}, domain.ErrSessionNotComplete
	}
	return *s.replay, nil
}

// leave removes a player before the game starts; once in progress the
// state is kept so a reconnecting player keeps their score.
func (s *Session) leave(playerID string) domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateOpen {
		delete(s.players, playerID)
	}
	return s.broadcastLocked()
}

func (s *Session) isEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == stateOpen && len(s.players) == 0
}

// IsEmpty reports whether the session never started and has no participants.
func (s *Session) IsEmpty() bool {
	return s.isEmpty()
}

func (s *Session) subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.Leaderboard {
	lb := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- lb:
		default:
			// Slow subscriber: drop its stale update so broadcast never blocks.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return lb
}

// snapshotLocked renders the running leaderboard. Ordering matches the
// final ranking comparator, so mid-session and final standings agree.
func (s *Session) snapshotLocked() domain.Leaderboard {
	ranked := rankPlayers(s.playersLocked())
	rows := make([]domain.LeaderboardRow, len(ranked))
	for i, r := range ranked {
		rows[i] = domain.LeaderboardRow{
			PlayerID:    r.PlayerID,
			DisplayName: r.Nickname,
			Score:       r.Score,
			Rank:        r.Rank,
		}
	}
	return domain.Leaderboard{
		SessionID: s.id,
		Rows:      rows,
		UpdatedAt: s.now(),
	}
}

func (s *Session) playersLocked() []*playerState {
	players := make([]*playerState, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	return players
}
