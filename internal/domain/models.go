package domain

import "time"

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
// Question content is immutable once a session has started.
type Question struct {
	ID          string        `json:"id"`
	Order       int           `json:"order"`
	Prompt      string        `json:"prompt"`
	Options     []Option      `json:"options"`
	Points      int           `json:"points"`    // base points, defaults to 1000 if zero
	TimeLimit   time.Duration `json:"timeLimit"` // answer window measured from question activation
	Explanation string        `json:"explanation,omitempty"`
}

// CorrectOptionID returns the ID of the correct option, or "" if none is flagged.
func (q Question) CorrectOptionID() string {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.ID
		}
	}
	return ""
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// AnswerEvent is a single answer submission as received from a player.
// At most one event per (player, question) pair is ever accepted.
type AnswerEvent struct {
	PlayerID   string        `json:"playerId"`
	QuestionID string        `json:"questionId"`
	OptionID   string        `json:"optionId"`
	Elapsed    time.Duration `json:"elapsed"`    // client-observed time since question start
	ReceivedAt time.Time     `json:"receivedAt"` // wall-clock arrival
}

// AnswerRecord is an accepted AnswerEvent plus its derived outcome.
type AnswerRecord struct {
	AnswerEvent
	Correct bool `json:"correct"`
	Points  int  `json:"points"`
}

// AnswerResult summarizes the outcome of a submission for the submitting player.
type AnswerResult struct {
	QuestionID string `json:"questionId"`
	Accepted   bool   `json:"accepted"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
	TotalScore int    `json:"totalScore"`
	Reason     string `json:"reason,omitempty"` // rejection reason when not accepted
}

// LeaderboardRow is a snapshot-friendly view of a participant in a live session.
type LeaderboardRow struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Rank        int    `json:"rank"`
}

// Leaderboard captures the ordered scoreboard for a live session.
type Leaderboard struct {
	SessionID string           `json:"sessionId"`
	Rows      []LeaderboardRow `json:"rows"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// LeaderboardEntry is one player's cumulative standing on the global leaderboard.
type LeaderboardEntry struct {
	PlayerID       string    `json:"playerId"`
	Nickname       string    `json:"nickname"`
	TotalScore     int       `json:"totalScore"`
	SessionsPlayed int       `json:"sessionsPlayed"`
	BestRank       int       `json:"bestRank"` // lowest rank number achieved, 0 if never ranked
	UpdatedAt      time.Time `json:"updatedAt"`
}
