package domain

import "time"

// ReplayPlayerScore is one row of a replay's final ranked score list.
// Ranks are dense and unique: 1..N with no gaps and no shared ranks.
type ReplayPlayerScore struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	UserID   string `json:"userId,omitempty"` // persistent account, if the player has one
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// ReplayAnswer is one player's recorded answer inside a question result.
type ReplayAnswer struct {
	PlayerID   string    `json:"playerId"`
	Nickname   string    `json:"nickname"`
	OptionID   string    `json:"optionId"`
	Correct    bool      `json:"correct"`
	Points     int       `json:"points"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// ReplayQuestionResult aggregates every accepted answer for one question.
// Players who never answered the question are absent from Answers.
type ReplayQuestionResult struct {
	QuestionID      string         `json:"questionId"`
	Order           int            `json:"order"`
	Prompt          string         `json:"prompt"`
	Options         []Option       `json:"options"`
	CorrectOptionID string         `json:"correctOptionId"`
	Explanation     string         `json:"explanation,omitempty"`
	Answers         []ReplayAnswer `json:"answers"`
}

// GameReplay is the immutable persisted record of a completed session.
// Only ViewCount (incremented on fetch) and IsPublic (owner toggle) ever
// change after creation.
type GameReplay struct {
	ID             string                 `json:"id"`
	SessionID      string                 `json:"sessionId"`
	Title          string                 `json:"title"`
	TotalQuestions int                    `json:"totalQuestions"`
	TotalPlayers   int                    `json:"totalPlayers"`
	Duration       time.Duration          `json:"duration"`
	Scores         []ReplayPlayerScore    `json:"scores"`
	Questions      []ReplayQuestionResult `json:"questions"`
	CreatedAt      time.Time              `json:"createdAt"`
	ExpiresAt      time.Time              `json:"expiresAt"`
	IsPublic       bool                   `json:"isPublic"`
	ViewCount      int                    `json:"viewCount"`
}

// Expired reports whether the replay is past its retention window at now.
func (r GameReplay) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// ReplayShare is an append-only record of a replay being shared externally.
type ReplayShare struct {
	ID       string    `json:"id"`
	ReplayID string    `json:"replayId"`
	Platform string    `json:"platform"`
	Origin   string    `json:"origin,omitempty"` // sharer network origin, best effort
	SharedAt time.Time `json:"sharedAt"`
}
