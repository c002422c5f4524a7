package app

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

// defaultRetention is how long a replay stays viewable unless configured
// otherwise.
const defaultRetention = 30 * 24 * time.Hour

// ReplayPolicy carries the creation-time policy knobs for replays.
type ReplayPolicy struct {
	Retention       time.Duration // <=0 means defaultRetention
	PublicByDefault bool
	NewID           func() string    // nil means uuid.NewString
	Now             func() time.Time // nil means time.Now
}

func (p ReplayPolicy) retention() time.Duration {
	if p.Retention <= 0 {
		return defaultRetention
	}
	return p.Retention
}

func (p ReplayPolicy) newID() string {
	if p.NewID == nil {
		return uuid.NewString()
	}
	return p.NewID()
}

func (p ReplayPolicy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// replayInput is the snapshot of a completed session the builder consumes.
type replayInput struct {
	SessionID   string
	Title       string
	Questions   []domain.Question
	Players     []*playerState
	Ranked      []domain.ReplayPlayerScore
	CompletedAt time.Time
	Duration    time.Duration
}

// buildReplay transforms a completed session snapshot into its immutable
// replay record. Pure: no I/O, no mutation of the input. One question
// result per question in session order; players who never answered a
// question leave no record in it.
func buildReplay(in replayInput, policy ReplayPolicy) domain.GameReplay {
	questions := make([]domain.ReplayQuestionResult, 0, len(in.Questions))
	for _, q := range in.Questions {
		result := domain.ReplayQuestionResult{
			QuestionID:      q.ID,
			Order:           q.Order,
			Prompt:          q.Prompt,
			Options:         q.Options,
			CorrectOptionID: q.CorrectOptionID(),
			Explanation:     q.Explanation,
			Answers:         []domain.ReplayAnswer{},
		}
		for _, p := range in.Players {
			for _, rec := range p.answers {
				if rec.QuestionID != q.ID {
					continue
				}
				result.Answers = append(result.Answers, domain.ReplayAnswer{
					PlayerID:   p.playerID,
					Nickname:   p.nickname,
					OptionID:   rec.OptionID,
					Correct:    rec.Correct,
					Points:     rec.Points,
					AnsweredAt: rec.ReceivedAt,
				})
			}
		}
		sortAnswers(result.Answers)
		questions = append(questions, result)
	}

	createdAt := policy.now()
	return domain.GameReplay{
		ID:             policy.newID(),
		SessionID:      in.SessionID,
		Title:          in.Title,
		TotalQuestions: len(questions),
		TotalPlayers:   len(in.Ranked),
		Duration:       in.Duration,
		Scores:         in.Ranked,
		Questions:      questions,
		CreatedAt:      createdAt,
		ExpiresAt:      createdAt.Add(policy.retention()),
		IsPublic:       policy.PublicByDefault,
		ViewCount:      0,
	}
}

// sortAnswers orders a question's answers by arrival, then player ID for a
// deterministic replay.
func sortAnswers(answers []domain.ReplayAnswer) {
	sort.Slice(answers, func(i, j int) bool {
		if !answers[i].AnsweredAt.Equal(answers[j].AnsweredAt) {
			return answers[i].AnsweredAt.Before(answers[j].AnsweredAt)
		}
		return answers[i].PlayerID < answers[j].PlayerID
	})
}
