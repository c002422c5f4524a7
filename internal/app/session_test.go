package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "General Knowledge",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Order:  1,
				Prompt: "What is 2 + 2?",
				Options: []domain.Option{
					{ID: "o1", Text: "3", Correct: false},
					{ID: "o2", Text: "4", Correct: true},
				},
				Points:    1000,
				TimeLimit: 20 * time.Second,
			},
			{
				ID:     "q2",
				Order:  2,
				Prompt: "What is 3 * 3?",
				Options: []domain.Option{
					{ID: "o1", Text: "9", Correct: true},
					{ID: "o2", Text: "6", Correct: false},
				},
				Points:    1000,
				TimeLimit: 20 * time.Second,
			},
		},
	}
}

func startedSession(t *testing.T, clk *fakeClock, playerIDs ...string) *Session {
	t.Helper()
	session := NewSessionWithClock("s1", testQuiz(), clk.Now)
	for _, id := range playerIDs {
		if _, err := session.join(id, "nick-"+id, ""); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	if _, err := session.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return session
}

func answer(clk *fakeClock, playerID, questionID, optionID string, elapsed time.Duration) domain.AnswerEvent {
	return domain.AnswerEvent{
		PlayerID:   playerID,
		QuestionID: questionID,
		OptionID:   optionID,
		Elapsed:    elapsed,
		ReceivedAt: clk.Now(),
	}
}

func TestSubmitScoresCorrectAnswer(t *testing.T) {
	clk := newFakeClock()
	session := startedSession(t, clk, "p1")

	clk.Advance(5 * time.Second)
	result, lb, err := session.submit(answer(clk, "p1", "q1", "o2", 5*time.Second))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Accepted || !result.Correct || result.Awarded != 875 {
		t.Fatalf("expected accepted correct 875, got %+v", result)
	}
	if lb.Rows[0].Score != 875 {
		t.Fatalf("leaderboard shows %d, want 875", lb.Rows[0].Score)
	}
}

func TestSubmitBeforeStart(t *testing.T) {
	clk := newFakeClock()
	session := NewSessionWithClock("s1", testQuiz(), clk.Now)
	if _, err := session.join("p1", "Alice", ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	_, _, err := session.submit(answer(clk, "p1", "q1", "o2", 0))
	if !errors.Is(err, domain.ErrSessionNotStarted) {
		t.Fatalf("expected ErrSessionNotStarted, got %v", err)
	}
}

func TestSubmitDuplicateRejected(t *testing.T) {
	clk := newFakeClock()
	session := startedSession(t, clk, "p1")

	if _, _, err := session.submit(answer(clk, "p1", "q1", "o2", time.Second)); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	result, _, err := session.submit(answer(clk, "p1", "q1", "o1", 2*time.Second))
	if !errors.Is(err, domain.ErrDuplicateAnswer) {
		t.Fatalf("expected ErrDuplicateAnswer, got %v", err)
	}
	if result.Reason != "DuplicateAnswer" {
		t.Fatalf("expected DuplicateAnswer reason, got %q", result.Reason)
	}
	if score := session.players["p1"].score; score != 975 {
		t.Fatalf("duplicate changed score to %d", score)
	}
}

func TestSubmitWrongQuestionRejected(t *testing.T) {
	clk := newFakeClock()
	session := startedSession(t, clk, "p1")

	_, _, err := session.submit(answer(clk, "p1", "q2", "o1", time.Second))
	if !errors.Is(err, domain.ErrStaleQuestion) {
		t.Fatalf("expected ErrStaleQuestion, got %v", err)
	}
}

func TestSubmitInvalidOptionRejected(t *testing.T) {
	clk := newFakeClock()
	session := startedSession(t, clk, "p1")

	_, _, err := session.submit(answer(clk, "p1", "q1", "o99", time.Second))
	if !errors.Is(err, domain.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

func TestSubmitLateRejected(t *testing.T) {
	clk := newFakeClock()
	session := startedSession(t, clk, "p1")

	// 20s limit + 2s grace; 23s is past the window.
	clk.Advance(23 * time.Second)
	_, _, err := session.submit(answer(clk, "p1", "q1", "o2", 20*time.Second))
	if !errors.Is(err, domain.ErrLateSubmission) {
		t.Fatalf("expected ErrLateSubmission, got %v", err)
	}
}

func TestSubmitWithinGraceAccepted(t *testing.T) {
	clk := newFakeClock()
	session := startedSession(t, clk, "p1")

	clk.Advance(21 * time.Second)
	result, _, err := session.submit(answer(clk, "p1", "q1", "o2", 21*time.Second))
	if err != nil {
		t.Fatalf("submit inside grace: %v", err)
	}
	// Elapsed clamps to the limit, so the award bottoms out at half base.
	if result.Awarded != 500 {
		t.Fatalf("expected floor award 500, got %d", result.Awarded)
	}
}

func TestAdvanceActivatesNextQuestion(t *testing.T) {
	clk := newFakeClock()
	session := startedSession(t, clk, "p1")

	question, err := session.advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if question.ID != "q2" {
		t.Fatalf("expected q2 active, got %s", question.ID)
	}

	// q1 is stale now, q2 answers flow.
	if _, _, err := session.submit(answer(clk, "p1", "q1", "o2", time.Second)); !errors.Is(err, domain.ErrStaleQuestion) {
		t.Fatalf("expected stale q1, got %v", err)
	}
	if _, _, err := session.submit(answer(clk, "p1", "q2", "o1", time.Second)); err != nil {
		t.Fatalf("submit q2: %v", err)
	}

	if _, err := session.advance(); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected exhausted questions, got %v", err)
	}
}

func TestCompleteIsOneTimeBarrier(t *testing.T) {
	clk := newFakeClock()
	session := startedSession(t, clk, "p1", "p2")

	clk.Advance(5 * time.Second)
	if _, _, err := session.submit(answer(clk, "p1", "q1", "o2", 5*time.Second)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	policy := ReplayPolicy{NewID: func() string { return "replay-1" }, Now: clk.Now}
	first, newly, err := session.complete(policy)
	if err != nil || !newly {
		t.Fatalf("first complete: newly=%v err=%v", newly, err)
	}

	// Answers after the barrier are rejected.
	_, _, err = session.submit(answer(clk, "p2", "q1", "o2", 5*time.Second))
	if !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}

	second, newly, err := session.complete(policy)
	if err != nil || newly {
		t.Fatalf("second complete: newly=%v err=%v", newly, err)
	}
	if second.ID != first.ID || second.CreatedAt != first.CreatedAt || len(second.Scores) != len(first.Scores) {
		t.Fatalf("repeat complete returned a different replay")
	}
}

func TestConcurrentDuplicateSubmitsAcceptExactlyOne(t *testing.T) {
	clk := newFakeClock()
	session := startedSession(t, clk, "p1")

	const attempts = 32
	var wg sync.WaitGroup
	accepted := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := session.submit(answer(clk, "p1", "q1", "o2", time.Second)); err == nil {
				accepted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(accepted)

	count := 0
	for range accepted {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 accepted submission, got %d", count)
	}
	if got := session.players["p1"].score; got != 975 {
		t.Fatalf("score %d, want 975 from the single accepted answer", got)
	}
}

func TestConcurrentCompleteRunsOnce(t *testing.T) {
	clk := newFakeClock()
	session := startedSession(t, clk, "p1")

	ids := 0
	policy := ReplayPolicy{
		NewID: func() string { ids++; return "replay" },
		Now:   clk.Now,
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = session.complete(policy)
		}()
	}
	wg.Wait()

	if ids != 1 {
		t.Fatalf("replay built %d times, want 1", ids)
	}
}

func TestJoinAfterCompleteRejected(t *testing.T) {
	clk := newFakeClock()
	session := startedSession(t, clk, "p1")
	if _, _, err := session.complete(ReplayPolicy{Now: clk.Now}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := session.join("p2", "Bob", ""); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed on late join, got %v", err)
	}
}

func TestLeaveOnlyRemovesBeforeStart(t *testing.T) {
	clk := newFakeClock()
	session := NewSessionWithClock("s1", testQuiz(), clk.Now)
	if _, err := session.join("p1", "Alice", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	session.leave("p1")
	if !session.isEmpty() {
		t.Fatalf("expected empty open session after leave")
	}

	session = startedSession(t, clk, "p1")
	session.leave("p1")
	if _, ok := session.players["p1"]; !ok {
		t.Fatalf("in-progress leave dropped player state")
	}
}
