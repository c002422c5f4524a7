package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session has not been initialized.
	ErrSessionNotFound = errors.New("session not found")
	// ErrParticipantNotFound is returned when a player tries to act before joining.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrSessionNotStarted rejects answers before the session is in progress.
	ErrSessionNotStarted = errors.New("session not started")
	// ErrSessionClosed rejects any mutation after the session completed.
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionNotComplete rejects replay construction for a live session.
	ErrSessionNotComplete = errors.New("session not complete")

	// ErrDuplicateAnswer rejects a second answer for the same (player, question).
	ErrDuplicateAnswer = errors.New("duplicate answer")
	// ErrStaleQuestion rejects answers for a question that is not currently active.
	ErrStaleQuestion = errors.New("stale or wrong question")
	// ErrLateSubmission rejects answers arriving after the question window closed.
	ErrLateSubmission = errors.New("late submission")
	// ErrInvalidOption rejects options not declared on the question.
	ErrInvalidOption = errors.New("invalid option")

	// ErrReplayNotFound indicates an unknown replay identity.
	ErrReplayNotFound = errors.New("replay not found")
	// ErrReplayExpired indicates the replay exists but is past retention.
	ErrReplayExpired = errors.New("replay expired")

	// ErrInvalidLimit rejects leaderboard limits outside the accepted range.
	ErrInvalidLimit = errors.New("limit out of range")
)

// RejectionReason maps a validation error to its stable wire reason, or ""
// for errors that are not answer rejections.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateAnswer):
		return "DuplicateAnswer"
	case errors.Is(err, ErrStaleQuestion):
		return "StaleOrWrongQuestion"
	case errors.Is(err, ErrLateSubmission):
		return "LateSubmission"
	case errors.Is(err, ErrInvalidOption):
		return "InvalidOption"
	case errors.Is(err, ErrSessionClosed):
		return "SessionClosed"
	case errors.Is(err, ErrSessionNotStarted):
		return "SessionNotStarted"
	}
	return ""
}
