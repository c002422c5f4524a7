package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

// LeaderboardStore keeps the global leaderboard and its applied-sessions
// set in Postgres. A fold runs in one transaction: the session-ID insert
// doubles as the idempotence check, so the deltas and the marker commit or
// roll back together.
type LeaderboardStore struct {
	pool *pgxpool.Pool
}

func NewLeaderboardStore(pool *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

func (s *LeaderboardStore) Fold(ctx context.Context, sessionID string, scores []domain.ReplayPlayerScore) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin fold: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO leaderboard_folds (session_id, applied_at)
		VALUES ($1, now())
		ON CONFLICT (session_id) DO NOTHING`, sessionID)
	if err != nil {
		return fmt.Errorf("mark fold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// already folded
		return tx.Commit(ctx)
	}

	for _, score := range scores {
		_, err := tx.Exec(ctx, `
			INSERT INTO leaderboard_entries (player_id, nickname, total_score, sessions_played, best_rank, updated_at)
			VALUES ($1, $2, $3, 1, $4, now())
			ON CONFLICT (player_id) DO UPDATE SET
				nickname        = EXCLUDED.nickname,
				total_score     = leaderboard_entries.total_score + EXCLUDED.total_score,
				sessions_played = leaderboard_entries.sessions_played + 1,
				best_rank       = CASE
					WHEN leaderboard_entries.best_rank = 0 OR EXCLUDED.best_rank < leaderboard_entries.best_rank
					THEN EXCLUDED.best_rank
					ELSE leaderboard_entries.best_rank
				END,
				updated_at      = now()`,
			score.PlayerID, score.Nickname, score.Score, score.Rank)
		if err != nil {
			return fmt.Errorf("fold entry %s: %w", score.PlayerID, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *LeaderboardStore) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, nickname, total_score, sessions_played, best_rank, updated_at
		FROM leaderboard_entries
		ORDER BY total_score DESC, player_id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard top: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var entry domain.LeaderboardEntry
		if err := rows.Scan(&entry.PlayerID, &entry.Nickname, &entry.TotalScore, &entry.SessionsPlayed, &entry.BestRank, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard rows: %w", err)
	}
	return entries, nil
}
