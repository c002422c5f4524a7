package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

// ReplayStore persists replays as JSONB documents with the two mutable
// fields (view_count, is_public) kept in their own columns so the document
// itself never changes after insert.
type ReplayStore struct {
	pool *pgxpool.Pool
}

func NewReplayStore(pool *pgxpool.Pool) *ReplayStore {
	return &ReplayStore{pool: pool}
}

func (s *ReplayStore) Save(ctx context.Context, replay domain.GameReplay) error {
	data, err := json.Marshal(replay)
	if err != nil {
		return fmt.Errorf("marshal replay: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO replays (id, session_id, data, is_public, view_count, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		replay.ID, replay.SessionID, data, replay.IsPublic, replay.ViewCount, replay.CreatedAt, replay.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save replay: %w", err)
	}
	return nil
}

func (s *ReplayStore) Get(ctx context.Context, replayID string) (domain.GameReplay, error) {
	var (
		raw       []byte
		isPublic  bool
		viewCount int
	)
	err := s.pool.QueryRow(ctx, `
		UPDATE replays SET view_count = view_count + 1
		WHERE id=$1 AND expires_at > now()
		RETURNING data, is_public, view_count`, replayID).
		Scan(&raw, &isPublic, &viewCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GameReplay{}, s.missingErr(ctx, replayID)
	}
	if err != nil {
		return domain.GameReplay{}, fmt.Errorf("get replay: %w", err)
	}

	var replay domain.GameReplay
	if err := json.Unmarshal(raw, &replay); err != nil {
		return domain.GameReplay{}, fmt.Errorf("unmarshal replay: %w", err)
	}
	replay.IsPublic = isPublic
	replay.ViewCount = viewCount
	return replay, nil
}

func (s *ReplayStore) SetVisibility(ctx context.Context, replayID string, public bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE replays SET is_public=$2
		WHERE id=$1 AND expires_at > now()`, replayID, public)
	if err != nil {
		return fmt.Errorf("set visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missingErr(ctx, replayID)
	}
	return nil
}

func (s *ReplayStore) RecordShare(ctx context.Context, share domain.ReplayShare) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_shares (id, replay_id, platform, origin, shared_at)
		VALUES ($1, $2, $3, $4, $5)`,
		share.ID, share.ReplayID, share.Platform, share.Origin, share.SharedAt)
	if err != nil {
		return fmt.Errorf("record share: %w", err)
	}
	return nil
}

// missingErr tells an expired replay apart from an unknown one so clients
// can explain the absence.
func (s *ReplayStore) missingErr(ctx context.Context, replayID string) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT true FROM replays WHERE id=$1`, replayID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrReplayNotFound
	}
	if err != nil {
		return fmt.Errorf("check replay: %w", err)
	}
	return domain.ErrReplayExpired
}
