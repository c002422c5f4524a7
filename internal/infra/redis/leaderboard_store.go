package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

const (
	// boardKey is the sorted set holding composite scores per player.
	boardKey = "leaderboard:scores"
	// playersKey is the hash of player ID -> JSON LeaderboardEntry.
	playersKey = "leaderboard:players"
	// foldedKey is the set of session IDs already folded in.
	foldedKey = "leaderboard:folded"

	// timestampDivisor folds an update timestamp into the fractional part
	// of the ZSET score so that, at equal totals, the player who got there
	// earlier sorts higher without disturbing the integer score.
	timestampDivisor = 10_000_000_000

	foldRetries = 8
)

// compositeScore packs (total, earlier-wins timestamp) into one float for
// the sorted set.
func compositeScore(total int, unixNano int64) float64 {
	return float64(total) + (1.0 - float64(unixNano)/float64(timestampDivisor)/1e9)
}

// LeaderboardStore keeps the global leaderboard in Redis. Fold idempotence
// is guarded by the folded-sessions set; the membership check and the score
// deltas commit in one WATCH-guarded transaction, so a session can never be
// half-applied or applied twice.
type LeaderboardStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewLeaderboardStore(client *redis.Client) *LeaderboardStore {
	return &LeaderboardStore{client: client, clock: time.Now}
}

func (s *LeaderboardStore) Fold(ctx context.Context, sessionID string, scores []domain.ReplayPlayerScore) error {
	txf := func(tx *redis.Tx) error {
		done, err := tx.SIsMember(ctx, foldedKey, sessionID).Result()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		now := s.clock()
		updated := make(map[string]domain.LeaderboardEntry, len(scores))
		for _, score := range scores {
			entry := domain.LeaderboardEntry{PlayerID: score.PlayerID}
			raw, err := tx.HGet(ctx, playersKey, score.PlayerID).Bytes()
			if err == nil {
				if jsonErr := json.Unmarshal(raw, &entry); jsonErr != nil {
					return fmt.Errorf("decode leaderboard entry %s: %w", score.PlayerID, jsonErr)
				}
			} else if !errors.Is(err, redis.Nil) {
				return err
			}

			entry.Nickname = score.Nickname
			entry.TotalScore += score.Score
			entry.SessionsPlayed++
			if entry.BestRank == 0 || score.Rank < entry.BestRank {
				entry.BestRank = score.Rank
			}
			entry.UpdatedAt = now
			updated[score.PlayerID] = entry
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for playerID, entry := range updated {
				raw, jsonErr := json.Marshal(entry)
				if jsonErr != nil {
					return jsonErr
				}
				pipe.HSet(ctx, playersKey, playerID, raw)
				pipe.ZAdd(ctx, boardKey, redis.Z{
					Score:  compositeScore(entry.TotalScore, now.UnixNano()),
					Member: playerID,
				})
			}
			pipe.SAdd(ctx, foldedKey, sessionID)
			return nil
		})
		return err
	}

	for i := 0; i < foldRetries; i++ {
		err := s.client.Watch(ctx, txf, foldedKey, playersKey)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // keys moved under us, retry the whole fold
		}
		return fmt.Errorf("leaderboard fold %s: %w", sessionID, err)
	}
	return fmt.Errorf("leaderboard fold %s: %w", sessionID, redis.TxFailedErr)
}

func (s *LeaderboardStore) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	members, err := s.client.ZRevRange(ctx, boardKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard top: %w", err)
	}
	if len(members) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	raws, err := s.client.HMGet(ctx, playersKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard entries: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(members))
	for i, raw := range raws {
		str, ok := raw.(string)
		if !ok {
			continue // member without metadata, skip
		}
		var entry domain.LeaderboardEntry
		if jsonErr := json.Unmarshal([]byte(str), &entry); jsonErr != nil {
			return nil, fmt.Errorf("decode leaderboard entry %s: %w", members[i], jsonErr)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
