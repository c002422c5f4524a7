package app

import (
	"sort"

	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

// rankPlayers produces the final ranked score list for a set of player
// states. Order is score descending, then earliest join time, then player ID
// ascending. Player IDs are unique, so the order is total; ranks are dense
// and unique, 1..N.
func rankPlayers(players []*playerState) []domain.ReplayPlayerScore {
	sorted := make([]*playerState, len(players))
	copy(sorted, players)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].score != sorted[j].score {
			return sorted[i].score > sorted[j].score
		}
		if !sorted[i].joinedAt.Equal(sorted[j].joinedAt) {
			return sorted[i].joinedAt.Before(sorted[j].joinedAt)
		}
		return sorted[i].playerID < sorted[j].playerID
	})

	scores := make([]domain.ReplayPlayerScore, len(sorted))
	for i, p := range sorted {
		scores[i] = domain.ReplayPlayerScore{
			PlayerID: p.playerID,
			Nickname: p.nickname,
			UserID:   p.userID,
			Score:    p.score,
			Rank:     i + 1,
		}
	}
	return scores
}
