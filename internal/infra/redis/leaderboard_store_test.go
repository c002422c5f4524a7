package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

func sessionScores() []domain.ReplayPlayerScore {
	return []domain.ReplayPlayerScore{
		{PlayerID: "u1", Nickname: "Alice", Score: 875, Rank: 1},
		{PlayerID: "u2", Nickname: "Bob", Score: 500, Rank: 2},
	}
}

func TestLeaderboardFoldIdempotent(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewLeaderboardStore(newClient(mr))
	ctx := context.Background()

	if err := store.Fold(ctx, "s1", sessionScores()); err != nil {
		t.Fatalf("fold: %v", err)
	}
	if err := store.Fold(ctx, "s1", sessionScores()); err != nil {
		t.Fatalf("refold: %v", err)
	}

	entries, err := store.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PlayerID != "u1" || entries[0].TotalScore != 875 || entries[0].SessionsPlayed != 1 {
		t.Fatalf("double-counted: %+v", entries[0])
	}
}

func TestLeaderboardFoldAccumulates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewLeaderboardStore(newClient(mr))
	ctx := context.Background()

	if err := store.Fold(ctx, "s1", sessionScores()); err != nil {
		t.Fatalf("fold s1: %v", err)
	}
	if err := store.Fold(ctx, "s2", []domain.ReplayPlayerScore{
		{PlayerID: "u2", Nickname: "Bob", Score: 2000, Rank: 1},
	}); err != nil {
		t.Fatalf("fold s2: %v", err)
	}

	entries, err := store.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if entries[0].PlayerID != "u2" || entries[0].TotalScore != 2500 {
		t.Fatalf("u2 should lead with 2500, got %+v", entries[0])
	}
	if entries[0].BestRank != 1 || entries[0].SessionsPlayed != 2 {
		t.Fatalf("u2 aggregates: %+v", entries[0])
	}
	if entries[1].PlayerID != "u1" || entries[1].TotalScore != 875 {
		t.Fatalf("u1 untouched by s2: %+v", entries[1])
	}
}

func TestLeaderboardTopRespectsLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewLeaderboardStore(newClient(mr))
	ctx := context.Background()

	if err := store.Fold(ctx, "s1", []domain.ReplayPlayerScore{
		{PlayerID: "pa", Nickname: "A", Score: 100, Rank: 3},
		{PlayerID: "pb", Nickname: "B", Score: 200, Rank: 2},
		{PlayerID: "pc", Nickname: "C", Score: 300, Rank: 1},
	}); err != nil {
		t.Fatalf("fold: %v", err)
	}

	entries, err := store.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(entries) != 2 || entries[0].PlayerID != "pc" || entries[1].PlayerID != "pb" {
		t.Fatalf("top 2 wrong: %+v", entries)
	}
}

func TestLeaderboardTopEmpty(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewLeaderboardStore(newClient(mr))
	entries, err := store.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", entries)
	}
}
