package gamification

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Entry is one leaderboard position.
type Entry struct {
	Rank      int    `json:"rank"`
	AccountID string `json:"account_id"`
	Name      string `json:"name,omitempty"`
	Points    int64  `json:"points"`
	Level     int    `json:"level"`
}

// Leaderboard keeps each family's accounts in a Redis sorted set scored by points.
type Leaderboard struct {
	rdb    *redis.Client
	prefix string
}

// NewLeaderboard creates a Leaderboard. A nil client disables it.
func NewLeaderboard(rdb *redis.Client) *Leaderboard {
	return &Leaderboard{rdb: rdb, prefix: "piggybank:leaderboard:"}
}

// Enabled reports whether a Redis client is configured.
func (l *Leaderboard) Enabled() bool {
	return l != nil && l.rdb != nil
}

func (l *Leaderboard) key(familyID string) string {
	return l.prefix + familyID
}

// Record sets the score of an account within its family.
func (l *Leaderboard) Record(ctx context.Context, familyID, accountID string, points int64) error {
	if !l.Enabled() {
		return nil
	}
	if err := l.rdb.ZAdd(ctx, l.key(familyID), &redis.Z{Score: float64(points), Member: accountID}).Err(); err != nil {
		return fmt.Errorf("leaderboard: record %s: %w", accountID, err)
	}
	return nil
}

// Top returns the n best accounts of a family, highest score first.
func (l *Leaderboard) Top(ctx context.Context, familyID string, n int) ([]Entry, error) {
	if !l.Enabled() {
		return nil, nil
	}
	zs, err := l.rdb.ZRevRangeWithScores(ctx, l.key(familyID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: top: %w", err)
	}

	entries := make([]Entry, 0, len(zs))
	for i, z := range zs {
		points := int64(z.Score)
		entries = append(entries, Entry{
			Rank:      i + 1,
			AccountID: fmt.Sprint(z.Member),
			Points:    points,
			Level:     LevelFor(points),
		})
	}
	return entries, nil
}
