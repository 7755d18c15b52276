package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Scoreboard mirrors team scores in a sorted set per game so readers outside
// the service can rank teams without touching Postgres.
// Scores are stored as: ZADD game:{gameID}:scores {score} {teamID}
type Scoreboard struct {
	client *redis.Client
}

func NewScoreboard(client *redis.Client) *Scoreboard {
	return &Scoreboard{client: client}
}

func (s *Scoreboard) AddPoints(ctx context.Context, gameID, teamID string, points int) error {
	if err := s.client.ZIncrBy(ctx, s.key(gameID), float64(points), teamID).Err(); err != nil {
		return fmt.Errorf("zincrby: %w", err)
	}
	return nil
}

// Replace overwrites the whole board with authoritative scores.
func (s *Scoreboard) Replace(ctx context.Context, gameID string, scores map[string]int) error {
	key := s.key(gameID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(scores) == 0 {
			return nil
		}
		members := make([]redis.Z, 0, len(scores))
		for teamID, score := range scores {
			members = append(members, redis.Z{Score: float64(score), Member: teamID})
		}
		pipe.ZAdd(ctx, key, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace scores: %w", err)
	}
	return nil
}

// Scores returns the cached board of a game.
func (s *Scoreboard) Scores(ctx context.Context, gameID string) (map[string]int, error) {
	entries, err := s.client.ZRevRangeWithScores(ctx, s.key(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange: %w", err)
	}
	out := make(map[string]int, len(entries))
	for _, z := range entries {
		member, _ := z.Member.(string)
		out[member] = int(z.Score)
	}
	return out, nil
}

func (s *Scoreboard) key(gameID string) string {
	return "game:" + gameID + ":scores"
}
