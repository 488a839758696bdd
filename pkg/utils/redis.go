package utils

import (
	"context"
	"encoding/json"
	"fmt"

	"judgecore/pkg/types"

	"github.com/redis/go-redis/v9"
)

// RedisClient fans verdicts and ranklist invalidations out to subscribers.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

func VerdictChannel(contestID uint32) string {
	return fmt.Sprintf("judge:verdicts:%d", contestID)
}

func LeaderboardChannel(contestID uint32) string {
	return fmt.Sprintf("judge:leaderboard:%d", contestID)
}

func (r *RedisClient) PublishVerdictUpdate(ctx context.Context, contestID uint32, update types.VerdictUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	return r.client.Publish(ctx, VerdictChannel(contestID), data).Err()
}

func (r *RedisClient) SubscribeToVerdictUpdates(ctx context.Context, contestID uint32) *redis.PubSub {
	return r.client.Subscribe(ctx, VerdictChannel(contestID))
}

func (r *RedisClient) PublishLeaderboardUpdate(ctx context.Context, contestID uint32, update types.LeaderboardUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard update: %w", err)
	}

	return r.client.Publish(ctx, LeaderboardChannel(contestID), data).Err()
}

func (r *RedisClient) SubscribeToLeaderboardUpdates(ctx context.Context, contestID uint32) *redis.PubSub {
	return r.client.Subscribe(ctx, LeaderboardChannel(contestID))
}
