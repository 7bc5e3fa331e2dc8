package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Cairn-Labs/listing-steward/pkg/contracts"
)

// DefaultChannel is the pub/sub channel monitoring subscribes to.
const DefaultChannel = "steward:events"

// RedisEmitter publishes events as JSON on a Redis pub/sub channel.
type RedisEmitter struct {
	client  *redis.Client
	channel string
}

// NewRedisEmitter creates an emitter publishing to channel on the Redis
// instance at addr. An empty channel falls back to DefaultChannel.
func NewRedisEmitter(addr, password string, db int, channel string) *RedisEmitter {
	if channel == "" {
		channel = DefaultChannel
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisEmitter{client: rdb, channel: channel}
}

// NewRedisEmitterWithClient wraps an existing client. Used by tests.
func NewRedisEmitterWithClient(client *redis.Client, channel string) *RedisEmitter {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisEmitter{client: client, channel: channel}
}

// Emit publishes the event.
func (e *RedisEmitter) Emit(ctx context.Context, event contracts.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := e.client.Publish(ctx, e.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event to redis: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (e *RedisEmitter) Close() error {
	return e.client.Close()
}
