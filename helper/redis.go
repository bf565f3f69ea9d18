package helper

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"smartmenu/logger"
)

var RedisClient *redis.Client

// Publisher fans a message out to every subscriber of a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message []byte) error
}

type redisPublisher struct {
	client *redis.Client
}

func (p redisPublisher) Publish(ctx context.Context, channel string, message []byte) error {
	return p.client.Publish(ctx, channel, message).Err()
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, []byte) error { return nil }

// Broadcaster is swapped for a recorder in tests.
var Broadcaster Publisher = nopPublisher{}

func ConnectRedis(addr string) *redis.Client {
	RedisClient = redis.NewClient(&redis.Options{Addr: addr})
	Broadcaster = redisPublisher{client: RedisClient}
	return RedisClient
}

func publishJSON(ctx context.Context, channel string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		appLog.Error("marshal_broadcast", err, logger.Fields{"channel": channel})
		return
	}
	if err := Broadcaster.Publish(ctx, channel, raw); err != nil {
		appLog.Error("broadcast", err, logger.Fields{"channel": channel})
	}
}
