package session

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"lens-server-go/internal/platform/config"
	"lens-server-go/internal/platform/errors"
)

const defaultKeyPrefix = "lens:session:"

// sessionTTL bounds how long an idle session survives in Redis.
const sessionTTL = 24 * time.Hour

// RedisStore keeps session windows in Redis lists, trimmed on every append
// so a session never holds more than the window of exchanges (two messages
// per exchange).
type RedisStore struct {
	client *redis.Client
	prefix string
	window int
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg config.SessionRedisConfig, window int) (*RedisStore, error) {
	if window <= 0 {
		window = 5
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.KindPlatform, "session.redis", "failed to connect to redis", err)
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		window: window,
	}, nil
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, msg Message) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return errors.Wrap(errors.KindPlatform, "session.append", "failed to encode message", err)
	}

	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-2*s.window), -1)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.KindPlatform, "session.append", "failed to store message", err)
	}
	return nil
}

func (s *RedisStore) Window(ctx context.Context, sessionID string) ([]Message, error) {
	values, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(errors.KindPlatform, "session.window", "failed to read session history", err)
	}

	messages := make([]Message, 0, len(values))
	for _, value := range values {
		var msg Message
		if err := sonic.UnmarshalString(value, &msg); err != nil {
			return nil, errors.Wrap(errors.KindPlatform, "session.window", "failed to decode message", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return errors.Wrap(errors.KindPlatform, "session.clear", "failed to clear session", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
