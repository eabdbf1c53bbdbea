package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"printconnect/internal/config"
)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return rdb, nil
}

// Redis is a Feed over Redis pub/sub, one channel per table ("<prefix>:<table>").
// It lets every API instance see changes made through any other instance.
type Redis struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

var _ Feed = (*Redis)(nil)

func NewRedis(client *redis.Client, prefix string, log zerolog.Logger) *Redis {
	if prefix == "" {
		prefix = "changes"
	}
	return &Redis{client: client, prefix: prefix, log: log}
}

func (r *Redis) channel(table string) string {
	return r.prefix + ":" + table
}

func (r *Redis) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel(ev.Table), data).Err()
}

// Subscribe blocks until Redis confirms the subscription.
func (r *Redis) Subscribe(ctx context.Context, table string, fn func(Event)) (Subscription, error) {
	ps := r.client.Subscribe(ctx, r.channel(table))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}

	ch := ps.Channel()
	go func() {
		for msg := range ch {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed change event")
				continue
			}
			fn(ev)
		}
	}()
	return &redisSub{ps: ps}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

type redisSub struct {
	ps   *redis.PubSub
	once sync.Once
	err  error
}

func (s *redisSub) Close() error {
	s.once.Do(func() { s.err = s.ps.Close() })
	return s.err
}
