package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DoyleJ11/live-scoreboard/internal/types"
)

// Dial connects to a single Redis node and pings it.
func Dial(addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// publisher is the slice of redis.Cmdable the mirror needs.
type publisher interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Redis mirrors leaderboard broadcasts into Redis: the latest snapshot is stored under Key
// and also published on a channel of the same name. Only the newest pending snapshot is
// kept, so a slow Redis never delays the hub.
type Redis struct {
	client  publisher
	key     string
	timeout time.Duration
	latest  chan []byte
	log     *zap.Logger
}

func NewRedis(client publisher, key string, log *zap.Logger) *Redis {
	return &Redis{
		client:  client,
		key:     key,
		timeout: 2 * time.Second,
		latest:  make(chan []byte, 1),
		log:     log.Named("mirror"),
	}
}

// Publish is called from the hub goroutine and returns immediately.
func (m *Redis) Publish(msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		m.log.Error("encode snapshot", zap.Error(err))
		return
	}
	for {
		select {
		case m.latest <- payload:
			return
		default:
			select {
			case <-m.latest: // discard the stale snapshot
			default:
			}
		}
	}
}

// Run writes snapshots until ctx is done.
func (m *Redis) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload := <-m.latest:
			m.write(ctx, payload)
		}
	}
}

func (m *Redis) write(ctx context.Context, payload []byte) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.client.Set(ctx, m.key, payload, 0).Err(); err != nil {
		m.log.Warn("store snapshot", zap.String("key", m.key), zap.Error(err))
		return
	}
	if err := m.client.Publish(ctx, m.key, payload).Err(); err != nil {
		m.log.Warn("publish snapshot", zap.String("channel", m.key), zap.Error(err))
	}
}
