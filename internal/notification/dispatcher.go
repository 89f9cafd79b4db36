package notification

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dispatcher delivers notifications to a user's devices.
type Dispatcher interface {
	RequestPermission(ctx context.Context, userID string) (bool, error)
	Dispatch(ctx context.Context, n Notification) error
}

// RedisDispatcher publishes notifications as JSON on "<prefix>:<userID>".
// Users who opted out have the key "<prefix>:optout:<userID>" set.
type RedisDispatcher struct {
	client *redis.Client
	prefix string
}

func NewRedisDispatcher(client *redis.Client, prefix string) *RedisDispatcher {
	if prefix == "" {
		prefix = "notifications"
	}
	return &RedisDispatcher{client: client, prefix: prefix}
}

// Channel returns the pub/sub channel of a user.
func (d *RedisDispatcher) Channel(userID string) string {
	return d.prefix + ":" + userID
}

func (d *RedisDispatcher) RequestPermission(ctx context.Context, userID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.prefix+":optout:"+userID).Result()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return d.client.Publish(ctx, d.Channel(n.UserID), payload).Err()
}

// LogDispatcher writes notifications to the log. Every user is permitted.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) RequestPermission(context.Context, string) (bool, error) {
	return true, nil
}

func (d *LogDispatcher) Dispatch(_ context.Context, n Notification) error {
	d.log.Info("notification",
		zap.String("id", n.ID),
		zap.String("user_id", n.UserID),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.Any("data", n.Data))
	return nil
}
