package live

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the pub/sub channel carrying schedule change events.
const DefaultChannel = "scheduleUpdate"

// Update announces that the weekly schedule of one group and semester
// changed. Emitted after a successful upload, consumed by every connected
// console to decide whether to re-fetch.
type Update struct {
	UpdatedGroup    string `json:"updatedGroup"`
	UpdatedSemester string `json:"updatedSemester"`
}

// Matches reports whether an update concerns the given selection. Both the
// group and the semester must match exactly.
func Matches(u Update, group, semester string) bool {
	return u.UpdatedGroup == group && u.UpdatedSemester == semester
}

// Notifier is the schedule change channel. It is constructed explicitly and
// injected so tests can substitute a fake; Subscribe's stop function closes
// the subscription and, eventually, the returned channel.
type Notifier interface {
	Publish(ctx context.Context, u Update) error
	Subscribe(ctx context.Context) (<-chan Update, func())
}

// RedisNotifier carries updates over a redis pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisNotifier(client *redis.Client, channel string, log *zap.Logger) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel, log: log}
}

func (n *RedisNotifier) Publish(ctx context.Context, u Update) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.channel, payload).Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context) (<-chan Update, func()) {
	sub := n.client.Subscribe(ctx, n.channel)
	updates := make(chan Update)
	go func() {
		defer close(updates)
		for msg := range sub.Channel() {
			var u Update
			if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
				n.log.Warn("dropping malformed schedule update", zap.Error(err))
				continue
			}
			select {
			case updates <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	stop := func() {
		if err := sub.Close(); err != nil {
			n.log.Warn("closing schedule update subscription", zap.Error(err))
		}
	}
	return updates, stop
}
