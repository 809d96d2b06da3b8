package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Redis channel used when none is configured.
const DefaultChannel = "crm:events"

// RedisFanout publishes to the local bus and to a Redis channel, and relays
// events published by other instances into the local bus.
type RedisFanout struct {
	client   *redis.Client
	channel  string
	bus      *Bus
	instance string
	logger   *zap.Logger
}

// NewRedisFanout wraps bus. Each fanout tags outgoing events with its own
// instance id so it can ignore its own messages on the way back.
func NewRedisFanout(client *redis.Client, channel string, bus *Bus, logger *zap.Logger) *RedisFanout {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFanout{client: client, channel: channel, bus: bus, instance: uuid.NewString(), logger: logger}
}

// Publish delivers locally first. A Redis failure is logged and never
// surfaces to the caller.
func (f *RedisFanout) Publish(ctx context.Context, evt Event) {
	if evt.Source == "" {
		evt.Source = f.instance
	}
	f.bus.Publish(ctx, evt)

	data, err := json.Marshal(evt)
	if err != nil {
		f.logger.Warn("failed to encode event for fanout", zap.String("event", string(evt.Name)), zap.Error(err))
		return
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		f.logger.Warn("failed to fan out event", zap.String("event", string(evt.Name)), zap.Error(err))
	}
}

// Start subscribes to the channel and relays remote events until ctx is
// cancelled. It returns once the subscription is confirmed.
func (f *RedisFanout) Start(ctx context.Context) error {
	sub := f.client.Subscribe(ctx, f.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}
	go f.relay(ctx, sub)
	return nil
}

func (f *RedisFanout) relay(ctx context.Context, sub *redis.PubSub) {
	defer sub.Close()
	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				f.logger.Warn("dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if evt.Source == f.instance {
				continue
			}
			f.bus.Publish(ctx, evt)
		}
	}
}
