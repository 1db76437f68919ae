package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emberchat/ember/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type envelope struct {
	Event Kind            `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Notifier publishes typed room events to the Redis channel chat:{roomId}.
// Delivery is best-effort: a publish failure is returned to the caller but
// never rolls back the mutation that triggered it.
type Notifier struct {
	client *redis.Client
	logger *logger.Logger
}

func NewNotifier(client *redis.Client, logger *logger.Logger) *Notifier {
	return &Notifier{
		client: client,
		logger: logger,
	}
}

func ChannelName(roomID string) string {
	return fmt.Sprintf("chat:%s", roomID)
}

func (n *Notifier) Publish(ctx context.Context, roomID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Kind(), err)
	}

	payload, err := json.Marshal(envelope{Event: event.Kind(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := n.client.Publish(ctx, ChannelName(roomID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Kind(), err)
	}
	return nil
}

// PublishAsync fires the event off the caller's critical path, logging
// instead of returning failures.
func (n *Notifier) PublishAsync(roomID string, event Event) {
	go func() {
		if err := n.Publish(context.Background(), roomID, event); err != nil {
			n.logger.Warn("event publish failed",
				zap.String("roomID", roomID),
				zap.String("kind", string(event.Kind())),
				zap.Error(err),
			)
		}
	}()
}

// Subscribe delivers the room's events as typed variants until ctx is
// cancelled. Unknown kinds are dropped with a warning so schema growth on
// the publisher side never wedges a consumer.
func (n *Notifier) Subscribe(ctx context.Context, roomID string) (<-chan Event, error) {
	sub := n.client.Subscribe(ctx, ChannelName(roomID))
	// Force the subscription before the caller relies on it.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to room channel: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				event, err := decode([]byte(msg.Payload))
				if err != nil {
					n.logger.Warn("dropping undecodable event",
						zap.String("roomID", roomID),
						zap.Error(err),
					)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func decode(payload []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	var event Event
	switch env.Event {
	case KindJoin:
		var e Join
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, err
		}
		event = e
	case KindLeave:
		var e Leave
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, err
		}
		event = e
	case KindDestroy:
		var e Destroy
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, err
		}
		event = e
	case KindTyping:
		var e Typing
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, err
		}
		event = e
	case KindKeyExchange:
		var e KeyExchange
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, err
		}
		event = e
	case KindMessage:
		var e Message
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, err
		}
		event = e
	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Event)
	}
	return event, nil
}
