package messaging

import (
	"context"
	"log/slog"
	"sync"

	"agora/contexts/governance/session-engine/ports"
)

const subscriberBuffer = 128

// subscription is one consumer-group member on a topic.
type subscription struct {
	group string
	ch    chan ports.EventEnvelope
}

// Kafka is the event bus adapter behind the outbox relay. The current
// implementation is in-process publish/subscribe while runtime wiring is
// finalized for external brokers; it keeps the broker's delivery contract of
// one copy per consumer group per topic.
type Kafka struct {
	mu          sync.RWMutex
	subscribers map[string][]subscription
	logger      *slog.Logger
}

func NewKafka(_ []string, logger *slog.Logger) (*Kafka, error) {
	return &Kafka{
		subscribers: make(map[string][]subscription),
		logger:      logger,
	}, nil
}

// Publish hands the event to one member of every consumer group subscribed
// to the topic. A group whose members all have full buffers loses the event,
// with a warning; the relay marks rows published regardless, matching an
// at-most-once local bus.
func (k *Kafka) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	k.mu.RLock()
	subs := append([]subscription(nil), k.subscribers[topic]...)
	k.mu.RUnlock()

	delivered := make(map[string]bool)
	for _, sub := range subs {
		if delivered[sub.group] {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub.ch <- event:
			delivered[sub.group] = true
		default:
		}
	}
	for _, sub := range subs {
		if delivered[sub.group] {
			continue
		}
		delivered[sub.group] = true
		if k.logger != nil {
			k.logger.Warn("dropping event for saturated consumer group",
				"event", "kafka_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", sub.group,
				"event_id", event.EventID,
			)
		}
	}

	if k.logger != nil {
		k.logger.Info("event published",
			"event", "kafka_publish",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
	}
	return nil
}

// Subscribe registers one consumer-group member and pumps its channel into
// the handler until the context ends.
func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	sub := subscription{
		group: consumerGroup,
		ch:    make(chan ports.EventEnvelope, subscriberBuffer),
	}

	k.mu.Lock()
	k.subscribers[topic] = append(k.subscribers[topic], sub)
	k.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				k.removeSubscription(topic, sub.ch)
				return
			case event := <-sub.ch:
				if err := handler(ctx, event); err != nil && k.logger != nil {
					k.logger.Error("consumer handler failed",
						"event", "kafka_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (k *Kafka) removeSubscription(topic string, target chan ports.EventEnvelope) {
	k.mu.Lock()
	defer k.mu.Unlock()

	items := k.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]subscription, 0, len(items))
	for _, item := range items {
		if item.ch != target {
			filtered = append(filtered, item)
		}
	}
	k.subscribers[topic] = filtered
}
