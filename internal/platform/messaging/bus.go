package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	contractsv1 "qconnect/contracts/gen/events/v1"
)

const subscriberBuffer = 128

// ErrSubscriberBacklog is returned by Publish when a subscriber's buffer is
// full. The caller keeps the event and retries it later.
var ErrSubscriberBacklog = errors.New("subscriber backlog full")

type subscriber struct {
	consumerGroup string
	ch            chan contractsv1.Envelope
}

// Bus is the event bus used by the outbox relay and change projector. It
// delivers in process; broker addresses are kept for the external transport.
// Subscribers sharing a consumer group on a topic split its events.
type Bus struct {
	mu          sync.RWMutex
	brokers     []string
	subscribers map[string][]*subscriber
	next        map[string]int
	logger      *slog.Logger
	bufferSize  int
}

func NewBus(brokers []string, logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		brokers:     append([]string(nil), brokers...),
		subscribers: make(map[string][]*subscriber),
		next:        make(map[string]int),
		logger:      logger,
		bufferSize:  subscriberBuffer,
	}, nil
}

func (b *Bus) Brokers() []string {
	return append([]string(nil), b.brokers...)
}

func (b *Bus) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	targets := b.route(topic)

	for _, sub := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub.ch <- event:
		default:
			b.logger.Warn("subscriber backlog full",
				"event", "bus_publish_backlog",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", sub.consumerGroup,
				"event_id", event.EventID,
			)
			return fmt.Errorf("%w: topic %s consumer group %s", ErrSubscriberBacklog, topic, sub.consumerGroup)
		}
	}

	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"subscriber_count", len(targets),
	)
	return nil
}

// route picks one subscriber per consumer group, round robin.
func (b *Bus) route(topic string) []*subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	groups := make(map[string][]*subscriber)
	order := make([]string, 0)
	for _, sub := range b.subscribers[topic] {
		if _, ok := groups[sub.consumerGroup]; !ok {
			order = append(order, sub.consumerGroup)
		}
		groups[sub.consumerGroup] = append(groups[sub.consumerGroup], sub)
	}

	targets := make([]*subscriber, 0, len(order))
	for _, group := range order {
		members := groups[group]
		key := topic + "\x00" + group
		idx := b.next[key] % len(members)
		b.next[key] = idx + 1
		targets = append(targets, members[idx])
	}
	return targets
}

func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	sub := &subscriber{
		consumerGroup: strings.TrimSpace(consumerGroup),
		ch:            make(chan contractsv1.Envelope, b.bufferSize),
	}

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.removeSubscriber(topic, sub)
				return
			case event := <-sub.ch:
				if err := handler(ctx, event); err != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", sub.consumerGroup,
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

func (b *Bus) removeSubscriber(topic string, target *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]*subscriber, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	b.subscribers[topic] = filtered
}
