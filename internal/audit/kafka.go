package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"bondbook/pkg/platform/circuit"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher produces events as JSON records keyed by owner, so one
// owner's events stay ordered within a partition. While the broker keeps
// failing, a circuit breaker routes events to the fallback publisher.
type KafkaPublisher struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	fallback Publisher
	logger   *slog.Logger
}

type KafkaOption func(*KafkaPublisher)

func WithFallback(p Publisher) KafkaOption {
	return func(k *KafkaPublisher) {
		k.fallback = p
	}
}

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(k *KafkaPublisher) {
		k.breaker = b
	}
}

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(k *KafkaPublisher) {
		k.logger = logger
	}
}

func NewKafkaPublisher(producer Producer, topic string, opts ...KafkaOption) *KafkaPublisher {
	k := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("audit-kafka"),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	event = prepare(event)

	if !k.breaker.Allow() {
		return k.emitFallback(ctx, event, nil)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.OwnerID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := k.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		_, change := k.breaker.RecordFailure()
		if change.Opened && k.logger != nil {
			k.logger.WarnContext(ctx, "audit broker circuit opened", "topic", k.topic, "error", err)
		}
		return k.emitFallback(ctx, event, err)
	}

	_, change := k.breaker.RecordSuccess()
	if change.Closed && k.logger != nil {
		k.logger.InfoContext(ctx, "audit broker circuit closed", "topic", k.topic)
	}
	return nil
}

func (k *KafkaPublisher) emitFallback(ctx context.Context, event Event, cause error) error {
	if k.fallback == nil {
		if cause != nil {
			return fmt.Errorf("produce audit event: %w", cause)
		}
		return fmt.Errorf("produce audit event: circuit %s open", k.breaker.Name())
	}
	return k.fallback.Emit(ctx, event)
}
