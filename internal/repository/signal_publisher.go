package repository

import (
	"context"
	"time"

	pkgkafka "TradeYodha/pkg/kafka"

	"github.com/google/uuid"
)

const SignalSchemaVersion = 1

// SignalEvent is the envelope written for every freshly computed signal.
type SignalEvent struct {
	ID        string      `json:"id"`
	Version   int         `json:"version"`
	Kind      string      `json:"kind"`
	Scope     string      `json:"scope"`
	Source    string      `json:"source"`
	EmittedAt time.Time   `json:"emittedAt"`
	Payload   interface{} `json:"payload"`
}

// KafkaSignalPublisher keys messages by kind and scope so one scope's signals
// stay ordered within a partition.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	source   string
	now      func() time.Time
	newID    func() string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, source string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{
		producer: producer,
		source:   source,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, kind, scope string, payload interface{}) error {
	ev := SignalEvent{
		ID:        p.newID(),
		Version:   SignalSchemaVersion,
		Kind:      kind,
		Scope:     scope,
		Source:    p.source,
		EmittedAt: p.now().UTC(),
		Payload:   payload,
	}
	return p.producer.Publish(ctx, []byte(kind+":"+scope), ev)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
