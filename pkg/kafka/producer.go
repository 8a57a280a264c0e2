package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON values to a single topic.
type Producer struct {
	writer MessageWriter
	topic  string
	comp   string

	messages *prometheus.CounterVec
	bytes    prometheus.Counter
	latency  prometheus.Histogram
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: 1,
		Compression:  "zstd",
		MaxAttempts:  3,
		WriteTimeout: 5 * time.Second,
		BatchTimeout: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}

	w := cfg.Writer
	if w == nil {
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("kafka: brokers are required")
		}
		w = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  parseCompression(cfg.Compression),
			MaxAttempts:  cfg.MaxAttempts,
			WriteTimeout: cfg.WriteTimeout,
			BatchTimeout: cfg.BatchTimeout,
			Async:        cfg.Async,
		}
	}

	f := promauto.With(cfg.Registerer)
	labels := prometheus.Labels{"topic": cfg.Topic, "compression": cfg.Compression}
	return &Producer{
		writer: w,
		topic:  cfg.Topic,
		comp:   cfg.Compression,
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "tradeyodha",
			Subsystem:   "kafka_producer",
			Name:        "messages_total",
			Help:        "Messages handed to the Kafka writer.",
			ConstLabels: labels,
		}, []string{"result"}),
		bytes: f.NewCounter(prometheus.CounterOpts{
			Namespace:   "tradeyodha",
			Subsystem:   "kafka_producer",
			Name:        "bytes_total",
			Help:        "Payload bytes handed to the Kafka writer.",
			ConstLabels: labels,
		}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "tradeyodha",
			Subsystem:   "kafka_producer",
			Name:        "publish_seconds",
			Help:        "Publish latency.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
	}, nil
}

func (p *Producer) Topic() string { return p.topic }

// Publish writes one message. Values that are not []byte or string are JSON-encoded.
func (p *Producer) Publish(ctx context.Context, key []byte, value interface{}) error {
	start := time.Now()
	v, err := encode(value)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: v, Time: start})
	p.latency.Observe(time.Since(start).Seconds())
	p.bytes.Add(float64(len(v)))
	if err != nil {
		p.messages.WithLabelValues("error").Inc()
		return fmt.Errorf("kafka publish to %s: %w", p.topic, err)
	}
	p.messages.WithLabelValues("ok").Inc()
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func encode(value interface{}) ([]byte, error) {
	switch val := value.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		return b, nil
	}
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	default:
		return kafka.Zstd
	}
}
