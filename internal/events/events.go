// Package events publishes task change events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"taskboard/internal/config"
)

// Actions.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionUploaded = "uploaded"
)

// WriteTimeout bounds a single publish.
const WriteTimeout = 5 * time.Second

// Event describes one successful mutation or upload.
type Event struct {
	Action string    `json:"action"`
	TaskID int64     `json:"task_id,omitempty"`
	Title  string    `json:"title,omitempty"`
	Path   string    `json:"path,omitempty"`
	At     time.Time `json:"at"`
}

// Key returns the partition key: the task id, or the object path for uploads.
func (e Event) Key() string {
	if e.TaskID != 0 {
		return strconv.FormatInt(e.TaskID, 10)
	}
	return e.Path
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// New returns a Kafka publisher when brokers are configured, otherwise a
// publisher that drops every event.
func New(cfg config.KafkaConfig) Publisher {
	if len(cfg.Brokers) == 0 {
		return Nop{}
	}
	return NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON events to a topic.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher for topic on brokers.
// Messages are keyed so events for one task stay ordered.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes ev to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()

	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(ev.Key()),
		Value: value,
		Time:  ev.At,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// messageReader is the subset of *kafka.Reader used here.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Reader consumes events from a topic.
type Reader struct {
	reader messageReader
}

// NewReader creates a consumer in group on topic. A new group starts at the
// newest message.
func NewReader(brokers []string, topic, group string) *Reader {
	return &Reader{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     group,
			StartOffset: kafka.LastOffset,
		}),
	}
}

// Each calls fn for every event until ctx is cancelled or fn returns an
// error. Messages that are not events are reported to skip and ignored.
func (r *Reader) Each(ctx context.Context, fn func(Event) error, skip func(kafka.Message, error)) error {
	for {
		m, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		var ev Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			if skip != nil {
				skip(m, err)
			}
			continue
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

// Close closes the consumer.
func (r *Reader) Close() error {
	return r.reader.Close()
}
