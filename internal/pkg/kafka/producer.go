package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	Publish(ctx context.Context, event entity.AnalysisEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	log := logrus.WithFields(logrus.Fields{"brokers": brokers, "topic": topic})

	if len(brokers) == 0 {
		log.Warn("No Kafka brokers configured, using mock producer instead")
		return NewMockProducer()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		log.WithError(err).Warn("Kafka connection failed, using mock producer instead")
		return NewMockProducer()
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		log.WithError(err).Info("Could not create topic (might already exist)")
	}

	log.Info("Connected to Kafka")
	return &kafkaProducer{writer: writer, topic: topic}
}

func (p *kafkaProducer) Publish(ctx context.Context, event entity.AnalysisEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// keyed by view so one session's events stay ordered on a partition
	msg := kafka.Message{
		Key:   []byte(event.ViewID),
		Value: value,
		Time:  event.FinishedAt,
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logrus.WithError(err).WithField("topic", p.topic).Error("Failed to write message to Kafka")
		return err
	}
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// MockProducer stands in when Kafka is disabled or unreachable; it logs and keeps the last events.
type MockProducer struct {
	mu     sync.Mutex
	events []entity.AnalysisEvent
}

func NewMockProducer() *MockProducer {
	return &MockProducer{}
}

func (m *MockProducer) Publish(_ context.Context, event entity.AnalysisEvent) error {
	logrus.WithFields(logrus.Fields{
		"view_id": event.ViewID,
		"outcome": event.Outcome.String(),
		"stale":   event.Stale,
	}).Debug("MOCK: analysis event")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	if len(m.events) > 100 {
		m.events = m.events[1:]
	}
	return nil
}

func (m *MockProducer) Events() []entity.AnalysisEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.AnalysisEvent(nil), m.events...)
}

func (m *MockProducer) Close() error {
	return nil
}
