package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type EventHandler func(ctx context.Context, event entity.AnalysisEvent) error

// Consume reads analysis events from topic until ctx is done. Undecodable messages are skipped.
func Consume(ctx context.Context, brokers []string, topic, groupID string, handle EventHandler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	defer reader.Close()

	log := logrus.WithFields(logrus.Fields{"brokers": brokers, "topic": topic, "group": groupID})
	log.Info("Analysis event consumer started")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Error("Error reading message from Kafka")
			continue
		}

		event, err := DecodeEvent(msg.Value)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Warn("Failed to parse analysis event")
			continue
		}

		if err := handle(ctx, event); err != nil {
			log.WithError(err).WithField("view_id", event.ViewID).Error("Analysis event handler failed")
		}
	}
}

func DecodeEvent(value []byte) (entity.AnalysisEvent, error) {
	var event entity.AnalysisEvent
	err := json.Unmarshal(value, &event)
	return event, err
}
