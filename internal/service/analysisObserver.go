package service

import (
	"context"

	"github.com/ds124wfegd/skysight/internal/database"
	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/ds124wfegd/skysight/internal/pkg/kafka"
	"github.com/ds124wfegd/skysight/internal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AnalysisObserver records metrics for every attempt, publishes it, and keeps successful analyses in history.
type AnalysisObserver struct {
	history  database.HistoryRepository
	producer kafka.Producer
}

func NewAnalysisObserver(history database.HistoryRepository, producer kafka.Producer) *AnalysisObserver {
	return &AnalysisObserver{history: history, producer: producer}
}

func (o *AnalysisObserver) UploadStarted(string) {
	metrics.UploadStarted()
}

func (o *AnalysisObserver) UploadFinished(ctx context.Context, event entity.AnalysisEvent) {
	metrics.UploadFinished(event.Outcome, event.Stale, event.Duration)

	log := logrus.WithFields(logrus.Fields{"view_id": event.ViewID, "token": event.Token})

	if o.producer != nil {
		if err := o.producer.Publish(ctx, event); err != nil {
			log.WithError(err).Error("failed to publish analysis event")
		}
	}

	if o.history == nil || event.Stale || event.Outcome != entity.OutcomeSuccess {
		return
	}

	record := &entity.AnalysisRecord{
		ID:                uuid.New().String(),
		ViewID:            event.ViewID,
		CaptionText:       event.Caption,
		CaptionConfidence: event.Confidence,
		ReadText:          event.ReadText,
		CreatedAt:         event.FinishedAt,
	}
	if err := o.history.Save(ctx, record); err != nil {
		log.WithError(err).Error("failed to save analysis result")
	}
}
