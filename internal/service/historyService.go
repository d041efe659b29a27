package service

import (
	"context"

	"github.com/ds124wfegd/skysight/internal/database"
	"github.com/ds124wfegd/skysight/internal/entity"
)

const maxHistoryLimit = 100

type historyService struct {
	repo database.HistoryRepository
}

func NewHistoryService(repo database.HistoryRepository) HistoryService {
	return &historyService{repo: repo}
}

func (s *historyService) Recent(ctx context.Context, limit int) ([]entity.AnalysisRecord, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.Recent(ctx, limit)
}
