package database

import (
	"context"
	"database/sql"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/ds124wfegd/skysight/internal/pkg/storage"
)

type HistoryRepository interface {
	Save(ctx context.Context, record *entity.AnalysisRecord) error
	Recent(ctx context.Context, limit int) ([]entity.AnalysisRecord, error)
}

type fileHistoryRepository struct {
	storage storage.FileStorage
}

type postgresHistoryRepository struct {
	db *sql.DB
}
