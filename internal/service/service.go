package service

import (
	"context"

	"github.com/ds124wfegd/skysight/internal/database"
	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/ds124wfegd/skysight/internal/locator"
	"github.com/ds124wfegd/skysight/internal/pkg/analyzer"
	"github.com/ds124wfegd/skysight/internal/pkg/kafka"
	"github.com/ds124wfegd/skysight/internal/pkg/preview"
	"github.com/ds124wfegd/skysight/internal/view"
)

type ViewService interface {
	// View returns the session's view, creating and mounting it when id is unknown or empty.
	View(ctx context.Context, id string) *view.UploadView
	Lookup(id string) (*view.UploadView, error)
	Select(ctx context.Context, id string, file entity.ImageFile) (string, error)
	Preview(ctx context.Context, id string) (*preview.Preview, error)
	Close()
}

type HistoryService interface {
	Recent(ctx context.Context, limit int) ([]entity.AnalysisRecord, error)
}

type Service struct {
	ViewService
	HistoryService
}

type Deps struct {
	Locator  *locator.Once
	Analyzer analyzer.Analyzer
	Previews preview.Store
	History  database.HistoryRepository
	Producer kafka.Producer
}

func NewService(base context.Context, deps Deps, opts ViewOptions) *Service {
	observer := NewAnalysisObserver(deps.History, deps.Producer)
	return &Service{
		ViewService:    NewViewService(base, deps, observer, opts),
		HistoryService: NewHistoryService(deps.History),
	}
}
