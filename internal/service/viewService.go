package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/ds124wfegd/skysight/internal/pkg/metrics"
	"github.com/ds124wfegd/skysight/internal/pkg/preview"
	"github.com/ds124wfegd/skysight/internal/view"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

type ViewOptions struct {
	TTL  time.Duration
	View view.Options
}

type viewService struct {
	base     context.Context
	deps     Deps
	observer view.Observer
	opts     ViewOptions
	views    *cache.Cache
}

func NewViewService(base context.Context, deps Deps, observer view.Observer, opts ViewOptions) ViewService {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}

	s := &viewService{
		base:     base,
		deps:     deps,
		observer: observer,
		opts:     opts,
		views:    cache.New(opts.TTL, opts.TTL/2),
	}
	// an expired session is a torn down view: its preview goes with it
	s.views.OnEvicted(func(id string, v interface{}) {
		v.(*view.UploadView).Close(context.Background())
		metrics.SetActiveViews(s.views.ItemCount())
		logrus.WithField("view_id", id).Debug("view expired")
	})
	return s
}

func (s *viewService) View(ctx context.Context, id string) *view.UploadView {
	if id != "" {
		if v, ok := s.views.Get(id); ok {
			// sliding expiry while the session is used
			s.views.SetDefault(id, v)
			return v.(*view.UploadView)
		}
	}

	id = uuid.New().String()
	v := view.New(s.base, id, s.deps.Locator, s.deps.Analyzer, s.deps.Previews, s.observer, s.opts.View)
	v.Mount(ctx)

	s.views.SetDefault(id, v)
	metrics.SetActiveViews(s.views.ItemCount())
	return v
}

func (s *viewService) Lookup(id string) (*view.UploadView, error) {
	v, ok := s.views.Get(id)
	if !ok {
		return nil, entity.ErrViewNotFound
	}
	return v.(*view.UploadView), nil
}

func (s *viewService) Select(ctx context.Context, id string, file entity.ImageFile) (string, error) {
	return s.View(ctx, id).SelectFile(ctx, file)
}

func (s *viewService) Preview(ctx context.Context, id string) (*preview.Preview, error) {
	return s.deps.Previews.Get(ctx, id)
}

// Close waits for running uploads and drops every view along with its preview.
func (s *viewService) Close() {
	for id, item := range s.views.Items() {
		item.Object.(*view.UploadView).Wait()
		s.views.Delete(id)
	}
}
