// UploadView: per-session upload state, the upload itself, and its render model
package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/ds124wfegd/skysight/internal/locator"
	"github.com/ds124wfegd/skysight/internal/pkg/analyzer"
	"github.com/ds124wfegd/skysight/internal/pkg/preview"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Observer is told about every finished upload attempt.
type Observer interface {
	UploadStarted(viewID string)
	UploadFinished(ctx context.Context, event entity.AnalysisEvent)
}

type Options struct {
	MaxPreviewWidth  int
	MaxPreviewHeight int
}

type UploadView struct {
	id       string
	base     context.Context
	locator  *locator.Once
	analyzer analyzer.Analyzer
	previews preview.Store
	observer Observer
	opts     Options

	mu         sync.Mutex
	mounted    bool
	resolution locator.Resolution
	previewID  string
	caption    *string
	confidence *float64
	readText   []entity.ReadLine
	loading    bool
	outcome    entity.Outcome
	lastErr    string
	token      uint64

	inflight sync.WaitGroup
}

// New creates a view. base bounds the lifetime of uploads started by SelectFile.
func New(base context.Context, id string, loc *locator.Once, a analyzer.Analyzer, previews preview.Store, observer Observer, opts Options) *UploadView {
	if observer == nil {
		observer = nopObserver{}
	}
	if opts.MaxPreviewWidth <= 0 {
		opts.MaxPreviewWidth = 800
	}
	if opts.MaxPreviewHeight <= 0 {
		opts.MaxPreviewHeight = 600
	}
	return &UploadView{
		id:       id,
		base:     base,
		locator:  loc,
		analyzer: a,
		previews: previews,
		observer: observer,
		opts:     opts,
	}
}

func (v *UploadView) ID() string {
	return v.id
}

// Mount resolves the backend location; only the first call has an effect.
func (v *UploadView) Mount(ctx context.Context) locator.Resolution {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted {
		v.resolution = v.locator.Resolution(ctx)
		v.mounted = true
	}
	return v.resolution
}

// SelectFile replaces the preview with one for file and starts uploading it in the background.
// The returned URL is new for every call.
func (v *UploadView) SelectFile(ctx context.Context, file entity.ImageFile) (string, error) {
	p, err := preview.MakePreview(file.Data, v.opts.MaxPreviewWidth, v.opts.MaxPreviewHeight)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	if err := v.previews.Put(ctx, id, p); err != nil {
		return "", err
	}

	v.mu.Lock()
	old := v.previewID
	v.previewID = id
	token := v.begin()
	v.mu.Unlock()

	if old != "" {
		if err := v.previews.Delete(ctx, old); err != nil {
			logrus.WithError(err).WithField("preview_id", old).Warn("failed to drop previous preview")
		}
	}

	v.inflight.Add(1)
	go func() {
		defer v.inflight.Done()
		v.upload(v.base, token, file)
	}()

	return PreviewURL(id), nil
}

// UploadImage sends file to the analysis backend and applies the result if no newer upload started meanwhile.
func (v *UploadView) UploadImage(ctx context.Context, file entity.ImageFile) entity.Outcome {
	v.mu.Lock()
	token := v.begin()
	v.mu.Unlock()

	return v.upload(ctx, token, file)
}

// begin issues the next request token and marks the view as loading. v.mu must be held.
func (v *UploadView) begin() uint64 {
	v.token++
	v.loading = true
	return v.token
}

func (v *UploadView) upload(ctx context.Context, token uint64, file entity.ImageFile) entity.Outcome {
	v.mu.Lock()
	resolution := v.resolution
	mounted := v.mounted
	v.mu.Unlock()

	v.observer.UploadStarted(v.id)
	start := time.Now()

	log := logrus.WithFields(logrus.Fields{"view_id": v.id, "token": token})

	var (
		res *entity.AnalysisResponse
		err error
	)
	if !mounted || !resolution.Resolved() {
		err = entity.ErrBackendUnresolved
	} else {
		res, err = v.analyzer.Analyze(ctx, resolution.Location.Host, file)
		if err == nil && (res == nil || res.Caption == nil) {
			res, err = nil, fmt.Errorf("%w: no caption in response", entity.ErrDecode)
		}
	}

	outcome := entity.Classify(err)
	if err != nil {
		log.WithError(err).WithField("outcome", outcome.String()).Error("Error uploading image")
	}

	stale := v.finish(token, outcome, res, err)
	if stale {
		log.Info("discarding stale upload result")
	}

	event := entity.AnalysisEvent{
		ViewID:     v.id,
		Token:      token,
		Outcome:    outcome,
		Stale:      stale,
		Duration:   time.Since(start),
		FinishedAt: time.Now().UTC(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	if res != nil {
		event.Caption = res.Caption.Text
		event.Confidence = res.Caption.Confidence
		event.ReadText = res.ReadText
	}
	v.observer.UploadFinished(ctx, event)

	return outcome
}

// finish applies an attempt's result when token is still the latest and reports whether it was stale.
func (v *UploadView) finish(token uint64, outcome entity.Outcome, res *entity.AnalysisResponse, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if token != v.token {
		return true
	}

	v.loading = false
	v.outcome = outcome
	v.lastErr = ""
	if err != nil {
		v.lastErr = err.Error()
		return false
	}

	v.caption = res.Caption.Text
	v.confidence = res.Caption.Confidence
	v.readText = res.ReadText
	return false
}

// Wait blocks until every upload started by SelectFile has finished.
func (v *UploadView) Wait() {
	v.inflight.Wait()
}

// Close drops the current preview.
func (v *UploadView) Close(ctx context.Context) {
	v.mu.Lock()
	id := v.previewID
	v.previewID = ""
	v.mu.Unlock()

	if id != "" {
		if err := v.previews.Delete(ctx, id); err != nil {
			logrus.WithError(err).WithField("preview_id", id).Warn("failed to drop preview")
		}
	}
}

func (v *UploadView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := State{
		Loading:    v.loading,
		Caption:    v.caption,
		Confidence: v.confidence,
		ReadText:   append([]entity.ReadLine(nil), v.readText...),
		Outcome:    v.outcome,
		Error:      v.lastErr,
	}
	if v.previewID != "" {
		s.PreviewURL = PreviewURL(v.previewID)
	}
	return s
}

func (v *UploadView) Render() RenderModel {
	return Render(v.State())
}

func PreviewURL(id string) string {
	return "/preview/" + id
}

type nopObserver struct{}

func (nopObserver) UploadStarted(string)                                 {}
func (nopObserver) UploadFinished(context.Context, entity.AnalysisEvent) {}
