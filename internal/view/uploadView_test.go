package view

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/ds124wfegd/skysight/internal/locator"
	"github.com/ds124wfegd/skysight/internal/pkg/preview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver struct {
	host string
	err  error
}

func (r staticResolver) Resolve(context.Context) (locator.Location, error) {
	return locator.Location{Host: r.host}, r.err
}

// fakeAnalyzer answers through fn and records every call.
type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
	hosts []string
	fn    func(call int) (*entity.AnalysisResponse, error)
}

func (f *fakeAnalyzer) Analyze(_ context.Context, host string, _ entity.ImageFile) (*entity.AnalysisResponse, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.hosts = append(f.hosts, host)
	f.mu.Unlock()
	return f.fn(call)
}

func (f *fakeAnalyzer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingObserver struct {
	mu      sync.Mutex
	started int
	events  []entity.AnalysisEvent
}

func (o *recordingObserver) UploadStarted(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *recordingObserver) UploadFinished(_ context.Context, e entity.AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func caption(text string, confidence float64) *entity.AnalysisResponse {
	return &entity.AnalysisResponse{Caption: &entity.Caption{Text: &text, Confidence: &confidence}}
}

func newTestView(t *testing.T, resolver locator.Resolver, a *fakeAnalyzer, obs Observer) (*UploadView, preview.Store) {
	t.Helper()
	store := preview.NewMemoryStore(time.Minute)
	v := New(context.Background(), "view-1", locator.NewOnce(resolver), a, store, obs, Options{})
	return v, store
}

var pngLike = entity.ImageFile{Name: "x.png", ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\nfake")}

func TestSelectFileProducesFreshPreview(t *testing.T) {
	a := &fakeAnalyzer{fn: func(int) (*entity.AnalysisResponse, error) { return caption("cat", 0.87), nil }}
	v, store := newTestView(t, staticResolver{host: "backend"}, a, nil)
	v.Mount(context.Background())

	seen := map[string]bool{}
	var prev string
	for i := 0; i < 5; i++ {
		url, err := v.SelectFile(context.Background(), pngLike)
		require.NoError(t, err)
		require.NotEmpty(t, url)
		assert.False(t, seen[url], "preview URL reused")
		seen[url] = true

		if prev != "" {
			_, err := store.Get(context.Background(), prev[len("/preview/"):])
			assert.ErrorIs(t, err, entity.ErrPreviewNotFound, "previous preview still stored")
		}
		prev = url
	}
	v.Wait()

	assert.Equal(t, prev, v.State().PreviewURL)
	assert.Equal(t, 5, a.Calls())
}

func TestSelectFileRejectsEmptyFile(t *testing.T) {
	a := &fakeAnalyzer{fn: func(int) (*entity.AnalysisResponse, error) { return caption("cat", 0.87), nil }}
	v, _ := newTestView(t, staticResolver{host: "backend"}, a, nil)

	_, err := v.SelectFile(context.Background(), entity.ImageFile{Name: "empty.png"})
	assert.Error(t, err)
	assert.Equal(t, 0, a.Calls())
}

func TestUploadSuccessRendersCaption(t *testing.T) {
	a := &fakeAnalyzer{fn: func(int) (*entity.AnalysisResponse, error) { return caption("cat", 0.87), nil }}
	obs := &recordingObserver{}
	v, _ := newTestView(t, staticResolver{host: "10.0.0.1"}, a, obs)
	v.Mount(context.Background())

	outcome := v.UploadImage(context.Background(), pngLike)
	require.Equal(t, entity.OutcomeSuccess, outcome)

	m := v.Render()
	assert.False(t, m.Loading)
	assert.True(t, m.ShowCaption)
	assert.Equal(t, "cat", m.Caption)
	assert.Equal(t, "87.00", m.Confidence)
	assert.Empty(t, m.Notice)
	assert.Equal(t, []string{"10.0.0.1"}, a.hosts)

	require.Len(t, obs.events, 1)
	assert.Equal(t, 1, obs.started)
	assert.Equal(t, entity.OutcomeSuccess, obs.events[0].Outcome)
	assert.False(t, obs.events[0].Stale)
	assert.Equal(t, "cat", *obs.events[0].Caption)
}

func TestLoadingClearedOnEveryPath(t *testing.T) {
	tests := []struct {
		name     string
		resolver locator.Resolver
		err      error
		outcome  entity.Outcome
	}{
		{name: "unresolved backend", resolver: staticResolver{err: errors.New("unset")}, outcome: entity.OutcomeConfigError},
		{name: "transport failure", resolver: staticResolver{host: "h"}, err: fmt.Errorf("%w: refused", entity.ErrTransport), outcome: entity.OutcomeTransportError},
		{name: "non-2xx", resolver: staticResolver{host: "h"}, err: &entity.StatusError{Code: 500}, outcome: entity.OutcomeStatusError},
		{name: "decode failure", resolver: staticResolver{host: "h"}, err: fmt.Errorf("%w: eof", entity.ErrDecode), outcome: entity.OutcomeDecodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &fakeAnalyzer{fn: func(int) (*entity.AnalysisResponse, error) { return nil, tt.err }}
			v, _ := newTestView(t, tt.resolver, a, nil)
			v.Mount(context.Background())

			outcome := v.UploadImage(context.Background(), pngLike)
			assert.Equal(t, tt.outcome, outcome)

			s := v.State()
			assert.False(t, s.Loading)
			assert.Equal(t, tt.outcome, s.Outcome)
			assert.NotEmpty(t, s.Error)
			assert.NotEmpty(t, Render(s).Notice)
		})
	}
}

func TestUnresolvedBackendNeverCallsNetwork(t *testing.T) {
	a := &fakeAnalyzer{fn: func(int) (*entity.AnalysisResponse, error) { return caption("cat", 0.87), nil }}

	t.Run("resolution failed", func(t *testing.T) {
		v, _ := newTestView(t, staticResolver{err: errors.New("no env")}, a, nil)
		v.Mount(context.Background())

		assert.Equal(t, entity.OutcomeConfigError, v.UploadImage(context.Background(), pngLike))
		assert.False(t, v.State().Loading)
	})

	t.Run("never mounted", func(t *testing.T) {
		v, _ := newTestView(t, staticResolver{host: "backend"}, a, nil)

		assert.Equal(t, entity.OutcomeConfigError, v.UploadImage(context.Background(), pngLike))
		assert.False(t, v.State().Loading)
	})

	assert.Equal(t, 0, a.Calls())
}

func TestFailureKeepsPreviousCaption(t *testing.T) {
	a := &fakeAnalyzer{fn: func(call int) (*entity.AnalysisResponse, error) {
		if call == 1 {
			return caption("a dog on a beach", 0.5), nil
		}
		return nil, &entity.StatusError{Code: 502}
	}}
	v, _ := newTestView(t, staticResolver{host: "h"}, a, nil)
	v.Mount(context.Background())

	require.Equal(t, entity.OutcomeSuccess, v.UploadImage(context.Background(), pngLike))
	require.Equal(t, entity.OutcomeStatusError, v.UploadImage(context.Background(), pngLike))

	s := v.State()
	require.NotNil(t, s.Caption)
	assert.Equal(t, "a dog on a beach", *s.Caption)
	assert.InDelta(t, 0.5, *s.Confidence, 1e-9)

	m := Render(s)
	assert.True(t, m.ShowCaption)
	assert.Equal(t, "50.00", m.Confidence)
	assert.NotEmpty(t, m.Notice)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	a := &fakeAnalyzer{fn: func(call int) (*entity.AnalysisResponse, error) {
		if call == 1 {
			close(started)
			<-release
			return caption("old", 0.1), nil
		}
		return caption("new", 0.9), nil
	}}
	obs := &recordingObserver{}
	v, _ := newTestView(t, staticResolver{host: "h"}, a, obs)
	v.Mount(context.Background())

	done := make(chan entity.Outcome)
	go func() { done <- v.UploadImage(context.Background(), pngLike) }()
	<-started

	assert.True(t, v.State().Loading)
	require.Equal(t, entity.OutcomeSuccess, v.UploadImage(context.Background(), pngLike))
	assert.Equal(t, "new", *v.State().Caption)

	close(release)
	<-done

	s := v.State()
	assert.False(t, s.Loading)
	assert.Equal(t, "new", *s.Caption)
	assert.InDelta(t, 0.9, *s.Confidence, 1e-9)

	require.Len(t, obs.events, 2)
	assert.False(t, obs.events[0].Stale)
	assert.True(t, obs.events[1].Stale)
}

func TestStaleCompletionKeepsLoading(t *testing.T) {
	release := make(chan struct{})
	inFlight := make(chan struct{})

	a := &fakeAnalyzer{fn: func(int) (*entity.AnalysisResponse, error) {
		close(inFlight)
		<-release
		return caption("latest", 0.42), nil
	}}
	v, _ := newTestView(t, staticResolver{host: "h"}, a, nil)
	v.Mount(context.Background())

	// an older attempt that has not reported back yet
	v.mu.Lock()
	v.token++
	olderToken := v.token
	v.loading = true
	v.mu.Unlock()

	done := make(chan struct{})
	go func() {
		v.UploadImage(context.Background(), pngLike)
		close(done)
	}()
	<-inFlight

	stale := v.finish(olderToken, entity.OutcomeStatusError, nil, &entity.StatusError{Code: 500})
	assert.True(t, stale)
	assert.True(t, v.State().Loading, "stale failure must not end loading of the newer upload")
	assert.Equal(t, entity.OutcomeNone, v.State().Outcome)

	close(release)
	<-done

	s := v.State()
	assert.False(t, s.Loading)
	assert.Equal(t, "latest", *s.Caption)
}

func TestMountResolvesOnce(t *testing.T) {
	a := &fakeAnalyzer{fn: func(int) (*entity.AnalysisResponse, error) { return caption("cat", 0.87), nil }}
	v, _ := newTestView(t, staticResolver{host: "first"}, a, nil)

	r1 := v.Mount(context.Background())
	r2 := v.Mount(context.Background())
	assert.True(t, r1.Resolved())
	assert.Equal(t, r1, r2)
}

func TestConcurrentSelections(t *testing.T) {
	a := &fakeAnalyzer{fn: func(call int) (*entity.AnalysisResponse, error) {
		time.Sleep(time.Millisecond)
		return caption("caption "+strconv.Itoa(call), 0.3), nil
	}}
	v, _ := newTestView(t, staticResolver{host: "h"}, a, nil)
	v.Mount(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.SelectFile(context.Background(), pngLike)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	v.Wait()

	s := v.State()
	assert.False(t, s.Loading)
	require.NotNil(t, s.Caption)
	assert.Equal(t, 8, a.Calls())
}

// nameAnalyzer captions every image with its file name.
type nameAnalyzer struct{}

func (nameAnalyzer) Analyze(_ context.Context, _ string, file entity.ImageFile) (*entity.AnalysisResponse, error) {
	return caption(file.Name, 0.5), nil
}

func TestLatestSelectionWins(t *testing.T) {
	for i := 0; i < 200; i++ {
		store := preview.NewMemoryStore(time.Minute)
		v := New(context.Background(), "view-1", locator.NewOnce(staticResolver{host: "h"}), nameAnalyzer{}, store, nil, Options{})
		v.Mount(context.Background())

		first, second := pngLike, pngLike
		first.Name, second.Name = "A", "B"

		_, err := v.SelectFile(context.Background(), first)
		require.NoError(t, err)
		url, err := v.SelectFile(context.Background(), second)
		require.NoError(t, err)
		v.Wait()

		s := v.State()
		require.NotNil(t, s.Caption)
		require.Equal(t, "B", *s.Caption, "run %d", i)
		assert.Equal(t, url, s.PreviewURL)
		assert.False(t, s.Loading)
	}
}

func TestLoadingSetWhenSelectFileReturns(t *testing.T) {
	release := make(chan struct{})
	a := &fakeAnalyzer{fn: func(int) (*entity.AnalysisResponse, error) {
		<-release
		return caption("cat", 0.87), nil
	}}
	v, _ := newTestView(t, staticResolver{host: "h"}, a, nil)
	v.Mount(context.Background())

	_, err := v.SelectFile(context.Background(), pngLike)
	require.NoError(t, err)

	m := v.Render()
	assert.True(t, m.Loading)
	assert.False(t, m.ShowCaption)

	close(release)
	v.Wait()

	m = v.Render()
	assert.False(t, m.Loading)
	assert.Equal(t, "cat", m.Caption)
}

// failingStore loses every delete.
type failingStore struct {
	preview.Store
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("store unavailable")
}

func TestCloseDropsPreview(t *testing.T) {
	a := &fakeAnalyzer{fn: func(int) (*entity.AnalysisResponse, error) { return caption("cat", 0.87), nil }}
	v, store := newTestView(t, staticResolver{host: "h"}, a, nil)
	v.Mount(context.Background())

	url, err := v.SelectFile(context.Background(), pngLike)
	require.NoError(t, err)
	v.Wait()

	v.Close(context.Background())
	_, err = store.Get(context.Background(), url[len("/preview/"):])
	assert.ErrorIs(t, err, entity.ErrPreviewNotFound)
	assert.Empty(t, v.State().PreviewURL)

	broken := New(context.Background(), "view-2", locator.NewOnce(staticResolver{host: "h"}), a,
		failingStore{Store: preview.NewMemoryStore(time.Minute)}, nil, Options{})
	broken.Mount(context.Background())
	_, err = broken.SelectFile(context.Background(), pngLike)
	require.NoError(t, err)
	broken.Wait()

	assert.NotPanics(t, func() { broken.Close(context.Background()) })
	assert.Empty(t, broken.State().PreviewURL)
}
