package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/pandemic-scrollmap/internal/config"
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/observability"
	"github.com/couchcryptid/pandemic-scrollmap/internal/render"
	"github.com/couchcryptid/pandemic-scrollmap/internal/scroll"
	"github.com/couchcryptid/pandemic-scrollmap/internal/source"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		DatasetSource:      "testdata/dataset.json",
		TopologySource:     "testdata/countries.geojson",
		ScenesSource:       "testdata/scenes.yaml",
		EventsSource:       "testdata/events.json",
		MapWidth:           960,
		MapHeight:          500,
		TransitionDuration: 750 * time.Millisecond,
		CounterDuration:    time.Second,
		EventWindowDays:    14,
		FillCacheSize:      16,
	}
}

func loadTestContext(t *testing.T, hooks ...SessionListeners) (*Context, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	ctx, err := Load(context.Background(), testConfig(), source.NewFetcher(time.Second, discardLogger()),
		clock, discardLogger(), observability.NewMetricsForTesting(), hooks...)
	require.NoError(t, err)
	return ctx, clock
}

func TestLoad(t *testing.T) {
	ctx, _ := loadTestContext(t)

	lo, hi := ctx.Range()
	assert.Equal(t, domain.MustParseDate("2020-01-22"), lo)
	assert.Equal(t, domain.MustParseDate("2021-06-01"), hi)
	assert.Len(t, ctx.Scenes(), 3)
	assert.Equal(t, 3, ctx.Events().Len())
	assert.Equal(t, int64(88000), ctx.Index().Global(domain.MustParseDate("2020-03-01")).TotalCases)
}

func TestLoadInputs_FailsFastOnAnyInput(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(*config.Config)
		input string
	}{
		{"dataset", func(c *config.Config) { c.DatasetSource = "testdata/missing.json" }, "dataset"},
		{"topology", func(c *config.Config) { c.TopologySource = "testdata/scenes.yaml" }, "topology"},
		{"scenes", func(c *config.Config) { c.ScenesSource = "testdata/events.json.missing" }, "scenes"},
		{"events", func(c *config.Config) { c.EventsSource = "testdata/countries.geojson" }, "events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.tweak(cfg)
			metrics := observability.NewMetricsForTesting()

			_, err := LoadInputs(context.Background(), cfg, source.NewFetcher(time.Second, discardLogger()), discardLogger(), metrics)
			require.Error(t, err)
			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.input, le.Input)
		})
	}
}

func TestLoadInputs_EventsOptional(t *testing.T) {
	cfg := testConfig()
	cfg.EventsSource = ""
	in, err := LoadInputs(context.Background(), cfg, source.NewFetcher(time.Second, discardLogger()), discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	assert.Empty(t, in.Events)
	assert.Len(t, in.Scenes, 3)
}

type blockingFetcher struct {
	fail string
}

func (f blockingFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	if src == f.fail {
		return nil, errors.New("boom")
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestLoadInputs_FirstErrorCancelsOthers(t *testing.T) {
	cfg := testConfig()
	done := make(chan error, 1)
	go func() {
		_, err := LoadInputs(context.Background(), cfg, blockingFetcher{fail: cfg.TopologySource}, discardLogger(), observability.NewMetricsForTesting())
		done <- err
	}()

	select {
	case err := <-done:
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "topology", le.Input)
		assert.Contains(t, err.Error(), "boom")
	case <-time.After(5 * time.Second):
		t.Fatal("load did not fail fast")
	}
}

func TestNew_RejectsMalformedDataset(t *testing.T) {
	ds := domain.NewDataset([]domain.CountryRecord{{
		Code: "USA",
		Timeline: []domain.DailyPoint{
			{Date: domain.MustParseDate("2020-01-02"), TotalCases: 5},
			{Date: domain.MustParseDate("2020-01-01"), TotalCases: 6},
		},
	}}, nil, domain.Metadata{})

	_, err := New(Inputs{
		Dataset:  ds,
		Features: mustFeatures(t),
		Scenes:   []domain.Scene{{Date: domain.MustParseDate("2020-01-01")}},
	}, Options{}, clockwork.NewFakeClock(), discardLogger(), observability.NewMetricsForTesting())

	var shape *domain.DataShapeError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, "USA", shape.Country)
}

func mustFeatures(t *testing.T) []render.Feature {
	t.Helper()
	in, err := LoadInputs(context.Background(), testConfig(), source.NewFetcher(time.Second, discardLogger()), discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	return in.Features
}

func TestSession_StartsAtFirstScene(t *testing.T) {
	ctx, _ := loadTestContext(t)
	s, err := ctx.NewSession("s1")
	require.NoError(t, err)

	f := s.Frame(true)
	assert.Equal(t, "s1", f.SessionID)
	assert.Equal(t, 0, f.SceneIndex)
	assert.Equal(t, "The first reports", f.Title)
	assert.Equal(t, "January 22, 2020", f.DateLabel)
	assert.Equal(t, domain.MustParseDate("2020-01-22"), f.Date)
	require.Len(t, f.Timeline, 1)
	assert.Equal(t, "Public health emergency declared", f.Timeline[0].Title)
	assert.Len(t, f.Fills, 3)
	assert.True(t, f.Animating, "counters tween toward the first scene")
	assert.Contains(t, f.Counters, scroll.CounterCases)
}

func TestSession_CountersSettleAfterDuration(t *testing.T) {
	ctx, clock := loadTestContext(t)
	s, err := ctx.NewSession("s1")
	require.NoError(t, err)

	_, ok := s.Enter(1, scroll.DirectionDown)
	require.True(t, ok)
	clock.Advance(2 * time.Second)

	f := s.Frame(false)
	assert.False(t, f.Animating)
	assert.Equal(t, CounterFrame{Value: 6_300_000, Text: "6,300,000"}, f.Counters[scroll.CounterCases])
	assert.Equal(t, int64(375_000), f.Counters[scroll.CounterDeaths].Value)
	assert.Nil(t, f.Fills)
}

func TestSession_ProgressIsInstant(t *testing.T) {
	ctx, clock := loadTestContext(t)
	s, err := ctx.NewSession("s1")
	require.NoError(t, err)
	clock.Advance(2 * time.Second)

	f := s.Progress(0, 1)
	assert.False(t, f.Animating)
	assert.Equal(t, domain.MustParseDate("2020-06-01"), f.Date)
	assert.Equal(t, int64(6_300_000), f.Counters[scroll.CounterCases].Value)

	again := s.Progress(0, 1)
	assert.Empty(t, cmp.Diff(f.Fills, again.Fills))
}

func TestSession_EnterUnknownScene(t *testing.T) {
	ctx, _ := loadTestContext(t)
	s, err := ctx.NewSession("s1")
	require.NoError(t, err)

	f, ok := s.Enter(7, scroll.DirectionDown)
	assert.False(t, ok)
	assert.Equal(t, 0, f.SceneIndex)
}

func TestSession_CounterTweensMetric(t *testing.T) {
	ctx, _ := loadTestContext(t)
	s, err := ctx.NewSession("s1")
	require.NoError(t, err)
	tweens := ctx.metrics.CounterTweens

	assert.InDelta(t, 3, testutil.ToFloat64(tweens), 0, "start tweens every counter")

	_, ok := s.Enter(1, scroll.DirectionDown)
	require.True(t, ok)
	assert.InDelta(t, 6, testutil.ToFloat64(tweens), 0)

	require.NotPanics(t, func() {
		_, ok = s.Enter(99, scroll.DirectionDown)
	})
	assert.False(t, ok)
	assert.InDelta(t, 6, testutil.ToFloat64(tweens), 0, "rejected entry starts no tweens")

	s.Progress(1, 0.5)
	assert.InDelta(t, 6, testutil.ToFloat64(tweens), 0, "progress sets counters instantly")
}

func TestSession_ResizeKeepsFills(t *testing.T) {
	ctx, clock := loadTestContext(t)
	s, err := ctx.NewSession("s1")
	require.NoError(t, err)
	clock.Advance(time.Second)

	before := s.Frame(true).Fills
	var small bytes.Buffer
	require.NoError(t, s.WriteSVG(&small))

	after := s.Resize(480, 250).Fills
	assert.Empty(t, cmp.Diff(before, after))

	var resized bytes.Buffer
	require.NoError(t, s.WriteSVG(&resized))
	assert.NotEqual(t, small.String(), resized.String())
	assert.True(t, strings.HasPrefix(resized.String(), "<svg"))
}

func TestSession_MarkerPositions(t *testing.T) {
	ctx, _ := loadTestContext(t)
	s, err := ctx.NewSession("s1")
	require.NoError(t, err)

	s.SetMarkerPositions([]float64{0, 0.1, 0.9})
	f, ok := s.Enter(1, scroll.DirectionDown)
	require.True(t, ok)
	assert.InDelta(t, 0.1, f.Progress, 1e-9)

	s.SetMarkerPositions([]float64{0.5})
	f, _ = s.Enter(1, scroll.DirectionDown)
	lo, hi := ctx.Range()
	want := float64(domain.MustParseDate("2020-06-01").DaysSince(lo)) / float64(hi.DaysSince(lo))
	assert.InDelta(t, want, f.Progress, 1e-9)
}

type recordingHooks struct {
	events map[string][]scroll.Event
}

func (h *recordingHooks) ForSession(id string) scroll.Listener {
	return scroll.ListenerFunc(func(e scroll.Event) {
		h.events[id] = append(h.events[id], e)
	})
}

func TestSession_HooksBoundToSessionID(t *testing.T) {
	hooks := &recordingHooks{events: map[string][]scroll.Event{}}
	ctx, _ := loadTestContext(t, hooks)

	a, err := ctx.NewSession("a")
	require.NoError(t, err)
	_, err = ctx.NewSession("b")
	require.NoError(t, err)
	a.Enter(2, scroll.DirectionDown)

	assert.Len(t, hooks.events["a"], 2)
	assert.Len(t, hooks.events["b"], 1)
	assert.Equal(t, 2, hooks.events["a"][1].Index)
}

func TestSessionStore(t *testing.T) {
	ctx, clock := loadTestContext(t)
	store := NewSessionStore(ctx, time.Minute)

	def, err := store.Default()
	require.NoError(t, err)
	again, err := store.Default()
	require.NoError(t, err)
	assert.Same(t, def, again)

	s1, err := store.Create()
	require.NoError(t, err)
	assert.NotEqual(t, DefaultSessionID, s1.ID)
	got, ok := store.Get(s1.ID)
	require.True(t, ok)
	assert.Same(t, s1, got)
	assert.Equal(t, 2, store.Len())

	clock.Advance(2 * time.Minute)
	s2, err := store.Create()
	require.NoError(t, err)

	_, ok = store.Get(s1.ID)
	assert.False(t, ok, "idle session swept")
	_, ok = store.Get(DefaultSessionID)
	assert.True(t, ok, "default session kept")

	store.Delete(s2.ID)
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_ConcurrentDefaultStartsOneSession(t *testing.T) {
	hooks := &recordingHooks{events: map[string][]scroll.Event{}}
	ctx, _ := loadTestContext(t, hooks)
	store := NewSessionStore(ctx, time.Minute)

	const callers = 8
	got := make([]*Session, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := store.Default()
			assert.NoError(t, err)
			got[i] = sess
		}()
	}
	wg.Wait()

	for _, sess := range got {
		assert.Same(t, got[0], sess)
	}
	assert.Equal(t, 1, store.Len())
	assert.Len(t, hooks.events[DefaultSessionID], 1, "only one session entered its first scene")
	assert.InDelta(t, 1, testutil.ToFloat64(ctx.metrics.SessionsActive), 0)
}
