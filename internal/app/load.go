package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/pandemic-scrollmap/internal/config"
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/observability"
	"github.com/couchcryptid/pandemic-scrollmap/internal/render"
	"github.com/couchcryptid/pandemic-scrollmap/internal/source"
)

// Fetcher reads one startup input.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// LoadError names the startup input that failed.
type LoadError struct {
	Input  string
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %v", e.Input, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadInputs fetches and decodes the dataset, topology, scene script and
// (when configured) timeline events concurrently. The first failure cancels
// the remaining fetches and is returned as a *LoadError; nothing partial is
// returned.
func LoadInputs(ctx context.Context, cfg *config.Config, f Fetcher, logger *slog.Logger, metrics *observability.Metrics) (Inputs, error) {
	var in Inputs
	g, gctx := errgroup.WithContext(ctx)

	load := func(input, src string, decode func([]byte) error) {
		g.Go(func() error {
			data, err := f.Fetch(gctx, src)
			if err == nil {
				err = decode(data)
			}
			if err != nil {
				metrics.StartupLoadErrors.WithLabelValues(input).Inc()
				return &LoadError{Input: input, Source: src, Err: err}
			}
			logger.Info("input loaded", "input", input, "source", src, "bytes", len(data))
			return nil
		})
	}

	load("dataset", cfg.DatasetSource, func(data []byte) (err error) {
		in.Dataset, err = domain.DecodeDataset(data)
		return err
	})
	load("topology", cfg.TopologySource, func(data []byte) (err error) {
		in.Features, err = render.DecodeTopology(data)
		return err
	})
	load("scenes", cfg.ScenesSource, func(data []byte) (err error) {
		in.Scenes, err = source.DecodeScenes(cfg.ScenesSource, data)
		return err
	})
	if cfg.EventsSource != "" {
		load("events", cfg.EventsSource, func(data []byte) (err error) {
			in.Events, err = domain.DecodeEvents(data)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}
	return in, nil
}

// Load fetches every input and builds the application context.
func Load(ctx context.Context, cfg *config.Config, f Fetcher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, hooks ...SessionListeners) (*Context, error) {
	in, err := LoadInputs(ctx, cfg, f, logger, metrics)
	if err != nil {
		return nil, err
	}
	return New(in, OptionsFromConfig(cfg), clock, logger, metrics, hooks...)
}

// OptionsFromConfig maps service configuration onto session options.
func OptionsFromConfig(cfg *config.Config) Options {
	rc := render.DefaultConfig()
	rc.Width = cfg.MapWidth
	rc.Height = cfg.MapHeight
	rc.TransitionDuration = cfg.TransitionDuration
	return Options{
		Render:          rc,
		Codes:           render.NewISOTable(nil),
		CounterDuration: cfg.CounterDuration,
		EventWindowDays: cfg.EventWindowDays,
		FillCacheSize:   cfg.FillCacheSize,
	}
}
