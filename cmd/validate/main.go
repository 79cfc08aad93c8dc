// Command validate checks a set of scroll-map inputs offline before they are
// deployed: the dataset decodes and indexes, the scene script fits inside the
// dataset's range, the topology covers the countries with data, and the
// timeline events fall inside the range. Sources may be file paths or URLs.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dataset data/covid_timeline.json \
//	  -topology data/countries.geojson \
//	  -scenes data/scenes.yaml \
//	  -events data/events.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/pandemic-scrollmap/internal/dateindex"
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
	"github.com/couchcryptid/pandemic-scrollmap/internal/render"
	"github.com/couchcryptid/pandemic-scrollmap/internal/source"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type inputs struct {
	dataset  string
	topology string
	scenes   string
	events   string
}

func main() {
	var in inputs
	flag.StringVar(&in.dataset, "dataset", "", "dataset file or URL")
	flag.StringVar(&in.topology, "topology", "", "GeoJSON topology file or URL")
	flag.StringVar(&in.scenes, "scenes", "", "scene script (YAML or JSON) file or URL")
	flag.StringVar(&in.events, "events", "", "timeline events file or URL (optional)")
	timeout := flag.Duration("timeout", 30*time.Second, "fetch timeout per source")
	flag.Parse()

	if in.dataset == "" || in.topology == "" || in.scenes == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(in, *timeout); code != 0 {
		os.Exit(code)
	}
}

func run(in inputs, timeout time.Duration) int {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	fetcher := source.NewFetcher(timeout, logger)

	fmt.Println("=== Scroll Map Input Validation ===")
	fmt.Println()

	// ── Load all data sources ──
	rawDataset, err := fetcher.Fetch(ctx, in.dataset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}
	rawTopology, err := fetcher.Fetch(ctx, in.topology)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load topology: %v\n", err)
		return 1
	}
	rawScenes, err := fetcher.Fetch(ctx, in.scenes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load scenes: %v\n", err)
		return 1
	}
	var rawEvents []byte
	if in.events != "" {
		if rawEvents, err = fetcher.Fetch(ctx, in.events); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load events: %v\n", err)
			return 1
		}
	}

	// ── Run validation phases ──
	shape, idx, countryCodes := validateDataset(rawDataset)
	phases := []*phase{shape}
	if idx != nil {
		phases = append(phases,
			validateScenes(in.scenes, rawScenes, idx),
			validateTopology(rawTopology, countryCodes),
		)
		if rawEvents != nil {
			phases = append(phases, validateEvents(rawEvents, idx))
		}
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		} else if len(p.warnings) > 0 {
			status = fmt.Sprintf("\033[33mPASS (%d warnings)\033[0m", len(p.warnings))
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	if idx != nil {
		lo, hi := idx.Range()
		fmt.Println()
		fmt.Printf("Dataset: %d countries, %d dates, %s .. %s\n", len(countryCodes), len(idx.Dates()), lo, hi)
	}

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Printf("  [warn] %s\n", w)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateDataset(raw []byte) (*phase, *dateindex.Index, []string) {
	p := &phase{name: "Dataset shape and index"}
	ds, err := domain.DecodeDataset(raw)
	if err != nil {
		p.errorf("%v", err)
		return p, nil, nil
	}
	records := ds.CountryRecords()
	idx, err := dateindex.Build(records, ds.Global)
	if err != nil {
		p.errorf("%v", err)
		return p, nil, nil
	}

	codes := make([]string, 0, len(records))
	for _, r := range records {
		codes = append(codes, r.Code)
		if len(r.Timeline) == 0 {
			p.warnf("%s has an empty timeline", r.Code)
		}
	}

	lo, hi := idx.Range()
	if m := ds.Metadata.DateRange; m.Start != 0 || m.End != 0 {
		if m.Start != lo || m.End != hi {
			p.warnf("metadata range %s .. %s differs from data range %s .. %s", m.Start, m.End, lo, hi)
		}
	}
	if len(ds.Global) == 0 {
		p.warnf("no global aggregates; counters will read zero")
	}
	return p, idx, codes
}

func validateScenes(src string, raw []byte, idx *dateindex.Index) *phase {
	p := &phase{name: "Scene script"}
	scenes, err := source.DecodeScenes(src, raw)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	lo, hi := idx.Range()
	for i, s := range scenes {
		if s.Title == "" {
			p.errorf("scene %d: missing title", i)
		}
		if s.Date.Before(lo) || s.Date.After(hi) {
			p.errorf("scene %d (%s): date outside dataset range %s .. %s", i, s.Date, lo, hi)
		}
		if i > 0 && s.Date.Before(scenes[i-1].Date) {
			p.warnf("scene %d (%s) is earlier than scene %d (%s)", i, s.Date, i-1, scenes[i-1].Date)
		}
	}
	return p
}

func validateTopology(raw []byte, codes []string) *phase {
	p := &phase{name: "Topology coverage"}
	features, err := render.DecodeTopology(raw)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	table := render.NewISOTable(nil)
	mapped := make(map[string]bool, len(features))
	for _, f := range features {
		if code, ok := table.Lookup(f.ID); ok {
			mapped[code] = true
		}
	}

	var missing []string
	for _, code := range codes {
		if !mapped[code] {
			missing = append(missing, code)
		}
	}
	sort.Strings(missing)
	for _, code := range missing {
		p.warnf("%s has data but no polygon", code)
	}
	if len(mapped) == 0 {
		p.errorf("no topology feature maps to an ISO3 code")
	}
	return p
}

func validateEvents(raw []byte, idx *dateindex.Index) *phase {
	p := &phase{name: "Timeline events"}
	events, err := domain.DecodeEvents(raw)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	lo, hi := idx.Range()
	for i, e := range events {
		if e.Title == "" {
			p.errorf("event %d: missing title", i)
		}
		if e.Date.Before(lo) || e.Date.After(hi) {
			p.warnf("event %d (%s) falls outside the dataset range", i, e.Date)
		}
	}
	return p
}
