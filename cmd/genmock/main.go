// Command genmock generates a synthetic but internally consistent set of
// input files for local development: the country time-series dataset, a
// grid-of-boxes world topology, a scene script and a timeline event list.
// Output is deterministic for a given -seed. The generated dataset is run
// through the same decoder and index builder the server uses before it is
// written.
//
// Usage:
//
//	go run ./cmd/genmock -out data -countries 20 -days 520 -seed 7
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/biter777/countries"
	"github.com/goccy/go-yaml"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/pandemic-scrollmap/internal/dateindex"
	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
)

// countrySeed is an ISO 3166-1 numeric code with a rough population.
type countrySeed struct {
	numeric    int
	population int64
}

var seeds = []countrySeed{
	{840, 331_000_000}, {380, 60_400_000}, {76, 212_500_000}, {356, 1_380_000_000},
	{826, 67_900_000}, {250, 65_300_000}, {276, 83_800_000}, {724, 46_800_000},
	{643, 145_900_000}, {156, 1_439_000_000}, {392, 126_500_000}, {36, 25_500_000},
	{124, 37_700_000}, {484, 128_900_000}, {710, 59_300_000}, {818, 102_300_000},
	{566, 206_100_000}, {32, 45_200_000}, {360, 273_500_000}, {792, 84_300_000},
}

var genesis = domain.MustParseDate("2020-01-22")

// Vaccination campaigns begin this many days after genesis.
const vaxStart = 325

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "data", "output directory")
	n := flag.Int("countries", len(seeds), "number of countries to generate (max 20)")
	days := flag.Int("days", 520, "number of daily data points per country")
	seed := flag.Uint64("seed", 7, "random seed")
	flag.Parse()

	if *n < 1 || *n > len(seeds) {
		flag.Usage()
		return fmt.Errorf("-countries must be between 1 and %d", len(seeds))
	}
	if *days < 2 {
		flag.Usage()
		return fmt.Errorf("-days must be at least 2")
	}

	// Fixed clock for a reproducible generatedAt stamp.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	records := make([]domain.CountryRecord, 0, *n)
	for _, s := range seeds[:*n] {
		records = append(records, generateCountry(rng, s.numeric, s.population, *days))
	}
	global := aggregate(records, *days)
	last := genesis.AddDays(*days - 1)

	ds := domain.NewDataset(records, global, domain.Metadata{
		DateRange:   domain.DateRange{Start: genesis, End: last},
		GeneratedAt: domain.Now(),
	})

	// Round-trip through the loader to catch generator bugs early.
	raw, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	decoded, err := domain.DecodeDataset(raw)
	if err != nil {
		return fmt.Errorf("generated dataset is invalid: %w", err)
	}
	idx, err := dateindex.Build(decoded.CountryRecords(), decoded.Global)
	if err != nil {
		return fmt.Errorf("generated dataset does not index: %w", err)
	}
	log.Printf("dataset: %d countries, %d dates", len(records), len(idx.Dates()))

	if err := writeJSON(filepath.Join(*outDir, "covid_timeline.json"), ds); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	if err := writeJSON(filepath.Join(*outDir, "countries.geojson"), topology(seeds[:*n])); err != nil {
		return fmt.Errorf("writing topology: %w", err)
	}
	if err := writeYAML(filepath.Join(*outDir, "scenes.yaml"), scenes(last)); err != nil {
		return fmt.Errorf("writing scenes: %w", err)
	}
	if err := writeJSON(filepath.Join(*outDir, "events.json"), events(last)); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	log.Printf("wrote fixtures to %s", *outDir)

	printStats(idx)
	return nil
}

// generateCountry draws one logistic wave of infections and, after vaxStart,
// a logistic vaccination campaign. Both curves are increasing, so the
// cumulative totals never decrease.
func generateCountry(rng *rand.Rand, numeric int, population int64, days int) domain.CountryRecord {
	c := countries.ByNumeric(numeric)
	attack := 0.04 + rng.Float64()*0.30
	mid := 180 + rng.Float64()*320
	steep := 0.012 + rng.Float64()*0.02
	cfr := 0.008 + rng.Float64()*0.025
	uptake := 0.6 + rng.Float64()*1.4
	vaxMid := float64(vaxStart) + 60 + rng.Float64()*120

	pop := float64(population)
	base := logistic(0, mid, steep)
	vaxBase := logistic(vaxStart, vaxMid, 0.03)

	timeline := make([]domain.DailyPoint, days)
	for t := range days {
		cases := int64(pop * attack * (logistic(float64(t), mid, steep) - base))
		deaths := int64(float64(cases) * cfr)
		var doses int64
		if t >= vaxStart {
			doses = int64(pop * uptake * (logistic(float64(t), vaxMid, 0.03) - vaxBase))
		}
		timeline[t] = domain.DailyPoint{
			Date:                  genesis.AddDays(t),
			TotalCases:            cases,
			TotalDeaths:           deaths,
			CasesPerMillion:       perMillion(cases, population),
			DeathsPerMillion:      perMillion(deaths, population),
			TotalVaccinations:     doses,
			PeopleVaccinated:      min(doses*55/100, population),
			PeopleFullyVaccinated: min(doses*45/100, population),
		}
	}
	return domain.CountryRecord{
		Code:       c.Alpha3(),
		Name:       c.String(),
		Population: population,
		Timeline:   timeline,
	}
}

func aggregate(records []domain.CountryRecord, days int) []domain.GlobalAggregate {
	global := make([]domain.GlobalAggregate, days)
	for t := range days {
		g := domain.GlobalAggregate{Date: genesis.AddDays(t)}
		for _, r := range records {
			p := r.Timeline[t]
			g.TotalCases += p.TotalCases
			g.TotalDeaths += p.TotalDeaths
			g.TotalVaccinations += p.TotalVaccinations
			g.PeopleVaccinated += p.PeopleVaccinated
			g.PeopleFullyVaccinated += p.PeopleFullyVaccinated
		}
		global[t] = g
	}
	return global
}

// topology lays the countries out as 10x8 degree boxes on a grid, plus one
// unmapped region so the "no data" fill shows up.
func topology(set []countrySeed) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, s := range set {
		lon := -160 + float64(i%8)*40
		lat := 50 - float64(i/8)*35
		f := geojson.NewFeature(box(lon, lat, 10, 8))
		f.ID = fmt.Sprintf("%03d", s.numeric)
		f.Properties["name"] = countries.ByNumeric(s.numeric).String()
		fc.Append(f)
	}
	unmapped := geojson.NewFeature(box(150, -50, 12, 6))
	unmapped.ID = "-99"
	unmapped.Properties["name"] = "Unclaimed"
	fc.Append(unmapped)
	return fc
}

func box(lon, lat, w, h float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{lon, lat}, {lon + w, lat}, {lon + w, lat + h}, {lon, lat + h}, {lon, lat},
	}}
}

func scenes(last domain.Date) []domain.Scene {
	script := []domain.Scene{
		{Date: genesis, Title: "The first reports", Subtitle: "January 2020",
			Narrative: "A handful of countries report their first confirmed cases."},
		{Date: domain.MustParseDate("2020-03-11"), Title: "A pandemic is declared",
			Narrative: "Cases are now growing on every continent."},
		{Date: domain.MustParseDate("2020-07-01"), Title: "The first summer",
			Narrative: "Some countries flatten their curves while others surge."},
		{Date: domain.MustParseDate("2020-12-08"), Title: "The first doses", ShowVaccinations: true,
			Narrative: "Vaccination campaigns begin."},
		{Date: last, Title: "Where things stand", ShowVaccinations: true,
			Narrative: "Cumulative totals at the end of the dataset."},
	}
	out := script[:0]
	for _, s := range script {
		if s.Date <= last {
			out = append(out, s)
		}
	}
	return out
}

func events(last domain.Date) []domain.TimelineEvent {
	all := []domain.TimelineEvent{
		{Date: domain.MustParseDate("2020-01-30"), Title: "Public health emergency declared", Icon: "alert"},
		{Date: domain.MustParseDate("2020-03-11"), Title: "Pandemic declared", Icon: "globe"},
		{Date: domain.MustParseDate("2020-12-08"), Title: "First vaccine dose administered", Icon: "syringe"},
		{Date: domain.MustParseDate("2021-11-26"), Title: "New variant of concern named", Icon: "virus"},
	}
	out := all[:0]
	for _, e := range all {
		if e.Date <= last {
			out = append(out, e)
		}
	}
	return out
}

func logistic(t, mid, k float64) float64 {
	return 1 / (1 + math.Exp(-k*(t-mid)))
}

func perMillion(v, population int64) float64 {
	if population <= 0 {
		return 0
	}
	return math.Round(float64(v)/float64(population)*1e6*100) / 100
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func writeYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func printStats(idx *dateindex.Index) {
	lo, hi := idx.Range()
	series := idx.GlobalSeries()
	final := series[len(series)-1]

	fmt.Println("\n=== Generated dataset ===")
	fmt.Printf("Range: %s .. %s (%d dates)\n", lo, hi, len(idx.Dates()))
	fmt.Printf("Final global cases: %d\n", final.TotalCases)
	fmt.Printf("Final global deaths: %d\n", final.TotalDeaths)
	fmt.Printf("Final global doses: %d\n", final.TotalVaccinations)

	_, snap := idx.Closest(hi)
	fmt.Printf("Countries on %s: %d\n", hi, snap.Len())
}
