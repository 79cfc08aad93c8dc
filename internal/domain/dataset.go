package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Dataset is the time-series file as published by the data pipeline.
type Dataset struct {
	Countries map[string]countryEntry `json:"countries"`
	Global    []GlobalAggregate       `json:"global"`
	Metadata  Metadata                `json:"metadata"`
}

type countryEntry struct {
	Name       string       `json:"name"`
	Population int64        `json:"population"`
	Timeline   []DailyPoint `json:"timeline"`
}

// Metadata describes the dataset as a whole.
type Metadata struct {
	DateRange   DateRange `json:"dateRange"`
	GeneratedAt time.Time `json:"generatedAt,omitzero"`
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// DecodeDataset parses the dataset file and checks its shape at the load
// boundary. A decoded dataset always passes ValidateTimeline for every country
// and ValidateGlobal for the aggregates.
func DecodeDataset(data []byte) (Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	for code, c := range ds.Countries {
		if !isISO3(code) {
			return Dataset{}, &DataShapeError{Country: code, Index: -1, Field: "code", Reason: "not an ISO3 code"}
		}
		if c.Population < 0 {
			return Dataset{}, &DataShapeError{Country: code, Index: -1, Field: "population", Reason: "negative value"}
		}
		if err := ValidateTimeline(code, c.Timeline); err != nil {
			return Dataset{}, err
		}
	}
	if err := ValidateGlobal(ds.Global); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// CountryRecords flattens the country map into records sorted by code.
func (ds Dataset) CountryRecords() []CountryRecord {
	out := make([]CountryRecord, 0, len(ds.Countries))
	for code, c := range ds.Countries {
		out = append(out, CountryRecord{
			Code:       code,
			Name:       c.Name,
			Population: c.Population,
			Timeline:   c.Timeline,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// NewDataset assembles a Dataset from records, the inverse of CountryRecords.
func NewDataset(records []CountryRecord, global []GlobalAggregate, meta Metadata) Dataset {
	ds := Dataset{
		Countries: make(map[string]countryEntry, len(records)),
		Global:    global,
		Metadata:  meta,
	}
	for _, r := range records {
		ds.Countries[r.Code] = countryEntry{Name: r.Name, Population: r.Population, Timeline: r.Timeline}
	}
	return ds
}

// DecodeScenesJSON parses a JSON scene script. Ordering is the author's
// responsibility and is not checked here.
func DecodeScenesJSON(data []byte) ([]Scene, error) {
	var scenes []Scene
	if err := json.Unmarshal(data, &scenes); err != nil {
		return nil, fmt.Errorf("decode scenes: %w", err)
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("decode scenes: script is empty")
	}
	return scenes, nil
}

// DecodeEvents parses the timeline events file.
func DecodeEvents(data []byte) ([]TimelineEvent, error) {
	var events []TimelineEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

func isISO3(code string) bool {
	if len(code) != 3 {
		return false
	}
	// Rejects OWID_* aggregate rows and lower-case typos.
	return strings.ToUpper(code) == code
}
