package domain

// DailyPoint is one country's cumulative figures for one calendar day.
type DailyPoint struct {
	Date                  Date    `json:"date"`
	TotalCases            int64   `json:"totalCases"`
	TotalDeaths           int64   `json:"totalDeaths"`
	CasesPerMillion       float64 `json:"casesPerMillion"`
	DeathsPerMillion      float64 `json:"deathsPerMillion"`
	TotalVaccinations     int64   `json:"totalVaccinations"`
	PeopleVaccinated      int64   `json:"peopleVaccinated"`
	PeopleFullyVaccinated int64   `json:"peopleFullyVaccinated"`
}

// CountryRecord is a country's full daily series, ordered by date ascending.
type CountryRecord struct {
	Code       string       `json:"code"`
	Name       string       `json:"name"`
	Population int64        `json:"population"`
	Timeline   []DailyPoint `json:"timeline"`
}

// GlobalAggregate holds per-date totals across all countries.
type GlobalAggregate struct {
	Date                  Date  `json:"date"`
	TotalCases            int64 `json:"totalCases"`
	TotalDeaths           int64 `json:"totalDeaths"`
	TotalVaccinations     int64 `json:"totalVaccinations"`
	PeopleVaccinated      int64 `json:"peopleVaccinated"`
	PeopleFullyVaccinated int64 `json:"peopleFullyVaccinated"`
}

// CountrySnapshot is a DailyPoint annotated with the country it belongs to.
type CountrySnapshot struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Population int64  `json:"population"`
	DailyPoint
}

// FullyVaccinatedPercent returns the share of the population fully
// vaccinated, or 0 when population is unknown.
func (c CountrySnapshot) FullyVaccinatedPercent() float64 {
	if c.Population <= 0 {
		return 0
	}
	return float64(c.PeopleFullyVaccinated) / float64(c.Population) * 100
}

// Snapshot is the per-country data slice for one calendar date. Snapshots
// returned by the index share their map with it and must not be mutated.
type Snapshot struct {
	Date      Date
	Countries map[string]CountrySnapshot
}

// Len reports how many countries have data in the snapshot.
func (s Snapshot) Len() int { return len(s.Countries) }

// Get looks up one country by ISO3 code.
func (s Snapshot) Get(code string) (CountrySnapshot, bool) {
	c, ok := s.Countries[code]
	return c, ok
}

// Scene is an authored narrative waypoint. Its position in the script is the
// scroll step index.
type Scene struct {
	Date             Date   `json:"date" yaml:"date"`
	Title            string `json:"title" yaml:"title"`
	Subtitle         string `json:"subtitle" yaml:"subtitle"`
	Narrative        string `json:"narrative" yaml:"narrative"`
	ShowVaccinations bool   `json:"showVaccinations" yaml:"showVaccinations"`
}

// TimelineEvent is a dated annotation shown alongside the narrative.
type TimelineEvent struct {
	Date        Date   `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}
