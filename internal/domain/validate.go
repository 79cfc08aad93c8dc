package domain

// GlobalCountry labels DataShapeErrors raised for the global aggregate series.
const GlobalCountry = "global"

// ValidateTimeline checks that a country's series is strictly date-ascending,
// carries no negative figures, and never decreases a cumulative total.
// Unsorted input is rejected rather than sorted.
func ValidateTimeline(code string, timeline []DailyPoint) error {
	for i, p := range timeline {
		if err := checkNonNegative(code, i, p); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		prev := timeline[i-1]
		if p.Date <= prev.Date {
			return &DataShapeError{Country: code, Index: i, Field: "date",
				Reason: "timeline not strictly ascending (" + prev.Date.String() + " then " + p.Date.String() + ")"}
		}
		switch {
		case p.TotalCases < prev.TotalCases:
			return decreasing(code, i, "totalCases")
		case p.TotalDeaths < prev.TotalDeaths:
			return decreasing(code, i, "totalDeaths")
		case p.TotalVaccinations < prev.TotalVaccinations:
			return decreasing(code, i, "totalVaccinations")
		}
	}
	return nil
}

// ValidateGlobal applies the same ordering and monotonicity rules to the
// global aggregate series.
func ValidateGlobal(global []GlobalAggregate) error {
	for i, g := range global {
		if g.TotalCases < 0 || g.TotalDeaths < 0 || g.TotalVaccinations < 0 ||
			g.PeopleVaccinated < 0 || g.PeopleFullyVaccinated < 0 {
			return &DataShapeError{Country: GlobalCountry, Index: i, Field: "totals", Reason: "negative value"}
		}
		if i == 0 {
			continue
		}
		prev := global[i-1]
		if g.Date <= prev.Date {
			return &DataShapeError{Country: GlobalCountry, Index: i, Field: "date", Reason: "series not strictly ascending"}
		}
		switch {
		case g.TotalCases < prev.TotalCases:
			return decreasing(GlobalCountry, i, "totalCases")
		case g.TotalDeaths < prev.TotalDeaths:
			return decreasing(GlobalCountry, i, "totalDeaths")
		case g.TotalVaccinations < prev.TotalVaccinations:
			return decreasing(GlobalCountry, i, "totalVaccinations")
		}
	}
	return nil
}

func checkNonNegative(code string, i int, p DailyPoint) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"totalCases", float64(p.TotalCases)},
		{"totalDeaths", float64(p.TotalDeaths)},
		{"casesPerMillion", p.CasesPerMillion},
		{"deathsPerMillion", p.DeathsPerMillion},
		{"totalVaccinations", float64(p.TotalVaccinations)},
		{"peopleVaccinated", float64(p.PeopleVaccinated)},
		{"peopleFullyVaccinated", float64(p.PeopleFullyVaccinated)},
	}
	for _, f := range fields {
		if f.value < 0 {
			return &DataShapeError{Country: code, Index: i, Field: f.name, Reason: "negative value"}
		}
	}
	return nil
}

func decreasing(code string, i int, field string) error {
	return &DataShapeError{Country: code, Index: i, Field: field, Reason: "cumulative total decreased"}
}
