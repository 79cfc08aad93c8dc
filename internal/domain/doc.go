// Package domain models the pandemic time-series dataset behind the scroll
// map: per-country daily series, global aggregates, the authored scene script
// and timeline events.
//
// # Data Source
//
// The dataset is produced offline from Our World in Data exports and
// published as a single JSON document:
//
//	{
//	  "countries": { "<ISO3>": { "name", "population", "timeline": [DailyPoint...] } },
//	  "global":    [GlobalAggregate...],
//	  "metadata":  { "dateRange": { "start", "end" } }
//	}
//
// # Conventions
//
// Dates:
//
//	Every date on the wire is "YYYY-MM-DD" (RFC 3339 timestamps are accepted
//	and truncated to their UTC day). In memory a date is a [Date], a day count
//	since 1970-01-01, so dates compare with < and interpolate as integers.
//
// Cumulative fields:
//
//	totalCases, totalDeaths and totalVaccinations are running totals. Within a
//	series they never decrease, and no numeric field is negative. Per-million
//	rates are derived upstream and only checked for sign.
//
// Gaps:
//
//	Series are irregular. A country may start reporting late, skip days, or
//	stop early. Missing days are simply absent; nothing is forward-filled.
//
// # Validation
//
// [DecodeDataset] validates shape at the load boundary and returns a
// [*DataShapeError] on the first violation. Unsorted series are rejected, not
// sorted, so an index built from a decoded dataset never holds inconsistent
// data.
//
// # Scene Script
//
// Scenes are authored in date order; their index in the script is the scroll
// step. Ordering is a precondition of the script and is reported by the
// validate command, not enforced at runtime.
package domain
