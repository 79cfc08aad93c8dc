// Package interp maps the continuous scroll signal onto calendar dates.
package interp

import (
	"math"

	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
)

// Interpolator resolves (scene, progress) pairs to dates between consecutive
// scene dates, bounded by the dataset range.
type Interpolator struct {
	scenes []domain.Scene
	lo, hi domain.Date
}

// New creates an Interpolator over the scene script. lo and hi are the
// dataset's first and last indexed dates.
func New(scenes []domain.Scene, lo, hi domain.Date) *Interpolator {
	return &Interpolator{scenes: scenes, lo: lo, hi: hi}
}

// Resolve returns the date shown at progress p through scene i.
//
// The last scene has nothing to interpolate toward and always resolves to its
// own date. Otherwise the result blends scenes[i].Date and scenes[i+1].Date
// linearly with p clamped to [0, 1] and rounded to the nearest day, so p=0 and
// p=1 land exactly on the two scene dates. The result is clamped into the
// dataset range.
func (in *Interpolator) Resolve(i int, p float64) domain.Date {
	n := len(in.scenes)
	if n == 0 {
		return in.lo
	}
	i = clampIndex(i, n)
	from := in.scenes[i].Date
	if i == n-1 {
		return domain.ClampDate(from, in.lo, in.hi)
	}
	to := in.scenes[i+1].Date

	p = ClampProgress(p)
	span := float64(to.DaysSince(from))
	d := from.AddDays(int(math.Round(span * p)))
	return domain.ClampDate(d, in.lo, in.hi)
}

// ShowVaccinations reports the display mode while scrolling through scene i:
// vaccination colouring applies if either end of the segment uses it.
func (in *Interpolator) ShowVaccinations(i int) bool {
	n := len(in.scenes)
	if n == 0 {
		return false
	}
	i = clampIndex(i, n)
	if in.scenes[i].ShowVaccinations {
		return true
	}
	return i+1 < n && in.scenes[i+1].ShowVaccinations
}

// Scenes returns the script the interpolator was built with.
func (in *Interpolator) Scenes() []domain.Scene { return in.scenes }

// Len is the number of scenes.
func (in *Interpolator) Len() int { return len(in.scenes) }

// Range returns the dataset bounds used for clamping.
func (in *Interpolator) Range() (lo, hi domain.Date) { return in.lo, in.hi }

// ClampProgress bounds p to [0, 1]; NaN becomes 0.
func ClampProgress(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
