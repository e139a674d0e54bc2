// Package recommend implements the best-day search over a daily risk
// series. Lower TODI scores are safer.
package recommend

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/clima-risk/climadash/internal/models"
)

var (
	// ErrEmptySeries is returned when a recommendation is requested for a
	// series with no days.
	ErrEmptySeries = errors.New("recommend: empty series")

	// ErrDateNotFound is returned when the reference date has no entry in
	// the series.
	ErrDateNotFound = errors.New("recommend: reference date not in series")
)

// OverallBest returns the single globally safest day: the first day in
// chronological order whose score equals the running minimum. Later days
// with an equal score do not replace it. Improvement is measured against
// the first day of the series and is never negative.
func OverallBest(series models.DailySeries) (models.Recommendation, error) {
	if len(series) == 0 {
		return models.Recommendation{}, ErrEmptySeries
	}

	best := series[0]
	for _, d := range series[1:] {
		if d.TODIScore < best.TODIScore {
			best = d
		}
	}

	return models.Recommendation{
		Date:        best.Date,
		TODI:        best.TODIScore,
		Improvement: improvementPercent(series[0].TODIScore, best.TODIScore),
		Notes:       fmt.Sprintf("Lowest TODI score (%.1f) across the full period.", best.TODIScore),
	}, nil
}

// SaferUpcoming returns the FIRST day strictly after the reference day with
// a strictly lower score. First improvement wins, not best improvement.
// It returns nil when no later day is strictly safer, and ErrDateNotFound
// when the reference date cannot be located in the series.
func SaferUpcoming(series models.DailySeries, reference time.Time) (*models.Recommendation, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}

	refIdx := series.IndexOf(reference)
	if refIdx < 0 {
		return nil, ErrDateNotFound
	}
	ref := series[refIdx]

	for _, d := range series[refIdx+1:] {
		if d.TODIScore < ref.TODIScore {
			rec := models.Recommendation{
				Date:        d.Date,
				TODI:        d.TODIScore,
				Improvement: improvementPercent(ref.TODIScore, d.TODIScore),
				Notes: fmt.Sprintf("First day after %s with a lower TODI score (%.1f vs %.1f).",
					ref.Date.Format("2006-01-02"), d.TODIScore, ref.TODIScore),
			}
			return &rec, nil
		}
	}
	return nil, nil
}

// improvementPercent is round((base-candidate)/base*100) clamped at zero.
// A non-positive base would divide by zero (or flip the sign), so it also
// reports zero improvement.
func improvementPercent(base, candidate float64) int {
	if base <= 0 {
		return 0
	}
	pct := int(math.Round((base - candidate) / base * 100))
	if pct < 0 {
		return 0
	}
	return pct
}
