package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// dayFormat is the day-granularity date layout used across the risk API.
const dayFormat = "2006-01-02"

// DayRecord is a single day of the historical risk series. TODIScore is
// always present; the auxiliary metrics may be missing for individual days.
type DayRecord struct {
	Date      time.Time `json:"date"`
	TODIScore float64   `json:"todi_score"`
	MaxTempC  *float64  `json:"max_temp_celsius,omitempty"`
	MaxWindMS *float64  `json:"max_wind_speed_ms,omitempty"`
	DewpointC *float64  `json:"dewpoint_celsius,omitempty"`
}

// DailySeries is the ordered per-day historical dataset for a location,
// ascending by date with one entry per day.
type DailySeries []DayRecord

// SameDay reports whether two timestamps fall on the same calendar day,
// ignoring time-of-day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IndexOf returns the index of the first entry matching date at day
// granularity, or -1 if no entry matches.
func (s DailySeries) IndexOf(date time.Time) int {
	for i, d := range s {
		if SameDay(d.Date, date) {
			return i
		}
	}
	return -1
}

// Recommendation is a best-day suggestion: either the globally lowest-score
// day or the nearest later day that beats a selected reference day.
// Improvement is an integer percentage, never negative.
type Recommendation struct {
	Date        time.Time
	TODI        float64
	Improvement int
	Notes       string
}

type recommendationJSON struct {
	Date        string  `json:"date"`
	TODI        float64 `json:"todi"`
	Improvement int     `json:"improvement"`
	Notes       string  `json:"notes,omitempty"`
}

// MarshalJSON renders Date as a plain YYYY-MM-DD day, matching the wire
// format of the risk backend's embedded recommendation object.
func (r Recommendation) MarshalJSON() ([]byte, error) {
	return json.Marshal(recommendationJSON{
		Date:        r.Date.Format(dayFormat),
		TODI:        r.TODI,
		Improvement: r.Improvement,
		Notes:       r.Notes,
	})
}

func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var raw recommendationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := time.Parse(dayFormat, raw.Date)
	if err != nil {
		return fmt.Errorf("parse recommendation date %q: %w", raw.Date, err)
	}
	*r = Recommendation{
		Date:        date,
		TODI:        raw.TODI,
		Improvement: raw.Improvement,
		Notes:       raw.Notes,
	}
	return nil
}

// DailyArrays is the parallel-array encoding the risk backend uses for
// per-day data, both in the historical payload and in live results.
type DailyArrays struct {
	Timestamps []string   `json:"timestamps"`
	TODIScore  []float64  `json:"todi_score"`
	MaxTempC   []*float64 `json:"max_temp_celsius"`
	MaxWindMS  []*float64 `json:"max_wind_speed_ms"`
	DewpointC  []*float64 `json:"dewpoint_celsius"`
}

// Series converts the parallel arrays into an aligned DailySeries. All
// non-empty arrays must share the timestamp array's length.
func (a DailyArrays) Series() (DailySeries, error) {
	n := len(a.Timestamps)
	if n == 0 {
		return nil, fmt.Errorf("empty timestamps")
	}
	if len(a.TODIScore) != n {
		return nil, fmt.Errorf("todi_score length %d does not match %d timestamps", len(a.TODIScore), n)
	}
	for name, l := range map[string]int{
		"max_temp_celsius":  len(a.MaxTempC),
		"max_wind_speed_ms": len(a.MaxWindMS),
		"dewpoint_celsius":  len(a.DewpointC),
	} {
		if l != 0 && l != n {
			return nil, fmt.Errorf("%s length %d does not match %d timestamps", name, l, n)
		}
	}

	series := make(DailySeries, 0, n)
	for i := 0; i < n; i++ {
		date, err := parseDay(a.Timestamps[i])
		if err != nil {
			return nil, fmt.Errorf("timestamp %d: %w", i, err)
		}
		rec := DayRecord{Date: date, TODIScore: a.TODIScore[i]}
		if len(a.MaxTempC) == n {
			rec.MaxTempC = a.MaxTempC[i]
		}
		if len(a.MaxWindMS) == n {
			rec.MaxWindMS = a.MaxWindMS[i]
		}
		if len(a.DewpointC) == n {
			rec.DewpointC = a.DewpointC[i]
		}
		series = append(series, rec)
	}
	return series, nil
}

func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(dayFormat, s); err == nil {
		return t, nil
	}
	// Some payloads carry full timestamps; truncate to the day.
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized day %q", s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Climatology is the long-term normals payload served alongside the risk
// series. The dashboard treats it as display-only context.
type Climatology struct {
	Period      string    `json:"period"`
	MonthlyTODI []float64 `json:"monthly_todi_mean"`
}

// MonthMean returns the climatological mean TODI for a month, if present.
func (c Climatology) MonthMean(m time.Month) (float64, bool) {
	i := int(m) - 1
	if i < 0 || i >= len(c.MonthlyTODI) {
		return 0, false
	}
	return c.MonthlyTODI[i], true
}

// Dataset is the joined pair of historical payloads for one location. Both
// halves are required before the dashboard renders.
type Dataset struct {
	Series      DailySeries
	Climatology Climatology
	FetchedAt   time.Time
}

// LiveSummary is the live-derived risk payload embedded in a terminal
// "result" event.
type LiveSummary struct {
	Location  string      `json:"location"`
	FetchedAt string      `json:"fetched_at"`
	Daily     DailyArrays `json:"daily_summary"`
}

// Location is a resolved dashboard location. Label is the best-effort place
// name; when geocoding fails it degrades to the raw coordinates.
type Location struct {
	Latitude  float64
	Longitude float64
	Label     string
}

// CoordinateLabel is the fallback display name for an unresolved location.
func (l Location) CoordinateLabel() string {
	return fmt.Sprintf("%.4f, %.4f", l.Latitude, l.Longitude)
}

// DisplayName returns the resolved label, or raw coordinates when
// reverse geocoding was unavailable.
func (l Location) DisplayName() string {
	if l.Label != "" {
		return l.Label
	}
	return l.CoordinateLabel()
}
