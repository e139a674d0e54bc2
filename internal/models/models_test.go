package models

import (
	"encoding/json"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

func TestDailyArraysSeries(t *testing.T) {
	a := DailyArrays{
		Timestamps: []string{"2026-06-01", "2026-06-02T00:00:00Z"},
		TODIScore:  []float64{7.5, 3.0},
		MaxTempC:   []*float64{fp(30), nil},
	}

	series, err := a.Series()
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("len = %d, want 2", len(series))
	}
	if !series[0].Date.Equal(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date 0 = %v", series[0].Date)
	}
	// RFC3339 timestamps truncate to the day.
	if !series[1].Date.Equal(time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date 1 = %v", series[1].Date)
	}
	if series[0].MaxTempC == nil || *series[0].MaxTempC != 30 {
		t.Errorf("temp 0 = %v, want 30", series[0].MaxTempC)
	}
	if series[1].MaxTempC != nil {
		t.Errorf("temp 1 = %v, want nil", series[1].MaxTempC)
	}
	// Arrays omitted entirely leave every field nil.
	if series[0].MaxWindMS != nil || series[0].DewpointC != nil {
		t.Error("omitted arrays must stay nil")
	}
}

func TestDailyArraysSeries_Errors(t *testing.T) {
	tests := []struct {
		name string
		a    DailyArrays
	}{
		{"empty", DailyArrays{}},
		{"misaligned todi", DailyArrays{Timestamps: []string{"2026-06-01"}, TODIScore: []float64{1, 2}}},
		{"misaligned optional", DailyArrays{
			Timestamps: []string{"2026-06-01", "2026-06-02"},
			TODIScore:  []float64{1, 2},
			MaxWindMS:  []*float64{fp(5)},
		}},
		{"bad timestamp", DailyArrays{Timestamps: []string{"June 1st"}, TODIScore: []float64{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.a.Series(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSameDayAndIndexOf(t *testing.T) {
	series := DailySeries{
		{Date: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)},
	}

	noon := time.Date(2026, 6, 2, 12, 30, 0, 0, time.UTC)
	if !SameDay(series[1].Date, noon) {
		t.Error("SameDay must ignore time-of-day")
	}
	if got := series.IndexOf(noon); got != 1 {
		t.Errorf("IndexOf = %d, want 1", got)
	}
	if got := series.IndexOf(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)); got != -1 {
		t.Errorf("IndexOf missing day = %d, want -1", got)
	}
}

func TestRecommendationJSONRoundTrip(t *testing.T) {
	rec := Recommendation{
		Date:        time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC),
		TODI:        2.5,
		Improvement: 40,
		Notes:       "Lowest TODI score (2.5) across the full period.",
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		t.Fatalf("unmarshal into map: %v", err)
	}
	if asMap["date"] != "2026-06-03" {
		t.Errorf("date = %v, want plain day string", asMap["date"])
	}

	var round Recommendation
	if err := json.Unmarshal(raw, &round); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !round.Date.Equal(rec.Date) || round.Improvement != 40 {
		t.Errorf("round trip = %+v", round)
	}

	if err := json.Unmarshal([]byte(`{"date": "3 June"}`), &round); err == nil {
		t.Error("expected error for a malformed date")
	}
}

func TestClimatologyMonthMean(t *testing.T) {
	c := Climatology{MonthlyTODI: []float64{4, 4, 5, 5, 6, 7, 8, 8, 7, 6, 5, 4}}
	if mean, ok := c.MonthMean(time.December); !ok || mean != 4 {
		t.Errorf("December = %v/%v", mean, ok)
	}
	if _, ok := (Climatology{}).MonthMean(time.June); ok {
		t.Error("empty climatology must report no mean")
	}
}

func TestLocationDisplayName(t *testing.T) {
	loc := Location{Latitude: -36.7439, Longitude: 146.9631}
	if got := loc.DisplayName(); got != "-36.7439, 146.9631" {
		t.Errorf("DisplayName = %q, want coordinate fallback", got)
	}
	loc.Label = "Wandiligong"
	if got := loc.DisplayName(); got != "Wandiligong" {
		t.Errorf("DisplayName = %q", got)
	}
}
