package export

import (
	"bytes"
	"encoding/json"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/clima-risk/climadash/internal/config"
	"github.com/clima-risk/climadash/internal/models"
)

func testDataset() *models.Dataset {
	temp := 28.5
	days := []models.DayRecord{
		{Date: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), TODIScore: 8.2, MaxTempC: &temp},
		{Date: time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC), TODIScore: 4.1},
		{Date: time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC), TODIScore: 2.0},
	}
	return &models.Dataset{
		Series:    days,
		FetchedAt: time.Date(2026, 6, 3, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteJSON(t *testing.T) {
	best := &models.Recommendation{
		Date: time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC), TODI: 2.0, Improvement: 76,
	}
	doc := BuildDocument("Wandiligong", testDataset(), best, nil, time.Date(2026, 6, 3, 13, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	if err := WriteJSON(&buf, doc); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var round map[string]any
	if err := json.Unmarshal(buf.Bytes(), &round); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if round["location"] != "Wandiligong" {
		t.Errorf("location = %v", round["location"])
	}
	days, ok := round["days"].([]any)
	if !ok || len(days) != 3 {
		t.Fatalf("days = %v, want 3 entries", round["days"])
	}
	first := days[0].(map[string]any)
	if first["date"] != "2026-06-01" {
		t.Errorf("first date = %v", first["date"])
	}
	// A day without wind readings must export null, not zero.
	if first["max_wind_speed_ms"] != nil {
		t.Errorf("missing wind = %v, want null", first["max_wind_speed_ms"])
	}
	if _, ok := round["safer_upcoming"]; ok {
		t.Error("nil safer_upcoming must be omitted")
	}
	rec := round["overall_best"].(map[string]any)
	if rec["date"] != "2026-06-03" {
		t.Errorf("recommendation date = %v, want plain day string", rec["date"])
	}
}

func TestWritePDF(t *testing.T) {
	doc := BuildDocument("Wandiligong", testDataset(), nil, nil, time.Now())

	var buf bytes.Buffer
	if err := WritePDF(&buf, doc); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "%PDF") {
		t.Errorf("output does not start with a PDF header: %q", buf.String()[:16])
	}
}

func TestWriteChart(t *testing.T) {
	ds := testDataset()
	th := config.Thresholds{Moderate: 3, High: 6, Extreme: 8}

	var buf bytes.Buffer
	if err := WriteChart(&buf, "Wandiligong", ds.Series, th); err != nil {
		t.Fatalf("WriteChart: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a decodable PNG: %v", err)
	}
	if img.Bounds().Dx() < 640 || img.Bounds().Dy() != 400 {
		t.Errorf("bounds = %v, want at least 640x400", img.Bounds())
	}
}

func TestWriteChart_EmptySeries(t *testing.T) {
	var buf bytes.Buffer
	err := WriteChart(&buf, "x", nil, config.Thresholds{Moderate: 3, High: 6, Extreme: 8})
	if err == nil {
		t.Fatal("expected error for empty series")
	}
}
