package riskapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

const riskBody = `{
	"location": "Test Valley",
	"daily_summary": {
		"timestamps": ["2026-06-01", "2026-06-02", "2026-06-03"],
		"todi_score": [10, 8, 3],
		"max_temp_celsius": [31.2, 29.8, 24.1],
		"max_wind_speed_ms": [5.5, 4.1, 3.0],
		"dewpoint_celsius": [18.0, 17.5, 12.2]
	}
}`

const climatologyBody = `{"period": "1991-2020", "monthly_todi_mean": [4,4,5,5,6,7,8,8,7,6,5,4]}`

func newBackend(t *testing.T, risk, clim http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/real/risk", risk)
	mux.HandleFunc("/api/climatology", clim)
	return httptest.NewServer(mux)
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestFetchDataset(t *testing.T) {
	srv := newBackend(t, serveJSON(riskBody), serveJSON(climatologyBody))
	defer srv.Close()

	now := time.Date(2026, 6, 3, 12, 0, 0, 0, time.UTC)
	client := NewClient(srv.URL, 5*time.Second, clockwork.NewFakeClockAt(now))
	ds, err := client.FetchDataset(context.Background(), -36.79, 146.98)
	if err != nil {
		t.Fatalf("FetchDataset: %v", err)
	}

	if !ds.FetchedAt.Equal(now) {
		t.Errorf("FetchedAt = %v, want the injected clock's time", ds.FetchedAt)
	}

	if len(ds.Series) != 3 {
		t.Fatalf("series length = %d, want 3", len(ds.Series))
	}
	first := ds.Series[0]
	if first.Date.Format("2006-01-02") != "2026-06-01" {
		t.Errorf("first date = %s", first.Date.Format("2006-01-02"))
	}
	if first.TODIScore != 10 {
		t.Errorf("first TODI = %v, want 10", first.TODIScore)
	}
	if first.MaxTempC == nil || *first.MaxTempC != 31.2 {
		t.Errorf("first max temp = %v, want 31.2", first.MaxTempC)
	}
	if ds.Climatology.Period != "1991-2020" {
		t.Errorf("climatology period = %q", ds.Climatology.Period)
	}
	if mean, ok := ds.Climatology.MonthMean(time.June); !ok || mean != 7 {
		t.Errorf("June mean = %v/%v, want 7/true", mean, ok)
	}
}

func TestFetchDataset_EitherFailureAbortsLoad(t *testing.T) {
	fail := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	}

	t.Run("risk fails", func(t *testing.T) {
		srv := newBackend(t, fail, serveJSON(climatologyBody))
		defer srv.Close()

		client := NewClient(srv.URL, 5*time.Second, nil)
		if _, err := client.FetchDataset(context.Background(), 0, 0); err == nil {
			t.Fatal("expected error when the risk request fails")
		} else if !strings.Contains(err.Error(), "risk series") {
			t.Errorf("err = %v, want risk series context", err)
		}
	})

	t.Run("climatology fails", func(t *testing.T) {
		srv := newBackend(t, serveJSON(riskBody), fail)
		defer srv.Close()

		client := NewClient(srv.URL, 5*time.Second, nil)
		if _, err := client.FetchDataset(context.Background(), 0, 0); err == nil {
			t.Fatal("expected error when the climatology request fails")
		}
	})
}

func TestFetchDataset_MisalignedArrays(t *testing.T) {
	misaligned := `{
		"daily_summary": {
			"timestamps": ["2026-06-01", "2026-06-02"],
			"todi_score": [10]
		}
	}`
	srv := newBackend(t, serveJSON(misaligned), serveJSON(climatologyBody))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)
	if _, err := client.FetchDataset(context.Background(), 0, 0); err == nil {
		t.Fatal("expected error for misaligned parallel arrays")
	}
}

func TestFetchDataset_PassesCoordinates(t *testing.T) {
	var gotLat, gotLon string
	risk := func(w http.ResponseWriter, r *http.Request) {
		gotLat = r.URL.Query().Get("lat")
		gotLon = r.URL.Query().Get("lon")
		serveJSON(riskBody)(w, r)
	}
	srv := newBackend(t, risk, serveJSON(climatologyBody))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)
	if _, err := client.FetchDataset(context.Background(), -36.794, 146.977); err != nil {
		t.Fatalf("FetchDataset: %v", err)
	}
	if gotLat != "-36.794000" || gotLon != "146.977000" {
		t.Errorf("coordinates = %s,%s, want -36.794000,146.977000", gotLat, gotLon)
	}
}
