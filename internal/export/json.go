// Package export renders the loaded dataset and recommendations into
// downloadable documents.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/clima-risk/climadash/internal/metrics"
	"github.com/clima-risk/climadash/internal/models"
)

// Document is the flattened view of a dashboard snapshot used by every
// export format.
type Document struct {
	Location      string                 `json:"location"`
	GeneratedAt   time.Time              `json:"generated_at"`
	FetchedAt     time.Time              `json:"fetched_at"`
	Days          []Day                  `json:"days"`
	OverallBest   *models.Recommendation `json:"overall_best,omitempty"`
	SaferUpcoming *models.Recommendation `json:"safer_upcoming,omitempty"`
}

// Day is one dataset row. Optional weather fields stay nullable so the
// output distinguishes missing readings from zeroes.
type Day struct {
	Date      string   `json:"date"`
	TODIScore float64  `json:"todi_score"`
	MaxTempC  *float64 `json:"max_temp_celsius"`
	MaxWindMS *float64 `json:"max_wind_speed_ms"`
	DewpointC *float64 `json:"dewpoint_celsius"`
}

// BuildDocument assembles a Document from the current dashboard state.
func BuildDocument(location string, ds *models.Dataset, best, safer *models.Recommendation, now time.Time) Document {
	doc := Document{
		Location:      location,
		GeneratedAt:   now.UTC(),
		FetchedAt:     ds.FetchedAt,
		Days:          make([]Day, 0, len(ds.Series)),
		OverallBest:   best,
		SaferUpcoming: safer,
	}
	for _, d := range ds.Series {
		doc.Days = append(doc.Days, Day{
			Date:      d.Date.Format("2006-01-02"),
			TODIScore: d.TODIScore,
			MaxTempC:  d.MaxTempC,
			MaxWindMS: d.MaxWindMS,
			DewpointC: d.DewpointC,
		})
	}
	return doc
}

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	metrics.ExportsTotal.WithLabelValues("json").Inc()
	return nil
}
