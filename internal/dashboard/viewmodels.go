package dashboard

import (
	"time"

	"github.com/clima-risk/climadash/internal/format"
	"github.com/clima-risk/climadash/internal/live"
	"github.com/clima-risk/climadash/internal/models"
)

// PageData is the fully formatted viewmodel for the dashboard template.
type PageData struct {
	Location  string
	Latitude  float64
	Longitude float64
	Flash     string
	Blurb     string

	HasData   bool
	LoadError string
	FetchedAt string

	Days         []DayView
	SelectedDate string

	Rec       *RecView
	RecSource string
	RecNote   string

	Live LiveView
}

// DayView is one formatted table row.
type DayView struct {
	Date      string
	DateLabel string
	TODI      string
	Level     string
	MaxTemp   string
	MaxWind   string
	Dewpoint  string
	Selected  bool
}

// RecView is the formatted recommendation card.
type RecView struct {
	Date        string
	DateLabel   string
	TODI        string
	Improvement int
	Notes       string
}

// LiveView is the live session panel.
type LiveView struct {
	Status    string
	Streaming bool
	Log       []string
	Error     string
}

// Page builds the template viewmodel and consumes any pending flash
// message.
func (c *Controller) Page() PageData {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := PageData{
		Location:  c.location.DisplayName(),
		Latitude:  c.location.Latitude,
		Longitude: c.location.Longitude,
		Flash:     c.flash,
		Blurb:     c.blurb,
	}
	c.flash = ""

	if c.loadErr != nil {
		data.LoadError = "Climate risk data is unavailable for this location right now."
		return data
	}
	if c.dataset == nil {
		return data
	}

	data.HasData = true
	data.FetchedAt = c.dataset.FetchedAt.Format("2 Jan 2006 15:04 MST")
	if c.selected != nil {
		data.SelectedDate = c.selected.Format("2006-01-02")
	}

	for _, d := range c.dataset.Series {
		data.Days = append(data.Days, DayView{
			Date:      d.Date.Format("2006-01-02"),
			DateLabel: d.Date.Format("Mon, 2 Jan"),
			TODI:      format.Float(d.TODIScore, 1),
			Level:     c.thresholds.Level(d.TODIScore),
			MaxTemp:   format.Number(d.MaxTempC, 1),
			MaxWind:   format.Number(d.MaxWindMS, 1),
			Dewpoint:  format.Number(d.DewpointC, 1),
			Selected:  c.selected != nil && models.SameDay(d.Date, *c.selected),
		})
	}

	snap := c.session.Snapshot()
	rec, source, note := c.derivedRecommendation(snap)
	data.RecSource = source
	data.RecNote = note
	if rec != nil {
		data.Rec = recView(*rec)
	}

	data.Live = LiveView{
		Status:    snap.Status.String(),
		Streaming: snap.Status == live.StatusStreaming,
		Log:       snap.Log,
		Error:     describeSessionErr(snap.Err),
	}
	return data
}

func recView(rec models.Recommendation) *RecView {
	return &RecView{
		Date:        rec.Date.Format("2006-01-02"),
		DateLabel:   rec.Date.Format("Monday, 2 January"),
		TODI:        format.Float(rec.TODI, 1),
		Improvement: rec.Improvement,
		Notes:       rec.Notes,
	}
}

// Summary is the JSON state endpoint payload.
type Summary struct {
	Location       string                 `json:"location"`
	Latitude       float64                `json:"latitude"`
	Longitude      float64                `json:"longitude"`
	FetchedAt      *time.Time             `json:"fetched_at,omitempty"`
	SelectedDate   string                 `json:"selected_date,omitempty"`
	Recommendation *models.Recommendation `json:"recommendation,omitempty"`
	Source         string                 `json:"recommendation_source,omitempty"`
	LiveStatus     string                 `json:"live_status"`
	LiveLog        []string               `json:"live_log,omitempty"`
}

// Summary builds the /api/summary payload.
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.session.Snapshot()
	out := Summary{
		Location:   c.location.DisplayName(),
		Latitude:   c.location.Latitude,
		Longitude:  c.location.Longitude,
		LiveStatus: snap.Status.String(),
		LiveLog:    snap.Log,
	}
	if c.dataset == nil {
		return out
	}

	t := c.dataset.FetchedAt
	out.FetchedAt = &t
	if c.selected != nil {
		out.SelectedDate = c.selected.Format("2006-01-02")
	}
	rec, source, _ := c.derivedRecommendation(snap)
	out.Recommendation = rec
	out.Source = source
	return out
}
