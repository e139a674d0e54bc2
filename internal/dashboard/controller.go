// Package dashboard owns the page state of the climate risk dashboard and
// serves its HTTP surface.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/clima-risk/climadash/internal/config"
	"github.com/clima-risk/climadash/internal/export"
	"github.com/clima-risk/climadash/internal/geocode"
	"github.com/clima-risk/climadash/internal/live"
	"github.com/clima-risk/climadash/internal/models"
	"github.com/clima-risk/climadash/internal/narrative"
	"github.com/clima-risk/climadash/internal/recommend"
)

// DatasetFetcher loads the historical dataset for a coordinate pair.
type DatasetFetcher interface {
	FetchDataset(ctx context.Context, lat, lon float64) (*models.Dataset, error)
}

// Narrator writes an optional blurb about a recommendation.
type Narrator interface {
	Describe(ctx context.Context, location string, rec models.Recommendation) (string, error)
}

// ErrNoDataset is returned by operations that need a loaded dataset.
var ErrNoDataset = errors.New("dashboard: no dataset loaded")

// Controller holds all transient dashboard state: the loaded dataset, the
// resolved location, the selected date, and the single live session. All
// mutation goes through it under one lock; handlers only read viewmodels.
type Controller struct {
	clock      clockwork.Clock
	thresholds config.Thresholds
	fetcher    DatasetFetcher
	geocoder   geocode.Geocoder
	subscriber live.Subscriber
	narrator   Narrator

	mu       sync.Mutex
	dataset  *models.Dataset
	loadErr  error
	location models.Location
	selected *time.Time
	session  *live.Session
	flash    string
	blurb    string
}

// NewController wires the dashboard controller. geocoder and narrator may
// be nil; lookups then degrade to coordinate labels and template text.
func NewController(th config.Thresholds, fetcher DatasetFetcher, geocoder geocode.Geocoder, subscriber live.Subscriber, narrator Narrator, clock clockwork.Clock) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		clock:      clock,
		thresholds: th,
		fetcher:    fetcher,
		geocoder:   geocoder,
		subscriber: subscriber,
		narrator:   narrator,
		session:    live.NewSession(clock),
	}
}

// LoadLocation fetches the dataset for the coordinates and resolves a
// display label. A fetch failure replaces the page with the inline data
// error; the label degrades to "lat, lon" when reverse lookup fails.
func (c *Controller) LoadLocation(ctx context.Context, lat, lon float64) {
	loc := models.Location{Latitude: lat, Longitude: lon}
	loc.Label = c.resolveLabel(ctx, lat, lon)

	ds, err := c.fetcher.FetchDataset(ctx, lat, lon)

	c.mu.Lock()
	c.location = loc
	c.selected = nil
	c.session.Reset()
	c.blurb = ""
	if err != nil {
		log.Printf("load dataset for %s: %v", loc.DisplayName(), err)
		c.dataset = nil
		c.loadErr = err
		c.mu.Unlock()
		return
	}
	c.dataset = ds
	c.loadErr = nil
	c.mu.Unlock()

	c.refreshBlurb(ctx, loc.DisplayName(), ds.Series)
}

// Search resolves a free-text query and loads the matched location. An
// empty result is a toast, not an error; prior page state stays intact.
func (c *Controller) Search(ctx context.Context, query string) {
	if c.geocoder == nil {
		c.setFlash("Location search is not configured.")
		return
	}
	res, err := c.geocoder.Search(ctx, query)
	if err != nil {
		log.Printf("search %q: %v", query, err)
		c.setFlash("Location search failed. Please try again.")
		return
	}
	if res == nil {
		c.setFlash("Location not found.")
		return
	}

	c.LoadLocation(ctx, res.Latitude, res.Longitude)
	if res.DisplayName != "" {
		c.mu.Lock()
		c.location.Label = res.DisplayName
		c.mu.Unlock()
	}
}

// SelectDate narrows the dashboard to one day. The date must exist in the
// loaded series. A completed live result is bound to the previous
// selection, so changing the date invalidates it.
func (c *Controller) SelectDate(date time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dataset == nil {
		return ErrNoDataset
	}
	if c.dataset.Series.IndexOf(date) < 0 {
		c.flash = "That day is not in the loaded dataset."
		return recommend.ErrDateNotFound
	}
	d := date
	c.selected = &d
	c.session.Invalidate()
	return nil
}

// ClearDate returns to the aggregate view. Like any date change it
// invalidates a completed live result.
func (c *Controller) ClearDate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
	c.session.Invalidate()
}

// StartAnalysis begins a live run for the selected date, or the first day
// of the series when none is selected. The subscription must outlive the
// request that triggered it.
func (c *Controller) StartAnalysis(ctx context.Context) error {
	c.mu.Lock()
	if c.dataset == nil || len(c.dataset.Series) == 0 {
		c.mu.Unlock()
		return ErrNoDataset
	}
	target := c.dataset.Series[0].Date
	if c.selected != nil {
		target = *c.selected
	}
	lat, lon := c.location.Latitude, c.location.Longitude
	sess := c.session
	c.mu.Unlock()

	if err := sess.Start(context.WithoutCancel(ctx), c.subscriber, lat, lon, target); err != nil {
		log.Printf("start live analysis: %v", err)
		c.setFlash("Could not reach the live analysis service.")
		return err
	}
	return nil
}

// Reset is the "show all" action: selection, live result, and log clear
// together.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
	c.session.Reset()
}

// Document snapshots the current state for export. onlyDate, when non-zero,
// narrows the day list to that single day.
func (c *Controller) Document(onlyDate time.Time) (export.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dataset == nil {
		return export.Document{}, ErrNoDataset
	}

	ds := c.dataset
	if !onlyDate.IsZero() {
		i := ds.Series.IndexOf(onlyDate)
		if i < 0 {
			return export.Document{}, recommend.ErrDateNotFound
		}
		narrowed := *ds
		narrowed.Series = ds.Series[i : i+1]
		ds = &narrowed
	}

	var best, safer *models.Recommendation
	if b, err := recommend.OverallBest(c.dataset.Series); err == nil {
		best = &b
	}
	if c.selected != nil {
		if s, err := recommend.SaferUpcoming(c.dataset.Series, *c.selected); err == nil {
			safer = s
		}
	}
	return export.BuildDocument(c.location.DisplayName(), ds, best, safer, c.clock.Now()), nil
}

// Dataset returns the loaded dataset and location label for chart and
// graph rendering.
func (c *Controller) Dataset() (*models.Dataset, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dataset == nil {
		return nil, "", ErrNoDataset
	}
	return c.dataset, c.location.DisplayName(), nil
}

// Thresholds returns the risk thresholds the controller was built with.
func (c *Controller) Thresholds() config.Thresholds {
	return c.thresholds
}

func (c *Controller) setFlash(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flash = msg
}

func (c *Controller) resolveLabel(ctx context.Context, lat, lon float64) string {
	if c.geocoder == nil {
		return ""
	}
	res, err := c.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		log.Printf("reverse geocode %.4f,%.4f: %v", lat, lon, err)
		return ""
	}
	if res == nil {
		return ""
	}
	return res.DisplayName
}

// refreshBlurb regenerates the narrative for a freshly loaded dataset.
// Failures fall back to template text; the page never blocks on this being
// anything better.
func (c *Controller) refreshBlurb(ctx context.Context, location string, series models.DailySeries) {
	best, err := recommend.OverallBest(series)
	if err != nil {
		return
	}

	text := narrative.Fallback(location, best)
	if c.narrator != nil {
		if generated, err := c.narrator.Describe(ctx, location, best); err != nil {
			log.Printf("narrative generation: %v", err)
		} else {
			text = generated
		}
	}

	c.mu.Lock()
	c.blurb = text
	c.mu.Unlock()
}

// derivedRecommendation picks what the page shows, in priority order: a
// completed live result, then the safer-upcoming day for the selection,
// then the overall best day.
func (c *Controller) derivedRecommendation(snap live.Snapshot) (rec *models.Recommendation, source, note string) {
	if snap.Status == live.StatusSucceeded && snap.Result != nil {
		r := snap.Result.Recommendation
		return &r, "live", ""
	}
	if c.selected != nil {
		safer, err := recommend.SaferUpcoming(c.dataset.Series, *c.selected)
		if err != nil {
			return nil, "safer", "The selected day could not be evaluated."
		}
		if safer == nil {
			return nil, "safer", "No later day in the dataset is safer than the selected day."
		}
		return safer, "safer", ""
	}
	best, err := recommend.OverallBest(c.dataset.Series)
	if err != nil {
		return nil, "best", "Not enough data for a recommendation."
	}
	return &best, "best", ""
}

// describeSessionErr renders a session failure for display.
func describeSessionErr(err error) string {
	if err == nil {
		return ""
	}
	var appErr *live.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if errors.Is(err, live.ErrStreamInterrupted) {
		return "The live analysis stream was interrupted before it finished."
	}
	return fmt.Sprintf("Live analysis connection failed: %v", err)
}
