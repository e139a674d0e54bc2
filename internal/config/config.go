// Package config holds the dashboard's settings, populated once at startup
// and passed read-only to every component that needs them.
package config

import (
	"errors"
	"time"
)

// Config is the full set of service settings. Kong fills it from flags,
// environment variables, and an optional .env file.
type Config struct {
	Addr             string        `name:"addr" env:"CLIMADASH_ADDR" default:":8080" help:"HTTP listen address."`
	RiskAPIURL       string        `name:"risk-api-url" env:"RISK_API_URL" default:"http://localhost:8000" help:"Base URL of the climate risk backend."`
	GeocodeURL       string        `name:"geocode-url" env:"GEOCODE_URL" default:"https://nominatim.openstreetmap.org" help:"Base URL of the geocoding service."`
	GeocodeCacheSize int           `name:"geocode-cache-size" env:"GEOCODE_CACHE_SIZE" default:"1000" help:"Max entries in the in-memory geocode cache."`
	HTTPTimeout      time.Duration `name:"http-timeout" env:"HTTP_TIMEOUT" default:"30s" help:"Timeout for non-streaming HTTP calls."`

	// Initial dashboard location, loaded at startup.
	Latitude  float64 `name:"lat" env:"CLIMADASH_LAT" default:"40.7128" help:"Initial latitude."`
	Longitude float64 `name:"lon" env:"CLIMADASH_LON" default:"-74.0060" help:"Initial longitude."`

	// TODI risk thresholds shared by every view that colors a score.
	TODIModerate float64 `name:"todi-moderate" env:"TODI_MODERATE" default:"3" help:"TODI score at which risk is moderate."`
	TODIHigh     float64 `name:"todi-high" env:"TODI_HIGH" default:"6" help:"TODI score at which risk is high."`
	TODIExtreme  float64 `name:"todi-extreme" env:"TODI_EXTREME" default:"8" help:"TODI score at which risk is extreme."`
}

// Validate is called by kong after parsing.
func (c *Config) Validate() error {
	if c.RiskAPIURL == "" {
		return errors.New("risk-api-url is required")
	}
	if c.GeocodeCacheSize <= 0 {
		return errors.New("geocode-cache-size must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("http-timeout must be positive")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return errors.New("lat must be within [-90, 90]")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return errors.New("lon must be within [-180, 180]")
	}
	if !(c.TODIModerate < c.TODIHigh && c.TODIHigh < c.TODIExtreme) {
		return errors.New("TODI thresholds must be strictly increasing")
	}
	return nil
}

// Thresholds returns the read-only risk threshold object views consume.
func (c *Config) Thresholds() Thresholds {
	return Thresholds{
		Moderate: c.TODIModerate,
		High:     c.TODIHigh,
		Extreme:  c.TODIExtreme,
	}
}

// Thresholds maps a TODI score to a coarse risk level. Lower scores are
// safer.
type Thresholds struct {
	Moderate float64
	High     float64
	Extreme  float64
}

// Level classifies a score against the configured cutoffs.
func (t Thresholds) Level(score float64) string {
	switch {
	case score >= t.Extreme:
		return "extreme"
	case score >= t.High:
		return "high"
	case score >= t.Moderate:
		return "moderate"
	default:
		return "low"
	}
}
