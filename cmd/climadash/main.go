package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/clima-risk/climadash/internal/config"
	"github.com/clima-risk/climadash/internal/dashboard"
	"github.com/clima-risk/climadash/internal/geocode"
	"github.com/clima-risk/climadash/internal/live"
	"github.com/clima-risk/climadash/internal/narrative"
	"github.com/clima-risk/climadash/internal/riskapi"
)

func main() {
	var cfg config.Config
	kong.Parse(&cfg,
		kong.Name("climadash"),
		kong.Description("Climate risk dashboard over the TODI score time series."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	risk := riskapi.NewClient(cfg.RiskAPIURL, cfg.HTTPTimeout, nil)
	liveClient := live.NewClient(cfg.RiskAPIURL)
	geocoder := geocode.NewCached(
		geocode.NewClient(cfg.GeocodeURL, cfg.HTTPTimeout),
		cfg.GeocodeCacheSize,
	)

	// Narrative generation is optional; without an API key the dashboard
	// uses template text.
	var narrator dashboard.Narrator
	if gen, err := narrative.NewGenerator(); err != nil {
		log.Printf("Narrative generation disabled: %v", err)
	} else {
		narrator = gen
	}

	ctrl := dashboard.NewController(cfg.Thresholds(), risk, geocoder, liveClient, narrator, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("loading initial dataset for %.4f, %.4f", cfg.Latitude, cfg.Longitude)
	ctrl.LoadLocation(ctx, cfg.Latitude, cfg.Longitude)

	server := dashboard.NewServer(ctrl, cfg.Addr)
	log.Printf("starting server on %s", cfg.Addr)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
