// Package plot renders the interactive TODI chart page.
package plot

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/clima-risk/climadash/internal/models"
)

// RenderSeries writes a standalone HTML page with a bar chart of the daily
// TODI scores, with the monthly climatology mean overlaid as a line when
// climatology data is present.
func RenderSeries(w io.Writer, location string, ds *models.Dataset) error {
	if len(ds.Series) == 0 {
		return fmt.Errorf("render graph: empty series")
	}

	dates := make([]string, 0, len(ds.Series))
	bars := make([]opts.BarData, 0, len(ds.Series))
	line := make([]opts.LineData, 0, len(ds.Series))
	haveClimatology := len(ds.Climatology.MonthlyTODI) > 0

	for _, d := range ds.Series {
		dates = append(dates, d.Date.Format("Jan 2"))
		bars = append(bars, opts.BarData{Value: d.TODIScore})
		if haveClimatology {
			if mean, ok := ds.Climatology.MonthMean(d.Date.Month()); ok {
				line = append(line, opts.LineData{Value: mean})
			} else {
				line = append(line, opts.LineData{Value: nil})
			}
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "TODI Graph",
			Width:     "1100px",
			Height:    "520px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Thunderstorm Outflow Danger Index",
			Subtitle: location,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "TODI"}),
	)
	bar.SetXAxis(dates).AddSeries("Daily TODI", bars)

	if haveClimatology {
		mean := charts.NewLine()
		mean.SetXAxis(dates).AddSeries("Monthly mean ("+ds.Climatology.Period+")", line,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		bar.Overlap(mean)
	}

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render graph: %w", err)
	}
	return nil
}
