package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/clima-risk/climadash/internal/config"
	"github.com/clima-risk/climadash/internal/metrics"
	"github.com/clima-risk/climadash/internal/models"
)

const (
	chartHeight  = 400
	chartMarginL = 48
	chartMarginR = 16
	chartMarginT = 40
	chartMarginB = 48
	minBarSlot   = 18
)

var (
	chartBG    = color.RGBA{250, 250, 250, 255}
	chartAxis  = color.RGBA{60, 60, 60, 255}
	chartText  = color.RGBA{40, 40, 40, 255}
	riskColors = map[string]color.RGBA{
		"low":      {76, 175, 80, 255},
		"moderate": {255, 193, 7, 255},
		"high":     {255, 111, 0, 255},
		"extreme":  {211, 47, 47, 255},
	}
)

// WriteChart renders the TODI series as a PNG bar chart, one bar per day,
// colored by the configured risk thresholds.
func WriteChart(w io.Writer, location string, series models.DailySeries, th config.Thresholds) error {
	if len(series) == 0 {
		return fmt.Errorf("render chart: empty series")
	}

	slot := minBarSlot
	width := chartMarginL + chartMarginR + slot*len(series)
	if width < 640 {
		slot = (640 - chartMarginL - chartMarginR) / len(series)
		width = chartMarginL + chartMarginR + slot*len(series)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, chartHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(chartBG), image.Point{}, draw.Src)

	maxScore := 10.0
	for _, d := range series {
		if d.TODIScore > maxScore {
			maxScore = d.TODIScore
		}
	}

	plotTop := chartMarginT
	plotBottom := chartHeight - chartMarginB
	plotH := plotBottom - plotTop

	drawLabel(img, chartMarginL, chartMarginT-16, "TODI by day: "+location, chartText)

	// Y axis with gridline labels every 2 units.
	for v := 0.0; v <= maxScore; v += 2 {
		y := plotBottom - int(v/maxScore*float64(plotH))
		for x := chartMarginL; x < width-chartMarginR; x++ {
			img.Set(x, y, color.RGBA{220, 220, 220, 255})
		}
		drawLabel(img, 8, y+4, fmt.Sprintf("%.0f", v), chartText)
	}

	labelEvery := len(series)/12 + 1
	for i, d := range series {
		x0 := chartMarginL + i*slot + 2
		x1 := chartMarginL + (i+1)*slot - 2
		barH := int(d.TODIScore / maxScore * float64(plotH))
		col := riskColors[th.Level(d.TODIScore)]
		draw.Draw(img, image.Rect(x0, plotBottom-barH, x1, plotBottom), image.NewUniform(col), image.Point{}, draw.Src)

		if i%labelEvery == 0 {
			drawLabel(img, x0-4, plotBottom+16, d.Date.Format("01-02"), chartText)
		}
	}

	// Axes drawn last so bars do not overpaint them.
	for y := plotTop; y <= plotBottom; y++ {
		img.Set(chartMarginL, y, chartAxis)
	}
	for x := chartMarginL; x < width-chartMarginR; x++ {
		img.Set(x, plotBottom, chartAxis)
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	metrics.ExportsTotal.WithLabelValues("chart").Inc()
	return nil
}

func drawLabel(img *image.RGBA, x, y int, s string, col color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
