package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/clima-risk/climadash/internal/format"
	"github.com/clima-risk/climadash/internal/metrics"
)

// WritePDF renders the document as a one-page-per-40-rows A4 report.
func WritePDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; the placeholder dash needs translating.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Climate Risk Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Climate Risk Report")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, "Location: "+doc.Location)
	pdf.Ln(6)
	pdf.Cell(0, 8, "Generated: "+doc.GeneratedAt.Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	if doc.OverallBest != nil {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Best day overall")
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 7, fmt.Sprintf("%s  (TODI %.1f, %d%% improvement)",
			doc.OverallBest.Date.Format("Monday, 2 January 2006"),
			doc.OverallBest.TODI, doc.OverallBest.Improvement))
		pdf.Ln(8)
	}
	if doc.SaferUpcoming != nil {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Next safer day")
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 7, fmt.Sprintf("%s  (TODI %.1f, %d%% improvement)",
			doc.SaferUpcoming.Date.Format("Monday, 2 January 2006"),
			doc.SaferUpcoming.TODI, doc.SaferUpcoming.Improvement))
		pdf.Ln(8)
	}

	pdf.Ln(4)
	writeTableHeader(pdf)

	pdf.SetFont("Helvetica", "", 10)
	for _, d := range doc.Days {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			writeTableHeader(pdf)
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.CellFormat(30, 7, d.Date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, format.Float(d.TODIScore, 1), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, tr(format.Number(d.MaxTempC, 1)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, tr(format.Number(d.MaxWindMS, 1)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, tr(format.Number(d.DewpointC, 1)), "1", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	metrics.ExportsTotal.WithLabelValues("pdf").Inc()
	return nil
}

func writeTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(30, 7, "Date", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, "TODI", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Max temp (C)", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Wind (m/s)", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Dewpoint (C)", "1", 1, "R", false, 0, "")
}
