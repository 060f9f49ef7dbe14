package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"irrigation_audit/analysis"
)

// pdfFont is a UTF-8 TrueType family covering Turkish letters (ı, ğ, ş, İ)
const pdfFont = "Go"

// pdfWidths are the column widths in mm on a landscape A4 page
var pdfWidths = []float64{30, 30, 22, 30, 30, 28, 24, 80}

// BuildPDF renders the report table as a landscape A4 document.
func (r *Reporter) BuildPDF(result analysis.Result, generatedAt time.Time) ([]byte, error) {
	pdf := r.newPDF(result, generatedAt)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Reporter) newPDF(result analysis.Result, generatedAt time.Time) *gofpdf.Fpdf {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(pdfFont, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", gobold.TTF)
	pdf.SetFont(pdfFont, "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, r.title)
	pdf.Ln(8)
	pdf.SetFont(pdfFont, "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Analysed: %d  Excluded: %d", len(result.Records), len(result.Misses)))
	pdf.Ln(8)

	pdf.SetFont(pdfFont, "B", 9)
	for i, col := range Columns {
		pdf.CellFormat(pdfWidths[i], 6, col, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 9)
	for _, rec := range result.Records {
		for i, value := range Row(rec) {
			align := "R"
			if i == 1 || i == 7 {
				align = "L"
			}
			pdf.CellFormat(pdfWidths[i], 6, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf
}
