package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"irrigation_audit/analysis"
	"irrigation_audit/models"
)

// BuildXLSX renders the report as a workbook with report and summary sheets.
// Undefined deviation and risk cells are left empty.
func (r *Reporter) BuildXLSX(result analysis.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	reportSheet := "report"
	summarySheet := "summary"
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}

	for i, col := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(reportSheet, cell, col)
	}

	for i, rec := range result.Records {
		row := i + 2
		values := []interface{}{
			rec.SubscriberID,
			rec.Crop,
			rec.FieldArea,
			rec.ExpectedEnergyKWh,
			rec.ActualEnergyKWh,
			optionalCell(rec.DeviationPct),
			optionalCell(rec.RiskScore),
			string(rec.Status),
		}
		for j, v := range values {
			if v == nil {
				continue
			}
			_ = f.SetCellValue(reportSheet, fmt.Sprintf("%c%d", 'A'+j, row), v)
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", r.title)
	_ = f.SetCellValue(summarySheet, "A3", "Analysed")
	_ = f.SetCellValue(summarySheet, "B3", len(result.Records))
	_ = f.SetCellValue(summarySheet, "A4", "Excluded")
	_ = f.SetCellValue(summarySheet, "B4", len(result.Misses))

	counts := result.StatusCounts()
	for i, status := range models.AllStatuses() {
		row := i + 6
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), string(status))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), counts[status])
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optionalCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
