// Package report renders analysis results as a text table and as optional
// XLSX, PDF and chart exports.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"irrigation_audit/analysis"
	"irrigation_audit/models"
)

// bannerWidth is the width of the "=" rules around the title
const bannerWidth = 45

// Columns are the canonical report columns
var Columns = []string{
	"Subscriber ID",
	"Crop",
	"Field Area",
	"Expected (kWh)",
	"Actual (kWh)",
	"Deviation (%)",
	"Risk Score",
	"Status",
}

// Reporter writes analysis results
type Reporter struct {
	title string
}

// NewReporter creates a reporter with the given banner title
func NewReporter(title string) *Reporter {
	return &Reporter{title: title}
}

// WriteText prints the banner, the table and a status summary
func (r *Reporter) WriteText(w io.Writer, result analysis.Result) error {
	r.writeBanner(w)
	if err := WriteTable(w, result.Records); err != nil {
		return err
	}
	r.writeSummary(w, result)
	return nil
}

func (r *Reporter) writeBanner(w io.Writer) {
	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintf(w, "\n%s\n     %s\n%s\n", rule, r.title, rule)
}

// WriteTable prints one row per record under the canonical column header
func WriteTable(w io.Writer, records []models.AnalysisRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(Columns, "\t"))
	for _, rec := range records {
		fmt.Fprintln(tw, strings.Join(Row(rec), "\t"))
	}
	return tw.Flush()
}

func (r *Reporter) writeSummary(w io.Writer, result analysis.Result) {
	counts := result.StatusCounts()
	fmt.Fprintf(w, "\n%d subscriber(s) analysed", len(result.Records))
	if len(result.Misses) > 0 {
		fmt.Fprintf(w, ", %d excluded", len(result.Misses))
	}
	fmt.Fprintln(w)
	for _, status := range models.AllStatuses() {
		if n := counts[status]; n > 0 {
			fmt.Fprintf(w, "  %-36s %d\n", status, n)
		}
	}
}

// Row formats a record as canonical column values
func Row(rec models.AnalysisRecord) []string {
	return []string{
		fmt.Sprintf("%d", rec.SubscriberID),
		rec.Crop,
		formatFloat(rec.FieldArea),
		formatFloat(rec.ExpectedEnergyKWh),
		formatFloat(rec.ActualEnergyKWh),
		formatOptional(rec.DeviationPct),
		formatOptional(rec.RiskScore),
		string(rec.Status),
	}
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// formatOptional renders undefined values as NaN
func formatOptional(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return formatFloat(*v)
}
