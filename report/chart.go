package report

import (
	"fmt"
	"strconv"

	charts "github.com/vicanso/go-charts/v2"

	"irrigation_audit/analysis"
)

// maxChartBars caps the chart to the highest risk subscribers
const maxChartBars = 20

// BuildRiskChart renders a PNG bar chart of the highest risk scores.
// Records without a risk score are left out.
func (r *Reporter) BuildRiskChart(result analysis.Result) ([]byte, error) {
	var labels []string
	var scores []float64
	for _, rec := range result.Records {
		if rec.RiskScore == nil {
			continue
		}
		labels = append(labels, strconv.FormatInt(rec.SubscriberID, 10))
		scores = append(scores, *rec.RiskScore)
		if len(scores) == maxChartBars {
			break
		}
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("no risk scores to chart")
	}

	p, err := charts.BarRender(
		[][]float64{scores},
		charts.PNGTypeOption(),
		charts.TitleTextOptionFunc(r.title),
		charts.XAxisDataOptionFunc(labels),
		charts.LegendLabelsOptionFunc([]string{"Risk score"}, charts.PositionRight),
		charts.ThemeOptionFunc("light"),
		charts.WidthOptionFunc(1200),
		charts.HeightOptionFunc(400),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render risk chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}
