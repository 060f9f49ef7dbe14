// Package analysis joins metered consumption with the reference model and
// scores each subscriber for theft or anomaly risk.
package analysis

import (
	"math"
	"sort"

	"irrigation_audit/logger"
	"irrigation_audit/models"
	"irrigation_audit/reference"
)

// DefaultThreshold is the deviation in percent beyond which consumption is flagged
const DefaultThreshold = 25.0

// Miss reasons
const (
	MissReference   = "reference"
	MissConsumption = "consumption"
	MissProfile     = "profile"
)

// Analyzer scores subscribers against expected consumption
type Analyzer struct {
	Threshold float64
}

// JoinMiss is a subscriber excluded from the report
type JoinMiss struct {
	SubscriberID int64
	Reason       string
}

// Result is the outcome of one analysis
type Result struct {
	Records []models.AnalysisRecord
	Misses  []JoinMiss
}

// StatusCounts tallies records per status
func (r Result) StatusCounts() map[models.Status]int {
	counts := make(map[models.Status]int)
	for _, rec := range r.Records {
		counts[rec.Status]++
	}
	return counts
}

// NewAnalyzer creates an analyzer with the given threshold in percent
func NewAnalyzer(threshold float64) *Analyzer {
	return &Analyzer{Threshold: threshold}
}

// Analyze inner-joins subscriber profiles with crop profiles on
// (crop, irrigation method) and then with consumption on subscriber id.
// Records come back sorted by risk score descending and rounded to 2 places.
func (a *Analyzer) Analyze(tables *reference.Tables, consumption []models.SubscriberConsumption) Result {
	crops := tables.CropIndex()
	actual := make(map[int64]float64, len(consumption))
	for _, c := range consumption {
		actual[c.SubscriberID] = c.EnergyKWh
	}

	var result Result
	for _, sub := range tables.Subscribers {
		crop, ok := crops[sub.Key()]
		if !ok {
			logger.Warnf("Subscriber %d excluded: no crop profile for %s/%s\n",
				sub.SubscriberID, sub.Crop, sub.IrrigationMethod)
			result.Misses = append(result.Misses, JoinMiss{SubscriberID: sub.SubscriberID, Reason: MissReference})
			continue
		}

		energy, ok := actual[sub.SubscriberID]
		if !ok {
			logger.Warnf("Subscriber %d excluded: no metering data\n", sub.SubscriberID)
			result.Misses = append(result.Misses, JoinMiss{SubscriberID: sub.SubscriberID, Reason: MissConsumption})
			continue
		}

		result.Records = append(result.Records, a.Score(sub, crop, energy))
	}

	declared := make(map[int64]struct{}, len(tables.Subscribers))
	for _, sub := range tables.Subscribers {
		declared[sub.SubscriberID] = struct{}{}
	}
	for _, c := range consumption {
		if _, ok := declared[c.SubscriberID]; ok {
			continue
		}
		logger.Warnf("Subscriber %d excluded: %.2f kWh metered but no subscriber profile\n",
			c.SubscriberID, c.EnergyKWh)
		result.Misses = append(result.Misses, JoinMiss{SubscriberID: c.SubscriberID, Reason: MissProfile})
	}

	SortByRisk(result.Records)
	for i := range result.Records {
		RoundRecord(&result.Records[i])
	}

	return result
}

// Score builds the analysis record of one joined subscriber
func (a *Analyzer) Score(sub models.SubscriberProfile, crop models.CropEnergyProfile, actual float64) models.AnalysisRecord {
	expected := sub.FieldArea * crop.EnergyNeedPerArea
	deviation := Deviation(actual, expected)

	return models.AnalysisRecord{
		SubscriberID:      sub.SubscriberID,
		Crop:              sub.Crop,
		FieldArea:         sub.FieldArea,
		ExpectedEnergyKWh: expected,
		ActualEnergyKWh:   actual,
		DeviationPct:      deviation,
		RiskScore:         RiskScore(deviation, sub.FieldArea),
		Status:            Classify(deviation, a.Threshold),
	}
}

// Deviation returns 100*(actual-expected)/expected, or nil when expected is 0
func Deviation(actual, expected float64) *float64 {
	if expected == 0 {
		return nil
	}
	d := 100 * (actual - expected) / expected
	return &d
}

// RiskScore returns |deviation/100| * area, or nil when deviation is nil
func RiskScore(deviation *float64, area float64) *float64 {
	if deviation == nil {
		return nil
	}
	r := math.Abs(*deviation/100) * area
	return &r
}

// Classify maps a deviation to a status. Deviations of exactly +/-threshold are normal.
func Classify(deviation *float64, threshold float64) models.Status {
	switch {
	case deviation == nil:
		return models.StatusUndefined
	case *deviation > threshold:
		return models.StatusSuspectTheft
	case *deviation < -threshold:
		return models.StatusAnomaly
	default:
		return models.StatusNormal
	}
}

// SortByRisk stably orders records by risk score descending, nil last
func SortByRisk(records []models.AnalysisRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].RiskScore, records[j].RiskScore
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// RoundRecord rounds every real-valued column of a record
func RoundRecord(r *models.AnalysisRecord) {
	r.FieldArea = Round2(r.FieldArea)
	r.ExpectedEnergyKWh = Round2(r.ExpectedEnergyKWh)
	r.ActualEnergyKWh = Round2(r.ActualEnergyKWh)
	if r.DeviationPct != nil {
		v := Round2(*r.DeviationPct)
		r.DeviationPct = &v
	}
	if r.RiskScore != nil {
		v := Round2(*r.RiskScore)
		r.RiskScore = &v
	}
}
