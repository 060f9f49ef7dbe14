package models

// Status is the classification of a subscriber's consumption
type Status string

const (
	StatusUndefined    Status = "Could not be calculated"
	StatusSuspectTheft Status = "Suspected theft (high consumption)"
	StatusAnomaly      Status = "Anomaly (low consumption)"
	StatusNormal       Status = "Normal"
)

// AllStatuses lists statuses in report summary order
func AllStatuses() []Status {
	return []Status{StatusSuspectTheft, StatusAnomaly, StatusNormal, StatusUndefined}
}

// AnalysisRecord is one row of the final report.
// DeviationPct and RiskScore are nil when the expected energy is zero.
type AnalysisRecord struct {
	SubscriberID      int64    `json:"subscriber_id"`
	Crop              string   `json:"crop"`
	FieldArea         float64  `json:"field_area"`
	ExpectedEnergyKWh float64  `json:"expected_energy_kwh"`
	ActualEnergyKWh   float64  `json:"actual_energy_kwh"`
	DeviationPct      *float64 `json:"deviation_pct"`
	RiskScore         *float64 `json:"risk_score"`
	Status            Status   `json:"status"`
}
