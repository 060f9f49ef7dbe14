package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"irrigation_audit/models"
)

// Metrics bundles the counters of one audit run.
type Metrics struct {
	Registry       *prometheus.Registry
	ReadingsTotal  prometheus.Counter
	SkippedRows    prometheus.Counter
	NullTimestamps prometheus.Counter
	FilledFields   prometheus.Counter
	JoinMisses     *prometheus.CounterVec
	RecordsTotal   *prometheus.CounterVec
	EnergyKWh      prometheus.Gauge
	Metered        prometheus.Gauge
	RunDuration    prometheus.Gauge
}

// New constructs metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ReadingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigation_audit_readings_total",
			Help: "Meter readings parsed",
		}),
		SkippedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigation_audit_skipped_rows_total",
			Help: "Input rows skipped for an unparsable subscriber id",
		}),
		NullTimestamps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigation_audit_null_timestamps_total",
			Help: "Readings whose timestamp could not be parsed",
		}),
		FilledFields: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigation_audit_zero_filled_fields_total",
			Help: "Numeric fields replaced with 0 after failing to parse",
		}),
		JoinMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "irrigation_audit_join_misses_total",
				Help: "Subscribers excluded from the report by reason",
			},
			[]string{"reason"},
		),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "irrigation_audit_records_total",
				Help: "Report records by status",
			},
			[]string{"status"},
		),
		EnergyKWh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigation_audit_metered_energy_kwh",
			Help: "Total metered real energy across subscribers",
		}),
		Metered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigation_audit_metered_subscribers",
			Help: "Subscribers with at least one meter reading",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigation_audit_run_duration_seconds",
			Help: "Wall time of the last pipeline run",
		}),
	}
	m.Registry.MustRegister(
		m.ReadingsTotal,
		m.SkippedRows,
		m.NullTimestamps,
		m.FilledFields,
		m.JoinMisses,
		m.RecordsTotal,
		m.EnergyKWh,
		m.Metered,
		m.RunDuration,
	)
	return m
}

// ObserveRecords counts report records by status.
func (m *Metrics) ObserveRecords(records []models.AnalysisRecord) {
	for _, r := range records {
		m.RecordsTotal.WithLabelValues(string(r.Status)).Inc()
	}
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
