// Package pipeline wires ingestion, energy integration, the reference model
// and analysis into one sequential run.
package pipeline

import (
	"fmt"
	"time"

	"irrigation_audit/analysis"
	"irrigation_audit/config"
	"irrigation_audit/database"
	"irrigation_audit/energy"
	"irrigation_audit/logger"
	"irrigation_audit/metrics"
	"irrigation_audit/models"
	"irrigation_audit/reference"
	"irrigation_audit/scanner"
)

// Pipeline runs one audit from a metering source to report rows
type Pipeline struct {
	scanner    *scanner.ReadingScanner
	integrator *energy.Integrator
	analyzer   *analysis.Analyzer
	metrics    *metrics.Metrics
}

// Result is the outcome of a run
type Result struct {
	analysis.Result
	Scan        scanner.ScanStats
	Consumption []models.SubscriberConsumption
	Duration    time.Duration
}

// New builds a pipeline from configuration. m may be nil.
func New(cfg *config.Config, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		scanner:    scanner.NewReadingScanner(cfg.Input),
		integrator: energy.NewIntegrator(cfg.Analysis.PowerFactor),
		analyzer:   analysis.NewAnalyzer(cfg.Analysis.DeviationThreshold),
		metrics:    m,
	}
}

// Run executes every stage against source. Each call is independent.
func (p *Pipeline) Run(source string, tables *reference.Tables) (*Result, error) {
	start := time.Now()

	readings, stats, err := p.scanner.ScanPath(source)
	if err != nil {
		return nil, err
	}
	logger.Println("Readings cleaned and sorted")

	consumption := p.integrator.Consume(readings)
	logger.Printf("Real energy integrated for %d subscriber(s)\n", len(consumption))

	analysed := p.analyzer.Analyze(tables, consumption)
	logger.Printf("Analysed %d subscriber(s), %d excluded\n", len(analysed.Records), len(analysed.Misses))

	result := &Result{
		Result:      analysed,
		Scan:        stats,
		Consumption: consumption,
		Duration:    time.Since(start),
	}
	p.observe(readings, result)

	return result, nil
}

func (p *Pipeline) observe(readings []models.MeterReading, result *Result) {
	if p.metrics == nil {
		return
	}
	m := p.metrics
	m.ReadingsTotal.Add(float64(len(readings)))
	m.SkippedRows.Add(float64(result.Scan.SkippedRows))
	m.NullTimestamps.Add(float64(result.Scan.NullTimestamps))
	m.FilledFields.Add(float64(result.Scan.FilledFields))
	for _, miss := range result.Misses {
		m.JoinMisses.WithLabelValues(miss.Reason).Inc()
	}
	m.ObserveRecords(result.Records)
	m.EnergyKWh.Set(energy.TotalEnergy(readings))
	m.Metered.Set(float64(len(result.Consumption)))
	m.RunDuration.Set(result.Duration.Seconds())
}

// LoadReference loads the reference tables from the configured source
func LoadReference(cfg *config.Config) (*reference.Tables, error) {
	switch cfg.Reference.Source {
	case "builtin":
		return reference.Builtin()
	case "file":
		return reference.LoadFile(cfg.Reference.Path)
	case "database":
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		defer database.Close()
		return database.NewReferenceStore(db).Load()
	default:
		return nil, fmt.Errorf("unsupported reference source: %s", cfg.Reference.Source)
	}
}
