package pipeline

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"irrigation_audit/analysis"
	"irrigation_audit/config"
	"irrigation_audit/metrics"
	"irrigation_audit/models"
	"irrigation_audit/reference"
	"irrigation_audit/scanner"
)

const header = "TESİSAT_NO;TARİH;Akım L1;Akım L2;Akım L3;Gerilim L1;Gerilim L2;Gerilim L3\n"

// Single-phase currents at 250 V, I = P*1000/(0.88*250):
//
//	10 kW  -> 45,4545454545 A
//	650 kW -> 2954,5454545454 A
//	25 kW  -> 113,6363636364 A
const scenarioCSV = header +
	"1;01.06.2024 10:00:00;45,4545454545;0;0;250;0;0\n" +
	"1;01.06.2024 11:00:00;45,4545454545;0;0;250;0;0\n" +
	"2;01.06.2024 00:00:00;2954,5454545454;0;0;250;0;0\n" +
	"2;01.06.2024 01:00:00;2954,5454545454;0;0;250;0;0\n" +
	"3;01.06.2024 00:00:00;10;0;0;230;0;0\n" +
	"3;01.06.2024 05:00:00;10;0;0;230;0;0\n" +
	"4;01.06.2024 00:00:00;113,6363636364;0;0;250;0;0\n" +
	"4;01.06.2024 02:00:00;113,6363636364;0;0;250;0;0\n" +
	"5;01.06.2024 00:00:00;45,4545454545;0;0;250;0;0\n" +
	"5;01.06.2024 03:00:00;45,4545454545;0;0;250;0;0\n"

func scenarioTables() *reference.Tables {
	return &reference.Tables{
		Crops: []models.CropEnergyProfile{
			{Crop: "wheat", IrrigationMethod: "drip", EnergyNeedPerArea: 5},
			{Crop: "corn", IrrigationMethod: "sprinkler", EnergyNeedPerArea: 10},
		},
		Subscribers: []models.SubscriberProfile{
			{SubscriberID: 1, FieldArea: 2, Crop: "wheat", IrrigationMethod: "drip"},
			{SubscriberID: 2, FieldArea: 100, Crop: "wheat", IrrigationMethod: "drip"},
			{SubscriberID: 3, FieldArea: 40, Crop: "cotton", IrrigationMethod: "flood"},
			{SubscriberID: 4, FieldArea: 0, Crop: "corn", IrrigationMethod: "sprinkler"},
		},
	}
}

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "readings.csv")
	if err := os.WriteFile(path, []byte(scenarioCSV), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func record(t *testing.T, result *Result, id int64) models.AnalysisRecord {
	t.Helper()
	for _, r := range result.Records {
		if r.SubscriberID == id {
			return r
		}
	}
	t.Fatalf("subscriber %d missing from report", id)
	return models.AnalysisRecord{}
}

func TestRunScenarios(t *testing.T) {
	m := metrics.New()
	result, err := New(config.Default(), m).Run(writeScenario(t), scenarioTables())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// constant 10 kW for one hour
	one := record(t, result, 1)
	if one.ActualEnergyKWh != 10 {
		t.Fatalf("subscriber 1 energy = %v, want 10", one.ActualEnergyKWh)
	}

	// expected 500, actual 650
	two := record(t, result, 2)
	if two.ExpectedEnergyKWh != 500 || two.ActualEnergyKWh != 650 {
		t.Fatalf("subscriber 2 expected/actual = %v/%v", two.ExpectedEnergyKWh, two.ActualEnergyKWh)
	}
	if two.DeviationPct == nil || *two.DeviationPct != 30 {
		t.Fatalf("subscriber 2 deviation = %v", two.DeviationPct)
	}
	if two.RiskScore == nil || *two.RiskScore != 30 {
		t.Fatalf("subscriber 2 risk = %v", two.RiskScore)
	}
	if two.Status != models.StatusSuspectTheft {
		t.Fatalf("subscriber 2 status = %q", two.Status)
	}

	// crop/method combination absent from the reference table
	for _, r := range result.Records {
		if r.SubscriberID == 3 {
			t.Fatalf("subscriber 3 should be excluded")
		}
	}
	if len(result.Records) != len(scenarioTables().Subscribers)-1 {
		t.Fatalf("report rows = %d", len(result.Records))
	}

	// zero field area
	four := record(t, result, 4)
	if four.DeviationPct != nil || four.RiskScore != nil || four.Status != models.StatusUndefined {
		t.Fatalf("subscriber 4 = %+v", four)
	}
	if last := result.Records[len(result.Records)-1]; last.SubscriberID != 4 {
		t.Fatalf("undefined risk should sort last, got %d", last.SubscriberID)
	}
	if result.Records[0].SubscriberID != 2 {
		t.Fatalf("highest risk should be first, got %d", result.Records[0].SubscriberID)
	}

	if got := testutil.ToFloat64(m.JoinMisses.WithLabelValues(analysis.MissReference)); got != 1 {
		t.Fatalf("reference misses = %v", got)
	}
	// metered but not declared in the subscriber profiles
	for _, r := range result.Records {
		if r.SubscriberID == 5 {
			t.Fatalf("subscriber 5 has no profile and should be excluded")
		}
	}
	if got := testutil.ToFloat64(m.JoinMisses.WithLabelValues(analysis.MissProfile)); got != 1 {
		t.Fatalf("profile misses = %v", got)
	}
	if got := testutil.ToFloat64(m.Metered); got != 5 {
		t.Fatalf("metered subscribers = %v", got)
	}
	if got := testutil.ToFloat64(m.ReadingsTotal); got != 10 {
		t.Fatalf("readings = %v", got)
	}
}

func TestRunInvariants(t *testing.T) {
	result, err := New(config.Default(), nil).Run(writeScenario(t), scenarioTables())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, r := range result.Records {
		if (r.DeviationPct == nil) != (r.ExpectedEnergyKWh == 0) {
			t.Fatalf("subscriber %d: deviation nil must match zero expected", r.SubscriberID)
		}
		if r.RiskScore != nil && *r.RiskScore < 0 {
			t.Fatalf("subscriber %d: negative risk", r.SubscriberID)
		}
		for _, v := range []float64{r.FieldArea, r.ExpectedEnergyKWh, r.ActualEnergyKWh} {
			if analysis.Round2(v) != v {
				t.Fatalf("subscriber %d: %v not rounded", r.SubscriberID, v)
			}
		}
	}

	for i := 1; i < len(result.Records); i++ {
		prev, cur := result.Records[i-1].RiskScore, result.Records[i].RiskScore
		if prev == nil && cur != nil {
			t.Fatalf("undefined risk sorted before a defined one")
		}
		if prev != nil && cur != nil && *prev < *cur {
			t.Fatalf("records not sorted by risk: %v < %v", *prev, *cur)
		}
	}
}

func TestRunCustomThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.DeviationThreshold = 50

	result, err := New(cfg, nil).Run(writeScenario(t), scenarioTables())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := record(t, result, 2).Status; got != models.StatusNormal {
		t.Fatalf("30%% deviation with 50%% threshold = %q", got)
	}
}

func TestRunPowerFactor(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.PowerFactor = 0.44

	result, err := New(cfg, nil).Run(writeScenario(t), scenarioTables())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := record(t, result, 1).ActualEnergyKWh; math.Abs(got-5) > 0.005 {
		t.Fatalf("energy with halved power factor = %v, want 5", got)
	}
}

func TestRunSourceNotFound(t *testing.T) {
	_, err := New(config.Default(), nil).Run(filepath.Join(t.TempDir(), "missing.csv"), scenarioTables())
	if !errors.Is(err, scanner.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestLoadReference(t *testing.T) {
	tables, err := LoadReference(config.Default())
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	if len(tables.Crops) == 0 {
		t.Fatalf("builtin tables empty")
	}

	cfg := config.Default()
	cfg.Reference.Source = "file"
	cfg.Reference.Path = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := LoadReference(cfg); err == nil {
		t.Fatalf("expected error for missing reference file")
	}
}
