package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"irrigation_audit/models"
)

func TestObserveRecords(t *testing.T) {
	m := New()
	m.ObserveRecords([]models.AnalysisRecord{
		{Status: models.StatusNormal},
		{Status: models.StatusNormal},
		{Status: models.StatusSuspectTheft},
	})

	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues(string(models.StatusNormal))); got != 2 {
		t.Fatalf("normal = %v", got)
	}
	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues(string(models.StatusSuspectTheft))); got != 1 {
		t.Fatalf("theft = %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.JoinMisses.WithLabelValues("reference").Add(2)
	m.EnergyKWh.Set(12.5)

	path := filepath.Join(t.TempDir(), "audit.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `irrigation_audit_join_misses_total{reason="reference"} 2`) {
		t.Fatalf("join misses missing:\n%s", out)
	}
	if !strings.Contains(out, "irrigation_audit_metered_energy_kwh 12.5") {
		t.Fatalf("energy gauge missing:\n%s", out)
	}
}
