package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"irrigation_audit/config"
)

const header = "TESİSAT_NO;TARİH;Akım L1;Akım L2;Akım L3;Gerilim L1;Gerilim L2;Gerilim L3\n"

func newTestScanner() *ReadingScanner {
	return NewReadingScanner(config.Default().Input)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseDecimalComma(t *testing.T) {
	data := header + "4006513096;01.06.2024 10:00:00;12,5;10;7,25;230,1;229;231\n"

	readings, stats, err := newTestScanner().Parse(strings.NewReader(data), "sample.csv")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(readings) != 1 || stats.Rows != 1 {
		t.Fatalf("expected 1 reading, got %d (rows %d)", len(readings), stats.Rows)
	}

	r := readings[0]
	if r.SubscriberID != 4006513096 {
		t.Fatalf("subscriber id = %d", r.SubscriberID)
	}
	want := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	if r.Timestamp == nil || !r.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v", r.Timestamp)
	}
	if r.CurrentL1 != 12.5 || r.CurrentL3 != 7.25 || r.VoltageL1 != 230.1 {
		t.Fatalf("unexpected values %+v", r)
	}
	if stats.FilledFields != 0 || stats.NullTimestamps != 0 {
		t.Fatalf("unexpected recoveries %+v", stats)
	}
}

func TestParseMalformedNumericsAreZero(t *testing.T) {
	data := header +
		"1;01.06.2024 10:00:00;abc;;NaN;230;x,y;231\n" +
		"1;01.06.2024 11:00:00;1,5;2;3;--;229;\n"

	readings, stats, err := newTestScanner().Parse(strings.NewReader(data), "bad.csv")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	first := readings[0]
	if first.CurrentL1 != 0 || first.CurrentL2 != 0 || first.CurrentL3 != 0 || first.VoltageL2 != 0 {
		t.Fatalf("malformed fields not zero-filled: %+v", first)
	}
	if first.VoltageL1 != 230 || first.VoltageL3 != 231 {
		t.Fatalf("valid fields changed: %+v", first)
	}

	second := readings[1]
	if second.VoltageL1 != 0 || second.VoltageL3 != 0 || second.CurrentL1 != 1.5 {
		t.Fatalf("unexpected second reading: %+v", second)
	}
	if stats.FilledFields != 6 {
		t.Fatalf("filled fields = %d, want 6", stats.FilledFields)
	}
}

func TestParseMalformedTimestampIsNull(t *testing.T) {
	data := header +
		"7;2024-06-01 10:00:00;1;1;1;1;1;1\n" +
		"7;31.02.2024 10:00:00;1;1;1;1;1;1\n" +
		"7;01.06.2024 10:00;1;1;1;1;1;1\n"

	readings, stats, err := newTestScanner().Parse(strings.NewReader(data), "ts.csv")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for i, r := range readings {
		if r.HasTimestamp() {
			t.Fatalf("reading %d should have a null timestamp, got %v", i, r.Timestamp)
		}
	}
	if stats.NullTimestamps != 3 {
		t.Fatalf("null timestamps = %d", stats.NullTimestamps)
	}
}

func TestParseSkipsInvalidSubscriber(t *testing.T) {
	data := header +
		"abc;01.06.2024 10:00:00;1;1;1;1;1;1\n" +
		"9;01.06.2024 10:00:00;1;1;1;1;1;1\n"

	readings, stats, err := newTestScanner().Parse(strings.NewReader(data), "ids.csv")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(readings) != 1 || readings[0].SubscriberID != 9 {
		t.Fatalf("unexpected readings %+v", readings)
	}
	if stats.SkippedRows != 1 {
		t.Fatalf("skipped rows = %d", stats.SkippedRows)
	}
}

func TestParseMissingColumn(t *testing.T) {
	data := "TESİSAT_NO;TARİH;Akım L1\n1;01.06.2024 10:00:00;1\n"

	_, _, err := newTestScanner().Parse(strings.NewReader(data), "short.csv")
	var missing *MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if missing.Column != "Akım L2" {
		t.Fatalf("missing column = %q", missing.Column)
	}
}

func TestParseRejectsEmptyDelimiter(t *testing.T) {
	input := config.Default().Input
	input.Delimiter = ""

	_, _, err := NewReadingScanner(input).Parse(strings.NewReader(header), "empty.csv")
	if err == nil || !strings.Contains(err.Error(), "single character") {
		t.Fatalf("expected delimiter error, got %v", err)
	}
}

func TestParseHeaderWithBOMAndDecomposedLetters(t *testing.T) {
	// "TESİSAT_NO" with I + combining dot above
	decomposed := "\ufeffTESI\u0307SAT_NO ;TARI\u0307H;Akım L1;Akım L2;Akım L3;Gerilim L1;Gerilim L2;Gerilim L3\n"
	data := decomposed + "5;01.06.2024 10:00:00;1;1;1;1;1;1\n"

	readings, _, err := newTestScanner().Parse(strings.NewReader(data), "bom.csv")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(readings) != 1 || readings[0].SubscriberID != 5 {
		t.Fatalf("unexpected readings %+v", readings)
	}
}

func TestScanPathSortsBySubscriberAndTime(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "readings.csv", header+
		"2;01.06.2024 12:00:00;1;0;0;1;0;0\n"+
		"1;01.06.2024 11:00:00;2;0;0;1;0;0\n"+
		"1;bad;3;0;0;1;0;0\n"+
		"2;01.06.2024 10:00:00;4;0;0;1;0;0\n"+
		"1;01.06.2024 09:00:00;5;0;0;1;0;0\n")

	readings, _, err := newTestScanner().ScanPath(path)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	got := make([]float64, len(readings))
	for i, r := range readings {
		got[i] = r.CurrentL1
	}
	want := []float64{5, 2, 3, 4, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestScanPathDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", header+"1;01.06.2024 10:00:00;1;1;1;1;1;1\n")
	writeFile(t, dir, "b.CSV", header+"1;01.06.2024 09:00:00;2;1;1;1;1;1\n")
	writeFile(t, dir, "notes.txt", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "nested"), "c.csv", header+"3;01.06.2024 09:00:00;2;1;1;1;1;1\n")

	readings, stats, err := newTestScanner().ScanPath(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if stats.Files != 2 || len(readings) != 2 {
		t.Fatalf("files = %d, readings = %d", stats.Files, len(readings))
	}
	if readings[0].CurrentL1 != 2 {
		t.Fatalf("readings from multiple files not sorted: %+v", readings)
	}
}

func TestScanPathSourceNotFound(t *testing.T) {
	_, _, err := newTestScanner().ScanPath(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}

	_, _, err = newTestScanner().ScanPath(t.TempDir())
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound for empty directory, got %v", err)
	}
}
