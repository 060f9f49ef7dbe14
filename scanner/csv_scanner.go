package scanner

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"irrigation_audit/config"
	"irrigation_audit/logger"
	"irrigation_audit/models"

	"golang.org/x/text/unicode/norm"
)

// ErrSourceNotFound is returned when the metering source cannot be located or opened
var ErrSourceNotFound = errors.New("source not found")

// MissingColumnError reports a required header key absent from a file
type MissingColumnError struct {
	File   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: required column %q not found in header", e.File, e.Column)
}

// numericFields is the number of current/voltage columns per reading
const numericFields = 6

// ReadingScanner parses delimited metering files into meter readings
type ReadingScanner struct {
	input config.InputConfig
}

// FileJob represents a metering file to be processed
type FileJob struct {
	FilePath string
	FileName string
}

// ScanStats summarizes what the scanner saw and recovered from
type ScanStats struct {
	Files          int
	Rows           int
	SkippedRows    int
	NullTimestamps int
	FilledFields   int
	Duration       time.Duration
}

func (s *ScanStats) add(o ScanStats) {
	s.Files += o.Files
	s.Rows += o.Rows
	s.SkippedRows += o.SkippedRows
	s.NullTimestamps += o.NullTimestamps
	s.FilledFields += o.FilledFields
}

// parsedRow holds one row after coercion and before the zero-fill pass
type parsedRow struct {
	subscriberID int64
	timestamp    *time.Time
	values       [numericFields]*float64
}

// NewReadingScanner creates a new scanner for the given input dialect
func NewReadingScanner(input config.InputConfig) *ReadingScanner {
	return &ReadingScanner{input: input}
}

// ScanPath reads a metering file, or every CSV file directly inside a
// directory, and returns the cleaned readings sorted by subscriber and time.
func (rs *ReadingScanner) ScanPath(path string) ([]models.MeterReading, ScanStats, error) {
	startTime := time.Now()
	var stats ScanStats

	info, err := os.Stat(path)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}

	var files []FileJob
	if info.IsDir() {
		files, err = rs.findCSVFiles(path)
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
		}
		if len(files) == 0 {
			return nil, stats, fmt.Errorf("%w: no CSV files in %s", ErrSourceNotFound, path)
		}
		logger.Printf("Found %d CSV file(s) to process\n", len(files))
	} else {
		files = []FileJob{{FilePath: path, FileName: filepath.Base(path)}}
	}

	var readings []models.MeterReading
	for i, job := range files {
		if len(files) > 1 {
			logger.LogProgress(i+1, len(files), job.FileName)
		}
		fileReadings, fileStats, err := rs.ScanFile(job.FilePath)
		if err != nil {
			return nil, stats, err
		}
		readings = append(readings, fileReadings...)
		stats.add(fileStats)
	}

	SortReadings(readings)
	stats.Duration = time.Since(startTime)

	logger.Printf("Read %d readings from %d file(s): %d rows skipped, %d null timestamps, %d fields zero-filled\n",
		len(readings), stats.Files, stats.SkippedRows, stats.NullTimestamps, stats.FilledFields)

	return readings, stats, nil
}

// findCSVFiles finds all CSV files in the specified directory (non-recursive)
func (rs *ReadingScanner) findCSVFiles(directoryPath string) ([]FileJob, error) {
	var csvFiles []FileJob

	entries, err := os.ReadDir(directoryPath)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) == ".csv" {
			csvFiles = append(csvFiles, FileJob{
				FilePath: filepath.Join(directoryPath, entry.Name()),
				FileName: entry.Name(),
			})
		}
	}

	return csvFiles, nil
}

// ScanFile parses a single metering file. Readings are returned in file order.
func (rs *ReadingScanner) ScanFile(path string) ([]models.MeterReading, ScanStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ScanStats{}, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	defer file.Close()

	readings, stats, err := rs.Parse(file, filepath.Base(path))
	if err != nil {
		return nil, stats, err
	}
	stats.Files = 1
	return readings, stats, nil
}

// Parse reads delimited metering records from r. Malformed timestamps become
// nil and malformed numeric fields become null, then zero-filled.
func (rs *ReadingScanner) Parse(r io.Reader, source string) ([]models.MeterReading, ScanStats, error) {
	var stats ScanStats

	delimiter := []rune(rs.input.Delimiter)
	if len(delimiter) != 1 {
		return nil, stats, fmt.Errorf("%s: delimiter must be a single character, got %q", source, rs.input.Delimiter)
	}

	reader := csv.NewReader(r)
	reader.Comma = delimiter[0]
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if len(records) == 0 {
		return nil, stats, fmt.Errorf("%s: empty file", source)
	}

	index, err := rs.headerIndex(records[0], source)
	if err != nil {
		return nil, stats, err
	}
	logger.Debugf("%s columns: %v\n", source, records[0])

	rows := make([]parsedRow, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		record := records[i]

		if len(record) == 0 || (len(record) == 1 && strings.TrimSpace(record[0]) == "") {
			continue
		}
		stats.Rows++

		idText := field(record, index.subscriberID)
		subscriberID, err := parseSubscriberID(idText)
		if err != nil {
			stats.SkippedRows++
			logger.Warnf("Row %d in %s has invalid subscriber id: %q\n", i+1, source, idText)
			continue
		}

		row := parsedRow{subscriberID: subscriberID}

		tsText := strings.TrimSpace(field(record, index.timestamp))
		if ts, err := time.Parse(rs.input.TimestampLayout, tsText); err == nil {
			row.timestamp = &ts
		} else {
			stats.NullTimestamps++
			logger.Debugf("Row %d in %s has invalid timestamp: %q\n", i+1, source, tsText)
		}

		for j, col := range index.values {
			row.values[j] = parseNumber(field(record, col), rs.input.DecimalSeparator)
		}

		rows = append(rows, row)
	}

	readings, filled := fillNulls(rows)
	stats.FilledFields = filled

	return readings, stats, nil
}

type columnIndex struct {
	subscriberID int
	timestamp    int
	values       [numericFields]int
}

// headerIndex resolves configured column names against the header row
func (rs *ReadingScanner) headerIndex(header []string, source string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeKey(name)
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	cols := rs.input.Columns
	names := []string{
		cols.SubscriberID, cols.Timestamp,
		cols.CurrentL1, cols.CurrentL2, cols.CurrentL3,
		cols.VoltageL1, cols.VoltageL2, cols.VoltageL3,
	}

	resolved := make([]int, len(names))
	for i, name := range names {
		pos, ok := positions[normalizeKey(name)]
		if !ok {
			return columnIndex{}, &MissingColumnError{File: source, Column: name}
		}
		resolved[i] = pos
	}

	idx := columnIndex{subscriberID: resolved[0], timestamp: resolved[1]}
	copy(idx.values[:], resolved[2:])
	return idx, nil
}

// normalizeKey makes header keys comparable regardless of BOM, padding and
// Unicode composition (İ may arrive decomposed).
func normalizeKey(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return norm.NFC.String(strings.TrimSpace(s))
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

func parseSubscriberID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}

// parseNumber coerces text to a number honoring the decimal separator.
// Anything that is not a finite number yields nil.
func parseNumber(s, decimalSeparator string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if decimalSeparator != "." {
		s = strings.Replace(s, decimalSeparator, ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// fillNulls is the single post-parse normalization pass: every null numeric
// field becomes 0. It returns the readings and how many fields were filled.
func fillNulls(rows []parsedRow) ([]models.MeterReading, int) {
	readings := make([]models.MeterReading, len(rows))
	filled := 0

	for i, row := range rows {
		var v [numericFields]float64
		for j, p := range row.values {
			if p == nil {
				filled++
				continue
			}
			v[j] = *p
		}
		readings[i] = models.MeterReading{
			SubscriberID: row.subscriberID,
			Timestamp:    row.timestamp,
			CurrentL1:    v[0],
			CurrentL2:    v[1],
			CurrentL3:    v[2],
			VoltageL1:    v[3],
			VoltageL2:    v[4],
			VoltageL3:    v[5],
		}
	}

	return readings, filled
}

// SortReadings stably orders readings by subscriber id then timestamp.
// Readings without a timestamp go last within their subscriber.
func SortReadings(readings []models.MeterReading) {
	sort.SliceStable(readings, func(i, j int) bool {
		a, b := readings[i], readings[j]
		if a.SubscriberID != b.SubscriberID {
			return a.SubscriberID < b.SubscriberID
		}
		switch {
		case a.Timestamp == nil:
			return false
		case b.Timestamp == nil:
			return true
		default:
			return a.Timestamp.Before(*b.Timestamp)
		}
	})
}
