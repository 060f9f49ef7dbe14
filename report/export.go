package report

import (
	"fmt"
	"os"
	"time"

	"irrigation_audit/analysis"
	"irrigation_audit/config"
	"irrigation_audit/logger"
)

// Export writes every export whose output path is configured
func (r *Reporter) Export(result analysis.Result, cfg config.ReportConfig, generatedAt time.Time) error {
	if cfg.XLSXPath != "" {
		data, err := r.BuildXLSX(result)
		if err != nil {
			return fmt.Errorf("failed to build xlsx report: %w", err)
		}
		if err := writeExport(cfg.XLSXPath, data); err != nil {
			return err
		}
	}

	if cfg.PDFPath != "" {
		data, err := r.BuildPDF(result, generatedAt)
		if err != nil {
			return fmt.Errorf("failed to build pdf report: %w", err)
		}
		if err := writeExport(cfg.PDFPath, data); err != nil {
			return err
		}
	}

	if cfg.ChartPath != "" {
		data, err := r.BuildRiskChart(result)
		if err != nil {
			logger.Warnf("Risk chart skipped: %v\n", err)
		} else if err := writeExport(cfg.ChartPath, data); err != nil {
			return err
		}
	}

	return nil
}

func writeExport(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Printf("Report saved: %s\n", path)
	return nil
}
