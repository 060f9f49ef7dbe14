package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"irrigation_audit/config"
	"irrigation_audit/logger"
	"irrigation_audit/models"

	"gorm.io/gorm"
)

// SchemaMigration records an applied SQL migration
type SchemaMigration struct {
	ID          uint   `gorm:"primaryKey"`
	Version     string `gorm:"unique;not null;size:32"`
	Name        string `gorm:"not null"`
	AppliedAt   time.Time
	Description string
}

// MigrationFile is a versioned SQL file in the migration directory
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	FilePath    string
	Applied     bool
}

// MigrationRunner applies the reference schema and versioned SQL files
type MigrationRunner struct {
	db             *gorm.DB
	migrationTable string
	migrationDir   string
	autoMigrate    bool
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(db *gorm.DB, cfg *config.Config) *MigrationRunner {
	return &MigrationRunner{
		db:             db,
		migrationTable: cfg.Migration.MigrationTable,
		migrationDir:   cfg.Migration.Directory,
		autoMigrate:    cfg.Migration.AutoMigrate,
	}
}

func (mr *MigrationRunner) table() *gorm.DB {
	return mr.db.Table(mr.migrationTable)
}

// MigrationFiles lists SQL files named YYYYMMDD_HHMMSS_description.sql, oldest first
func (mr *MigrationRunner) MigrationFiles() ([]MigrationFile, error) {
	entries, err := os.ReadDir(mr.migrationDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var files []MigrationFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		file, err := parseMigrationName(entry.Name())
		if err != nil {
			return nil, err
		}
		file.FilePath = filepath.Join(mr.migrationDir, entry.Name())
		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Version < files[j].Version
	})
	return files, nil
}

func parseMigrationName(filename string) (MigrationFile, error) {
	parts := strings.SplitN(filename, "_", 3)
	if len(parts) < 3 {
		return MigrationFile{}, fmt.Errorf("invalid migration filename format: %s (expected: YYYYMMDD_HHMMSS_description.sql)", filename)
	}
	description := strings.TrimSuffix(parts[2], ".sql")
	return MigrationFile{
		Version:     parts[0] + "_" + parts[1],
		Name:        strings.ReplaceAll(description, "_", " "),
		Description: description,
	}, nil
}

// appliedVersions returns the versions already recorded in the migration table
func (mr *MigrationRunner) appliedVersions() (map[string]bool, error) {
	if err := mr.table().AutoMigrate(&SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("failed to initialize migration table: %w", err)
	}

	var applied []SchemaMigration
	if err := mr.table().Order("version ASC").Find(&applied).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	versions := make(map[string]bool, len(applied))
	for _, m := range applied {
		versions[m.Version] = true
	}
	return versions, nil
}

// Status returns every migration file with its applied flag set
func (mr *MigrationRunner) Status() ([]MigrationFile, error) {
	files, err := mr.MigrationFiles()
	if err != nil {
		return nil, err
	}
	applied, err := mr.appliedVersions()
	if err != nil {
		return nil, err
	}
	for i := range files {
		files[i].Applied = applied[files[i].Version]
	}
	return files, nil
}

// Run auto-migrates the reference models when enabled, then applies pending SQL files
func (mr *MigrationRunner) Run() error {
	if mr.autoMigrate {
		logger.Println("Auto-migrating reference tables...")
		if err := mr.db.AutoMigrate(models.GetAllModels()...); err != nil {
			return fmt.Errorf("failed to auto-migrate reference tables: %w", err)
		}
	}

	files, err := mr.Status()
	if err != nil {
		return err
	}

	var pending []MigrationFile
	for _, f := range files {
		if !f.Applied {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		logger.Println("No pending migrations to run")
		return nil
	}

	logger.Printf("Running %d pending migration(s)...\n", len(pending))
	for i, f := range pending {
		logger.LogProgress(i+1, len(pending), f.Version+" "+f.Name)
		if err := mr.apply(f); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", f.Version, err)
		}
	}

	logger.Println("All migrations completed successfully")
	return nil
}

// apply executes one SQL file and records it in the same transaction
func (mr *MigrationRunner) apply(f MigrationFile) error {
	content, err := os.ReadFile(f.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	return mr.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(string(content)).Error; err != nil {
			return fmt.Errorf("failed to execute migration SQL: %w", err)
		}

		record := SchemaMigration{
			Version:     f.Version,
			Name:        f.Name,
			AppliedAt:   time.Now(),
			Description: f.Description,
		}
		if err := tx.Table(mr.migrationTable).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

// CreateMigration writes an empty, timestamped migration file
func (mr *MigrationRunner) CreateMigration(name string) (string, error) {
	if err := os.MkdirAll(mr.migrationDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create migrations directory: %w", err)
	}

	now := time.Now()
	cleanName := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	filename := fmt.Sprintf("%s_%s.sql", now.Format("20060102_150405"), cleanName)
	filePath := filepath.Join(mr.migrationDir, filename)

	template := fmt.Sprintf(`-- Migration: %s
-- Created: %s

-- Add your migration SQL here, e.g. seed rows for the reference tables:
-- INSERT INTO crop_energy_profiles (crop, irrigation_method, energy_need_per_area)
-- VALUES ('Domates', 'Damla Sulama', 400);
`, name, now.Format("2006-01-02 15:04:05"))

	if err := os.WriteFile(filePath, []byte(template), 0644); err != nil {
		return "", fmt.Errorf("failed to create migration file: %w", err)
	}

	return filePath, nil
}
