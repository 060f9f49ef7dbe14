package database

import (
	"fmt"

	"irrigation_audit/models"
	"irrigation_audit/reference"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferenceStore reads and writes the reference tables
type ReferenceStore struct {
	db *gorm.DB
}

// NewReferenceStore creates a store on the given connection
func NewReferenceStore(db *gorm.DB) *ReferenceStore {
	return &ReferenceStore{db: db}
}

// Load reads both reference tables in insertion order and validates them
func (rs *ReferenceStore) Load() (*reference.Tables, error) {
	var tables reference.Tables

	if err := rs.db.Order("id ASC").Find(&tables.Crops).Error; err != nil {
		return nil, fmt.Errorf("failed to load crop profiles: %w", err)
	}
	if err := rs.db.Order("id ASC").Find(&tables.Subscribers).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriber profiles: %w", err)
	}
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reference tables in database: %w", err)
	}

	return &tables, nil
}

// Save upserts the tables in one transaction. Crop profiles are keyed by
// (crop, irrigation method), subscriber profiles by subscriber id.
func (rs *ReferenceStore) Save(tables *reference.Tables) error {
	if err := tables.Validate(); err != nil {
		return err
	}

	return rs.db.Transaction(func(tx *gorm.DB) error {
		for _, crop := range tables.Crops {
			crop.ID = 0
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "crop"}, {Name: "irrigation_method"}},
				DoUpdates: clause.AssignmentColumns([]string{"energy_need_per_area"}),
			}).Create(&crop).Error
			if err != nil {
				return fmt.Errorf("failed to save crop profile %s/%s: %w", crop.Crop, crop.IrrigationMethod, err)
			}
		}

		for _, sub := range tables.Subscribers {
			sub.ID = 0
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "subscriber_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"field_area", "crop", "irrigation_method"}),
			}).Create(&sub).Error
			if err != nil {
				return fmt.Errorf("failed to save subscriber profile %d: %w", sub.SubscriberID, err)
			}
		}

		return nil
	})
}

// AutoMigrate creates or updates the reference tables
func (rs *ReferenceStore) AutoMigrate() error {
	return rs.db.AutoMigrate(models.GetAllModels()...)
}
