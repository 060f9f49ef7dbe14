package models

import (
	"time"
)

// CropEnergyProfile is the energy an irrigation method needs per area unit for a crop
type CropEnergyProfile struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"-" yaml:"-"`
	Crop              string    `gorm:"uniqueIndex:idx_crop_method;not null;size:128" json:"crop" yaml:"crop"`
	IrrigationMethod  string    `gorm:"uniqueIndex:idx_crop_method;not null;size:128" json:"irrigation_method" yaml:"irrigation_method"`
	EnergyNeedPerArea float64   `gorm:"not null" json:"energy_need_per_area" yaml:"energy_need_per_area"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"-" yaml:"-"`
}

// TableName customizes the table name
func (CropEnergyProfile) TableName() string {
	return "crop_energy_profiles"
}

// Key returns the join key of the profile
func (c CropEnergyProfile) Key() CropKey {
	return CropKey{Crop: c.Crop, IrrigationMethod: c.IrrigationMethod}
}

// SubscriberProfile is the declared field of an irrigation subscriber
type SubscriberProfile struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"-" yaml:"-"`
	SubscriberID     int64     `gorm:"uniqueIndex;not null" json:"subscriber_id" yaml:"subscriber_id"`
	FieldArea        float64   `gorm:"not null" json:"field_area" yaml:"field_area"`
	Crop             string    `gorm:"not null;size:128" json:"crop" yaml:"crop"`
	IrrigationMethod string    `gorm:"not null;size:128" json:"irrigation_method" yaml:"irrigation_method"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"-" yaml:"-"`
}

// TableName customizes the table name
func (SubscriberProfile) TableName() string {
	return "subscriber_profiles"
}

// Key returns the crop join key of the subscriber
func (s SubscriberProfile) Key() CropKey {
	return CropKey{Crop: s.Crop, IrrigationMethod: s.IrrigationMethod}
}

// CropKey joins subscribers to crop energy profiles
type CropKey struct {
	Crop             string
	IrrigationMethod string
}

// GetAllModels returns all models for migration
func GetAllModels() []interface{} {
	return []interface{}{
		&CropEnergyProfile{},
		&SubscriberProfile{},
	}
}
