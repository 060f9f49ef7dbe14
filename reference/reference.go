// Package reference holds the agronomic reference tables: crop energy needs
// per irrigation method and the declared fields of each subscriber.
package reference

import (
	_ "embed"
	"fmt"
	"os"

	"irrigation_audit/models"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTables []byte

// Tables is the reference model joined against metered consumption
type Tables struct {
	Crops       []models.CropEnergyProfile `yaml:"crops"`
	Subscribers []models.SubscriberProfile `yaml:"subscribers"`
}

// Builtin returns the illustrative tables shipped with the binary
func Builtin() (*Tables, error) {
	return Parse(defaultTables)
}

// LoadFile reads reference tables from a YAML file
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML reference tables
func Parse(data []byte) (*Tables, error) {
	var tables Tables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse reference tables: %w", err)
	}
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reference tables: %w", err)
	}
	return &tables, nil
}

// Validate checks keys, value ranges and uniqueness
func (t *Tables) Validate() error {
	crops := make(map[models.CropKey]bool, len(t.Crops))
	for i, c := range t.Crops {
		if c.Crop == "" || c.IrrigationMethod == "" {
			return fmt.Errorf("crop profile %d: crop and irrigation method are required", i+1)
		}
		if c.EnergyNeedPerArea < 0 {
			return fmt.Errorf("crop profile %s/%s: negative energy need %v", c.Crop, c.IrrigationMethod, c.EnergyNeedPerArea)
		}
		if crops[c.Key()] {
			return fmt.Errorf("duplicate crop profile %s/%s", c.Crop, c.IrrigationMethod)
		}
		crops[c.Key()] = true
	}

	subscribers := make(map[int64]bool, len(t.Subscribers))
	for i, s := range t.Subscribers {
		if s.Crop == "" || s.IrrigationMethod == "" {
			return fmt.Errorf("subscriber profile %d: crop and irrigation method are required", i+1)
		}
		if s.FieldArea < 0 {
			return fmt.Errorf("subscriber %d: negative field area %v", s.SubscriberID, s.FieldArea)
		}
		if subscribers[s.SubscriberID] {
			return fmt.Errorf("duplicate subscriber profile %d", s.SubscriberID)
		}
		subscribers[s.SubscriberID] = true
	}

	return nil
}

// CropIndex maps each (crop, method) pair to its profile
func (t *Tables) CropIndex() map[models.CropKey]models.CropEnergyProfile {
	index := make(map[models.CropKey]models.CropEnergyProfile, len(t.Crops))
	for _, c := range t.Crops {
		index[c.Key()] = c
	}
	return index
}

// Marshal encodes the tables as YAML
func (t *Tables) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}
