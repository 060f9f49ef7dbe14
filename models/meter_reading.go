package models

import (
	"time"
)

// MeterReading is one metering record for a subscriber at a point in time.
// Timestamp is nil when the source text could not be parsed.
type MeterReading struct {
	SubscriberID int64      `json:"subscriber_id"`
	Timestamp    *time.Time `json:"timestamp"`
	CurrentL1    float64    `json:"current_l1"`
	CurrentL2    float64    `json:"current_l2"`
	CurrentL3    float64    `json:"current_l3"`
	VoltageL1    float64    `json:"voltage_l1"`
	VoltageL2    float64    `json:"voltage_l2"`
	VoltageL3    float64    `json:"voltage_l3"`

	// Derived during energy integration
	PowerKW      float64 `json:"power_kw"`
	ElapsedHours float64 `json:"elapsed_hours"`
	EnergyKWh    float64 `json:"energy_kwh"`
}

// HasTimestamp reports whether the reading carries a parsed timestamp
func (r MeterReading) HasTimestamp() bool {
	return r.Timestamp != nil
}

// SubscriberConsumption is the total real energy metered for a subscriber
type SubscriberConsumption struct {
	SubscriberID int64   `json:"subscriber_id"`
	EnergyKWh    float64 `json:"energy_kwh"`
	ReadingCount int     `json:"reading_count"`
}
