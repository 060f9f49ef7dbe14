// Package energy turns three-phase metering readings into consumed real energy.
package energy

import (
	"sort"

	"irrigation_audit/models"
)

// DefaultPowerFactor is the average cos phi of irrigation pump motors
const DefaultPowerFactor = 0.88

// Integrator computes power, elapsed time and energy for sorted readings
type Integrator struct {
	PowerFactor float64
}

// NewIntegrator creates an integrator; a non-positive power factor selects the default
func NewIntegrator(powerFactor float64) *Integrator {
	if powerFactor <= 0 {
		powerFactor = DefaultPowerFactor
	}
	return &Integrator{PowerFactor: powerFactor}
}

// Power returns the real power of a reading in kW
func (in *Integrator) Power(r models.MeterReading) float64 {
	apparent := r.CurrentL1*r.VoltageL1 + r.CurrentL2*r.VoltageL2 + r.CurrentL3*r.VoltageL3
	return apparent * in.PowerFactor / 1000
}

// ElapsedHours returns the time between two readings of one subscriber.
// A missing timestamp on either side yields 0.
func ElapsedHours(prev, cur models.MeterReading) float64 {
	if !prev.HasTimestamp() || !cur.HasTimestamp() {
		return 0
	}
	return cur.Timestamp.Sub(*prev.Timestamp).Hours()
}

// Integrate fills the derived fields of readings in place. Readings must be
// sorted by subscriber and time; the first reading of each subscriber gets
// an elapsed time of 0.
func (in *Integrator) Integrate(readings []models.MeterReading) {
	for i := range readings {
		r := &readings[i]
		r.PowerKW = in.Power(*r)

		r.ElapsedHours = 0
		if i > 0 && readings[i-1].SubscriberID == r.SubscriberID {
			r.ElapsedHours = ElapsedHours(readings[i-1], *r)
		}

		r.EnergyKWh = r.PowerKW * r.ElapsedHours
	}
}

// Aggregate sums incremental energy per subscriber. Subscribers without
// readings are absent. The result is ordered by subscriber id.
func Aggregate(readings []models.MeterReading) []models.SubscriberConsumption {
	totals := make(map[int64]*models.SubscriberConsumption)
	for _, r := range readings {
		c, ok := totals[r.SubscriberID]
		if !ok {
			c = &models.SubscriberConsumption{SubscriberID: r.SubscriberID}
			totals[r.SubscriberID] = c
		}
		c.EnergyKWh += r.EnergyKWh
		c.ReadingCount++
	}

	result := make([]models.SubscriberConsumption, 0, len(totals))
	for _, c := range totals {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubscriberID < result[j].SubscriberID
	})
	return result
}

// TotalEnergy sums the incremental energy of a reading group; an empty group is 0
func TotalEnergy(readings []models.MeterReading) float64 {
	total := 0.0
	for _, r := range readings {
		total += r.EnergyKWh
	}
	return total
}

// Consume integrates sorted readings and returns per-subscriber totals
func (in *Integrator) Consume(readings []models.MeterReading) []models.SubscriberConsumption {
	in.Integrate(readings)
	return Aggregate(readings)
}
