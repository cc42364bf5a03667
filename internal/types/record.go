package types

import "time"

// SimulationRecord is one simulated hour. The first seven fields are the
// published output contract; the rest are diagnostics.
type SimulationRecord struct {
	Timestamp          time.Time `gorm:"column:timestamp;primaryKey" json:"timestamp"`
	PM25               float64   `gorm:"column:pm25" json:"pm25"`
	DNI                float64   `gorm:"column:direct_normal_irradiance" json:"direct_normal_irradiance"`
	CloudCover         float64   `gorm:"column:cloud_cover" json:"cloud_cover"`
	Temperature        float64   `gorm:"column:temperature_2m" json:"temperature_2m"`
	POAIrradiance      float64   `gorm:"column:poa_irradiance" json:"poa_irradiance"`
	SimulatedPowerWatt float64   `gorm:"column:simulated_power_watt" json:"simulated_power_watt"`

	GHI            float64 `gorm:"column:shortwave_radiation" json:"shortwave_radiation"`
	DHI            float64 `gorm:"column:diffuse_radiation" json:"diffuse_radiation"`
	Zenith         float64 `gorm:"column:zenith" json:"zenith"`
	Azimuth        float64 `gorm:"column:azimuth" json:"azimuth"`
	ClearSkyGHI    float64 `gorm:"column:clear_sky_ghi" json:"clear_sky_ghi"`
	ClearnessIndex float64 `gorm:"column:clearness_index" json:"clearness_index"`
	AQI            int32   `gorm:"column:aqi" json:"aqi"`
	RunID          string  `gorm:"column:run_id;index" json:"run_id,omitempty"`
}

// TableName implements the GORM Tabler interface for SimulationRecord
func (SimulationRecord) TableName() string {
	return "hourly_pv_data"
}

// Daylight reports whether the panel produced any power in this hour
func (r SimulationRecord) Daylight() bool {
	return r.SimulatedPowerWatt > 0
}

// RecordBatch is one run's output handed to the storage engines. Each engine
// reports the outcome of storing it on Done.
type RecordBatch struct {
	RunID   string
	Records []SimulationRecord
	Done    chan<- error
}

// Span returns the first and last timestamps of the batch. Records are
// expected in time order.
func (b RecordBatch) Span() (from, to time.Time, ok bool) {
	if len(b.Records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return b.Records[0].Timestamp, b.Records[len(b.Records)-1].Timestamp, true
}
