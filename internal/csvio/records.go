package csvio

import (
	"fmt"
	"io"
	"os"

	"github.com/chrissnell/solarclear/internal/types"
	"github.com/gocarina/gocsv"
)

// recordRow is the output layout. Column names match the hourly_pv_data table.
type recordRow struct {
	Timestamp          Timestamp `csv:"timestamp"`
	PM25               float64   `csv:"pm25"`
	DNI                float64   `csv:"direct_normal_irradiance"`
	CloudCover         float64   `csv:"cloud_cover"`
	Temperature        float64   `csv:"temperature_2m"`
	POAIrradiance      float64   `csv:"poa_irradiance"`
	SimulatedPowerWatt float64   `csv:"simulated_power_watt"`
	GHI                float64   `csv:"shortwave_radiation"`
	DHI                float64   `csv:"diffuse_radiation"`
	Zenith             float64   `csv:"zenith"`
	Azimuth            float64   `csv:"azimuth"`
	ClearSkyGHI        float64   `csv:"clear_sky_ghi"`
	ClearnessIndex     float64   `csv:"clearness_index"`
	AQI                int32     `csv:"aqi"`
	RunID              string    `csv:"run_id"`
}

func toRecordRow(r types.SimulationRecord) *recordRow {
	return &recordRow{
		Timestamp:          Timestamp{Time: r.Timestamp},
		PM25:               r.PM25,
		DNI:                r.DNI,
		CloudCover:         r.CloudCover,
		Temperature:        r.Temperature,
		POAIrradiance:      r.POAIrradiance,
		SimulatedPowerWatt: r.SimulatedPowerWatt,
		GHI:                r.GHI,
		DHI:                r.DHI,
		Zenith:             r.Zenith,
		Azimuth:            r.Azimuth,
		ClearSkyGHI:        r.ClearSkyGHI,
		ClearnessIndex:     r.ClearnessIndex,
		AQI:                r.AQI,
		RunID:              r.RunID,
	}
}

func (row *recordRow) record() types.SimulationRecord {
	return types.SimulationRecord{
		Timestamp:          types.Civil(row.Timestamp.Time),
		PM25:               row.PM25,
		DNI:                row.DNI,
		CloudCover:         row.CloudCover,
		Temperature:        row.Temperature,
		POAIrradiance:      row.POAIrradiance,
		SimulatedPowerWatt: row.SimulatedPowerWatt,
		GHI:                row.GHI,
		DHI:                row.DHI,
		Zenith:             row.Zenith,
		Azimuth:            row.Azimuth,
		ClearSkyGHI:        row.ClearSkyGHI,
		ClearnessIndex:     row.ClearnessIndex,
		AQI:                row.AQI,
		RunID:              row.RunID,
	}
}

// WriteRecords writes simulation records with a header row
func WriteRecords(w io.Writer, records []types.SimulationRecord) error {
	rows := make([]*recordRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, toRecordRow(r))
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("error writing records CSV: %w", err)
	}
	return nil
}

// WriteRecordsFile creates path and calls WriteRecords
func WriteRecordsFile(path string, records []types.SimulationRecord) error {
	return writeFile(path, func(w io.Writer) error { return WriteRecords(w, records) })
}

// ReadRecords parses a file produced by WriteRecords
func ReadRecords(r io.Reader) ([]types.SimulationRecord, error) {
	var rows []*recordRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("error reading records CSV: %w", err)
	}
	out := make([]types.SimulationRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

// ReadRecordsFile opens path and calls ReadRecords
func ReadRecordsFile(path string) ([]types.SimulationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening records CSV: %w", err)
	}
	defer f.Close()
	return ReadRecords(f)
}
