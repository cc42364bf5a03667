package csvio

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chrissnell/solarclear/internal/types"
	"github.com/gocarina/gocsv"
)

// measurementRow is one row of the long-format OpenAQ export
type measurementRow struct {
	SensorID      int64     `csv:"sensor_id"`
	Parameter     string    `csv:"parameter"`
	Value         Number    `csv:"value"`
	DatetimeUTC   Timestamp `csv:"datetime_utc"`
	DatetimeLocal Timestamp `csv:"datetime_local"`
}

// ReadMeasurements parses a long-format OpenAQ CSV. The local timestamp is
// preferred; rows that only carry the UTC one are converted to loc.
func ReadMeasurements(r io.Reader, loc *time.Location) ([]types.Measurement, error) {
	var rows []*measurementRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("error reading measurements CSV: %w", err)
	}

	out := make([]types.Measurement, 0, len(rows))
	for _, row := range rows {
		ts := row.DatetimeLocal.Civil(loc)
		if ts.IsZero() && !row.DatetimeUTC.Time.IsZero() {
			utc := row.DatetimeUTC
			utc.HasOffset = true
			ts = utc.Civil(loc)
		}
		out = append(out, types.Measurement{
			Timestamp: ts,
			Parameter: row.Parameter,
			Value:     row.Value.Ptr(),
		})
	}
	return out, nil
}

// ReadMeasurementsFile opens path and calls ReadMeasurements
func ReadMeasurementsFile(path string, loc *time.Location) ([]types.Measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening measurements CSV: %w", err)
	}
	defer f.Close()
	return ReadMeasurements(f, loc)
}

// WriteMeasurements writes measurements in the long format. SensorID is
// looked up by parameter and left zero when unknown.
func WriteMeasurements(w io.Writer, ms []types.Measurement, sensors map[string]int64) error {
	rows := make([]*measurementRow, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, &measurementRow{
			SensorID:      sensors[m.Parameter],
			Parameter:     m.Parameter,
			Value:         number(m.Value),
			DatetimeLocal: Timestamp{Time: m.Timestamp},
		})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("error writing measurements CSV: %w", err)
	}
	return nil
}

// WriteMeasurementsFile creates path and calls WriteMeasurements
func WriteMeasurementsFile(path string, ms []types.Measurement, sensors map[string]int64) error {
	return writeFile(path, func(w io.Writer) error { return WriteMeasurements(w, ms, sensors) })
}
