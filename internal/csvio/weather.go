// Package csvio reads and writes the flat CSV files exchanged between the
// ingestion steps and the simulation.
package csvio

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/chrissnell/solarclear/internal/types"
	"github.com/gocarina/gocsv"
)

// weatherRow mirrors the hourly weather export, one row per hour
type weatherRow struct {
	Date             Timestamp `csv:"date"`
	Temperature      Number    `csv:"temperature_2m"`
	CloudCover       Number    `csv:"cloud_cover"`
	RelativeHumidity Number    `csv:"relative_humidity_2m"`
	Precipitation    Number    `csv:"precipitation"`
	GHI              Number    `csv:"shortwave_radiation"`
	DNI              Number    `csv:"direct_normal_irradiance"`
	DHI              Number    `csv:"diffuse_radiation"`
}

// ReadWeather parses an hourly weather CSV. Timestamps carrying an offset are
// converted to loc; offset-free timestamps are taken as loc's civil time.
func ReadWeather(r io.Reader, loc *time.Location) ([]types.WeatherSample, error) {
	var rows []*weatherRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("error reading weather CSV: %w", err)
	}

	out := make([]types.WeatherSample, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.WeatherSample{
			Timestamp:        row.Date.Civil(loc),
			Temperature:      row.Temperature.Ptr(),
			CloudCover:       row.CloudCover.Ptr(),
			RelativeHumidity: row.RelativeHumidity.Ptr(),
			Precipitation:    row.Precipitation.Ptr(),
			GHI:              row.GHI.Ptr(),
			DNI:              row.DNI.Ptr(),
			DHI:              row.DHI.Ptr(),
		})
	}
	return out, nil
}

// WriteWeather writes samples in the same layout ReadWeather accepts
func WriteWeather(w io.Writer, samples []types.WeatherSample) error {
	rows := make([]*weatherRow, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, &weatherRow{
			Date:             Timestamp{Time: s.Timestamp},
			Temperature:      number(s.Temperature),
			CloudCover:       number(s.CloudCover),
			RelativeHumidity: number(s.RelativeHumidity),
			Precipitation:    number(s.Precipitation),
			GHI:              number(s.GHI),
			DNI:              number(s.DNI),
			DHI:              number(s.DHI),
		})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("error writing weather CSV: %w", err)
	}
	return nil
}

// ReadWeatherFile opens path and calls ReadWeather
func ReadWeatherFile(path string, loc *time.Location) ([]types.WeatherSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening weather CSV: %w", err)
	}
	defer f.Close()
	return ReadWeather(f, loc)
}

// WriteWeatherFile creates path and calls WriteWeather
func WriteWeatherFile(path string, samples []types.WeatherSample) error {
	return writeFile(path, func(w io.Writer) error { return WriteWeather(w, samples) })
}

func number(p *float64) Number {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return Number{}
	}
	return Number{V: *p, Valid: true}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
