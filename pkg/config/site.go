package config

import (
	"fmt"
	"time"

	"github.com/chrissnell/solarclear/pkg/solar"
)

// Location loads the site's IANA timezone
func (s SiteData) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", solar.ErrInvalidInput, s.Timezone, err)
	}
	return loc, nil
}

// Meridian resolves the reference meridian: the explicit value, else 15° per
// hour of the configured UTC offset, else the timezone's offset at the given
// instant.
func (s SiteData) Meridian(at time.Time) (float64, error) {
	switch {
	case s.ReferenceMeridian != nil:
		return *s.ReferenceMeridian, nil
	case s.UTCOffsetHours != nil:
		return solar.MeridianForOffset(*s.UTCOffsetHours), nil
	}

	loc, err := s.Location()
	if err != nil {
		return 0, err
	}
	_, offset := at.In(loc).Zone()
	return solar.MeridianForOffset(float64(offset) / 3600.0), nil
}

// ToSite builds the engine's site description. The timezone offset is read
// at instant at when no meridian or offset is configured.
func (s SiteData) ToSite(at time.Time) (solar.Site, error) {
	meridian, err := s.Meridian(at)
	if err != nil {
		return solar.Site{}, err
	}

	site := solar.Site{
		Latitude:           s.Latitude,
		Longitude:          s.Longitude,
		Tilt:               s.Tilt,
		PanelAzimuth:       s.PanelAzimuth,
		RatedPower:         s.RatedPower,
		TempCoefficient:    s.TempCoefficient,
		Albedo:             solar.DefaultAlbedo,
		ReferenceMeridian:  meridian,
		IncludeAzimuthTerm: true,
	}
	if s.Albedo != nil {
		site.Albedo = *s.Albedo
	}
	if s.IncludeAzimuthTerm != nil {
		site.IncludeAzimuthTerm = *s.IncludeAzimuthTerm
	}
	if s.InverterEfficiency != nil {
		eff := *s.InverterEfficiency
		site.InverterEfficiency = &eff
	}

	return site, site.Validate()
}

// Period parses the run dates as midnight in loc. The returned end is the
// last instant of EndDate.
func (r RunData) Period(loc *time.Location) (from, to time.Time, err error) {
	from, err = time.ParseInLocation(time.DateOnly, r.StartDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date %q", solar.ErrInvalidInput, r.StartDate)
	}
	end, err := time.ParseInLocation(time.DateOnly, r.EndDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date %q", solar.ErrInvalidInput, r.EndDate)
	}
	return from, end.AddDate(0, 0, 1).Add(-time.Second), nil
}
