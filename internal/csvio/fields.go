package csvio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/solarclear/internal/align"
	"github.com/chrissnell/solarclear/internal/types"
)

// OutputTimeLayout is how timestamps are written to every CSV this package
// produces.
const OutputTimeLayout = "2006-01-02 15:04:05"

var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04Z07:00",
}

var civilLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Timestamp is a CSV cell holding either an offset-free civil time or an
// instant with an explicit UTC offset.
type Timestamp struct {
	Time      time.Time
	HasOffset bool
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller
func (ts *Timestamp) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts = Timestamp{Time: t, HasOffset: true}
			return nil
		}
	}
	for _, layout := range civilLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts = Timestamp{Time: t}
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalCSV implements gocsv.TypeMarshaller
func (ts Timestamp) MarshalCSV() (string, error) {
	if ts.Time.IsZero() {
		return "", nil
	}
	return ts.Time.Format(OutputTimeLayout), nil
}

// Civil returns the offset-free civil time in loc. Cells that carried an
// offset are converted first; civil cells are taken as already local.
func (ts Timestamp) Civil(loc *time.Location) time.Time {
	if ts.Time.IsZero() {
		return time.Time{}
	}
	if ts.HasOffset {
		return align.ToCivil(ts.Time, loc)
	}
	return types.Civil(ts.Time)
}

// Number is an optional numeric cell. Empty cells and NaN spellings are absent.
type Number struct {
	V     float64
	Valid bool
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller
func (n *Number) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "na":
		*n = Number{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		*n = Number{}
		return nil
	}
	*n = Number{V: v, Valid: true}
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller
func (n Number) MarshalCSV() (string, error) {
	if !n.Valid {
		return "", nil
	}
	return strconv.FormatFloat(n.V, 'f', -1, 64), nil
}

// Ptr returns the value as an optional float
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	return types.Float(n.V)
}
