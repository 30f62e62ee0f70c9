package spaceweather

import (
	"errors"
	"fmt"
	"time"

	"github.com/star/msisgo/internal/msis"
)

var (
	// ErrNoDataset is returned when no dataset has been loaded.
	ErrNoDataset = errors.New("spaceweather: no dataset loaded")

	// ErrNoData is returned when the dataset does not cover a needed day.
	ErrNoData = errors.New("spaceweather: no data for date")
)

// slotsPerDay is the number of 3-hour ap values per day.
const slotsPerDay = 8

// Indices are the solar and geomagnetic inputs for one instant.
type Indices struct {
	Time     time.Time    `json:"time"`
	F107A    float64      `json:"f107a"`
	F107     float64      `json:"f107"`
	Ap       msis.APArray `json:"ap"`
	DataType string       `json:"data_type"`
}

// Indices derives model inputs for t:
//   - F107A is the observed 81-day centred average for t's day
//   - F107 is the observed flux of the previous day
//   - Ap follows the model's 7-element magnetic activity convention
func (ds *Dataset) Indices(t time.Time) (Indices, error) {
	t = t.UTC()
	today, ok := ds.Day(t)
	if !ok {
		return Indices{}, fmt.Errorf("%w %s", ErrNoData, t.Format("2006-01-02"))
	}
	prev := t.AddDate(0, 0, -1)
	yesterday, ok := ds.Day(prev)
	if !ok {
		return Indices{}, fmt.Errorf("%w %s", ErrNoData, prev.Format("2006-01-02"))
	}

	idx := Indices{
		Time:     t,
		F107A:    today.F107ObsCenter81,
		F107:     yesterday.F107Obs,
		DataType: today.F107DataType,
	}

	idx.Ap[0] = today.ApAvg
	for n := 0; n < 4; n++ {
		v, err := ds.ap3h(t, n)
		if err != nil {
			return Indices{}, err
		}
		idx.Ap[n+1] = v
	}

	var err error
	if idx.Ap[5], err = ds.meanAp3h(t, 4, 12); err != nil {
		return Indices{}, err
	}
	if idx.Ap[6], err = ds.meanAp3h(t, 12, 20); err != nil {
		return Indices{}, err
	}

	return idx, nil
}

// ap3h returns the 3-hour ap value n slots before the slot containing t.
func (ds *Dataset) ap3h(t time.Time, n int) (float64, error) {
	slot := t.Hour()/3 - n
	dayOffset := 0
	for slot < 0 {
		slot += slotsPerDay
		dayOffset--
	}
	day := t.AddDate(0, 0, dayOffset)
	rec, ok := ds.Day(day)
	if !ok {
		return 0, fmt.Errorf("%w %s", ErrNoData, day.Format("2006-01-02"))
	}
	return rec.Ap[slot], nil
}

// meanAp3h averages ap3h over slots [from, to).
func (ds *Dataset) meanAp3h(t time.Time, from, to int) (float64, error) {
	var sum float64
	for n := from; n < to; n++ {
		v, err := ds.ap3h(t, n)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(to-from), nil
}

// Params builds evaluation parameters for a point at time t using these
// indices and the given switches.
func (idx Indices) Params(t time.Time, altKm, lat, lon float64, sw msis.Switches) msis.Params {
	p := msis.Params{
		AltKm:    altKm,
		Lat:      lat,
		Lon:      lon,
		F107A:    idx.F107A,
		F107:     idx.F107,
		Ap:       idx.Ap,
		Switches: sw,
	}
	p.Epoch(t)
	return p
}
