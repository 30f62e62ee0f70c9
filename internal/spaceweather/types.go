// Package spaceweather loads daily solar and geomagnetic indices in the
// CelesTrak space weather CSV format and derives model inputs from them.
package spaceweather

import (
	"sort"
	"time"
)

// Record is one day of space weather indices. Kp values are in units of
// Kp (the file stores tenths).
type Record struct {
	Date            time.Time
	BSRN            int // Bartels solar rotation number
	ND              int // day within the Bartels rotation
	Kp              [8]float64
	KpSum           float64
	Ap              [8]float64
	ApAvg           float64
	Cp              float64
	C9              int
	ISN             int // international sunspot number
	F107Obs         float64
	F107Adj         float64
	F107DataType    string // OBS, INT, PRD or PRM
	F107ObsCenter81 float64
	F107ObsLast81   float64
	F107AdjCenter81 float64
	F107AdjLast81   float64
}

// DateRange is the first and last day covered by a dataset.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is an immutable, date-indexed set of records from one source.
type Dataset struct {
	Source    string
	FetchedAt time.Time
	Range     DateRange
	Records   []Record

	byDay map[time.Time]int
}

// NewDataset sorts records by date and indexes them. Later duplicates of a
// day replace earlier ones.
func NewDataset(source string, fetchedAt time.Time, records []Record) *Dataset {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	ds := &Dataset{
		Source:    source,
		FetchedAt: fetchedAt,
		Records:   sorted,
		byDay:     make(map[time.Time]int, len(sorted)),
	}
	for i, r := range sorted {
		ds.byDay[dayKey(r.Date)] = i
	}
	if len(sorted) > 0 {
		ds.Range = DateRange{Min: sorted[0].Date, Max: sorted[len(sorted)-1].Date}
	}
	return ds
}

// Day returns the record for the UTC day containing t.
func (ds *Dataset) Day(t time.Time) (Record, bool) {
	i, ok := ds.byDay[dayKey(t)]
	if !ok {
		return Record{}, false
	}
	return ds.Records[i], true
}

func dayKey(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
