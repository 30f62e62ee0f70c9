package spaceweather

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// requiredColumns must be present in the header.
var requiredColumns = []string{"DATE", "AP_AVG", "F10.7_OBS", "F10.7_OBS_CENTER81"}

// Parse reads CelesTrak space weather CSV (SW-All.csv layout) from r.
// Columns are located by header name. Rows whose date, daily Ap or F10.7
// fields cannot be parsed are skipped with a warning log; blank optional
// fields read as zero. Rows without 3-hourly ap values (the predicted
// section) get every slot set to the daily average.
func Parse(r io.Reader, logger *slog.Logger) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading space weather header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("space weather header missing column %q", name)
		}
	}

	var records []Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading space weather line %d: %w", line, err)
		}

		rec, err := parseRow(row, cols)
		if err != nil {
			logger.Warn("skipping malformed space weather row", "line", line, "error", err)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(row []string, cols map[string]int) (Record, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec Record
	var err error

	rec.Date, err = time.Parse("2006-01-02", field("DATE"))
	if err != nil {
		return Record{}, fmt.Errorf("invalid DATE: %w", err)
	}
	if rec.ApAvg, err = requiredFloat(field("AP_AVG"), "AP_AVG"); err != nil {
		return Record{}, err
	}
	if rec.F107Obs, err = requiredFloat(field("F10.7_OBS"), "F10.7_OBS"); err != nil {
		return Record{}, err
	}
	if rec.F107ObsCenter81, err = requiredFloat(field("F10.7_OBS_CENTER81"), "F10.7_OBS_CENTER81"); err != nil {
		return Record{}, err
	}

	haveAp := true
	for i := 0; i < 8; i++ {
		n := strconv.Itoa(i + 1)
		rec.Kp[i] = optionalFloat(field("KP"+n)) / 10
		s := field("AP" + n)
		if s == "" {
			haveAp = false
			continue
		}
		if rec.Ap[i], err = strconv.ParseFloat(s, 64); err != nil {
			return Record{}, fmt.Errorf("invalid AP%s %q: %w", n, s, err)
		}
	}
	if !haveAp {
		for i := range rec.Ap {
			rec.Ap[i] = rec.ApAvg
		}
	}

	rec.BSRN = int(optionalFloat(field("BSRN")))
	rec.ND = int(optionalFloat(field("ND")))
	rec.KpSum = optionalFloat(field("KP_SUM")) / 10
	rec.Cp = optionalFloat(field("CP"))
	rec.C9 = int(optionalFloat(field("C9")))
	rec.ISN = int(optionalFloat(field("ISN")))
	rec.F107Adj = optionalFloat(field("F10.7_ADJ"))
	rec.F107DataType = field("F10.7_DATA_TYPE")
	rec.F107ObsLast81 = optionalFloat(field("F10.7_OBS_LAST81"))
	rec.F107AdjCenter81 = optionalFloat(field("F10.7_ADJ_CENTER81"))
	rec.F107AdjLast81 = optionalFloat(field("F10.7_ADJ_LAST81"))

	return rec, nil
}

func requiredFloat(s, name string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return v, nil
}

func optionalFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
