// msis-eval - evaluate the atmosphere model from the command line
//
// Prints one evaluation as JSON, or with -profile sweeps an altitude range
// and writes one parquet row per altitude.
//
// Build: go build -o build/msis-eval ./cmd/msis-eval
//        go build -tags nrlmsise -o build/msis-eval ./cmd/msis-eval  (C library)

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/soniakeys/meeus/v3/julian"

	"github.com/star/msisgo/internal/msis"
	"github.com/star/msisgo/internal/msis/expo"
	"github.com/star/msisgo/internal/msis/nrlmsise"
)

// evalArgs are the flat model inputs shared by both modes.
type evalArgs struct {
	year, doy     int
	sec, lat, lon float64
	f107a, f107   float64
	ap            []float64
	sw            []int
}

type output struct {
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	DOY          int       `json:"doy"`
	Sec          float64   `json:"sec"`
	AltKm        float64   `json:"alt_km"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	LST          float64   `json:"lst"`
	JD           float64   `json:"jd"`
	Densities    []float64 `json:"densities"`
	Temperatures []float64 `json:"temperatures"`
}

// profileRow is one altitude of a -profile sweep.
type profileRow struct {
	Model      string  `parquet:"model"`
	JD         float64 `parquet:"jd"`
	AltKm      float64 `parquet:"alt_km"`
	Lat        float64 `parquet:"lat"`
	Lon        float64 `parquet:"lon"`
	LST        float64 `parquet:"lst"`
	He         float64 `parquet:"he"`
	O          float64 `parquet:"o"`
	N2         float64 `parquet:"n2"`
	O2         float64 `parquet:"o2"`
	Ar         float64 `parquet:"ar"`
	Mass       float64 `parquet:"mass"`
	H          float64 `parquet:"h"`
	N          float64 `parquet:"n"`
	AnomalousO float64 `parquet:"anomalous_o"`
	TExo       float64 `parquet:"t_exo"`
	TLocal     float64 `parquet:"t_local"`
}

func main() {
	modelName := flag.String("model", expo.Name, "model backend: exponential or nrlmsise00")
	at := flag.String("time", "", "UTC instant (RFC3339); overrides -year, -doy and -sec")
	year := flag.Int("year", 2000, "year")
	doy := flag.Int("doy", 172, "day of year")
	sec := flag.Float64("sec", 29000, "seconds in day (UT)")
	alt := flag.Float64("alt", 400, "altitude (km)")
	lat := flag.Float64("lat", 60, "geodetic latitude (deg)")
	lon := flag.Float64("lon", -70, "geodetic longitude (deg)")
	f107a := flag.Float64("f107a", 150, "81-day average F10.7")
	f107 := flag.Float64("f107", 150, "previous day F10.7")
	apList := flag.String("ap", "4,4,4,4,4,4,4", "7 comma-separated magnetic activity values")
	swList := flag.String("switches", "", "24 comma-separated switches (default: standard set)")
	profile := flag.String("profile", "", "write an altitude sweep to this parquet file")
	altMin := flag.Float64("alt-min", 100, "profile start altitude (km)")
	altMax := flag.Float64("alt-max", 1000, "profile end altitude (km)")
	altStep := flag.Float64("alt-step", 10, "profile altitude step (km)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "msis-eval - atmosphere model evaluation\n\n")
		fmt.Fprintf(os.Stderr, "Usage: msis-eval [flags]\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	model, err := selectModel(*modelName)
	if err != nil {
		logger.Error("model unavailable", "model", *modelName, "error", err)
		os.Exit(1)
	}

	args := evalArgs{year: *year, doy: *doy, sec: *sec, lat: *lat, lon: *lon, f107a: *f107a, f107: *f107}
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			logger.Error("invalid -time", "value", *at, "error", err)
			os.Exit(2)
		}
		var p msis.Params
		p.Epoch(t)
		args.year, args.doy, args.sec = p.Year, p.DOY, p.Sec
	}
	if args.ap, err = parseFloats(*apList); err != nil {
		logger.Error("invalid -ap", "error", err)
		os.Exit(2)
	}
	if *swList == "" {
		sw := msis.DefaultSwitches()
		args.sw = sw[:]
	} else if args.sw, err = parseInts(*swList); err != nil {
		logger.Error("invalid -switches", "error", err)
		os.Exit(2)
	}

	if *profile != "" {
		n, err := writeProfile(*profile, model, *modelName, args, *altMin, *altMax, *altStep)
		if err != nil {
			logger.Error("profile failed", "file", *profile, "error", err)
			os.Exit(1)
		}
		logger.Warn("profile written", "file", *profile, "rows", n)
		return
	}

	out, err := evaluate(model, *modelName, args, *alt)
	if err != nil {
		logger.Error("evaluation failed", "error", err)
		os.Exit(2)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("writing output", "error", err)
		os.Exit(1)
	}
}

func selectModel(name string) (msis.Model, error) {
	switch name {
	case expo.Name:
		return expo.New(), nil
	case nrlmsise.Name:
		return nrlmsise.New()
	}
	return nil, fmt.Errorf("unknown model %q", name)
}

func evaluate(model msis.Model, name string, a evalArgs, alt float64) (output, error) {
	d := make([]float64, msis.NumDensities)
	t := make([]float64, msis.NumTemps)
	if err := msis.EvaluateSlices(model, a.year, a.doy, a.sec, alt, a.lat, a.lon, a.f107a, a.f107, a.ap, a.sw, d, t); err != nil {
		return output{}, err
	}
	return output{
		Model:        name,
		Year:         a.year,
		DOY:          a.doy,
		Sec:          a.sec,
		AltKm:        alt,
		Lat:          a.lat,
		Lon:          a.lon,
		LST:          msis.LocalSolarTime(a.sec, a.lon),
		JD:           julianDate(a.year, a.doy, a.sec),
		Densities:    d,
		Temperatures: t,
	}, nil
}

func writeProfile(path string, model msis.Model, name string, a evalArgs, from, to, step float64) (int, error) {
	if step <= 0 || to < from {
		return 0, errors.New("profile needs alt-step > 0 and alt-max >= alt-min")
	}

	var rows []profileRow
	for alt := from; alt <= to+1e-9; alt += step {
		out, err := evaluate(model, name, a, alt)
		if err != nil {
			return 0, err
		}
		d := out.Densities
		rows = append(rows, profileRow{
			Model: name, JD: out.JD, AltKm: alt, Lat: a.lat, Lon: a.lon, LST: out.LST,
			He: d[msis.DensityHe], O: d[msis.DensityO], N2: d[msis.DensityN2], O2: d[msis.DensityO2],
			Ar: d[msis.DensityAr], Mass: d[msis.DensityMass], H: d[msis.DensityH], N: d[msis.DensityN],
			AnomalousO: d[msis.DensityAnomalousO],
			TExo:       out.Temperatures[msis.TempExospheric],
			TLocal:     out.Temperatures[msis.TempLocal],
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := parquet.NewGenericWriter[profileRow](f)
	if _, err := w.Write(rows); err != nil {
		return 0, fmt.Errorf("writing rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("closing parquet writer: %w", err)
	}
	return len(rows), f.Close()
}

// julianDate converts year, day-of-year and UT seconds to a Julian date.
func julianDate(year, doy int, sec float64) float64 {
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
	return julian.TimeToJD(t.Add(time.Duration(sec * float64(time.Second))))
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for i, p := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("element %d %q: %w", i, p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for i, p := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("element %d %q: %w", i, p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
