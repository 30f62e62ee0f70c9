package main

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/star/msisgo/internal/msis"
	"github.com/star/msisgo/internal/msis/expo"
)

func testArgs() evalArgs {
	sw := msis.AllOn()
	return evalArgs{
		year: 2020, doy: 172, sec: 43200, lat: 60, lon: -70, f107a: 150, f107: 150,
		ap: []float64{4, 4, 4, 4, 4, 4, 4},
		sw: sw[:],
	}
}

func TestJulianDate(t *testing.T) {
	// 2000-01-01 12:00 UT is J2000.0.
	if got := julianDate(2000, 1, 43200); math.Abs(got-2451545.0) > 1e-9 {
		t.Errorf("julianDate = %v, want 2451545", got)
	}
}

func TestEvaluate(t *testing.T) {
	out, err := evaluate(expo.New(), expo.Name, testArgs(), 400)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(out.Densities[msis.DensityMass]-3.725e-12) > 1e-20 {
		t.Errorf("mass density = %v", out.Densities[msis.DensityMass])
	}

	a := testArgs()
	a.ap = a.ap[:6]
	if _, err := evaluate(expo.New(), expo.Name, a, 400); !errors.Is(err, msis.ErrLength) {
		t.Errorf("short ap error = %v, want ErrLength", err)
	}
}

func TestWriteProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.parquet")
	n, err := writeProfile(path, expo.New(), expo.Name, testArgs(), 200, 500, 100)
	if err != nil {
		t.Fatalf("writeProfile: %v", err)
	}
	if n != 4 {
		t.Fatalf("rows = %d, want 4", n)
	}

	rows, err := parquet.ReadFile[profileRow](path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("read %d rows, want 4", len(rows))
	}
	for i, want := range []float64{200, 300, 400, 500} {
		if rows[i].AltKm != want {
			t.Errorf("row %d alt = %v, want %v", i, rows[i].AltKm, want)
		}
		if i > 0 && rows[i].Mass >= rows[i-1].Mass {
			t.Errorf("density not decreasing at row %d", i)
		}
	}

	if _, err := writeProfile(path, expo.New(), expo.Name, testArgs(), 500, 200, 10); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestParseLists(t *testing.T) {
	f, err := parseFloats("1, 2.5,3")
	if err != nil || len(f) != 3 || f[1] != 2.5 {
		t.Errorf("parseFloats = %v, %v", f, err)
	}
	if _, err := parseInts("1,x"); err == nil {
		t.Error("expected error for non-integer switch")
	}
}
