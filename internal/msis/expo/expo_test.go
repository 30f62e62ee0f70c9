package expo

import (
	"math"
	"sync"
	"testing"

	"github.com/star/msisgo/internal/msis"
)

// TestScenarioMidLatitudeSolstice evaluates the reference scenario through
// the flat adapter and checks the outputs are complete and physical.
func TestScenarioMidLatitudeSolstice(t *testing.T) {
	var d [msis.NumDensities]float64
	var temps [msis.NumTemps]float64
	msis.Evaluate(New(), 2020, 172, 43200, 400, 60, -70, 150, 150,
		msis.APArray{4, 4, 4, 4, 4, 4, 4}, msis.AllOn(), &d, &temps)

	for i, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("d[%d] = %v, want finite", i, v)
		}
	}
	for i, v := range temps {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("t[%d] = %v, want finite", i, v)
		}
	}
	if d[msis.DensityMass] <= 0 {
		t.Errorf("mass density = %v, want > 0", d[msis.DensityMass])
	}
	if temps[msis.TempLocal] < 0 {
		t.Errorf("local temperature = %v, want >= 0", temps[msis.TempLocal])
	}

	// 400 km sits on a band boundary, so the SI value is the table value.
	if got, want := d[msis.DensityMass], 3.725e-12; math.Abs(got-want) > 1e-20 {
		t.Errorf("mass density = %v kg/m^3, want %v", got, want)
	}
}

func TestDensityUnits(t *testing.T) {
	sw := msis.DefaultSwitches() // switch 0 off: cgs
	var d [msis.NumDensities]float64
	var temps [msis.NumTemps]float64
	msis.Evaluate(New(), 2020, 1, 0, 0, 0, 0, 150, 150, msis.APArray{}, sw, &d, &temps)

	if got, want := d[msis.DensityMass], 1.225e-3; math.Abs(got-want) > 1e-12 {
		t.Errorf("sea level density = %v g/cm^3, want %v", got, want)
	}
}

func TestDensityMonotonic(t *testing.T) {
	prev := Density(-10)
	for alt := 0.0; alt <= 1500; alt += 5 {
		rho := Density(alt)
		if rho <= 0 {
			t.Fatalf("Density(%v) = %v, want > 0", alt, rho)
		}
		if rho >= prev {
			t.Errorf("Density(%v) = %v, not below Density(%v) = %v", alt, rho, alt-5, prev)
		}
		prev = rho
	}
}

func TestKpFromAp(t *testing.T) {
	tests := []struct {
		ap, want float64
	}{
		{-3, 0},
		{0, 0},
		{4, 1},
		{15, 3},
		{48, 5},
		{400, 9},
		{1000, 9},
		{3.5, (2 + 0.5) / 3},
	}

	for _, tt := range tests {
		if got := KpFromAp(tt.ap); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("KpFromAp(%v) = %v, want %v", tt.ap, got, tt.want)
		}
	}
}

func TestExosphericTemperature(t *testing.T) {
	// Quiet sun, no geomagnetic term: 379 + 3.24*70.
	if got, want := ExosphericTemperature(70, 70, 0, false), 379+3.24*70; math.Abs(got-want) > 1e-9 {
		t.Errorf("quiet Tinf = %v, want %v", got, want)
	}

	quiet := ExosphericTemperature(150, 150, 4, true)
	storm := ExosphericTemperature(150, 150, 207, true)
	if storm <= quiet {
		t.Errorf("storm Tinf %v not above quiet %v", storm, quiet)
	}
}

func TestLocalTemperature(t *testing.T) {
	if got := LocalTemperature(1000, 100); got != t120 {
		t.Errorf("below boundary = %v, want %v", got, t120)
	}
	if got := LocalTemperature(1000, 120); got != t120 {
		t.Errorf("at boundary = %v, want %v", got, t120)
	}
	if got := LocalTemperature(1000, 1000); math.Abs(got-1000) > 1e-3 {
		t.Errorf("at 1000 km = %v, want ~1000", got)
	}
}

func TestDailyApSwitch(t *testing.T) {
	apa := msis.APArray{80, 0, 0, 0, 0, 0, 0}
	in := msis.Input{Alt: 400, F107A: 150, F107: 150, Ap: 4, APA: &apa}

	var flags msis.Flags
	flags.Switches = msis.AllOn()
	var on, off, full msis.Output
	New().GTD7D(&in, &flags, &on)

	flags.Switches[msis.SwitchDailyAp] = 0
	New().GTD7D(&in, &flags, &off)

	flags.Switches[msis.SwitchDailyAp] = -1
	New().GTD7D(&in, &flags, &full)

	if off.T[0] >= on.T[0] {
		t.Errorf("geomagnetic term off: Tinf %v not below %v", off.T[0], on.T[0])
	}
	if full.T[0] <= on.T[0] {
		t.Errorf("ap array slot 0 (80) ignored: Tinf %v not above %v", full.T[0], on.T[0])
	}
}

func TestConcurrentEvaluate(t *testing.T) {
	var want [msis.NumDensities]float64
	var wantT [msis.NumTemps]float64
	msis.Evaluate(New(), 2020, 172, 43200, 350, 10, 20, 120, 110, msis.APArray{7}, msis.AllOn(), &want, &wantT)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var d [msis.NumDensities]float64
			var temps [msis.NumTemps]float64
			msis.Evaluate(New(), 2020, 172, 43200, 350, 10, 20, 120, 110, msis.APArray{7}, msis.AllOn(), &d, &temps)
			if d != want || temps != wantT {
				t.Errorf("concurrent result differs: %v %v", d, temps)
			}
		}()
	}
	wg.Wait()
}
