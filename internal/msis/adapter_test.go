package msis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// recorder is a fake model that keeps copies of what it was given and
// writes a recognisable output pattern.
type recorder struct {
	calls int
	in    Input
	apa   APArray
	flags Flags
}

func (r *recorder) GTD7D(in *Input, flags *Flags, out *Output) {
	r.calls++
	r.in = *in
	if in.APA != nil {
		r.apa = *in.APA
	}
	r.flags = *flags
	for i := range out.D {
		out.D[i] = float64(i+1) * 1.5
	}
	out.T[0] = 1000 + in.Alt
	out.T[1] = 500 + in.Alt
}

func scenarioSwitches() Switches {
	var sw Switches
	for i := range sw {
		sw[i] = (i * 7) % 3
	}
	sw[SwitchDailyAp] = -1
	return sw
}

func TestEvaluateSwitchPassThrough(t *testing.T) {
	tests := []struct {
		name string
		sw   Switches
	}{
		{"default", DefaultSwitches()},
		{"all on", AllOn()},
		{"zero", Switches{}},
		{"mixed codes", scenarioSwitches()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			var d [NumDensities]float64
			var temps [NumTemps]float64
			Evaluate(rec, 2020, 172, 43200, 400, 60, -70, 150, 150, APArray{4, 4, 4, 4, 4, 4, 4}, tt.sw, &d, &temps)

			if rec.flags.Switches != tt.sw {
				t.Errorf("switches = %v, want %v", rec.flags.Switches, tt.sw)
			}
		})
	}
}

func TestEvaluateMagneticRecord(t *testing.T) {
	ap := APArray{27, 3, 5, 7, 9, 11.5, 13.25}
	rec := &recorder{}
	var d [NumDensities]float64
	var temps [NumTemps]float64
	Evaluate(rec, 2020, 1, 0, 300, 0, 0, 100, 90, ap, DefaultSwitches(), &d, &temps)

	if rec.apa != ap {
		t.Errorf("embedded ap = %v, want %v", rec.apa, ap)
	}
	if rec.in.Ap != ap[0] {
		t.Errorf("daily ap = %v, want %v", rec.in.Ap, ap[0])
	}
	if rec.in.Ap != rec.apa[0] {
		t.Errorf("daily ap %v differs from record slot 0 %v", rec.in.Ap, rec.apa[0])
	}
}

func TestEvaluateInputFields(t *testing.T) {
	rec := &recorder{}
	var d [NumDensities]float64
	var temps [NumTemps]float64
	Evaluate(rec, 2020, 172, 43200, 400, 60, -70, 151, 149, APArray{4}, DefaultSwitches(), &d, &temps)

	want := Input{
		Year: 2020, DOY: 172, Sec: 43200, Alt: 400, GLat: 60, GLong: -70,
		LST: 43200.0/3600 - 70.0/15, F107A: 151, F107: 149, Ap: 4,
	}
	got := rec.in
	got.APA = nil
	if got != want {
		t.Errorf("input = %+v, want %+v", got, want)
	}
}

func TestLocalSolarTime(t *testing.T) {
	tests := []struct {
		sec, glong, want float64
	}{
		{3600, 15, 2.0},
		{0, 0, 0},
		{86399, 180, 86399.0/3600 + 12},
		{43200, -70, 12 - 70.0/15},
		{0, -180, -12}, // not wrapped
	}

	for _, tt := range tests {
		if got := LocalSolarTime(tt.sec, tt.glong); got != tt.want {
			t.Errorf("LocalSolarTime(%v, %v) = %v, want %v", tt.sec, tt.glong, got, tt.want)
		}
	}
}

func TestEvaluateDerivedLST(t *testing.T) {
	rec := &recorder{}
	var d [NumDensities]float64
	var temps [NumTemps]float64
	Evaluate(rec, 2020, 1, 3600, 400, 0, 15, 150, 150, APArray{}, DefaultSwitches(), &d, &temps)
	if rec.in.LST != 2.0 {
		t.Errorf("lst = %v, want 2.0", rec.in.LST)
	}
}

func TestEvaluateOutputOrder(t *testing.T) {
	rec := &recorder{}
	var d [NumDensities]float64
	var temps [NumTemps]float64
	Evaluate(rec, 2020, 1, 0, 250, 0, 0, 150, 150, APArray{}, DefaultSwitches(), &d, &temps)

	for i, v := range d {
		if want := float64(i+1) * 1.5; v != want {
			t.Errorf("d[%d] = %v, want %v", i, v, want)
		}
	}
	if temps[TempExospheric] != 1250 || temps[TempLocal] != 750 {
		t.Errorf("temperatures = %v, want [1250 750]", temps)
	}
	if rec.calls != 1 {
		t.Errorf("model calls = %d, want 1", rec.calls)
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	ap := APArray{15, 12, 9, 27, 48, 22, 18}
	sw := scenarioSwitches()
	var d1, d2 [NumDensities]float64
	var t1, t2 [NumTemps]float64
	Evaluate(&recorder{}, 2021, 90, 1234.5, 512, -33, 151, 170, 160, ap, sw, &d1, &t1)
	Evaluate(&recorder{}, 2021, 90, 1234.5, 512, -33, 151, 170, 160, ap, sw, &d2, &t2)

	if d1 != d2 || t1 != t2 {
		t.Errorf("outputs differ: %v/%v vs %v/%v", d1, t1, d2, t2)
	}
}

func TestEvaluateNoPartialOutput(t *testing.T) {
	var d [NumDensities]float64
	var temps [NumTemps]float64
	m := ModelFunc(func(in *Input, flags *Flags, out *Output) {
		out.D[0] = 42
		// The caller's arrays must be untouched while the model runs.
		if d[0] != 0 {
			t.Errorf("d[0] written before model returned: %v", d[0])
		}
		out.T[1] = 7
	})
	Evaluate(m, 2020, 1, 0, 100, 0, 0, 150, 150, APArray{}, DefaultSwitches(), &d, &temps)
	if d[0] != 42 || temps[1] != 7 {
		t.Errorf("outputs not copied: d=%v t=%v", d, temps)
	}
}

func TestEvaluateSlicesLengthRejection(t *testing.T) {
	ok7 := make([]float64, 7)
	ok24 := make([]int, 24)

	tests := []struct {
		name  string
		ap    []float64
		sw    []int
		d     []float64
		temps []float64
		field string
	}{
		{"ap 6", make([]float64, 6), ok24, make([]float64, 9), make([]float64, 2), "magnetic activity"},
		{"ap 8", make([]float64, 8), ok24, make([]float64, 9), make([]float64, 2), "magnetic activity"},
		{"switches 23", ok7, make([]int, 23), make([]float64, 9), make([]float64, 2), "switches"},
		{"switches 25", ok7, make([]int, 25), make([]float64, 9), make([]float64, 2), "switches"},
		{"densities 8", ok7, ok24, make([]float64, 8), make([]float64, 2), "densities"},
		{"temperatures 3", ok7, ok24, make([]float64, 9), make([]float64, 3), "temperatures"},
		{"nil ap", nil, ok24, make([]float64, 9), make([]float64, 2), "magnetic activity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			err := EvaluateSlices(rec, 2020, 1, 0, 400, 0, 0, 150, 150, tt.ap, tt.sw, tt.d, tt.temps)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrLength) {
				t.Errorf("errors.Is(err, ErrLength) = false for %v", err)
			}
			var le *LengthError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LengthError, got %T", err)
			}
			if le.Field != tt.field {
				t.Errorf("field = %q, want %q", le.Field, tt.field)
			}
			if rec.calls != 0 {
				t.Errorf("model called %d times, want 0", rec.calls)
			}
			for i, v := range tt.d {
				if v != 0 {
					t.Errorf("d[%d] = %v, want untouched 0", i, v)
				}
			}
		})
	}
}

func TestEvaluateSlices(t *testing.T) {
	ap := []float64{9, 1, 2, 3, 4, 5, 6}
	sw := make([]int, 24)
	for i := range sw {
		sw[i] = i % 2
	}
	d := make([]float64, 9)
	temps := make([]float64, 2)

	rec := &recorder{}
	if err := EvaluateSlices(rec, 2020, 10, 100, 200, 10, 20, 150, 140, ap, sw, d, temps); err != nil {
		t.Fatalf("EvaluateSlices: %v", err)
	}

	for i := range sw {
		if rec.flags.Switches[i] != sw[i] {
			t.Errorf("switch %d = %d, want %d", i, rec.flags.Switches[i], sw[i])
		}
	}
	for i := range ap {
		if rec.apa[i] != ap[i] {
			t.Errorf("ap[%d] = %v, want %v", i, rec.apa[i], ap[i])
		}
	}
	if rec.in.Ap != 9 {
		t.Errorf("daily ap = %v, want 9", rec.in.Ap)
	}
	if d[8] != 13.5 || temps[0] != 1200 {
		t.Errorf("outputs = %v %v", d, temps)
	}

	// The caller's input slices must not be modified.
	if ap[0] != 9 || sw[1] != 1 {
		t.Errorf("inputs mutated: ap=%v sw=%v", ap, sw)
	}
}

func TestDefaultSwitches(t *testing.T) {
	sw := DefaultSwitches()
	if sw[SwitchUnits] != 0 {
		t.Errorf("switch 0 = %d, want 0", sw[SwitchUnits])
	}
	for i := 1; i < NumSwitches; i++ {
		if sw[i] != 1 {
			t.Errorf("switch %d = %d, want 1", i, sw[i])
		}
	}
	if SwitchTurboScale != NumSwitches-1 {
		t.Errorf("SwitchTurboScale = %d, want %d", SwitchTurboScale, NumSwitches-1)
	}
	if DensityAnomalousO != NumDensities-1 {
		t.Errorf("DensityAnomalousO = %d, want %d", DensityAnomalousO, NumDensities-1)
	}
}

func TestParamsEpoch(t *testing.T) {
	var p Params
	p.Epoch(time.Date(2020, 6, 20, 12, 30, 15, 500_000_000, time.FixedZone("X", 3600)))

	if p.Year != 2020 || p.DOY != 172 {
		t.Errorf("year/doy = %d/%d, want 2020/172", p.Year, p.DOY)
	}
	if want := 11*3600 + 30*60 + 15.5; p.Sec != want {
		t.Errorf("sec = %v, want %v", p.Sec, want)
	}
}

func TestEvaluatorEvaluate(t *testing.T) {
	rec := &recorder{}
	ev := NewEvaluator(rec, "recorder", testLogger())

	p := Params{Year: 2020, DOY: 172, Sec: 3600, AltKm: 400, Lon: 15, F107A: 150, F107: 150,
		Ap: APArray{4, 4, 4, 4, 4, 4, 4}, Switches: AllOn()}
	res, err := ev.Evaluate(context.Background(), p)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.LST != 2.0 {
		t.Errorf("lst = %v, want 2.0", res.LST)
	}
	if res.MassDensity() != 9 {
		t.Errorf("mass density = %v, want 9", res.MassDensity())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ev.Evaluate(ctx, p); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled evaluate error = %v, want context.Canceled", err)
	}
	if rec.calls != 1 {
		t.Errorf("model calls = %d, want 1", rec.calls)
	}
}

func TestParamsSetArrays(t *testing.T) {
	var p Params
	if err := p.SetArrays([]float64{1, 2, 3, 4, 5, 6, 7}, make([]int, 24)); err != nil {
		t.Fatalf("SetArrays: %v", err)
	}
	if p.Ap != (APArray{1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("ap = %v", p.Ap)
	}

	err := p.SetArrays([]float64{1}, make([]int, 24))
	var le *LengthError
	if !errors.As(err, &le) || le.Field != "magnetic activity" || le.Got != 1 {
		t.Errorf("short ap error = %v", err)
	}
	if err := p.SetArrays(make([]float64, 7), make([]int, 3)); !errors.Is(err, ErrLength) {
		t.Errorf("short switches error = %v, want ErrLength", err)
	}
	if p.Ap[0] != 1 {
		t.Errorf("failed SetArrays modified p: %v", p.Ap)
	}
}

func TestNewEvaluatorNilLogger(t *testing.T) {
	ev := NewEvaluator(&recorder{}, "recorder", nil)
	if _, err := ev.Evaluate(context.Background(), Params{Switches: DefaultSwitches()}); err != nil {
		t.Fatalf("Evaluate with nil logger: %v", err)
	}
}
