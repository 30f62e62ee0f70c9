package msis

// LocalSolarTime returns the local apparent solar time in hours for a UT
// second-of-day and a geodetic longitude in degrees. The result is not
// wrapped into [0, 24).
func LocalSolarTime(sec, glong float64) float64 {
	return sec/3600 + glong/15
}

// Evaluate runs one model evaluation from flat arguments and writes the 9
// densities into d and the 2 temperatures into t.
//
// The input, flag and output records are allocated per call, so concurrent
// calls never share state. Nothing is validated or clamped: out-of-range
// values reach the model unchanged and whatever the model returns is
// copied out unchanged. d and t are only written after the model returns.
func Evaluate(m Model, year, doy int, sec, alt, glat, glong, f107a, f107 float64,
	ap APArray, sw Switches, d *[NumDensities]float64, t *[NumTemps]float64) {
	var (
		apa   APArray
		flags Flags
		out   Output
	)

	apa = ap
	in := Input{
		Year:  year,
		DOY:   doy,
		Sec:   sec,
		Alt:   alt,
		GLat:  glat,
		GLong: glong,
		LST:   LocalSolarTime(sec, glong),
		F107A: f107a,
		F107:  f107,
		Ap:    ap[0],
		APA:   &apa,
	}
	flags.Switches = sw

	m.GTD7D(&in, &flags, &out)

	*d = out.D
	*t = out.T
}

// EvaluateSlices is the slice form of Evaluate. It returns a *LengthError,
// before touching the model or the outputs, when ap is not 7 long, sw is
// not 24 long, d is not 9 long or t is not 2 long.
func EvaluateSlices(m Model, year, doy int, sec, alt, glat, glong, f107a, f107 float64,
	ap []float64, sw []int, d []float64, t []float64) error {
	if err := checkLen("magnetic activity", len(ap), NumAP); err != nil {
		return err
	}
	if err := checkLen("switches", len(sw), NumSwitches); err != nil {
		return err
	}
	if err := checkLen("densities", len(d), NumDensities); err != nil {
		return err
	}
	if err := checkLen("temperatures", len(t), NumTemps); err != nil {
		return err
	}

	var (
		apa  APArray
		swa  Switches
		dOut [NumDensities]float64
		tOut [NumTemps]float64
	)
	copy(apa[:], ap)
	copy(swa[:], sw)

	Evaluate(m, year, doy, sec, alt, glat, glong, f107a, f107, apa, swa, &dOut, &tOut)

	copy(d, dOut[:])
	copy(t, tOut[:])
	return nil
}
