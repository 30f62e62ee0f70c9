package msis

import (
	"context"
	"log/slog"
	"time"

	"github.com/star/msisgo/internal/metrics"
)

// Params is the struct form of the flat Evaluate arguments.
type Params struct {
	Year     int      `json:"year"`
	DOY      int      `json:"doy"`
	Sec      float64  `json:"sec"`
	AltKm    float64  `json:"alt_km"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	F107A    float64  `json:"f107a"`
	F107     float64  `json:"f107"`
	Ap       APArray  `json:"ap"`
	Switches Switches `json:"switches"`
}

// Epoch splits a UTC instant into the year, day-of-year and second-of-day
// fields of p.
func (p *Params) Epoch(t time.Time) {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	p.Year = t.Year()
	p.DOY = t.YearDay()
	p.Sec = t.Sub(midnight).Seconds()
}

// Result holds one evaluation's outputs.
type Result struct {
	Densities    [NumDensities]float64 `json:"densities"`
	Temperatures [NumTemps]float64     `json:"temperatures"`
	LST          float64               `json:"lst"`
}

// MassDensity returns the total mass density.
func (r Result) MassDensity() float64 {
	return r.Densities[DensityMass]
}

// Evaluator binds a Model to a name for logging and metrics. It holds no
// per-call state and is safe for concurrent use whenever its Model is.
type Evaluator struct {
	model  Model
	name   string
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator for the named model. A nil logger
// means slog.Default().
func NewEvaluator(model Model, name string, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{model: model, name: name, logger: logger}
}

// Name returns the model name.
func (e *Evaluator) Name() string {
	return e.name
}

// Evaluate runs the model for p. The only error is ctx's, checked before
// the model is called; the call itself is not interruptible.
func (e *Evaluator) Evaluate(ctx context.Context, p Params) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var res Result
	start := time.Now()
	Evaluate(e.model, p.Year, p.DOY, p.Sec, p.AltKm, p.Lat, p.Lon, p.F107A, p.F107,
		p.Ap, p.Switches, &res.Densities, &res.Temperatures)
	duration := time.Since(start)
	res.LST = LocalSolarTime(p.Sec, p.Lon)

	metrics.ObserveEvaluation(e.name, duration)

	e.logger.Debug("msis evaluation",
		"component", "msis",
		"model", e.name,
		"alt_km", p.AltKm,
		"mass_density", res.MassDensity(),
		"duration_us", duration.Microseconds(),
	)

	return res, nil
}

// SetArrays copies slice-form magnetic activity and switch values into p.
// The lengths are checked the same way EvaluateSlices checks them.
func (p *Params) SetArrays(ap []float64, sw []int) error {
	if err := checkLen("magnetic activity", len(ap), NumAP); err != nil {
		return err
	}
	if err := checkLen("switches", len(sw), NumSwitches); err != nil {
		return err
	}
	copy(p.Ap[:], ap)
	copy(p.Switches[:], sw)
	return nil
}
