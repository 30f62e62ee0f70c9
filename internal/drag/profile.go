// Package drag samples atmospheric density and drag acceleration along an
// SGP4 orbit.
package drag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"github.com/star/msisgo/internal/metrics"
	"github.com/star/msisgo/internal/msis"
	"github.com/star/msisgo/internal/spaceweather"
)

// IndexProvider supplies solar and geomagnetic indices for an instant.
type IndexProvider interface {
	Indices(t time.Time) (spaceweather.Indices, error)
}

// Spacecraft holds the drag-relevant properties of a vehicle.
type Spacecraft struct {
	Cd     float64 `json:"cd"`
	AreaM2 float64 `json:"area_m2"`
	MassKg float64 `json:"mass_kg"`
}

// Ballistic returns Cd*A/m in m^2/kg.
func (s Spacecraft) Ballistic() float64 {
	return s.Cd * s.AreaM2 / s.MassKg
}

// Request describes one profile run.
type Request struct {
	Line1      string
	Line2      string
	Spacecraft Spacecraft
	Start      time.Time
	Horizon    time.Duration
	Step       time.Duration
	Switches   msis.Switches
}

// NumSamples returns the number of samples the request covers.
func (r Request) NumSamples() int {
	if r.Step <= 0 {
		return 0
	}
	return int(r.Horizon/r.Step) + 1
}

// Sample is the atmosphere and drag state at one instant.
type Sample struct {
	Time        time.Time `json:"time"`
	JD          float64   `json:"jd"`
	AltKm       float64   `json:"alt_km"`
	LatDeg      float64   `json:"lat_deg"`
	LonDeg      float64   `json:"lon_deg"`
	SpeedMS     float64   `json:"speed_ms"`
	DensityKgM3 float64   `json:"density_kg_m3"`
	TempExo     float64   `json:"temp_exo_k"`
	TempLocal   float64   `json:"temp_local_k"`
	AccelMS2    float64   `json:"accel_ms2"`
}

// Config holds profiler configuration loaded from environment variables.
type Config struct {
	Workers    int // Worker pool size (default: runtime.NumCPU())
	MaxSamples int // Per-request sample budget (default: 10000)
}

// BudgetError is returned when a request exceeds the sample budget.
type BudgetError struct {
	Samples int
	Max     int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("request needs %d samples, max is %d", e.Samples, e.Max)
}

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid drag request")

// Profiler computes drag profiles.
type Profiler struct {
	eval    *msis.Evaluator
	indices IndexProvider
	config  Config
	logger  *slog.Logger
}

// NewProfiler creates a Profiler.
func NewProfiler(eval *msis.Evaluator, indices IndexProvider, config Config, logger *slog.Logger) *Profiler {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Profiler{
		eval:    eval,
		indices: indices,
		config:  config,
		logger:  logger,
	}
}

// MaxSamples returns the per-request sample budget.
func (p *Profiler) MaxSamples() int {
	return p.config.MaxSamples
}

// Profile samples [Start, Start+Horizon] every Step. The model is always
// asked for SI units so densities are kg/m^3. Samples that fail (no
// indices, SGP4 failure) are logged and skipped; order is preserved.
func (p *Profiler) Profile(ctx context.Context, req Request) ([]Sample, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	n := req.NumSamples()
	if p.config.MaxSamples > 0 && n > p.config.MaxSamples {
		return nil, &BudgetError{Samples: n, Max: p.config.MaxSamples}
	}

	orbit, err := NewOrbit(req.Line1, req.Line2)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	sw := req.Switches
	sw[msis.SwitchUnits] = 1

	start := time.Now()
	samples, errCount := p.run(ctx, orbit, req, sw, n)
	duration := time.Since(start)

	metrics.RecordDragProfile(duration, len(samples), errCount)
	p.logger.Debug("drag profile complete",
		"component", "drag",
		"samples", len(samples),
		"errors", errCount,
		"duration_ms", duration.Milliseconds(),
	)

	if err := ctx.Err(); err != nil {
		return samples, err
	}
	return samples, nil
}

func validate(req Request) error {
	switch {
	case req.Step <= 0:
		return fmt.Errorf("%w: step must be positive", ErrInvalidRequest)
	case req.Step%time.Second != 0:
		return fmt.Errorf("%w: step must be a whole number of seconds", ErrInvalidRequest)
	case req.Start.Nanosecond() != 0:
		return fmt.Errorf("%w: start must be a whole second", ErrInvalidRequest)
	case req.Horizon < 0:
		return fmt.Errorf("%w: horizon must not be negative", ErrInvalidRequest)
	case req.Spacecraft.MassKg <= 0:
		return fmt.Errorf("%w: mass must be positive", ErrInvalidRequest)
	}
	return nil
}

// sampleResult is the output of one worker job.
type sampleResult struct {
	index  int
	sample Sample
	err    error
}

// run fans sample indices out to the worker pool and gathers results in
// index order.
func (p *Profiler) run(ctx context.Context, orbit *Orbit, req Request, sw msis.Switches, n int) ([]Sample, int) {
	jobs := make(chan int, p.config.Workers*2)
	results := make(chan sampleResult, p.config.Workers*2)

	for w := 0; w < p.config.Workers; w++ {
		go func() {
			for i := range jobs {
				t := req.Start.Add(time.Duration(i) * req.Step)
				s, err := p.sampleAt(ctx, orbit, req.Spacecraft, sw, t)
				select {
				case results <- sampleResult{index: i, sample: s, err: err}:
				case <-ctx.Done():
					// Drain so the feeder can finish.
					for range jobs {
					}
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	ordered := make([]*Sample, n)
	var errCount, received int
	for received < n {
		select {
		case r := <-results:
			received++
			if r.err != nil {
				errCount++
				p.logger.Warn("drag sample failed",
					"component", "drag",
					"index", r.index,
					"error", r.err,
				)
				continue
			}
			s := r.sample
			ordered[r.index] = &s
		case <-ctx.Done():
			return compact(ordered), errCount
		}
	}
	return compact(ordered), errCount
}

func compact(ordered []*Sample) []Sample {
	out := make([]Sample, 0, len(ordered))
	for _, s := range ordered {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func (p *Profiler) sampleAt(ctx context.Context, orbit *Orbit, sc Spacecraft, sw msis.Switches, t time.Time) (Sample, error) {
	st, err := orbit.At(t)
	if err != nil {
		return Sample{}, err
	}
	idx, err := p.indices.Indices(t)
	if err != nil {
		return Sample{}, fmt.Errorf("indices at %s: %w", t.UTC().Format(time.RFC3339), err)
	}

	res, err := p.eval.Evaluate(ctx, idx.Params(t, st.AltKm, st.LatDeg, st.LonDeg, sw))
	if err != nil {
		return Sample{}, err
	}

	rho := res.MassDensity()
	return Sample{
		Time:        t.UTC(),
		JD:          julian.TimeToJD(t),
		AltKm:       st.AltKm,
		LatDeg:      st.LatDeg,
		LonDeg:      st.LonDeg,
		SpeedMS:     st.SpeedMS,
		DensityKgM3: rho,
		TempExo:     res.Temperatures[msis.TempExospheric],
		TempLocal:   res.Temperatures[msis.TempLocal],
		AccelMS2:    Acceleration(rho, st.SpeedMS, sc),
	}, nil
}

// Acceleration returns the drag deceleration magnitude 0.5*rho*v^2*Cd*A/m
// for rho in kg/m^3 and v in m/s.
func Acceleration(rho, speed float64, sc Spacecraft) float64 {
	return 0.5 * rho * speed * speed * sc.Ballistic()
}
