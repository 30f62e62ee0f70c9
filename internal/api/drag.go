package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/star/msisgo/internal/drag"
	"github.com/star/msisgo/internal/httputil"
	"github.com/star/msisgo/internal/msis"
)

// maxDragBody bounds the JSON request body.
const maxDragBody = 64 << 10

// defaultCd is used when the request omits a drag coefficient.
const defaultCd = 2.2

type dragRequest struct {
	Line1    string  `json:"line1"`
	Line2    string  `json:"line2"`
	Cd       float64 `json:"cd"`
	AreaM2   float64 `json:"area_m2"`
	MassKg   float64 `json:"mass_kg"`
	Start    string  `json:"start"` // RFC3339, default now
	HorizonS float64 `json:"horizon_s"`
	StepS    float64 `json:"step_s"`
	Switches []int   `json:"switches,omitempty"`
}

type dragResponse struct {
	Model     string        `json:"model"`
	Ballistic float64       `json:"ballistic_m2_kg"`
	Count     int           `json:"count"`
	Samples   []drag.Sample `json:"samples"`
}

// toRequest converts the wire form. It fails only on a malformed start
// time or switch list; everything else is validated by the profiler.
func (dr dragRequest) toRequest(now time.Time) (drag.Request, error) {
	req := drag.Request{
		Line1: dr.Line1,
		Line2: dr.Line2,
		Spacecraft: drag.Spacecraft{
			Cd:     dr.Cd,
			AreaM2: dr.AreaM2,
			MassKg: dr.MassKg,
		},
		Start:    now,
		Horizon:  time.Duration(dr.HorizonS * float64(time.Second)),
		Step:     time.Duration(dr.StepS * float64(time.Second)),
		Switches: msis.DefaultSwitches(),
	}
	if req.Spacecraft.Cd == 0 {
		req.Spacecraft.Cd = defaultCd
	}
	if dr.Start != "" {
		t, err := time.Parse(time.RFC3339, dr.Start)
		if err != nil {
			return req, errors.New("invalid start: must be RFC3339")
		}
		req.Start = t.UTC()
	}
	if dr.Switches != nil {
		if len(dr.Switches) != msis.NumSwitches {
			return req, &msis.LengthError{Field: "switches", Got: len(dr.Switches), Want: msis.NumSwitches}
		}
		copy(req.Switches[:], dr.Switches)
	}
	return req, nil
}

func dragHandler(logger *slog.Logger, profiler *drag.Profiler, model string, limiter *clientLimiter, trustProxy bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := httputil.ClientIP(r, trustProxy)
		if !limiter.acquire(ip) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many concurrent drag requests")
			return
		}
		defer limiter.release(ip)

		var body dragRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDragBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}

		req, err := body.toRequest(time.Now().UTC().Truncate(time.Second))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		samples, err := profiler.Profile(r.Context(), req)
		var budget *drag.BudgetError
		switch {
		case errors.As(err, &budget):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":       budget.Error(),
				"samples":     budget.Samples,
				"max_samples": budget.Max,
			})
			return
		case errors.Is(err, drag.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			logger.Warn("drag profile interrupted",
				"component", "api",
				"request_id", RequestID(r.Context()),
				"samples", len(samples),
				"error", err,
			)
			writeError(w, http.StatusServiceUnavailable, "request cancelled")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if samples == nil {
			samples = []drag.Sample{}
		}
		writeJSON(w, http.StatusOK, dragResponse{
			Model:     model,
			Ballistic: req.Spacecraft.Ballistic(),
			Count:     len(samples),
			Samples:   samples,
		})
	}
}
