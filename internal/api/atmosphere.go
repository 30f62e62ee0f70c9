package api

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/star/msisgo/internal/msis"
	"github.com/star/msisgo/internal/spaceweather"
)

type atmosphereResponse struct {
	Model string `json:"model"`
	Units string `json:"units"`
	msis.Result
	Indices *spaceweather.Indices `json:"indices,omitempty"`
}

// switchesParam returns the "switches" list, or the standard set when the
// parameter is absent.
func switchesParam(q url.Values) ([]int, error) {
	v := q.Get("switches")
	if v == "" {
		sw := msis.DefaultSwitches()
		return sw[:], nil
	}
	return intList(v, "switches")
}

// atmosphereHandler evaluates the model from explicit inputs:
// year, doy, sec, alt, lat, lon, f107a, f107, ap (7 values) and optionally
// switches (24 values).
func atmosphereHandler(eval *msis.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var p msis.Params
		var err error

		if p.Year, err = intParam(q, "year"); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if p.DOY, err = intParam(q, "doy"); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"sec", &p.Sec},
			{"alt", &p.AltKm},
			{"lat", &p.Lat},
			{"lon", &p.Lon},
			{"f107a", &p.F107A},
			{"f107", &p.F107},
		} {
			if *f.dst, err = floatParam(q, f.name); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		apStr := q.Get("ap")
		if apStr == "" {
			writeError(w, http.StatusBadRequest, `missing parameter "ap"`)
			return
		}
		ap, err := floatList(apStr, "ap")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sw, err := switchesParam(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := p.SetArrays(ap, sw); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := eval.Evaluate(r.Context(), p)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, atmosphereResponse{
			Model:  eval.Name(),
			Units:  unitsName(p.Switches[msis.SwitchUnits]),
			Result: res,
		})
	}
}

// atmosphereAtHandler evaluates the model at a time and place, taking the
// indices from the loaded space weather dataset. Parameters: time (RFC3339,
// default now), alt, lat, lon and optionally switches.
func atmosphereAtHandler(eval *msis.Evaluator, store *spaceweather.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		t := time.Now().UTC()
		if v := q.Get("time"); v != "" {
			parsed, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid time: must be RFC3339")
				return
			}
			t = parsed.UTC()
		}

		var alt, lat, lon float64
		var err error
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"alt", &alt},
			{"lat", &lat},
			{"lon", &lon},
		} {
			if *f.dst, err = floatParam(q, f.name); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		swList, err := switchesParam(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var sw msis.Switches
		if len(swList) != msis.NumSwitches {
			writeError(w, http.StatusBadRequest,
				(&msis.LengthError{Field: "switches", Got: len(swList), Want: msis.NumSwitches}).Error())
			return
		}
		copy(sw[:], swList)

		idx, err := store.Indices(t)
		switch {
		case errors.Is(err, spaceweather.ErrNoDataset):
			writeError(w, http.StatusServiceUnavailable, "space weather data not loaded")
			return
		case errors.Is(err, spaceweather.ErrNoData):
			writeError(w, http.StatusNotFound, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		res, err := eval.Evaluate(r.Context(), idx.Params(t, alt, lat, lon, sw))
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, atmosphereResponse{
			Model:   eval.Name(),
			Units:   unitsName(sw[msis.SwitchUnits]),
			Result:  res,
			Indices: &idx,
		})
	}
}
