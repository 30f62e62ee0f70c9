package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/star/msisgo/internal/spaceweather"
)

// fetchTimeout bounds a manual refresh, independent of the client.
const fetchTimeout = 60 * time.Second

type metadataResponse struct {
	Loaded       bool       `json:"loaded"`
	Source       string     `json:"source,omitempty"`
	FetchedAt    *time.Time `json:"fetched_at,omitempty"`
	AgeSeconds   float64    `json:"age_seconds"`
	Stale        bool       `json:"stale"`
	Records      int        `json:"records"`
	DateMin      string     `json:"date_min,omitempty"`
	DateMax      string     `json:"date_max,omitempty"`
	FetchEnabled bool       `json:"fetch_enabled"`
}

func buildMetadata(store *spaceweather.Store, cfg SpaceWeatherConfig) metadataResponse {
	resp := metadataResponse{AgeSeconds: -1, FetchEnabled: cfg.EnableFetch}
	ds := store.Get()
	if ds == nil {
		return resp
	}
	fetchedAt := ds.FetchedAt.UTC()
	resp.Loaded = true
	resp.Source = ds.Source
	resp.FetchedAt = &fetchedAt
	resp.AgeSeconds = store.AgeSeconds()
	resp.Stale = cfg.MaxAge > 0 && resp.AgeSeconds > cfg.MaxAge.Seconds()
	resp.Records = len(ds.Records)
	resp.DateMin = ds.Range.Min.Format("2006-01-02")
	resp.DateMax = ds.Range.Max.Format("2006-01-02")
	return resp
}

func metadataHandler(store *spaceweather.Store, cfg SpaceWeatherConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, buildMetadata(store, cfg))
	}
}

// fetchHandler downloads a fresh dataset. Concurrent calls queue on the
// store's fetch mutex.
func fetchHandler(logger *slog.Logger, deps Deps, cfg SpaceWeatherConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.EnableFetch || deps.Fetcher == nil {
			writeError(w, http.StatusForbidden, "space weather fetch is disabled")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
		defer cancel()

		if _, err := spaceweather.Refresh(ctx, deps.Fetcher, deps.Cache, deps.Store, logger); err != nil {
			logger.Error("space weather fetch failed",
				"component", "api",
				"request_id", RequestID(r.Context()),
				"error", err,
			)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, buildMetadata(deps.Store, cfg))
	}
}
