package spaceweather

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/star/msisgo/internal/metrics"
)

// ErrEmpty is returned when a source parses to zero records.
var ErrEmpty = errors.New("spaceweather: no records parsed")

// Install replaces the store's dataset and updates the dataset gauges.
func (s *Store) Install(ds *Dataset) {
	s.Set(ds)
	metrics.SetSpaceWeatherRecords(len(ds.Records))
	metrics.SetSpaceWeatherAge(time.Since(ds.FetchedAt).Seconds())
}

// LoadCached parses the newest cache file into a dataset.
func LoadCached(c *Cache, logger *slog.Logger) (*Dataset, error) {
	data, ts, err := c.LoadLatest()
	if err != nil {
		return nil, err
	}
	return parseDataset(data, "cache", ts, logger)
}

// Refresh downloads, parses and installs a new dataset, then writes the raw
// body to the cache. A cache write failure is logged, not returned. The
// store's fetch mutex is held for the duration.
func Refresh(ctx context.Context, f *Fetcher, c *Cache, s *Store, logger *slog.Logger) (*Dataset, error) {
	s.Lock()
	defer s.Unlock()

	data, err := f.Fetch(ctx)
	if err != nil {
		metrics.IncSpaceWeatherFetch("error")
		return nil, err
	}

	now := time.Now().UTC()
	ds, err := parseDataset(data, f.SourceURL(), now, logger)
	if err != nil {
		metrics.IncSpaceWeatherFetch("error")
		return nil, err
	}
	metrics.IncSpaceWeatherFetch("ok")
	s.Install(ds)

	if c != nil {
		if err := c.Write(data, now); err != nil {
			logger.Warn("failed to write space weather cache",
				"component", "spaceweather",
				"error", err,
			)
		}
	}

	logger.Info("space weather refreshed",
		"component", "spaceweather",
		"source", ds.Source,
		"records", len(ds.Records),
		"date_min", ds.Range.Min.Format("2006-01-02"),
		"date_max", ds.Range.Max.Format("2006-01-02"),
	)
	return ds, nil
}

func parseDataset(data []byte, source string, ts time.Time, logger *slog.Logger) (*Dataset, error) {
	records, err := Parse(bytes.NewReader(data), logger)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmpty)
	}
	return NewDataset(source, ts, records), nil
}
