// swx-ingest - CelesTrak space weather CSV ingestion into ClickHouse
//
// Reads SW-All.csv style files given as arguments (plain or .gz), or
// downloads the current file when no arguments are given, and archives
// the records with a native columnar insert.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/swx-ingest ./cmd/swx-ingest

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/star/msisgo/internal/spaceweather"
	"github.com/star/msisgo/internal/spaceweather/archive"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

func main() {
	chHost := flag.String("ch-host", "127.0.0.1:9000", "ClickHouse address")
	chDB := flag.String("ch-db", "msisgo", "ClickHouse database")
	chTable := flag.String("ch-table", "space_weather", "ClickHouse table")
	chUser := flag.String("ch-user", "default", "ClickHouse user")
	sourceURL := flag.String("url", "", "download URL when no files are given (default: CelesTrak SW-All.csv)")
	since := flag.String("since", "", "only archive records on or after this date (YYYY-MM-DD)")
	truncate := flag.Bool("truncate", false, "Truncate table before insert")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "swx-ingest v%s - space weather archive loader\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: swx-ingest [flags] [file.csv[.gz] ...]\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var cutoff time.Time
	if *since != "" {
		t, err := time.Parse("2006-01-02", *since)
		if err != nil {
			logger.Error("invalid -since", "value", *since, "error", err)
			os.Exit(2)
		}
		cutoff = t
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := archive.Config{
		Addr:     *chHost,
		Database: *chDB,
		Table:    *chTable,
		User:     *chUser,
		Password: os.Getenv("MSISGO_CLICKHOUSE_PASSWORD"),
	}

	logger.Info("connecting to clickhouse", "addr", cfg.Addr, "table", cfg.TableFQN(), "version", Version)
	w, err := archive.Dial(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect failed", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := w.EnsureTable(ctx); err != nil {
		logger.Error("table setup failed", "error", err)
		os.Exit(1)
	}
	if *truncate {
		logger.Info("truncating table", "table", cfg.TableFQN())
		if err := w.Truncate(ctx); err != nil {
			logger.Warn("truncate failed", "error", err)
		}
	}

	start := time.Now()
	var total int
	sources := flag.Args()
	if len(sources) == 0 {
		fetcher := spaceweather.NewFetcher(*sourceURL, logger)
		data, err := fetcher.Fetch(ctx)
		if err != nil {
			logger.Error("download failed", "error", err)
			os.Exit(1)
		}
		n, err := ingest(ctx, w, bytes.NewReader(data), fetcher.SourceURL(), cutoff, logger)
		if err != nil {
			logger.Error("ingest failed", "source", fetcher.SourceURL(), "error", err)
			os.Exit(1)
		}
		total += n
	}
	for _, path := range sources {
		n, err := ingestFile(ctx, w, path, cutoff, logger)
		if err != nil {
			logger.Error("ingest failed", "file", path, "error", err)
			continue
		}
		total += n
	}

	elapsed := time.Since(start)
	logger.Info("ingest complete",
		"records", total,
		"duration_ms", elapsed.Milliseconds(),
		"records_per_sec", float64(total)/elapsed.Seconds(),
	)
}

func ingestFile(ctx context.Context, w *archive.Writer, path string, cutoff time.Time, logger *slog.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	return ingest(ctx, w, r, filepath.Base(path), cutoff, logger)
}

func ingest(ctx context.Context, w *archive.Writer, r io.Reader, source string, cutoff time.Time, logger *slog.Logger) (int, error) {
	records, err := spaceweather.Parse(r, logger)
	if err != nil {
		return 0, err
	}
	records = filterSince(records, cutoff)
	logger.Info("parsed space weather", "source", source, "records", len(records))

	if err := w.Insert(ctx, records, source); err != nil {
		return 0, err
	}
	return len(records), nil
}

// filterSince keeps records dated on or after cutoff. A zero cutoff keeps
// everything.
func filterSince(records []spaceweather.Record, cutoff time.Time) []spaceweather.Record {
	if cutoff.IsZero() {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}
