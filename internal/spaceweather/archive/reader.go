package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/star/msisgo/internal/spaceweather"
)

// Reader loads archived records.
type Reader struct {
	conn   driver.Conn
	cfg    Config
	logger *slog.Logger
}

// Open connects a Reader and pings the server.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Reader, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open %s: %w", cfg.Addr, err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", cfg.Addr, err)
	}
	return &Reader{conn: conn, cfg: cfg, logger: logger}, nil
}

// LoadRange returns records with from <= date <= to, oldest first.
func (r *Reader) LoadRange(ctx context.Context, from, to time.Time) ([]spaceweather.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE date BETWEEN ? AND ? ORDER BY date", selectColumns, r.cfg.TableFQN())

	rows, err := r.conn.Query(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", r.cfg.TableFQN(), err)
	}
	defer rows.Close()

	var records []spaceweather.Record
	for rows.Next() {
		var row row
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", r.cfg.TableFQN(), err)
		}
		records = append(records, row.record())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.cfg.TableFQN(), err)
	}

	r.logger.Info("space weather loaded from archive",
		"component", "archive",
		"table", r.cfg.TableFQN(),
		"records", len(records),
	)
	return records, nil
}

// Close closes the connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}
