package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/ch-go"
	"github.com/ClickHouse/ch-go/proto"

	"github.com/star/msisgo/internal/spaceweather"
)

// batch holds column data for a native insert.
type batch struct {
	date            *proto.ColDate32
	bsrn            *proto.ColInt32
	nd              *proto.ColInt32
	kp              *proto.ColArr[float64]
	kpSum           *proto.ColFloat64
	ap              *proto.ColArr[float64]
	apAvg           *proto.ColFloat64
	cp              *proto.ColFloat64
	c9              *proto.ColInt32
	isn             *proto.ColInt32
	f107Obs         *proto.ColFloat64
	f107Adj         *proto.ColFloat64
	f107DataType    *proto.ColStr
	f107ObsCenter81 *proto.ColFloat64
	f107ObsLast81   *proto.ColFloat64
	f107AdjCenter81 *proto.ColFloat64
	f107AdjLast81   *proto.ColFloat64
	source          *proto.ColStr
	ingestedAt      *proto.ColDateTime
}

func newBatch() *batch {
	return &batch{
		date:            new(proto.ColDate32),
		bsrn:            new(proto.ColInt32),
		nd:              new(proto.ColInt32),
		kp:              proto.NewArray[float64](new(proto.ColFloat64)),
		kpSum:           new(proto.ColFloat64),
		ap:              proto.NewArray[float64](new(proto.ColFloat64)),
		apAvg:           new(proto.ColFloat64),
		cp:              new(proto.ColFloat64),
		c9:              new(proto.ColInt32),
		isn:             new(proto.ColInt32),
		f107Obs:         new(proto.ColFloat64),
		f107Adj:         new(proto.ColFloat64),
		f107DataType:    new(proto.ColStr),
		f107ObsCenter81: new(proto.ColFloat64),
		f107ObsLast81:   new(proto.ColFloat64),
		f107AdjCenter81: new(proto.ColFloat64),
		f107AdjLast81:   new(proto.ColFloat64),
		source:          new(proto.ColStr),
		ingestedAt:      new(proto.ColDateTime),
	}
}

func (b *batch) add(r spaceweather.Record, source string, ingestedAt time.Time) {
	b.date.Append(r.Date)
	b.bsrn.Append(int32(r.BSRN))
	b.nd.Append(int32(r.ND))
	b.kp.Append(r.Kp[:])
	b.kpSum.Append(r.KpSum)
	b.ap.Append(r.Ap[:])
	b.apAvg.Append(r.ApAvg)
	b.cp.Append(r.Cp)
	b.c9.Append(int32(r.C9))
	b.isn.Append(int32(r.ISN))
	b.f107Obs.Append(r.F107Obs)
	b.f107Adj.Append(r.F107Adj)
	b.f107DataType.Append(r.F107DataType)
	b.f107ObsCenter81.Append(r.F107ObsCenter81)
	b.f107ObsLast81.Append(r.F107ObsLast81)
	b.f107AdjCenter81.Append(r.F107AdjCenter81)
	b.f107AdjLast81.Append(r.F107AdjLast81)
	b.source.Append(source)
	b.ingestedAt.Append(ingestedAt)
}

func (b *batch) rows() int {
	return b.date.Rows()
}

func (b *batch) input() proto.Input {
	return proto.Input{
		{Name: "date", Data: b.date},
		{Name: "bsrn", Data: b.bsrn},
		{Name: "nd", Data: b.nd},
		{Name: "kp", Data: b.kp},
		{Name: "kp_sum", Data: b.kpSum},
		{Name: "ap", Data: b.ap},
		{Name: "ap_avg", Data: b.apAvg},
		{Name: "cp", Data: b.cp},
		{Name: "c9", Data: b.c9},
		{Name: "isn", Data: b.isn},
		{Name: "f107_obs", Data: b.f107Obs},
		{Name: "f107_adj", Data: b.f107Adj},
		{Name: "f107_data_type", Data: b.f107DataType},
		{Name: "f107_obs_center81", Data: b.f107ObsCenter81},
		{Name: "f107_obs_last81", Data: b.f107ObsLast81},
		{Name: "f107_adj_center81", Data: b.f107AdjCenter81},
		{Name: "f107_adj_last81", Data: b.f107AdjLast81},
		{Name: "source", Data: b.source},
		{Name: "ingested_at", Data: b.ingestedAt},
	}
}

func (b *batch) insertQuery(tableFQN string) string {
	return fmt.Sprintf("INSERT INTO %s (date, bsrn, nd, kp, kp_sum, ap, ap_avg, cp, c9, isn, f107_obs, f107_adj, "+
		"f107_data_type, f107_obs_center81, f107_obs_last81, f107_adj_center81, f107_adj_last81, source, ingested_at) VALUES", tableFQN)
}

// Writer inserts records over the native protocol.
type Writer struct {
	conn   *ch.Client
	cfg    Config
	logger *slog.Logger
}

// Dial connects a Writer.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Writer, error) {
	conn, err := ch.Dial(ctx, ch.Options{
		Address:     cfg.Addr,
		Database:    cfg.Database,
		User:        cfg.User,
		Password:    cfg.Password,
		Compression: ch.CompressionLZ4,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse dial %s: %w", cfg.Addr, err)
	}
	return &Writer{conn: conn, cfg: cfg, logger: logger}, nil
}

// EnsureTable creates the archive table if needed.
func (w *Writer) EnsureTable(ctx context.Context) error {
	if err := w.conn.Do(ctx, ch.Query{Body: fmt.Sprintf(createTable, w.cfg.TableFQN())}); err != nil {
		return fmt.Errorf("creating table %s: %w", w.cfg.TableFQN(), err)
	}
	return nil
}

// Truncate empties the archive table.
func (w *Writer) Truncate(ctx context.Context) error {
	if err := w.conn.Do(ctx, ch.Query{Body: fmt.Sprintf("TRUNCATE TABLE %s", w.cfg.TableFQN())}); err != nil {
		return fmt.Errorf("truncating table %s: %w", w.cfg.TableFQN(), err)
	}
	return nil
}

// Insert writes records in one batch tagged with source.
func (w *Writer) Insert(ctx context.Context, records []spaceweather.Record, source string) error {
	if len(records) == 0 {
		return nil
	}

	b := newBatch()
	now := time.Now().UTC()
	for _, r := range records {
		b.add(r, source, now)
	}

	start := time.Now()
	if err := w.conn.Do(ctx, ch.Query{
		Body:  b.insertQuery(w.cfg.TableFQN()),
		Input: b.input(),
	}); err != nil {
		return fmt.Errorf("inserting %d rows into %s: %w", b.rows(), w.cfg.TableFQN(), err)
	}

	w.logger.Info("space weather archived",
		"component", "archive",
		"table", w.cfg.TableFQN(),
		"rows", b.rows(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Close closes the connection.
func (w *Writer) Close() error {
	return w.conn.Close()
}
