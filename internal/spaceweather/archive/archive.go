// Package archive stores space weather records in ClickHouse.
//
// Writes go through ch-go's native columnar protocol; reads use the
// clickhouse-go driver.
package archive

import (
	"fmt"
	"time"

	"github.com/star/msisgo/internal/spaceweather"
)

// Config locates the archive table.
type Config struct {
	Addr     string
	Database string
	Table    string
	User     string
	Password string
}

// TableFQN returns database.table.
func (c Config) TableFQN() string {
	return fmt.Sprintf("%s.%s", c.Database, c.Table)
}

const createTable = `CREATE TABLE IF NOT EXISTS %s (
	date              Date32,
	bsrn              Int32,
	nd                Int32,
	kp                Array(Float64),
	kp_sum            Float64,
	ap                Array(Float64),
	ap_avg            Float64,
	cp                Float64,
	c9                Int32,
	isn               Int32,
	f107_obs          Float64,
	f107_adj          Float64,
	f107_data_type    String,
	f107_obs_center81 Float64,
	f107_obs_last81   Float64,
	f107_adj_center81 Float64,
	f107_adj_last81   Float64,
	source            String,
	ingested_at       DateTime
) ENGINE = ReplacingMergeTree(ingested_at)
ORDER BY date`

const selectColumns = "date, bsrn, nd, kp, kp_sum, ap, ap_avg, cp, c9, isn, f107_obs, f107_adj, " +
	"f107_data_type, f107_obs_center81, f107_obs_last81, f107_adj_center81, f107_adj_last81"

// row mirrors one table row as scanned by the reader.
type row struct {
	Date            time.Time
	BSRN            int32
	ND              int32
	Kp              []float64
	KpSum           float64
	Ap              []float64
	ApAvg           float64
	Cp              float64
	C9              int32
	ISN             int32
	F107Obs         float64
	F107Adj         float64
	F107DataType    string
	F107ObsCenter81 float64
	F107ObsLast81   float64
	F107AdjCenter81 float64
	F107AdjLast81   float64
}

func (r *row) dest() []any {
	return []any{
		&r.Date, &r.BSRN, &r.ND, &r.Kp, &r.KpSum, &r.Ap, &r.ApAvg, &r.Cp, &r.C9, &r.ISN,
		&r.F107Obs, &r.F107Adj, &r.F107DataType, &r.F107ObsCenter81, &r.F107ObsLast81,
		&r.F107AdjCenter81, &r.F107AdjLast81,
	}
}

func (r *row) record() spaceweather.Record {
	rec := spaceweather.Record{
		Date:            r.Date.UTC(),
		BSRN:            int(r.BSRN),
		ND:              int(r.ND),
		KpSum:           r.KpSum,
		ApAvg:           r.ApAvg,
		Cp:              r.Cp,
		C9:              int(r.C9),
		ISN:             int(r.ISN),
		F107Obs:         r.F107Obs,
		F107Adj:         r.F107Adj,
		F107DataType:    r.F107DataType,
		F107ObsCenter81: r.F107ObsCenter81,
		F107ObsLast81:   r.F107ObsLast81,
		F107AdjCenter81: r.F107AdjCenter81,
		F107AdjLast81:   r.F107AdjLast81,
	}
	copy(rec.Kp[:], r.Kp)
	copy(rec.Ap[:], r.Ap)
	return rec
}
