// Package catalog 基于sqlite的遥感影像观测目录
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ctessum/geom"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wgdzlh/nidem/log"
)

const (
	driverName = "sqlite"

	schema = `
CREATE TABLE IF NOT EXISTS acquisitions (
	id          TEXT PRIMARY KEY,
	product     TEXT NOT NULL,
	center_time INTEGER NOT NULL,
	min_x       REAL NOT NULL,
	min_y       REAL NOT NULL,
	max_x       REAL NOT NULL,
	max_y       REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_acquisitions_product_time ON acquisitions (product, center_time);
`
)

var (
	ErrInvalidRange = errors.New("catalog: time range end before start")
)

// 时间范围[Start, End)
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// 一次影像获取，Footprint为EPSG:4326范围
type Acquisition struct {
	ID        string
	Product   string
	Time      time.Time
	Footprint geom.Bounds
}

// 获取范围的中心经度
func (a Acquisition) CenterLon() float64 {
	return (a.Footprint.Min.X + a.Footprint.Max.X) / 2
}

type DB struct {
	db     *sql.DB
	logTag string
}

func Open(path string) (d *DB, err error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		err = fmt.Errorf("catalog: init schema: %w", err)
		return
	}
	d = &DB{db: db, logTag: "Catalog:"}
	log.Info(d.logTag+"opened", zap.String("path", path))
	return
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Add 批量写入，ID为空时自动生成
func (d *DB) Add(ctx context.Context, acqs ...Acquisition) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO acquisitions
		(id, product, center_time, min_x, min_y, max_x, max_y) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return
	}
	defer stmt.Close()
	for _, a := range acqs {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		b := a.Footprint
		if _, err = stmt.ExecContext(ctx, a.ID, a.Product, a.Time.UnixNano(), b.Min.X, b.Min.Y, b.Max.X, b.Max.Y); err != nil {
			log.Error(d.logTag+"insert acquisition failed", zap.String("id", a.ID), zap.Error(err))
			return
		}
	}
	if err = tx.Commit(); err != nil {
		return
	}
	log.Debug(d.logTag+"acquisitions added", zap.Int("count", len(acqs)))
	return
}

// Find 查询与范围相交且时间位于[Start, End)内的获取记录，按时间升序
func (d *DB) Find(ctx context.Context, product string, tr TimeRange, b geom.Bounds) (rets []Acquisition, err error) {
	if tr.End.Before(tr.Start) {
		err = ErrInvalidRange
		return
	}
	rows, err := d.db.QueryContext(ctx, `SELECT id, product, center_time, min_x, min_y, max_x, max_y
		FROM acquisitions
		WHERE product = ? AND center_time >= ? AND center_time < ?
			AND min_x <= ? AND max_x >= ? AND min_y <= ? AND max_y >= ?
		ORDER BY center_time, id`,
		product, tr.Start.UnixNano(), tr.End.UnixNano(), b.Max.X, b.Min.X, b.Max.Y, b.Min.Y)
	if err != nil {
		log.Error(d.logTag+"query acquisitions failed", zap.String("product", product), zap.Error(err))
		return
	}
	defer rows.Close()
	for rows.Next() {
		var (
			a  Acquisition
			ns int64
		)
		if err = rows.Scan(&a.ID, &a.Product, &ns, &a.Footprint.Min.X, &a.Footprint.Min.Y, &a.Footprint.Max.X, &a.Footprint.Max.Y); err != nil {
			return
		}
		a.Time = time.Unix(0, ns).UTC()
		rets = append(rets, a)
	}
	err = rows.Err()
	log.Debug(d.logTag+"acquisitions found", zap.String("product", product), zap.Int("count", len(rets)))
	return
}
