package xstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

// timeLayout 定宽 ISO-8601 UTC，字符串比较与时间先后一致。
const timeLayout = "2006-01-02T15:04:05.000000Z"

// record 对应 data 表的一行。
type record struct {
	Key       string  `gorm:"column:key;primaryKey"`
	Tag       *string `gorm:"column:tag;index"`
	Value     []byte  `gorm:"column:value"`
	Timestamp string  `gorm:"column:timestamp;index"`
}

func (record) TableName() string { return "data" }

// SQLite 是单文件 SQLite 存储。
// 只使用一个连接，每个操作在独立事务中执行并立即提交。
type SQLite struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	opts   *options
	log    xlog.Logger
	closed atomic.Bool
}

var (
	_ Store     = (*SQLite)(nil)
	_ Inspector = (*SQLite)(nil)
)

// NewSQLite 打开（必要时创建）SQLite 数据库文件。path 为 ":memory:" 时使用内存库。
func NewSQLite(path string, opts ...Option) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	o := applyOptions(opts)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("xstore: create data dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("xstore: open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("xstore: sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, errors.Join(fmt.Errorf("xstore: migrate: %w", err), sqlDB.Close())
	}

	return &SQLite{
		db:    db,
		sqlDB: sqlDB,
		opts:  o,
		log:   o.logger.With(xlog.Component("xstore.sqlite")),
	}, nil
}

// tx 在事务中执行 fn，SQLITE_BUSY/LOCKED 时按配置重试。
func (s *SQLite) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return retry.New(
		retry.Context(ctx),
		retry.Attempts(s.opts.busyAttempts),
		retry.Delay(s.opts.busyDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isBusy),
		retry.OnRetry(func(n uint, err error) {
			s.log.Debug(ctx, "sqlite busy, retrying", slog.Uint64("attempt", uint64(n)), xlog.Err(err))
		}),
	).Do(func() error {
		return s.db.WithContext(ctx).Transaction(fn)
	})
}

func isBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

func keyIs(key string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: "key"}, Value: key}
}

func tagIs(tag string) clause.Expression {
	if tag == "" {
		return clause.Eq{Column: clause.Column{Name: "tag"}, Value: nil}
	}
	return clause.Eq{Column: clause.Column{Name: "tag"}, Value: tag}
}

func (s *SQLite) Store(ctx context.Context, key string, value []byte, tag string) error {
	rec := record{
		Key:       key,
		Value:     value,
		Timestamp: stamp(s.opts.now).Format(timeLayout),
	}
	if tag != "" {
		rec.Tag = &tag
	}
	if rec.Value == nil {
		rec.Value = []byte{}
	}
	return s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.Insert{Modifier: "OR REPLACE"}).Create(&rec).Error
	})
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var rec record
	found := false
	err := s.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Select("value").Where(keyIs(key)).Limit(1).Find(&rec)
		found = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return nil, false, err
	}
	return rec.Value, found, nil
}

func (s *SQLite) Inspect(ctx context.Context, key string) (Entry, bool, error) {
	var rec record
	found := false
	err := s.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Where(keyIs(key)).Limit(1).Find(&rec)
		found = res.RowsAffected > 0
		return res.Error
	})
	if err != nil || !found {
		return Entry{}, false, err
	}
	e := Entry{Key: rec.Key, Value: rec.Value, Timestamp: parseStamp(rec.Timestamp)}
	if rec.Tag != nil {
		e.Tag = *rec.Tag
	}
	return e, true, nil
}

func (s *SQLite) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&record{}).Where(keyIs(key)).Count(&n).Error
	})
	return n > 0, err
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Where(keyIs(key)).Delete(&record{}).Error
	})
}

func (s *SQLite) DeleteByTag(ctx context.Context, tag string) (int64, error) {
	var n int64
	err := s.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Where(tagIs(tag)).Delete(&record{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

func (s *SQLite) DeleteOlder(ctx context.Context, before time.Time) (int64, error) {
	ts := cutoff(before).Format(timeLayout)
	var n int64
	err := s.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Where(clause.Lt{Column: clause.Column{Name: "timestamp"}, Value: ts}).Delete(&record{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

func (s *SQLite) List(ctx context.Context, tag string) ([]string, error) {
	keys := []string{}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		q := tx.Model(&record{}).Order("rowid")
		if tag != "" {
			q = q.Where(tagIs(tag))
		}
		return q.Pluck("key", &keys).Error
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *SQLite) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.sqlDB.Close()
}

// parseStamp 解析存储的时间，兼容不带时区后缀的旧格式。
func parseStamp(s string) time.Time {
	for _, layout := range []string{timeLayout, "2006-01-02T15:04:05.999999", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
