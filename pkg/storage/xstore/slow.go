package xstore

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

// slowDetector 记录耗时不小于阈值的存储操作。threshold 为 0 时不检测。
type slowDetector struct {
	threshold time.Duration
	log       xlog.Logger
	count     atomic.Int64
}

// observe 返回本次操作是否被记为慢操作。
func (d *slowDetector) observe(ctx context.Context, op, key string, elapsed time.Duration) bool {
	if d.threshold == 0 || elapsed < d.threshold {
		return false
	}
	d.count.Add(1)
	d.log.Warn(ctx, "slow store operation",
		slog.String("op", op),
		xlog.CacheKey(key),
		slog.Duration("elapsed", elapsed),
		slog.Duration("threshold", d.threshold),
	)
	return true
}
