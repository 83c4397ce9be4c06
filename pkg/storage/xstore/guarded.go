package xstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

// Guarded 用熔断器包装存储。
//
// 连续失败达到阈值后熔断器打开，之后的调用直接返回 ErrUnavailable，
// 超时后放行一个探测请求。context 取消与 ErrClosed 不计为失败。
type Guarded struct {
	next Store
	cb   *gobreaker.CircuitBreaker[any]
	log  xlog.Logger
	slow *slowDetector
}

var (
	_ Store     = (*Guarded)(nil)
	_ Inspector = (*Guarded)(nil)
)

// NewGuarded 包装 next。熔断参数见 WithBreaker。
func NewGuarded(next Store, opts ...Option) (*Guarded, error) {
	if next == nil {
		return nil, ErrNilClient
	}
	o := applyOptions(opts)
	log := o.logger.With(xlog.Component("xstore.guarded"))
	g := &Guarded{next: next, log: log, slow: &slowDetector{threshold: o.slow, log: log}}
	g.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "xstore",
		MaxRequests: 1,
		Timeout:     o.openTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= o.tripAfter
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrClosed)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.log.Warn(context.Background(), "store breaker state changed",
				slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})
	return g, nil
}

// State 返回熔断器状态，如 "closed"、"open"。
func (g *Guarded) State() string { return g.cb.State().String() }

// SlowOps 返回累计的慢操作次数。
func (g *Guarded) SlowOps() int64 { return g.slow.count.Load() }

// guard 在熔断器内执行 fn，并记录慢操作。
func guard[T any](ctx context.Context, g *Guarded, op, key string, fn func() (T, error)) (T, error) {
	v, err := g.cb.Execute(func() (any, error) {
		start := time.Now()
		defer func() { g.slow.observe(ctx, op, key, time.Since(start)) }()
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

type lookup struct {
	value []byte
	ok    bool
}

func (g *Guarded) Store(ctx context.Context, key string, value []byte, tag string) error {
	_, err := guard(ctx, g, "store", key, func() (struct{}, error) {
		return struct{}{}, g.next.Store(ctx, key, value, tag)
	})
	return err
}

func (g *Guarded) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r, err := guard(ctx, g, "get", key, func() (lookup, error) {
		v, ok, err := g.next.Get(ctx, key)
		return lookup{v, ok}, err
	})
	return r.value, r.ok, err
}

// Inspect 透传给底层实现，底层不支持时只返回 Key 与 Value。
func (g *Guarded) Inspect(ctx context.Context, key string) (Entry, bool, error) {
	type inspected struct {
		e  Entry
		ok bool
	}
	r, err := guard(ctx, g, "inspect", key, func() (inspected, error) {
		if in, ok := g.next.(Inspector); ok {
			e, found, err := in.Inspect(ctx, key)
			return inspected{e, found}, err
		}
		v, found, err := g.next.Get(ctx, key)
		return inspected{Entry{Key: key, Value: v}, found}, err
	})
	return r.e, r.ok, err
}

func (g *Guarded) Exists(ctx context.Context, key string) (bool, error) {
	return guard(ctx, g, "exists", key, func() (bool, error) { return g.next.Exists(ctx, key) })
}

func (g *Guarded) Delete(ctx context.Context, key string) error {
	_, err := guard(ctx, g, "delete", key, func() (struct{}, error) {
		return struct{}{}, g.next.Delete(ctx, key)
	})
	return err
}

func (g *Guarded) DeleteByTag(ctx context.Context, tag string) (int64, error) {
	return guard(ctx, g, "delete_by_tag", tag, func() (int64, error) { return g.next.DeleteByTag(ctx, tag) })
}

func (g *Guarded) DeleteOlder(ctx context.Context, before time.Time) (int64, error) {
	return guard(ctx, g, "delete_older", before.UTC().Format(time.RFC3339Nano), func() (int64, error) { return g.next.DeleteOlder(ctx, before) })
}

func (g *Guarded) List(ctx context.Context, tag string) ([]string, error) {
	return guard(ctx, g, "list", tag, func() ([]string, error) { return g.next.List(ctx, tag) })
}

// Close 关闭底层存储，不经过熔断器。
func (g *Guarded) Close() error { return g.next.Close() }
