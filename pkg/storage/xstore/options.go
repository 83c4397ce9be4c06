package xstore

import (
	"time"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

const (
	defaultRedisPrefix  = "xmemo:"
	defaultBusyAttempts = 5
	defaultBusyDelay    = 20 * time.Millisecond
	defaultTripAfter    = 5
	defaultOpenTimeout  = 30 * time.Second
)

type options struct {
	now          func() time.Time
	logger       xlog.Logger
	keyPrefix    string
	busyAttempts uint
	busyDelay    time.Duration
	tripAfter    uint32
	openTimeout  time.Duration
	slow         time.Duration
}

// Option 存储选项
type Option func(*options)

func defaultOptions() *options {
	return &options{
		now:          time.Now,
		logger:       xlog.Discard(),
		keyPrefix:    defaultRedisPrefix,
		busyAttempts: defaultBusyAttempts,
		busyDelay:    defaultBusyDelay,
		tripAfter:    defaultTripAfter,
		openTimeout:  defaultOpenTimeout,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithClock 设置写入时间来源，nil 被忽略。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger 设置 Logger，nil 被忽略。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithKeyPrefix 设置 Redis key 前缀，默认 "xmemo:"。仅对 Redis 生效。
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// WithBusyRetry 设置 SQLite 忙时的重试：总尝试次数与固定间隔。仅对 SQLite 生效。
func WithBusyRetry(attempts uint, delay time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.busyAttempts = attempts
		}
		if delay >= 0 {
			o.busyDelay = delay
		}
	}
}

// WithBreaker 设置熔断：连续失败 tripAfter 次后打开，openTimeout 后进入半开探测。
// 仅对 NewGuarded 生效。
func WithBreaker(tripAfter uint32, openTimeout time.Duration) Option {
	return func(o *options) {
		if tripAfter > 0 {
			o.tripAfter = tripAfter
		}
		if openTimeout > 0 {
			o.openTimeout = openTimeout
		}
	}
}

// WithSlowThreshold 记录耗时不小于 d 的操作，0 关闭。仅对 NewGuarded 生效。
func WithSlowThreshold(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.slow = d
		}
	}
}
