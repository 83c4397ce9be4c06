package xstore

//go:generate mockgen -source=store.go -destination=xstoremock/store.go -package=xstoremock

import (
	"context"
	"fmt"
	"time"
)

// Entry 是一条缓存记录。
type Entry struct {
	Key       string
	Tag       string
	Value     []byte
	Timestamp time.Time
}

// Store 缓存存储接口，实现必须并发安全。
type Store interface {
	// Store 写入或覆盖 key，tag 为空表示无 tag。
	Store(ctx context.Context, key string, value []byte, tag string) error

	// Get 读取 key，不存在时 ok 为 false 且 err 为 nil。
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Exists 检查 key 是否存在。
	Exists(ctx context.Context, key string) (bool, error)

	// Delete 删除 key，不存在时不报错。
	Delete(ctx context.Context, key string) error

	// DeleteByTag 删除 tag 完全相等的条目，返回删除数。
	// tag 为空时删除无 tag 的条目。
	DeleteByTag(ctx context.Context, tag string) (int64, error)

	// DeleteOlder 删除写入时间严格早于 before 的条目，返回删除数。
	DeleteOlder(ctx context.Context, before time.Time) (int64, error)

	// List 按写入顺序列出 key，tag 为空时列出全部。
	List(ctx context.Context, tag string) ([]string, error)

	// Close 释放资源，之后的操作返回 ErrClosed。
	Close() error
}

// Inspector 可选接口，返回包含 tag 与时间的完整条目。
type Inspector interface {
	Inspect(ctx context.Context, key string) (Entry, bool, error)
}

// Require 读取 key，不存在时返回 ErrNotFound。
func Require(ctx context.Context, s Store, key string) ([]byte, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v, nil
}

// DeleteByIndex 删除 List("") 中第 index 个 key。越界时不做任何事并返回 false。
func DeleteByIndex(ctx context.Context, s Store, index int) (bool, error) {
	keys, err := s.List(ctx, "")
	if err != nil {
		return false, err
	}
	if index < 0 || index >= len(keys) {
		return false, nil
	}
	if err := s.Delete(ctx, keys[index]); err != nil {
		return false, err
	}
	return true, nil
}

// stamp 返回写入时间：UTC，截断到微秒。
func stamp(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Microsecond)
}

// cutoff 把 before 向上取整到微秒。
// 存储时间精度为微秒，"早于 cutoff" 与 "早于 before" 等价。
func cutoff(before time.Time) time.Time {
	c := before.UTC().Truncate(time.Microsecond)
	if !c.Equal(before) {
		c = c.Add(time.Microsecond)
	}
	return c
}
