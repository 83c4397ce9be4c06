package xstore

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	Entry
	seq uint64
}

// Memory 是进程内存储，不持久化。tag 与时间删除按线性扫描实现。
type Memory struct {
	mu     sync.RWMutex
	data   map[string]memoryEntry
	seq    uint64
	closed bool
	opts   *options
}

var (
	_ Store     = (*Memory)(nil)
	_ Inspector = (*Memory)(nil)
)

// NewMemory 创建内存存储。
func NewMemory(opts ...Option) *Memory {
	return &Memory{data: make(map[string]memoryEntry), opts: applyOptions(opts)}
}

func (m *Memory) Store(_ context.Context, key string, value []byte, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.seq++
	m.data[key] = memoryEntry{
		Entry: Entry{
			Key:       key,
			Tag:       tag,
			Value:     bytes.Clone(value),
			Timestamp: stamp(m.opts.now),
		},
		seq: m.seq,
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok, err := m.Inspect(ctx, key)
	return e.Value, ok, err
}

func (m *Memory) Inspect(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Entry{}, false, ErrClosed
	}
	e, ok := m.data[key]
	if !ok {
		return Entry{}, false, nil
	}
	out := e.Entry
	out.Value = bytes.Clone(e.Value)
	return out, true, nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}
	_, ok := m.data[key]
	return ok, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) DeleteByTag(_ context.Context, tag string) (int64, error) {
	return m.deleteWhere(func(e memoryEntry) bool { return e.Tag == tag })
}

func (m *Memory) DeleteOlder(_ context.Context, before time.Time) (int64, error) {
	return m.deleteWhere(func(e memoryEntry) bool { return e.Timestamp.Before(before) })
}

func (m *Memory) deleteWhere(match func(memoryEntry) bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	var n int64
	for k, e := range m.data {
		if match(e) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *Memory) List(_ context.Context, tag string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	entries := make([]memoryEntry, 0, len(m.data))
	for _, e := range m.data {
		if tag == "" || e.Tag == tag {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b memoryEntry) int { return cmp.Compare(a.seq, b.seq) })

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys, nil
}

// Len 返回条目数。
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}
