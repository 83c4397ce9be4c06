package xrule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/omeyang/xmemo/pkg/config/xconf"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

// Handle 是一份已加载配置的稳定引用，实现 Resolver。
// 重载后同一个 Handle 立即看到新文档。
type Handle struct {
	identity string
	path     string
	opts     *options

	mu  sync.Mutex
	cfg xconf.Config

	snap atomic.Pointer[snapshot]
}

// snapshot 是某一代文档及其解析结果缓存。
type snapshot struct {
	doc  *Document
	gen  uint64
	memo sync.Map
}

var _ Resolver = (*Handle)(nil)

func newHandle(identity, path string, cfg xconf.Config, doc *Document, o *options) *Handle {
	h := &Handle{identity: identity, path: path, cfg: cfg, opts: o}
	h.snap.Store(&snapshot{doc: doc, gen: 1})
	return h
}

// Identity 返回配置身份。
func (h *Handle) Identity() string { return h.identity }

// Generation 每次成功重载后加一。
func (h *Handle) Generation() uint64 { return h.snap.Load().gen }

// Document 返回当前文档。
func (h *Handle) Document() *Document { return h.snap.Load().doc }

// Disabled 配置未能加载时为 true。
func (h *Handle) Disabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg == nil
}

// Resolve 实现 Resolver。同一代文档内结果被缓存，reset 不进入缓存。
func (h *Handle) Resolve(group, identity string) Effective {
	s := h.snap.Load()
	key := group + "\x00" + identity
	if v, ok := s.memo.Load(key); ok {
		e := v.(Effective).clone()
		e.Reset = s.doc.refresh
		return e
	}

	e := s.doc.Resolve(group, identity)
	e.Reset = false
	s.memo.Store(key, e.clone())
	e.Reset = s.doc.refresh
	return e
}

func (h *Handle) swap(doc *Document) {
	for {
		old := h.snap.Load()
		if h.snap.CompareAndSwap(old, &snapshot{doc: doc, gen: old.gen + 1}) {
			return
		}
	}
}

// reload 重新读取文件并替换文档，失败时保留旧文档。
func (h *Handle) reload() error {
	if h.path == "" {
		return fmt.Errorf("%w: %s", ErrNotReloadable, h.identity)
	}

	h.mu.Lock()
	cfg := h.cfg
	var err error
	if cfg == nil {
		cfg, err = xconf.New(h.path, h.opts.conf...)
	} else {
		err = cfg.Reload()
	}
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.cfg = cfg
	h.mu.Unlock()

	h.swap(Parse(cfg.Raw(), WithLogger(h.opts.logger)))
	return nil
}

func (h *Handle) config() xconf.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

// Registry 按身份只加载一次配置。
type Registry struct {
	opts *options

	mu      sync.Mutex
	handles *lru.Cache[string, *Handle]

	wmu      sync.Mutex
	watchers map[string]*xconf.Watcher
	closed   bool
}

// NewRegistry 创建配置注册表。
func NewRegistry(opts ...Option) (*Registry, error) {
	r := &Registry{opts: applyOptions(opts), watchers: map[string]*xconf.Watcher{}}
	cache, err := lru.NewWithEvict(r.opts.capacity, func(id string, _ *Handle) {
		r.stopWatcher(id)
	})
	if err != nil {
		return nil, fmt.Errorf("xrule: create registry: %w", err)
	}
	r.handles = cache
	return r, nil
}

// Load 加载配置文件。加载失败返回永久禁用的 Handle 并记录警告，不返回错误。
func (r *Registry) Load(path string) *Handle {
	id, err := xconf.FileIdentity(path)
	if err != nil {
		return r.disabled(path, "", err)
	}
	return r.loadOnce(id, id, func() (xconf.Config, error) {
		return xconf.New(id, r.opts.conf...)
	})
}

// LoadBytes 加载内存中的配置，相同内容共享同一个 Handle。
func (r *Registry) LoadBytes(data []byte, format xconf.Format) *Handle {
	id := xconf.ContentIdentity(data, format)
	return r.loadOnce(id, "", func() (xconf.Config, error) {
		return xconf.NewFromBytes(data, format, r.opts.conf...)
	})
}

// LoadReader 读取 rd 的全部内容后等同于 LoadBytes。
func (r *Registry) LoadReader(rd io.Reader, format xconf.Format) *Handle {
	if rd == nil {
		return r.disabled("reader", "", errors.New("nil reader"))
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return r.disabled("reader", "", err)
	}
	return r.LoadBytes(data, format)
}

func (r *Registry) loadOnce(id, path string, load func() (xconf.Config, error)) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles.Get(id); ok {
		return h
	}
	cfg, err := load()
	if err != nil {
		h := r.disabled(id, path, err)
		r.handles.Add(id, h)
		return h
	}
	h := newHandle(id, path, cfg, Parse(cfg.Raw(), WithLogger(r.opts.logger)), r.opts)
	r.handles.Add(id, h)
	return h
}

func (r *Registry) disabled(id, path string, err error) *Handle {
	r.opts.logger.Warn(context.Background(), "could not load config, caching disabled",
		slog.String("config", id), xlog.Err(err))
	return newHandle(id, path, nil, Disabled(), r.opts)
}

// Len 返回已缓存的配置数。
func (r *Registry) Len() int { return r.handles.Len() }

// Invalidate 移除身份对应的配置，下次 Load 重新读取。已发出的 Handle 保持当前文档。
func (r *Registry) Invalidate(identity string) bool {
	return r.handles.Remove(identity)
}

// Reload 立即重新读取文件配置，失败时保留旧文档。
func (r *Registry) Reload(identity string) error {
	h, ok := r.handles.Peek(identity)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownIdentity, identity)
	}
	if err := h.reload(); err != nil {
		r.opts.logger.Warn(context.Background(), "config reload failed",
			slog.String("config", identity), xlog.Err(err))
		return err
	}
	return nil
}

// Watch 加载并监视配置文件，文件变更后自动重载。重复调用不会重复监视。
func (r *Registry) Watch(path string) (*Handle, error) {
	h := r.Load(path)
	cfg := h.config()
	if cfg == nil || h.path == "" {
		return h, fmt.Errorf("%w: %s", ErrNotReloadable, h.identity)
	}

	r.wmu.Lock()
	defer r.wmu.Unlock()
	if r.closed {
		return h, ErrRegistryClosed
	}
	if _, ok := r.watchers[h.identity]; ok {
		return h, nil
	}

	var opts []xconf.WatchOption
	if r.opts.debounce > 0 {
		opts = append(opts, xconf.WithDebounce(r.opts.debounce))
	}
	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
		if err != nil {
			r.opts.logger.Warn(context.Background(), "config reload failed",
				slog.String("config", h.identity), xlog.Err(err))
			return
		}
		h.swap(Parse(c.Raw(), WithLogger(r.opts.logger)))
		r.opts.logger.Info(context.Background(), "config reloaded", slog.String("config", h.identity))
	}, opts...)
	if err != nil {
		return h, err
	}
	w.StartAsync()
	r.watchers[h.identity] = w
	return h, nil
}

func (r *Registry) stopWatcher(id string) {
	r.wmu.Lock()
	w, ok := r.watchers[id]
	delete(r.watchers, id)
	r.wmu.Unlock()

	if ok {
		if err := w.Stop(); err != nil {
			r.opts.logger.Warn(context.Background(), "stop watcher", slog.String("config", id), xlog.Err(err))
		}
	}
}

// Close 停止所有监视并清空注册表。
func (r *Registry) Close() error {
	r.wmu.Lock()
	if r.closed {
		r.wmu.Unlock()
		return nil
	}
	r.closed = true
	watchers := r.watchers
	r.watchers = map[string]*xconf.Watcher{}
	r.wmu.Unlock()

	var errs []error
	for _, w := range watchers {
		errs = append(errs, w.Stop())
	}
	r.handles.Purge()
	return errors.Join(errs...)
}
