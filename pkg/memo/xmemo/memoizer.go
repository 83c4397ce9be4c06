package xmemo

import (
	"github.com/omeyang/xmemo/pkg/memo/xkey"
	"github.com/omeyang/xmemo/pkg/memo/xrule"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
	"github.com/omeyang/xmemo/pkg/storage/xstore"
)

// Memoizer 持有存储与配置来源，为被包装函数共享。并发安全。
type Memoizer struct {
	store    xstore.Store
	source   xrule.Resolver
	log      xlog.Logger
	observer xmetrics.Observer
	codec    Codec
	encoder  *xkey.Encoder
	strict   bool
}

// New 创建 Memoizer。存储的生命周期由调用方管理。
func New(store xstore.Store, source xrule.Resolver, opts ...Option) (*Memoizer, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if source == nil {
		return nil, ErrNilResolver
	}
	m := &Memoizer{
		store:    store,
		source:   source,
		log:      xlog.Default(),
		observer: xmetrics.NoopObserver{},
		codec:    CBOR(),
		encoder:  xkey.NewEncoder(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.log = m.log.With(xlog.Component("xmemo"))
	return m, nil
}

// Store 返回底层存储。
func (m *Memoizer) Store() xstore.Store { return m.store }

// Codec 返回结果编解码器。
func (m *Memoizer) Codec() Codec { return m.codec }
