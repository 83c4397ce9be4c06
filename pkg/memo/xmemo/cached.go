package xmemo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/omeyang/xmemo/pkg/memo/xbind"
	"github.com/omeyang/xmemo/pkg/memo/xkey"
	"github.com/omeyang/xmemo/pkg/memo/xrule"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
)

// Func 是可被缓存的函数形态，接收原始调用实参。
type Func[R any] func(ctx context.Context, call xbind.Call) (R, error)

// Cached 是包装后的函数。并发安全。
type Cached[R any] struct {
	m        *Memoizer
	sig      *xbind.Signature
	fn       Func[R]
	identity string
	deco     decoration
	log      xlog.Logger
}

// Wrap 包装 fn。sig 描述 fn 的参数，用于构造 key。
// fn 为 nil，或标识来自泛型函数且未用 WithName 区分时 panic。
func Wrap[R any](m *Memoizer, sig *xbind.Signature, fn Func[R], opts ...DecorateOption) *Cached[R] {
	if fn == nil {
		panic(ErrNilFunc)
	}
	if sig == nil {
		sig = xbind.MustSignature(nil)
	}
	var d decoration
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}
	id := d.name
	if id == "" {
		id = xbind.Identity(fn)
	}
	if xbind.Generic(id) {
		panic(fmt.Errorf("%w: %s, set a distinct WithName per instantiation", ErrAmbiguousIdentity, id))
	}
	c := &Cached[R]{
		m:        m,
		sig:      sig,
		fn:       fn,
		identity: id,
		deco:     d,
		log:      m.log.With(xlog.Function(id)),
	}
	c.checkKeyArgs()
	return c
}

// checkKeyArgs 装饰期检查 WithKeyArgs/WithIgnoreKeyArgs 中的参数名是否在签名中声明。
func (c *Cached[R]) checkKeyArgs() {
	if !c.deco.policy {
		return
	}
	declared := make(map[string]struct{})
	for _, p := range c.sig.Params() {
		declared[p.Name] = struct{}{}
	}
	for _, names := range [][]string{c.deco.keyArgs, c.deco.ignore} {
		for _, n := range names {
			if _, ok := declared[n]; !ok {
				c.log.Warn(context.Background(), "key arg not declared in signature", slog.String("arg", n))
			}
		}
	}
}

// Identity 返回函数标识，是 key 中不随参数变化的部分。
func (c *Cached[R]) Identity() string { return c.identity }

// Call 以位置参数调用。
func (c *Cached[R]) Call(ctx context.Context, args ...any) (R, error) {
	return c.CallKw(ctx, args, nil)
}

// CallKw 以位置参数与关键字参数调用。
func (c *Cached[R]) CallKw(ctx context.Context, args []any, kwargs map[string]any) (R, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	call := xbind.Call{Args: args, Kwargs: kwargs}
	eff := c.effective()

	ctx, span := xmetrics.Start(ctx, c.m.observer, xmetrics.SpanOptions{
		Function: c.identity,
		Group:    eff.Group,
	})
	res, outcome, key, err := c.run(ctx, eff, call)

	var attrs []xmetrics.Attr
	if key != "" {
		attrs = append(attrs,
			xmetrics.CacheKey(key),
			xmetrics.String(xmetrics.AttrPolicy, c.policy(eff).String()),
			xmetrics.Bool(xmetrics.AttrReset, eff.Reset),
		)
	}
	span.End(xmetrics.Result{Outcome: outcome, Err: err, Attrs: attrs})
	return res, err
}

// Key 返回该调用的缓存 key。缓存未启用时返回 false。
func (c *Cached[R]) Key(call xbind.Call) (string, bool) {
	eff := c.effective()
	if !eff.Active() {
		return "", false
	}
	return c.key(eff, call), true
}

// Effective 返回当前生效配置（已应用覆盖项）。
func (c *Cached[R]) Effective() xrule.Effective {
	return c.effective()
}

func (c *Cached[R]) effective() xrule.Effective {
	eff := c.m.source.Resolve(c.deco.group, c.identity)
	if eff.Group == "" {
		eff.Group = c.deco.group
	}
	return c.deco.override.Apply(eff)
}

func (c *Cached[R]) policy(eff xrule.Effective) xkey.Policy {
	if c.deco.policy {
		return xkey.NewPolicy(c.deco.keyArgs, c.deco.ignore)
	}
	return eff.Policy()
}

func (c *Cached[R]) key(eff xrule.Effective, call xbind.Call) string {
	policy := c.policy(eff)
	bound := c.sig.Bind(call)
	args := policy.Select(bound)
	if policy.Kind() == xkey.KindInclude && len(args) < len(policy.Names()) {
		c.log.Debug(context.Background(), "key args not bound, left out of key",
			xlog.Rule(policy.String()), slog.Any("bound", bound.Names()))
	}
	return xkey.Compose(eff.KeyPrefix, c.identity, c.m.encoder.Fingerprint(args))
}

func (c *Cached[R]) run(ctx context.Context, eff xrule.Effective, call xbind.Call) (R, xmetrics.Outcome, string, error) {
	var zero R
	if !eff.Active() {
		res, err := c.fn(ctx, call)
		return res, xmetrics.OutcomeBypass, "", err
	}

	key := c.key(eff, call)
	outcome := xmetrics.OutcomeRefresh
	if !eff.Reset && eff.UseCache {
		outcome = xmetrics.OutcomeMiss
		res, hit, err := c.read(ctx, key)
		if err != nil {
			return zero, outcome, key, err
		}
		if hit {
			c.trace(ctx, eff, "cache hit", key, xmetrics.OutcomeHit)
			return res, xmetrics.OutcomeHit, key, nil
		}
	}

	res, err := c.fn(ctx, call)
	if err != nil {
		return zero, outcome, key, err
	}
	c.trace(ctx, eff, "cache "+string(outcome), key, outcome)

	if err := c.write(ctx, key, res, eff.Group); err != nil {
		return zero, outcome, key, err
	}
	return res, outcome, key, nil
}

// read 读取并解码缓存值。非严格模式下失败按未命中处理。
func (c *Cached[R]) read(ctx context.Context, key string) (R, bool, error) {
	var res R
	data, ok, err := c.m.store.Get(ctx, key)
	if err != nil {
		return res, false, c.storeFailure(ctx, "read", key, err)
	}
	if !ok {
		return res, false, nil
	}
	if err := c.m.codec.Unmarshal(data, &res); err != nil {
		var zero R
		return zero, false, c.storeFailure(ctx, "decode", key, err)
	}
	return res, true, nil
}

func (c *Cached[R]) write(ctx context.Context, key string, res R, tag string) error {
	data, err := c.m.codec.Marshal(res)
	if err != nil {
		return c.storeFailure(ctx, "encode", key, err)
	}
	if err := c.m.store.Store(ctx, key, data, tag); err != nil {
		return c.storeFailure(ctx, "write", key, err)
	}
	return nil
}

func (c *Cached[R]) storeFailure(ctx context.Context, op, key string, err error) error {
	if c.m.strict {
		return fmt.Errorf("%w: %s %s: %w", ErrStore, op, key, err)
	}
	c.log.Error(ctx, "cache "+op+" failed", xlog.CacheKey(key), xlog.Err(err))
	return nil
}

// trace verbose 时以 Info 输出，否则 Debug。
func (c *Cached[R]) trace(ctx context.Context, eff xrule.Effective, msg, key string, outcome xmetrics.Outcome) {
	level := xlog.LevelDebug
	if eff.Verbose {
		level = xlog.LevelInfo
	}
	c.log.Log(ctx, level, msg, xlog.CacheKey(key), xlog.Group(eff.Group), xlog.Outcome(string(outcome)))
}
