package xmemo

import (
	"context"
	"fmt"

	"github.com/omeyang/xmemo/pkg/memo/xbind"
)

// Wrap0 包装无参数函数，所有调用共享一个 key。
func Wrap0[R any](m *Memoizer, fn func(context.Context) (R, error), opts ...DecorateOption) func(context.Context) (R, error) {
	if fn == nil {
		panic(ErrNilFunc)
	}
	c := Wrap(m, xbind.MustSignature(nil), func(ctx context.Context, _ xbind.Call) (R, error) {
		return fn(ctx)
	}, withDefaultName(fn, opts)...)
	return func(ctx context.Context) (R, error) {
		return c.Call(ctx)
	}
}

// Wrap1 包装单参数函数，a 为参数名。
func Wrap1[A, R any](m *Memoizer, fn func(context.Context, A) (R, error), a string, opts ...DecorateOption) func(context.Context, A) (R, error) {
	if fn == nil {
		panic(ErrNilFunc)
	}
	sig := xbind.MustSignature([]xbind.Param{xbind.Required(a)})
	c := Wrap(m, sig, func(ctx context.Context, call xbind.Call) (R, error) {
		return fn(ctx, arg[A](call, 0))
	}, withDefaultName(fn, opts)...)
	return func(ctx context.Context, va A) (R, error) {
		return c.Call(ctx, va)
	}
}

// Wrap2 包装双参数函数，a、b 为参数名。
func Wrap2[A, B, R any](m *Memoizer, fn func(context.Context, A, B) (R, error), a, b string, opts ...DecorateOption) func(context.Context, A, B) (R, error) {
	if fn == nil {
		panic(ErrNilFunc)
	}
	sig := xbind.MustSignature([]xbind.Param{xbind.Required(a), xbind.Required(b)})
	c := Wrap(m, sig, func(ctx context.Context, call xbind.Call) (R, error) {
		return fn(ctx, arg[A](call, 0), arg[B](call, 1))
	}, withDefaultName(fn, opts)...)
	return func(ctx context.Context, va A, vb B) (R, error) {
		return c.Call(ctx, va, vb)
	}
}

// withDefaultName 以原函数的标识作为默认名，WithName 仍可覆盖。
func withDefaultName(fn any, opts []DecorateOption) []DecorateOption {
	return append([]DecorateOption{WithName(xbind.Identity(fn))}, opts...)
}

// arg 取第 i 个位置参数，类型不符时 panic。
func arg[T any](call xbind.Call, i int) T {
	v, ok := call.Args[i].(T)
	if !ok && call.Args[i] != nil {
		panic(fmt.Sprintf("xmemo: argument %d: want %T, got %T", i, v, call.Args[i]))
	}
	return v
}
