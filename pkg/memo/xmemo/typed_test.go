package xmemo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xmemo/pkg/memo/xbind"
	"github.com/omeyang/xmemo/pkg/memo/xrule"
)

var typedCalls atomic.Int64

func lookup(_ context.Context, id int, lang string) (string, error) {
	typedCalls.Add(1)
	return lang + ":" + strconv.Itoa(id), nil
}

func version(context.Context) (int, error) {
	typedCalls.Add(1)
	return 3, nil
}

func square(_ context.Context, x int) (int, error) {
	typedCalls.Add(1)
	return x * x, nil
}

func TestWrap2(t *testing.T) {
	store := newSpy()
	m := newMemo(t, store, &xrule.Flat{})
	typedCalls.Store(0)

	f := Wrap2(m, lookup, "id", "lang")
	for range 2 {
		out, err := f(context.Background(), 42, "en")
		require.NoError(t, err)
		assert.Equal(t, "en:42", out)
	}
	assert.Equal(t, int64(1), typedCalls.Load())

	keys := store.keys(t)
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "xmemo.lookup(id=")
}

func TestWrap1_KeyArgs(t *testing.T) {
	store := newSpy()
	m := newMemo(t, store, &xrule.Flat{})
	typedCalls.Store(0)

	f := Wrap1(m, square, "x", WithName("math.square"), WithKeyArgs("x"))
	for _, x := range []int{2, 3, 2} {
		out, err := f(context.Background(), x)
		require.NoError(t, err)
		assert.Equal(t, x*x, out)
	}
	assert.Equal(t, int64(2), typedCalls.Load())
	for _, k := range store.keys(t) {
		assert.True(t, strings.HasPrefix(k, "math.square(x="), k)
	}
}

func TestWrap0(t *testing.T) {
	store := newSpy()
	m := newMemo(t, store, &xrule.Flat{})
	typedCalls.Store(0)

	f := Wrap0(m, version)
	for range 3 {
		v, err := f(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	}
	assert.Equal(t, int64(1), typedCalls.Load())
	keys := store.keys(t)
	require.Len(t, keys, 1)
	assert.True(t, strings.HasSuffix(keys[0], "xmemo.version()"), keys[0])
}

func TestWrapTyped_NilFunc(t *testing.T) {
	m := newMemo(t, newSpy(), &xrule.Flat{})
	assert.Panics(t, func() { Wrap0[int](m, nil) })
	assert.Panics(t, func() { Wrap1[int, int](m, nil, "x") })
	assert.Panics(t, func() { Wrap2[int, int, int](m, nil, "x", "y") })
}

func TestArg_TypeMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		arg[int](xbind.Positional("not an int"), 0)
	})
	assert.Equal(t, 0, arg[int](xbind.Positional(nil), 0))
}

// typeName 的类型参数只出现在函数体中，各实例化的参数与返回类型相同。
func typeName[T any](_ context.Context, s string) (string, error) {
	var zero T
	return fmt.Sprintf("%s:%T", s, zero), nil
}

func wrapPanic(fn func()) (err error) {
	defer func() { err, _ = recover().(error) }()
	fn()
	return nil
}

func TestWrap_GenericIdentityNeedsName(t *testing.T) {
	m := newMemo(t, newSpy(), &xrule.Flat{})

	err := wrapPanic(func() { Wrap1(m, typeName[int], "s") })
	require.ErrorIs(t, err, ErrAmbiguousIdentity)
	assert.ErrorContains(t, err, "typeName[...]")

	err = wrapPanic(func() { Wrap1(m, typeName[string], "s", WithGroup("g")) })
	assert.ErrorIs(t, err, ErrAmbiguousIdentity)
}

func TestWrap_GenericInstantiationsDoNotShareKeys(t *testing.T) {
	store := newSpy()
	m := newMemo(t, store, &xrule.Flat{})
	ctx := context.Background()

	asInt := Wrap1(m, typeName[int], "s", WithName("pkg.typeName.int"))
	asString := Wrap1(m, typeName[string], "s", WithName("pkg.typeName.string"))

	for range 2 {
		got, err := asInt(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, "x:int", got)

		got, err = asString(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, "x:string", got)
	}
	assert.Len(t, store.keys(t), 2)
}
