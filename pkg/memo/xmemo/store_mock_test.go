package xmemo

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xmemo/pkg/memo/xrule"
	"github.com/omeyang/xmemo/pkg/storage/xstore"
	"github.com/omeyang/xmemo/pkg/storage/xstore/xstoremock"
)

// TestMock_DisabledMakesNoStoreCalls 未设置任何期望，任何存储调用都会让测试失败。
func TestMock_DisabledMakesNoStoreCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := xstoremock.NewMockStore(ctrl)

	m := newMemo(t, store, &xrule.Flat{Enabled: xrule.Bool(false)})
	var n atomic.Int64
	out, err := Wrap(m, withBoth, counter(&n)).Call(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a-b", out)
	assert.Equal(t, int64(1), n.Load())
}

func TestMock_MissReadsThenWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := xstoremock.NewMockStore(ctrl)
	m := newMemo(t, store, &xrule.Flat{Group: "db"})
	f := Wrap(m, withBoth, counter(new(atomic.Int64)), WithName("pkg.f"))

	gomock.InOrder(
		store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, nil),
		store.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any(), "db").Return(nil),
	)

	out, err := f.Call(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a-b", out)
}

func TestMock_ResetSkipsRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := xstoremock.NewMockStore(ctrl)
	m := newMemo(t, store, &xrule.Flat{Reset: xrule.Bool(true)})

	store.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any(), "").Return(nil).Times(2)

	f := Wrap(m, withBoth, counter(new(atomic.Int64)))
	for range 2 {
		_, err := f.Call(context.Background(), "a", "b")
		require.NoError(t, err)
	}
}

func TestMock_ReadErrorFallsThroughToWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := xstoremock.NewMockStore(ctrl)
	m := newMemo(t, store, &xrule.Flat{})

	store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, errors.New("timeout"))
	store.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	out, err := Wrap(m, withBoth, counter(new(atomic.Int64))).Call(context.Background(), "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "x-y", out)
}

// TestMock_GuardedStopsCallingBackend 熔断打开后不再访问后端，调用降级为直接执行。
func TestMock_GuardedStopsCallingBackend(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := xstoremock.NewMockStore(ctrl)
	down := errors.New("connection refused")

	// 阈值为 2：第一次调用的读写各失败一次后熔断打开
	backend.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, down).Times(1)
	backend.EXPECT().Store(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(down).Times(1)

	guarded, err := xstore.NewGuarded(backend, xstore.WithBreaker(2, time.Hour))
	require.NoError(t, err)

	m := newMemo(t, guarded, &xrule.Flat{})
	var n atomic.Int64
	f := Wrap(m, withBoth, counter(&n))
	for range 3 {
		out, err := f.Call(context.Background(), "a", "b")
		require.NoError(t, err)
		assert.Equal(t, "a-b", out)
	}
	assert.Equal(t, int64(3), n.Load())
	assert.Equal(t, "open", guarded.State())
}

func TestMock_GuardedStrictReportsUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := xstoremock.NewMockStore(ctrl)
	backend.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, errors.New("down")).Times(1)

	guarded, err := xstore.NewGuarded(backend, xstore.WithBreaker(1, time.Hour))
	require.NoError(t, err)
	m := newMemo(t, guarded, &xrule.Flat{}, WithStrictStore())
	f := Wrap(m, withBoth, counter(new(atomic.Int64)))

	_, err = f.Call(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrStore)

	_, err = f.Call(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, xstore.ErrUnavailable)
}
