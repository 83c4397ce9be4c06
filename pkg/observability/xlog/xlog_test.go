package xlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuilder_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New().SetOutput(&buf).SetFormat("json").SetLevel(LevelDebug).Build()
	require.NoError(t, err)
	defer func() { assert.NoError(t, cleanup()) }()

	logger.With(Component("xmemo")).Info(context.Background(), "cache hit",
		CacheKey("pkg.F()"), Outcome("hit"), Err(nil))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "cache hit", rec["msg"])
	assert.Equal(t, "xmemo", rec[KeyComponent])
	assert.Equal(t, "pkg.F()", rec[KeyCacheKey])
	assert.Equal(t, "hit", rec[KeyOutcome])
	assert.NotContains(t, rec, KeyError)
}

func TestBuilder_FirstErrorWins(t *testing.T) {
	_, _, err := New().SetFormat("xml").SetLevelString("nope").Build()
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, _, err = New().SetOutput(nil).Build()
	assert.ErrorIs(t, err, ErrNilOutput)

	_, _, err = New().SetRotation("  ").Build()
	assert.ErrorIs(t, err, ErrEmptyFilename)
}

func TestBuilder_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xmemo.log")
	logger, cleanup, err := New().SetRotation(path, WithMaxSize(1), WithMaxBackups(1), WithCompress(false)).Build()
	require.NoError(t, err)

	logger.Warn(context.Background(), "store unavailable", Err(errors.New("boom")))
	require.NoError(t, cleanup())
	assert.FileExists(t, path)
}

func TestLogger_DynamicLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New().SetOutput(&buf).Build()
	require.NoError(t, err)

	child := logger.With(Group("db"))
	child.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, logger.GetLevel())
	assert.True(t, logger.Enabled(context.Background(), LevelDebug))

	child.Debug(context.Background(), "visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "group=db")
}

func TestLogger_NilContext(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New().SetOutput(&buf).Build()
	require.NoError(t, err)

	//nolint:staticcheck // 验证 nil ctx 不会 panic
	logger.Error(nil, "nil ctx")
	assert.Contains(t, buf.String(), "nil ctx")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.False(t, l.Enabled(context.Background(), LevelError))
	l.Error(context.Background(), "dropped")
}

func TestGlobal(t *testing.T) {
	t.Cleanup(ResetDefault)

	var buf bytes.Buffer
	logger, _, err := New().SetOutput(&buf).SetLevel(LevelDebug).Build()
	require.NoError(t, err)

	SetDefault(nil)
	SetDefault(logger)
	assert.Same(t, logger, Default())

	Debug(context.Background(), "d")
	Info(context.Background(), "i")
	Warn(context.Background(), "w")
	Error(context.Background(), "e", Function("pkg.F"), Rule("props[0]"))
	out := buf.String()
	for _, s := range []string{"msg=d", "msg=i", "msg=w", "msg=e", "function=pkg.F", "rule=props[0]"} {
		assert.Contains(t, out, s)
	}
}

func TestLogger_LogRuntimeLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New().SetOutput(&buf).SetFormat("json").SetLevel(LevelInfo).Build()
	require.NoError(t, err)
	defer func() { assert.NoError(t, cleanup()) }()

	logger.Log(context.Background(), LevelDebug, "quiet")
	assert.Zero(t, buf.Len())

	//nolint:staticcheck // nil ctx 按 Background 处理
	logger.Log(nil, LevelInfo, "loud", Group("db"))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "loud", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "db", rec[KeyGroup])
}
