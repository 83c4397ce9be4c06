package xconf

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeFile(t, "rules.yaml", "key_prefix: a\n")
	cfg, err := New(path)
	require.NoError(t, err)

	reloaded := make(chan error, 4)
	w, err := Watch(cfg, func(_ Config, err error) { reloaded <- err }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	w.StartAsync()
	defer func() { assert.NoError(t, w.Stop()) }()

	require.NoError(t, os.WriteFile(path, []byte("key_prefix: b\n"), 0o600))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback not called")
	}
	assert.Equal(t, "b", cfg.Client().String("key_prefix"))
}

func TestWatch_RejectsBytesConfig(t *testing.T) {
	cfg, err := NewFromBytes([]byte("a: 1"), FormatYAML)
	require.NoError(t, err)

	_, err = Watch(cfg, nil)
	assert.ErrorIs(t, err, ErrNotReloadable)
}

func TestWatch_StopIdempotent(t *testing.T) {
	path := writeFile(t, "rules.yaml", "a: 1\n")
	cfg, err := New(path)
	require.NoError(t, err)

	w, err := Watch(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	// Stop 之后不再启动
	w.StartAsync()
}
