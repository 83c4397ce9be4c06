package xrule

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xmemo/pkg/memo/xkey"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

func TestFlat_Defaults(t *testing.T) {
	f := &Flat{Logger: xlog.Discard()}
	e := f.Resolve("", "pkg.F")
	assert.True(t, e.Active())
	assert.True(t, e.UseCache)
	assert.False(t, e.Reset)
	assert.Equal(t, xkey.KindAll, e.Policy().Kind())
}

func TestFlat_GroupOverrides(t *testing.T) {
	f := &Flat{
		Logger:    xlog.Discard(),
		Overrides: map[string]any{"use_cache": false, "group": "g", "key_prefix": "base"},
		GroupOverrides: map[string]any{
			"g":     map[string]any{"use_cache": true, "key_prefix": "p", "reset": true},
			"other": map[string]any{"enabled": false},
		},
	}

	e := f.Resolve("", "pkg.F")
	assert.Equal(t, "g", e.Group)
	assert.True(t, e.UseCache)
	assert.Equal(t, "p", e.KeyPrefix)
	assert.False(t, e.Reset, "reset in group overrides is dropped")
	assert.Equal(t, []string{"overrides", "group_overrides.g"}, e.Rules)

	e = f.Resolve("other", "pkg.F")
	assert.False(t, e.Enabled)
	assert.False(t, e.UseCache)
	assert.Equal(t, "base", e.KeyPrefix)
}

func TestFlat_ExplicitFieldsWin(t *testing.T) {
	f := &Flat{
		Logger:         xlog.Discard(),
		UseCache:       Bool(false),
		KeyPrefix:      String("yo"),
		Group:          "g",
		KeyArgs:        []string{},
		GroupOverrides: map[string]any{"g": map[string]any{"use_cache": true, "key_args": []any{"a"}}},
	}
	e := f.Resolve("", "pkg.F")
	assert.False(t, e.UseCache)
	assert.Equal(t, "yo", e.KeyPrefix)
	require.NotNil(t, e.KeyArgs)
	assert.Equal(t, xkey.KindNone, e.Policy().Kind())
}

func TestFlat_ResetFromOverrides(t *testing.T) {
	f := &Flat{Logger: xlog.Discard(), Overrides: map[string]any{"reset": true}}
	assert.True(t, f.Resolve("", "pkg.F").Reset)

	f = &Flat{Logger: xlog.Discard(), Reset: Bool(true)}
	assert.True(t, f.Resolve("", "pkg.F").Reset)
}

func TestFlat_ConfigKeyArgs(t *testing.T) {
	f := &Flat{
		Logger:    xlog.Discard(),
		Overrides: map[string]any{"ignore_key_args": []any{"ctx"}},
	}
	e := f.Resolve("", "pkg.F")
	assert.Equal(t, xkey.KindExclude, e.Policy().Kind())
	assert.Equal(t, []string{"ctx"}, e.IgnoreKeyArgs)
}

func TestFlat_UnknownFieldSkipsGroupRule(t *testing.T) {
	f := &Flat{
		Logger:         xlog.Discard(),
		GroupOverrides: map[string]any{"g": map[string]any{"use_cache": false, "colour": "red"}},
	}
	e := f.Resolve("g", "pkg.F")
	assert.True(t, e.UseCache)
	assert.Equal(t, []string{"overrides"}, e.Rules)
}

func TestFlat_DecorationGroupWins(t *testing.T) {
	f := &Flat{
		Logger:    xlog.Discard(),
		Group:     "flat",
		Overrides: map[string]any{"group": "doc"},
	}
	assert.Equal(t, "call", f.Resolve("call", "pkg.F").Group)
	assert.Equal(t, "flat", f.Resolve("", "pkg.F").Group)
}

func TestFlat_DiagnosticsLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	f := &Flat{
		Logger:         xlog.FromHandler(slog.NewTextHandler(&buf, nil)),
		GroupOverrides: map[string]any{"g": map[string]any{"reset": true}},
	}
	for range 5 {
		e := f.Resolve("g", "pkg.F")
		assert.False(t, e.Reset)
		assert.Equal(t, "g", e.Group)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "reset is only honoured from overrides"))
}

func TestFlat_ResolveConcurrent(t *testing.T) {
	f := &Flat{
		Logger:         xlog.Discard(),
		Overrides:      map[string]any{"key_prefix": "base"},
		GroupOverrides: map[string]any{"g": map[string]any{"key_prefix": "p"}},
	}
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			group := "g"
			want := "p"
			if i%2 == 0 {
				group, want = "other", "base"
			}
			e := f.Resolve(group, "pkg.F")
			assert.Equal(t, want, e.KeyPrefix)
			assert.Equal(t, group, e.Group)
		}()
	}
	wg.Wait()
}

func TestFlat_ResultsAreIndependent(t *testing.T) {
	f := &Flat{
		Logger:         xlog.Discard(),
		GroupOverrides: map[string]any{"g": map[string]any{"key_args": []any{"a"}}},
	}
	e := f.Resolve("g", "pkg.F")
	e.KeyArgs[0] = "mutated"
	e.Rules[0] = "mutated"

	again := f.Resolve("g", "pkg.F")
	assert.Equal(t, []string{"a"}, again.KeyArgs)
	assert.Equal(t, []string{"overrides", "group_overrides.g"}, again.Rules)
}
