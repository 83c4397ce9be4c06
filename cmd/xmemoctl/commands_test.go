package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xmemo/pkg/memo/xmemo"
	"github.com/omeyang/xmemo/pkg/storage/xstore"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time {
	t := c.t
	c.t = c.t.Add(time.Second)
	return t
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// seed 写入 4 个条目：a、b 属于 tag "db"，c 无 tag，d 属于 "web"，时间间隔 1s。
func seed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stash.db")
	clock := &fixedClock{t: base}
	s, err := xstore.NewSQLite(path, xstore.WithClock(clock.now))
	require.NoError(t, err)

	ctx := context.Background()
	for _, e := range []struct{ key, tag, val string }{
		{"pkg.a()", "db", "alpha"},
		{"pkg.b()", "db", "beta"},
		{"pkg.c()", "", "gamma"},
		{"pkg.d()", "web", "delta"},
	} {
		data, err := xmemo.CBOR().Marshal(e.val)
		require.NoError(t, err)
		require.NoError(t, s.Store(ctx, e.key, data, e.tag))
	}
	require.NoError(t, s.Close())
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"xmemoctl"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func listKeys(t *testing.T, db string, extra ...string) []string {
	t.Helper()
	code, stdout, stderr := runCLI(t, append([]string{"--db", db, "ls"}, extra...)...)
	require.Equal(t, 0, code, stderr)
	var keys []string
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		keys = append(keys, fields[len(fields)-1])
	}
	return keys
}

func TestList(t *testing.T) {
	db := seed(t)
	assert.Equal(t, []string{"pkg.a()", "pkg.b()", "pkg.c()", "pkg.d()"}, listKeys(t, db))
	assert.Equal(t, []string{"pkg.a()", "pkg.b()"}, listKeys(t, db, "--tag", "db"))

	code, stdout, _ := runCLI(t, "--db", db, "ls", "--long")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "0\t2024-03-01T12:00:00Z\tdb\tpkg.a()")
	assert.Contains(t, stdout, "2\t2024-03-01T12:00:02Z\t-\tpkg.c()")
}

func TestShow(t *testing.T) {
	db := seed(t)

	code, stdout, stderr := runCLI(t, "--db", db, "show", "pkg.b()")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "tag:       db")
	assert.Contains(t, stdout, "value:     beta")

	code, stdout, _ = runCLI(t, "--db", db, "show", "--codec", "raw", "pkg.b()")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "value:     6462657461")

	code, _, stderr = runCLI(t, "--db", db, "show", "missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not found")

	code, _, _ = runCLI(t, "--db", db, "show")
	assert.Equal(t, 2, code)
}

func TestRemove(t *testing.T) {
	db := seed(t)
	code, _, _ := runCLI(t, "--db", db, "rm", "pkg.a()", "pkg.c()", "nope")
	require.Equal(t, 0, code)
	assert.Equal(t, []string{"pkg.b()", "pkg.d()"}, listKeys(t, db))

	code, _, _ = runCLI(t, "--db", db, "rm")
	assert.Equal(t, 2, code)
}

func TestRemoveIndex(t *testing.T) {
	db := seed(t)
	code, _, _ := runCLI(t, "--db", db, "rm-index", "1")
	require.Equal(t, 0, code)
	assert.Equal(t, []string{"pkg.a()", "pkg.c()", "pkg.d()"}, listKeys(t, db))

	code, stdout, _ := runCLI(t, "--db", db, "rm-index", "42")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "out of range")
	assert.Len(t, listKeys(t, db), 3)

	code, _, _ = runCLI(t, "--db", db, "rm-index", "x")
	assert.Equal(t, 2, code)
}

func TestRemoveTag(t *testing.T) {
	db := seed(t)
	code, stdout, _ := runCLI(t, "--db", db, "rm-tag", "db")
	require.Equal(t, 0, code)
	assert.Equal(t, "deleted 2\n", stdout)
	assert.Equal(t, []string{"pkg.c()", "pkg.d()"}, listKeys(t, db))
}

func TestPrune(t *testing.T) {
	db := seed(t)

	code, stdout, _ := runCLI(t, "--db", db, "prune", "--before", base.Add(2*time.Second).Format(time.RFC3339))
	require.Equal(t, 0, code)
	assert.Equal(t, "deleted 2\n", stdout)
	assert.Equal(t, []string{"pkg.c()", "pkg.d()"}, listKeys(t, db))

	code, stdout, _ = runCLI(t, "--db", db, "prune", "--older-than", "1h")
	require.Equal(t, 0, code)
	assert.Equal(t, "deleted 2\n", stdout)
	assert.Empty(t, listKeys(t, db))
}

func TestPrune_Usage(t *testing.T) {
	db := seed(t)
	code, _, stderr := runCLI(t, "--db", db, "prune")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "exactly one")

	code, _, _ = runCLI(t, "--db", db, "prune", "--before", "yesterday")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "--db", db, "prune", "--before", base.Format(time.RFC3339), "--older-than", "1h")
	assert.Equal(t, 2, code)
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := xstore.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), xstore.WithKeyPrefix("t:"))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Store(ctx, "k1", []byte("v"), "g"))
	require.NoError(t, s.Store(ctx, "k2", []byte("v"), ""))
	require.NoError(t, s.Close())

	code, stdout, stderr := runCLI(t, "--redis", mr.Addr(), "--prefix", "t:", "ls")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "0\tk1\n1\tk2\n", stdout)

	code, stdout, _ = runCLI(t, "--redis", "redis://"+mr.Addr()+"/0", "--prefix", "t:", "rm-tag", "g")
	require.Equal(t, 0, code)
	assert.Equal(t, "deleted 1\n", stdout)

	code, _, _ = runCLI(t, "--redis", "redis://%zz", "ls")
	assert.Equal(t, 2, code)
}

func TestResolve(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
key_prefix: yo
cached:
  defaults:
    use_cache: true
  groups:
    db:
      key_args: [id]
  methods:
    report.Build:
      use_cache: false
`), 0o600))

	code, stdout, stderr := runCLI(t, "resolve", "--config", cfg, "--group", "db", "github.com/acme/report.Build")
	require.Equal(t, 0, code, stderr)

	var res resolveOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.True(t, res.Active)
	assert.False(t, res.Effective.UseCache)
	assert.Equal(t, "yo", res.Effective.KeyPrefix)
	assert.Equal(t, "include(id)", res.Policy)
	assert.Equal(t, []string{"cached.defaults", "cached.groups.db", "cached.methods.report.Build"}, res.Effective.Rules)
}

func TestResolve_MissingConfigIsDisabled(t *testing.T) {
	code, stdout, _ := runCLI(t, "--log-level", "error", "resolve", "--config",
		filepath.Join(t.TempDir(), "missing.yaml"), "pkg.F")
	require.Equal(t, 0, code)

	var res resolveOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.True(t, res.Disabled)
	assert.False(t, res.Active)
}

func TestResolve_Usage(t *testing.T) {
	code, _, _ := runCLI(t, "resolve", "pkg.F")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "--log-level", "loud", "resolve", "--config", "x.yaml", "pkg.F")
	assert.Equal(t, 2, code)
}
