package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xmemo/pkg/memo/xmemo"
	"github.com/omeyang/xmemo/pkg/memo/xrule"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/storage/xstore"
)

const (
	flagDB       = "db"
	flagRedis    = "redis"
	flagPrefix   = "prefix"
	flagLogLevel = "log-level"
	flagLogFile  = "log-file"
	flagSlow     = "slow"

	defaultDB = "data/stash_data.db"
)

// usageError 表示参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func createCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "ls",
			Usage: "按写入顺序列出 key",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "tag", Usage: "只列出该 tag 的条目"},
				&cli.BoolFlag{Name: "long", Aliases: []string{"l"}, Usage: "同时输出 tag 与写入时间"},
			},
			Action: withStore(cmdList),
		},
		{
			Name:      "show",
			Usage:     "查看条目",
			ArgsUsage: "<key>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "codec", Usage: "值的编码 (cbor/json/raw)", Value: "cbor"},
			},
			Action: withStore(cmdShow),
		},
		{
			Name:      "rm",
			Usage:     "删除 key",
			ArgsUsage: "<key>...",
			Action:    withStore(cmdRemove),
		},
		{
			Name:      "rm-index",
			Usage:     "删除 ls 输出中第 n 个 key（从 0 开始）",
			ArgsUsage: "<n>",
			Action:    withStore(cmdRemoveIndex),
		},
		{
			Name:      "rm-tag",
			Usage:     "删除 tag 下的全部条目",
			ArgsUsage: "<tag>",
			Action:    withStore(cmdRemoveTag),
		},
		{
			Name:  "prune",
			Usage: "删除写入时间早于给定时间的条目",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "before", Usage: "RFC3339 时间"},
				&cli.DurationFlag{Name: "older-than", Usage: "相对当前时间的时长，如 72h"},
			},
			Action: withStore(cmdPrune),
		},
		{
			Name:      "resolve",
			Usage:     "输出函数的生效配置",
			ArgsUsage: "<identity>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "规则文件 (yaml/json)"},
				&cli.StringFlag{Name: "group", Aliases: []string{"g"}, Usage: "装饰分组"},
			},
			Action: cmdResolve,
		},
	}
}

// newLogger 按全局选项构建 Logger。
func newLogger(cmd *cli.Command) (xlog.Logger, func() error, error) {
	b := xlog.New().SetLevelString(cmd.String(flagLogLevel)).SetOutput(cmd.Root().ErrWriter)
	if f := cmd.String(flagLogFile); f != "" {
		b = b.SetRotation(f)
	}
	l, cleanup, err := b.Build()
	if err != nil {
		return nil, nil, usagef("%v", err)
	}
	return l, cleanup, nil
}

// openStore 按全局选项打开存储：给出 --redis 时使用 Redis，否则使用 SQLite。
func openStore(cmd *cli.Command, l xlog.Logger) (xstore.Store, error) {
	opts := []xstore.Option{xstore.WithLogger(l)}
	addr := cmd.String(flagRedis)
	if addr == "" {
		return xstore.NewSQLite(cmd.String(flagDB), opts...)
	}

	ropts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, usagef("invalid --redis: %v", err)
		}
		ropts = parsed
	}
	opts = append(opts,
		xstore.WithKeyPrefix(cmd.String(flagPrefix)),
		xstore.WithSlowThreshold(cmd.Duration(flagSlow)),
	)
	rs, err := xstore.NewRedis(redis.NewClient(ropts), opts...)
	if err != nil {
		return nil, err
	}
	return xstore.NewGuarded(rs, opts...)
}

type storeAction func(ctx context.Context, cmd *cli.Command, s xstore.Store) error

// withStore 为命令打开存储，结束后关闭。
func withStore(fn storeAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) (err error) {
		l, cleanup, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, cleanup()) }()

		s, err := openStore(cmd, l)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, s.Close()) }()
		return fn(ctx, cmd, s)
	}
}

func out(cmd *cli.Command) io.Writer { return cmd.Root().Writer }

func cmdList(ctx context.Context, cmd *cli.Command, s xstore.Store) error {
	keys, err := s.List(ctx, cmd.String("tag"))
	if err != nil {
		return err
	}
	inspector, canInspect := s.(xstore.Inspector)
	long := cmd.Bool("long") && canInspect

	w := out(cmd)
	for i, k := range keys {
		if !long {
			_, _ = fmt.Fprintf(w, "%d\t%s\n", i, k)
			continue
		}
		e, ok, err := inspector.Inspect(ctx, k)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, e.Timestamp.Format(time.RFC3339Nano), orDash(e.Tag), k)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func cmdShow(ctx context.Context, cmd *cli.Command, s xstore.Store) error {
	if cmd.Args().Len() != 1 {
		return usagef("show: want exactly one key")
	}
	key := cmd.Args().First()

	var e xstore.Entry
	if in, ok := s.(xstore.Inspector); ok {
		entry, found, err := in.Inspect(ctx, key)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", xstore.ErrNotFound, key)
		}
		e = entry
	} else {
		v, err := xstore.Require(ctx, s, key)
		if err != nil {
			return err
		}
		e = xstore.Entry{Key: key, Value: v}
	}

	w := out(cmd)
	_, _ = fmt.Fprintf(w, "key:       %s\n", e.Key)
	_, _ = fmt.Fprintf(w, "tag:       %s\n", orDash(e.Tag))
	if !e.Timestamp.IsZero() {
		_, _ = fmt.Fprintf(w, "timestamp: %s\n", e.Timestamp.Format(time.RFC3339Nano))
	}
	_, _ = fmt.Fprintf(w, "size:      %d\n", len(e.Value))
	_, _ = fmt.Fprintf(w, "value:     %s\n", renderValue(cmd.String("codec"), e.Value))
	return nil
}

// renderValue 解码值用于展示，解码失败时输出十六进制。
func renderValue(codec string, data []byte) string {
	var c xmemo.Codec
	switch codec {
	case "cbor":
		c = xmemo.CBOR()
	case "json":
		c = xmemo.JSON()
	default:
		return hex.EncodeToString(data)
	}
	var v any
	if err := c.Unmarshal(data, &v); err != nil {
		return hex.EncodeToString(data)
	}
	return fmt.Sprintf("%v", v)
}

func cmdRemove(ctx context.Context, cmd *cli.Command, s xstore.Store) error {
	if cmd.Args().Len() == 0 {
		return usagef("rm: want at least one key")
	}
	for _, k := range cmd.Args().Slice() {
		if err := s.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func cmdRemoveIndex(ctx context.Context, cmd *cli.Command, s xstore.Store) error {
	if cmd.Args().Len() != 1 {
		return usagef("rm-index: want exactly one index")
	}
	n, err := strconv.Atoi(cmd.Args().First())
	if err != nil {
		return usagef("rm-index: invalid index %q", cmd.Args().First())
	}
	ok, err := xstore.DeleteByIndex(ctx, s, n)
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintf(out(cmd), "index %d out of range\n", n)
	}
	return nil
}

func cmdRemoveTag(ctx context.Context, cmd *cli.Command, s xstore.Store) error {
	if cmd.Args().Len() != 1 {
		return usagef("rm-tag: want exactly one tag")
	}
	n, err := s.DeleteByTag(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out(cmd), "deleted %d\n", n)
	return nil
}

func cmdPrune(ctx context.Context, cmd *cli.Command, s xstore.Store) error {
	before, err := pruneCutoff(cmd, time.Now())
	if err != nil {
		return err
	}
	n, err := s.DeleteOlder(ctx, before)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out(cmd), "deleted %d\n", n)
	return nil
}

// pruneCutoff 从 --before 或 --older-than 计算截止时间，两者必须且只能给出一个。
func pruneCutoff(cmd *cli.Command, now time.Time) (time.Time, error) {
	hasBefore, hasAge := cmd.IsSet("before"), cmd.IsSet("older-than")
	switch {
	case hasBefore == hasAge:
		return time.Time{}, usagef("prune: want exactly one of --before or --older-than")
	case hasBefore:
		t, err := time.Parse(time.RFC3339Nano, cmd.String("before"))
		if err != nil {
			return time.Time{}, usagef("prune: invalid --before: %v", err)
		}
		return t, nil
	default:
		age := cmd.Duration("older-than")
		if age < 0 {
			return time.Time{}, usagef("prune: negative --older-than")
		}
		return now.Add(-age), nil
	}
}

// resolveOutput 是 resolve 命令的 JSON 输出。
type resolveOutput struct {
	Identity    string          `json:"identity"`
	Config      string          `json:"config"`
	Disabled    bool            `json:"disabled,omitempty"`
	Active      bool            `json:"active"`
	Policy      string          `json:"policy"`
	Effective   xrule.Effective `json:"effective"`
	Diagnostics []string        `json:"diagnostics,omitempty"`
}

func cmdResolve(_ context.Context, cmd *cli.Command) (err error) {
	path := cmd.String("config")
	if path == "" {
		return usagef("resolve: --config is required")
	}
	if cmd.Args().Len() != 1 {
		return usagef("resolve: want exactly one identity")
	}

	l, cleanup, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, cleanup()) }()

	reg, err := xrule.NewRegistry(xrule.WithLogger(l))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, reg.Close()) }()

	h := reg.Load(path)
	identity := cmd.Args().First()
	eff := h.Resolve(cmd.String("group"), identity)

	res := resolveOutput{
		Identity:    identity,
		Config:      h.Identity(),
		Disabled:    h.Disabled(),
		Active:      eff.Active(),
		Policy:      eff.Policy().String(),
		Effective:   eff,
		Diagnostics: h.Document().Diagnostics(),
	}
	enc := json.NewEncoder(out(cmd))
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
