// xmemoctl 是 xmemo 缓存存储的维护工具。
//
// 用法:
//
//	xmemoctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	--db         SQLite 文件路径 (默认: data/stash_data.db)
//	--redis      Redis 地址或 redis:// URL，给出时忽略 --db
//	--prefix     Redis key 前缀 (默认: xmemo:)
//	--slow       Redis 慢操作告警阈值 (默认: 200ms)
//	--log-level  日志级别 (默认: warn)
//	--log-file   日志文件，按大小滚动；为空时输出到 stderr
//
// 命令:
//
//	ls [--tag t] [--long]        按写入顺序列出 key
//	show <key>                   查看条目
//	rm <key>...                  删除 key
//	rm-index <n>                 删除 ls 输出中第 n 个 key
//	rm-tag <tag>                 删除 tag 下的全部条目
//	prune --before <RFC3339>     删除早于给定时间的条目
//	prune --older-than <dur>     删除早于 now-dur 的条目
//	resolve --config <file> [--group g] <identity>
//	                             输出函数的生效配置
//
// 退出码:
//
//	0: 成功
//	1: 执行失败
//	2: 参数错误
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// createApp 创建 CLI 应用。
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xmemoctl",
		Usage:     "xmemo 缓存存储维护工具",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagDB,
				Usage: "SQLite 文件路径",
				Value: defaultDB,
			},
			&cli.StringFlag{
				Name:  flagRedis,
				Usage: "Redis 地址或 redis:// URL",
			},
			&cli.StringFlag{
				Name:  flagPrefix,
				Usage: "Redis key 前缀",
				Value: "xmemo:",
			},
			&cli.DurationFlag{
				Name:  flagSlow,
				Usage: "Redis 慢操作告警阈值，0 关闭",
				Value: 200 * time.Millisecond,
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "日志级别 (debug/info/warn/error)",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "日志文件路径",
			},
		},
		Commands: createCommands(),
		// 退出码由 run 统一映射，不让框架直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				_, _ = fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := createApp(stdout, stderr).Run(ctx, args); err != nil {
		var usage *usageError
		if errors.As(err, &usage) {
			_, _ = fmt.Fprintf(stderr, "参数错误: %v\n", usage)
			return 2
		}
		_, _ = fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
