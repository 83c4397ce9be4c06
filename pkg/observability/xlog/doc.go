// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、文件轮转）
//   - 强制 context 传递，方法签名只接受 slog.Attr
//   - 动态级别调整（运行时热更新）
//   - 缓存领域的便捷属性：[CacheKey]、[Group]、[Function]、[Rule]、[Outcome]
//   - 全局 Logger 便利函数
//
// # 创建 Logger
//
// Builder 采用 first-error-wins：遇到第一个配置错误后，后续 Set 操作的错误被忽略，
// Build 返回该错误。
//
//	logger, cleanup, err := xlog.New().
//		SetLevel(xlog.LevelDebug).
//		SetFormat("json").
//		SetRotation("/var/log/xmemo/xmemo.log").
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// # 静默 Logger
//
// 库内部组件在未注入 Logger 时使用 [Discard]，不会向 stderr 输出任何内容。
//
// # 文件轮转
//
// [Builder.SetRotation] 基于 lumberjack 按大小轮转，cleanup 函数负责关闭文件。
package xlog
