// Package xmemo 按配置透明地缓存函数调用结果。
//
// 每次调用依次经过：参数绑定（xbind）→ 参数选择（xkey.Policy）→
// 指纹编码（xkey.Encoder）→ 配置解析（xrule.Resolver）→ 决策 → 存储（xstore.Store）。
//
// # 决策
//
//   - 配置未匹配或 enabled=false：直接执行，不读写存储（bypass）。
//   - reset=false 且 use_cache=true 且存储中有该 key：返回存储值，不执行（hit）。
//   - 其他情况执行函数（miss / refresh）。执行成功后总是写入存储，tag 为分组名，
//     即使 use_cache=false 或 reset=true。执行失败原样返回错误，不写入。
//
// use_cache=false 表示"不读"，不表示"不写"；reset=true 表示"重算并覆盖"。
//
// 并发调用同一 key 时可能都未命中并各自执行，后写入者生效。
//
// # 使用
//
//	m, _ := xmemo.New(store, registry.Load("cache.yaml"))
//	build := xmemo.Wrap2(m, report.Build, "id", "lang", xmemo.WithGroup("report"))
//	out, err := build(ctx, 42, "en")
//
// 结果经 Codec 序列化为字节后写入存储，默认使用 CBOR。
package xmemo
