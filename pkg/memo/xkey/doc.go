// Package xkey 从绑定后的参数派生确定性的缓存 key。
//
// 由两部分组成：
//   - [Policy]：决定哪些参数参与 key（All / Include / Exclude / None）
//   - [Encoder]：把选中参数的文本形式摘要为定长十六进制串，渲染为 "(name=digest, ...)"
//
// 完整 key 由 [Compose] 拼接：可选前缀 "prefix." + 函数标识 + 指纹后缀。
//
// # 等价性
//
// 两个参数被视为缓存等价，当且仅当它们的文本形式逐字节相同。
// 默认文本形式为 fmt.Sprint：实现 fmt.Stringer 的值使用 String()，
// map 按 key 排序输出。指针会输出地址，不适合作为 key 参数，
// 可通过 [WithFormatter] 自定义文本形式。
//
// # 确定性
//
// 相同的绑定参数、相同的策略、相同的函数标识和前缀，总是得到相同的 key 字符串。
// 这是整个缓存正确性的基础。
package xkey
