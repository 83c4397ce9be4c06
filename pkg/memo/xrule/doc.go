// Package xrule 解析缓存规则并计算函数的生效配置。
//
// 规则有两种来源：
//
//   - [Flat]：装饰时直接给出 enabled/use_cache 等字段，外加 overrides 与 group_overrides 两个 map。
//   - [Document]：规则表文档，支持旧的 props 形态与分层的 cached 形态。
//
// 两者都实现 [Resolver]，输入 (group, identity)，输出 [Effective]。
//
// # props 形态
//
//	enabled: true
//	key_prefix: yo
//	refresh: false
//	props:
//	  1: {group: db, use_cache: true}
//	  2: {pattern: ".*Render", enabled: false}
//
// 规则按 key 升序检查（数字 key 按数值比较），第一个候选规则生效。
// 规则 enabled（默认 true）且 group 等于装饰分组或 pattern 匹配函数标识时成为候选。
//
// # cached 形态
//
//	cached:
//	  defaults: {use_cache: true}
//	  groups:
//	    db: {key_prefix: db}
//	  methods:
//	    report.(*Builder).Render: {key_args: [id]}
//	    ".*Export.*": {use_cache: false, match_multiple: true}
//
// 从 defaults 开始，合并 groups[group]，再合并 methods 中匹配的规则。
// 方法规则的 key 是函数标识的字面后缀，或从开头匹配的正则。
// 第一个匹配规则总是合并；之后的匹配规则只有声明 match_multiple 才合并，否则记录诊断后跳过。
//
// # 诊断
//
// 配置问题从不返回错误：未知字段使整条规则被跳过，规则中的 reset 被丢弃，
// 非法正则视为不匹配。所有问题都通过 xlog 输出，并可从 [Document.Diagnostics] 读取。
//
// reset 只能来自 [Override] 或文档顶层的 refresh，不会经由规则层级继承。
//
// # 注册表
//
// [Registry] 按身份（文件路径或内容摘要）只加载一次配置，返回稳定的 [Handle]。
// 加载失败得到永久禁用的 Handle。Invalidate、Reload、Watch 显式刷新。
package xrule
