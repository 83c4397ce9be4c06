// Package memo 提供函数结果的透明缓存。
//
// 子包列表：
//   - xbind: 参数签名与调用参数绑定
//   - xkey: 参数选择策略与缓存 key 指纹
//   - xrule: 缓存配置的解析、匹配与热加载
//   - xmemo: 缓存编排，包装函数并在调用时读写存储
package memo
