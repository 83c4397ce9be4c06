// Package xstore 提供缓存结果的持久化存储。
//
// [Store] 只处理不透明的字节值，序列化由上层的 Codec 负责。
// 每个条目带有可选的 tag（通常是配置分组名）与写入时间，
// 二者只用于批量删除与列举，读取时不会按时间过期。
//
// # 实现
//
//   - [NewMemory]：进程内 map，不持久化
//   - [NewSQLite]：单文件 SQLite（GORM），表 data(key, tag, value, timestamp)
//   - [NewRedis]：Redis，每个条目一个 hash，时间索引用 sorted set，tag 用 set
//
// [NewGuarded] 用熔断器包装任意实现，后端持续失败时快速返回 [ErrUnavailable]，
// 适合远端存储。
//
// 所有实现都并发安全。写入是无条件覆盖，覆盖后条目在 List 中移到末尾。
//
// # 时间
//
// 写入时间取 UTC 并截断到微秒。[Store.DeleteOlder] 删除时间严格早于 t 的条目。
// 测试中可用 [WithClock] 固定时间。
//
// # 缺失的 key
//
// Get 对缺失 key 返回 ok == false，需要错误时使用 [Require]。
package xstore
