// Package storage 提供缓存结果的持久化子包。
//
// 子包列表：
//   - xstore: 缓存条目存储，支持内存、SQLite 和 Redis 后端
//   - xstore/xstoremock: xstore 接口的 gomock 实现，供测试使用
package storage
