// Package xbind 把一次调用的位置参数、关键字参数绑定到被缓存函数声明的参数名上。
//
// # 设计理念
//
// Go 无法在运行时获取函数的参数名，因此 xbind 不做反射推断，而是在装饰期
// 由调用方显式声明参数表（[Signature]）：参数名、默认值、是否隐式接收者。
// 绑定是参数表与调用实参的纯函数，结果确定、可重复。
//
// # 绑定规则
//
//   - 位置参数按声明顺序依次绑定，多余的位置参数被忽略
//   - 未被位置参数覆盖的参数，优先取关键字参数，其次取声明的默认值
//   - 既无实参也无默认值的参数不出现在结果中（不是错误）
//   - 未声明的关键字参数被忽略
//   - 带接收者的签名（[WithReceiver]）在绑定前剥离第一个位置参数
//
// # 函数标识
//
// [Identity] 返回函数值的运行时符号名（如 "github.com/acme/app/report.(*Builder).Render"），
// 作为缓存 key 中不随调用变化的部分。
package xbind
