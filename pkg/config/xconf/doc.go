// Package xconf 加载规则表配置文档。
//
// 基于 koanf，支持 YAML 与 JSON 两种格式，数据可来自文件、字节或 io.Reader。
// 上层（xrule）通过 [Config.Raw] 取得嵌套 map 后自行解析规则。
//
// # 身份
//
// 每个 Config 都有稳定的 [Config.Identity]：
//   - 文件：清理后的绝对路径
//   - 字节或流：格式加内容的 xxhash 摘要，相同内容得到相同身份
//
// 注册表按身份去重，保证同一份配置只解析一次。
//
// # 热加载
//
// 只有文件来源的 Config 支持 [Config.Reload] 与 [Watch]。
// Watch 监视文件所在目录而非文件本身，编辑器"写临时文件再 rename"的保存方式也能触发重载。
//
//	cfg, err := xconf.New("/etc/xmemo/rules.yaml")
//	if err != nil {
//		return err
//	}
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
//		// err 非 nil 表示重载失败，旧配置保持不变
//	})
//	if err != nil {
//		return err
//	}
//	w.StartAsync()
//	defer w.Stop()
package xconf
