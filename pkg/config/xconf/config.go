package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文档格式
type Format string

// 支持的格式
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 规则表配置文档。
// 只提供加载相关的增值能力，按键读取直接使用 Client() 返回的 koanf 实例。
type Config interface {
	// Client 返回底层 koanf 实例，Reload 后会被替换。
	Client() *koanf.Koanf

	// Raw 返回整个文档的嵌套 map 副本，修改它不会影响 Config。
	Raw() map[string]any

	// Unmarshal 把 path 处的配置反序列化到 target，path 为空时反序列化整个文档。
	Unmarshal(path string, target any) error

	// Reload 重新读取文件。失败时保留旧文档。
	// 非文件来源的 Config 返回 ErrNotReloadable。
	Reload() error

	// Path 返回文件路径，非文件来源返回空字符串。
	Path() string

	// Format 返回文档格式。
	Format() Format

	// Identity 返回稳定身份：文件为绝对路径，字节或流为内容摘要。
	Identity() string
}
