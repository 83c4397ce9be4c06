package xconf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// koanfConfig 是 Config 的 koanf 实现。
type koanfConfig struct {
	mu       sync.RWMutex
	k        *koanf.Koanf
	path     string
	identity string
	format   Format
	opts     *options
}

// New 从文件创建 Config，按扩展名识别格式（.yaml/.yml/.json）。
func New(path string, opts ...Option) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	o := applyOptions(opts)
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := parse(data, format, o)
	if err != nil {
		return nil, err
	}
	return &koanfConfig{k: k, path: abs, identity: abs, format: format, opts: o}, nil
}

// NewFromBytes 从内存数据创建 Config。空数据得到空文档。
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if !format.valid() {
		return nil, ErrUnsupportedFormat
	}
	o := applyOptions(opts)
	k, err := parse(data, format, o)
	if err != nil {
		return nil, err
	}
	return &koanfConfig{k: k, identity: ContentIdentity(data, format), format: format, opts: o}, nil
}

// NewFromReader 读取 r 的全部内容后等同于 NewFromBytes。
func NewFromReader(r io.Reader, format Format, opts ...Option) (Config, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader", ErrLoadFailed)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return NewFromBytes(data, format, opts...)
}

// ContentIdentity 返回内存文档的身份：格式加内容 xxhash。
func ContentIdentity(data []byte, format Format) string {
	return string(format) + ":" + strconv.FormatUint(xxhash.Sum64(data), 16)
}

// FileIdentity 返回文件文档的身份，即清理后的绝对路径。
func FileIdentity(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return abs, nil
}

// DetectFormat 根据扩展名识别格式。
func DetectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
}

func (c *koanfConfig) Client() *koanf.Koanf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

func (c *koanfConfig) Raw() map[string]any {
	return c.Client().Raw()
}

func (c *koanfConfig) Unmarshal(path string, target any) error {
	err := c.Client().UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.tag})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

func (c *koanfConfig) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := parse(data, c.format, c.opts)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.k = k
	c.mu.Unlock()
	return nil
}

func (c *koanfConfig) Path() string     { return c.path }
func (c *koanfConfig) Format() Format   { return c.format }
func (c *koanfConfig) Identity() string { return c.identity }

func (f Format) valid() bool {
	return f == FormatYAML || f == FormatJSON
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// parse 把数据加载到新的 koanf 实例。
func parse(data []byte, format Format, o *options) (*koanf.Koanf, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, ErrUnsupportedFormat
	}

	k := koanf.New(o.delim)
	if len(data) == 0 {
		return k, nil
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}
