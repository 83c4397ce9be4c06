package xbind

import "fmt"

// Param 描述被缓存函数的一个参数。
type Param struct {
	// Name 参数名，在同一签名内唯一。
	Name string

	// Default 声明的默认值，仅在 HasDefault 为 true 时有效。
	// 默认值可以是 nil（对应"默认为空"的可选参数）。
	Default any

	// HasDefault 是否声明了默认值。
	HasDefault bool
}

// Required 声明一个没有默认值的参数。
func Required(name string) Param {
	return Param{Name: name}
}

// Optional 声明一个带默认值的参数。
func Optional(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// SignatureOption 定义签名的可选配置。
type SignatureOption func(*Signature)

// WithReceiver 声明第一个位置参数是隐式接收者，绑定前会被剥离。
func WithReceiver() SignatureOption {
	return func(s *Signature) {
		s.receiver = true
	}
}

// Signature 是装饰期构建的参数元数据表。
// 构建后只读，可被多个 goroutine 并发使用。
type Signature struct {
	params   []Param
	index    map[string]int
	receiver bool
}

// NewSignature 创建参数表。
// 参数名为空返回 ErrEmptyParamName，重名返回 ErrDuplicateParam。
func NewSignature(params []Param, opts ...SignatureOption) (*Signature, error) {
	s := &Signature{
		params: make([]Param, len(params)),
		index:  make(map[string]int, len(params)),
	}
	copy(s.params, params)

	for i, p := range s.params {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: position %d", ErrEmptyParamName, i)
		}
		if _, dup := s.index[p.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParam, p.Name)
		}
		s.index[p.Name] = i
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// MustSignature 与 NewSignature 相同，但失败时 panic。
// 适用于包级变量初始化。
func MustSignature(params []Param, opts ...SignatureOption) *Signature {
	s, err := NewSignature(params, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Params 返回参数表的副本。
func (s *Signature) Params() []Param {
	out := make([]Param, len(s.params))
	copy(out, s.params)
	return out
}
