package xmemo

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// Codec 在函数结果与存储字节之间转换。实现必须并发安全。
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// CBOR 返回默认编解码器。
func CBOR() Codec { return cborCodec{} }

// JSON 返回 JSON 编解码器，适合需要人工查看存储内容的场景。
func JSON() Codec { return jsonCodec{} }

type cborCodec struct{}

func (cborCodec) Name() string                       { return "cbor" }
func (cborCodec) Marshal(v any) ([]byte, error)      { return cbor.Marshal(v) }
func (cborCodec) Unmarshal(data []byte, v any) error { return cbor.Unmarshal(data, v) }

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
