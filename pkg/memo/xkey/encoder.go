package xkey

import (
	"crypto/md5" //nolint:gosec // 摘要仅用于缓存 key，与历史 key 保持兼容
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/omeyang/xmemo/pkg/memo/xbind"
)

// Digest 把参数的文本形式摘要为定长字符串。
// 相同输入必须得到相同输出。
type Digest func(text string) string

// DigestMD5 返回 32 位十六进制 MD5 摘要，是默认摘要算法。
func DigestMD5(text string) string {
	sum := md5.Sum([]byte(text)) //nolint:gosec // 非安全用途
	return hex.EncodeToString(sum[:])
}

// DigestSHA256 返回 64 位十六进制 SHA-256 摘要。
func DigestSHA256(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Formatter 返回参数值的文本形式。
type Formatter func(v any) string

// Option 定义 Encoder 的可选配置。
type Option func(*Encoder)

// WithDigest 设置摘要算法，nil 被忽略。
func WithDigest(d Digest) Option {
	return func(e *Encoder) {
		if d != nil {
			e.digest = d
		}
	}
}

// WithFormatter 设置参数的文本形式，nil 被忽略。
func WithFormatter(f Formatter) Option {
	return func(e *Encoder) {
		if f != nil {
			e.format = f
		}
	}
}

// Encoder 把选中的参数编码为指纹。构建后只读，并发安全。
type Encoder struct {
	digest Digest
	format Formatter
}

// NewEncoder 创建指纹编码器。默认使用 MD5 与 fmt.Sprint。
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		digest: DigestMD5,
		format: func(v any) string { return fmt.Sprint(v) },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Pair 是指纹中的一项。
type Pair struct {
	Name   string
	Digest string
}

// Fingerprint 是有序的 name=digest 序列。
type Fingerprint []Pair

// Fingerprint 对选中参数逐一计算摘要，保持输入顺序。
func (e *Encoder) Fingerprint(args []xbind.Arg) Fingerprint {
	fp := make(Fingerprint, len(args))
	for i, a := range args {
		fp[i] = Pair{Name: a.Name, Digest: e.digest(e.format(a.Value))}
	}
	return fp
}

// String 渲染为 "(a=..., b=...)"，空指纹渲染为 "()"。
func (f Fingerprint) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range f {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(p.Digest)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Compose 拼接完整缓存 key：[prefix.]identity(fingerprint)。
func Compose(prefix, identity string, fp Fingerprint) string {
	suffix := fp.String()
	if prefix == "" {
		return identity + suffix
	}
	return prefix + "." + identity + suffix
}
