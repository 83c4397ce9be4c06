package xkey

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omeyang/xmemo/pkg/memo/xbind"
)

// plainDigest 直接返回文本形式，便于断言指纹内容。
func plainDigest(text string) string { return text }

var (
	withArgs = xbind.MustSignature([]xbind.Param{
		xbind.Required("a"), xbind.Required("b"), xbind.Required("c"),
	})

	withKwargs = xbind.MustSignature([]xbind.Param{
		xbind.Optional("x", nil), xbind.Optional("y", nil), xbind.Optional("z", nil),
	})

	withBoth = xbind.MustSignature([]xbind.Param{
		xbind.Required("arg1"), xbind.Required("arg2"),
		xbind.Optional("kwarg1", nil), xbind.Optional("kwarg2", nil),
	})
)

func render(sig *xbind.Signature, call xbind.Call, p Policy) string {
	enc := NewEncoder(WithDigest(plainDigest))
	return enc.Fingerprint(p.Select(sig.Bind(call))).String()
}

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name    string
		keyArgs []string
		ignore  []string
		want    Kind
	}{
		{"nothing supplied", nil, nil, KindAll},
		{"explicit empty key args", []string{}, nil, KindNone},
		{"explicit empty key args beats ignore", []string{}, []string{"a"}, KindNone},
		{"key args", []string{"a"}, nil, KindInclude},
		{"key args beat ignore", []string{"a"}, []string{"b"}, KindInclude},
		{"ignore", nil, []string{"a"}, KindExclude},
		{"empty ignore", nil, []string{}, KindExclude},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPolicy(tt.keyArgs, tt.ignore).Kind())
		})
	}
}

func TestPolicy_UseAll(t *testing.T) {
	assert.Equal(t, "(a=x, b=y, c=z)",
		render(withArgs, xbind.Positional("x", "y", "z"), All()))
	assert.Equal(t, "(x=_X_, y=_Y_, z=<nil>)",
		render(withKwargs, xbind.Call{Kwargs: map[string]any{"x": "_X_", "y": "_Y_"}}, All()))
	assert.Equal(t, "(arg1=v1, arg2=v2, kwarg1=1, kwarg2=2)",
		render(withBoth, xbind.Call{
			Args:   []any{"v1", "v2"},
			Kwargs: map[string]any{"kwarg1": 1, "kwarg2": 2},
		}, NewPolicy(nil, []string{})))
}

func TestPolicy_NoArgs(t *testing.T) {
	none := NewPolicy([]string{}, nil)
	assert.Equal(t, "()", render(withArgs, xbind.Call{}, none))
	assert.Equal(t, "()", render(withKwargs, xbind.Call{}, none))
	assert.Equal(t, "()", render(withBoth, xbind.Positional("a", "b", "c", "d"), none))
}

func TestPolicy_UseSome(t *testing.T) {
	assert.Equal(t, "(a=first)", render(withArgs, xbind.Call{
		Args:   []any{"first", "second", "third"},
		Kwargs: map[string]any{"hello": 1},
	}, Include("a")))

	assert.Equal(t, "(arg1=arg1v, kwarg1=v)", render(withBoth, xbind.Call{
		Args:   []any{"arg1v"},
		Kwargs: map[string]any{"kwarg1": "v"},
	}, Include("arg1", "kwarg1")))
}

func TestPolicy_IncludeUsesListOrder(t *testing.T) {
	assert.Equal(t, "(c=3, a=1)", render(withArgs, xbind.Positional(1, 2, 3), Include("c", "a")))
}

func TestPolicy_IgnoreSome(t *testing.T) {
	assert.Equal(t, "(c=3)", render(withArgs, xbind.Positional("1", "2", "3"), Exclude("a", "b")))
	assert.Equal(t, "(x=3, y=2)", render(withKwargs,
		xbind.Call{Kwargs: map[string]any{"x": 3, "y": 2}}, Exclude("z")))
	assert.Equal(t, "(arg2=hello, kwarg2=kw2)", render(withBoth, xbind.Call{
		Args:   []any{"yo", "hello"},
		Kwargs: map[string]any{"kwarg1": "kw1", "kwarg2": "kw2"},
	}, Exclude("arg1", "kwarg1")))
}

func TestPolicy_UnknownNames(t *testing.T) {
	assert.Equal(t, "()", render(withArgs, xbind.Call{}, NewPolicy([]string{"a1", "b1"}, []string{"yes"})))
}

func TestPolicy_SelectDoesNotMutateBound(t *testing.T) {
	b := withArgs.Bind(xbind.Positional(1, 2, 3))
	_ = Exclude("a").Select(b)
	assert.Equal(t, []string{"a", "b", "c"}, b.Names())
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "all", Policy{}.String())
	assert.Equal(t, "none", Include().String())
	assert.Equal(t, "include(a,hello)", Include("a", "hello").String())
	assert.Equal(t, "exclude(kwarg1)", Exclude("kwarg1").String())
}

func TestEncoder_ScenarioKeyArgs(t *testing.T) {
	sig := xbind.MustSignature([]xbind.Param{
		xbind.Required("a"), xbind.Required("b"),
		xbind.Optional("hello", "yo"), xbind.Optional("sup", nil),
	})
	call := xbind.Call{Args: []any{"0", "1"}, Kwargs: map[string]any{"sup": "sup yo"}}

	fp := NewEncoder().Fingerprint(Include("a", "hello").Select(sig.Bind(call)))
	want := fmt.Sprintf("(a=%s, hello=%s)", DigestMD5("0"), DigestMD5("yo"))
	assert.Equal(t, want, fp.String())
}

func TestEncoder_DigestLength(t *testing.T) {
	assert.Len(t, DigestMD5("anything"), 32)
	assert.Len(t, DigestSHA256("anything"), 64)
	assert.Equal(t, DigestMD5("same"), DigestMD5("same"))
	assert.NotEqual(t, DigestMD5("same"), DigestMD5("Same"))
}

type point struct{ x, y int }

func (p point) String() string { return fmt.Sprintf("P(%d,%d)", p.x, p.y) }

func TestEncoder_TextualEquivalence(t *testing.T) {
	enc := NewEncoder()

	// 文本形式相同即视为等价，不比较类型
	a := enc.Fingerprint([]xbind.Arg{{Name: "v", Value: 1}})
	b := enc.Fingerprint([]xbind.Arg{{Name: "v", Value: "1"}})
	assert.Equal(t, a, b)

	// map 按 key 排序输出，迭代顺序不影响结果
	m1 := map[string]int{"a": 1, "b": 2, "c": 3}
	m2 := map[string]int{"c": 3, "b": 2, "a": 1}
	assert.Equal(t,
		enc.Fingerprint([]xbind.Arg{{Name: "m", Value: m1}}),
		enc.Fingerprint([]xbind.Arg{{Name: "m", Value: m2}}))

	// Stringer 使用 String()
	p := enc.Fingerprint([]xbind.Arg{{Name: "p", Value: point{1, 2}}})
	assert.Equal(t, DigestMD5("P(1,2)"), p[0].Digest)
}

func TestEncoder_CustomFormatter(t *testing.T) {
	enc := NewEncoder(
		WithDigest(plainDigest),
		WithFormatter(func(v any) string { return strings.ToUpper(fmt.Sprint(v)) }),
		WithDigest(nil),
	)
	fp := enc.Fingerprint([]xbind.Arg{{Name: "s", Value: "abc"}})
	assert.Equal(t, "(s=ABC)", fp.String())
}

func TestCompose(t *testing.T) {
	fp := Fingerprint{{Name: "a", Digest: "d1"}}
	assert.Equal(t, "pkg.F(a=d1)", Compose("", "pkg.F", fp))
	assert.Equal(t, "yo.pkg.F(a=d1)", Compose("yo", "pkg.F", fp))
	assert.Equal(t, "pkg.F()", Compose("", "pkg.F", nil))
}

func TestCompose_Deterministic(t *testing.T) {
	enc := NewEncoder()
	policy := All()
	call := xbind.Call{Args: []any{"v1", "v2"}, Kwargs: map[string]any{"kwarg2": []int{1, 2}}}

	first := Compose("p", "pkg.F", enc.Fingerprint(policy.Select(withBoth.Bind(call))))
	for range 50 {
		got := Compose("p", "pkg.F", enc.Fingerprint(policy.Select(withBoth.Bind(call))))
		assert.Equal(t, first, got)
	}
}
