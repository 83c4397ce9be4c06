package xbind

// Call 表示一次调用的实参。
type Call struct {
	// Args 位置参数。
	Args []any

	// Kwargs 关键字参数。
	Kwargs map[string]any
}

// Positional 以位置参数构造 Call。
func Positional(args ...any) Call {
	return Call{Args: args}
}

// Arg 是绑定结果中的一项。
type Arg struct {
	Name  string
	Value any
}

// Bound 是按声明顺序排列的绑定结果。
// 只在单次调用内使用，不会被持久化。
type Bound struct {
	args  []Arg
	index map[string]int
}

// Bind 把调用实参绑定到参数表。
func (s *Signature) Bind(call Call) Bound {
	positional := call.Args
	if s.receiver && len(positional) > 0 {
		positional = positional[1:]
	}

	b := Bound{
		args:  make([]Arg, 0, len(s.params)),
		index: make(map[string]int, len(s.params)),
	}

	for i, p := range s.params {
		var (
			v  any
			ok bool
		)
		switch {
		case i < len(positional):
			v, ok = positional[i], true
		default:
			v, ok = call.Kwargs[p.Name]
			if !ok && p.HasDefault {
				v, ok = p.Default, true
			}
		}
		if !ok {
			continue
		}
		b.index[p.Name] = len(b.args)
		b.args = append(b.args, Arg{Name: p.Name, Value: v})
	}
	return b
}

// Get 按参数名取值。
func (b Bound) Get(name string) (any, bool) {
	i, ok := b.index[name]
	if !ok {
		return nil, false
	}
	return b.args[i].Value, true
}

// Args 返回按声明顺序排列的绑定项副本。
func (b Bound) Args() []Arg {
	out := make([]Arg, len(b.args))
	copy(out, b.args)
	return out
}

// Names 返回已绑定的参数名，按声明顺序。
func (b Bound) Names() []string {
	names := make([]string, len(b.args))
	for i, a := range b.args {
		names[i] = a.Name
	}
	return names
}
