package xbind

import (
	"reflect"
	"runtime"
	"strings"
)

// Identity 返回函数值的运行时符号名。
//
// 方法值（如 b.Render）的符号名带有 "-fm" 后缀，这里会去掉，
// 使得 (*Builder).Render 的方法表达式与方法值得到相同标识。
// fn 不是函数或为 nil 时返回空字符串。
func Identity(fn any) string {
	if fn == nil {
		return ""
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	return strings.TrimSuffix(f.Name(), "-fm")
}

// Generic 报告 identity 是否来自泛型函数（或其中的闭包）。
// 运行时符号名把类型实参统一显示为 [...]，同一泛型函数的不同实例化得到相同标识。
func Generic(identity string) bool {
	return strings.Contains(identity, "[...]")
}
