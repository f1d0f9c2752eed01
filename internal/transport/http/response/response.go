// Package response defines the {code,msg,data} envelope every endpoint answers
// with. HTTP status stays 200; the outcome is carried in Code.
package response

type Resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// Page 分页列表的 data
type Page[T any] struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	List  []T   `json:"list"`
}

// NewPage List 为 nil 时输出 []
func NewPage[T any](total int64, page, size int, list []T) Page[T] {
	if list == nil {
		list = []T{}
	}
	return Page[T]{Total: total, Page: page, Size: size, List: list}
}

// New data 为 nil 时输出 {}
func New(code int, msg string, data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data any) Resp { return New(CodeOK, Msg(CodeOK), data) }

// Error msg 为空时取默认文案
func Error(code int, msg string) Resp {
	if msg == "" {
		msg = Msg(code)
	}
	return New(code, msg, nil)
}
