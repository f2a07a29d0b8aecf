package domain

// Outcome 是门面层的“失败隔离”结果：要么成功（Err=nil），要么空列表 + 失败原因。
//
// 约束：Items 永远不为 nil，失败时也是空切片，调用方可以直接 range/序列化。
type Outcome[T any] struct {
	Items []T
	Err   error
}

// Succeeded 构造成功结果。
func Succeeded[T any](items []T) Outcome[T] {
	if items == nil {
		items = []T{}
	}
	return Outcome[T]{Items: items}
}

// Failed 构造失败结果（Items 为空）。
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Items: []T{}, Err: err}
}

func (o Outcome[T]) OK() bool { return o.Err == nil }
