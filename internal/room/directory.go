package room

import "context"

// Directory 记录会话所在的牌桌, 供网关路由和掉线处理查询
type Directory interface {
	Bind(ctx context.Context, session, tableID string) error
	Unbind(ctx context.Context, session string) error
}

type noopDirectory struct{}

func (noopDirectory) Bind(context.Context, string, string) error { return nil }
func (noopDirectory) Unbind(context.Context, string) error       { return nil }
