// Package room 牌桌注册表: 按牌桌号管理 Table 实例的创建、入座、离座与回收.
package room

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"sudooom.im.mahjong/internal/game"
	"sudooom.im.mahjong/internal/game/table"
)

const (
	// ReasonIdle 超时未活跃被回收
	ReasonIdle = "idle"
	// ReasonShutdown 服务关闭
	ReasonShutdown = "shutdown"
)

// Options 注册表配置
type Options struct {
	MaxTables     int           // 同时存在的牌桌上限, <=0 不限制
	IdleTimeout   time.Duration // 超过该时长没有事件的牌桌被回收, <=0 不回收
	EvictInterval time.Duration // 回收检查间隔
	Table         table.Options // 新牌桌的依赖
	Directory     Directory
}

// Registry 牌桌注册表
//
// 使用示例：
//
//	reg := NewRegistry(Options{MaxTables: 1000, IdleTimeout: 30 * time.Minute})
//	id, seat, err := reg.Create(ctx, session, name)
//	tbl, err := reg.TableOf(session)
type Registry struct {
	mu       sync.Mutex // 保护牌桌数量检查与会话占位
	tables   sync.Map   // tableID -> *table.Table
	sessions sync.Map   // session -> tableID
	count    int

	opts   Options
	stop   chan struct{}
	done   chan struct{}
	logger *slog.Logger
}

// NewRegistry 创建注册表, 配置了 IdleTimeout 时启动回收协程
func NewRegistry(opts Options) *Registry {
	if opts.Directory == nil {
		opts.Directory = noopDirectory{}
	}
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = time.Minute
	}
	r := &Registry{
		opts:   opts,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "Registry"),
	}
	if opts.IdleTimeout > 0 {
		go r.evictLoop()
	} else {
		close(r.done)
	}
	return r
}

// Create 建桌并让创建者坐 0 号位
func (r *Registry) Create(ctx context.Context, session, name string) (string, int, error) {
	r.mu.Lock()
	if r.opts.MaxTables > 0 && r.count >= r.opts.MaxTables {
		r.mu.Unlock()
		return "", -1, game.ErrTableLimit.WithContext("max", r.opts.MaxTables)
	}

	id := NewTableID()
	for {
		if _, exists := r.tables.Load(id); !exists {
			break
		}
		id = NewTableID()
	}
	if _, seated := r.sessions.LoadOrStore(session, id); seated {
		r.mu.Unlock()
		return "", -1, game.ErrAlreadySeated
	}
	t := table.New(id, r.opts.Table)
	r.tables.Store(id, t)
	r.count++
	r.mu.Unlock()

	seat, err := t.Join(ctx, session, name)
	if err != nil {
		r.sessions.Delete(session)
		r.remove(id)
		return "", -1, err
	}
	r.bind(ctx, session, id)

	r.logger.Info("Table created", "tableId", id, "session", session)
	return id, seat, nil
}

// Join 加入已有牌桌
func (r *Registry) Join(ctx context.Context, tableID, session, name string) (int, error) {
	t, ok := r.Get(strings.ToUpper(tableID))
	if !ok {
		return -1, game.ErrTableNotFound.WithContext("tableId", tableID)
	}
	if _, seated := r.sessions.LoadOrStore(session, t.ID()); seated {
		return -1, game.ErrAlreadySeated
	}

	seat, err := t.Join(ctx, session, name)
	if err != nil {
		r.sessions.Delete(session)
		return -1, err
	}
	r.bind(ctx, session, t.ID())
	return seat, nil
}

// Leave 离座, 最后一人离开时回收牌桌
func (r *Registry) Leave(ctx context.Context, session string) error {
	t, err := r.TableOf(session)
	if err != nil {
		return err
	}

	remaining, err := t.Leave(ctx, session)
	if err != nil {
		return err
	}
	r.sessions.Delete(session)
	r.unbind(ctx, session)

	if remaining == 0 {
		r.remove(t.ID())
		r.logger.Info("Table destroyed, last player left", "tableId", t.ID())
	}
	return nil
}

// TableOf 会话当前所在的牌桌
func (r *Registry) TableOf(session string) (*table.Table, error) {
	id, ok := r.sessions.Load(session)
	if !ok {
		return nil, game.ErrNotSeated
	}
	t, ok := r.Get(id.(string))
	if !ok {
		r.sessions.Delete(session)
		return nil, game.ErrTableNotFound
	}
	return t, nil
}

// Get 按牌桌号获取
func (r *Registry) Get(tableID string) (*table.Table, bool) {
	val, ok := r.tables.Load(tableID)
	if !ok {
		return nil, false
	}
	return val.(*table.Table), true
}

// Count 当前牌桌数
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Snapshots 所有牌桌概况, 按牌桌号排序
func (r *Registry) Snapshots() []table.Snapshot {
	var out []table.Snapshot
	r.tables.Range(func(_, value any) bool {
		out = append(out, value.(*table.Table).Snapshot())
		return true
	})
	slices.SortFunc(out, func(a, b table.Snapshot) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (r *Registry) remove(tableID string) {
	if _, loaded := r.tables.LoadAndDelete(tableID); loaded {
		r.mu.Lock()
		r.count--
		r.mu.Unlock()
	}
}

// destroy 强制关闭牌桌并释放所有会话
func (r *Registry) destroy(ctx context.Context, t *table.Table, reason string) {
	seats := t.Snapshot().Seats
	t.Close(ctx, reason)
	for _, s := range seats {
		r.sessions.CompareAndDelete(s.Session, t.ID())
		r.unbind(ctx, s.Session)
	}
	r.remove(t.ID())
}

func (r *Registry) bind(ctx context.Context, session, tableID string) {
	if err := r.opts.Directory.Bind(ctx, session, tableID); err != nil {
		r.logger.Warn("Failed to bind session", "session", session, "tableId", tableID, "error", err)
	}
}

func (r *Registry) unbind(ctx context.Context, session string) {
	if err := r.opts.Directory.Unbind(ctx, session); err != nil {
		r.logger.Warn("Failed to unbind session", "session", session, "error", err)
	}
}

func (r *Registry) evictLoop() {
	defer close(r.done)

	ticker := time.NewTicker(r.opts.EvictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.EvictIdle(context.Background(), now)
		}
	}
}

// EvictIdle 回收在 now 之前 IdleTimeout 内没有活动的牌桌, 返回回收数量
func (r *Registry) EvictIdle(ctx context.Context, now time.Time) int {
	var idle []*table.Table
	r.tables.Range(func(_, value any) bool {
		t := value.(*table.Table)
		if now.Sub(t.LastActive()) > r.opts.IdleTimeout {
			idle = append(idle, t)
		}
		return true
	})

	for _, t := range idle {
		r.destroy(ctx, t, ReasonIdle)
		r.logger.Info("Evicted idle table", "tableId", t.ID())
	}
	return len(idle)
}

// Shutdown 停止回收协程并关闭所有牌桌
func (r *Registry) Shutdown(ctx context.Context) error {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}

	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.tables.Range(func(_, value any) bool {
		r.destroy(ctx, value.(*table.Table), ReasonShutdown)
		return true
	})
	r.logger.Info("Registry shutdown complete")
	return nil
}
