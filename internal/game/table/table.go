// Package table 单张牌桌的状态机. 所有修改都在牌桌互斥锁内串行执行,
// 产生的事件在同一把锁内按顺序交给 Sink, 保证同桌事件有序.
package table

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sudooom.im.mahjong/internal/game"
	"sudooom.im.mahjong/internal/game/analyzer"
	"sudooom.im.mahjong/internal/game/claim"
	"sudooom.im.mahjong/internal/game/core"
	"sudooom.im.mahjong/internal/game/event"
)

const (
	// DefaultClaimTimeout 吃碰杠胡窗口时长
	DefaultClaimTimeout = 10 * time.Second
	// InitialHandSize 每人起手张数, 庄家另加一张
	InitialHandSize = 13
	// FullHandSize 出牌前的手牌数
	FullHandSize = InitialHandSize + 1
	// MinWallSize 发完牌所需的最少张数
	MinWallSize = InitialHandSize*core.SeatCount + 1
)

// Options 牌桌依赖
type Options struct {
	ClaimTimeout time.Duration
	Timer        Timer
	Sink         event.Sink
	Deck         func() []core.Tile
	WinChecker   analyzer.WinChecker
	Now          func() time.Time
}

func (o *Options) setDefaults() {
	if o.ClaimTimeout <= 0 {
		o.ClaimTimeout = DefaultClaimTimeout
	}
	if o.Timer == nil {
		o.Timer = stdTimer{}
	}
	if o.Sink == nil {
		o.Sink = event.Discard
	}
	if o.Deck == nil {
		o.Deck = core.ShuffledDeck
	}
	if o.WinChecker == nil {
		o.WinChecker = analyzer.Pure
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type discardRef struct {
	seat int
	tile core.Tile
}

// Table 牌桌
type Table struct {
	mu     sync.Mutex
	id     string
	opts   Options
	logger *slog.Logger

	seats  [core.SeatCount]*Player
	phase  Phase
	wall   []core.Tile
	pool   []core.Tile
	turn   int
	dealer int
	round  int
	// wallDrawn 当前出牌者的第 14 张来自牌墙 (起手、摸牌、杠后补牌), 吃碰后为 false
	wallDrawn bool

	arbiter     *claim.Arbiter
	lastDiscard discardRef
	cancelClaim func()
	claimGen    uint64

	created    bool
	closed     bool
	seq        uint64
	outbox     []event.Event
	lastActive time.Time
}

// New 创建空牌桌
func New(id string, opts Options) *Table {
	opts.setDefaults()
	return &Table{
		id:         id,
		opts:       opts,
		logger:     slog.Default().With("component", "Table", "tableId", id),
		phase:      PhaseSeating,
		arbiter:    claim.NewArbiter(opts.Now),
		lastActive: opts.Now(),
	}
}

// ID 牌桌号
func (t *Table) ID() string {
	return t.id
}

// LastActive 最后一次产生事件的时间
func (t *Table) LastActive() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActive
}

// Snapshot 牌桌概况, 供管理接口使用
type Snapshot struct {
	ID            string           `json:"id"`
	Phase         Phase            `json:"phase"`
	Round         int              `json:"round"`
	Dealer        int              `json:"dealer"`
	Turn          int              `json:"turn"`
	WallRemaining int              `json:"wallRemaining"`
	PoolSize      int              `json:"poolSize"`
	Seats         []event.SeatInfo `json:"seats"`
	LastActive    time.Time        `json:"lastActive"`
}

// Snapshot 获取概况
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		ID:            t.id,
		Phase:         t.phase,
		Round:         t.round,
		Dealer:        t.dealer,
		Turn:          t.turn,
		WallRemaining: len(t.wall),
		PoolSize:      len(t.pool),
		Seats:         t.seatInfos(),
		LastActive:    t.lastActive,
	}
}

// Close 回收牌桌, 取消超时任务, 之后所有操作返回 TABLE_NOT_FOUND
func (t *Table) Close(ctx context.Context, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(ctx)

	if t.closed {
		return
	}
	t.stopClaimTimer()
	t.arbiter.Close()
	if t.seated() > 0 {
		t.toAll(event.TypeTableClosed, event.TableClosed{TableID: t.id, Reason: reason})
	}
	t.closed = true
	t.logger.Info("Table closed", "reason", reason)
}

// actor 找到请求者的座位
func (t *Table) actor(session string) (*Player, error) {
	if t.closed {
		return nil, game.ErrTableNotFound
	}
	for _, p := range t.seats {
		if p != nil && p.Session == session {
			return p, nil
		}
	}
	return nil, game.ErrNotSeated
}

// onTurn 检查阶段与回合
func (t *Table) onTurn(p *Player, phase Phase) error {
	if t.phase != phase {
		return game.ErrInvalidPhase.
			WithContext("phase", t.phase.String()).
			WithContext("expected", phase.String())
	}
	if t.turn != p.Seat {
		return game.ErrNotYourTurn.WithContext("turn", t.turn)
	}
	return nil
}

func (t *Table) seated() int {
	n := 0
	for _, p := range t.seats {
		if p != nil {
			n++
		}
	}
	return n
}

// hostSeat 房主是座位号最小的在座玩家
func (t *Table) hostSeat() int {
	for _, p := range t.seats {
		if p != nil {
			return p.Seat
		}
	}
	return -1
}

func (t *Table) sessions() []string {
	out := make([]string, 0, core.SeatCount)
	for _, p := range t.seats {
		if p != nil {
			out = append(out, p.Session)
		}
	}
	return out
}

func (t *Table) seatInfos() []event.SeatInfo {
	host := t.hostSeat()
	out := make([]event.SeatInfo, 0, core.SeatCount)
	for _, p := range t.seats {
		if p != nil {
			out = append(out, p.info(p.Seat == host))
		}
	}
	return out
}

func (t *Table) views() []claim.SeatView {
	out := make([]claim.SeatView, 0, core.SeatCount)
	for _, p := range t.seats {
		if p != nil {
			out = append(out, claim.SeatView{Seat: p.Seat, Concealed: p.Hand, Melds: p.Melds})
		}
	}
	return out
}

func (t *Table) emit(ev event.Event) {
	t.seq++
	ev.Seq = t.seq
	ev.TableID = t.id
	ev.At = t.opts.Now()
	t.lastActive = ev.At
	t.outbox = append(t.outbox, ev)
}

func (t *Table) toSeat(p *Player, typ event.Type, payload any) {
	t.emit(event.ToSession(typ, p.Session, payload))
}

func (t *Table) toAll(typ event.Type, payload any) {
	t.emit(event.ToTable(typ, t.sessions(), payload))
}

// flush 在持锁状态下把本次操作产生的事件交给 Sink
func (t *Table) flush(ctx context.Context) {
	if len(t.outbox) == 0 {
		return
	}
	events := t.outbox
	t.outbox = nil
	if err := t.opts.Sink.Publish(ctx, events); err != nil {
		t.logger.Warn("Failed to publish table events", "count", len(events), "error", err)
	}
}
