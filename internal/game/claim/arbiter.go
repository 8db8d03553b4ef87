package claim

import (
	"slices"
	"time"

	"sudooom.im.mahjong/internal/game"
	"sudooom.im.mahjong/internal/game/core"
)

// Pending 挂起中的请求
type Pending struct {
	Seat        int
	Kind        Kind
	Combination []core.Tile // 仅吃牌时有值
	At          time.Time
}

// Outcome 仲裁结论
type Outcome uint8

const (
	// OutcomeWaiting 仍有未表态且优先级更高的座位
	OutcomeWaiting Outcome = iota
	// OutcomeHonored 请求成立, 窗口关闭
	OutcomeHonored
	// OutcomeAllPassed 所有人都过, 窗口关闭
	OutcomeAllPassed
)

// Resolution 一次请求、过或超时之后的结果
type Resolution struct {
	Outcome    Outcome
	Claim      Pending  // OutcomeHonored 时有效
	Superseded *Pending // 本次请求挤掉的挂起请求
	Withdrawn  bool     // 挂起者自己选择了过
}

// Arbiter 单张弃牌的请求仲裁, 只有一个挂起槽位.
// 本身不加锁, 由所属牌桌串行调用.
type Arbiter struct {
	open      bool
	discarder int
	tile      core.Tile
	options   [core.SeatCount]*Option
	passed    [core.SeatCount]bool
	pending   *Pending
	now       func() time.Time
}

// NewArbiter 创建仲裁器
func NewArbiter(now func() time.Time) *Arbiter {
	if now == nil {
		now = time.Now
	}
	return &Arbiter{now: now}
}

// Open 为一张新弃牌打开请求窗口, 之前的状态全部丢弃
func (a *Arbiter) Open(discarder int, tile core.Tile, options []Option) {
	a.Close()
	a.open = true
	a.discarder = discarder
	a.tile = tile
	for i := range options {
		opt := options[i]
		a.options[opt.Seat] = &opt
	}
}

// Close 关闭窗口, 丢弃挂起请求
func (a *Arbiter) Close() {
	a.open = false
	a.pending = nil
	a.options = [core.SeatCount]*Option{}
	a.passed = [core.SeatCount]bool{}
}

// IsOpen 窗口是否打开
func (a *Arbiter) IsOpen() bool {
	return a.open
}

// Discarder 出牌座位
func (a *Arbiter) Discarder() int {
	return a.discarder
}

// Tile 当前弃牌
func (a *Arbiter) Tile() core.Tile {
	return a.tile
}

// Pending 当前挂起的请求
func (a *Arbiter) Pending() (Pending, bool) {
	if a.pending == nil {
		return Pending{}, false
	}
	return *a.pending, true
}

// Option 某座位的可做请求
func (a *Arbiter) Option(seat int) (Option, bool) {
	if !core.ValidSeat(seat) || a.options[seat] == nil {
		return Option{}, false
	}
	return *a.options[seat], true
}

// Request 处理请求. 没有挂起请求、请求者自己持有槽位、或者优先级严格更高时接受,
// 否则返回 ClaimConflict. 接受后若没有未表态的更高优先级座位, 立即成立.
func (a *Arbiter) Request(seat int, kind Kind, combination []core.Tile) (Resolution, error) {
	if !a.open {
		return Resolution{}, game.ErrNoClaimWindow
	}
	opt, ok := a.Option(seat)
	if !ok || !opt.Allows(kind) {
		return Resolution{}, game.ErrClaimNotEligible.
			WithContext("seat", seat).
			WithContext("kind", kind.String())
	}
	if a.passed[seat] {
		return Resolution{}, game.ErrAlreadyPassed
	}

	var combo []core.Tile
	if kind == KindSequence {
		var err error
		if combo, err = pickSequence(opt, combination); err != nil {
			return Resolution{}, err
		}
	}

	if a.pending != nil && a.pending.Seat != seat && kind.Priority() <= a.pending.Kind.Priority() {
		return Resolution{}, game.ErrClaimConflict.
			WithContext("pendingKind", a.pending.Kind.String()).
			WithContext("requestedKind", kind.String())
	}

	var superseded *Pending
	if a.pending != nil && a.pending.Seat != seat {
		prev := *a.pending
		superseded = &prev
	}
	a.pending = &Pending{Seat: seat, Kind: kind, Combination: combo, At: a.now()}

	res := a.resolve()
	res.Superseded = superseded
	return res, nil
}

// Pass 表态不要. 挂起者过等于撤回自己的请求.
func (a *Arbiter) Pass(seat int) (Resolution, error) {
	if !a.open {
		return Resolution{}, game.ErrNoClaimWindow
	}
	if _, ok := a.Option(seat); !ok {
		return Resolution{}, game.ErrNoClaimWindow.WithContext("seat", seat)
	}
	if a.passed[seat] {
		return Resolution{}, game.ErrAlreadyPassed
	}

	a.passed[seat] = true
	withdrawn := false
	if a.pending != nil && a.pending.Seat == seat {
		a.pending = nil
		withdrawn = true
	}

	res := a.resolve()
	res.Withdrawn = withdrawn
	return res, nil
}

// Expire 超时: 有挂起请求则成立, 否则视为全部过
func (a *Arbiter) Expire() Resolution {
	if !a.open {
		return Resolution{Outcome: OutcomeWaiting}
	}
	if a.pending != nil {
		claim := *a.pending
		a.Close()
		return Resolution{Outcome: OutcomeHonored, Claim: claim}
	}
	a.Close()
	return Resolution{Outcome: OutcomeAllPassed}
}

func (a *Arbiter) resolve() Resolution {
	if a.pending == nil {
		for seat, opt := range a.options {
			if opt != nil && !a.passed[seat] {
				return Resolution{Outcome: OutcomeWaiting}
			}
		}
		a.Close()
		return Resolution{Outcome: OutcomeAllPassed}
	}

	for seat, opt := range a.options {
		if opt == nil || a.passed[seat] || seat == a.pending.Seat {
			continue
		}
		if opt.Best().Priority() > a.pending.Kind.Priority() {
			return Resolution{Outcome: OutcomeWaiting}
		}
	}

	claim := *a.pending
	a.Close()
	return Resolution{Outcome: OutcomeHonored, Claim: claim}
}

func pickSequence(opt Option, combination []core.Tile) ([]core.Tile, error) {
	if len(combination) == 0 {
		return opt.Sequences[0], nil
	}
	want := core.Sorted(combination)
	for _, seq := range opt.Sequences {
		if slices.Equal(seq, want) {
			return seq, nil
		}
	}
	return nil, game.ErrInvalidCombination.WithContext("combination", core.Strings(combination))
}
