package table

import (
	"context"

	"sudooom.im.mahjong/internal/game"
	"sudooom.im.mahjong/internal/game/claim"
	"sudooom.im.mahjong/internal/game/core"
	"sudooom.im.mahjong/internal/game/event"
)

// Claim 对当前弃牌请求吃、碰、杠或胡. combination 只用于吃, 为空时取第一种组合.
func (t *Table) Claim(ctx context.Context, session string, kind claim.Kind, combination []core.Tile) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(ctx)

	p, err := t.actor(session)
	if err != nil {
		return err
	}
	if t.phase != PhaseAwaitingClaims {
		return game.ErrNoClaimWindow.WithContext("phase", t.phase.String())
	}

	res, err := t.arbiter.Request(p.Seat, kind, combination)
	if err != nil {
		return err
	}

	if res.Superseded != nil {
		t.toSeat(t.seats[res.Superseded.Seat], event.TypeClaimSuperseded, event.ClaimSuperseded{
			Kind:   res.Superseded.Kind,
			By:     p.Seat,
			ByKind: kind,
		})
	}
	if res.Outcome == claim.OutcomeWaiting {
		t.toSeat(p, event.TypeClaimPending, event.ClaimPending{Kind: kind, Tile: t.lastDiscard.tile})
	}
	t.applyResolution(res)
	return nil
}

// Pass 放弃对当前弃牌的请求
func (t *Table) Pass(ctx context.Context, session string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(ctx)

	p, err := t.actor(session)
	if err != nil {
		return err
	}
	if t.phase != PhaseAwaitingClaims {
		return game.ErrNoClaimWindow.WithContext("phase", t.phase.String())
	}

	res, err := t.arbiter.Pass(p.Seat)
	if err != nil {
		return err
	}
	t.applyResolution(res)
	return nil
}

// openClaims 打开请求窗口, 通知每个能要这张牌的座位, 并安排超时
func (t *Table) openClaims(discarder int, tile core.Tile, options []claim.Option) {
	t.arbiter.Open(discarder, tile, options)
	t.phase = PhaseAwaitingClaims

	deadline := t.opts.Now().Add(t.opts.ClaimTimeout)
	for _, opt := range options {
		t.toSeat(t.seats[opt.Seat], event.TypeClaimAvailable, event.ClaimAvailable{
			Tile:      tile,
			From:      discarder,
			Kinds:     opt.Kinds,
			Sequences: opt.Sequences,
			Deadline:  deadline.UnixMilli(),
		})
	}

	t.claimGen++
	gen := t.claimGen
	t.cancelClaim = t.opts.Timer.AfterFunc(t.opts.ClaimTimeout, func() {
		t.expireClaims(gen)
	})
}

// expireClaims 超时回调. 窗口已经结束或换了新窗口时直接忽略.
func (t *Table) expireClaims(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(context.Background())

	if t.closed || gen != t.claimGen || t.phase != PhaseAwaitingClaims {
		return
	}
	t.cancelClaim = nil

	res := t.arbiter.Expire()
	t.logger.Debug("Claim window expired", "round", t.round, "outcome", res.Outcome)
	t.applyResolution(res)
}

func (t *Table) stopClaimTimer() {
	t.claimGen++
	if t.cancelClaim != nil {
		t.cancelClaim()
		t.cancelClaim = nil
	}
}

func (t *Table) applyResolution(res claim.Resolution) {
	switch res.Outcome {
	case claim.OutcomeWaiting:
		return
	case claim.OutcomeAllPassed:
		t.stopClaimTimer()
		t.advanceAfter(t.lastDiscard.seat)
	case claim.OutcomeHonored:
		t.stopClaimTimer()
		t.honor(res.Claim)
	}
}

// honor 执行成立的请求: 从牌池取走弃牌, 改动请求者的手牌与副露, 轮到请求者
func (t *Table) honor(c claim.Pending) {
	claimant := t.seats[c.Seat]
	from := t.seats[t.lastDiscard.seat]
	tile := t.lastDiscard.tile

	var (
		taken []core.Tile
		kind  core.MeldKind
	)
	switch c.Kind {
	case claim.KindWin:
		t.takeDiscard(from)
		claimant.Hand = core.Sorted(append(core.Clone(claimant.Hand), tile))
		t.toAll(event.TypeClaimHonored, event.ClaimHonored{
			Kind:  c.Kind,
			Seat:  claimant.Seat,
			From:  from.Seat,
			Tile:  tile,
			Melds: core.CloneMelds(claimant.Melds),
		})
		t.finishWin(claimant, from.Seat, false)
		return
	case claim.KindQuad:
		taken, kind = []core.Tile{tile, tile, tile}, core.MeldQuad
	case claim.KindTriplet:
		taken, kind = []core.Tile{tile, tile}, core.MeldTriplet
	case claim.KindSequence:
		taken, _ = core.Remove(c.Combination, tile)
		kind = core.MeldSequence
	}

	hand, ok := core.Remove(claimant.Hand, taken...)
	if !ok {
		// 窗口期间手牌不会变化, 走到这里说明资格计算有误
		t.logger.Error("Honored claim no longer fits hand",
			"seat", claimant.Seat,
			"kind", c.Kind.String(),
			"hand", core.Strings(claimant.Hand))
		t.advanceAfter(from.Seat)
		return
	}

	t.takeDiscard(from)
	claimant.Hand = hand
	claimant.Melds = append(claimant.Melds, core.NewMeld(kind, append(taken, tile), from.Seat))
	t.turn = claimant.Seat
	t.phase = PhaseAwaitingDiscard
	t.wallDrawn = false

	t.toAll(event.TypeClaimHonored, event.ClaimHonored{
		Kind:  c.Kind,
		Seat:  claimant.Seat,
		From:  from.Seat,
		Tile:  tile,
		Melds: core.CloneMelds(claimant.Melds),
	})
	t.toSeat(claimant, event.TypeHandUpdated, claimant.handUpdate())
	t.toAll(event.TypeTurnAdvanced, event.TurnAdvanced{Seat: claimant.Seat, MustDraw: false})

	if c.Kind == claim.KindQuad {
		t.drawFor(claimant, true)
	}
}

// takeDiscard 从牌池和出牌者的弃牌中移走刚打出的那张
func (t *Table) takeDiscard(from *Player) {
	if n := len(t.pool); n > 0 {
		t.pool = t.pool[:n-1]
	}
	if n := len(from.Discards); n > 0 {
		from.Discards = from.Discards[:n-1]
	}
}
