package table

import (
	"context"

	"sudooom.im.mahjong/internal/game"
	"sudooom.im.mahjong/internal/game/analyzer"
	"sudooom.im.mahjong/internal/game/claim"
	"sudooom.im.mahjong/internal/game/core"
	"sudooom.im.mahjong/internal/game/event"
)

// Draw 当前座位从牌墙摸牌. 牌墙已空时本局流局.
func (t *Table) Draw(ctx context.Context, session string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(ctx)

	p, err := t.actor(session)
	if err != nil {
		return err
	}
	if err := t.onTurn(p, PhaseAwaitingDraw); err != nil {
		return err
	}
	if p.handSize() != InitialHandSize {
		return game.ErrInvalidHandSize.WithContext("size", p.handSize())
	}

	t.drawFor(p, false)
	return nil
}

// Discard 打出一张牌, 然后打开吃碰杠胡窗口; 没人能要时直接轮到下家
func (t *Table) Discard(ctx context.Context, session string, tile core.Tile) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(ctx)

	p, err := t.actor(session)
	if err != nil {
		return err
	}
	if err := t.onTurn(p, PhaseAwaitingDiscard); err != nil {
		return err
	}
	if p.handSize() != FullHandSize {
		return game.ErrInvalidHandSize.WithContext("size", p.handSize())
	}
	hand, ok := core.Remove(p.Hand, tile)
	if !ok {
		return game.ErrTileNotInHand.WithContext("tile", tile.String())
	}

	p.Hand = hand
	p.Discards = append(p.Discards, tile)
	t.wallDrawn = false
	t.pool = append(t.pool, tile)
	t.lastDiscard = discardRef{seat: p.Seat, tile: tile}

	t.toAll(event.TypeTileDiscarded, event.TileDiscarded{Seat: p.Seat, Tile: tile})
	t.toSeat(p, event.TypeHandUpdated, p.handUpdate())

	options := claim.Evaluate(p.Seat, tile, t.views(), t.opts.WinChecker)
	if len(options) == 0 {
		t.advanceAfter(p.Seat)
		return nil
	}
	t.openClaims(p.Seat, tile, options)
	return nil
}

// ConcealedQuad 暗杠. tile 为空时取第一种有四张的牌. 杠后补摸一张.
func (t *Table) ConcealedQuad(ctx context.Context, session string, tile *core.Tile) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(ctx)

	p, err := t.actor(session)
	if err != nil {
		return err
	}
	if err := t.onTurn(p, PhaseAwaitingDiscard); err != nil {
		return err
	}
	if p.handSize() != FullHandSize {
		return game.ErrInvalidHandSize.WithContext("size", p.handSize())
	}

	var quad core.Tile
	if tile == nil {
		var ok bool
		if quad, ok = analyzer.ConcealedQuad(p.Hand); !ok {
			return game.ErrNoConcealedQuad
		}
	} else {
		quad = *tile
		if core.Count(p.Hand, quad) != core.CopiesPerKind {
			return game.ErrNoConcealedQuad.
				WithContext("tile", quad.String()).
				WithContext("held", core.Count(p.Hand, quad))
		}
	}

	hand, _ := core.Remove(p.Hand, quad, quad, quad, quad)
	p.Hand = hand
	p.Melds = append(p.Melds, core.NewConcealedQuad(quad))

	t.toAll(event.TypeConcealedQuad, event.ConcealedQuad{Seat: p.Seat, Melds: core.CloneMelds(p.Melds)})
	t.toSeat(p, event.TypeHandUpdated, p.handUpdate())
	t.drawFor(p, true)
	return nil
}

// DeclareWin 胡牌. 自摸在自己出牌阶段判定; 点炮等同于对当前弃牌请求胡.
func (t *Table) DeclareWin(ctx context.Context, session string, selfDrawn bool) error {
	if !selfDrawn {
		return t.Claim(ctx, session, claim.KindWin, nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(ctx)

	p, err := t.actor(session)
	if err != nil {
		return err
	}
	if err := t.onTurn(p, PhaseAwaitingDiscard); err != nil {
		return err
	}
	if !t.wallDrawn {
		return game.ErrNotWinningHand.WithContext("reason", "last tile not drawn from wall")
	}
	if p.handSize() != FullHandSize || !t.opts.WinChecker.IsWinningHand(p.Hand, p.Melds) {
		return game.ErrNotWinningHand.WithContext("hand", core.Strings(p.Hand))
	}

	t.finishWin(p, core.NoSeat, true)
	return nil
}

// drawFor 给座位摸一张 (或杠后补牌). 牌墙空则流局.
func (t *Table) drawFor(p *Player, replacement bool) {
	if len(t.wall) == 0 {
		t.finishDraw()
		return
	}

	tile := t.wall[0]
	t.wall = t.wall[1:]
	p.Hand = append(p.Hand, tile)
	core.Sort(p.Hand)
	t.phase = PhaseAwaitingDiscard
	t.turn = p.Seat
	t.wallDrawn = true

	t.toSeat(p, event.TypeTileDrawn, event.TileDrawn{
		Seat:           p.Seat,
		Tile:           tile,
		CanSelfWin:     t.opts.WinChecker.IsWinningHand(p.Hand, p.Melds),
		ConcealedQuads: analyzer.ConcealedQuads(p.Hand),
		Replacement:    replacement,
		WallRemaining:  len(t.wall),
	})
	t.toAll(event.TypePlayerDrew, event.PlayerDrew{
		Seat:          p.Seat,
		Replacement:   replacement,
		WallRemaining: len(t.wall),
	})
}

// advanceAfter 轮到出牌者的下家. 下家已有 14 张时免摸.
func (t *Table) advanceAfter(discarder int) {
	next := t.seats[core.NextSeat(discarder)]
	t.turn = next.Seat
	t.wallDrawn = false
	mustDraw := next.handSize() < FullHandSize
	if mustDraw {
		t.phase = PhaseAwaitingDraw
	} else {
		t.phase = PhaseAwaitingDiscard
	}
	t.toAll(event.TypeTurnAdvanced, event.TurnAdvanced{Seat: next.Seat, MustDraw: mustDraw})
}

func (t *Table) finishWin(winner *Player, from int, selfDrawn bool) {
	score := analyzer.ScoreWin(winner.Hand, winner.Melds, selfDrawn)
	winner.Score += score.Multiplier
	t.phase = PhaseRoundComplete

	t.toAll(event.TypeRoundComplete, event.RoundComplete{
		Round:     t.round,
		Outcome:   event.OutcomeWin,
		Winner:    winner.Seat,
		From:      from,
		SelfDrawn: selfDrawn,
		Hand:      core.Clone(winner.Hand),
		Melds:     core.CloneMelds(winner.Melds),
		Score:     &score,
		Dealer:    t.dealer,
		Seats:     t.seatInfos(),
	})
	t.logger.Info("Round won",
		"round", t.round,
		"winner", winner.Seat,
		"selfDrawn", selfDrawn,
		"multiplier", score.Multiplier)
}

func (t *Table) finishDraw() {
	t.phase = PhaseRoundComplete
	t.toAll(event.TypeRoundComplete, event.RoundComplete{
		Round:   t.round,
		Outcome: event.OutcomeDraw,
		Winner:  core.NoSeat,
		From:    core.NoSeat,
		Dealer:  t.dealer,
		Seats:   t.seatInfos(),
	})
	t.logger.Info("Round drawn, wall exhausted", "round", t.round)
}
