package table

import (
	"context"

	"sudooom.im.mahjong/internal/game"
	"sudooom.im.mahjong/internal/game/core"
	"sudooom.im.mahjong/internal/game/event"
)

// Join 入座, 返回座位号. 第一个入座的人是房主并收到建桌事件.
func (t *Table) Join(ctx context.Context, session, name string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(ctx)

	if t.closed {
		return -1, game.ErrTableNotFound
	}
	if _, err := t.actor(session); err == nil {
		return -1, game.ErrAlreadySeated
	}

	seat := -1
	for i, p := range t.seats {
		if p == nil {
			seat = i
			break
		}
	}
	if seat < 0 {
		return -1, game.ErrTableFull
	}
	if t.phase != PhaseSeating {
		return -1, game.ErrInvalidPhase.WithContext("phase", t.phase.String())
	}

	p := &Player{Seat: seat, Session: session, Name: name}
	t.seats[seat] = p

	if !t.created {
		t.created = true
		t.toSeat(p, event.TypeTableCreated, event.TableCreated{TableID: t.id, Seat: seat})
	}
	t.toAll(event.TypePlayerJoined, event.PlayerJoined{Seat: seat, Name: name, Seats: t.seatInfos()})

	t.logger.Info("Player joined", "session", session, "seat", seat)
	return seat, nil
}

// Leave 离座, 返回剩余人数. 对局中离开会作废本局并回到等人状态, 庄家重置为 0 号位.
// 最后一人离开后牌桌关闭.
func (t *Table) Leave(ctx context.Context, session string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(ctx)

	p, err := t.actor(session)
	if err != nil {
		return -1, err
	}

	aborted := t.phase.InRound()
	if aborted {
		t.stopClaimTimer()
		t.arbiter.Close()
		t.toAll(event.TypeRoundAborted, event.RoundAborted{
			Round:  t.round,
			Seat:   p.Seat,
			Reason: "player_left",
		})
		t.dealer = 0
		t.logger.Info("Round aborted", "round", t.round, "seat", p.Seat)
	}
	if t.phase != PhaseSeating {
		t.clearRound()
		t.phase = PhaseSeating
	}

	recipients := t.sessions()
	t.seats[p.Seat] = nil
	t.emit(event.ToTable(event.TypePlayerLeft, recipients, event.PlayerLeft{
		Seat:         p.Seat,
		Name:         p.Name,
		RoundAborted: aborted,
		Seats:        t.seatInfos(),
	}))

	remaining := t.seated()
	if remaining == 0 {
		t.closed = true
	}
	t.logger.Info("Player left", "session", session, "seat", p.Seat, "remaining", remaining)
	return remaining, nil
}

// Start 房主在四人坐满时开局
func (t *Table) Start(ctx context.Context, session string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(ctx)

	p, err := t.actor(session)
	if err != nil {
		return err
	}
	if t.phase != PhaseSeating {
		return game.ErrInvalidPhase.WithContext("phase", t.phase.String())
	}
	if err := t.checkHostAndFull(p); err != nil {
		return err
	}

	t.deal()
	return nil
}

// Continue 一局结束后由房主开下一局, 庄家轮到下家, 分数保留
func (t *Table) Continue(ctx context.Context, session string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.flush(ctx)

	p, err := t.actor(session)
	if err != nil {
		return err
	}
	if t.phase != PhaseRoundComplete {
		return game.ErrInvalidPhase.WithContext("phase", t.phase.String())
	}
	if err := t.checkHostAndFull(p); err != nil {
		return err
	}

	t.dealer = core.NextSeat(t.dealer)
	t.deal()
	return nil
}

func (t *Table) checkHostAndFull(p *Player) error {
	if p.Seat != t.hostSeat() {
		return game.ErrNotHost
	}
	if t.seated() != core.SeatCount {
		return game.ErrNotEnoughPlayers.WithContext("seated", t.seated())
	}
	return nil
}

func (t *Table) clearRound() {
	t.wall = nil
	t.pool = nil
	t.lastDiscard = discardRef{}
	t.wallDrawn = false
	for _, p := range t.seats {
		if p != nil {
			p.resetRound()
		}
	}
}

// deal 洗牌、每人 13 张、庄家多一张, 直接进入庄家出牌
func (t *Table) deal() {
	t.phase = PhaseDealing
	t.round++
	t.clearRound()

	wall := core.Clone(t.opts.Deck())
	if len(wall) < MinWallSize {
		t.logger.Warn("Deck too small, using a fresh shuffled deck", "size", len(wall))
		wall = core.ShuffledDeck()
	}

	for _, p := range t.seats {
		p.Hand = core.Sorted(wall[:InitialHandSize])
		wall = wall[InitialHandSize:]
	}
	dealer := t.seats[t.dealer]
	dealer.Hand = append(dealer.Hand, wall[0])
	core.Sort(dealer.Hand)
	t.wall = wall[1:]

	t.turn = t.dealer
	t.phase = PhaseAwaitingDiscard
	t.wallDrawn = true

	seats := t.seatInfos()
	for _, p := range t.seats {
		t.toSeat(p, event.TypeRoundStarted, event.RoundStarted{
			Round:         t.round,
			Dealer:        t.dealer,
			Seat:          p.Seat,
			Hand:          core.Clone(p.Hand),
			Seats:         seats,
			WallRemaining: len(t.wall),
		})
	}
	t.toAll(event.TypeTurnAdvanced, event.TurnAdvanced{Seat: t.dealer, MustDraw: false})

	t.logger.Info("Round started", "round", t.round, "dealer", t.dealer, "wall", len(t.wall))
}
