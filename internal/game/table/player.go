package table

import (
	"sudooom.im.mahjong/internal/game/core"
	"sudooom.im.mahjong/internal/game/event"
)

// Player 一个座位上的玩家. 手牌、副露、弃牌只归牌桌所有.
type Player struct {
	Seat     int
	Session  string
	Name     string
	Hand     []core.Tile
	Melds    []core.Meld
	Discards []core.Tile
	Score    int
}

// handSize 出牌判定用的手牌数, 每组副露按 3 张计 (杠后补牌保持 14 张)
func (p *Player) handSize() int {
	return len(p.Hand) + 3*len(p.Melds)
}

func (p *Player) resetRound() {
	p.Hand = nil
	p.Melds = nil
	p.Discards = nil
}

func (p *Player) info(host bool) event.SeatInfo {
	return event.SeatInfo{
		Seat:    p.Seat,
		Session: p.Session,
		Name:    p.Name,
		Score:   p.Score,
		Host:    host,
	}
}

func (p *Player) handUpdate() event.HandUpdated {
	return event.HandUpdated{
		Hand:  core.Clone(p.Hand),
		Melds: core.CloneMelds(p.Melds),
	}
}
