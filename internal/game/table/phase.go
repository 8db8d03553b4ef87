package table

import "fmt"

// Phase 牌桌状态
type Phase uint8

const (
	PhaseSeating         Phase = iota // 等人入座
	PhaseDealing                      // 发牌中 (瞬时)
	PhaseAwaitingDraw                 // 等当前座位摸牌
	PhaseAwaitingDiscard              // 等当前座位出牌或暗杠、自摸
	PhaseAwaitingClaims               // 弃牌的吃碰杠胡窗口
	PhaseRoundComplete                // 一局结束, 等房主继续
)

var phaseNames = [...]string{
	PhaseSeating:         "seating",
	PhaseDealing:         "dealing",
	PhaseAwaitingDraw:    "awaiting_draw",
	PhaseAwaitingDiscard: "awaiting_discard",
	PhaseAwaitingClaims:  "awaiting_claims",
	PhaseRoundComplete:   "round_complete",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// InRound 是否处于一局之中
func (p Phase) InRound() bool {
	switch p {
	case PhaseDealing, PhaseAwaitingDraw, PhaseAwaitingDiscard, PhaseAwaitingClaims:
		return true
	}
	return false
}
