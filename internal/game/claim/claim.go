// Package claim 对一张弃牌的吃碰杠胡请求做仲裁.
package claim

import (
	"fmt"

	"sudooom.im.mahjong/internal/game/analyzer"
	"sudooom.im.mahjong/internal/game/core"
)

// Kind 请求类型, 数值即优先级: 胡 > 杠 > 碰 > 吃
type Kind uint8

const (
	KindSequence Kind = iota + 1 // 吃
	KindTriplet                  // 碰
	KindQuad                     // 杠
	KindWin                      // 胡
)

var kindNames = map[Kind]string{
	KindSequence: "sequence",
	KindTriplet:  "triplet",
	KindQuad:     "quad",
	KindWin:      "win",
}

// Priority 优先级, 越大越优先
func (k Kind) Priority() int {
	return int(k)
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("claim(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown claim kind %q", b)
}

// Option 某个座位对当前弃牌可以做的请求
type Option struct {
	Seat      int           `json:"seat"`
	Kinds     []Kind        `json:"kinds"`
	Sequences [][]core.Tile `json:"sequences,omitempty"`
}

// Allows 是否允许该请求
func (o Option) Allows(k Kind) bool {
	for _, got := range o.Kinds {
		if got == k {
			return true
		}
	}
	return false
}

// Best 可做请求中优先级最高的一种
func (o Option) Best() Kind {
	var best Kind
	for _, k := range o.Kinds {
		if k.Priority() > best.Priority() {
			best = k
		}
	}
	return best
}

// SeatView 仲裁需要看到的单个座位信息
type SeatView struct {
	Seat      int
	Concealed []core.Tile
	Melds     []core.Meld
}

// Evaluate 计算每个非出牌座位对弃牌的可做请求.
// 胡、杠、碰对所有其他座位开放, 吃只对出牌者的下家开放.
// 没有任何可做请求的座位不出现在结果中.
func Evaluate(discarder int, discard core.Tile, seats []SeatView, checker analyzer.WinChecker) []Option {
	if checker == nil {
		checker = analyzer.Pure
	}

	var options []Option
	for _, s := range seats {
		if s.Seat == discarder {
			continue
		}

		opt := Option{Seat: s.Seat}
		if checker.IsWinningHand(append(core.Clone(s.Concealed), discard), s.Melds) {
			opt.Kinds = append(opt.Kinds, KindWin)
		}
		if analyzer.CanQuad(s.Concealed, discard) {
			opt.Kinds = append(opt.Kinds, KindQuad)
		}
		if analyzer.CanTriplet(s.Concealed, discard) {
			opt.Kinds = append(opt.Kinds, KindTriplet)
		}
		if s.Seat == core.NextSeat(discarder) {
			if seqs := analyzer.FindSequenceClaims(s.Concealed, discard); len(seqs) > 0 {
				opt.Kinds = append(opt.Kinds, KindSequence)
				opt.Sequences = seqs
			}
		}

		if len(opt.Kinds) > 0 {
			options = append(options, opt)
		}
	}
	return options
}
