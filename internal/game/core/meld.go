package core

import "fmt"

// MeldKind 副露类型
type MeldKind uint8

const (
	MeldSequence MeldKind = iota + 1 // 吃
	MeldTriplet                      // 碰
	MeldQuad                         // 杠
)

var meldKindNames = map[MeldKind]string{
	MeldSequence: "sequence",
	MeldTriplet:  "triplet",
	MeldQuad:     "quad",
}

func (k MeldKind) String() string {
	if name, ok := meldKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("meld(%d)", uint8(k))
}

func (k MeldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MeldKind) UnmarshalText(b []byte) error {
	for kind, name := range meldKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown meld kind %q", b)
}

// NoSeat 暗杠等不来自他人的副露
const NoSeat = -1

// Meld 已亮出的牌组, 形成后不可拆
type Meld struct {
	Kind      MeldKind `json:"kind"`
	Tiles     []Tile   `json:"tiles"`
	Concealed bool     `json:"concealed,omitempty"`
	From      int      `json:"from"` // 被吃碰杠的座位, 暗杠为 NoSeat
}

// NewMeld 创建副露, 牌组按规范顺序保存
func NewMeld(kind MeldKind, tiles []Tile, from int) Meld {
	return Meld{Kind: kind, Tiles: Sorted(tiles), From: from}
}

// NewConcealedQuad 创建暗杠
func NewConcealedQuad(t Tile) Meld {
	return Meld{
		Kind:      MeldQuad,
		Tiles:     []Tile{t, t, t, t},
		Concealed: true,
		From:      NoSeat,
	}
}

// MeldTiles 展开所有副露中的牌
func MeldTiles(melds []Meld) []Tile {
	var out []Tile
	for _, m := range melds {
		out = append(out, m.Tiles...)
	}
	return out
}

// CloneMelds 复制副露列表
func CloneMelds(melds []Meld) []Meld {
	if melds == nil {
		return nil
	}
	out := make([]Meld, len(melds))
	for i, m := range melds {
		m.Tiles = Clone(m.Tiles)
		out[i] = m
	}
	return out
}
