package analyzer

import (
	"sudooom.im.mahjong/internal/game/core"
)

// FindSequenceClaims 列出能用 discard 吃成的顺子, 顺序为
// [n-2,n-1,n], [n-1,n,n+1], [n,n+1,n+2]. 字牌不能吃.
func FindSequenceClaims(hand []core.Tile, discard core.Tile) [][]core.Tile {
	if discard.IsHonor() || !discard.Valid() {
		return nil
	}

	n := int(discard.Rank)
	var combos [][]core.Tile
	for start := n - 2; start <= n; start++ {
		if start < 1 || start+2 > 9 {
			continue
		}
		combo := make([]core.Tile, 0, 3)
		others := make([]core.Tile, 0, 2)
		for r := start; r < start+3; r++ {
			t := core.NewTile(discard.Suit, r)
			combo = append(combo, t)
			if r != n {
				others = append(others, t)
			}
		}
		if core.Contains(hand, others...) {
			combos = append(combos, combo)
		}
	}
	return combos
}

// CanTriplet 手里至少有两张同种牌即可碰
func CanTriplet(hand []core.Tile, discard core.Tile) bool {
	return core.Count(hand, discard) >= 2
}

// CanQuad 手里至少有三张同种牌即可明杠
func CanQuad(hand []core.Tile, discard core.Tile) bool {
	return core.Count(hand, discard) >= 3
}

// ConcealedQuad 规范顺序中第一种恰好有四张的牌
func ConcealedQuad(hand []core.Tile) (core.Tile, bool) {
	quads := ConcealedQuads(hand)
	if len(quads) == 0 {
		return core.Tile{}, false
	}
	return quads[0], true
}

// ConcealedQuads 所有可以暗杠的牌种
func ConcealedQuads(hand []core.Tile) []core.Tile {
	counts := core.Counts(hand)
	var out []core.Tile
	for i, n := range counts {
		if n == core.CopiesPerKind {
			out = append(out, core.FromIndex(i))
		}
	}
	return out
}
