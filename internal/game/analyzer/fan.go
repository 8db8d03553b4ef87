package analyzer

import (
	"sudooom.im.mahjong/internal/game/core"
)

// Category 番型
type Category string

const (
	CategorySelfDrawn    Category = "self_drawn"     // 自摸 +1
	CategoryAllTriplets  Category = "all_triplets"   // 碰碰胡 +2
	CategoryAllOneSuit   Category = "all_one_suit"   // 清一色 +5
	CategoryMixedOneSuit Category = "mixed_one_suit" // 混一色 +3
	CategoryBasic        Category = "basic"          // 平胡
)

// 固定番表
var categoryBonus = map[Category]int{
	CategorySelfDrawn:    1,
	CategoryAllTriplets:  2,
	CategoryAllOneSuit:   5,
	CategoryMixedOneSuit: 3,
}

// BaseMultiplier 起始倍数
const BaseMultiplier = 1

// Score 胡牌计分结果
type Score struct {
	Categories []Category `json:"categories"`
	Multiplier int        `json:"multiplier"`
}

// Has 是否包含某个番型
func (s Score) Has(c Category) bool {
	for _, got := range s.Categories {
		if got == c {
			return true
		}
	}
	return false
}

// ScoreWin 计算胡牌番数. hand 为胡牌时的暗手 (含胡的那张).
// 各番型相互独立累加, 只有清一色与混一色互斥.
func ScoreWin(hand []core.Tile, melds []core.Meld, selfDrawn bool) Score {
	score := Score{Multiplier: BaseMultiplier}
	add := func(c Category) {
		score.Categories = append(score.Categories, c)
		score.Multiplier += categoryBonus[c]
	}

	if selfDrawn {
		add(CategorySelfDrawn)
	}
	if isAllTriplets(hand, melds) {
		add(CategoryAllTriplets)
	}

	suits, honors := suitProfile(hand, melds)
	switch {
	case suits == 1 && !honors:
		add(CategoryAllOneSuit)
	case suits == 1 && honors:
		add(CategoryMixedOneSuit)
	}

	if len(score.Categories) == 0 {
		score.Categories = append(score.Categories, CategoryBasic)
	}
	return score
}

func isAllTriplets(hand []core.Tile, melds []core.Meld) bool {
	for _, m := range melds {
		if m.Kind == core.MeldSequence {
			return false
		}
	}
	return decomposableWithoutRuns(hand, melds)
}

// suitProfile 统计用到的数牌门数以及是否有字牌
func suitProfile(hand []core.Tile, melds []core.Meld) (suits int, honors bool) {
	var seen [core.SuitHonor]bool
	visit := func(t core.Tile) {
		if t.IsHonor() {
			honors = true
			return
		}
		if !seen[t.Suit] {
			seen[t.Suit] = true
			suits++
		}
	}
	for _, t := range hand {
		visit(t)
	}
	for _, t := range core.MeldTiles(melds) {
		visit(t)
	}
	return suits, honors
}
