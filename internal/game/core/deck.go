package core

import "math/rand/v2"

// FullDeck 生成整副 136 张牌, 按规范顺序排列
func FullDeck() []Tile {
	deck := make([]Tile, 0, DeckSize)
	for i := 0; i < KindCount; i++ {
		t := FromIndex(i)
		for c := 0; c < CopiesPerKind; c++ {
			deck = append(deck, t)
		}
	}
	return deck
}

// Shuffle 返回洗好的新牌组 (Fisher–Yates), 不修改入参
func Shuffle(deck []Tile) []Tile {
	out := Clone(deck)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// ShuffledDeck 洗好的一副新牌
func ShuffledDeck() []Tile {
	return Shuffle(FullDeck())
}
