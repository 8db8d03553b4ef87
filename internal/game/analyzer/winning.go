// Package analyzer 手牌分析: 胡牌拆解、吃碰杠可行性与番型计算.
// 所有函数都是纯函数, 可在任意协程并发调用.
package analyzer

import (
	"sudooom.im.mahjong/internal/game/core"
)

const (
	// GroupsPerHand 一手胡牌的面子数
	GroupsPerHand = 4
	// WinningHandSize 面子按 3 张计时的胡牌张数
	WinningHandSize = GroupsPerHand*3 + 2

	numberedKinds = 27
)

// GroupKind 拆解出的牌组类型
type GroupKind uint8

const (
	GroupTriplet GroupKind = iota + 1 // 刻子
	GroupRun                          // 顺子
	GroupPair                         // 将
)

func (k GroupKind) String() string {
	switch k {
	case GroupTriplet:
		return "triplet"
	case GroupRun:
		return "run"
	case GroupPair:
		return "pair"
	}
	return "unknown"
}

func (k GroupKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Group 拆解出的一组牌, Tile 为组内最小的牌
type Group struct {
	Kind GroupKind `json:"kind"`
	Tile core.Tile `json:"tile"`
}

// Decomposition 暗手的一种完整拆解 (不含已亮出的副露)
type Decomposition struct {
	Groups []Group `json:"groups"`
}

// IsWinningHand 判断暗手加副露能否组成 一对将 + 四组面子
func IsWinningHand(concealed []core.Tile, melds []core.Meld) bool {
	_, ok := Decompose(concealed, melds)
	return ok
}

// Decompose 返回暗手的一种胡牌拆解
func Decompose(concealed []core.Tile, melds []core.Meld) (Decomposition, bool) {
	return decompose(concealed, melds, true)
}

// decomposableWithoutRuns 是否存在不含顺子的拆解 (碰碰胡)
func decomposableWithoutRuns(concealed []core.Tile, melds []core.Meld) bool {
	_, ok := decompose(concealed, melds, false)
	return ok
}

func decompose(concealed []core.Tile, melds []core.Meld, allowRuns bool) (Decomposition, bool) {
	need := GroupsPerHand - len(melds)
	if need < 0 || len(concealed) != need*3+2 {
		return Decomposition{}, false
	}
	for _, t := range concealed {
		if !t.Valid() {
			return Decomposition{}, false
		}
	}

	s := &searcher{
		counts:    core.Counts(concealed),
		allowRuns: allowRuns,
		path:      make([]Group, 0, need+1),
	}
	if !s.walk(0, need, false) {
		return Decomposition{}, false
	}
	return Decomposition{Groups: s.path}, true
}

// searcher 在牌种计数上做回溯搜索. 每个节点都会依次尝试
// 刻子、顺子、将, 失败时撤销并尝试下一种, 不会只认第一种拆法.
type searcher struct {
	counts    [core.KindCount]int
	allowRuns bool
	path      []Group
}

func (s *searcher) walk(from, groupsLeft int, pairUsed bool) bool {
	i := from
	for i < core.KindCount && s.counts[i] == 0 {
		i++
	}
	if i == core.KindCount {
		return groupsLeft == 0 && pairUsed
	}
	tile := core.FromIndex(i)

	if groupsLeft > 0 && s.counts[i] >= 3 {
		s.counts[i] -= 3
		s.path = append(s.path, Group{Kind: GroupTriplet, Tile: tile})
		if s.walk(i, groupsLeft-1, pairUsed) {
			return true
		}
		s.path = s.path[:len(s.path)-1]
		s.counts[i] += 3
	}

	// 顺子只能在同一门数牌内, 且起点不超过 7
	if s.allowRuns && groupsLeft > 0 && i < numberedKinds && i%9 <= 6 &&
		s.counts[i+1] > 0 && s.counts[i+2] > 0 {
		s.counts[i]--
		s.counts[i+1]--
		s.counts[i+2]--
		s.path = append(s.path, Group{Kind: GroupRun, Tile: tile})
		if s.walk(i, groupsLeft-1, pairUsed) {
			return true
		}
		s.path = s.path[:len(s.path)-1]
		s.counts[i]++
		s.counts[i+1]++
		s.counts[i+2]++
	}

	if !pairUsed && s.counts[i] >= 2 {
		s.counts[i] -= 2
		s.path = append(s.path, Group{Kind: GroupPair, Tile: tile})
		if s.walk(i, groupsLeft, true) {
			return true
		}
		s.path = s.path[:len(s.path)-1]
		s.counts[i] += 2
	}

	return false
}
