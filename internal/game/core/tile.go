package core

import (
	"fmt"
	"slices"
	"strings"
)

// Suit 花色
type Suit uint8

const (
	SuitWan   Suit = iota // 万 (w)
	SuitBing              // 饼 (b)
	SuitTiao              // 条 (t)
	SuitHonor             // 字牌
)

const (
	// KindCount 牌种数量: 3 门数牌 × 9 + 7 张字牌
	KindCount = 34
	// CopiesPerKind 每种牌的张数
	CopiesPerKind = 4
	// DeckSize 整副牌张数
	DeckSize = KindCount * CopiesPerKind
)

var suitCodes = [...]byte{SuitWan: 'w', SuitBing: 'b', SuitTiao: 't'}

// 字牌顺序: 东 南 西 北 中 发 白
var honorNames = [...]string{"dong", "nan", "xi", "bei", "zhong", "fa", "bai"}

// Tile 一张牌. 同种牌之间可互换, 比较只看牌种.
type Tile struct {
	Suit Suit
	Rank uint8 // 数牌 1-9, 字牌 1-7
}

// NewTile 创建数牌
func NewTile(suit Suit, rank int) Tile {
	return Tile{Suit: suit, Rank: uint8(rank)}
}

// Honor 创建字牌, rank 从 1 (东) 到 7 (白)
func Honor(rank int) Tile {
	return Tile{Suit: SuitHonor, Rank: uint8(rank)}
}

// IsHonor 是否字牌
func (t Tile) IsHonor() bool {
	return t.Suit == SuitHonor
}

// Valid 检查牌是否属于牌表
func (t Tile) Valid() bool {
	switch {
	case t.Suit < SuitHonor:
		return t.Rank >= 1 && t.Rank <= 9
	case t.Suit == SuitHonor:
		return t.Rank >= 1 && int(t.Rank) <= len(honorNames)
	}
	return false
}

// Index 牌种在规范顺序中的下标 (0..KindCount-1)
func (t Tile) Index() int {
	return int(t.Suit)*9 + int(t.Rank) - 1
}

// FromIndex Index 的逆运算
func FromIndex(i int) Tile {
	return Tile{Suit: Suit(i / 9), Rank: uint8(i%9 + 1)}
}

// Compare 按规范顺序比较
func (t Tile) Compare(o Tile) int {
	return t.Index() - o.Index()
}

func (t Tile) String() string {
	if !t.Valid() {
		return fmt.Sprintf("invalid(%d,%d)", t.Suit, t.Rank)
	}
	if t.IsHonor() {
		return honorNames[t.Rank-1]
	}
	return string([]byte{'0' + t.Rank, suitCodes[t.Suit]})
}

// MarshalText 牌以字符串形式出现在 JSON 中, 例如 "5t", "zhong"
func (t Tile) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tile %d/%d", t.Suit, t.Rank)
	}
	return []byte(t.String()), nil
}

func (t *Tile) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Parse 解析牌的字符串表示
func Parse(s string) (Tile, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range honorNames {
		if s == name {
			return Honor(i + 1), nil
		}
	}
	if len(s) != 2 || s[0] < '1' || s[0] > '9' {
		return Tile{}, fmt.Errorf("malformed tile %q", s)
	}
	for suit, code := range suitCodes {
		if s[1] == code {
			return NewTile(Suit(suit), int(s[0]-'0')), nil
		}
	}
	return Tile{}, fmt.Errorf("malformed tile %q", s)
}

// MustParse 解析失败时 panic, 只用于常量和测试
func MustParse(s string) Tile {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseAll 批量解析
func ParseAll(ss []string) ([]Tile, error) {
	tiles := make([]Tile, 0, len(ss))
	for _, s := range ss {
		t, err := Parse(s)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}

// MustParseHand 解析以空白分隔的牌串, 例如 "1w 1w 2w dong"
func MustParseHand(s string) []Tile {
	tiles, err := ParseAll(strings.Fields(s))
	if err != nil {
		panic(err)
	}
	return tiles
}

// Sort 按规范顺序就地排序: 万 < 饼 < 条 < 字, 同门按点数
func Sort(tiles []Tile) {
	slices.SortFunc(tiles, Tile.Compare)
}

// Sorted 返回排序后的副本
func Sorted(tiles []Tile) []Tile {
	out := Clone(tiles)
	Sort(out)
	return out
}

// Clone 复制牌组
func Clone(tiles []Tile) []Tile {
	if tiles == nil {
		return nil
	}
	out := make([]Tile, len(tiles))
	copy(out, tiles)
	return out
}

// Count 统计某种牌的张数
func Count(tiles []Tile, target Tile) int {
	n := 0
	for _, t := range tiles {
		if t == target {
			n++
		}
	}
	return n
}

// Counts 按牌种统计
func Counts(tiles []Tile) [KindCount]int {
	var counts [KindCount]int
	for _, t := range tiles {
		counts[t.Index()]++
	}
	return counts
}

// Contains 检查 tiles 是否包含 targets (按多重集合计)
func Contains(tiles []Tile, targets ...Tile) bool {
	counts := Counts(tiles)
	for _, t := range targets {
		counts[t.Index()]--
		if counts[t.Index()] < 0 {
			return false
		}
	}
	return true
}

// Remove 返回移除 targets 之后的新牌组, 不足时返回 false 且不修改原牌组
func Remove(tiles []Tile, targets ...Tile) ([]Tile, bool) {
	if !Contains(tiles, targets...) {
		return tiles, false
	}
	out := Clone(tiles)
	for _, target := range targets {
		i := slices.Index(out, target)
		out = slices.Delete(out, i, i+1)
	}
	return out, true
}

// Strings 转换为字符串切片
func Strings(tiles []Tile) []string {
	out := make([]string, len(tiles))
	for i, t := range tiles {
		out[i] = t.String()
	}
	return out
}
