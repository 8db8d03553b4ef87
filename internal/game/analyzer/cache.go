package analyzer

import (
	"fmt"

	"github.com/dgraph-io/ristretto"

	"sudooom.im.mahjong/internal/game/core"
)

// WinChecker 胡牌判定
type WinChecker interface {
	IsWinningHand(concealed []core.Tile, melds []core.Meld) bool
}

type pureChecker struct{}

func (pureChecker) IsWinningHand(concealed []core.Tile, melds []core.Meld) bool {
	return IsWinningHand(concealed, melds)
}

// Pure 不带缓存的判定
var Pure WinChecker = pureChecker{}

// CachedChecker 用 ristretto 缓存胡牌判定结果.
// 判定只取决于暗手牌种计数和副露组数, 以此作为键.
type CachedChecker struct {
	cache *ristretto.Cache
}

// NewCachedChecker 创建带缓存的判定器, 每条结果的成本记为 1
func NewCachedChecker(maxEntries int64) (*CachedChecker, error) {
	if maxEntries <= 0 {
		maxEntries = 1 << 16
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create win cache: %w", err)
	}
	return &CachedChecker{cache: cache}, nil
}

// IsWinningHand 先查缓存, 未命中时计算并写入
func (c *CachedChecker) IsWinningHand(concealed []core.Tile, melds []core.Meld) bool {
	key := handKey(concealed, len(melds))
	if v, ok := c.cache.Get(key); ok {
		if won, ok := v.(bool); ok {
			return won
		}
	}
	won := IsWinningHand(concealed, melds)
	c.cache.Set(key, won, 1)
	return won
}

// Close 释放缓存
func (c *CachedChecker) Close() {
	c.cache.Close()
}

func handKey(concealed []core.Tile, meldCount int) string {
	var buf [core.KindCount + 1]byte
	for _, t := range concealed {
		if !t.Valid() {
			// 非法牌直接走计算路径, 不会命中任何有效键
			return "invalid"
		}
		buf[t.Index()]++
	}
	buf[core.KindCount] = byte(meldCount)
	return string(buf[:])
}
