package event

import (
	"sudooom.im.mahjong/internal/game/analyzer"
	"sudooom.im.mahjong/internal/game/claim"
	"sudooom.im.mahjong/internal/game/core"
)

// SeatInfo 公开的座位信息
type SeatInfo struct {
	Seat    int    `json:"seat"`
	Session string `json:"session"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Host    bool   `json:"host,omitempty"`
}

// TableCreated 建桌, 只发给房主
type TableCreated struct {
	TableID string `json:"tableId"`
	Seat    int    `json:"seat"`
}

// TableClosed 桌子被回收
type TableClosed struct {
	TableID string `json:"tableId"`
	Reason  string `json:"reason"`
}

// PlayerJoined 有人入座
type PlayerJoined struct {
	Seat  int        `json:"seat"`
	Name  string     `json:"name"`
	Seats []SeatInfo `json:"seats"`
}

// PlayerLeft 有人离座
type PlayerLeft struct {
	Seat         int        `json:"seat"`
	Name         string     `json:"name"`
	RoundAborted bool       `json:"roundAborted"`
	Seats        []SeatInfo `json:"seats"`
}

// RoundStarted 开局, 每个座位单独收到自己的手牌
type RoundStarted struct {
	Round         int         `json:"round"`
	Dealer        int         `json:"dealer"`
	Seat          int         `json:"seat"`
	Hand          []core.Tile `json:"hand"`
	Seats         []SeatInfo  `json:"seats"`
	WallRemaining int         `json:"wallRemaining"`
}

// TileDrawn 摸牌, 只发给摸牌者
type TileDrawn struct {
	Seat           int         `json:"seat"`
	Tile           core.Tile   `json:"tile"`
	CanSelfWin     bool        `json:"canSelfWin"`
	ConcealedQuads []core.Tile `json:"concealedQuads,omitempty"`
	Replacement    bool        `json:"replacement,omitempty"` // 杠后补牌
	WallRemaining  int         `json:"wallRemaining"`
}

// PlayerDrew 其他人看到的摸牌通知
type PlayerDrew struct {
	Seat          int  `json:"seat"`
	Replacement   bool `json:"replacement,omitempty"`
	WallRemaining int  `json:"wallRemaining"`
}

// TileDiscarded 出牌
type TileDiscarded struct {
	Seat int       `json:"seat"`
	Tile core.Tile `json:"tile"`
}

// ClaimAvailable 告知某座位对弃牌可做的请求
type ClaimAvailable struct {
	Tile      core.Tile     `json:"tile"`
	From      int           `json:"from"`
	Kinds     []claim.Kind  `json:"kinds"`
	Sequences [][]core.Tile `json:"sequences,omitempty"`
	Deadline  int64         `json:"deadline"` // unix 毫秒
}

// ClaimPending 请求已挂起, 等待更高优先级座位表态
type ClaimPending struct {
	Kind claim.Kind `json:"kind"`
	Tile core.Tile  `json:"tile"`
}

// ClaimHonored 请求成立
type ClaimHonored struct {
	Kind  claim.Kind  `json:"kind"`
	Seat  int         `json:"seat"`
	From  int         `json:"from"`
	Tile  core.Tile   `json:"tile"`
	Melds []core.Meld `json:"melds"`
}

// ClaimSuperseded 挂起请求被更高优先级挤掉, 或因胡牌作废
type ClaimSuperseded struct {
	Kind   claim.Kind `json:"kind"`
	By     int        `json:"by"`
	ByKind claim.Kind `json:"byKind"`
}

// ConcealedQuad 暗杠
type ConcealedQuad struct {
	Seat  int         `json:"seat"`
	Melds []core.Meld `json:"melds"`
}

// TurnAdvanced 轮到某座位
type TurnAdvanced struct {
	Seat     int  `json:"seat"`
	MustDraw bool `json:"mustDraw"`
}

// HandUpdated 完整暗手, 只发给本人
type HandUpdated struct {
	Hand  []core.Tile `json:"hand"`
	Melds []core.Meld `json:"melds"`
}

// Outcome 一局的结果
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeDraw Outcome = "draw"
)

// RoundComplete 一局结束
type RoundComplete struct {
	Round     int             `json:"round"`
	Outcome   Outcome         `json:"outcome"`
	Winner    int             `json:"winner"`
	From      int             `json:"from"` // 点炮座位, 自摸或流局为 -1
	SelfDrawn bool            `json:"selfDrawn,omitempty"`
	Hand      []core.Tile     `json:"hand,omitempty"`
	Melds     []core.Meld     `json:"melds,omitempty"`
	Score     *analyzer.Score `json:"score,omitempty"`
	Dealer    int             `json:"dealer"`
	Seats     []SeatInfo      `json:"seats"`
}

// RoundAborted 有人掉线或离开导致本局作废
type RoundAborted struct {
	Round  int    `json:"round"`
	Seat   int    `json:"seat"`
	Reason string `json:"reason"`
}

// ActionRejected 拒绝某个请求, 只发给请求者
type ActionRejected struct {
	Command string         `json:"command"`
	Kind    string         `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}
