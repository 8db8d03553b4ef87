// Package proto 引擎与网关之间的 JSON 消息格式
package proto

// CommandType 玩家命令
type CommandType string

const (
	CmdCreateTable        CommandType = "create_table"
	CmdJoinTable          CommandType = "join_table"
	CmdStartRound         CommandType = "start_round"
	CmdDrawTile           CommandType = "draw_tile"
	CmdDiscardTile        CommandType = "discard_tile"
	CmdClaimSequence      CommandType = "claim_sequence"
	CmdClaimTriplet       CommandType = "claim_triplet"
	CmdClaimQuad          CommandType = "claim_quad"
	CmdClaimConcealedQuad CommandType = "claim_concealed_quad"
	CmdDeclareWin         CommandType = "declare_win"
	CmdPass               CommandType = "pass"
	CmdContinueRound      CommandType = "continue_round"
	CmdLeaveTable         CommandType = "leave_table"
)

// ============== 上行消息 (网关 -> 引擎) ==============

// UpstreamMessage 上行消息封装, 两个字段只有一个有值
type UpstreamMessage struct {
	Command        *Command        `json:"command,omitempty"`
	SessionOffline *SessionOffline `json:"sessionOffline,omitempty"`
}

// Command 玩家命令. 牌用字符串表示, 如 "5t"、"zhong".
type Command struct {
	Session     string      `json:"session"`
	Type        CommandType `json:"type"`
	TableID     string      `json:"tableId,omitempty"`     // join_table
	Name        string      `json:"name,omitempty"`        // create_table, join_table
	Tile        string      `json:"tile,omitempty"`        // discard_tile, claim_concealed_quad
	Combination []string    `json:"combination,omitempty"` // claim_sequence
	SelfDrawn   bool        `json:"selfDrawn,omitempty"`   // declare_win
}

// SessionOffline 会话断线
type SessionOffline struct {
	Session string `json:"session"`
}

// ============== 下行消息 (引擎 -> 网关) ==============

// DownstreamEvent 投递给单个会话的事件
type DownstreamEvent struct {
	Type     string `json:"type"`
	TableID  string `json:"tableId,omitempty"`
	Seq      uint64 `json:"seq"`
	Audience string `json:"audience"`
	Payload  any    `json:"payload,omitempty"`
	At       int64  `json:"at"` // unix 毫秒
}
