// Package event 牌桌产出的事件. 每个事件在产生时就确定了投递对象,
// 传输层只负责按 Recipients 投递, 不再区分广播还是单发.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Type 事件类型
type Type string

const (
	TypeTableCreated    Type = "table_created"
	TypeTableClosed     Type = "table_closed"
	TypePlayerJoined    Type = "player_joined"
	TypePlayerLeft      Type = "player_left"
	TypeRoundStarted    Type = "round_started"
	TypeTileDrawn       Type = "tile_drawn"
	TypePlayerDrew      Type = "player_drew"
	TypeTileDiscarded   Type = "tile_discarded"
	TypeClaimAvailable  Type = "claim_available"
	TypeClaimPending    Type = "claim_pending"
	TypeClaimHonored    Type = "claim_honored"
	TypeClaimSuperseded Type = "claim_superseded"
	TypeConcealedQuad   Type = "concealed_quad"
	TypeTurnAdvanced    Type = "turn_advanced"
	TypeHandUpdated     Type = "hand_updated"
	TypeRoundComplete   Type = "round_complete"
	TypeRoundAborted    Type = "round_aborted"
	TypeActionRejected  Type = "action_rejected"
)

// Audience 投递范围
type Audience uint8

const (
	// AudienceSession 只发给一个会话
	AudienceSession Audience = iota + 1
	// AudienceTable 发给整桌
	AudienceTable
)

func (a Audience) String() string {
	switch a {
	case AudienceSession:
		return "session"
	case AudienceTable:
		return "table"
	}
	return fmt.Sprintf("audience(%d)", uint8(a))
}

func (a Audience) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Event 一条事件. Seq 在同一张桌内严格递增, 桌外无序.
type Event struct {
	Type       Type      `json:"type"`
	TableID    string    `json:"tableId,omitempty"`
	Seq        uint64    `json:"seq"`
	Audience   Audience  `json:"audience"`
	Recipients []string  `json:"-"`
	Payload    any       `json:"payload,omitempty"`
	At         time.Time `json:"at"`
}

// ToSession 构造单发事件
func ToSession(typ Type, session string, payload any) Event {
	return Event{Type: typ, Audience: AudienceSession, Recipients: []string{session}, Payload: payload}
}

// ToTable 构造整桌事件
func ToTable(typ Type, sessions []string, payload any) Event {
	return Event{Type: typ, Audience: AudienceTable, Recipients: sessions, Payload: payload}
}

// Sink 事件出口. 一次调用中的事件必须按顺序投递.
type Sink interface {
	Publish(ctx context.Context, events []Event) error
}

// SinkFunc 函数适配
type SinkFunc func(ctx context.Context, events []Event) error

func (f SinkFunc) Publish(ctx context.Context, events []Event) error {
	return f(ctx, events)
}

// Discard 丢弃所有事件
var Discard Sink = SinkFunc(func(context.Context, []Event) error { return nil })

// Tee 依次投递给多个出口, 汇总错误
type Tee []Sink

func (t Tee) Publish(ctx context.Context, events []Event) error {
	var errs []error
	for _, s := range t {
		if err := s.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
