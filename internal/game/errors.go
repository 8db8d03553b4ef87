package game

import (
	"errors"
	"fmt"
	"maps"
)

// ErrorKind 错误分类, 决定错误如何回传
type ErrorKind string

const (
	// KindIllegalAction 非法操作: 不是你的回合、牌不在手里、阶段不对、人数不足
	KindIllegalAction ErrorKind = "ILLEGAL_ACTION"
	// KindClaimConflict 优先级不足, 无法抢占已挂起的请求
	KindClaimConflict ErrorKind = "CLAIM_CONFLICT"
	// KindStructural 牌型上不成立的请求
	KindStructural ErrorKind = "STRUCTURAL_IMPOSSIBILITY"
)

// GameError 游戏错误类型
type GameError struct {
	Kind    ErrorKind      // 错误分类
	Code    string         // 错误代码
	Message string         // 错误消息
	Cause   error          // 原因错误
	Context map[string]any // 错误上下文
}

func (e *GameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// Is 按错误代码匹配, 带上下文的副本仍然等于预定义错误
func (e *GameError) Is(target error) bool {
	var t *GameError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewGameError 创建游戏错误
func NewGameError(kind ErrorKind, code, message string) *GameError {
	return &GameError{Kind: kind, Code: code, Message: message}
}

func (e *GameError) clone() *GameError {
	c := *e
	c.Context = maps.Clone(e.Context)
	return &c
}

// WithCause 返回带原因错误的副本
func (e *GameError) WithCause(cause error) *GameError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithContext 返回带上下文的副本, 预定义错误本身不会被修改
func (e *GameError) WithContext(key string, value any) *GameError {
	c := e.clone()
	if c.Context == nil {
		c.Context = make(map[string]any)
	}
	c.Context[key] = value
	return c
}

// KindOf 取出错误分类, 非 GameError 返回空串
func KindOf(err error) ErrorKind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// CodeOf 取出错误代码, 非 GameError 返回 INTERNAL
func CodeOf(err error) string {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "INTERNAL"
}

// 牌桌相关错误
var (
	ErrTableNotFound    = NewGameError(KindIllegalAction, "TABLE_NOT_FOUND", "table does not exist")
	ErrTableFull        = NewGameError(KindIllegalAction, "TABLE_FULL", "table has no free seat")
	ErrTableLimit       = NewGameError(KindIllegalAction, "TABLE_LIMIT", "no more tables can be opened")
	ErrNotEnoughPlayers = NewGameError(KindIllegalAction, "NOT_ENOUGH_PLAYERS", "four seated players are required")
	ErrNotHost          = NewGameError(KindIllegalAction, "NOT_HOST", "only the host may do this")
	ErrInvalidPhase     = NewGameError(KindIllegalAction, "INVALID_PHASE", "action not allowed in the current phase")
)

// 座位相关错误
var (
	ErrNotSeated     = NewGameError(KindIllegalAction, "NOT_SEATED", "session is not seated at a table")
	ErrAlreadySeated = NewGameError(KindIllegalAction, "ALREADY_SEATED", "session is already seated at a table")
	ErrNotYourTurn   = NewGameError(KindIllegalAction, "NOT_YOUR_TURN", "it is not this seat's turn")
)

// 手牌相关错误
var (
	ErrTileNotInHand   = NewGameError(KindIllegalAction, "TILE_NOT_IN_HAND", "tile is not in hand")
	ErrInvalidHandSize = NewGameError(KindIllegalAction, "INVALID_HAND_SIZE", "hand size does not allow this action")
	ErrMalformedTile   = NewGameError(KindIllegalAction, "MALFORMED_TILE", "tile could not be parsed")
	ErrMalformedAction = NewGameError(KindIllegalAction, "MALFORMED_ACTION", "command could not be understood")
)

// 吃碰杠胡相关错误
var (
	ErrNoClaimWindow      = NewGameError(KindIllegalAction, "NO_CLAIM_WINDOW", "no discard is open for claims")
	ErrAlreadyPassed      = NewGameError(KindIllegalAction, "ALREADY_PASSED", "seat already passed on this discard")
	ErrClaimConflict      = NewGameError(KindClaimConflict, "CLAIM_CONFLICT", "a claim of equal or higher priority is pending")
	ErrClaimNotEligible   = NewGameError(KindStructural, "CLAIM_NOT_ELIGIBLE", "hand cannot make this claim")
	ErrInvalidCombination = NewGameError(KindStructural, "INVALID_COMBINATION", "sequence combination is not available")
	ErrNotWinningHand     = NewGameError(KindStructural, "NOT_WINNING_HAND", "hand does not decompose into a win")
	ErrNoConcealedQuad    = NewGameError(KindStructural, "NO_CONCEALED_QUAD", "hand does not hold four of that tile")
)
