// Package handler 把上行命令分发到注册表或牌桌, 失败时只回给请求者.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sudooom.im.mahjong/internal/game"
	"sudooom.im.mahjong/internal/game/claim"
	"sudooom.im.mahjong/internal/game/core"
	"sudooom.im.mahjong/internal/game/event"
	"sudooom.im.mahjong/internal/game/table"
	"sudooom.im.mahjong/pkg/proto"
)

// Tables 处理器依赖的注册表操作
type Tables interface {
	Create(ctx context.Context, session, name string) (string, int, error)
	Join(ctx context.Context, tableID, session, name string) (int, error)
	Leave(ctx context.Context, session string) error
	TableOf(session string) (*table.Table, error)
}

type actionFunc func(ctx context.Context, cmd *proto.Command) error

type tableActionFunc func(ctx context.Context, t *table.Table, cmd *proto.Command) error

// CommandHandler 命令处理器
type CommandHandler struct {
	tables  Tables
	sink    event.Sink
	actions map[proto.CommandType]actionFunc
	now     func() time.Time
	logger  *slog.Logger
}

// NewCommandHandler 创建命令处理器. sink 用于投递拒绝通知.
func NewCommandHandler(tables Tables, sink event.Sink) *CommandHandler {
	h := &CommandHandler{
		tables:  tables,
		sink:    sink,
		actions: make(map[proto.CommandType]actionFunc),
		now:     time.Now,
		logger:  slog.Default().With("component", "CommandHandler"),
	}
	h.registerActions()
	return h
}

// registerActions 注册各命令的处理函数
func (h *CommandHandler) registerActions() {
	h.actions[proto.CmdCreateTable] = h.createTable
	h.actions[proto.CmdJoinTable] = h.joinTable
	h.actions[proto.CmdLeaveTable] = h.leaveTable

	h.actions[proto.CmdStartRound] = h.atTable(func(ctx context.Context, t *table.Table, cmd *proto.Command) error {
		return t.Start(ctx, cmd.Session)
	})
	h.actions[proto.CmdContinueRound] = h.atTable(func(ctx context.Context, t *table.Table, cmd *proto.Command) error {
		return t.Continue(ctx, cmd.Session)
	})
	h.actions[proto.CmdDrawTile] = h.atTable(func(ctx context.Context, t *table.Table, cmd *proto.Command) error {
		return t.Draw(ctx, cmd.Session)
	})
	h.actions[proto.CmdDiscardTile] = h.atTable(func(ctx context.Context, t *table.Table, cmd *proto.Command) error {
		tile, err := parseTile(cmd.Tile)
		if err != nil {
			return err
		}
		return t.Discard(ctx, cmd.Session, tile)
	})
	h.actions[proto.CmdClaimSequence] = h.atTable(func(ctx context.Context, t *table.Table, cmd *proto.Command) error {
		combination, err := parseTiles(cmd.Combination)
		if err != nil {
			return err
		}
		return t.Claim(ctx, cmd.Session, claim.KindSequence, combination)
	})
	h.actions[proto.CmdClaimTriplet] = h.claim(claim.KindTriplet)
	h.actions[proto.CmdClaimQuad] = h.claim(claim.KindQuad)
	h.actions[proto.CmdClaimConcealedQuad] = h.atTable(func(ctx context.Context, t *table.Table, cmd *proto.Command) error {
		if cmd.Tile == "" {
			return t.ConcealedQuad(ctx, cmd.Session, nil)
		}
		tile, err := parseTile(cmd.Tile)
		if err != nil {
			return err
		}
		return t.ConcealedQuad(ctx, cmd.Session, &tile)
	})
	h.actions[proto.CmdDeclareWin] = h.atTable(func(ctx context.Context, t *table.Table, cmd *proto.Command) error {
		return t.DeclareWin(ctx, cmd.Session, cmd.SelfDrawn)
	})
	h.actions[proto.CmdPass] = h.atTable(func(ctx context.Context, t *table.Table, cmd *proto.Command) error {
		return t.Pass(ctx, cmd.Session)
	})
}

// HandleCommand 处理一条命令
func (h *CommandHandler) HandleCommand(ctx context.Context, cmd *proto.Command) {
	if cmd.Session == "" {
		h.logger.Warn("Command without session dropped", "type", cmd.Type)
		return
	}
	// 非法会话 ID 拼不出下行 Subject, 连拒绝事件也发不回去
	if !proto.ValidSession(cmd.Session) {
		h.logger.Warn("Command with invalid session dropped", "type", cmd.Type, "session", cmd.Session)
		return
	}

	action, ok := h.actions[cmd.Type]
	if !ok {
		h.reject(ctx, cmd, game.ErrMalformedAction.WithContext("type", string(cmd.Type)))
		return
	}
	if err := action(ctx, cmd); err != nil {
		h.reject(ctx, cmd, err)
	}
}

// HandleSessionOffline 会话断线等同于离座
func (h *CommandHandler) HandleSessionOffline(ctx context.Context, ev *proto.SessionOffline) {
	err := h.tables.Leave(ctx, ev.Session)
	switch {
	case err == nil:
		h.logger.Info("Offline session removed from table", "session", ev.Session)
	case errors.Is(err, game.ErrNotSeated), errors.Is(err, game.ErrTableNotFound):
	default:
		h.logger.Warn("Failed to remove offline session", "session", ev.Session, "error", err)
	}
}

func (h *CommandHandler) createTable(ctx context.Context, cmd *proto.Command) error {
	_, _, err := h.tables.Create(ctx, cmd.Session, displayName(cmd))
	return err
}

func (h *CommandHandler) joinTable(ctx context.Context, cmd *proto.Command) error {
	if cmd.TableID == "" {
		return game.ErrMalformedAction.WithContext("missing", "tableId")
	}
	_, err := h.tables.Join(ctx, cmd.TableID, cmd.Session, displayName(cmd))
	return err
}

func (h *CommandHandler) leaveTable(ctx context.Context, cmd *proto.Command) error {
	return h.tables.Leave(ctx, cmd.Session)
}

// atTable 找到会话所在的牌桌后执行
func (h *CommandHandler) atTable(fn tableActionFunc) actionFunc {
	return func(ctx context.Context, cmd *proto.Command) error {
		t, err := h.tables.TableOf(cmd.Session)
		if err != nil {
			return err
		}
		return fn(ctx, t, cmd)
	}
}

func (h *CommandHandler) claim(kind claim.Kind) actionFunc {
	return h.atTable(func(ctx context.Context, t *table.Table, cmd *proto.Command) error {
		return t.Claim(ctx, cmd.Session, kind, nil)
	})
}

// reject 把错误作为 action_rejected 只发给请求者, 不改变任何牌桌状态
func (h *CommandHandler) reject(ctx context.Context, cmd *proto.Command, err error) {
	rejected := event.ActionRejected{
		Command: string(cmd.Type),
		Kind:    string(game.KindOf(err)),
		Code:    game.CodeOf(err),
	}

	var ge *game.GameError
	if errors.As(err, &ge) {
		rejected.Message = ge.Message
		rejected.Context = ge.Context
		h.logger.Debug("Command rejected", "session", cmd.Session, "type", cmd.Type, "code", ge.Code)
	} else {
		rejected.Message = "internal error"
		h.logger.Error("Command failed", "session", cmd.Session, "type", cmd.Type, "error", err)
	}

	ev := event.ToSession(event.TypeActionRejected, cmd.Session, rejected)
	ev.TableID = cmd.TableID
	ev.At = h.now()
	if err := h.sink.Publish(ctx, []event.Event{ev}); err != nil {
		h.logger.Warn("Failed to deliver rejection", "session", cmd.Session, "error", err)
	}
}

func displayName(cmd *proto.Command) string {
	if cmd.Name != "" {
		return cmd.Name
	}
	return cmd.Session
}

func parseTile(s string) (core.Tile, error) {
	tile, err := core.Parse(s)
	if err != nil {
		return core.Tile{}, game.ErrMalformedTile.WithCause(err).WithContext("tile", s)
	}
	return tile, nil
}

func parseTiles(ss []string) ([]core.Tile, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	tiles, err := core.ParseAll(ss)
	if err != nil {
		return nil, game.ErrMalformedTile.WithCause(err).WithContext("tiles", ss)
	}
	return tiles, nil
}
