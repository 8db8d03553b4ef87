package admin

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sudooom.im.mahjong/internal/game/table"
	"sudooom.im.mahjong/internal/model"
	"sudooom.im.mahjong/internal/room"
)

const (
	defaultRoundLimit = 20
	maxRoundLimit     = 200
)

// Tables 管理接口需要的牌桌查询
type Tables interface {
	Get(tableID string) (*table.Table, bool)
	Snapshots() []table.Snapshot
	Count() int
}

// RoundLister 对局记录查询
type RoundLister interface {
	ListByTable(ctx context.Context, tableID string, limit int) ([]model.Round, error)
}

// TableHandler 牌桌管理接口
type TableHandler struct {
	tables Tables
	rounds RoundLister
	logger *slog.Logger
}

// NewTableHandler 创建牌桌管理接口, rounds 为 nil 时对局记录接口返回空列表
func NewTableHandler(tables Tables, rounds RoundLister) *TableHandler {
	return &TableHandler{
		tables: tables,
		rounds: rounds,
		logger: slog.Default().With("component", "AdminTableHandler"),
	}
}

// TableSummary 列表中的一行
type TableSummary struct {
	ID            string      `json:"id"`
	Phase         table.Phase `json:"phase"`
	Seated        int         `json:"seated"`
	Round         int         `json:"round"`
	Dealer        int         `json:"dealer"`
	Turn          int         `json:"turn"`
	WallRemaining int         `json:"wallRemaining"`
}

// List 所有牌桌概况
// GET /api/v1/tables
func (h *TableHandler) List(c *gin.Context) {
	snaps := h.tables.Snapshots()
	list := make([]TableSummary, 0, len(snaps))
	for _, s := range snaps {
		list = append(list, TableSummary{
			ID:            s.ID,
			Phase:         s.Phase,
			Seated:        len(s.Seats),
			Round:         s.Round,
			Dealer:        s.Dealer,
			Turn:          s.Turn,
			WallRemaining: s.WallRemaining,
		})
	}
	success(c, gin.H{
		"total":  len(list),
		"tables": list,
	})
}

// Get 单张牌桌详情
// GET /api/v1/tables/:id
func (h *TableHandler) Get(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}
	t, found := h.tables.Get(id)
	if !found {
		fail(c, CodeTableNotFound)
		return
	}
	success(c, t.Snapshot())
}

// Rounds 牌桌的历史对局
// GET /api/v1/tables/:id/rounds?limit=20
func (h *TableHandler) Rounds(c *gin.Context) {
	id, ok := tableID(c)
	if !ok {
		return
	}

	limit := defaultRoundLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxRoundLimit {
			fail(c, CodeInvalidParams)
			return
		}
		limit = n
	}

	if h.rounds == nil {
		success(c, []model.Round{})
		return
	}
	rounds, err := h.rounds.ListByTable(c.Request.Context(), id, limit)
	if err != nil {
		h.logger.Error("Failed to list rounds", "tableId", id, "error", err)
		fail(c, CodeServerError)
		return
	}
	if rounds == nil {
		rounds = []model.Round{}
	}
	success(c, rounds)
}

func tableID(c *gin.Context) (string, bool) {
	id := strings.ToUpper(c.Param("id"))
	if !room.ValidTableID(id) {
		fail(c, CodeInvalidParams)
		return "", false
	}
	return id, true
}
