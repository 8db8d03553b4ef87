package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const (
	StateConnected     = "connected"
	StateDisconnected  = "disconnected"
	StateNotConfigured = "not configured"

	pingTimeout = 2 * time.Second
)

// Status 健康状态
type Status struct {
	Service  string `json:"service"`
	NATS     string `json:"nats"`
	Redis    string `json:"redis"`
	Database string `json:"database"`
	Tables   int    `json:"tables"`
}

// Healthy NATS 必须在线, Redis 与数据库配置了就必须在线
func (s *Status) Healthy() bool {
	return s.NATS == StateConnected &&
		s.Redis != StateDisconnected &&
		s.Database != StateDisconnected
}

// ConnState NATS 连接状态
type ConnState interface {
	IsConnected() bool
}

// Pinger Redis 或数据库连通性探测
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 函数适配, 用于包装 redis.Client.Ping 这类返回 Cmd 的方法
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// TableCounter 当前牌桌数
type TableCounter interface {
	Count() int
}

// Checker 健康检查器
type Checker struct {
	service string
	nats    ConnState
	redis   Pinger
	db      Pinger
	tables  TableCounter
}

// NewChecker 创建健康检查器, redis 和 db 可以为 nil
func NewChecker(service string, nats ConnState, redis, db Pinger, tables TableCounter) *Checker {
	return &Checker{
		service: service,
		nats:    nats,
		redis:   redis,
		db:      db,
		tables:  tables,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{Service: h.service}

	if h.nats != nil && h.nats.IsConnected() {
		status.NATS = StateConnected
	} else {
		status.NATS = StateDisconnected
	}

	status.Redis = probe(ctx, h.redis)
	status.Database = probe(ctx, h.db)

	if h.tables != nil {
		status.Tables = h.tables.Count()
	}
	return status
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return StateNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		return StateDisconnected
	}
	return StateConnected
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
