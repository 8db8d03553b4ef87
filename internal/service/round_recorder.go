package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sudooom.im.mahjong/internal/game/event"
	"sudooom.im.mahjong/internal/model"
)

// RoundStore 对局记录的持久化
type RoundStore interface {
	InsertBatch(ctx context.Context, rounds []*model.Round) error
}

// RoundRecorderConfig 批量写入配置
type RoundRecorderConfig struct {
	BatchSize     int           // 批量大小阈值
	FlushInterval time.Duration // 强制刷新间隔
}

// RoundRecorder 从事件流中挑出 round_complete 异步批量落库.
// Publish 在牌桌锁内被调用, 所以只入队, 队列满时丢弃并告警.
type RoundRecorder struct {
	store    RoundStore
	config   RoundRecorderConfig
	queue    chan *model.Round
	logger   *slog.Logger
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewRoundRecorder 创建对局记录器
func NewRoundRecorder(store RoundStore, config RoundRecorderConfig) *RoundRecorder {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}

	return &RoundRecorder{
		store:    store,
		config:   config,
		queue:    make(chan *model.Round, config.BatchSize*10),
		logger:   slog.Default().With("component", "RoundRecorder"),
		stopChan: make(chan struct{}),
	}
}

// Start 启动后台写入协程
func (r *RoundRecorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.worker(ctx)
	r.logger.Info("RoundRecorder started",
		"batchSize", r.config.BatchSize,
		"flushInterval", r.config.FlushInterval,
	)
}

// Stop 停止并刷入剩余记录
func (r *RoundRecorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
	r.logger.Info("RoundRecorder stopped")
}

// Publish 实现 event.Sink
func (r *RoundRecorder) Publish(_ context.Context, events []event.Event) error {
	for _, ev := range events {
		if ev.Type != event.TypeRoundComplete {
			continue
		}
		payload, ok := ev.Payload.(event.RoundComplete)
		if !ok {
			continue
		}
		rd := toRound(ev, payload)

		select {
		case r.queue <- rd:
		default:
			r.logger.Warn("Round queue full, dropping record",
				"tableId", rd.TableID,
				"round", rd.Round,
			)
		}
	}
	return nil
}

func toRound(ev event.Event, p event.RoundComplete) *model.Round {
	rd := &model.Round{
		ID:         uuid.NewString(),
		TableID:    ev.TableID,
		Round:      p.Round,
		Outcome:    string(p.Outcome),
		Winner:     p.Winner,
		FromSeat:   p.From,
		SelfDrawn:  p.SelfDrawn,
		Dealer:     p.Dealer,
		FinishedAt: ev.At,
	}
	if p.Score != nil {
		rd.Multiplier = p.Score.Multiplier
		for _, c := range p.Score.Categories {
			rd.Categories = append(rd.Categories, string(c))
		}
	}
	for _, s := range p.Seats {
		rd.Seats = append(rd.Seats, model.SeatResult{
			Seat:    s.Seat,
			Session: s.Session,
			Name:    s.Name,
			Score:   s.Score,
		})
	}
	return rd
}

func (r *RoundRecorder) worker(ctx context.Context) {
	defer r.wg.Done()

	batch := make([]*model.Round, 0, r.config.BatchSize)
	ticker := time.NewTicker(r.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			batch = r.drain(batch)
			r.flush(context.Background(), batch)
			return
		case <-r.stopChan:
			batch = r.drain(batch)
			r.flush(context.Background(), batch)
			return
		case rd := <-r.queue:
			batch = append(batch, rd)
			if len(batch) >= r.config.BatchSize {
				r.flush(ctx, batch)
				batch = make([]*model.Round, 0, r.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(ctx, batch)
				batch = make([]*model.Round, 0, r.config.BatchSize)
			}
		}
	}
}

// drain 取出队列里剩余的记录
func (r *RoundRecorder) drain(batch []*model.Round) []*model.Round {
	for {
		select {
		case rd := <-r.queue:
			batch = append(batch, rd)
		default:
			return batch
		}
	}
}

func (r *RoundRecorder) flush(ctx context.Context, batch []*model.Round) {
	if len(batch) == 0 {
		return
	}

	start := time.Now()
	if err := r.store.InsertBatch(ctx, batch); err != nil {
		r.logger.Error("Failed to save rounds",
			"count", len(batch),
			"elapsed", time.Since(start),
			"error", err,
		)
		return
	}
	r.logger.Debug("Round batch saved",
		"count", len(batch),
		"elapsed", time.Since(start),
	)
}
