package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sudooom.im.mahjong/internal/model"
)

// Schema rounds 表结构
//
//go:embed schema.sql
var Schema string

// DB RoundRepository 用到的连接池方法, *pgxpool.Pool 满足该接口
type DB interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RoundRepository 对局记录仓库
type RoundRepository struct {
	db DB
}

// NewRoundRepository 创建对局记录仓库
func NewRoundRepository(db DB) *RoundRepository {
	return &RoundRepository{db: db}
}

const insertRound = `
	INSERT INTO rounds (id, table_id, round, outcome, winner, from_seat, self_drawn, multiplier, categories, dealer, seats, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO NOTHING
`

// InsertBatch 批量写入, 返回第一个失败的错误
func (r *RoundRepository) InsertBatch(ctx context.Context, rounds []*model.Round) error {
	if len(rounds) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rd := range rounds {
		seats, err := json.Marshal(rd.Seats)
		if err != nil {
			return fmt.Errorf("marshal seats of round %s: %w", rd.ID, err)
		}
		categories := rd.Categories
		if categories == nil {
			categories = []string{}
		}
		batch.Queue(insertRound,
			rd.ID,
			rd.TableID,
			rd.Round,
			rd.Outcome,
			rd.Winner,
			rd.FromSeat,
			rd.SelfDrawn,
			rd.Multiplier,
			categories,
			rd.Dealer,
			seats,
			rd.FinishedAt,
		)
	}

	br := r.db.SendBatch(ctx, batch)
	var firstErr error
	for _, rd := range rounds {
		if _, err := br.Exec(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("insert round %s: %w", rd.ID, err)
		}
	}
	if err := br.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ListByTable 按结束时间倒序列出某张桌的对局
func (r *RoundRepository) ListByTable(ctx context.Context, tableID string, limit int) ([]model.Round, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, table_id, round, outcome, winner, from_seat, self_drawn, multiplier, categories, dealer, seats, finished_at
		FROM rounds WHERE table_id = $1
		ORDER BY finished_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, tableID, limit)
	if err != nil {
		return nil, fmt.Errorf("query rounds of %s: %w", tableID, err)
	}
	defer rows.Close()

	var out []model.Round
	for rows.Next() {
		var (
			rd    model.Round
			seats []byte
		)
		if err := rows.Scan(
			&rd.ID,
			&rd.TableID,
			&rd.Round,
			&rd.Outcome,
			&rd.Winner,
			&rd.FromSeat,
			&rd.SelfDrawn,
			&rd.Multiplier,
			&rd.Categories,
			&rd.Dealer,
			&seats,
			&rd.FinishedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(seats, &rd.Seats); err != nil {
			return nil, fmt.Errorf("decode seats of round %s: %w", rd.ID, err)
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

// Migrate 建表, 启动时调用
func (r *RoundRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate rounds: %w", err)
	}
	return nil
}
