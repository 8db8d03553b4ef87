package model

import "time"

// Round 一局的结果记录
type Round struct {
	ID         string       `json:"id"`
	TableID    string       `json:"tableId"`
	Round      int          `json:"round"`
	Outcome    string       `json:"outcome"` // win | draw
	Winner     int          `json:"winner"`  // 流局为 -1
	FromSeat   int          `json:"fromSeat"`
	SelfDrawn  bool         `json:"selfDrawn"`
	Multiplier int          `json:"multiplier"`
	Categories []string     `json:"categories"`
	Dealer     int          `json:"dealer"`
	Seats      []SeatResult `json:"seats"`
	FinishedAt time.Time    `json:"finishedAt"`
}

// SeatResult 一局结束时每个座位的情况
type SeatResult struct {
	Seat    int    `json:"seat"`
	Session string `json:"session"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
}
