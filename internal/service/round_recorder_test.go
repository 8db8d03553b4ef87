package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.mahjong/internal/game/analyzer"
	"sudooom.im.mahjong/internal/game/event"
	"sudooom.im.mahjong/internal/model"
)

type fakeStore struct {
	mu      sync.Mutex
	batches [][]*model.Round
}

func (s *fakeStore) InsertBatch(_ context.Context, rounds []*model.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]*model.Round(nil), rounds...))
	return nil
}

func (s *fakeStore) all() []*model.Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Round
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func (s *fakeStore) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func roundEvent(tableID string, round int) event.Event {
	return event.Event{
		Type:     event.TypeRoundComplete,
		TableID:  tableID,
		Audience: event.AudienceTable,
		At:       time.Unix(1700000000, 0),
		Payload: event.RoundComplete{
			Round:     round,
			Outcome:   event.OutcomeWin,
			Winner:    2,
			From:      -1,
			SelfDrawn: true,
			Score: &analyzer.Score{
				Categories: []analyzer.Category{analyzer.CategorySelfDrawn},
				Multiplier: 2,
			},
			Dealer: 0,
			Seats: []event.SeatInfo{
				{Seat: 0, Session: "s0", Name: "a"},
				{Seat: 2, Session: "s2", Name: "c", Score: 2},
			},
		},
	}
}

func TestRoundRecorderFlushesOnBatchSize(t *testing.T) {
	store := &fakeStore{}
	rec := NewRoundRecorder(store, RoundRecorderConfig{BatchSize: 2, FlushInterval: time.Hour})
	rec.Start(context.Background())
	defer rec.Stop()

	err := rec.Publish(context.Background(), []event.Event{
		{Type: event.TypeTurnAdvanced, TableID: "ABC123"},
		roundEvent("ABC123", 1),
		roundEvent("ABC123", 2),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return store.batchCount() == 1 }, time.Second, 5*time.Millisecond)
	rounds := store.all()
	require.Len(t, rounds, 2)

	rd := rounds[0]
	assert.NotEmpty(t, rd.ID)
	assert.Equal(t, "ABC123", rd.TableID)
	assert.Equal(t, 1, rd.Round)
	assert.Equal(t, "win", rd.Outcome)
	assert.Equal(t, 2, rd.Winner)
	assert.True(t, rd.SelfDrawn)
	assert.Equal(t, 2, rd.Multiplier)
	assert.Equal(t, []string{"self_drawn"}, rd.Categories)
	assert.Len(t, rd.Seats, 2)
	assert.Equal(t, 2, rd.Seats[1].Score)
	assert.NotEqual(t, rd.ID, rounds[1].ID)
}

func TestRoundRecorderFlushesOnStop(t *testing.T) {
	store := &fakeStore{}
	rec := NewRoundRecorder(store, RoundRecorderConfig{BatchSize: 10, FlushInterval: time.Hour})
	rec.Start(context.Background())

	require.NoError(t, rec.Publish(context.Background(), []event.Event{roundEvent("XYZ789", 3)}))
	rec.Stop()

	rounds := store.all()
	require.Len(t, rounds, 1)
	assert.Equal(t, 3, rounds[0].Round)
}

func TestRoundRecorderIgnoresOtherEvents(t *testing.T) {
	store := &fakeStore{}
	rec := NewRoundRecorder(store, RoundRecorderConfig{BatchSize: 1, FlushInterval: time.Hour})
	rec.Start(context.Background())

	require.NoError(t, rec.Publish(context.Background(), []event.Event{
		{Type: event.TypeTileDiscarded, TableID: "ABC123"},
		{Type: event.TypeRoundComplete, TableID: "ABC123", Payload: "not a round"},
	}))
	rec.Stop()

	assert.Empty(t, store.all())
}

func TestRoundRecorderDrawHasNoScore(t *testing.T) {
	ev := event.Event{
		Type:    event.TypeRoundComplete,
		TableID: "ABC123",
		Payload: event.RoundComplete{Round: 4, Outcome: event.OutcomeDraw, Winner: -1, From: -1},
	}
	rd := toRound(ev, ev.Payload.(event.RoundComplete))
	assert.Equal(t, "draw", rd.Outcome)
	assert.Equal(t, -1, rd.Winner)
	assert.Zero(t, rd.Multiplier)
	assert.Empty(t, rd.Categories)
}
