package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.mahjong/internal/game/core"
	"sudooom.im.mahjong/internal/game/event"
	"sudooom.im.mahjong/pkg/proto"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []published
	fail map[string]bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail[subject] {
		return errors.New("boom")
	}
	c.msgs = append(c.msgs, published{subject, data})
	return nil
}

func TestEventPublisherFansOutPerRecipient(t *testing.T) {
	conn := &fakeConn{}
	pub := NewEventPublisher(conn)

	at := time.UnixMilli(1_700_000_000_000)
	events := []event.Event{
		{Type: event.TypeTileDiscarded, TableID: "ABC123", Seq: 7, Audience: event.AudienceTable,
			Recipients: []string{"s0", "s1"}, Payload: event.TileDiscarded{Seat: 0, Tile: core.MustParse("5t")}, At: at},
		{Type: event.TypeHandUpdated, TableID: "ABC123", Seq: 8, Audience: event.AudienceSession,
			Recipients: []string{"s0"}, Payload: event.HandUpdated{}, At: at},
	}
	require.NoError(t, pub.Publish(context.Background(), events))

	require.Len(t, conn.msgs, 3)
	assert.Equal(t, "mahjong.session.s0.events", conn.msgs[0].subject)
	assert.Equal(t, "mahjong.session.s1.events", conn.msgs[1].subject)
	assert.Equal(t, "mahjong.session.s0.events", conn.msgs[2].subject)

	var got map[string]any
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &got))
	assert.Equal(t, "tile_discarded", got["type"])
	assert.Equal(t, "ABC123", got["tableId"])
	assert.Equal(t, float64(7), got["seq"])
	assert.Equal(t, "table", got["audience"])
	assert.Equal(t, float64(at.UnixMilli()), got["at"])
	assert.Equal(t, map[string]any{"seat": float64(0), "tile": "5t"}, got["payload"])
	assert.NotContains(t, got, "recipients")
}

func TestEventPublisherContinuesAfterFailure(t *testing.T) {
	conn := &fakeConn{fail: map[string]bool{"mahjong.session.bad.events": true}}
	pub := NewEventPublisher(conn)

	err := pub.Publish(context.Background(), []event.Event{
		event.ToTable(event.TypeTurnAdvanced, []string{"bad", "good"}, event.TurnAdvanced{Seat: 1}),
	})
	assert.Error(t, err)
	require.Len(t, conn.msgs, 1)
	assert.Equal(t, proto.BuildSessionEventsSubject("good"), conn.msgs[0].subject)
}

type recordingHandler struct {
	commands []*proto.Command
	offline  []*proto.SessionOffline
}

func (h *recordingHandler) HandleCommand(_ context.Context, cmd *proto.Command) {
	h.commands = append(h.commands, cmd)
}

func (h *recordingHandler) HandleSessionOffline(_ context.Context, ev *proto.SessionOffline) {
	h.offline = append(h.offline, ev)
}

func TestSubscriberDispatch(t *testing.T) {
	h := &recordingHandler{}
	s := NewCommandSubscriber(nil, h, SubscriberConfig{WorkerCount: 4, BufferSize: 16})
	ctx := context.Background()

	for _, data := range []string{
		`{"command":{"session":"s1","type":"claim_sequence","combination":["3t","4t","5t"]}}`,
		`{"sessionOffline":{"session":"s2"}}`,
	} {
		msg, ok := s.decode([]byte(data))
		require.True(t, ok)
		s.dispatch(ctx, msg)
	}
	_, ok := s.decode([]byte(`not json`))
	assert.False(t, ok)
	_, ok = s.decode([]byte(`{}`))
	assert.False(t, ok)

	require.Len(t, h.commands, 1)
	assert.Equal(t, proto.CmdClaimSequence, h.commands[0].Type)
	assert.Equal(t, []string{"3t", "4t", "5t"}, h.commands[0].Combination)
	require.Len(t, h.offline, 1)
	assert.Equal(t, "s2", h.offline[0].Session)
}

func TestSubscriberShardsBySession(t *testing.T) {
	s := NewCommandSubscriber(nil, &recordingHandler{}, SubscriberConfig{WorkerCount: 8, BufferSize: 64})

	first := s.shardFor("alice")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.shardFor("alice"))
	}

	require.True(t, s.enqueue([]byte(`{"command":{"session":"alice","type":"draw_tile"}}`)))
	require.True(t, s.enqueue([]byte(`{"sessionOffline":{"session":"alice"}}`)))
	assert.Len(t, s.shards[first], 2)

	cur, capacity := s.GetBufferUsage()
	assert.Equal(t, 2, cur)
	assert.Equal(t, 64, capacity)

	assert.Equal(t, proto.CmdDrawTile, (<-s.shards[first]).Command.Type)
	assert.NotNil(t, (<-s.shards[first]).SessionOffline)
}

func TestSubscriberDropsWhenShardFull(t *testing.T) {
	s := NewCommandSubscriber(nil, &recordingHandler{}, SubscriberConfig{WorkerCount: 1, BufferSize: 1})

	assert.True(t, s.enqueue([]byte(`{"command":{"session":"a","type":"pass"}}`)))
	assert.False(t, s.enqueue([]byte(`{"command":{"session":"a","type":"pass"}}`)))
}

type orderingHandler struct {
	mu   sync.Mutex
	seen map[string][]string
}

func (h *orderingHandler) HandleCommand(_ context.Context, cmd *proto.Command) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[cmd.Session] = append(h.seen[cmd.Session], cmd.Tile)
}

func (h *orderingHandler) HandleSessionOffline(context.Context, *proto.SessionOffline) {}

func (h *orderingHandler) total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, tiles := range h.seen {
		n += len(tiles)
	}
	return n
}

func TestSubscriberKeepsPerSessionOrderUnderConcurrency(t *testing.T) {
	const sessions, perSession = 16, 50
	h := &orderingHandler{seen: make(map[string][]string)}
	s := NewCommandSubscriber(nil, h, SubscriberConfig{WorkerCount: 4, BufferSize: 4 * sessions * perSession})
	s.startWorkers(context.Background())
	defer s.Stop()

	var wg sync.WaitGroup
	for i := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := fmt.Sprintf("s%d", i)
			for j := range perSession {
				data := fmt.Sprintf(`{"command":{"session":%q,"type":"discard_tile","tile":"%d"}}`, session, j)
				assert.True(t, s.enqueue([]byte(data)))
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return h.total() == sessions*perSession }, 2*time.Second, 5*time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range sessions {
		tiles := h.seen[fmt.Sprintf("s%d", i)]
		require.Len(t, tiles, perSession)
		for j, tile := range tiles {
			assert.Equal(t, strconv.Itoa(j), tile)
		}
	}
}
