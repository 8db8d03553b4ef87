package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.mahjong/internal/game"
	"sudooom.im.mahjong/internal/game/event"
	"sudooom.im.mahjong/internal/game/table"
)

type fakeDirectory struct {
	mu    sync.Mutex
	bound map[string]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{bound: make(map[string]string)}
}

func (d *fakeDirectory) Bind(_ context.Context, session, tableID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bound[session] = tableID
	return nil
}

func (d *fakeDirectory) Unbind(_ context.Context, session string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bound, session)
	return nil
}

func (d *fakeDirectory) lookup(session string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.bound[session]
	return id, ok
}

type eventLog struct {
	mu     sync.Mutex
	events []event.Event
}

func (l *eventLog) Publish(_ context.Context, events []event.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
	return nil
}

func (l *eventLog) count(typ event.Type) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func newRegistry(t *testing.T, opts Options) (*Registry, *fakeDirectory, *eventLog) {
	t.Helper()
	dir := newFakeDirectory()
	log := &eventLog{}
	opts.Directory = dir
	opts.Table.Sink = log
	r := NewRegistry(opts)
	t.Cleanup(func() { r.Shutdown(context.Background()) })
	return r, dir, log
}

func TestTableID(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewTableID()
		assert.True(t, ValidTableID(id), id)
	}
	assert.False(t, ValidTableID("abc123"))
	assert.False(t, ValidTableID("ABC12"))
	assert.False(t, ValidTableID("ABC-12"))
}

func TestCreateAndJoin(t *testing.T) {
	ctx := context.Background()
	r, dir, _ := newRegistry(t, Options{})

	id, seat, err := r.Create(ctx, "host", "Host")
	require.NoError(t, err)
	assert.True(t, ValidTableID(id))
	assert.Equal(t, 0, seat)
	assert.Equal(t, 1, r.Count())

	bound, ok := dir.lookup("host")
	require.True(t, ok)
	assert.Equal(t, id, bound)

	_, _, err = r.Create(ctx, "host", "Host")
	assert.ErrorIs(t, err, game.ErrAlreadySeated)

	for i, s := range []string{"p1", "p2", "p3"} {
		seat, err := r.Join(ctx, id, s, s)
		require.NoError(t, err)
		assert.Equal(t, i+1, seat)
	}

	_, err = r.Join(ctx, id, "p4", "late")
	assert.ErrorIs(t, err, game.ErrTableFull)
	_, err = r.TableOf("p4")
	assert.ErrorIs(t, err, game.ErrNotSeated)

	_, err = r.Join(ctx, "ZZZZZZ", "p5", "x")
	assert.ErrorIs(t, err, game.ErrTableNotFound)

	tbl, err := r.TableOf("p2")
	require.NoError(t, err)
	assert.Equal(t, id, tbl.ID())
}

func TestJoinIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newRegistry(t, Options{})

	id, _, err := r.Create(ctx, "host", "Host")
	require.NoError(t, err)

	seat, err := r.Join(ctx, strings.ToLower(id), "p1", "P1")
	require.NoError(t, err)
	assert.Equal(t, 1, seat)
}

func TestTableLimit(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newRegistry(t, Options{MaxTables: 1})

	_, _, err := r.Create(ctx, "a", "A")
	require.NoError(t, err)

	_, _, err = r.Create(ctx, "b", "B")
	assert.ErrorIs(t, err, game.ErrTableLimit)
	assert.Equal(t, 1, r.Count())
}

func TestLeaveDestroysEmptyTable(t *testing.T) {
	ctx := context.Background()
	r, dir, _ := newRegistry(t, Options{})

	id, _, err := r.Create(ctx, "host", "Host")
	require.NoError(t, err)
	_, err = r.Join(ctx, id, "p1", "P1")
	require.NoError(t, err)

	require.NoError(t, r.Leave(ctx, "host"))
	_, ok := r.Get(id)
	assert.True(t, ok, "table survives while someone is seated")
	_, ok = dir.lookup("host")
	assert.False(t, ok)

	assert.ErrorIs(t, r.Leave(ctx, "host"), game.ErrNotSeated)

	require.NoError(t, r.Leave(ctx, "p1"))
	_, ok = r.Get(id)
	assert.False(t, ok)
	assert.Zero(t, r.Count())

	_, err = r.Join(ctx, id, "p2", "P2")
	assert.ErrorIs(t, err, game.ErrTableNotFound)
}

func TestEvictIdle(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	r, dir, log := newRegistry(t, Options{
		IdleTimeout:   10 * time.Minute,
		EvictInterval: time.Hour,
		Table:         table.Options{Now: clock},
	})

	stale, _, err := r.Create(ctx, "a", "A")
	require.NoError(t, err)

	mu.Lock()
	now = now.Add(15 * time.Minute)
	mu.Unlock()

	fresh, _, err := r.Create(ctx, "b", "B")
	require.NoError(t, err)

	assert.Equal(t, 1, r.EvictIdle(ctx, clock()))

	_, ok := r.Get(stale)
	assert.False(t, ok)
	_, ok = r.Get(fresh)
	assert.True(t, ok)
	assert.Equal(t, 1, r.Count())
	assert.Equal(t, 1, log.count(event.TypeTableClosed))

	_, err = r.TableOf("a")
	assert.ErrorIs(t, err, game.ErrNotSeated)
	_, ok = dir.lookup("a")
	assert.False(t, ok)
}

func TestShutdownClosesTables(t *testing.T) {
	ctx := context.Background()
	r, _, log := newRegistry(t, Options{IdleTimeout: time.Hour, EvictInterval: time.Hour})

	_, _, err := r.Create(ctx, "a", "A")
	require.NoError(t, err)
	_, _, err = r.Create(ctx, "b", "B")
	require.NoError(t, err)

	require.NoError(t, r.Shutdown(ctx))
	assert.Zero(t, r.Count())
	assert.Equal(t, 2, log.count(event.TypeTableClosed))
	require.NoError(t, r.Shutdown(ctx))
}

func TestConcurrentJoinAndLeave(t *testing.T) {
	ctx := context.Background()
	r, dir, _ := newRegistry(t, Options{})

	id, _, err := r.Create(ctx, "host", "Host")
	require.NoError(t, err)

	const joiners = 12
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		seats []int
		full  int
	)
	for i := range joiners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seat, err := r.Join(ctx, id, fmt.Sprintf("p%d", i), "P")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				seats = append(seats, seat)
			case errors.Is(err, game.ErrTableFull):
				full++
			default:
				t.Errorf("unexpected join error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{1, 2, 3}, seats)
	assert.Equal(t, joiners-3, full)

	tbl, ok := r.Get(id)
	require.True(t, ok)
	seated := tbl.Snapshot().Seats
	require.Len(t, seated, 4)
	for _, s := range seated {
		got, err := r.TableOf(s.Session)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID())
	}

	for _, s := range seated {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Leave(ctx, s.Session))
		}()
	}
	wg.Wait()

	_, ok = r.Get(id)
	assert.False(t, ok)
	assert.Zero(t, r.Count())
	for _, s := range seated {
		_, bound := dir.lookup(s.Session)
		assert.False(t, bound)
	}
}

func TestConcurrentJoinSameSession(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newRegistry(t, Options{})

	first, _, err := r.Create(ctx, "a", "A")
	require.NoError(t, err)
	second, _, err := r.Create(ctx, "b", "B")
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		ok atomic.Int32
	)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target := first
			if i%2 == 1 {
				target = second
			}
			if _, err := r.Join(ctx, target, "dup", "Dup"); err == nil {
				ok.Add(1)
			} else {
				assert.ErrorIs(t, err, game.ErrAlreadySeated)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	_, err = r.TableOf("dup")
	assert.NoError(t, err)
}
