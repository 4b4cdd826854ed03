package dataset

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingGate struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (g *countingGate) AcquireDataset(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.acquired++
	return nil
}

func (g *countingGate) ReleaseDataset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released++
}

func TestStorePutGet(t *testing.T) {
	s := NewStore(time.Minute, time.Minute, nil, nil)
	tbl := &Table{Columns: []string{"a"}, Rows: []Row{{"a": "1"}}}

	id, err := s.Put(context.Background(), KindOrders, tbl)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(KindOrders)
	require.NoError(t, err)
	require.Same(t, tbl, got)

	_, err = s.Get(KindProducts)
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestStoreReplaceReusesCapacity(t *testing.T) {
	gate := &countingGate{}
	s := NewStore(time.Minute, time.Minute, gate, nil)

	_, err := s.Put(context.Background(), KindOrders, &Table{})
	require.NoError(t, err)
	_, err = s.Put(context.Background(), KindOrders, &Table{})
	require.NoError(t, err)

	require.Equal(t, 1, gate.acquired)
	require.Equal(t, 1, s.Count())
}

func TestStoreEvictExpired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	gate := &countingGate{}
	s := NewStore(time.Minute, time.Minute, gate, clock)

	_, err := s.Put(context.Background(), KindCustomers, &Table{})
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	s.EvictExpired()
	require.Equal(t, 1, s.Count())

	// Access refreshes the TTL.
	_, err = s.Get(KindCustomers)
	require.NoError(t, err)
	now = now.Add(45 * time.Second)
	s.EvictExpired()
	require.Equal(t, 1, s.Count())

	now = now.Add(2 * time.Minute)
	s.EvictExpired()
	require.Equal(t, 0, s.Count())
	require.Equal(t, 1, gate.released)
}

func TestStoreSnapshot(t *testing.T) {
	s := NewStore(time.Minute, time.Minute, nil, nil)
	orders := &Table{Columns: []string{"amount"}}
	customers := &Table{Columns: []string{"email"}}

	_, err := s.Put(context.Background(), KindOrders, orders)
	require.NoError(t, err)
	_, err = s.Put(context.Background(), KindCustomers, customers)
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	require.Same(t, orders, snap[KindOrders])
	require.Same(t, customers, snap[KindCustomers])
}

func TestStoreDrop(t *testing.T) {
	gate := &countingGate{}
	s := NewStore(time.Minute, time.Minute, gate, nil)

	_, err := s.Put(context.Background(), KindInventory, &Table{})
	require.NoError(t, err)
	require.NoError(t, s.Drop(KindInventory))
	require.Equal(t, 1, gate.released)
	require.ErrorIs(t, s.Drop(KindInventory), ErrNotLoaded)
}

func TestStoreClose(t *testing.T) {
	s := NewStore(time.Minute, 10*time.Millisecond, nil, nil)
	s.Start()
	_, err := s.Put(context.Background(), KindOrders, &Table{})
	require.NoError(t, err)

	require.NoError(t, s.Close(context.Background()))
	require.Equal(t, 0, s.Count())
}
