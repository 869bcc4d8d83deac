package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_PendingLifecycle(t *testing.T) {
	s := NewStore()

	_, ok := s.GetPending("alice")
	assert.False(t, ok)

	s.SetPending("alice", PendingExchange{FromCurrency: "BTC", ToCurrency: "ETH", ToAddress: "0xabc"})
	params, ok := s.GetPending("alice")
	assert.True(t, ok)
	assert.Equal(t, "BTC", params.FromCurrency)
	assert.Equal(t, "ETH", params.ToCurrency)

	s.ClearPending("alice")
	_, ok = s.GetPending("alice")
	assert.False(t, ok)
}

func TestStore_SetPendingOverwrites(t *testing.T) {
	s := NewStore()

	s.SetPending("alice", PendingExchange{FromCurrency: "BTC", ToCurrency: "ETH"})
	s.SetPending("alice", PendingExchange{FromCurrency: "XMR", ToCurrency: "LTC"})

	params, ok := s.GetPending("alice")
	assert.True(t, ok)
	assert.Equal(t, "XMR", params.FromCurrency)
	assert.Equal(t, "LTC", params.ToCurrency)
}

func TestStore_TryReserveIsExclusive(t *testing.T) {
	s := NewStore()

	assert.True(t, s.TryReserve("order-1"))
	assert.False(t, s.TryReserve("order-1"))
	assert.True(t, s.TryReserve("order-2"))

	s.Release("order-1")
	assert.True(t, s.TryReserve("order-1"))
}

func TestStore_TryReserveSingleWinnerUnderContention(t *testing.T) {
	s := NewStore()

	const attempts = 64
	var wg sync.WaitGroup
	wins := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryReserve("order-1") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
}

func TestStore_LockUserSerializes(t *testing.T) {
	s := NewStore()

	var order []int
	var wg sync.WaitGroup
	started := make(chan struct{})

	unlock := s.LockUser("alice")

	wg.Add(1)
	go func() {
		defer wg.Done()
		close(started)
		u := s.LockUser("alice")
		order = append(order, 2)
		u()
	}()

	<-started
	order = append(order, 1)
	unlock()
	wg.Wait()

	assert.Equal(t, []int{1, 2}, order)
}
