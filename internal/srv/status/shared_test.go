package status

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSharedInitialState(t *testing.T) {
	s := NewShared()

	assert.False(t, s.TimeValid())
	assert.Equal(t, time.Local, s.Location())
	assert.Nil(t, s.Address())
	assert.Equal(t, "IDLE", s.SyncState())
}

func TestMarkTimeValidIsMonotonic(t *testing.T) {
	s := NewShared()

	var transitions atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.MarkTimeValid() {
				transitions.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), transitions.Load())
	assert.True(t, s.TimeValid())
	assert.False(t, s.MarkTimeValid())
	assert.True(t, s.TimeValid())
}

func TestSharedLocationAndAddress(t *testing.T) {
	s := NewShared()

	s.SetLocation(nil)
	assert.Equal(t, time.Local, s.Location())

	s.SetLocation(time.UTC)
	assert.Equal(t, time.UTC, s.Location())

	s.SetAddress(net.IPv4(192, 168, 1, 20))
	assert.Equal(t, "192.168.1.20", s.Address().String())

	s.SetSyncState("SYNCED")
	assert.Equal(t, "SYNCED", s.SyncState())
}
