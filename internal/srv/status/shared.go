// Package status holds the state shared between the refresh task, the time
// sync coordinator and the reporting devices. It is built once at startup and
// passed explicitly to every component that needs it.
package status

import (
	"net"
	"sync/atomic"
	"time"
)

type Shared struct {
	timeValid atomic.Bool
	location  atomic.Pointer[time.Location]
	address   atomic.Pointer[net.IP]
	syncState atomic.Value
}

func NewShared() *Shared {
	s := &Shared{}
	s.location.Store(time.Local)
	s.syncState.Store("IDLE")
	return s
}

// TimeValid reports whether the local clock has been corrected by network time sync.
func (s *Shared) TimeValid() bool {
	return s.timeValid.Load()
}

// MarkTimeValid sets the flag. The flag never goes back to false; the result
// is true only for the call that performed the transition.
func (s *Shared) MarkTimeValid() bool {
	return s.timeValid.CompareAndSwap(false, true)
}

func (s *Shared) Location() *time.Location {
	return s.location.Load()
}

func (s *Shared) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location.Store(loc)
	}
}

func (s *Shared) Address() net.IP {
	ip := s.address.Load()
	if ip == nil {
		return nil
	}
	return *ip
}

func (s *Shared) SetAddress(ip net.IP) {
	s.address.Store(&ip)
}

func (s *Shared) SyncState() string {
	return s.syncState.Load().(string)
}

func (s *Shared) SetSyncState(state string) {
	s.syncState.Store(state)
}
