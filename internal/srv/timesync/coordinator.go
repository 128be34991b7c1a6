// Package timesync turns connectivity events into a trusted local clock.
//
// On each connectivity event the Coordinator resolves the configured
// timezone, starts the time sync client and waits, with a bounded number of
// polls, for the local clock to show a plausible year. Success sets the
// time-valid flag of the shared status, which is never cleared afterwards.
package timesync

import (
	"context"
	"errors"
	"fmt"
	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/jypelle/vekimon/internal/srv/event"
	"github.com/jypelle/vekimon/internal/srv/status"
	"github.com/sirupsen/logrus"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrSyncTimeout   = errors.New("time synchronization timed out")
	ErrLookupFailure = errors.New("timezone lookup failed")
)

type State int32

const (
	IDLE_STATE State = iota
	RESOLVING_STATE
	SYNCING_STATE
	WAITING_STATE
	SYNCED_STATE
	ABANDONED_STATE
)

func (s State) String() string {
	switch s {
	case IDLE_STATE:
		return "IDLE"
	case RESOLVING_STATE:
		return "RESOLVING"
	case SYNCING_STATE:
		return "SYNCING"
	case WAITING_STATE:
		return "WAITING"
	case SYNCED_STATE:
		return "SYNCED"
	case ABANDONED_STATE:
		return "ABANDONED"
	default:
		return "UNKNOWN"
	}
}

type Coordinator struct {
	param    config.TimeSyncParam
	shared   *status.Shared
	resolver ZoneResolver
	client   SyncClient
	clock    Clock

	// OnStateChange, when set before Run, is called on every transition.
	OnStateChange func(State)

	// events are handled one at a time
	lock  sync.Mutex
	state atomic.Int32
}

func NewCoordinator(param config.TimeSyncParam, shared *status.Shared, resolver ZoneResolver, client SyncClient, clock Clock) *Coordinator {
	return &Coordinator{
		param:    param,
		shared:   shared,
		resolver: resolver,
		client:   client,
		clock:    clock,
	}
}

func (c *Coordinator) State() State {
	return State(c.state.Load())
}

func (c *Coordinator) setState(state State) {
	c.state.Store(int32(state))
	c.shared.SetSyncState(state.String())
	logrus.Debugf("Time sync state: %s", state)
	if c.OnStateChange != nil {
		c.OnStateChange(state)
	}
}

// Run handles connectivity events until ctx is done or events is closed.
func (c *Coordinator) Run(ctx context.Context, events <-chan event.ConnectivityEvent) error {
	logrus.Infof("Start time sync coordinator")
	for {
		select {
		case <-ctx.Done():
			logrus.Infof("Stop time sync coordinator")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.HandleConnectivity(ctx, ev)
		}
	}
}

// HandleConnectivity runs the whole flow for one event in the caller's
// goroutine. It may block for WaitAttempts × WaitInterval.
func (c *Coordinator) HandleConnectivity(ctx context.Context, ev event.ConnectivityEvent) State {
	c.lock.Lock()
	defer c.lock.Unlock()

	logrus.Infof("I have a connection on %s and my IP is %s", ev.Interface, ev.Address)
	c.shared.SetAddress(ev.Address)

	if c.State() == SYNCED_STATE {
		logrus.Debugf("Time already synchronized, connectivity event ignored")
		return SYNCED_STATE
	}

	// Resolving
	c.setState(RESOLVING_STATE)
	loc, err := c.resolver.Resolve(c.param.Timezone)
	if err == nil && loc == nil {
		err = fmt.Errorf("%w: no location for %q", ErrLookupFailure, c.param.Timezone)
	}
	if err != nil {
		if !errors.Is(err, ErrLookupFailure) {
			err = fmt.Errorf("%w: %w", ErrLookupFailure, err)
		}
		logrus.WithError(err).Errorf("Unable to resolve timezone %q", c.param.Timezone)
		c.setState(IDLE_STATE)
		return IDLE_STATE
	}
	c.shared.SetLocation(loc)
	if err := applyZone(loc); err != nil {
		logrus.Warnf("Unable to export timezone: %v", err)
	}
	logrus.Infof("Timezone set to %s", loc)

	// Syncing
	c.setState(SYNCING_STATE)
	synced := make(chan struct{})
	var once sync.Once
	err = c.client.Start(ctx, c.param.Servers, POLL_MODE, func(offset time.Duration) {
		logrus.Infof("Notification of a time synchronization event (offset %v)", offset)
		once.Do(func() { close(synced) })
	})
	if err != nil {
		logrus.WithError(err).Error("Unable to start time synchronization")
		c.setState(ABANDONED_STATE)
		return ABANDONED_STATE
	}

	// Waiting
	c.setState(WAITING_STATE)
	if err := c.wait(ctx, synced); err != nil {
		logrus.WithError(err).Warn("Time not synchronized, waiting for the next connection")
		c.setState(ABANDONED_STATE)
		return ABANDONED_STATE
	}

	c.shared.MarkTimeValid()
	c.setState(SYNCED_STATE)
	return SYNCED_STATE
}

// wait polls the local clock once per WaitInterval, at most WaitAttempts
// times, until it shows at least MinValidYear. A sync notification cuts the
// current interval short.
func (c *Coordinator) wait(ctx context.Context, synced <-chan struct{}) error {
	for attempt := 1; attempt <= c.param.WaitAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-synced:
			synced = nil
		case <-c.clock.After(c.param.WaitInterval):
		}

		now := c.clock.Now()
		if now.Year() >= c.param.MinValidYear {
			logrus.Infof("Local time is %s", now.Format(time.RFC1123))
			return nil
		}
		logrus.Infof("Waiting for system time to be set... (%d/%d)", attempt, c.param.WaitAttempts)
	}
	return fmt.Errorf("%w after %d attempts", ErrSyncTimeout, c.param.WaitAttempts)
}
