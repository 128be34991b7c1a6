package timesync

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/jypelle/vekimon/internal/srv/event"
	"github.com/jypelle/vekimon/internal/srv/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Unix(0, 0).UTC()

// fakeClock advances its time by d on every After call and fires immediately.
type fakeClock struct {
	lock     sync.Mutex
	now      time.Time
	afters   []time.Duration
	nowCalls int
	// validAt is the Now call from which the clock shows a synced date, 0 for never.
	validAt int
}

func (f *fakeClock) Now() time.Time {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.nowCalls++
	if f.validAt > 0 && f.nowCalls >= f.validAt {
		return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
	return f.now
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.afters = append(f.afters, d)
	f.now = f.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- f.now
	return ch
}

type fakeResolver struct {
	loc   *time.Location
	err   error
	calls int
}

func (r *fakeResolver) Resolve(name string) (*time.Location, error) {
	r.calls++
	return r.loc, r.err
}

type fakeClient struct {
	startErr   error
	syncOnCall bool
	starts     int
	servers    []string
	mode       Mode
}

func (c *fakeClient) Start(ctx context.Context, servers []string, mode Mode, onSynced func(offset time.Duration)) error {
	c.starts++
	c.servers = servers
	c.mode = mode
	if c.startErr != nil {
		return c.startErr
	}
	if c.syncOnCall {
		onSynced(time.Second)
	}
	return nil
}

func (c *fakeClient) Now() time.Time {
	return epoch
}

func testParam() config.TimeSyncParam {
	return config.TimeSyncParam{
		Timezone:     "Europe/Paris",
		Servers:      []string{"0.pool.ntp.org", "1.pool.ntp.org"},
		WaitInterval: 2 * time.Second,
		WaitAttempts: 10,
		MinValidYear: 2016,
	}
}

func testEvent() event.ConnectivityEvent {
	return event.ConnectivityEvent{Interface: "wlan0", Address: net.IPv4(192, 168, 1, 42)}
}

func TestCoordinatorAbandonsAfterBoundedPolls(t *testing.T) {
	t.Setenv("TZ", "")
	shared := status.NewShared()
	clock := &fakeClock{now: epoch}
	client := &fakeClient{}
	coordinator := NewCoordinator(testParam(), shared, &fakeResolver{loc: time.UTC}, client, clock)

	state := coordinator.HandleConnectivity(context.Background(), testEvent())

	assert.Equal(t, ABANDONED_STATE, state)
	assert.Equal(t, ABANDONED_STATE, coordinator.State())
	assert.Equal(t, 10, clock.nowCalls)
	require.Len(t, clock.afters, 10)
	for _, d := range clock.afters {
		assert.GreaterOrEqual(t, d, 2*time.Second)
	}
	assert.False(t, shared.TimeValid())
	assert.Equal(t, "ABANDONED", shared.SyncState())
	assert.Equal(t, 1, client.starts)
	assert.Equal(t, POLL_MODE, client.mode)
	assert.Equal(t, []string{"0.pool.ntp.org", "1.pool.ntp.org"}, client.servers)
}

func TestCoordinatorSyncs(t *testing.T) {
	t.Setenv("TZ", "")
	shared := status.NewShared()
	loc := time.FixedZone("CET", 3600)
	clock := &fakeClock{now: epoch, validAt: 3}
	coordinator := NewCoordinator(testParam(), shared, &fakeResolver{loc: loc}, &fakeClient{}, clock)

	var states []State
	coordinator.OnStateChange = func(s State) { states = append(states, s) }

	state := coordinator.HandleConnectivity(context.Background(), testEvent())

	assert.Equal(t, SYNCED_STATE, state)
	assert.True(t, shared.TimeValid())
	assert.Equal(t, loc, shared.Location())
	assert.Equal(t, "192.168.1.42", shared.Address().String())
	assert.Equal(t, "CET", os.Getenv("TZ"))
	assert.Equal(t, 3, clock.nowCalls)
	assert.Equal(t, []State{RESOLVING_STATE, SYNCING_STATE, WAITING_STATE, SYNCED_STATE}, states)
}

func TestCoordinatorSyncNotificationShortensWait(t *testing.T) {
	t.Setenv("TZ", "")
	shared := status.NewShared()
	clock := &fakeClock{now: epoch, validAt: 1}
	coordinator := NewCoordinator(testParam(), shared, &fakeResolver{loc: time.UTC}, &fakeClient{syncOnCall: true}, clock)

	state := coordinator.HandleConnectivity(context.Background(), testEvent())

	assert.Equal(t, SYNCED_STATE, state)
	assert.Equal(t, 1, clock.nowCalls)
}

func TestCoordinatorLookupFailure(t *testing.T) {
	tests := []struct {
		name     string
		resolver *fakeResolver
	}{
		{"Error", &fakeResolver{err: errors.New("unknown zone")}},
		{"NilLocation", &fakeResolver{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shared := status.NewShared()
			client := &fakeClient{}
			clock := &fakeClock{now: epoch}
			coordinator := NewCoordinator(testParam(), shared, tt.resolver, client, clock)

			state := coordinator.HandleConnectivity(context.Background(), testEvent())

			assert.Equal(t, IDLE_STATE, state)
			assert.Equal(t, 1, tt.resolver.calls)
			assert.Equal(t, 0, client.starts)
			assert.Equal(t, 0, clock.nowCalls)
			assert.False(t, shared.TimeValid())
		})
	}
}

func TestCoordinatorClientStartFailure(t *testing.T) {
	t.Setenv("TZ", "")
	shared := status.NewShared()
	clock := &fakeClock{now: epoch}
	coordinator := NewCoordinator(testParam(), shared, &fakeResolver{loc: time.UTC}, &fakeClient{startErr: errNoServer}, clock)

	state := coordinator.HandleConnectivity(context.Background(), testEvent())

	assert.Equal(t, ABANDONED_STATE, state)
	assert.Equal(t, 0, clock.nowCalls)
	assert.False(t, shared.TimeValid())
}

func TestCoordinatorRestartsOnNextEventOnly(t *testing.T) {
	t.Setenv("TZ", "")
	shared := status.NewShared()
	clock := &fakeClock{now: epoch}
	client := &fakeClient{}
	coordinator := NewCoordinator(testParam(), shared, &fakeResolver{loc: time.UTC}, client, clock)

	assert.Equal(t, ABANDONED_STATE, coordinator.HandleConnectivity(context.Background(), testEvent()))
	assert.False(t, shared.TimeValid())

	clock.validAt = clock.nowCalls + 1
	assert.Equal(t, SYNCED_STATE, coordinator.HandleConnectivity(context.Background(), testEvent()))
	assert.True(t, shared.TimeValid())
	assert.Equal(t, 2, client.starts)

	// terminal: later events leave the flag and the client alone
	assert.Equal(t, SYNCED_STATE, coordinator.HandleConnectivity(context.Background(), testEvent()))
	assert.True(t, shared.TimeValid())
	assert.Equal(t, 2, client.starts)
}

func TestCoordinatorCancelledWhileWaiting(t *testing.T) {
	t.Setenv("TZ", "")
	shared := status.NewShared()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// real timers so that only the cancelled context can end the wait
	coordinator := NewCoordinator(testParam(), shared, &fakeResolver{loc: time.UTC}, &fakeClient{}, NewClock(func() time.Time { return epoch }))

	state := coordinator.HandleConnectivity(ctx, testEvent())

	assert.Equal(t, ABANDONED_STATE, state)
	assert.False(t, shared.TimeValid())
}

func TestCoordinatorRun(t *testing.T) {
	t.Setenv("TZ", "")
	shared := status.NewShared()
	clock := &fakeClock{now: epoch, validAt: 1}
	coordinator := NewCoordinator(testParam(), shared, &fakeResolver{loc: time.UTC}, &fakeClient{}, clock)

	events := make(chan event.ConnectivityEvent, 1)
	events <- testEvent()
	close(events)

	require.NoError(t, coordinator.Run(context.Background(), events))
	assert.True(t, shared.TimeValid())
	assert.Equal(t, SYNCED_STATE, coordinator.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "IDLE", IDLE_STATE.String())
	assert.Equal(t, "WAITING", WAITING_STATE.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}

func TestZoneResolver(t *testing.T) {
	resolver := NewZoneResolver()

	loc, err := resolver.Resolve("Europe/Paris")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())

	_, err = resolver.Resolve("")
	assert.ErrorIs(t, err, ErrLookupFailure)

	_, err = resolver.Resolve("Nowhere/Atlantis")
	assert.ErrorIs(t, err, ErrLookupFailure)
}
