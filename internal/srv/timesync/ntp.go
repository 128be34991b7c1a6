package timesync

import (
	"context"
	"errors"
	"github.com/beevik/ntp"
	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/sirupsen/logrus"
	"sync"
	"sync/atomic"
	"time"
)

type Mode int

const (
	POLL_MODE Mode = iota
	ONE_SHOT_MODE
)

const failedPollDelay = 10 * time.Second

var errNoServer = errors.New("no time server configured")

// SyncClient keeps a local clock in line with network time servers.
type SyncClient interface {
	// Start begins synchronization against servers, in order. onSynced is
	// called once, on the first successful synchronization. Starting an
	// already running client only registers onSynced.
	Start(ctx context.Context, servers []string, mode Mode, onSynced func(offset time.Duration)) error
	// Now is the disciplined local time.
	Now() time.Time
}

// queryFunc returns the offset of the local clock against host.
type queryFunc func(host string, timeout time.Duration) (time.Duration, error)

func ntpQuery(host string, timeout time.Duration) (time.Duration, error) {
	response, err := ntp.QueryWithOptions(host, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := response.Validate(); err != nil {
		return 0, err
	}
	return response.ClockOffset, nil
}

type NtpClient struct {
	pollInterval time.Duration
	queryTimeout time.Duration
	query        queryFunc
	bootTime     time.Time

	lock      sync.Mutex
	running   bool
	callbacks []func(offset time.Duration)

	offset atomic.Int64
	synced atomic.Bool
}

func NewNtpClient(param config.TimeSyncParam) *NtpClient {
	return newNtpClient(param, ntpQuery)
}

func newNtpClient(param config.TimeSyncParam, query queryFunc) *NtpClient {
	return &NtpClient{
		pollInterval: param.PollInterval,
		queryTimeout: param.QueryTimeout,
		query:        query,
		bootTime:     time.Now(),
	}
}

// Now counts from the epoch until the first synchronization, like a board
// without a battery backed clock, then follows the servers.
func (c *NtpClient) Now() time.Time {
	if !c.synced.Load() {
		return time.Unix(0, 0).Add(time.Since(c.bootTime))
	}
	return time.Now().Add(time.Duration(c.offset.Load()))
}

func (c *NtpClient) Synced() bool {
	return c.synced.Load()
}

func (c *NtpClient) Start(ctx context.Context, servers []string, mode Mode, onSynced func(offset time.Duration)) error {
	if len(servers) == 0 {
		return errNoServer
	}

	c.lock.Lock()
	if c.synced.Load() {
		c.lock.Unlock()
		if onSynced != nil {
			onSynced(time.Duration(c.offset.Load()))
		}
		return nil
	}
	if onSynced != nil {
		c.callbacks = append(c.callbacks, onSynced)
	}
	if c.running {
		c.lock.Unlock()
		return nil
	}
	c.running = true
	c.lock.Unlock()

	logrus.Infof("Start time synchronization with %v", servers)
	go c.run(ctx, servers, mode)
	return nil
}

func (c *NtpClient) run(ctx context.Context, servers []string, mode Mode) {
	defer func() {
		c.lock.Lock()
		c.running = false
		c.lock.Unlock()
	}()

	for {
		delay := c.pollInterval
		if !c.poll(servers) {
			if mode == ONE_SHOT_MODE {
				return
			}
			delay = failedPollDelay
		} else if mode == ONE_SHOT_MODE {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// poll queries the servers in order and keeps the first valid offset.
func (c *NtpClient) poll(servers []string) bool {
	for _, server := range servers {
		offset, err := c.query(server, c.queryTimeout)
		if err != nil {
			logrus.WithError(err).Debugf("Time server %s failed", server)
			continue
		}
		c.offset.Store(int64(offset))
		logrus.Debugf("Time server %s offset %v", server, offset)
		if !c.synced.Swap(true) {
			logrus.Infof("Time synchronized with %s (offset %v)", server, offset)
			c.notify(offset)
		}
		return true
	}
	logrus.Warnf("No time server answered (%v)", servers)
	return false
}

func (c *NtpClient) notify(offset time.Duration) {
	c.lock.Lock()
	callbacks := c.callbacks
	c.callbacks = nil
	c.lock.Unlock()

	for _, callback := range callbacks {
		callback(offset)
	}
}
