package refresh

import (
	"github.com/jypelle/vekimon/internal/images"
	"github.com/jypelle/vekimon/internal/srv/status"
	"time"
)

const (
	PLACEHOLDER_TIME = "--:--"
	PLACEHOLDER_DATE = "Syncing time..."
)

// Clock shows the local time once the network time is trusted, a placeholder
// before. The corner icon tells whether the network or the time sync is awaited.
type Clock struct {
	shared *status.Shared
	now    func() time.Time
	label  string

	pending  Content
	rendered Content
	drawn    bool
}

func NewClock(shared *status.Shared, now func() time.Time, label string) *Clock {
	return &Clock{shared: shared, now: now, label: label}
}

func (c *Clock) Name() string {
	return "clock"
}

func (c *Clock) Compose(force bool) (Content, bool) {
	content := Content{
		Primary:   PLACEHOLDER_TIME,
		Secondary: PLACEHOLDER_DATE,
		Label:     c.label,
		Icon:      images.SyncIcon,
	}
	if c.shared.Address() == nil {
		content.Icon = images.NetworkIcon
	}
	if c.shared.TimeValid() {
		content.Icon = nil
		now := c.now().In(c.shared.Location())
		content.Primary = now.Format("15:04")
		content.Secondary = now.Format("Mon Jan 02")
	}

	c.pending = content
	return content, force || !c.drawn || content != c.rendered
}

func (c *Clock) Commit() {
	c.rendered = c.pending
	c.drawn = true
}
