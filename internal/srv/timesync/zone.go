package timesync

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"
)

// ZoneResolver maps a timezone name to a location. It has no side effects.
type ZoneResolver interface {
	Resolve(name string) (*time.Location, error)
}

type tzdataResolver struct{}

// NewZoneResolver resolves names against the system zoneinfo, falling back
// to the database embedded in the binary.
func NewZoneResolver() ZoneResolver {
	return tzdataResolver{}
}

func (tzdataResolver) Resolve(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty timezone name", ErrLookupFailure)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailure, err)
	}
	return loc, nil
}

// applyZone exports the zone to child processes through TZ.
func applyZone(loc *time.Location) error {
	return os.Setenv("TZ", loc.String())
}
