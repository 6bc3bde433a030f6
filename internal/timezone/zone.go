package timezone

import (
	"errors"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"golang.org/x/exp/slices"
)

var (
	ErrUnsupportedZone = errors.New("unsupported timezone")
	ErrEmptyInput      = errors.New("empty input")
)

// Zone is one of the supported display timezones.
type Zone string

const (
	Eastern  Zone = "America/New_York"
	Central  Zone = "America/Chicago"
	Mountain Zone = "America/Denver"
	Pacific  Zone = "America/Los_Angeles"
	Alaska   Zone = "America/Anchorage"
	Hawaii   Zone = "Pacific/Honolulu"
)

type zoneInfo struct {
	zone  Zone
	abbr  string
	label string
}

var zones = []zoneInfo{
	{Eastern, "ET", "Eastern Time (ET)"},
	{Central, "CT", "Central Time (CT)"},
	{Mountain, "MT", "Mountain Time (MT)"},
	{Pacific, "PT", "Pacific Time (PT)"},
	{Alaska, "AKT", "Alaska Time (AKT)"},
	{Hawaii, "HT", "Hawaii Time (HT)"},
}

type Option struct {
	Value Zone   `json:"value"`
	Label string `json:"label"`
}

// Options lists the supported zones in display order.
func Options() []Option {
	opts := make([]Option, 0, len(zones))
	for _, z := range zones {
		opts = append(opts, Option{Value: z.zone, Label: z.label})
	}

	return opts
}

func lookup(zone Zone) (zoneInfo, bool) {
	i := slices.IndexFunc(zones, func(z zoneInfo) bool { return z.zone == zone })
	if i < 0 {
		return zoneInfo{}, false
	}

	return zones[i], true
}

func ParseZone(s string) (Zone, error) {
	if _, ok := lookup(Zone(s)); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedZone, s)
	}

	return Zone(s), nil
}

func (z Zone) Valid() bool {
	_, ok := lookup(z)
	return ok
}

// Abbr returns the short name of zone, or the zone itself when unsupported.
func Abbr(zone Zone) string {
	if z, ok := lookup(zone); ok {
		return z.abbr
	}

	return string(zone)
}

// Label returns the display label of zone, or the zone itself when
// unsupported.
func Label(zone Zone) string {
	if z, ok := lookup(zone); ok {
		return z.label
	}

	return string(zone)
}

var locations sync.Map

// Location loads the IANA location for a supported zone.
func Location(zone Zone) (*time.Location, error) {
	if _, ok := lookup(zone); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedZone, zone)
	}
	if loc, ok := locations.Load(zone); ok {
		return loc.(*time.Location), nil
	}

	loc, err := time.LoadLocation(string(zone))
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", zone, err)
	}
	locations.Store(zone, loc)

	return loc, nil
}
