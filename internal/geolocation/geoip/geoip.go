package geoip

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/jonboulle/clockwork"
	"github.com/oschwald/maxminddb-golang"

	"github.com/circleapp/theater/internal/geolocation"
)

var ErrDisabled = errors.New("geoip database not loaded")

// Resolver looks up coarse positions from a MaxMind city database.
type Resolver struct {
	db     *maxminddb.Reader
	clock  clockwork.Clock
	logger *slog.Logger
}

type cityResult struct {
	Location struct {
		Latitude       float64 `maxminddb:"latitude"`
		Longitude      float64 `maxminddb:"longitude"`
		AccuracyRadius uint16  `maxminddb:"accuracy_radius"`
	} `maxminddb:"location"`
}

// New opens the database at dbPath. An empty path or unreadable file yields a
// disabled resolver rather than an error.
func New(dbPath string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{clock: clockwork.NewRealClock(), logger: logger}
	if dbPath == "" {
		return r
	}

	db, err := maxminddb.Open(dbPath)
	if err != nil {
		logger.Warn("geoip: failed to open database, lookups disabled", "path", dbPath, "error", err)
		return r
	}
	logger.Info("geoip: loaded database", "path", dbPath)
	r.db = db

	return r
}

func (r *Resolver) Enabled() bool {
	return r != nil && r.db != nil
}

// Lookup resolves ip to a position. Accuracy is the database radius in meters.
func (r *Resolver) Lookup(ipStr string) (geolocation.Position, error) {
	if !r.Enabled() {
		return geolocation.Position{}, ErrDisabled
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return geolocation.Position{}, geolocation.NewError(geolocation.CodePositionUnavailable)
	}

	var result cityResult
	if err := r.db.Lookup(ip, &result); err != nil {
		r.logger.Info("geoip: lookup failed", "ip", ipStr, "error", err)
		return geolocation.Position{}, geolocation.NewError(geolocation.CodePositionUnavailable)
	}
	if result.Location.Latitude == 0 && result.Location.Longitude == 0 {
		return geolocation.Position{}, geolocation.NewError(geolocation.CodePositionUnavailable)
	}

	return geolocation.Position{
		Latitude:  result.Location.Latitude,
		Longitude: result.Location.Longitude,
		Accuracy:  float64(result.Location.AccuracyRadius) * 1000,
		Timestamp: r.clock.Now(),
	}, nil
}

// Source returns a position source bound to one client address, or nil when
// the resolver is disabled.
func (r *Resolver) Source(ip string) geolocation.Source {
	if !r.Enabled() {
		return nil
	}

	return geolocation.SourceFunc(func(ctx context.Context, _ geolocation.Options) (geolocation.Position, error) {
		if err := ctx.Err(); err != nil {
			return geolocation.Position{}, err
		}
		return r.Lookup(ip)
	})
}

func (r *Resolver) Close() error {
	if r.Enabled() {
		return r.db.Close()
	}
	return nil
}
