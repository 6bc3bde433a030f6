package checkin

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circleapp/theater/internal/geolocation"
	"github.com/circleapp/theater/internal/repository/checkin/sqlite"
)

type ipSourceFunc func(ip string) geolocation.Source

func (f ipSourceFunc) Source(ip string) geolocation.Source {
	return f(ip)
}

func newTestService(t *testing.T, ipSource iIPSource) (*service, clockwork.FakeClock) {
	t.Helper()

	r, err := sqlite.Open(":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	clock := clockwork.NewFakeClock()
	return NewService(r, ipSource, slog.Default(), &Config{
		Options: geolocation.DefaultOptions(),
		Clock:   clock,
	}), clock
}

func TestCheckInWithReportedCoords(t *testing.T) {
	s, clock := newTestService(t, nil)
	ctx := context.Background()

	resp, err := s.CheckIn(ctx, &CheckInParams{
		MemberID: "m1",
		Label:    "exchange",
		Reported: &geolocation.Coords{Latitude: 34.05, Longitude: -118.24, Accuracy: 8},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.CheckIn.ID)
	assert.Equal(t, SourceDevice, resp.CheckIn.Source)
	assert.Equal(t, clock.Now().UnixMilli(), resp.CheckIn.CapturedAt)

	list, err := s.ListCheckIns(ctx, &ListCheckInsParams{MemberID: "m1"})
	require.NoError(t, err)
	require.Len(t, list.CheckIns, 1)
	assert.Equal(t, resp.CheckIn, list.CheckIns[0])
}

func TestCheckInReportedError(t *testing.T) {
	s, _ := newTestService(t, nil)
	code := geolocation.CodePermissionDenied

	_, err := s.CheckIn(context.Background(), &CheckInParams{MemberID: "m1", ReportedErrorCode: &code})

	var gerr *geolocation.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, geolocation.CodePermissionDenied, gerr.Code)
}

func TestCheckInWithoutAnySourceIsUnsupported(t *testing.T) {
	s, _ := newTestService(t, nil)

	_, err := s.CheckIn(context.Background(), &CheckInParams{MemberID: "m1", RemoteIP: "203.0.113.9"})

	var gerr *geolocation.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, geolocation.CodeUnsupported, gerr.Code)
}

func TestCheckInFallsBackToIP(t *testing.T) {
	var gotIP string
	s, _ := newTestService(t, ipSourceFunc(func(ip string) geolocation.Source {
		gotIP = ip
		return geolocation.SourceFunc(func(context.Context, geolocation.Options) (geolocation.Position, error) {
			return geolocation.Position{Latitude: 51.5, Longitude: -0.12, Accuracy: 20000}, nil
		})
	}))

	resp, err := s.CheckIn(context.Background(), &CheckInParams{MemberID: "m1", RemoteIP: "203.0.113.9"})
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", gotIP)
	assert.Equal(t, SourceIP, resp.CheckIn.Source)
	assert.Equal(t, 20000.0, resp.CheckIn.Accuracy)
}

func TestInvalidParams(t *testing.T) {
	s, _ := newTestService(t, nil)

	_, err := s.CheckIn(context.Background(), &CheckInParams{})
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = s.ListCheckIns(context.Background(), &ListCheckInsParams{})
	assert.ErrorIs(t, err, ErrInvalidParams)
}
