package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createSession struct {
	HostName  string  `json:"host_name" validate:"required,max=32"`
	ContentID string  `json:"content_id" validate:"required"`
	Zone      string  `json:"timezone" validate:"omitempty,oneof=America/Chicago America/New_York"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Limit     int     `json:"limit" validate:"gte=0,lte=100"`
	Internal  string  `json:"-" validate:"max=1"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	errs, ok := v.Validate(createSession{HostName: "Ava", ContentID: "x"})
	assert.True(t, ok)
	assert.Empty(t, errs)

	errs, ok = v.Validate(createSession{Zone: "Europe/Paris", Latitude: 91, Limit: 101})
	require.False(t, ok)

	byField := make(map[string]ValidationError, len(errs))
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "REQUIRED", byField["host_name"].Code)
	assert.Equal(t, "host_name is required", byField["host_name"].Message)
	assert.Equal(t, "content_id is required", byField["content_id"].Message)
	assert.Equal(t, "timezone must be one of: America/Chicago America/New_York", byField["timezone"].Message)
	assert.Equal(t, "latitude must be a valid latitude", byField["latitude"].Message)
	assert.Equal(t, "limit must not exceed 100", byField["limit"].Message)
}
