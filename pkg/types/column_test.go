package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnFromName(t *testing.T) {
	c, ok := ColumnFromName("GRID_SUPPLY")
	require.True(t, ok)
	assert.Equal(t, ColumnGridSupply, c)

	_, ok = ColumnFromName("Grid supply")
	assert.False(t, ok, "friendly labels are not configuration names")

	_, ok = ColumnFromName("NOPE")
	assert.False(t, ok)
}

func TestColumnNameRoundTrip(t *testing.T) {
	for name, col := range columnNames {
		assert.Equal(t, name, col.Name())
	}
}

func TestColumnLabel(t *testing.T) {
	assert.Equal(t, "PW supply", ColumnPWSupply.Label(nil))
	assert.Equal(t, "Battery supply", ColumnPWSupply.Label(map[Column]string{
		ColumnPWSupply: "Battery supply",
	}))
}

func TestConfigError(t *testing.T) {
	inner := &UnknownScheduleError{Plan: "P", Season: "S", Schedule: "X"}
	err := &ConfigError{Violations: []error{inner, errors.New("other")}}

	assert.Contains(t, err.Error(), "2 violations")
	var unknown *UnknownScheduleError
	assert.ErrorAs(t, err, &unknown)
}

func TestUpstreamDataError(t *testing.T) {
	inner := errors.New("connection refused")
	err := &UpstreamDataError{Err: inner}

	assert.ErrorIs(t, err, ErrUpstreamData)
	assert.ErrorIs(t, err, inner)
}
