package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_ValueAndScan(t *testing.T) {
	d := NewDate(time.Date(2026, 3, 9, 23, 59, 0, 0, time.FixedZone("X", 3*3600)))

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", v)

	var fromString Date
	require.NoError(t, fromString.Scan("2026-03-09"))
	assert.True(t, fromString.Equal(d.Time))

	var fromBytes Date
	require.NoError(t, fromBytes.Scan([]byte("2026-03-09T00:00:00Z")))
	assert.Equal(t, "2026-03-09", fromBytes.String())

	var fromTime Date
	require.NoError(t, fromTime.Scan(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, d, fromTime)

	var bad Date
	assert.Error(t, bad.Scan(42))
	assert.Error(t, bad.Scan("yesterday"))
}

func TestTask_IsOverdue(t *testing.T) {
	today := NewDate(time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC))
	yesterday := NewDate(today.AddDate(0, 0, -1))

	assert.True(t, (&Task{DueDate: &yesterday, Status: StatusPending}).IsOverdue(today))
	assert.False(t, (&Task{DueDate: &yesterday, Status: StatusCompleted}).IsOverdue(today))
	assert.False(t, (&Task{DueDate: &today, Status: StatusPending}).IsOverdue(today))
	assert.False(t, (&Task{Status: StatusPending}).IsOverdue(today))
}
