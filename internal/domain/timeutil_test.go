package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUTC(t *testing.T) {
	t.Parallel()

	t.Run("nil passes through", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, NormalizeUTC(nil))
	})

	t.Run("offset timestamp converts to the same instant in UTC", func(t *testing.T) {
		t.Parallel()

		loc := time.FixedZone("UTC+7", 7*60*60)
		local := time.Date(2025, 3, 14, 16, 30, 0, 0, loc)

		got := NormalizeUTC(&local)

		require.NotNil(t, got)
		assert.Equal(t, time.UTC, got.Location())
		assert.True(t, got.Equal(local), "normalization must not move the instant")
		assert.Equal(t, 9, got.Hour())
	})

	t.Run("already-UTC value is a no-op", func(t *testing.T) {
		t.Parallel()

		utc := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

		got := NormalizeUTC(&utc)

		require.NotNil(t, got)
		assert.Equal(t, utc, *got)
	})

	t.Run("returns a fresh pointer", func(t *testing.T) {
		t.Parallel()

		utc := time.Now().UTC()

		got := NormalizeUTC(&utc)

		assert.NotSame(t, &utc, got)
	})
}

func TestTaskNormalizeTimestamps(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-5", -5*60*60)
	due := time.Date(2025, 6, 1, 10, 0, 0, 0, loc)
	scheduled := time.Date(2025, 6, 1, 8, 0, 0, 0, loc)

	task := &Task{
		DueDate:        &due,
		ScheduledStart: &scheduled,
	}

	task.NormalizeTimestamps()

	require.NotNil(t, task.DueDate)
	require.NotNil(t, task.ScheduledStart)
	assert.Equal(t, time.UTC, task.DueDate.Location())
	assert.Equal(t, time.UTC, task.ScheduledStart.Location())
	assert.True(t, task.DueDate.Equal(due))
	assert.True(t, task.ScheduledStart.Equal(scheduled))
	assert.Nil(t, task.StartDate)
	assert.Nil(t, task.CompletedAt)
}
