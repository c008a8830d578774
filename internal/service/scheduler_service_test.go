package service

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("07:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 7 * * *", spec)

	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerService_IntervalAndRemove(t *testing.T) {
	s := NewSchedulerService(time.UTC)

	_, err := s.ScheduleInterval(0, func() {})
	assert.Error(t, err)

	id, err := s.ScheduleInterval(time.Hour, func() {})
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 1)

	s.Remove(id)
	assert.Empty(t, s.cron.Entries())
	assert.Equal(t, time.UTC, s.Location())
}

func TestSchedulerService_RecoversPanickingJob(t *testing.T) {
	s := NewSchedulerService(time.UTC)
	ran := make(chan struct{}, 1)

	_, err := s.ScheduleInterval(time.Second, func() { panic("boom") })
	require.NoError(t, err)
	_, err = s.ScheduleInterval(time.Second, func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("healthy job did not run next to a panicking one")
	}
}

func TestSchedulerService_SubSecondIntervalRunsEverySecond(t *testing.T) {
	s := NewSchedulerService(time.UTC)
	_, err := s.ScheduleInterval(10*time.Millisecond, func() {})
	require.NoError(t, err)

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	schedule, ok := entries[0].Schedule.(cron.ConstantDelaySchedule)
	require.True(t, ok)
	assert.Equal(t, time.Second, schedule.Delay)
}
