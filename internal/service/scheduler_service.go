package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"mentalist/internal/model"
)

// SchedulerService runs the planner's background jobs: the reminder poll, the rotation
// tick and the daily carry-forward. A panicking job is logged and the process keeps
// running; a poll that is still busy when its next tick arrives skips that tick.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	if loc == nil {
		loc = time.Local
	}
	cronLog := cron.PrintfLogger(log.New(log.Writer(), "[cron] ", log.LstdFlags))
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}
}

// ScheduleDaily runs job every day at the HH:MM wall-clock time of the scheduler's zone.
func (s *SchedulerService) ScheduleDaily(at string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(at)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// ScheduleInterval runs job every interval, truncated to whole seconds with a one second floor.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("schedule interval must be positive, got %s", interval)
	}
	return s.cron.Schedule(cron.Every(interval), cron.FuncJob(job)), nil
}

// Remove cancels a job. Runs already in flight are not interrupted.
func (s *SchedulerService) Remove(id cron.EntryID) {
	s.cron.Remove(id)
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs.
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
}

// Location is the zone reminders and daily jobs are evaluated in.
func (s *SchedulerService) Location() *time.Location {
	return s.cron.Location()
}

// buildDailySpec turns HH:MM into a seconds-enabled cron spec.
func buildDailySpec(at string) (string, error) {
	hour, minute, err := parseClock(at)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse(model.TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
