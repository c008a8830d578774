package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mentalist/internal/model"
)

// DefaultReminderInterval is how often the tree is scanned for due reminders.
const DefaultReminderInterval = 30 * time.Second

const defaultReminderBody = "Time to work on this task!"

// VibrationPattern is the buzz-pause-buzz used for reminders.
var VibrationPattern = []time.Duration{200 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}

var ErrNotifierUnavailable = errors.New("notifier unavailable")

// Notifier delivers a system-level notification.
type Notifier interface {
	Notify(ctx context.Context, title, body, taskID string) error
}

// PermissionRequester is implemented by notifiers that need consent before use.
type PermissionRequester interface {
	RequestPermission(ctx context.Context) error
}

type SoundPlayer interface {
	Play(sound model.Sound, volume int) error
}

type Vibrator interface {
	Vibrate(pattern []time.Duration) error
}

// Alerter turns a due task into sound, vibration and a notification. Every capability is
// optional; a missing or refusing notifier degrades to the in-app fallback.
type Alerter struct {
	notifier Notifier
	sound    SoundPlayer
	vibrator Vibrator
	fallback func(title, body string)

	mu        sync.Mutex
	permitted bool
}

func NewAlerter(notifier Notifier, sound SoundPlayer, vibrator Vibrator, fallback func(title, body string)) *Alerter {
	if fallback == nil {
		fallback = func(title, body string) {
			log.Printf("[info] in-app alert: %s | %s", title, body)
		}
	}
	return &Alerter{notifier: notifier, sound: sound, vibrator: vibrator, fallback: fallback, permitted: notifier != nil}
}

// Init asks the notifier for permission once. A refusal switches every later alert to the fallback.
func (a *Alerter) Init(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.notifier == nil {
		a.permitted = false
		return
	}
	req, ok := a.notifier.(PermissionRequester)
	if !ok {
		return
	}
	if err := req.RequestPermission(ctx); err != nil {
		log.Printf("[warn] notification permission denied: %v", err)
		a.permitted = false
	}
}

// ReminderContent returns the title and body shown for a task's reminder.
func ReminderContent(task model.Task) (string, string) {
	body := strings.TrimSpace(task.Notes)
	if body == "" {
		body = defaultReminderBody
	}
	return "⏰ Reminder: " + task.Title, body
}

// Fire alerts about a task. Failures are logged, never returned.
func (a *Alerter) Fire(ctx context.Context, task model.Task, settings model.SoundSettings) {
	if settings.Enabled && a.sound != nil {
		if err := a.sound.Play(model.FindSound(settings.SoundID), settings.Volume); err != nil {
			log.Printf("[warn] play reminder sound: %v", err)
		}
	}
	if settings.Vibration && a.vibrator != nil {
		if err := a.vibrator.Vibrate(VibrationPattern); err != nil {
			log.Printf("[warn] vibrate: %v", err)
		}
	}

	title, body := ReminderContent(task)
	if err := a.notify(ctx, title, body, task.ID); err != nil {
		log.Printf("[warn] reminder for task %s falls back to in-app alert: %v", task.ID, err)
		a.fallback(title, body)
	}
}

func (a *Alerter) notify(ctx context.Context, title, body, taskID string) error {
	a.mu.Lock()
	permitted := a.permitted
	a.mu.Unlock()
	if a.notifier == nil || !permitted {
		return ErrNotifierUnavailable
	}
	if err := a.notifier.Notify(ctx, title, body, taskID); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

type reminderAlerter interface {
	Fire(ctx context.Context, task model.Task, settings model.SoundSettings)
}

// TaskSource is what the reminder scanner reads each poll.
type TaskSource interface {
	Snapshot() []model.Task
}

// ReminderScheduler scans the tree on a fixed interval and fires each due reminder once
// per (task, date, minute).
type ReminderScheduler struct {
	scheduler *SchedulerService
	alerter   reminderAlerter
	clock     Clock
	interval  time.Duration
	sound     func() model.SoundSettings

	mu         sync.Mutex
	source     TaskSource
	entry      cron.EntryID
	monitoring bool
	generation uint64
	slot       string
	fired      map[string]struct{}
}

func NewReminderScheduler(scheduler *SchedulerService, alerter reminderAlerter, clock Clock, interval time.Duration, sound func() model.SoundSettings) *ReminderScheduler {
	if clock == nil {
		clock = RealClock{}
	}
	if interval <= 0 {
		interval = DefaultReminderInterval
	}
	if sound == nil {
		sound = model.DefaultSoundSettings
	}
	return &ReminderScheduler{
		scheduler: scheduler,
		alerter:   alerter,
		clock:     clock,
		interval:  interval,
		sound:     sound,
		fired:     make(map[string]struct{}),
	}
}

// StartMonitoring arms the periodic poll against source and polls once right away.
// Calling it while already monitoring re-arms against the new source.
func (r *ReminderScheduler) StartMonitoring(source TaskSource) error {
	r.mu.Lock()
	r.disarmLocked()
	r.generation++
	gen := r.generation
	r.source = source

	entry, err := r.scheduler.ScheduleInterval(r.interval, func() { r.poll(gen) })
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("schedule reminder poll: %w", err)
	}
	r.entry = entry
	r.monitoring = true
	r.mu.Unlock()

	r.poll(gen)
	return nil
}

// StopMonitoring disarms the poll. A run that cron already dequeued becomes a no-op.
func (r *ReminderScheduler) StopMonitoring() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disarmLocked()
	r.generation++
}

func (r *ReminderScheduler) Monitoring() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.monitoring
}

func (r *ReminderScheduler) disarmLocked() {
	if r.monitoring {
		r.scheduler.Remove(r.entry)
	}
	r.monitoring = false
	r.source = nil
}

func (r *ReminderScheduler) poll(gen uint64) {
	r.mu.Lock()
	if !r.monitoring || gen != r.generation || r.source == nil {
		r.mu.Unlock()
		return
	}
	source := r.source

	now := r.clock.Now().In(r.scheduler.Location())
	today := now.Format(model.DateLayout)
	minute := now.Format(model.TimeLayout)
	slot := today + " " + minute
	if slot != r.slot {
		r.slot = slot
		clear(r.fired)
	}
	r.mu.Unlock()

	due := dueReminders(source.Snapshot(), today, minute)

	r.mu.Lock()
	var toFire []model.Task
	for _, task := range due {
		if _, done := r.fired[task.ID]; done {
			continue
		}
		r.fired[task.ID] = struct{}{}
		toFire = append(toFire, task)
	}
	r.mu.Unlock()

	settings := r.sound()
	for _, task := range toFire {
		log.Printf("[info] reminder due task=%s at=%s", task.ID, slot)
		r.alerter.Fire(context.Background(), task, settings)
	}
}

// dueReminders collects incomplete tasks at any depth whose reminder instant is (today, minute).
func dueReminders(tasks []model.Task, today, minute string) []model.Task {
	var out []model.Task
	for _, task := range tasks {
		if !task.IsCompleted && task.DueDate == today && task.ReminderTime == minute {
			out = append(out, task)
		}
		out = append(out, dueReminders(task.SubTasks, today, minute)...)
	}
	return out
}
