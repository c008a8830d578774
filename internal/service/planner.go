package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mentalist/internal/model"
	"mentalist/internal/repository"
)

// carryForwardTime is when the daily carry-forward job runs.
const carryForwardTime = "00:00"

// A writer lease outlives a few missed renewals so a busy process keeps it.
const (
	writerLeaseTTL   = 2 * time.Minute
	writerLeaseRenew = 30 * time.Second
)

// PlannerOptions wires the side-effect channels into a Planner. Nil fields degrade
// to log output or are skipped.
type PlannerOptions struct {
	Clock            Clock
	Location         *time.Location
	ReminderInterval time.Duration
	Notifier         Notifier
	Sound            SoundPlayer
	Vibrator         Vibrator
	Fallback         func(title, body string)
	Celebrator       Celebrator
	Breakdown        Breakdowner
	Transport        CollaborationTransport
}

// Planner is the application root: it owns every service, restores them from the
// state repository and keeps the repository in sync with every change.
type Planner struct {
	Tasks         *TaskService
	Categories    *CategoryService
	Notifications *NotificationService
	Collaboration *CollaborationService
	Completion    *CompletionWatcher
	Reminders     *ReminderScheduler
	Alerter       *Alerter
	Quotes        *Rotator
	Suggestions   *Rotator

	repo       *repository.StateRepository
	scheduler  *SchedulerService
	clock      Clock
	celebrator Celebrator
	breakdown  Breakdowner

	subscribe sync.Once
	persistMu sync.Mutex

	mu       sync.RWMutex
	holder   string
	settings model.Settings
	started  bool
	jobs     []cron.EntryID
	rotation cron.EntryID
	rotating bool
}

func NewPlanner(repo *repository.StateRepository, opts PlannerOptions) *Planner {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	transport := opts.Transport
	if transport == nil {
		transport = NewLoopbackTransport(LoopbackDelay)
	}
	breakdown := opts.Breakdown
	if breakdown == nil {
		breakdown = NewGeminiBreakdown("", "")
	}

	scheduler := NewSchedulerService(opts.Location)
	tasks := NewTaskService(clock)
	feed := NewNotificationService(clock)
	alerter := NewAlerter(opts.Notifier, opts.Sound, opts.Vibrator, opts.Fallback)

	p := &Planner{
		Tasks:         tasks,
		Categories:    NewCategoryService(tasks),
		Notifications: feed,
		Collaboration: NewCollaborationService(transport, feed, tasks, clock),
		Completion:    NewCompletionWatcher(tasks),
		Alerter:       alerter,
		Quotes:        NewQuoteRotator(repo, clock),
		Suggestions:   NewSuggestionRotator(repo, clock),

		repo:       repo,
		scheduler:  scheduler,
		clock:      clock,
		celebrator: opts.Celebrator,
		breakdown:  breakdown,
		settings:   model.DefaultSettings(),
	}
	p.Reminders = NewReminderScheduler(scheduler, alerter, clock, opts.ReminderInterval, p.soundSettings)
	return p
}

// Load restores every piece of state. Missing or malformed keys keep their defaults.
func (p *Planner) Load(ctx context.Context) {
	var tasks []model.Task
	if p.repo.LoadJSON(ctx, repository.KeyTasks, &tasks) {
		p.Tasks.Replace(tasks)
	}

	var categories []model.Category
	if !p.repo.LoadJSON(ctx, repository.KeyCategories, &categories) {
		categories = nil
	}
	p.Categories.Replace(categories, p.repo.LoadString(ctx, repository.KeyActiveCategory, model.CategoryDaily))

	settings := model.DefaultSettings()
	settings.Theme = model.FindTheme(p.repo.LoadString(ctx, repository.KeyTheme, model.DefaultTheme)).ID
	switch mode := model.DisplayMode(p.repo.LoadString(ctx, repository.KeyDisplayMode, string(model.DisplaySystem))); mode {
	case model.DisplayLight, model.DisplayDark, model.DisplaySystem:
		settings.DisplayMode = mode
	}
	var sound model.SoundSettings
	if p.repo.LoadJSON(ctx, repository.KeySoundSettings, &sound) {
		settings.Sound = sound
	}
	var flag bool
	if p.repo.LoadJSON(ctx, repository.KeyCarryForward, &flag) {
		settings.CarryForward = flag
	}
	flag = false
	if p.repo.LoadJSON(ctx, repository.KeyRotationEnabled, &flag) {
		settings.RotationEnabled = flag
	}
	p.mu.Lock()
	p.settings = settings
	p.mu.Unlock()

	var sent, inbox []model.CollaborationRequest
	if !p.repo.LoadJSON(ctx, repository.KeyCollabRequests, &sent) {
		sent = nil
	}
	if !p.repo.LoadJSON(ctx, repository.KeyCollabInbox, &inbox) {
		inbox = nil
	}
	p.Collaboration.Replace(sent, inbox)

	var feed []model.Notification
	if p.repo.LoadJSON(ctx, repository.KeyNotifications, &feed) {
		p.Notifications.Replace(feed)
	}

	p.Completion.Prime(p.categoryIDs())
	p.subscribe.Do(p.wire)

	log.Printf("[info] state loaded: tasks=%d lists=%d notifications=%d", len(p.Tasks.Snapshot()), len(p.Categories.List()), len(p.Notifications.List()))
}

func (p *Planner) wire() {
	p.Tasks.Subscribe(p.onTasksChanged)
	p.Categories.Subscribe(func() {
		p.persist(func(ctx context.Context) error {
			return errors.Join(
				p.repo.SaveJSON(ctx, repository.KeyCategories, p.Categories.List()),
				p.repo.Put(ctx, repository.KeyActiveCategory, p.Categories.Active()),
			)
		})
	})
	p.Notifications.OnChange(func() {
		p.persist(func(ctx context.Context) error {
			return p.repo.SaveJSON(ctx, repository.KeyNotifications, p.Notifications.List())
		})
	})
	p.Collaboration.OnChange(func() {
		p.persist(p.saveCollaboration)
	})
}

// persist runs one snapshot-and-write step at a time. The snapshot is taken inside
// the lock, so whichever change persists last also writes the newest state.
func (p *Planner) persist(save func(ctx context.Context) error) {
	p.persistMu.Lock()
	defer p.persistMu.Unlock()
	p.logSave(save(context.Background()))
}

func (p *Planner) onTasksChanged() {
	p.persist(func(ctx context.Context) error {
		return p.repo.SaveJSON(ctx, repository.KeyTasks, p.Tasks.Snapshot())
	})

	if finished := p.Completion.Check(p.categoryIDs()); len(finished) > 0 {
		log.Printf("[info] lists completed: %v", finished)
		p.Celebrate()
	}

	p.mu.RLock()
	started := p.started
	p.mu.RUnlock()
	if started {
		if err := p.Reminders.StartMonitoring(p.Tasks); err != nil {
			log.Printf("[warn] re-arm reminders: %v", err)
		}
	}
}

func (p *Planner) logSave(err error) {
	if err != nil {
		log.Printf("[warn] persist state: %v", err)
	}
}

// Save writes every snapshot key.
func (p *Planner) Save(ctx context.Context) error {
	p.persistMu.Lock()
	defer p.persistMu.Unlock()

	s := p.Settings()
	errs := []error{
		p.repo.SaveJSON(ctx, repository.KeyTasks, p.Tasks.Snapshot()),
		p.repo.SaveJSON(ctx, repository.KeyCategories, p.Categories.List()),
		p.repo.Put(ctx, repository.KeyActiveCategory, p.Categories.Active()),
		p.saveSettings(ctx, s),
		p.saveCollaboration(ctx),
		p.repo.SaveJSON(ctx, repository.KeyNotifications, p.Notifications.List()),
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (p *Planner) saveSettings(ctx context.Context, s model.Settings) error {
	return errors.Join(
		p.repo.Put(ctx, repository.KeyTheme, s.Theme),
		p.repo.Put(ctx, repository.KeyDisplayMode, string(s.DisplayMode)),
		p.repo.SaveJSON(ctx, repository.KeySoundSettings, s.Sound),
		p.repo.SaveJSON(ctx, repository.KeyCarryForward, s.CarryForward),
		p.repo.SaveJSON(ctx, repository.KeyRotationEnabled, s.RotationEnabled),
	)
}

func (p *Planner) saveCollaboration(ctx context.Context) error {
	return errors.Join(
		p.repo.SaveJSON(ctx, repository.KeyCollabRequests, p.Collaboration.Sent()),
		p.repo.SaveJSON(ctx, repository.KeyCollabInbox, p.Collaboration.Inbox()),
	)
}

// Start arms reminder monitoring, the rotation tick and the daily carry-forward job,
// and runs a carry-forward pass for today.
func (p *Planner) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.mu.Unlock()

	p.Alerter.Init(ctx)

	carry, err := p.scheduler.ScheduleDaily(carryForwardTime, func() {
		p.RunCarryForward(context.Background(), p.clock.Now())
	})
	if err != nil {
		return fmt.Errorf("schedule carry-forward: %w", err)
	}
	p.mu.Lock()
	p.jobs = append(p.jobs, carry)
	holder := p.holder
	p.mu.Unlock()

	if holder != "" {
		renew, err := p.scheduler.ScheduleInterval(writerLeaseRenew, p.renewWriter)
		if err != nil {
			return fmt.Errorf("schedule lease renewal: %w", err)
		}
		p.mu.Lock()
		p.jobs = append(p.jobs, renew)
		p.mu.Unlock()
	}

	if p.Settings().RotationEnabled {
		if err := p.armRotation(); err != nil {
			return err
		}
	}

	p.RunCarryForward(ctx, p.clock.Now())
	if err := p.Reminders.StartMonitoring(p.Tasks); err != nil {
		return err
	}
	p.scheduler.Start()
	log.Printf("[info] planner started")
	return nil
}

// Stop disarms every job and waits for running ones to finish.
func (p *Planner) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	for _, id := range p.jobs {
		p.scheduler.Remove(id)
	}
	p.jobs = nil
	p.mu.Unlock()

	p.disarmRotation()
	p.Reminders.StopMonitoring()
	p.scheduler.Stop()
	log.Printf("[info] planner stopped")
}

// AcquireWriter claims the state database for holder. Call it before Load: the state
// read afterwards cannot be overwritten by another process until ReleaseWriter.
func (p *Planner) AcquireWriter(ctx context.Context, holder string) error {
	if err := p.repo.AcquireLease(ctx, repository.KeyWriterLease, holder, writerLeaseTTL, p.clock.Now()); err != nil {
		return err
	}
	p.mu.Lock()
	p.holder = holder
	p.mu.Unlock()
	return nil
}

func (p *Planner) renewWriter() {
	p.mu.RLock()
	holder := p.holder
	p.mu.RUnlock()
	if err := p.repo.AcquireLease(context.Background(), repository.KeyWriterLease, holder, writerLeaseTTL, p.clock.Now()); err != nil {
		log.Printf("[warn] renew writer lease: %v", err)
	}
}

// ReleaseWriter gives up the lease taken by AcquireWriter.
func (p *Planner) ReleaseWriter(ctx context.Context) error {
	p.mu.Lock()
	holder := p.holder
	p.holder = ""
	p.mu.Unlock()
	if holder == "" {
		return nil
	}
	return p.repo.ReleaseLease(ctx, repository.KeyWriterLease, holder)
}

func (p *Planner) armRotation() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rotating {
		return nil
	}
	id, err := p.scheduler.ScheduleInterval(RotationCheckInterval, p.rotate)
	if err != nil {
		return fmt.Errorf("schedule rotation: %w", err)
	}
	p.rotation = id
	p.rotating = true
	return nil
}

func (p *Planner) disarmRotation() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rotating {
		p.scheduler.Remove(p.rotation)
		p.rotating = false
	}
}

func (p *Planner) rotate() {
	ctx := context.Background()
	if idx, changed := p.Quotes.Tick(ctx); changed {
		log.Printf("[info] quote rotated to %d", idx)
	}
	if idx, changed := p.Suggestions.Tick(ctx); changed {
		log.Printf("[info] suggestion set rotated to %d", idx)
	}
}

// RunCarryForward moves yesterday's unfinished tasks to today at most once per calendar day.
func (p *Planner) RunCarryForward(ctx context.Context, now time.Time) int {
	if !p.Settings().CarryForward {
		return 0
	}
	now = now.In(p.scheduler.Location())
	today := now.Format(model.DateLayout)
	if p.repo.LoadString(ctx, repository.KeyLastCarryForward, "") == today {
		return 0
	}
	yesterday := now.AddDate(0, 0, -1).Format(model.DateLayout)

	moved := p.Tasks.CarryForward(today, yesterday)
	p.logSave(p.repo.Put(ctx, repository.KeyLastCarryForward, today))
	if moved > 0 {
		log.Printf("[info] carried %d task(s) forward to %s", moved, today)
	}
	return moved
}

// Celebrate plays the celebration with the active theme's palette.
func (p *Planner) Celebrate() {
	palette := p.ActiveTheme().Palette
	if p.celebrator == nil {
		log.Printf("[info] celebration (no celebrator attached)")
		return
	}
	p.celebrator.Celebrate(palette)
}

// BreakDown asks the breakdown service for subtasks and appends them to the task.
// It returns the created subtasks; an unknown task or an empty answer creates nothing.
func (p *Planner) BreakDown(ctx context.Context, taskID string) []model.Task {
	task, ok := p.Tasks.Find(taskID)
	if !ok {
		return nil
	}
	var created []model.Task
	for _, title := range p.breakdown.Breakdown(ctx, task.Title) {
		if sub, ok := p.Tasks.AddSubtask(taskID, title); ok {
			created = append(created, sub)
		}
	}
	return created
}

// AcceptInvite accepts a collaboration request and switches to the shared list.
func (p *Planner) AcceptInvite(requestID string) (model.Task, error) {
	task, err := p.Collaboration.Accept(requestID)
	if err != nil {
		return model.Task{}, err
	}
	p.Categories.SetActive(model.CategoryShared)
	return task, nil
}

func (p *Planner) Settings() model.Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// UpdateSettings applies fn, persists the result and toggles rotation when it changed.
func (p *Planner) UpdateSettings(ctx context.Context, fn func(s *model.Settings)) error {
	p.mu.Lock()
	next := p.settings
	fn(&next)
	next.Theme = model.FindTheme(next.Theme).ID
	next.Sound.Volume = min(max(next.Sound.Volume, 0), 100)
	p.settings = next
	started := p.started
	p.mu.Unlock()

	if started {
		if next.RotationEnabled {
			if err := p.armRotation(); err != nil {
				return err
			}
		} else {
			p.disarmRotation()
		}
	}
	if err := p.saveSettings(ctx, next); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (p *Planner) soundSettings() model.SoundSettings {
	return p.Settings().Sound
}

func (p *Planner) ActiveTheme() model.Theme {
	return model.FindTheme(p.Settings().Theme)
}

// Quote returns the motivational quote for the current rotation window.
func (p *Planner) Quote(ctx context.Context) string {
	idx := 0
	if p.Settings().RotationEnabled {
		idx = p.Quotes.Index(ctx)
	}
	return model.MotivationalQuotes[idx%len(model.MotivationalQuotes)]
}

// QuickAdd returns the quick-add suggestions shown above the task input.
func (p *Planner) QuickAdd(ctx context.Context) []string {
	enabled := p.Settings().RotationEnabled
	idx := 0
	if enabled {
		idx = p.Suggestions.Index(ctx)
	}
	return QuickAddSuggestions(p.Tasks.RecurringSuggestions(), enabled, idx)
}

func (p *Planner) categoryIDs() []string {
	cats := p.Categories.List()
	ids := make([]string, 0, len(cats))
	for _, c := range cats {
		ids = append(ids, c.ID)
	}
	return ids
}

// ParseReminderTime validates an HH:MM string and normalises it to two-digit form.
func ParseReminderTime(s string) (string, error) {
	hour, minute, err := parseClock(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// ParseDate validates a YYYY-MM-DD string.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t.Format(model.DateLayout), nil
}

// Today is the current date string in the planner's zone.
func (p *Planner) Today() string {
	return p.clock.Now().In(p.scheduler.Location()).Format(model.DateLayout)
}
