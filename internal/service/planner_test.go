package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentalist/internal/model"
	"mentalist/internal/repository"
)

type recordingCelebrator struct {
	palettes []model.Palette
}

func (c *recordingCelebrator) Celebrate(p model.Palette) {
	c.palettes = append(c.palettes, p)
}

type stubBreakdown struct {
	titles []string
	asked  []string
}

func (b *stubBreakdown) Breakdown(_ context.Context, title string) []string {
	b.asked = append(b.asked, title)
	return b.titles
}

type plannerFixture struct {
	repo       *repository.StateRepository
	clock      *fixedClock
	celebrator *recordingCelebrator
	breakdown  *stubBreakdown
}

func newPlannerFixture(t *testing.T) *plannerFixture {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "mentalist.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &plannerFixture{
		repo:       repository.NewStateRepository(db),
		clock:      &fixedClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
		celebrator: &recordingCelebrator{},
		breakdown:  &stubBreakdown{},
	}
}

func (f *plannerFixture) planner() *Planner {
	transport := NewLoopbackTransport(LoopbackDelay)
	transport.afterFunc = immediate
	p := NewPlanner(f.repo, PlannerOptions{
		Clock:      f.clock,
		Location:   time.UTC,
		Celebrator: f.celebrator,
		Breakdown:  f.breakdown,
		Transport:  transport,
	})
	p.Collaboration.afterFunc = immediate
	p.Load(context.Background())
	return p
}

func TestPlanner_PersistsAndRestores(t *testing.T) {
	f := newPlannerFixture(t)
	ctx := context.Background()

	p := f.planner()
	task := p.Tasks.Create("Water plants", "personal", "")
	mustAddSubtask(t, p.Tasks, task.ID, "Fern")
	custom := p.Categories.Create()
	p.Categories.Rename(custom.ID, "Garden")
	require.NoError(t, p.UpdateSettings(ctx, func(s *model.Settings) {
		s.Theme = "ocean"
		s.CarryForward = false
		s.Sound.Volume = 140
	}))

	restored := f.planner()
	got, ok := restored.Tasks.Find(task.ID)
	require.True(t, ok)
	assert.Equal(t, "Water plants", got.Title)
	require.Len(t, got.SubTasks, 1)

	cat, ok := restored.Categories.Get(custom.ID)
	require.True(t, ok)
	assert.Equal(t, "Garden", cat.Name)
	assert.Equal(t, custom.ID, restored.Categories.Active())

	s := restored.Settings()
	assert.Equal(t, "ocean", s.Theme)
	assert.False(t, s.CarryForward)
	assert.True(t, s.RotationEnabled)
	assert.Equal(t, 100, s.Sound.Volume)
}

func TestPlanner_MalformedStateFallsBackToDefaults(t *testing.T) {
	f := newPlannerFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Put(ctx, repository.KeyTasks, "[{broken"))
	require.NoError(t, f.repo.Put(ctx, repository.KeyCategories, "nope"))
	require.NoError(t, f.repo.Put(ctx, repository.KeyCarryForward, "maybe"))
	require.NoError(t, f.repo.Put(ctx, repository.KeyTheme, "unknown-theme"))

	p := f.planner()
	assert.Empty(t, p.Tasks.Snapshot())
	assert.Equal(t, model.DefaultCategories(), p.Categories.List())
	assert.Equal(t, model.DefaultSettings(), p.Settings())
}

func TestPlanner_CelebratesOncePerCompletion(t *testing.T) {
	f := newPlannerFixture(t)
	p := f.planner()
	require.NoError(t, p.UpdateSettings(context.Background(), func(s *model.Settings) { s.Theme = "love" }))

	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		ids = append(ids, p.Tasks.Create(title, "work", "").ID)
	}

	p.Tasks.Update(ids[0], model.TaskPatch{IsCompleted: ptr(true)})
	p.Tasks.Update(ids[1], model.TaskPatch{IsCompleted: ptr(true)})
	assert.Empty(t, f.celebrator.palettes)

	p.Tasks.Update(ids[2], model.TaskPatch{IsCompleted: ptr(true)})
	require.Len(t, f.celebrator.palettes, 1)
	assert.Equal(t, model.FindTheme("love").Palette, f.celebrator.palettes[0])

	p.Tasks.Update(ids[2], model.TaskPatch{Notes: ptr("edited")})
	assert.Len(t, f.celebrator.palettes, 1)

	p.Tasks.Update(ids[1], model.TaskPatch{IsCompleted: ptr(false)})
	p.Tasks.Update(ids[1], model.TaskPatch{IsCompleted: ptr(true)})
	assert.Len(t, f.celebrator.palettes, 2)

	p.Celebrate()
	assert.Len(t, f.celebrator.palettes, 3)
}

func TestPlanner_LoadedCompleteListDoesNotCelebrate(t *testing.T) {
	f := newPlannerFixture(t)
	p := f.planner()
	done := p.Tasks.Create("done", "other", "")
	p.Tasks.Update(done.ID, model.TaskPatch{IsCompleted: ptr(true)})
	require.Len(t, f.celebrator.palettes, 1)

	restored := f.planner()
	restored.Tasks.Update(done.ID, model.TaskPatch{Notes: ptr("x")})
	assert.Len(t, f.celebrator.palettes, 1)
}

func TestPlanner_CarryForwardOncePerDay(t *testing.T) {
	f := newPlannerFixture(t)
	ctx := context.Background()
	p := f.planner()

	late := p.Tasks.Create("late", "daily", "")
	p.Tasks.Update(late.ID, model.TaskPatch{DueDate: ptr("2026-03-13")})

	assert.Equal(t, 1, p.RunCarryForward(ctx, f.clock.now))
	got, _ := p.Tasks.Find(late.ID)
	assert.Equal(t, "2026-03-14", got.DueDate)
	assert.Equal(t, "2026-03-14", f.repo.LoadString(ctx, repository.KeyLastCarryForward, ""))

	again := p.Tasks.Create("also late", "daily", "")
	p.Tasks.Update(again.ID, model.TaskPatch{DueDate: ptr("2026-03-13")})
	assert.Zero(t, p.RunCarryForward(ctx, f.clock.now), "already ran today")

	require.NoError(t, p.UpdateSettings(ctx, func(s *model.Settings) { s.CarryForward = false }))
	assert.Zero(t, p.RunCarryForward(ctx, f.clock.now.Add(24*time.Hour)))
}

func TestPlanner_BreakDown(t *testing.T) {
	f := newPlannerFixture(t)
	ctx := context.Background()
	p := f.planner()
	task := p.Tasks.Create("Move house", "personal", "")

	assert.Empty(t, p.BreakDown(ctx, task.ID))
	got, _ := p.Tasks.Find(task.ID)
	assert.Empty(t, got.SubTasks)

	f.breakdown.titles = []string{"Book van", "Pack boxes", "Change address"}
	created := p.BreakDown(ctx, task.ID)
	assert.Len(t, created, 3)
	got, _ = p.Tasks.Find(task.ID)
	require.Len(t, got.SubTasks, 3)
	assert.Equal(t, "Book van", got.SubTasks[0].Title)
	assert.Equal(t, []string{"Move house", "Move house"}, f.breakdown.asked)

	assert.Nil(t, p.BreakDown(ctx, "missing"))
}

func TestPlanner_AcceptInviteSwitchesToShared(t *testing.T) {
	f := newPlannerFixture(t)
	ctx := context.Background()
	p := f.planner()
	sarah, _ := model.FindUser("u2")
	task := p.Tasks.Create("Quarterly review", "work", "")

	req, err := p.Collaboration.Send(task, sarah, model.RequestCollaborate)
	require.NoError(t, err)
	shared, err := p.AcceptInvite(req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryShared, p.Categories.Active())

	var inbox []model.CollaborationRequest
	require.True(t, f.repo.LoadJSON(ctx, repository.KeyCollabInbox, &inbox))
	require.Len(t, inbox, 1)
	assert.Equal(t, model.RequestAccepted, inbox[0].Status)

	var feed []model.Notification
	require.True(t, f.repo.LoadJSON(ctx, repository.KeyNotifications, &feed))
	assert.Len(t, feed, len(p.Notifications.List()))

	restored := f.planner()
	got, ok := restored.Tasks.Find(shared.ID)
	require.True(t, ok)
	assert.Equal(t, sarah.ID, got.SharedBy.ID)
}

func TestPlanner_QuickAddAndQuote(t *testing.T) {
	f := newPlannerFixture(t)
	ctx := context.Background()
	p := f.planner()
	for i := 0; i < 4; i++ {
		p.Tasks.Create("Call dentist", "daily", "")
	}

	got := p.QuickAdd(ctx)
	require.NotEmpty(t, got)
	assert.Equal(t, "🔄 Call dentist", got[0])
	assert.LessOrEqual(t, len(got), 5)
	assert.Contains(t, model.MotivationalQuotes, p.Quote(ctx))

	require.NoError(t, p.UpdateSettings(ctx, func(s *model.Settings) { s.RotationEnabled = false }))
	assert.Equal(t, model.MotivationalQuotes[0], p.Quote(ctx))
	assert.Equal(t, append([]string{"🔄 Call dentist"}, model.CommonSuggestions...), p.QuickAdd(ctx))
}

func TestPlanner_StartStop(t *testing.T) {
	f := newPlannerFixture(t)
	ctx := context.Background()
	p := f.planner()

	require.NoError(t, p.Start(ctx))
	assert.True(t, p.Reminders.Monitoring())
	require.NoError(t, p.Start(ctx), "second start is a no-op")

	p.Tasks.Create("re-arms", "daily", "")
	assert.True(t, p.Reminders.Monitoring())

	p.Stop()
	assert.False(t, p.Reminders.Monitoring())
	assert.Empty(t, p.scheduler.cron.Entries())
}

func TestPlanner_WriterLeaseKeepsSecondWriterOut(t *testing.T) {
	f := newPlannerFixture(t)
	ctx := context.Background()

	server := f.planner()
	require.NoError(t, server.AcquireWriter(ctx, "serve"))

	cli := NewPlanner(f.repo, PlannerOptions{Clock: f.clock, Location: time.UTC})
	err := cli.AcquireWriter(ctx, "cli")
	require.ErrorIs(t, err, repository.ErrLeaseHeld)
	assert.Contains(t, err.Error(), "serve")

	server.Tasks.Create("added in serve", "daily", "")
	require.NoError(t, server.Save(ctx))
	require.NoError(t, server.ReleaseWriter(ctx))

	// Once serve is gone, the one-shot writer sees its state and adds to it.
	require.NoError(t, cli.AcquireWriter(ctx, "cli"))
	cli.Load(ctx)
	cli.Tasks.Create("added from cli", "daily", "")
	require.NoError(t, cli.Save(ctx))
	require.NoError(t, cli.ReleaseWriter(ctx))

	var titles []string
	for _, task := range f.planner().Tasks.Snapshot() {
		titles = append(titles, task.Title)
	}
	assert.ElementsMatch(t, []string{"added in serve", "added from cli"}, titles)
}

func TestPlanner_WriterLeaseRenewalAndExpiry(t *testing.T) {
	f := newPlannerFixture(t)
	ctx := context.Background()

	server := f.planner()
	require.NoError(t, server.AcquireWriter(ctx, "serve"))

	f.clock.now = f.clock.now.Add(writerLeaseTTL - time.Second)
	server.renewWriter()
	f.clock.now = f.clock.now.Add(writerLeaseTTL - time.Second)

	other := NewPlanner(f.repo, PlannerOptions{Clock: f.clock, Location: time.UTC})
	require.ErrorIs(t, other.AcquireWriter(ctx, "cli"), repository.ErrLeaseHeld)

	// A crashed holder stops renewing and its lease is taken over.
	f.clock.now = f.clock.now.Add(2 * time.Second)
	require.NoError(t, other.AcquireWriter(ctx, "cli"))

	// Releasing a lease that was taken over leaves the new holder in place.
	require.NoError(t, server.ReleaseWriter(ctx))
	require.ErrorIs(t, NewPlanner(f.repo, PlannerOptions{Clock: f.clock}).AcquireWriter(ctx, "third"), repository.ErrLeaseHeld)
}

func TestPlanner_ConcurrentChangesPersistNewestSnapshot(t *testing.T) {
	f := newPlannerFixture(t)
	p := f.planner()

	const writers = 24
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task := p.Tasks.Create(fmt.Sprintf("task %d", i), "work", "")
			p.Tasks.Update(task.ID, model.TaskPatch{Notes: ptr("edited")})
		}()
	}
	wg.Wait()

	restored := f.planner()
	require.Len(t, restored.Tasks.Snapshot(), writers)
	for _, task := range restored.Tasks.Snapshot() {
		assert.Equal(t, "edited", task.Notes, task.Title)
	}
}

func TestPlanner_DeletingLastOpenTaskCelebrates(t *testing.T) {
	f := newPlannerFixture(t)
	p := f.planner()

	done := p.Tasks.Create("done", "work", "")
	p.Tasks.Update(done.ID, model.TaskPatch{IsCompleted: ptr(true)})
	require.Len(t, f.celebrator.palettes, 1)

	open := p.Tasks.Create("open", "work", "")
	assert.Len(t, f.celebrator.palettes, 1)

	p.Tasks.Delete(open.ID)
	assert.Len(t, f.celebrator.palettes, 2)
}
