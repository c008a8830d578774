package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentalist/internal/repository"
	"mentalist/internal/service"
)

var addedID = regexp.MustCompile(`Added (\S+) `)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "mentalist.db"))
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("MENTALIST_CONFIG", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, out)
	return out
}

func addTask(t *testing.T, args ...string) string {
	t.Helper()
	out := mustRun(t, append([]string{"add"}, args...)...)
	m := addedID.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	return m[1]
}

func TestAddAndList(t *testing.T) {
	setupEnv(t)

	id := addTask(t, "Water", "plants", "--list", "personal", "--due", "2030-01-02", "--remind", "08:00", "--priority", "high")
	assert.Len(t, id, shortIDLen)

	out := mustRun(t, "list", "personal")
	assert.Contains(t, out, "Personal List")
	assert.Contains(t, out, "Water plants")
	assert.Contains(t, out, "due 2030-01-02")
	assert.Contains(t, out, "at 08:00")

	out = mustRun(t, "list")
	assert.Contains(t, out, "Daily List")
	assert.Contains(t, out, "nothing here yet")
}

func TestAddRejectsBadInput(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "add", "x", "--list", "nope")
	assert.Error(t, err)

	_, err = run(t, "add", "x", "--priority", "urgent")
	assert.Error(t, err)

	_, err = run(t, "add", "x", "--remind", "25:00")
	assert.Error(t, err)
}

func TestSubtaskDoneAndUndo(t *testing.T) {
	setupEnv(t)

	parent := addTask(t, "Trip")
	child := addTask(t, "Book hotel", "--parent", parent)

	out := mustRun(t, "list")
	assert.Contains(t, out, "Book hotel")
	assert.Contains(t, out, "0/1")

	out = mustRun(t, "done", child)
	assert.Contains(t, out, "Done: Book hotel")
	assert.Contains(t, mustRun(t, "list"), "1/1")

	out = mustRun(t, "done", child, "--undo")
	assert.Contains(t, out, "Reopened: Book hotel")
	assert.Contains(t, mustRun(t, "list"), "0/1")
}

func TestRemoveAndSearch(t *testing.T) {
	setupEnv(t)

	keep := addTask(t, "Buy milk")
	drop := addTask(t, "Buy bread")

	out := mustRun(t, "search", "buy")
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "Buy bread")

	mustRun(t, "rm", drop)
	out = mustRun(t, "search", "buy")
	assert.Contains(t, out, "Buy milk")
	assert.NotContains(t, out, "Buy bread")

	_, err := run(t, "rm", drop)
	assert.ErrorAs(t, err, &notFoundError{})

	assert.Contains(t, mustRun(t, "search", "zzz"), "nothing matches")
	assert.NotEmpty(t, keep)
}

func TestPrivateTasksOnlyShowWithHidden(t *testing.T) {
	setupEnv(t)

	addTask(t, "Secret gift", "--private")
	assert.NotContains(t, mustRun(t, "list"), "Secret gift")
	assert.Contains(t, mustRun(t, "list", "--hidden"), "Secret gift")
}

func TestLists(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "lists", "add", "Garden")
	assert.Contains(t, out, "Garden")

	out = mustRun(t, "lists")
	assert.Contains(t, out, "Garden")
	assert.Contains(t, out, "Shared with Me")

	_, err := run(t, "lists", "rm", "daily")
	assert.ErrorContains(t, err, "protected")

	mustRun(t, "lists", "use", "work")
	id := addTask(t, "Report")
	assert.Contains(t, mustRun(t, "list", "work"), "Report")

	mustRun(t, "lists", "rm", "work")
	assert.Contains(t, mustRun(t, "list", "daily"), id)

	_, err = run(t, "lists", "use", "work")
	assert.Error(t, err)
}

func TestSuggestAndInbox(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "suggest")
	assert.Contains(t, out, "💬")
	assert.Contains(t, out, "Quick add")

	out = mustRun(t, "inbox")
	assert.Contains(t, out, "No pending invites.")

	_, err := run(t, "inbox", "--accept", "missing")
	assert.ErrorAs(t, err, &notFoundError{})
}

func TestBreakdownWithoutKeyAddsNothing(t *testing.T) {
	setupEnv(t)

	id := addTask(t, "Plan party")
	assert.Contains(t, mustRun(t, "breakdown", id), "no suggestions")
}

func TestOneShotCommandRefusesWhileServeHoldsState(t *testing.T) {
	setupEnv(t)

	db, err := repository.NewDB(os.Getenv("DATABASE_URL"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	repo := repository.NewStateRepository(db)

	ctx := context.Background()
	require.NoError(t, repo.AcquireLease(ctx, repository.KeyWriterLease, writerName("serve"), time.Minute, time.Now()))

	_, err = run(t, "add", "written behind serve's back")
	require.ErrorIs(t, err, repository.ErrLeaseHeld)

	require.NoError(t, repo.ReleaseLease(ctx, repository.KeyWriterLease, writerName("serve")))
	addTask(t, "written after serve stopped")
	assert.Contains(t, mustRun(t, "list"), "written after serve stopped")

	// One-shot commands give the lease back when they finish.
	_, ok, err := repo.Get(ctx, repository.KeyWriterLease)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddScheduleGroupsDailyList(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "add", "Yesterday", "--schedule", "2000-01-01")
	assert.ErrorIs(t, err, service.ErrNotInFuture)
	_, err = run(t, "add", "Sub", "--parent", "abc", "--schedule", "2099-01-01")
	assert.Error(t, err)

	out := mustRun(t, "add", "Dentist", "--schedule", "2099-03-22")
	assert.Contains(t, out, "planned for 22nd March, 2099")
	addTask(t, "Pack bags", "--schedule", "2099-03-21")
	addTask(t, "Call mom")

	out = mustRun(t, "list", "daily")
	mom := strings.Index(out, "Call mom")
	first := strings.Index(out, "📅 21st March, 2099")
	bags := strings.Index(out, "Pack bags")
	second := strings.Index(out, "📅 22nd March, 2099")
	dentist := strings.Index(out, "Dentist")
	for _, i := range []int{mom, first, bags, second, dentist} {
		require.GreaterOrEqual(t, i, 0, out)
	}
	assert.True(t, mom < first && first < bags && bags < second && second < dentist, out)
}

func TestAttachNoteAndFile(t *testing.T) {
	setupEnv(t)

	id := addTask(t, "Renew passport")
	out := mustRun(t, "attach", id)
	assert.Contains(t, out, "nothing attached")

	out = mustRun(t, "attach", id, "--note", "bring two photos")
	assert.Contains(t, out, "Attached")

	img := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n0000"), 0o600))
	out = mustRun(t, "attach", id, "--file", img)
	assert.Contains(t, out, "photo.png (image)")

	out = mustRun(t, "attach", id)
	assert.Contains(t, out, "bring two photos")
	assert.Contains(t, out, "photo.png")
	assert.Contains(t, mustRun(t, "list"), "2 attached")

	_, err := run(t, "attach", id, "--note", "x", "--rm", "y")
	assert.Error(t, err)
	_, err = run(t, "attach", id, "--rm", "missing")
	assert.ErrorAs(t, err, &notFoundError{})

	m := regexp.MustCompile(`Attached (\S+) photo\.png`).FindStringSubmatch(mustRun(t, "attach", id, "--file", img))
	require.Len(t, m, 2)
	mustRun(t, "attach", id, "--rm", m[1])
	assert.Contains(t, mustRun(t, "list"), "2 attached")
}
