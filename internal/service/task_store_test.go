package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// flakySlot wraps MemorySlot and fails on demand.
type flakySlot struct {
	*repository.MemorySlot
	failGet error
	failSet error
}

func (s *flakySlot) Get(ctx context.Context, key string) ([]byte, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	return s.MemorySlot.Get(ctx, key)
}

func (s *flakySlot) Set(ctx context.Context, key string, value []byte) error {
	if s.failSet != nil {
		return s.failSet
	}
	return s.MemorySlot.Set(ctx, key, value)
}

func newTestStore(t *testing.T, slot repository.Slot) (*TaskStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	seq := 0
	s := NewTaskStore(slot,
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("task-%d", seq)
		}),
	)
	require.NoError(t, s.Load(context.Background()))
	return s, clock
}

func titles(tasks []*domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestAddCountsAndUniqueIDs(t *testing.T) {
	s := NewTaskStore(repository.NewMemorySlot())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		task, err := s.Add(ctx, domain.TaskDraft{Title: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
	assert.Len(t, s.All(), 50)
}

func TestAddRegeneratesCollidingID(t *testing.T) {
	ids := []string{"same", "same", "other"}
	s := NewTaskStore(repository.NewMemorySlot(), WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))
	ctx := context.Background()

	a, err := s.Add(ctx, domain.TaskDraft{Title: "a"})
	require.NoError(t, err)
	b, err := s.Add(ctx, domain.TaskDraft{Title: "b"})
	require.NoError(t, err)
	assert.Equal(t, "same", a.ID)
	assert.Equal(t, "other", b.ID)
}

func TestAddDefaultsAndValidation(t *testing.T) {
	s, clock := newTestStore(t, repository.NewMemorySlot())
	ctx := context.Background()

	task, err := s.Add(ctx, domain.TaskDraft{Title: "  Buy milk  "})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.False(t, task.Completed)
	assert.Equal(t, clock.Now(), task.CreatedAt)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)

	_, err = s.Add(ctx, domain.TaskDraft{Title: "   "})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = s.Add(ctx, domain.TaskDraft{Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidPriority)

	assert.Len(t, s.All(), 1, "rejected drafts must not change state")
}

func TestRoundTripThroughSlot(t *testing.T) {
	slot := repository.NewMemorySlot()
	s, _ := newTestStore(t, slot)
	ctx := context.Background()

	due := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	_, err := s.Add(ctx, domain.TaskDraft{Title: "Buy milk", Priority: domain.PriorityLow, Description: "2L"})
	require.NoError(t, err)
	_, err = s.Add(ctx, domain.TaskDraft{Title: "Write report", Priority: domain.PriorityHigh, DueDate: &due})
	require.NoError(t, err)

	reloaded := NewTaskStore(slot)
	require.NoError(t, reloaded.Load(ctx))

	want, _ := json.Marshal(s.All())
	got, _ := json.Marshal(reloaded.All())
	assert.JSONEq(t, string(want), string(got))
}

func TestPersistedDocumentLayout(t *testing.T) {
	slot := repository.NewMemorySlot()
	s, _ := newTestStore(t, slot)
	_, err := s.Add(context.Background(), domain.TaskDraft{Title: "Buy milk", Priority: domain.PriorityLow})
	require.NoError(t, err)

	raw, err := slot.Get(context.Background(), DefaultStorageKey)
	require.NoError(t, err)

	var doc []map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc, 1)
	for _, k := range []string{"id", "title", "completed", "priority", "createdAt", "updatedAt"} {
		assert.Contains(t, doc[0], k)
	}
	assert.NotContains(t, doc[0], "dueDate")
}

func TestScenarioAddToggleDelete(t *testing.T) {
	s, _ := newTestStore(t, repository.NewMemorySlot())
	ctx := context.Background()

	milk, err := s.Add(ctx, domain.TaskDraft{Title: "Buy milk", Priority: domain.PriorityLow})
	require.NoError(t, err)
	report, err := s.Add(ctx, domain.TaskDraft{Title: "Write report", Priority: domain.PriorityHigh})
	require.NoError(t, err)

	st := s.Statistics()
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 2, st.Active)
	assert.Equal(t, 0, st.Completed)
	assert.Equal(t, []string{"Write report", "Buy milk"}, titles(s.Visible()))

	_, err = s.Toggle(ctx, milk.ID)
	require.NoError(t, err)
	st = s.Statistics()
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Active)
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 50, st.CompletionRate)

	require.NoError(t, s.SetFilter(domain.FilterCompleted))
	assert.Equal(t, []string{"Buy milk"}, titles(s.Visible()))

	_, err = s.Delete(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Statistics().Total)

	title := "changed"
	got, err := s.Update(ctx, report.ID, domain.TaskPatch{Title: &title})
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, s.Statistics().Total, "update of a deleted id must not create a task")
}

func TestUnknownIDIsSilentNoop(t *testing.T) {
	s, _ := newTestStore(t, repository.NewMemorySlot())
	ctx := context.Background()
	_, err := s.Add(ctx, domain.TaskDraft{Title: "only"})
	require.NoError(t, err)

	events := 0
	s.Subscribe(func(domain.Event) { events++ })

	task, err := s.Toggle(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, task)

	task, err = s.Delete(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, task)

	assert.Nil(t, s.Get("missing"))
	assert.Zero(t, events, "no-ops must not notify")
	assert.Len(t, s.All(), 1)
}

func TestToggleTwiceRestoresFlagAndMovesUpdatedAt(t *testing.T) {
	s, clock := newTestStore(t, repository.NewMemorySlot())
	ctx := context.Background()

	task, err := s.Add(ctx, domain.TaskDraft{Title: "Buy milk"})
	require.NoError(t, err)

	clock.Advance(time.Second)
	first, err := s.Toggle(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, first.Completed)
	assert.True(t, first.UpdatedAt.After(task.UpdatedAt))

	// clock does not move: updatedAt must still change
	second, err := s.Toggle(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, second.Completed)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.False(t, second.UpdatedAt.Before(second.CreatedAt))
}

func TestUpdatedAtNeverBeforeCreatedAt(t *testing.T) {
	s, clock := newTestStore(t, repository.NewMemorySlot())
	ctx := context.Background()

	task, err := s.Add(ctx, domain.TaskDraft{Title: "a"})
	require.NoError(t, err)

	// clock steps back
	clock.Advance(-time.Hour)
	desc := "d"
	got, err := s.Update(ctx, task.ID, domain.TaskPatch{Description: &desc})
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	assert.Equal(t, task.CreatedAt, got.CreatedAt)
}

func TestUpdateMergesPatch(t *testing.T) {
	s, _ := newTestStore(t, repository.NewMemorySlot())
	ctx := context.Background()

	due := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	task, err := s.Add(ctx, domain.TaskDraft{Title: "a", Description: "keep", DueDate: &due})
	require.NoError(t, err)

	high := domain.PriorityHigh
	done := true
	got, err := s.Update(ctx, task.ID, domain.TaskPatch{Priority: &high, Completed: &done})
	require.NoError(t, err)
	assert.Equal(t, "a", got.Title)
	assert.Equal(t, "keep", got.Description)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
	assert.True(t, got.Completed)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))

	got, err = s.Update(ctx, task.ID, domain.TaskPatch{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)

	empty := " "
	_, err = s.Update(ctx, task.ID, domain.TaskPatch{Title: &empty})
	assert.ErrorIs(t, err, ErrEmptyTitle)
	bad := domain.Priority("urgent")
	_, err = s.Update(ctx, task.ID, domain.TaskPatch{Priority: &bad})
	assert.ErrorIs(t, err, ErrInvalidPriority)
	assert.Equal(t, "a", s.Get(task.ID).Title)
}

func TestFilterSelectsSubsetInOrder(t *testing.T) {
	s, _ := newTestStore(t, repository.NewMemorySlot())
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"one", "two", "three", "four"} {
		task, err := s.Add(ctx, domain.TaskDraft{Title: title})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	_, err := s.Toggle(ctx, ids[1])
	require.NoError(t, err)
	_, err = s.Toggle(ctx, ids[3])
	require.NoError(t, err)

	all, err := s.VisibleWith(domain.FilterAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"four", "three", "two", "one"}, titles(all))

	active, err := s.VisibleWith(domain.FilterActive)
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "one"}, titles(active))

	completed, err := s.VisibleWith(domain.FilterCompleted)
	require.NoError(t, err)
	assert.Equal(t, []string{"four", "two"}, titles(completed))

	assert.Equal(t, domain.FilterAll, s.Filter(), "VisibleWith must not touch the session filter")

	_, err = s.VisibleWith("done")
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.ErrorIs(t, s.SetFilter("done"), ErrInvalidFilter)
}

func TestStatsTotalsAlwaysAddUp(t *testing.T) {
	s, clock := newTestStore(t, repository.NewMemorySlot())
	ctx := context.Background()

	check := func() {
		st := s.Statistics()
		assert.Equal(t, st.Total, st.Active+st.Completed)
	}

	past := clock.Now().Add(-24 * time.Hour)
	for i := 0; i < 6; i++ {
		draft := domain.TaskDraft{Title: fmt.Sprintf("t%d", i), Completed: i%3 == 0}
		if i%2 == 0 {
			draft.DueDate = &past
		}
		_, err := s.Add(ctx, draft)
		require.NoError(t, err)
		check()
	}
	st := s.Statistics()
	assert.Equal(t, 2, st.Overdue, "completed tasks are never overdue")

	_, err := s.ClearCompleted(ctx)
	require.NoError(t, err)
	check()
}

func TestClearCompleted(t *testing.T) {
	s, _ := newTestStore(t, repository.NewMemorySlot())
	ctx := context.Background()

	for i, done := range []bool{true, false, true} {
		_, err := s.Add(ctx, domain.TaskDraft{Title: fmt.Sprintf("t%d", i), Completed: done})
		require.NoError(t, err)
	}

	var got []domain.Event
	s.Subscribe(func(ev domain.Event) { got = append(got, ev) })

	n, err := s.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"t1"}, titles(s.All()))

	require.Len(t, got, 1)
	assert.Equal(t, domain.EventTasksCleared, got[0].Kind)
	assert.Equal(t, 2, got[0].Removed)
	assert.Equal(t, "2 completed tasks removed.", got[0].Notification.Description)

	n, err = s.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadMalformedDataGivesEmptyStoreAndWarning(t *testing.T) {
	slot := repository.NewMemorySlot()
	require.NoError(t, slot.Set(context.Background(), DefaultStorageKey, []byte("{not json")))

	s := NewTaskStore(slot)
	var events []domain.Event
	s.Subscribe(func(ev domain.Event) { events = append(events, ev) })

	err := s.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.True(t, IsWarning(err))
	assert.Empty(t, s.All())

	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTasksLoaded, events[0].Kind)
	require.NotNil(t, events[0].Notification)
	assert.Equal(t, "Failed to load your tasks. Please try again.", events[0].Notification.Description)
}

func TestLoadWrongShapeIsMalformed(t *testing.T) {
	slot := repository.NewMemorySlot()
	require.NoError(t, slot.Set(context.Background(), DefaultStorageKey, []byte(`{"id":"x"}`)))

	s := NewTaskStore(slot)
	assert.ErrorIs(t, s.Load(context.Background()), ErrLoadFailed)
	assert.Empty(t, s.All())
}

func TestLoadReadErrorIsWarning(t *testing.T) {
	slot := &flakySlot{MemorySlot: repository.NewMemorySlot(), failGet: errors.New("disk gone")}
	s := NewTaskStore(slot)

	err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.Empty(t, s.All())
}

func TestLoadEmptySlot(t *testing.T) {
	s := NewTaskStore(repository.NewMemorySlot())
	assert.NoError(t, s.Load(context.Background()))
	assert.Empty(t, s.All())
}

func TestLoadSanitizesStoredRecords(t *testing.T) {
	slot := repository.NewMemorySlot()
	doc := `[
		{"id":"a","title":"keep","completed":false,"priority":"high","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-02T00:00:00Z"},
		{"id":"","title":"no id","completed":false,"priority":"low","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"},
		{"id":"a","title":"dup","completed":false,"priority":"low","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"},
		{"id":"b","title":"  ","completed":false,"priority":"low","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"},
		null,
		{"id":"c","title":"odd priority","completed":true,"priority":"urgent","createdAt":"2024-01-05T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}
	]`
	require.NoError(t, slot.Set(context.Background(), DefaultStorageKey, []byte(doc)))

	s := NewTaskStore(slot)
	require.NoError(t, s.Load(context.Background()))

	all := s.All()
	assert.Equal(t, []string{"keep", "odd priority"}, titles(all))
	assert.Equal(t, domain.PriorityMedium, all[1].Priority)
	assert.False(t, all[1].UpdatedAt.Before(all[1].CreatedAt))
}

func TestSaveFailureKeepsStateAndWarns(t *testing.T) {
	slot := &flakySlot{MemorySlot: repository.NewMemorySlot()}
	s, _ := newTestStore(t, slot)
	ctx := context.Background()

	var kinds []domain.EventKind
	s.Subscribe(func(ev domain.Event) { kinds = append(kinds, ev.Kind) })

	slot.failSet = errors.New("quota exceeded")
	task, err := s.Add(ctx, domain.TaskDraft{Title: "unsaved"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.True(t, IsWarning(err))
	require.NotNil(t, task, "in-memory change is still returned")
	assert.Len(t, s.All(), 1)
	assert.Equal(t, []domain.EventKind{domain.EventTaskCreated, domain.EventPersistWarning}, kinds)

	// next successful save writes the whole list
	slot.failSet = nil
	_, err = s.Toggle(ctx, task.ID)
	require.NoError(t, err)

	reloaded := NewTaskStore(slot)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, []string{"unsaved"}, titles(reloaded.All()))
}

func TestSubscribersSeeEventsInMutationOrder(t *testing.T) {
	s, _ := newTestStore(t, repository.NewMemorySlot())
	ctx := context.Background()

	var first, second []domain.EventKind
	var calls []string
	s.Subscribe(func(ev domain.Event) {
		first = append(first, ev.Kind)
		calls = append(calls, "first")
	})
	unsubscribe := s.Subscribe(func(ev domain.Event) {
		second = append(second, ev.Kind)
		calls = append(calls, "second")
	})

	task, err := s.Add(ctx, domain.TaskDraft{Title: "a"})
	require.NoError(t, err)
	_, err = s.Toggle(ctx, task.ID)
	require.NoError(t, err)
	require.NoError(t, s.SetFilter(domain.FilterActive))
	title := "b"
	_, err = s.Update(ctx, task.ID, domain.TaskPatch{Title: &title})
	require.NoError(t, err)

	unsubscribe()
	_, err = s.Delete(ctx, task.ID)
	require.NoError(t, err)

	assert.Equal(t, []domain.EventKind{
		domain.EventTaskCreated,
		domain.EventTaskToggled,
		domain.EventFilterChanged,
		domain.EventTaskUpdated,
		domain.EventTaskDeleted,
	}, first)
	assert.Equal(t, first[:4], second)
	assert.Equal(t, []string{"first", "second", "first", "second"}, calls[:4])
}

func TestWatchSeesSnapshotThenLaterEvents(t *testing.T) {
	s, _ := newTestStore(t, repository.NewMemorySlot())
	ctx := context.Background()

	done, err := s.Add(ctx, domain.TaskDraft{Title: "done", Completed: true})
	require.NoError(t, err)
	_, err = s.Add(ctx, domain.TaskDraft{Title: "open"})
	require.NoError(t, err)
	require.NoError(t, s.SetFilter(domain.FilterCompleted))

	var events []domain.EventKind
	s.Watch(func(filter domain.Filter, visible []*domain.Task, stats domain.Stats) {
		assert.Equal(t, domain.FilterCompleted, filter)
		assert.Equal(t, []string{"done"}, titles(visible))
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 1, stats.Completed)
		s.subs = append(s.subs, subscription{id: -1, fn: func(ev domain.Event) { events = append(events, ev.Kind) }})
	})

	_, err = s.Toggle(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.EventKind{domain.EventTaskToggled}, events)
}

func TestEventCarriesStatsAndNotification(t *testing.T) {
	s, clock := newTestStore(t, repository.NewMemorySlot())

	var last domain.Event
	s.Subscribe(func(ev domain.Event) { last = ev })

	_, err := s.Add(context.Background(), domain.TaskDraft{Title: "Buy milk"})
	require.NoError(t, err)

	assert.Equal(t, 1, last.Stats.Total)
	assert.Equal(t, clock.Now(), last.At)
	require.NotNil(t, last.Notification)
	assert.Equal(t, "Task Created", last.Notification.Title)
	assert.Equal(t, domain.VariantSuccess, last.Notification.Variant)
}

func TestReturnedTasksAreCopies(t *testing.T) {
	s, _ := newTestStore(t, repository.NewMemorySlot())
	task, err := s.Add(context.Background(), domain.TaskDraft{Title: "a"})
	require.NoError(t, err)

	task.Title = "mutated"
	s.All()[0].Title = "mutated too"
	assert.Equal(t, "a", s.Get(task.ID).Title)
}

func TestWithKeyUsesCustomSlotKey(t *testing.T) {
	slot := repository.NewMemorySlot()
	s := NewTaskStore(slot, WithKey("other-key"))
	_, err := s.Add(context.Background(), domain.TaskDraft{Title: "a"})
	require.NoError(t, err)

	_, err = slot.Get(context.Background(), DefaultStorageKey)
	assert.ErrorIs(t, err, repository.ErrSlotEmpty)
	_, err = slot.Get(context.Background(), "other-key")
	assert.NoError(t, err)
}

func TestConcurrentMutations(t *testing.T) {
	s := NewTaskStore(repository.NewMemorySlot())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task, err := s.Add(ctx, domain.TaskDraft{Title: fmt.Sprintf("t%d", i)})
			if err == nil {
				_, _ = s.Toggle(ctx, task.ID)
			}
			_ = s.Statistics()
		}(i)
	}
	wg.Wait()

	st := s.Statistics()
	assert.Equal(t, 20, st.Total)
	assert.Equal(t, 20, st.Completed)
}
