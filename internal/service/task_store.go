package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
	"taskboard/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrLoadFailed      = errors.New("failed to load tasks")
	ErrSaveFailed      = errors.New("failed to save tasks")
	ErrEmptyTitle      = errors.New("title is empty")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidFilter   = errors.New("invalid filter")
)

// DefaultStorageKey - ключ, под которым фронтенд хранил список
const DefaultStorageKey = "todo-app-tasks"

// IsWarning reports a non-fatal persistence error: the in-memory state was
// applied and stays authoritative.
func IsWarning(err error) bool {
	return errors.Is(err, ErrSaveFailed) || errors.Is(err, ErrLoadFailed)
}

// Subscriber is called synchronously, with the store locked, after every change.
// It must not call back into the store.
type Subscriber = func(domain.Event)

// TaskStore owns the task list, the active filter and the write-through
// to a single slot key. All operations are serialized.
type TaskStore struct {
	mu     sync.Mutex
	slot   repository.Slot
	key    string
	tasks  []*domain.Task // newest first
	filter domain.Filter

	subs   []subscription // registration order
	subSeq int

	now   func() time.Time
	newID func() string
	log   *slog.Logger
}

type subscription struct {
	id int
	fn Subscriber
}

type Option func(*TaskStore)

// WithKey overrides the slot key.
func WithKey(key string) Option {
	return func(s *TaskStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *TaskStore) { s.now = now }
}

// WithIDGenerator replaces the UUID generator (tests).
func WithIDGenerator(gen func() string) Option {
	return func(s *TaskStore) { s.newID = gen }
}

func NewTaskStore(slot repository.Slot, opts ...Option) *TaskStore {
	s := &TaskStore{
		slot:   slot,
		key:    DefaultStorageKey,
		tasks:  []*domain.Task{},
		filter: domain.FilterAll,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		log:    logger.Component("task_store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn and returns a func that removes it.
func (s *TaskStore) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subSeq++
	id := s.subSeq
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Watch calls fn with a consistent snapshot while the store is locked, so
// no event can slip between the snapshot and whatever fn registers.
// fn must not call back into the store.
func (s *TaskStore) Watch(fn func(filter domain.Filter, visible []*domain.Task, stats domain.Stats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.filter, s.selectLocked(s.filter), domain.ComputeStats(s.tasks, s.now()))
}

// Load replaces the in-memory list with the slot content.
// Missing data gives an empty list. Unreadable or malformed data also gives
// an empty list plus an error wrapping ErrLoadFailed.
func (s *TaskStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = []*domain.Task{}

	raw, err := s.slot.Get(ctx, s.key)
	if errors.Is(err, repository.ErrSlotEmpty) {
		s.afterLoadLocked(nil)
		return nil
	}
	if err != nil {
		return s.loadFailedLocked(err)
	}

	var stored []*domain.Task
	if err := json.Unmarshal(raw, &stored); err != nil {
		return s.loadFailedLocked(err)
	}

	s.tasks = s.sanitize(stored)
	s.afterLoadLocked(nil)
	return nil
}

func (s *TaskStore) loadFailedLocked(cause error) error {
	s.log.Warn("stored tasks unreadable, starting empty", "key", s.key, "error", cause)
	persistFailures.WithLabelValues("load").Inc()
	n := loadFailedNotification()
	s.afterLoadLocked(&n)
	return fmt.Errorf("%w: %w", ErrLoadFailed, cause)
}

func (s *TaskStore) afterLoadLocked(n *domain.Notification) {
	opsTotal.WithLabelValues("load").Inc()
	s.updateGaugesLocked()
	s.emitLocked(domain.Event{Kind: domain.EventTasksLoaded, Notification: n})
	s.log.Info("tasks loaded", "count", len(s.tasks))
}

// sanitize drops records the store cannot hold:
// missing id, duplicate id, empty title.
func (s *TaskStore) sanitize(stored []*domain.Task) []*domain.Task {
	seen := make(map[string]bool, len(stored))
	out := make([]*domain.Task, 0, len(stored))
	dropped := 0
	for _, t := range stored {
		if t == nil || t.ID == "" || seen[t.ID] || strings.TrimSpace(t.Title) == "" {
			dropped++
			continue
		}
		seen[t.ID] = true
		if !t.Priority.Valid() {
			t.Priority = domain.PriorityMedium
		}
		if t.UpdatedAt.Before(t.CreatedAt) {
			t.UpdatedAt = t.CreatedAt
		}
		out = append(out, t)
	}
	if dropped > 0 {
		s.log.Warn("dropped invalid stored tasks", "dropped", dropped)
	}
	return out
}

// Add creates a task from draft and puts it first.
func (s *TaskStore) Add(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	priority := draft.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := &domain.Task{
		ID:          s.uniqueIDLocked(),
		Title:       title,
		Description: draft.Description,
		Completed:   draft.Completed,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if draft.DueDate != nil {
		d := *draft.DueDate
		t.DueDate = &d
	}

	s.tasks = append([]*domain.Task{t}, s.tasks...)

	err := s.commitLocked(ctx, "add", domain.Event{
		Kind:         domain.EventTaskCreated,
		Task:         t.Clone(),
		Notification: createdNotification(t),
	})
	return t.Clone(), err
}

func (s *TaskStore) uniqueIDLocked() string {
	for {
		id := s.newID()
		if s.indexLocked(id) < 0 {
			return id
		}
	}
}

// Update merges patch into the task. Unknown id is a silent no-op: (nil, nil).
func (s *TaskStore) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		opsTotal.WithLabelValues("update_miss").Inc()
		return nil, nil
	}

	next := s.tasks[i].Clone()
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		next.Title = title
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, *patch.Priority)
		}
		next.Priority = *patch.Priority
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Completed != nil {
		next.Completed = *patch.Completed
	}
	if patch.ClearDueDate {
		next.DueDate = nil
	} else if patch.DueDate != nil {
		d := *patch.DueDate
		next.DueDate = &d
	}
	s.touchLocked(next)
	s.tasks[i] = next

	err := s.commitLocked(ctx, "update", domain.Event{
		Kind:         domain.EventTaskUpdated,
		Task:         next.Clone(),
		Notification: updatedNotification(next),
	})
	return next.Clone(), err
}

// Toggle flips completed. Unknown id is a silent no-op: (nil, nil).
func (s *TaskStore) Toggle(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		opsTotal.WithLabelValues("toggle_miss").Inc()
		return nil, nil
	}

	next := s.tasks[i].Clone()
	next.Completed = !next.Completed
	s.touchLocked(next)
	s.tasks[i] = next

	err := s.commitLocked(ctx, "toggle", domain.Event{
		Kind:         domain.EventTaskToggled,
		Task:         next.Clone(),
		Notification: toggledNotification(next),
	})
	return next.Clone(), err
}

// Delete removes the task and returns it. Unknown id is a silent no-op: (nil, nil).
func (s *TaskStore) Delete(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		opsTotal.WithLabelValues("delete_miss").Inc()
		return nil, nil
	}

	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)

	err := s.commitLocked(ctx, "delete", domain.Event{
		Kind:         domain.EventTaskDeleted,
		Task:         removed.Clone(),
		Notification: deletedNotification(removed),
	})
	return removed.Clone(), err
}

// ClearCompleted removes every completed task and returns how many went.
func (s *TaskStore) ClearCompleted(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	s.tasks = kept

	err := s.commitLocked(ctx, "clear_completed", domain.Event{
		Kind:         domain.EventTasksCleared,
		Removed:      removed,
		Notification: clearedNotification(removed),
	})
	return removed, err
}

// SetFilter changes the session view. Not persisted.
func (s *TaskStore) SetFilter(f domain.Filter) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, f)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = f
	s.emitLocked(domain.Event{Kind: domain.EventFilterChanged, Filter: f})
	return nil
}

func (s *TaskStore) Filter() domain.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Visible returns the tasks matching the current filter, newest first.
func (s *TaskStore) Visible() []*domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(s.filter)
}

// VisibleWith is Visible for an explicit filter; the session filter is untouched.
func (s *TaskStore) VisibleWith(f domain.Filter) ([]*domain.Task, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, f)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(f), nil
}

// All returns the whole list.
func (s *TaskStore) All() []*domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(domain.FilterAll)
}

// Get returns a copy of the task, or nil.
func (s *TaskStore) Get(id string) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i].Clone()
	}
	return nil
}

// Statistics is recomputed on every call.
func (s *TaskStore) Statistics() domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ComputeStats(s.tasks, s.now())
}

func (s *TaskStore) selectLocked(f domain.Filter) []*domain.Task {
	out := make([]*domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if f.Match(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (s *TaskStore) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// touchLocked refreshes UpdatedAt. It always moves forward, even when the
// clock did not advance or stepped back.
func (s *TaskStore) touchLocked(t *domain.Task) {
	now := s.now()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Nanosecond)
	}
	t.UpdatedAt = now
}

// commitLocked writes the list through to the slot and notifies subscribers.
// The in-memory change is already applied; a save failure only adds a warning.
func (s *TaskStore) commitLocked(ctx context.Context, op string, ev domain.Event) error {
	opsTotal.WithLabelValues(op).Inc()
	s.updateGaugesLocked()
	s.emitLocked(ev)

	if err := s.persistLocked(ctx); err != nil {
		persistFailures.WithLabelValues("save").Inc()
		s.log.Warn("failed to persist tasks", "op", op, "error", err)
		n := saveFailedNotification()
		s.emitLocked(domain.Event{Kind: domain.EventPersistWarning, Notification: &n})
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return nil
}

func (s *TaskStore) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(s.tasks)
	if err != nil {
		return err
	}
	return s.slot.Set(ctx, s.key, raw)
}

func (s *TaskStore) emitLocked(ev domain.Event) {
	ev.Stats = domain.ComputeStats(s.tasks, s.now())
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	for _, sub := range s.subs {
		sub.fn(ev)
	}
}

func (s *TaskStore) updateGaugesLocked() {
	st := domain.ComputeStats(s.tasks, s.now())
	tasksGauge.WithLabelValues("active").Set(float64(st.Active))
	tasksGauge.WithLabelValues("completed").Set(float64(st.Completed))
}
