package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilterMatch(t *testing.T) {
	active := &Task{Completed: false}
	done := &Task{Completed: true}

	assert.True(t, FilterAll.Match(active))
	assert.True(t, FilterAll.Match(done))
	assert.True(t, FilterActive.Match(active))
	assert.False(t, FilterActive.Match(done))
	assert.False(t, FilterCompleted.Match(active))
	assert.True(t, FilterCompleted.Match(done))

	assert.False(t, Filter("done").Valid())
	assert.False(t, Priority("urgent").Valid())
	assert.True(t, PriorityHigh.Valid())
}

func TestOverdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	assert.False(t, (&Task{}).Overdue(now), "no due date")
	assert.True(t, (&Task{DueDate: &yesterday}).Overdue(now))
	assert.False(t, (&Task{DueDate: &tomorrow}).Overdue(now))
	assert.False(t, (&Task{DueDate: &yesterday, Completed: true}).Overdue(now))
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	assert.Equal(t, Stats{}, ComputeStats(nil, now))

	st := ComputeStats([]*Task{
		{Completed: true},
		{Completed: false, DueDate: &past},
		{Completed: false},
	}, now)
	assert.Equal(t, Stats{Total: 3, Active: 2, Completed: 1, Overdue: 1, CompletionRate: 33}, st)

	st = ComputeStats([]*Task{{Completed: true}, {Completed: true}, {}}, now)
	assert.Equal(t, 67, st.CompletionRate)
}

func TestCloneIsDeep(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := &Task{ID: "a", DueDate: &due}
	cp := orig.Clone()

	*cp.DueDate = cp.DueDate.Add(time.Hour)
	assert.Equal(t, due, *orig.DueDate)
}

func TestPatchEmpty(t *testing.T) {
	assert.True(t, TaskPatch{}.Empty())
	title := "x"
	assert.False(t, TaskPatch{Title: &title}.Empty())
	assert.False(t, TaskPatch{ClearDueDate: true}.Empty())
}
