package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanTransitionTaskStatus(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{TaskStatusBacklog, TaskStatusInProgress, true},
		{TaskStatusBacklog, TaskStatusArchived, true},
		{TaskStatusBacklog, TaskStatusDone, false},
		{TaskStatusBacklog, TaskStatusBlocked, false},
		{TaskStatusInProgress, TaskStatusBlocked, true},
		{TaskStatusInProgress, TaskStatusDone, true},
		{TaskStatusInProgress, TaskStatusArchived, true},
		{TaskStatusInProgress, TaskStatusBacklog, false},
		{TaskStatusBlocked, TaskStatusInProgress, true},
		{TaskStatusBlocked, TaskStatusDone, false},
		{TaskStatusDone, TaskStatusInProgress, true},
		{TaskStatusDone, TaskStatusArchived, true},
		{TaskStatusDone, TaskStatusBlocked, false},
		{TaskStatusArchived, TaskStatusInProgress, false},
		{TaskStatusArchived, TaskStatusBacklog, false},
		{"bogus", TaskStatusBacklog, false},
	}
	for _, c := range cases {
		got := CanTransitionTaskStatus(c.from, c.to)
		assert.Equalf(t, c.want, got, "%s -> %s", c.from, c.to)
	}
}

func TestArchivedIsTerminal(t *testing.T) {
	for _, to := range []string{TaskStatusBacklog, TaskStatusInProgress, TaskStatusBlocked, TaskStatusDone, TaskStatusArchived} {
		assert.False(t, CanTransitionTaskStatus(TaskStatusArchived, to), "archived should have no outgoing edges")
	}
}

func TestValidTaskStatus(t *testing.T) {
	for _, s := range []string{TaskStatusBacklog, TaskStatusInProgress, TaskStatusBlocked, TaskStatusDone, TaskStatusArchived} {
		assert.True(t, ValidTaskStatus(s))
	}
	assert.False(t, ValidTaskStatus("done_done"))
	assert.False(t, ValidTaskStatus(""))
}

func TestValidPriority(t *testing.T) {
	for _, p := range []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical} {
		assert.True(t, ValidPriority(p))
	}
	assert.False(t, ValidPriority("urgent"))
}

func TestTaskWatchers(t *testing.T) {
	task := &Task{}
	uid := primitive.NewObjectID()

	assert.False(t, task.HasWatcher(uid))
	task.AddWatcher(uid)
	assert.True(t, task.HasWatcher(uid))
	assert.Len(t, task.Watchers, 1)

	// adding the same watcher twice is a no-op.
	task.AddWatcher(uid)
	assert.Len(t, task.Watchers, 1)
}

func TestTaskHasLabel(t *testing.T) {
	task := &Task{Labels: []string{"bug", "urgent"}}
	assert.True(t, task.HasLabel("bug"))
	assert.False(t, task.HasLabel("Bug"))
	assert.False(t, task.HasLabel("feature"))
}
