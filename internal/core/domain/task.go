package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task status values.
const (
	TaskStatusBacklog    = "backlog"
	TaskStatusInProgress = "in_progress"
	TaskStatusBlocked    = "blocked"
	TaskStatusDone       = "done"
	TaskStatusArchived   = "archived"
)

// Task priority values.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// taskTransitions is the fixed directed graph of allowed status changes
// from spec §4.2. archived is terminal: it has no outgoing edges.
var taskTransitions = map[string]map[string]bool{
	TaskStatusBacklog: {
		TaskStatusInProgress: true,
		TaskStatusArchived:   true,
	},
	TaskStatusInProgress: {
		TaskStatusBlocked:  true,
		TaskStatusDone:     true,
		TaskStatusArchived: true,
	},
	TaskStatusBlocked: {
		TaskStatusInProgress: true,
		TaskStatusArchived:   true,
	},
	TaskStatusDone: {
		TaskStatusInProgress: true,
		TaskStatusArchived:   true,
	},
	TaskStatusArchived: {},
}

// CanTransitionTaskStatus reports whether from->to is a valid edge in the
// task status state machine.
func CanTransitionTaskStatus(from, to string) bool {
	edges, ok := taskTransitions[from]
	if !ok {
		return false
	}
	return edges[to]
}

// ValidTaskStatus reports whether s is one of the five recognized statuses.
func ValidTaskStatus(s string) bool {
	_, ok := taskTransitions[s]
	return ok
}

// ValidPriority reports whether p is one of the four recognized priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

const (
	MaxLabelLength = 50
	MaxLabels      = 10
)

// Task is the aggregate root owned by the Task service.
type Task struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProjectID primitive.ObjectID `bson:"project_id" json:"project_id"`

	Title       string  `bson:"title" json:"title"`
	Description *string `bson:"description,omitempty" json:"description,omitempty"`

	Status   string `bson:"status" json:"status"`
	Priority string `bson:"priority" json:"priority"`

	Creator  primitive.ObjectID  `bson:"creator" json:"creator"`
	Assignee *primitive.ObjectID `bson:"assignee,omitempty" json:"assignee,omitempty"`
	DueDate  *time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`

	Labels   []string             `bson:"labels" json:"labels"`
	Watchers []primitive.ObjectID `bson:"watchers" json:"watchers"`

	IsDeleted bool `bson:"is_deleted" json:"is_deleted"`

	LastStatusChangeAt time.Time `bson:"last_status_change_at" json:"last_status_change_at"`

	CreatedAt time.Time `bson:"createdAt,omitempty" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updated_at"`
}

// HasWatcher reports whether userID is already in the watcher set.
func (t *Task) HasWatcher(userID primitive.ObjectID) bool {
	for _, w := range t.Watchers {
		if w == userID {
			return true
		}
	}
	return false
}

// AddWatcher appends userID to the watcher set if not already present.
func (t *Task) AddWatcher(userID primitive.ObjectID) {
	if !t.HasWatcher(userID) {
		t.Watchers = append(t.Watchers, userID)
	}
}

// HasLabel reports whether label is already present (case-sensitive, as
// stored).
func (t *Task) HasLabel(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}
