package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity action enumeration, spec §4.3.
const (
	ActivityCreate         = "create"
	ActivityUpdateStatus   = "update_status"
	ActivityUpdatePriority = "update_priority"
	ActivityAssign         = "assign"
	ActivityUnassign       = "unassign"
	ActivityEdit           = "edit"
	ActivityArchive        = "archive"
	ActivityRestore        = "restore"
	ActivityDelete         = "delete"
	ActivityAddLabel       = "add_label"
	ActivityRemoveLabel    = "remove_label"
	ActivitySetDueDate     = "set_due_date"
	ActivityRemoveDueDate  = "remove_due_date"
)

// TaskActivity is an append-only audit record. Records are never updated
// or deleted once written; see spec §4.3.
type TaskActivity struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TaskID    primitive.ObjectID `bson:"task_id" json:"task_id"`
	ProjectID primitive.ObjectID `bson:"project_id" json:"project_id"`
	Actor     primitive.ObjectID `bson:"actor" json:"actor"`
	Action    string             `bson:"action" json:"action"`

	From map[string]any `bson:"from,omitempty" json:"from,omitempty"`
	To   map[string]any `bson:"to,omitempty" json:"to,omitempty"`

	Metadata map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`

	CreatedAt time.Time `bson:"createdAt,omitempty" json:"created_at"`
}
