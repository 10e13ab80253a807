package dto

import (
	"encoding/json"
	"time"
)

// CreateTaskRequest is the body for POST /api/projects/{id}/tasks.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Assignee    string     `json:"assignee,omitempty" validate:"omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Labels      []string   `json:"labels,omitempty" validate:"omitempty,max=10,dive,max=50"`
}

// UpdateTaskRequest is the body for PATCH
// /api/projects/{id}/tasks/{taskId}. Each *Set flag distinguishes
// "field absent from the request" from "field explicitly cleared",
// mirroring the teacher's optional-pointer-field DTO pattern.
type UpdateTaskRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`

	DescriptionSet bool    `json:"-"`
	Description    *string `json:"description,omitempty" validate:"omitempty,max=2000"`

	Priority *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`

	DueDateSet bool       `json:"-"`
	DueDate    *time.Time `json:"dueDate,omitempty"`

	Labels    []string `json:"labels,omitempty" validate:"omitempty,max=10,dive,max=50"`
	LabelsSet bool     `json:"-"`
}

// UnmarshalJSON records which optional fields the caller actually sent,
// so updateTaskFields can tell "absent" from "explicitly cleared" (spec
// §9) instead of collapsing both to a nil pointer.
func (r *UpdateTaskRequest) UnmarshalJSON(data []byte) error {
	type alias UpdateTaskRequest
	if err := json.Unmarshal(data, (*alias)(r)); err != nil {
		return err
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, ok := raw["description"]; ok {
		r.DescriptionSet = true
	}
	if _, ok := raw["dueDate"]; ok {
		r.DueDateSet = true
	}
	if _, ok := raw["labels"]; ok {
		r.LabelsSet = true
	}
	return nil
}

// ChangeTaskStatusRequest is the body for PATCH
// /api/projects/{id}/tasks/{taskId}/status.
type ChangeTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=backlog in_progress blocked done archived"`
}

// AssignTaskRequest is the body for PATCH
// /api/projects/{id}/tasks/{taskId}/assignee. A nil Assignee unassigns.
type AssignTaskRequest struct {
	Assignee *string `json:"assignee"`
}

// ListTasksQuery binds the query parameters of GET
// /api/projects/{id}/tasks.
type ListTasksQuery struct {
	Status      []string `form:"status"`
	Assignee    []string `form:"assignee"`
	Priority    []string `form:"priority"`
	Label       []string `form:"label"`
	Search      string   `form:"search"`
	DueDateFrom string   `form:"dueDateFrom"`
	DueDateTo   string   `form:"dueDateTo"`
	IsDeleted   bool     `form:"isDeleted"`
	Page        int      `form:"page"`
	Limit       int      `form:"limit"`
	Sort        string   `form:"sort"`
}

// ListActivityQuery binds the query parameters of GET
// /api/projects/{id}/tasks/{taskId}/activity.
type ListActivityQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}
