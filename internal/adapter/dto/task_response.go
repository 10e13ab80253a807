package dto

import (
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/domain"
)

// TaskResponse is the wire shape of a Task.
type TaskResponse struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Creator     string     `json:"creator"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Labels      []string   `json:"labels"`
	Watchers    []string   `json:"watchers"`
	IsDeleted   bool       `json:"isDeleted"`

	LastStatusChangeAt time.Time `json:"lastStatusChangeAt"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ToTaskResponse converts a Task to its wire shape.
func ToTaskResponse(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:                 t.ID.Hex(),
		ProjectID:          t.ProjectID.Hex(),
		Title:              t.Title,
		Status:             t.Status,
		Priority:           t.Priority,
		Creator:            t.Creator.Hex(),
		DueDate:            t.DueDate,
		Labels:             t.Labels,
		IsDeleted:          t.IsDeleted,
		LastStatusChangeAt: t.LastStatusChangeAt,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
	if t.Description != nil {
		resp.Description = *t.Description
	}
	if t.Assignee != nil {
		resp.Assignee = t.Assignee.Hex()
	}
	resp.Watchers = make([]string, len(t.Watchers))
	for i, w := range t.Watchers {
		resp.Watchers[i] = w.Hex()
	}
	return resp
}
