package dto

import (
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/domain"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
)

// ActivityResponse is the wire shape of a TaskActivity with the actor's
// profile resolved.
type ActivityResponse struct {
	ID          string         `json:"id"`
	TaskID      string         `json:"taskId"`
	ProjectID   string         `json:"projectId"`
	Actor       string         `json:"actor"`
	ActorName   string         `json:"actorName,omitempty"`
	Action      string         `json:"action"`
	From        map[string]any `json:"from,omitempty"`
	To          map[string]any `json:"to,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ToActivityResponse converts a TaskActivity, resolving the actor's
// display name from profiles when present.
func ToActivityResponse(a *domain.TaskActivity, profiles map[string]*port.UserProfile) ActivityResponse {
	resp := ActivityResponse{
		ID:        a.ID.Hex(),
		TaskID:    a.TaskID.Hex(),
		ProjectID: a.ProjectID.Hex(),
		Actor:     a.Actor.Hex(),
		Action:    a.Action,
		From:      a.From,
		To:        a.To,
		Metadata:  a.Metadata,
		CreatedAt: a.CreatedAt,
	}
	if p, ok := profiles[a.Actor.Hex()]; ok && p != nil {
		resp.ActorName = p.DisplayName
	}
	return resp
}
