package dto

import (
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/domain"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectSummaryResponse is the shape returned by listUserProjects: the
// project plus the caller's own role, no full member list.
type ProjectSummaryResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Status         string                 `json:"status"`
	InvitationCode string                 `json:"invitationCode"`
	Settings       domain.ProjectSettings `json:"settings"`
	Metadata       domain.ProjectMetadata `json:"metadata"`
	Role           string                 `json:"role"`
	MemberCount    int                    `json:"memberCount"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// ProjectDetailResponse is the shape returned by getProject/createProject:
// the project plus resolved member profiles.
type ProjectDetailResponse struct {
	ID             string                  `json:"id"`
	Name           string                  `json:"name"`
	Description    string                  `json:"description"`
	Status         string                  `json:"status"`
	CreatedBy      string                  `json:"createdBy"`
	InvitationCode string                  `json:"invitationCode"`
	Settings       domain.ProjectSettings  `json:"settings"`
	Metadata       domain.ProjectMetadata  `json:"metadata"`
	Role           string                  `json:"role"`
	Members        []MemberResponse        `json:"members"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// MemberResponse is one entry of a project's membership list with
// resolved profile fields.
type MemberResponse struct {
	UserID           string     `json:"userId"`
	Email            string     `json:"email"`
	DisplayName      string     `json:"displayName,omitempty"`
	Role             string     `json:"role"`
	Status           string     `json:"status"`
	JoinedAt         time.Time  `json:"joinedAt"`
	InvitedBy        string     `json:"invitedBy,omitempty"`
	InvitedByName    string     `json:"invitedByName,omitempty"`
	InvitationSentAt *time.Time `json:"invitationSentAt,omitempty"`
	LastActive       *time.Time `json:"lastActive,omitempty"`
}

// ToProjectSummaryResponse converts a project to a list-row response for
// the given viewer.
func ToProjectSummaryResponse(project *domain.Project, viewer primitive.ObjectID) ProjectSummaryResponse {
	return ProjectSummaryResponse{
		ID:             project.ID.Hex(),
		Name:           project.Name,
		Description:    project.Description,
		Status:         project.Status,
		InvitationCode: project.InvitationCode,
		Settings:       project.Settings,
		Metadata:       project.Metadata,
		Role:           project.Role(viewer),
		MemberCount:    project.ActiveMemberCount(),
		CreatedAt:      project.CreatedAt,
		UpdatedAt:      project.UpdatedAt,
	}
}

// ToMemberResponse converts a member entry, taking its display name and
// (when InvitedBy is set) the inviter's display name from profiles. Ids
// missing from profiles, or a nil profiles map, leave those names blank.
func ToMemberResponse(m domain.Member, profiles map[string]*port.UserProfile) MemberResponse {
	resp := MemberResponse{
		UserID:           m.UserID.Hex(),
		Email:            m.Email,
		Role:             m.Role,
		Status:           m.Status,
		JoinedAt:         m.JoinedAt,
		InvitationSentAt: m.InvitationSentAt,
		LastActive:       m.LastActive,
	}
	if p, ok := profiles[m.UserID.Hex()]; ok && p != nil {
		resp.DisplayName = p.DisplayName
	}
	if m.InvitedBy != nil {
		resp.InvitedBy = m.InvitedBy.Hex()
		if p, ok := profiles[m.InvitedBy.Hex()]; ok && p != nil {
			resp.InvitedByName = p.DisplayName
		}
	}
	return resp
}

// ToProjectDetailResponse converts a project to the detail response for
// viewer, with member profiles already resolved into profiles.
func ToProjectDetailResponse(project *domain.Project, viewer primitive.ObjectID, profiles map[string]*port.UserProfile) ProjectDetailResponse {
	members := make([]MemberResponse, 0, len(project.Members))
	for _, m := range project.Members {
		members = append(members, ToMemberResponse(m, profiles))
	}
	return ProjectDetailResponse{
		ID:             project.ID.Hex(),
		Name:           project.Name,
		Description:    project.Description,
		Status:         project.Status,
		CreatedBy:      project.CreatedBy.Hex(),
		InvitationCode: project.InvitationCode,
		Settings:       project.Settings,
		Metadata:       project.Metadata,
		Role:           project.Role(viewer),
		Members:        members,
		CreatedAt:      project.CreatedAt,
		UpdatedAt:      project.UpdatedAt,
	}
}
