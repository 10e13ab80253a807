package dto

import "encoding/json"

// CreateProjectRequest is the body for POST /api/projects.
type CreateProjectRequest struct {
	Name              string `json:"name" validate:"required,min=1,max=100"`
	Description       string `json:"description" validate:"max=500"`
	IsPublic          bool   `json:"isPublic"`
	AllowMemberInvite bool   `json:"allowMemberInvite"`
	MaxMembers        *int   `json:"maxMembers,omitempty" validate:"omitempty,min=1"`
}

// UpdateProjectRequest is the body for PUT /api/projects/{id}. Pointer
// fields distinguish "absent" (nil) from "explicitly set" (non-nil);
// Description's pointer already tells "absent" from "cleared to \"\""
// apart on its own. MaxMembers additionally needs MaxMembersSet because
// nil alone is ambiguous between "leave untouched" and "clear to
// unlimited" (spec §9).
type UpdateProjectRequest struct {
	Name              *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description       *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Status            *string `json:"status,omitempty" validate:"omitempty,oneof=active archived"`
	IsPublic          *bool   `json:"isPublic,omitempty"`
	AllowMemberInvite *bool   `json:"allowMemberInvite,omitempty"`
	MaxMembersSet     bool    `json:"-"`
	MaxMembers        *int    `json:"maxMembers,omitempty" validate:"omitempty,min=1"`
}

// UnmarshalJSON records whether the caller touched maxMembers at all, so
// updateProject can clear the cap to unlimited (nil + MaxMembersSet)
// instead of treating an absent key the same as an explicit null.
func (r *UpdateProjectRequest) UnmarshalJSON(data []byte) error {
	type alias UpdateProjectRequest
	if err := json.Unmarshal(data, (*alias)(r)); err != nil {
		return err
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, ok := raw["maxMembers"]; ok {
		r.MaxMembersSet = true
	}
	return nil
}

// InviteMemberRequest is the body for POST /api/projects/{id}/invite.
type InviteMemberRequest struct {
	Email  string `json:"email" validate:"required_without=UserID,omitempty,email"`
	UserID string `json:"userId" validate:"required_without=Email,omitempty"`
	Role   string `json:"role" validate:"required,oneof=member viewer"`
}

// UpdateMemberRoleRequest is the body for PUT
// /api/projects/{id}/members/{memberId}/role.
type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member viewer"`
}

// ListProjectsQuery binds the query parameters of GET /api/projects.
type ListProjectsQuery struct {
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
	Sort        string `form:"sort"`
	Search      string `form:"search"`
	Status      string `form:"status"`
	Role        string `form:"role"`
	InvitedOnly bool   `form:"invitedOnly"`
}

// ListMembersQuery binds the query parameters of GET
// /api/projects/{id}/members.
type ListMembersQuery struct {
	Status string `form:"status"`
}
