package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project roles, ordered by the hierarchy RoleAtLeast relies on.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

var roleWeight = map[string]int{
	RoleAdmin:  3,
	RoleMember: 2,
	RoleViewer: 1,
}

// RoleAtLeast reports whether role meets or exceeds minRole in the
// admin > member > viewer hierarchy. An unrecognized role never satisfies
// any minimum.
func RoleAtLeast(role, minRole string) bool {
	w, ok := roleWeight[role]
	if !ok {
		return false
	}
	min, ok := roleWeight[minRole]
	if !ok {
		return false
	}
	return w >= min
}

// Project lifecycle status.
const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
	ProjectStatusDeleted  = "deleted"
)

// Member status within a project.
const (
	MemberStatusActive  = "active"
	MemberStatusInvited = "invited"
	MemberStatusRemoved = "removed"
)

// ProjectSettings holds the configurable knobs on a project.
type ProjectSettings struct {
	IsPublic          bool `bson:"is_public" json:"is_public"`
	AllowMemberInvite bool `bson:"allow_member_invite" json:"allow_member_invite"`
	// MaxMembers is nil when unlimited; otherwise a cap >= 1 on active members.
	MaxMembers *int `bson:"max_members,omitempty" json:"max_members,omitempty"`
}

// ProjectMetadata is the denormalized task rollup surfaced with a project.
// It is populated by the Task service via the internal count-report bridge
// (see SPEC_FULL.md §3) rather than computed inline, since the Project
// service has no visibility into tasks.
type ProjectMetadata struct {
	TotalTasks     int `bson:"total_tasks" json:"total_tasks"`
	CompletedTasks int `bson:"completed_tasks" json:"completed_tasks"`
	// Progress is round(completed/total * 100), 0 when total is 0.
	Progress int `bson:"progress" json:"progress"`
}

// Member is an entry in a project's embedded membership list. Keeping
// members embedded in the Project document (rather than a separate
// collection) is carried from spec §9: role/membership reads come back
// with a single document fetch. The only limit on active members is a
// project's optional Settings.MaxMembers; no fixed upper bound on the
// size of the list is enforced.
type Member struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Email  string             `bson:"email" json:"email"`
	Role   string             `bson:"role" json:"role"`
	Status string             `bson:"status" json:"status"`

	JoinedAt         time.Time           `bson:"joined_at" json:"joined_at"`
	InvitedBy        *primitive.ObjectID `bson:"invited_by,omitempty" json:"invited_by,omitempty"`
	InvitationSentAt *time.Time          `bson:"invitation_sent_at,omitempty" json:"invitation_sent_at,omitempty"`
	LastActive       *time.Time          `bson:"last_active,omitempty" json:"last_active,omitempty"`
}

// IsActive reports whether this entry counts toward membership.
func (m Member) IsActive() bool {
	return m.Status == MemberStatusActive
}

// Project is the aggregate root owning its membership list.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	Status      string             `bson:"status" json:"status"`

	// InvitationCode is unique (case-insensitively) across non-deleted
	// projects; stored and compared upper-case.
	InvitationCode string `bson:"invitation_code" json:"invitation_code"`

	Settings ProjectSettings `bson:"settings" json:"settings"`
	Metadata ProjectMetadata `bson:"metadata" json:"metadata"`
	Members  []Member        `bson:"members" json:"members"`

	// Version backs the optimistic check-and-set spec §5 requires for
	// member-list mutations: every write that touches Members increments
	// it, and writers condition their update on having read the value
	// they're about to replace.
	Version int `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"createdAt,omitempty" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updated_at"`
}

// FindMember returns the member entry for userID, or nil.
func (p *Project) FindMember(userID primitive.ObjectID) *Member {
	for i := range p.Members {
		if p.Members[i].UserID == userID {
			return &p.Members[i]
		}
	}
	return nil
}

// FindMemberByEmail returns the member entry for email, or nil.
func (p *Project) FindMemberByEmail(email string) *Member {
	for i := range p.Members {
		if p.Members[i].Email == email {
			return &p.Members[i]
		}
	}
	return nil
}

// ActiveMemberCount counts entries with status=active.
func (p *Project) ActiveMemberCount() int {
	n := 0
	for _, m := range p.Members {
		if m.IsActive() {
			n++
		}
	}
	return n
}

// IsMember reports whether userID has an active membership.
func (p *Project) IsMember(userID primitive.ObjectID) bool {
	m := p.FindMember(userID)
	return m != nil && m.IsActive()
}

// Role returns the role held by an active member, or "" if none.
func (p *Project) Role(userID primitive.ObjectID) string {
	m := p.FindMember(userID)
	if m == nil || !m.IsActive() {
		return ""
	}
	return m.Role
}

// HasAtLeast reports whether userID is an active member with role >= minRole.
func (p *Project) HasAtLeast(userID primitive.ObjectID, minRole string) bool {
	return RoleAtLeast(p.Role(userID), minRole)
}
