package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/domain"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"github.com/dhanuprys/infrantery-backend-go/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrProjectNotFound        = errors.New("project not found")
	ErrProjectAccessDenied    = errors.New("project access denied")
	ErrInsufficientPermission = errors.New("insufficient permission")
	ErrMemberNotFound         = errors.New("member not found")
	ErrAlreadyMember          = errors.New("already member")
	ErrAlreadyInvited         = errors.New("already invited")
	ErrMemberLimitReached     = errors.New("member limit reached")
	ErrCannotRemoveCreator    = errors.New("cannot remove project creator")
	ErrInvitationCodeNotFound = errors.New("invitation code not found")
	ErrConflict               = errors.New("conflicting concurrent update, retry")
	ErrCreatorCannotLeave     = errors.New("project creator cannot leave")
)

const maxOptimisticRetries = 5

// ProjectService implements spec §4.1.
type ProjectService struct {
	projectRepo port.ProjectRepository
	profiles    port.ProfileResolver
	notifier    port.Notifier
	cascader    port.ArchiveCascader
}

func NewProjectService(
	projectRepo port.ProjectRepository,
	profiles port.ProfileResolver,
	notifier port.Notifier,
	cascader port.ArchiveCascader,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		profiles:    profiles,
		notifier:    notifier,
		cascader:    cascader,
	}
}

// CreateProject creates a project, seeding the caller as its sole admin.
func (s *ProjectService) CreateProject(
	ctx context.Context,
	creator primitive.ObjectID,
	name, description string,
	isPublic, allowMemberInvite bool,
	maxMembers *int,
) (*domain.Project, error) {
	creatorProfile, err := s.profiles.Resolve(ctx, creator)
	if err != nil {
		return nil, err
	}

	code, err := s.uniqueInvitationCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	project := &domain.Project{
		ID:             primitive.NewObjectID(),
		Name:           name,
		Description:    description,
		CreatedBy:      creator,
		Status:         domain.ProjectStatusActive,
		InvitationCode: code,
		Settings: domain.ProjectSettings{
			IsPublic:          isPublic,
			AllowMemberInvite: allowMemberInvite,
			MaxMembers:        maxMembers,
		},
		Members: []domain.Member{
			{
				UserID:   creator,
				Email:    creatorProfile.Email,
				Role:     domain.RoleAdmin,
				Status:   domain.MemberStatusActive,
				JoinedAt: now,
			},
		},
		Version: 0,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// uniqueInvitationCode generates a code that no non-deleted project
// currently holds, checking up to 10 candidates against the store before
// giving up. The check is separate from the insert: a code taken in
// between is rejected by the store's unique index and is not retried.
func (s *ProjectService) uniqueInvitationCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code, err := generateInvitationCode()
		if err != nil {
			return "", err
		}
		exists, err := s.projectRepo.ExistsByInvitationCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a unique invitation code")
}

// ListUserProjects returns the caller's projects matching filter.
func (s *ProjectService) ListUserProjects(
	ctx context.Context,
	caller primitive.ObjectID,
	filter port.ProjectListFilter,
	offset, limit int,
) ([]*domain.Project, int64, error) {
	return s.projectRepo.FindByUserID(ctx, caller, filter, offset, limit)
}

// GetProject returns a project visible to caller (any active role).
func (s *ProjectService) GetProject(ctx context.Context, caller, projectID primitive.ObjectID) (*domain.Project, error) {
	project, err := s.fetch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsMember(caller) {
		return nil, ErrProjectAccessDenied
	}
	return project, nil
}

func (s *ProjectService) fetch(ctx context.Context, projectID primitive.ObjectID) (*domain.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// ProjectPatch carries updateProject's optional fields, spec §4.1.
type ProjectPatch struct {
	Name              *string
	Description       *string
	Status            *string
	IsPublic          *bool
	AllowMemberInvite *bool
	MaxMembersSet     bool
	MaxMembers        *int
}

// UpdateProject applies patch. Requires caller to be an admin.
func (s *ProjectService) UpdateProject(ctx context.Context, caller, projectID primitive.ObjectID, patch ProjectPatch) (*domain.Project, error) {
	project, err := s.fetch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasAtLeast(caller, domain.RoleAdmin) {
		return nil, ErrInsufficientPermission
	}

	wasActive := project.Status == domain.ProjectStatusActive
	if patch.Name != nil {
		project.Name = *patch.Name
	}
	if patch.Description != nil {
		project.Description = *patch.Description
	}
	if patch.Status != nil {
		project.Status = *patch.Status
	}
	if patch.IsPublic != nil {
		project.Settings.IsPublic = *patch.IsPublic
	}
	if patch.AllowMemberInvite != nil {
		project.Settings.AllowMemberInvite = *patch.AllowMemberInvite
	}
	if patch.MaxMembersSet {
		project.Settings.MaxMembers = patch.MaxMembers
	}

	if err := s.projectRepo.UpdateFields(ctx, project); err != nil {
		return nil, err
	}

	if wasActive && project.Status == domain.ProjectStatusArchived {
		s.cascader.ArchiveProjectTasks(ctx, project.ID)
	}

	return project, nil
}

// DeleteProject soft-deletes a project. Requires caller == createdBy.
func (s *ProjectService) DeleteProject(ctx context.Context, caller, projectID primitive.ObjectID) error {
	project, err := s.fetch(ctx, projectID)
	if err != nil {
		return err
	}
	if project.CreatedBy != caller {
		return ErrInsufficientPermission
	}
	if err := s.projectRepo.SoftDelete(ctx, projectID); err != nil {
		return err
	}
	s.notifier.Notify(ctx, port.NotificationEvent{
		Kind:      "projectDeleted",
		ProjectID: projectID,
		ActorID:   caller,
	})
	return nil
}

// InviteMember invites a user by email or userId. Requires admin, or
// member with allowMemberInvite.
func (s *ProjectService) InviteMember(ctx context.Context, caller, projectID primitive.ObjectID, email string, userID *primitive.ObjectID, role string) error {
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		project, err := s.fetch(ctx, projectID)
		if err != nil {
			return err
		}

		callerRole := project.Role(caller)
		if !domain.RoleAtLeast(callerRole, domain.RoleMember) {
			return ErrInsufficientPermission
		}
		if callerRole == domain.RoleMember && !project.Settings.AllowMemberInvite {
			return ErrInsufficientPermission
		}

		var profile *port.UserProfile
		if userID != nil {
			profile, err = s.profiles.Resolve(ctx, *userID)
		} else {
			profile, err = s.profiles.ResolveByEmail(ctx, email)
		}
		if err != nil {
			return err
		}

		existing := project.FindMember(profile.UserID)
		if existing != nil {
			switch existing.Status {
			case domain.MemberStatusActive:
				return ErrAlreadyMember
			case domain.MemberStatusInvited:
				return ErrAlreadyInvited
			}
		}

		if project.Settings.MaxMembers != nil && project.ActiveMemberCount() >= *project.Settings.MaxMembers {
			return ErrMemberLimitReached
		}

		now := time.Now()
		if existing != nil {
			// Resurrect a previously-removed entry in place.
			existing.Role = role
			existing.Status = domain.MemberStatusInvited
			existing.InvitedBy = &caller
			existing.InvitationSentAt = &now
		} else {
			project.Members = append(project.Members, domain.Member{
				UserID:           profile.UserID,
				Email:            profile.Email,
				Role:             role,
				Status:           domain.MemberStatusInvited,
				JoinedAt:         now,
				InvitedBy:        &caller,
				InvitationSentAt: &now,
			})
		}

		ok, err := s.projectRepo.ReplaceMembers(ctx, project.ID, project.Version, project.Members)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		s.notifier.Notify(ctx, port.NotificationEvent{
			Kind:      "projectInvitation",
			ProjectID: projectID,
			ActorID:   caller,
			Payload: map[string]any{
				"email": profile.Email,
				"role":  role,
			},
		})
		return nil
	}
	return ErrConflict
}

// JoinByCode joins the caller into the project identified by code.
func (s *ProjectService) JoinByCode(ctx context.Context, caller primitive.ObjectID, callerEmail, code string) (primitive.ObjectID, error) {
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		project, err := s.projectRepo.FindByInvitationCode(ctx, code)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return primitive.NilObjectID, ErrProjectNotFound
			}
			return primitive.NilObjectID, err
		}

		existing := project.FindMember(caller)
		if existing != nil && existing.IsActive() {
			return primitive.NilObjectID, ErrAlreadyMember
		}

		now := time.Now()
		if existing != nil {
			existing.Status = domain.MemberStatusActive
			existing.JoinedAt = now
		} else {
			if project.Settings.MaxMembers != nil && project.ActiveMemberCount() >= *project.Settings.MaxMembers {
				return primitive.NilObjectID, ErrMemberLimitReached
			}
			project.Members = append(project.Members, domain.Member{
				UserID:   caller,
				Email:    callerEmail,
				Role:     domain.RoleMember,
				Status:   domain.MemberStatusActive,
				JoinedAt: now,
			})
		}

		ok, err := s.projectRepo.ReplaceMembers(ctx, project.ID, project.Version, project.Members)
		if err != nil {
			return primitive.NilObjectID, err
		}
		if !ok {
			continue
		}
		return project.ID, nil
	}
	return primitive.NilObjectID, ErrConflict
}

// ListMembers returns a project's membership, admins first then joinedAt
// ascending, optionally filtered by status. Without a status filter,
// removed entries are left out.
func (s *ProjectService) ListMembers(ctx context.Context, caller, projectID primitive.ObjectID, status string) ([]domain.Member, error) {
	project, err := s.fetch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsMember(caller) {
		return nil, ErrProjectAccessDenied
	}

	members := make([]domain.Member, 0, len(project.Members))
	for _, m := range project.Members {
		if status == "" && m.Status == domain.MemberStatusRemoved {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		members = append(members, m)
	}
	sortMembers(members)
	return members, nil
}

func sortMembers(members []domain.Member) {
	for i := 1; i < len(members); i++ {
		for j := i; j > 0 && lessMembers(members[j], members[j-1]); j-- {
			members[j], members[j-1] = members[j-1], members[j]
		}
	}
}

func lessMembers(a, b domain.Member) bool {
	aAdmin := a.Role == domain.RoleAdmin
	bAdmin := b.Role == domain.RoleAdmin
	if aAdmin != bAdmin {
		return aAdmin
	}
	return a.JoinedAt.Before(b.JoinedAt)
}

// UpdateMemberRole changes a member's role. Requires admin; forbidden to
// demote the creator.
func (s *ProjectService) UpdateMemberRole(ctx context.Context, caller, projectID, targetUserID primitive.ObjectID, newRole string) error {
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		project, err := s.fetch(ctx, projectID)
		if err != nil {
			return err
		}
		if !project.HasAtLeast(caller, domain.RoleAdmin) {
			return ErrInsufficientPermission
		}
		if targetUserID == project.CreatedBy && newRole != domain.RoleAdmin {
			return ErrInsufficientPermission
		}

		member := project.FindMember(targetUserID)
		if member == nil {
			return ErrMemberNotFound
		}
		member.Role = newRole

		ok, err := s.projectRepo.ReplaceMembers(ctx, project.ID, project.Version, project.Members)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		return nil
	}
	return ErrConflict
}

// RemoveMember removes targetUserID from the project. Allowed for an
// admin, or by the member removing themself; forbidden against the
// creator.
func (s *ProjectService) RemoveMember(ctx context.Context, caller, projectID, targetUserID primitive.ObjectID) error {
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		project, err := s.fetch(ctx, projectID)
		if err != nil {
			return err
		}
		if !project.HasAtLeast(caller, domain.RoleAdmin) && caller != targetUserID {
			return ErrInsufficientPermission
		}
		if targetUserID == project.CreatedBy {
			return ErrCannotRemoveCreator
		}

		member := project.FindMember(targetUserID)
		if member == nil {
			return ErrMemberNotFound
		}
		member.Status = domain.MemberStatusRemoved

		ok, err := s.projectRepo.ReplaceMembers(ctx, project.ID, project.Version, project.Members)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		return nil
	}
	return ErrConflict
}

// LeaveProject is RemoveMember with caller==targetUserID, except that the
// creator leaving is a distinct, user-correctable error (spec §8 scenario
// 5) rather than RemoveMember's generic creator-removal FORBIDDEN.
func (s *ProjectService) LeaveProject(ctx context.Context, caller, projectID primitive.ObjectID) error {
	project, err := s.fetch(ctx, projectID)
	if err != nil {
		return err
	}
	if caller == project.CreatedBy {
		return ErrCreatorCannotLeave
	}
	return s.RemoveMember(ctx, caller, projectID, caller)
}

// ReportTaskCounts updates a project's denormalized task rollup
// (spec §3 metadata supplement), called by the Task service's bridge.
func (s *ProjectService) ReportTaskCounts(ctx context.Context, projectID primitive.ObjectID, total, completed int) error {
	project, err := s.fetch(ctx, projectID)
	if err != nil {
		return err
	}

	progress := 0
	if total > 0 {
		progress = int(math.Round(float64(completed) * 100 / float64(total)))
	}
	project.Metadata = domain.ProjectMetadata{
		TotalTasks:     total,
		CompletedTasks: completed,
		Progress:       progress,
	}

	if err := s.projectRepo.UpdateFields(ctx, project); err != nil {
		logger.Error().Err(err).Str("project_id", projectID.Hex()).Msg("failed to persist task count rollup")
		return err
	}
	return nil
}
