package service

import (
	"context"
	"testing"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/domain"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newProjectServiceForTest() (*ProjectService, *fakeProjectRepo, *fakeProfileResolver, *fakeNotifier, *fakeArchiveCascader) {
	repo := newFakeProjectRepo()
	profiles := newFakeProfileResolver()
	notifier := &fakeNotifier{}
	cascader := &fakeArchiveCascader{}
	return NewProjectService(repo, profiles, notifier, cascader), repo, profiles, notifier, cascader
}

func TestCreateProject_SeedsCreatorAsAdmin(t *testing.T) {
	svc, _, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})

	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "desc", true, false, nil)
	require.NoError(t, err)
	require.Len(t, project.Members, 1)

	member := project.Members[0]
	assert.Equal(t, creator, member.UserID)
	assert.Equal(t, domain.RoleAdmin, member.Role)
	assert.Equal(t, domain.MemberStatusActive, member.Status)
	assert.Len(t, project.InvitationCode, 8)
	assert.Equal(t, domain.ProjectStatusActive, project.Status)
}

func TestUpdateProject_ClearMaxMembers(t *testing.T) {
	svc, _, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})

	maxMembers := 5
	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, &maxMembers)
	require.NoError(t, err)
	require.NotNil(t, project.Settings.MaxMembers)

	updated, err := svc.UpdateProject(context.Background(), creator, project.ID, ProjectPatch{
		MaxMembersSet: true,
		MaxMembers:    nil,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Settings.MaxMembers)
}

func TestUpdateProject_RequiresAdmin(t *testing.T) {
	svc, repo, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	viewer := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})

	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, nil)
	require.NoError(t, err)

	stored, _ := repo.FindByID(context.Background(), project.ID)
	stored.Members = append(stored.Members, domain.Member{UserID: viewer, Role: domain.RoleViewer, Status: domain.MemberStatusActive})
	repo.projects[project.ID].Members = stored.Members

	name := "New name"
	_, err = svc.UpdateProject(context.Background(), viewer, project.ID, ProjectPatch{Name: &name})
	assert.ErrorIs(t, err, ErrInsufficientPermission)
}

func TestUpdateProject_ArchivingCascades(t *testing.T) {
	svc, _, profiles, _, cascader := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})

	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, nil)
	require.NoError(t, err)

	status := domain.ProjectStatusArchived
	_, err = svc.UpdateProject(context.Background(), creator, project.ID, ProjectPatch{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, []primitive.ObjectID{project.ID}, cascader.archived)
}

func TestInviteMember_AlreadyInvited(t *testing.T) {
	svc, _, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	invitee := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})
	profiles.add(&port.UserProfile{UserID: invitee, Email: "bob@example.com"})

	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, nil)
	require.NoError(t, err)

	err = svc.InviteMember(context.Background(), creator, project.ID, "bob@example.com", nil, domain.RoleMember)
	require.NoError(t, err)

	err = svc.InviteMember(context.Background(), creator, project.ID, "bob@example.com", nil, domain.RoleMember)
	assert.ErrorIs(t, err, ErrAlreadyInvited)
}

func TestInviteMember_MemberLimitReached(t *testing.T) {
	svc, _, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	invitee := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})
	profiles.add(&port.UserProfile{UserID: invitee, Email: "bob@example.com"})

	maxMembers := 1
	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, &maxMembers)
	require.NoError(t, err)

	err = svc.InviteMember(context.Background(), creator, project.ID, "bob@example.com", nil, domain.RoleMember)
	assert.ErrorIs(t, err, ErrMemberLimitReached)
}

func TestJoinByCode_AlreadyMember(t *testing.T) {
	svc, _, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})

	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, nil)
	require.NoError(t, err)

	_, err = svc.JoinByCode(context.Background(), creator, "alice@example.com", project.InvitationCode)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestJoinByCode_AddsActiveMember(t *testing.T) {
	svc, _, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	joiner := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})

	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, nil)
	require.NoError(t, err)

	projectID, err := svc.JoinByCode(context.Background(), joiner, "bob@example.com", project.InvitationCode)
	require.NoError(t, err)
	assert.Equal(t, project.ID, projectID)

	members, err := svc.ListMembers(context.Background(), creator, project.ID, "")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestRemoveMember_CannotRemoveCreator(t *testing.T) {
	svc, _, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})

	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, nil)
	require.NoError(t, err)

	err = svc.RemoveMember(context.Background(), creator, project.ID, creator)
	assert.ErrorIs(t, err, ErrCannotRemoveCreator)
}

func TestLeaveProject_CreatorRejected(t *testing.T) {
	svc, _, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})

	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, nil)
	require.NoError(t, err)

	err = svc.LeaveProject(context.Background(), creator, project.ID)
	assert.ErrorIs(t, err, ErrCreatorCannotLeave)
}

func TestLeaveProject_MemberSucceeds(t *testing.T) {
	svc, _, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	joiner := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})
	profiles.add(&port.UserProfile{UserID: joiner, Email: "bob@example.com"})

	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, nil)
	require.NoError(t, err)

	_, err = svc.JoinByCode(context.Background(), joiner, "bob@example.com", project.InvitationCode)
	require.NoError(t, err)

	err = svc.LeaveProject(context.Background(), joiner, project.ID)
	assert.NoError(t, err)

	members, err := svc.ListMembers(context.Background(), creator, project.ID, "")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestReportTaskCounts_RoundsProgress(t *testing.T) {
	svc, _, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})

	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, nil)
	require.NoError(t, err)

	err = svc.ReportTaskCounts(context.Background(), project.ID, 3, 1)
	require.NoError(t, err)

	updated, err := svc.GetProject(context.Background(), creator, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, updated.Metadata.Progress)

	err = svc.ReportTaskCounts(context.Background(), project.ID, 3, 2)
	require.NoError(t, err)
	updated, err = svc.GetProject(context.Background(), creator, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, updated.Metadata.Progress)
}

func TestReportTaskCounts_ZeroTotalIsZeroProgress(t *testing.T) {
	svc, _, profiles, _, _ := newProjectServiceForTest()
	creator := primitive.NewObjectID()
	profiles.add(&port.UserProfile{UserID: creator, Email: "alice@example.com"})

	project, err := svc.CreateProject(context.Background(), creator, "Roadmap", "", false, false, nil)
	require.NoError(t, err)

	err = svc.ReportTaskCounts(context.Background(), project.ID, 0, 0)
	require.NoError(t, err)

	updated, err := svc.GetProject(context.Background(), creator, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Metadata.Progress)
}
