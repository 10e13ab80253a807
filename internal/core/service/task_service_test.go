package service

import (
	"context"
	"testing"
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTaskServiceForTest() (*TaskService, *fakeTaskRepo, *fakeActivityRepo, *fakePermissionBridge, *fakeTaskCountReporter) {
	taskRepo := newFakeTaskRepo()
	activityRepo := newFakeActivityRepo()
	bridge := newFakePermissionBridge()
	profiles := newFakeProfileResolver()
	counts := newFakeTaskCountReporter()
	return NewTaskService(taskRepo, activityRepo, bridge, profiles, counts), taskRepo, activityRepo, bridge, counts
}

func TestCreateTask_DefaultsAndWatchers(t *testing.T) {
	svc, _, activityRepo, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	bridge.set(projectID, admin, domain.RoleAdmin)
	bridge.set(projectID, assignee, domain.RoleMember)

	task, err := svc.CreateTask(context.Background(), admin, projectID, "Ship v1", "", "", &assignee, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, domain.TaskStatusBacklog, task.Status)
	assert.Equal(t, []string{}, task.Labels)
	assert.True(t, task.HasWatcher(admin))
	assert.True(t, task.HasWatcher(assignee))
	assert.Equal(t, 1, activityRepo.byAction(task.ID, domain.ActivityCreate))
}

func TestCreateTask_AssigneeMustBeProjectMember(t *testing.T) {
	svc, _, _, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	outsider := primitive.NewObjectID()
	bridge.set(projectID, admin, domain.RoleAdmin)

	_, err := svc.CreateTask(context.Background(), admin, projectID, "Ship v1", "", "", &outsider, nil, nil)
	assert.ErrorIs(t, err, ErrAssigneeNotProjectMember)
}

func TestCreateTask_RequiresAdmin(t *testing.T) {
	svc, _, _, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	member := primitive.NewObjectID()
	bridge.set(projectID, member, domain.RoleMember)

	_, err := svc.CreateTask(context.Background(), member, projectID, "Ship v1", "", "", nil, nil, nil)
	assert.ErrorIs(t, err, ErrInsufficientPermission)
}

func TestCreateTask_NonMemberDenied(t *testing.T) {
	svc, _, _, _, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	_, err := svc.CreateTask(context.Background(), stranger, projectID, "Ship v1", "", "", nil, nil, nil)
	assert.ErrorIs(t, err, ErrProjectAccessDenied)
}

func createTestTask(t *testing.T, svc *TaskService, bridge *fakePermissionBridge, projectID, admin primitive.ObjectID) *domain.Task {
	t.Helper()
	bridge.set(projectID, admin, domain.RoleAdmin)
	task, err := svc.CreateTask(context.Background(), admin, projectID, "Ship v1", "initial description", "", nil, nil, nil)
	require.NoError(t, err)
	return task
}

func TestUpdateTaskFields_NoOpWhenNothingChanged(t *testing.T) {
	svc, _, activityRepo, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	task := createTestTask(t, svc, bridge, projectID, admin)

	sameTitle := task.Title
	_, err := svc.UpdateTaskFields(context.Background(), admin, projectID, task.ID, TaskPatch{Title: &sameTitle})
	require.NoError(t, err)

	// no activity beyond the initial "create" should have been appended.
	assert.Equal(t, 1, len(activityRepo.activities))
}

func TestUpdateTaskFields_LabelsOnlyNarrowsToAddLabel(t *testing.T) {
	svc, _, activityRepo, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	task := createTestTask(t, svc, bridge, projectID, admin)

	_, err := svc.UpdateTaskFields(context.Background(), admin, projectID, task.ID, TaskPatch{
		LabelsSet: true,
		Labels:    []string{"bug"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, activityRepo.byAction(task.ID, domain.ActivityAddLabel))
}

func TestUpdateTaskFields_LabelsOnlyNarrowsToRemoveLabel(t *testing.T) {
	svc, _, activityRepo, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	bridge.set(projectID, admin, domain.RoleAdmin)
	task, err := svc.CreateTask(context.Background(), admin, projectID, "Ship v1", "", "", nil, nil, []string{"bug", "urgent"})
	require.NoError(t, err)

	_, err = svc.UpdateTaskFields(context.Background(), admin, projectID, task.ID, TaskPatch{
		LabelsSet: true,
		Labels:    []string{"bug"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, activityRepo.byAction(task.ID, domain.ActivityRemoveLabel))
}

func TestUpdateTaskFields_DueDateOnlyNarrowsToSetAndRemove(t *testing.T) {
	svc, _, activityRepo, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	task := createTestTask(t, svc, bridge, projectID, admin)

	due := time.Now().Add(48 * time.Hour)
	_, err := svc.UpdateTaskFields(context.Background(), admin, projectID, task.ID, TaskPatch{
		DueDateSet: true,
		DueDate:    &due,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, activityRepo.byAction(task.ID, domain.ActivitySetDueDate))

	_, err = svc.UpdateTaskFields(context.Background(), admin, projectID, task.ID, TaskPatch{
		DueDateSet: true,
		DueDate:    nil,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, activityRepo.byAction(task.ID, domain.ActivityRemoveDueDate))
}

func TestUpdateTaskFields_MixedFieldsStayGenericEdit(t *testing.T) {
	svc, _, activityRepo, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	task := createTestTask(t, svc, bridge, projectID, admin)

	newTitle := "Ship v2"
	_, err := svc.UpdateTaskFields(context.Background(), admin, projectID, task.ID, TaskPatch{
		Title:     &newTitle,
		LabelsSet: true,
		Labels:    []string{"bug"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, activityRepo.byAction(task.ID, domain.ActivityEdit))
	assert.Equal(t, 0, activityRepo.byAction(task.ID, domain.ActivityAddLabel))
}

func TestUpdateTaskFields_DescriptionClearedExplicitly(t *testing.T) {
	svc, _, _, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	task := createTestTask(t, svc, bridge, projectID, admin)
	require.NotNil(t, task.Description)

	updated, err := svc.UpdateTaskFields(context.Background(), admin, projectID, task.ID, TaskPatch{
		DescriptionSet: true,
		Description:    nil,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
}

func TestChangeTaskStatus_InvalidTransitionRejected(t *testing.T) {
	svc, _, _, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	task := createTestTask(t, svc, bridge, projectID, admin)

	_, err := svc.ChangeTaskStatus(context.Background(), admin, projectID, task.ID, domain.TaskStatusDone)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestChangeTaskStatus_MemberOnlyOwnAssignment(t *testing.T) {
	svc, _, _, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()
	other := primitive.NewObjectID()
	bridge.set(projectID, admin, domain.RoleAdmin)
	bridge.set(projectID, member, domain.RoleMember)
	bridge.set(projectID, other, domain.RoleMember)

	task, err := svc.CreateTask(context.Background(), admin, projectID, "Ship v1", "", "", &member, nil, nil)
	require.NoError(t, err)

	_, err = svc.ChangeTaskStatus(context.Background(), other, projectID, task.ID, domain.TaskStatusInProgress)
	assert.ErrorIs(t, err, ErrInsufficientPermission)

	updated, err := svc.ChangeTaskStatus(context.Background(), member, projectID, task.ID, domain.TaskStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, updated.Status)
}

func TestAssignTask_NilUnassigns(t *testing.T) {
	svc, _, activityRepo, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	bridge.set(projectID, admin, domain.RoleAdmin)
	bridge.set(projectID, assignee, domain.RoleMember)

	task, err := svc.CreateTask(context.Background(), admin, projectID, "Ship v1", "", "", &assignee, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, task.Assignee)

	updated, err := svc.AssignTask(context.Background(), admin, projectID, task.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.Assignee)
	assert.Equal(t, 1, activityRepo.byAction(task.ID, domain.ActivityUnassign))
}

func TestAssignTask_RejectsNonMemberAssignee(t *testing.T) {
	svc, _, _, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	outsider := primitive.NewObjectID()
	task := createTestTask(t, svc, bridge, projectID, admin)

	_, err := svc.AssignTask(context.Background(), admin, projectID, task.ID, &outsider)
	assert.ErrorIs(t, err, ErrAssigneeNotProjectMember)
}

func TestSoftDeleteTask_HidesFromFetchButKeepsActivity(t *testing.T) {
	svc, _, activityRepo, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	task := createTestTask(t, svc, bridge, projectID, admin)

	err := svc.SoftDeleteTask(context.Background(), admin, projectID, task.ID)
	require.NoError(t, err)

	_, err = svc.GetTask(context.Background(), admin, projectID, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	activities, total, err := svc.ListTaskActivity(context.Background(), admin, projectID, task.ID, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, 1, activityRepo.byAction(task.ID, domain.ActivityDelete))
	_ = activities
}

func TestArchiveProjectTasks_SkipsAlreadyArchived(t *testing.T) {
	svc, taskRepo, activityRepo, bridge, _ := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	task := createTestTask(t, svc, bridge, projectID, admin)

	svc.ArchiveProjectTasks(context.Background(), projectID)

	stored, err := taskRepo.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusArchived, stored.Status)
	assert.Equal(t, 1, activityRepo.byAction(task.ID, domain.ActivityArchive))

	// a second cascade should not re-append an archive activity.
	svc.ArchiveProjectTasks(context.Background(), projectID)
	assert.Equal(t, 1, activityRepo.byAction(task.ID, domain.ActivityArchive))
}

func TestReportCounts_PushesRollupAsynchronously(t *testing.T) {
	svc, _, _, bridge, counts := newTaskServiceForTest()
	projectID := primitive.NewObjectID()
	admin := primitive.NewObjectID()
	bridge.set(projectID, admin, domain.RoleAdmin)

	_, err := svc.CreateTask(context.Background(), admin, projectID, "Ship v1", "", "", nil, nil, nil)
	require.NoError(t, err)

	select {
	case <-counts.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task count report")
	}
	assert.Equal(t, 1, counts.total)
	assert.Equal(t, 0, counts.completed)
}
