package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/domain"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"github.com/dhanuprys/infrantery-backend-go/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrTaskNotFound             = errors.New("task not found")
	ErrAssigneeNotProjectMember = errors.New("assignee is not a project member")
	ErrInvalidStatusTransition  = errors.New("invalid status transition")
	ErrTaskWriteConflict        = errors.New("task write conflict, retry")
)

const maxTaskWriteRetries = 5

// permission names from spec §4.2's matrix.
const (
	permViewTasks    = "view_tasks"
	permCreateTask   = "create_task"
	permEditTask     = "edit_task"
	permAssignTask   = "assign_task"
	permChangeStatus = "change_status"
	permDeleteTask   = "delete_task"
)

// TaskService implements spec §4.2. It never reads project membership
// directly: every permission check resolves the caller's role through
// the bridge (spec §4.4), since the Task service does not own that
// data.
type TaskService struct {
	taskRepo     port.TaskRepository
	activityRepo port.ActivityRepository
	bridge       port.PermissionBridge
	profiles     port.ProfileResolver
	counts       port.TaskCountReporter
}

func NewTaskService(
	taskRepo port.TaskRepository,
	activityRepo port.ActivityRepository,
	bridge port.PermissionBridge,
	profiles port.ProfileResolver,
	counts port.TaskCountReporter,
) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		activityRepo: activityRepo,
		bridge:       bridge,
		profiles:     profiles,
		counts:       counts,
	}
}

// authorize resolves caller's role for projectID and reports whether
// permission is granted for op, also returning the resolved role/
// membership for callers (changeTaskStatus) that need the assignee
// special case on top of the role check.
func (s *TaskService) authorize(ctx context.Context, projectID, caller primitive.ObjectID, op string) (role string, isMember bool, err error) {
	role, isMember, err = s.bridge.Role(ctx, projectID, caller)
	if err != nil {
		return "", false, err
	}
	if !isMember {
		return role, false, ErrProjectAccessDenied
	}

	switch op {
	case permViewTasks:
		return role, true, nil
	case permCreateTask, permEditTask, permAssignTask, permDeleteTask:
		if role != domain.RoleAdmin {
			return role, true, ErrInsufficientPermission
		}
		return role, true, nil
	case permChangeStatus:
		// admin always allowed; member allowed only when caller==assignee,
		// checked by the caller after the task is loaded.
		if role == domain.RoleAdmin || role == domain.RoleMember {
			return role, true, nil
		}
		return role, true, ErrInsufficientPermission
	default:
		return role, true, ErrInsufficientPermission
	}
}

// CreateTask implements spec §4.2 createTask.
func (s *TaskService) CreateTask(
	ctx context.Context,
	caller, projectID primitive.ObjectID,
	title, description string,
	priority string,
	assignee *primitive.ObjectID,
	dueDate *time.Time,
	labels []string,
) (*domain.Task, error) {
	if _, _, err := s.authorize(ctx, projectID, caller, permCreateTask); err != nil {
		return nil, err
	}

	if assignee != nil {
		if err := s.requireActiveMember(ctx, projectID, *assignee); err != nil {
			return nil, err
		}
	}

	if priority == "" {
		priority = domain.PriorityMedium
	}
	if labels == nil {
		labels = []string{}
	}

	now := time.Now()
	var desc *string
	if description != "" {
		desc = &description
	}

	task := &domain.Task{
		ID:                 primitive.NewObjectID(),
		ProjectID:          projectID,
		Title:              title,
		Description:        desc,
		Status:             domain.TaskStatusBacklog,
		Priority:           priority,
		Creator:            caller,
		Assignee:           assignee,
		DueDate:            dueDate,
		Labels:             labels,
		Watchers:           []primitive.ObjectID{caller},
		LastStatusChangeAt: now,
	}
	if assignee != nil {
		task.AddWatcher(*assignee)
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	activity := &domain.TaskActivity{
		ID:        primitive.NewObjectID(),
		TaskID:    task.ID,
		ProjectID: projectID,
		Actor:     caller,
		Action:    domain.ActivityCreate,
		To:        taskSnapshot(task),
	}
	if err := s.activityRepo.Append(ctx, activity); err != nil {
		logger.Error().Err(err).Str("task_id", task.ID.Hex()).Msg("failed to append create activity")
		return nil, err
	}

	s.reportCounts(ctx, projectID)
	return task, nil
}

// requireActiveMember enforces ASSIGNEE_NOT_PROJECT_MEMBER: the target
// must be an active member of projectID at the moment of assignment.
func (s *TaskService) requireActiveMember(ctx context.Context, projectID, userID primitive.ObjectID) error {
	_, isMember, err := s.bridge.Role(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrAssigneeNotProjectMember
	}
	return nil
}

// ListTasks implements spec §4.2 listTasks.
func (s *TaskService) ListTasks(ctx context.Context, caller, projectID primitive.ObjectID, filter port.TaskListFilter, sort port.TaskListSort, offset, limit int) ([]*domain.Task, int64, error) {
	if _, _, err := s.authorize(ctx, projectID, caller, permViewTasks); err != nil {
		return nil, 0, err
	}
	return s.taskRepo.Find(ctx, projectID, filter, sort, offset, limit)
}

// GetTask implements spec §4.2 getTask.
func (s *TaskService) GetTask(ctx context.Context, caller, projectID, taskID primitive.ObjectID) (*domain.Task, error) {
	if _, _, err := s.authorize(ctx, projectID, caller, permViewTasks); err != nil {
		return nil, err
	}
	return s.fetch(ctx, projectID, taskID)
}

func (s *TaskService) fetch(ctx context.Context, projectID, taskID primitive.ObjectID) (*domain.Task, error) {
	task, err := s.taskRepo.FindByProjectAndID(ctx, projectID, taskID, false)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// TaskPatch carries updateTaskFields' optional fields, spec §4.2/§9.
// Each *Set flag distinguishes an absent field from an explicit clear.
type TaskPatch struct {
	Title *string

	DescriptionSet bool
	Description    *string

	Priority *string

	DueDateSet bool
	DueDate    *time.Time

	LabelsSet bool
	Labels    []string
}

// UpdateTaskFields implements spec §4.2 updateTaskFields: diffs each
// field, persists only if something actually changed, and appends
// exactly one activity whose action is narrowed per SPEC_FULL §3 when
// the only change is to labels or dueDate.
func (s *TaskService) UpdateTaskFields(ctx context.Context, caller, projectID, taskID primitive.ObjectID, patch TaskPatch) (*domain.Task, error) {
	if _, _, err := s.authorize(ctx, projectID, caller, permEditTask); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxTaskWriteRetries; attempt++ {
		task, err := s.fetch(ctx, projectID, taskID)
		if err != nil {
			return nil, err
		}

		from := map[string]any{}
		to := map[string]any{}
		var changed []string

		if patch.Title != nil && *patch.Title != task.Title {
			from["title"] = task.Title
			to["title"] = *patch.Title
			task.Title = *patch.Title
			changed = append(changed, "title")
		}
		if patch.DescriptionSet && !stringPtrEqual(patch.Description, task.Description) {
			from["description"] = task.Description
			to["description"] = patch.Description
			task.Description = patch.Description
			changed = append(changed, "description")
		}
		if patch.Priority != nil && *patch.Priority != task.Priority {
			from["priority"] = task.Priority
			to["priority"] = *patch.Priority
			task.Priority = *patch.Priority
			changed = append(changed, "priority")
		}
		labelsChanged := false
		labelsGrew := false
		if patch.LabelsSet && !stringSliceEqual(patch.Labels, task.Labels) {
			from["labels"] = task.Labels
			to["labels"] = patch.Labels
			labelsGrew = len(patch.Labels) > len(task.Labels)
			task.Labels = patch.Labels
			changed = append(changed, "labels")
			labelsChanged = true
		}
		dueDateChanged := false
		if patch.DueDateSet && !timePtrEqual(patch.DueDate, task.DueDate) {
			from["dueDate"] = task.DueDate
			to["dueDate"] = patch.DueDate
			task.DueDate = patch.DueDate
			changed = append(changed, "dueDate")
			dueDateChanged = true
		}

		if len(changed) == 0 {
			return task, nil
		}

		expected := task.UpdatedAt
		ok, err := s.taskRepo.CompareAndSwap(ctx, task, expected)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		action := narrowEditAction(changed, labelsChanged, labelsGrew, dueDateChanged, patch.DueDate)
		activity := &domain.TaskActivity{
			ID:        primitive.NewObjectID(),
			TaskID:    task.ID,
			ProjectID: projectID,
			Actor:     caller,
			Action:    action,
			From:      from,
			To:        to,
			Metadata:  map[string]any{"changedFields": changed},
		}
		if err := s.activityRepo.Append(ctx, activity); err != nil {
			logger.Error().Err(err).Str("task_id", task.ID.Hex()).Msg("failed to append edit activity")
			return nil, err
		}

		return task, nil
	}
	return nil, ErrTaskWriteConflict
}

// narrowEditAction resolves SPEC_FULL §3's supplement: a single-field
// change to labels or dueDate gets a more specific action than the
// generic "edit"; any mixed-field edit keeps "edit".
func narrowEditAction(changed []string, labelsChanged, labelsGrew, dueDateChanged bool, newDueDate *time.Time) string {
	if len(changed) != 1 {
		return domain.ActivityEdit
	}
	if labelsChanged {
		if labelsGrew {
			return domain.ActivityAddLabel
		}
		return domain.ActivityRemoveLabel
	}
	if dueDateChanged {
		if newDueDate == nil {
			return domain.ActivityRemoveDueDate
		}
		return domain.ActivitySetDueDate
	}
	return domain.ActivityEdit
}

// ChangeTaskStatus implements spec §4.2 changeTaskStatus.
func (s *TaskService) ChangeTaskStatus(ctx context.Context, caller, projectID, taskID primitive.ObjectID, newStatus string) (*domain.Task, error) {
	role, _, err := s.authorize(ctx, projectID, caller, permChangeStatus)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxTaskWriteRetries; attempt++ {
		task, err := s.fetch(ctx, projectID, taskID)
		if err != nil {
			return nil, err
		}

		if role != domain.RoleAdmin {
			if task.Assignee == nil || *task.Assignee != caller {
				return nil, ErrInsufficientPermission
			}
		}

		if !domain.CanTransitionTaskStatus(task.Status, newStatus) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, task.Status, newStatus)
		}

		fromStatus := task.Status
		expected := task.UpdatedAt
		now := time.Now()
		task.Status = newStatus
		task.LastStatusChangeAt = now

		ok, err := s.taskRepo.CompareAndSwap(ctx, task, expected)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		activity := &domain.TaskActivity{
			ID:        primitive.NewObjectID(),
			TaskID:    task.ID,
			ProjectID: projectID,
			Actor:     caller,
			Action:    domain.ActivityUpdateStatus,
			From:      map[string]any{"status": fromStatus},
			To:        map[string]any{"status": newStatus},
		}
		if err := s.activityRepo.Append(ctx, activity); err != nil {
			logger.Error().Err(err).Str("task_id", task.ID.Hex()).Msg("failed to append status activity")
			return nil, err
		}

		s.reportCounts(ctx, projectID)
		return task, nil
	}
	return nil, ErrTaskWriteConflict
}

// AssignTask implements spec §4.2 assignTask. assignee nil unassigns.
func (s *TaskService) AssignTask(ctx context.Context, caller, projectID, taskID primitive.ObjectID, assignee *primitive.ObjectID) (*domain.Task, error) {
	if _, _, err := s.authorize(ctx, projectID, caller, permAssignTask); err != nil {
		return nil, err
	}

	if assignee != nil {
		if err := s.requireActiveMember(ctx, projectID, *assignee); err != nil {
			return nil, err
		}
	}

	for attempt := 0; attempt < maxTaskWriteRetries; attempt++ {
		task, err := s.fetch(ctx, projectID, taskID)
		if err != nil {
			return nil, err
		}

		fromAssignee := assigneeSnapshot(task.Assignee)
		task.Assignee = assignee
		if assignee != nil {
			task.AddWatcher(*assignee)
		}

		expected := task.UpdatedAt
		ok, err := s.taskRepo.CompareAndSwap(ctx, task, expected)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		action := domain.ActivityAssign
		if assignee == nil {
			action = domain.ActivityUnassign
		}
		activity := &domain.TaskActivity{
			ID:        primitive.NewObjectID(),
			TaskID:    task.ID,
			ProjectID: projectID,
			Actor:     caller,
			Action:    action,
			From:      map[string]any{"assignee": fromAssignee},
			To:        map[string]any{"assignee": assigneeSnapshot(assignee)},
		}
		if err := s.activityRepo.Append(ctx, activity); err != nil {
			logger.Error().Err(err).Str("task_id", task.ID.Hex()).Msg("failed to append assign activity")
			return nil, err
		}

		return task, nil
	}
	return nil, ErrTaskWriteConflict
}

// SoftDeleteTask implements spec §4.2 softDeleteTask.
func (s *TaskService) SoftDeleteTask(ctx context.Context, caller, projectID, taskID primitive.ObjectID) error {
	if _, _, err := s.authorize(ctx, projectID, caller, permDeleteTask); err != nil {
		return err
	}

	for attempt := 0; attempt < maxTaskWriteRetries; attempt++ {
		task, err := s.fetch(ctx, projectID, taskID)
		if err != nil {
			return err
		}

		expected := task.UpdatedAt
		task.IsDeleted = true

		ok, err := s.taskRepo.CompareAndSwap(ctx, task, expected)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		activity := &domain.TaskActivity{
			ID:        primitive.NewObjectID(),
			TaskID:    task.ID,
			ProjectID: projectID,
			Actor:     caller,
			Action:    domain.ActivityDelete,
		}
		if err := s.activityRepo.Append(ctx, activity); err != nil {
			logger.Error().Err(err).Str("task_id", task.ID.Hex()).Msg("failed to append delete activity")
			return err
		}

		s.reportCounts(ctx, projectID)
		return nil
	}
	return ErrTaskWriteConflict
}

// ListTaskActivity implements spec §4.2 listTaskActivity.
func (s *TaskService) ListTaskActivity(ctx context.Context, caller, projectID, taskID primitive.ObjectID, offset, limit int) ([]*domain.TaskActivity, int64, error) {
	if _, _, err := s.authorize(ctx, projectID, caller, permViewTasks); err != nil {
		return nil, 0, err
	}
	// Confirm the task exists and belongs to projectID (NOT_FOUND when
	// not, even though soft-deleted tasks keep their activity log).
	if _, err := s.taskRepo.FindByProjectAndID(ctx, projectID, taskID, true); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, 0, ErrTaskNotFound
		}
		return nil, 0, err
	}
	return s.activityRepo.FindByTaskID(ctx, taskID, offset, limit)
}

// ArchiveProjectTasks force-archives every non-terminal task in
// projectID, called from the internal archive-cascade endpoint when the
// Project service archives a project (SPEC_FULL §3, spec §9 Open
// Question #1). Each task that transitions gets its own "archive"
// activity; tasks already archived or soft-deleted are left alone.
func (s *TaskService) ArchiveProjectTasks(ctx context.Context, projectID primitive.ObjectID) {
	filter := port.TaskListFilter{}
	const batchSize = 100
	offset := 0
	for {
		tasks, total, err := s.taskRepo.Find(ctx, projectID, filter, port.TaskListSort{Field: "createdAt"}, offset, batchSize)
		if err != nil {
			logger.Error().Err(err).Str("project_id", projectID.Hex()).Msg("archive cascade: failed to list tasks")
			return
		}
		for _, task := range tasks {
			if task.Status == domain.TaskStatusArchived {
				continue
			}
			expected := task.UpdatedAt
			fromStatus := task.Status
			task.Status = domain.TaskStatusArchived
			task.LastStatusChangeAt = time.Now()
			ok, err := s.taskRepo.CompareAndSwap(ctx, task, expected)
			if err != nil || !ok {
				continue
			}
			_ = s.activityRepo.Append(ctx, &domain.TaskActivity{
				ID:        primitive.NewObjectID(),
				TaskID:    task.ID,
				ProjectID: projectID,
				Actor:     task.Creator,
				Action:    domain.ActivityArchive,
				From:      map[string]any{"status": fromStatus},
				To:        map[string]any{"status": domain.TaskStatusArchived},
				Metadata:  map[string]any{"cascadedFromProjectArchive": true},
			})
		}
		offset += len(tasks)
		if int64(offset) >= total || len(tasks) == 0 {
			return
		}
	}
}

// reportCounts pushes the project's task rollup to the Project service,
// logging (not failing the caller) on error, per SPEC_FULL §3.
func (s *TaskService) reportCounts(ctx context.Context, projectID primitive.ObjectID) {
	go func() {
		reportCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		total, err := s.taskRepo.CountByProject(reportCtx, projectID)
		if err != nil {
			logger.Error().Err(err).Str("project_id", projectID.Hex()).Msg("failed to count tasks for rollup")
			return
		}
		completed, err := s.taskRepo.CountByProjectAndStatus(reportCtx, projectID, domain.TaskStatusDone)
		if err != nil {
			logger.Error().Err(err).Str("project_id", projectID.Hex()).Msg("failed to count completed tasks for rollup")
			return
		}
		if err := s.counts.ReportTaskCounts(reportCtx, projectID, int(total), int(completed)); err != nil {
			logger.Error().Err(err).Str("project_id", projectID.Hex()).Msg("failed to report task counts")
		}
	}()
}

func taskSnapshot(t *domain.Task) map[string]any {
	return map[string]any{
		"title":    t.Title,
		"status":   t.Status,
		"priority": t.Priority,
		"labels":   t.Labels,
	}
}

func assigneeSnapshot(id *primitive.ObjectID) any {
	if id == nil {
		return nil
	}
	return id.Hex()
}

func stringPtrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Equal(*b)
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		seen[v]--
	}
	for _, c := range seen {
		if c != 0 {
			return false
		}
	}
	return true
}
