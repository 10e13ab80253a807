package handler

import (
	"net/http"
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/adapter/dto"
	"github.com/dhanuprys/infrantery-backend-go/internal/adapter/middleware"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/service"
	"github.com/dhanuprys/infrantery-backend-go/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultTaskListPageSize     = 20
	defaultTaskActivityPageSize = 50
)

type TaskHandler struct {
	taskService *service.TaskService
	profiles    port.ProfileResolver
	validator   *validation.ValidationEngine
}

func NewTaskHandler(taskService *service.TaskService, profiles port.ProfileResolver, validator *validation.ValidationEngine) *TaskHandler {
	return &TaskHandler{taskService: taskService, profiles: profiles, validator: validator}
}

func pathIDs(c *gin.Context) (projectID, taskID primitive.ObjectID, ok bool) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	taskIDParam := c.Param("taskId")
	if taskIDParam == "" {
		return projectID, primitive.NilObjectID, true
	}
	taskID, err = primitive.ObjectIDFromHex(taskIDParam)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return projectID, taskID, true
}

// CreateTask handles POST /api/projects/{id}/tasks.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	projectID, _, ok := pathIDs(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	var assignee *primitive.ObjectID
	if req.Assignee != "" {
		id, err := primitive.ObjectIDFromHex(req.Assignee)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewValidationErrorEnvelope([]dto.FieldError{{Field: "assignee", Message: "must be a valid id"}}))
			return
		}
		assignee = &id
	}

	caller, _ := middleware.CurrentUserID(c)
	task, err := h.taskService.CreateTask(c.Request.Context(), caller, projectID, req.Title, req.Description, req.Priority, assignee, req.DueDate, req.Labels)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAPIResponse(dto.ToTaskResponse(task)))
}

// ListTasks handles GET /api/projects/{id}/tasks.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	projectID, _, ok := pathIDs(c)
	if !ok {
		return
	}

	var q dto.ListTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorEnvelopeForCode(dto.ErrCodeValidationError, nil, "invalid query parameters"))
		return
	}
	params := dto.PaginationParams{Page: q.Page, Limit: q.Limit}
	params.Validate(defaultTaskListPageSize)
	if !dto.LimitValid(params.Limit) {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorEnvelope([]dto.FieldError{{Field: "limit", Message: "must be between 1 and 100"}}))
		return
	}

	assignees := make([]primitive.ObjectID, 0, len(q.Assignee))
	for _, a := range q.Assignee {
		id, err := primitive.ObjectIDFromHex(a)
		if err != nil {
			continue
		}
		assignees = append(assignees, id)
	}

	var dueFrom, dueTo *time.Time
	if q.DueDateFrom != "" {
		if t, err := time.Parse(time.RFC3339, q.DueDateFrom); err == nil {
			dueFrom = &t
		}
	}
	if q.DueDateTo != "" {
		if t, err := time.Parse(time.RFC3339, q.DueDateTo); err == nil {
			dueTo = &t
		}
	}

	filter := port.TaskListFilter{
		Status:   q.Status,
		Assignee: assignees,
		Priority: q.Priority,
		Label:    q.Label,
		Search:   q.Search,
		DueFrom:  dueFrom,
		DueTo:    dueTo,
	}
	if q.IsDeleted {
		filter.IsDeleted = &q.IsDeleted
	}

	sort := parseTaskSort(q.Sort)

	caller, _ := middleware.CurrentUserID(c)
	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), caller, projectID, filter, sort, params.GetOffset(), params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]dto.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, dto.ToTaskResponse(t))
	}

	meta := dto.NewPaginationMeta(params, total)
	c.JSON(http.StatusOK, dto.NewAPIResponseWithPagination(out, &meta))
}

func parseTaskSort(token string) port.TaskListSort {
	if token == "" {
		return port.TaskListSort{Field: "createdAt", Descending: true}
	}
	if token[0] == '-' {
		return port.TaskListSort{Field: token[1:], Descending: true}
	}
	return port.TaskListSort{Field: token, Descending: false}
}

// GetTask handles GET /api/projects/{id}/tasks/{taskId}.
func (h *TaskHandler) GetTask(c *gin.Context) {
	projectID, taskID, ok := pathIDs(c)
	if !ok {
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	task, err := h.taskService.GetTask(c.Request.Context(), caller, projectID, taskID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAPIResponse(dto.ToTaskResponse(task)))
}

// UpdateTask handles PATCH /api/projects/{id}/tasks/{taskId}.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	projectID, taskID, ok := pathIDs(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	patch := service.TaskPatch{
		Title:          req.Title,
		DescriptionSet: req.DescriptionSet,
		Description:    req.Description,
		Priority:       req.Priority,
		DueDateSet:     req.DueDateSet,
		DueDate:        req.DueDate,
		LabelsSet:      req.LabelsSet,
		Labels:         req.Labels,
	}

	task, err := h.taskService.UpdateTaskFields(c.Request.Context(), caller, projectID, taskID, patch)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAPIResponse(dto.ToTaskResponse(task)))
}

// ChangeTaskStatus handles PATCH /api/projects/{id}/tasks/{taskId}/status.
func (h *TaskHandler) ChangeTaskStatus(c *gin.Context) {
	projectID, taskID, ok := pathIDs(c)
	if !ok {
		return
	}

	var req dto.ChangeTaskStatusRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	task, err := h.taskService.ChangeTaskStatus(c.Request.Context(), caller, projectID, taskID, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAPIResponse(dto.ToTaskResponse(task)))
}

// AssignTask handles PATCH /api/projects/{id}/tasks/{taskId}/assignee.
func (h *TaskHandler) AssignTask(c *gin.Context) {
	projectID, taskID, ok := pathIDs(c)
	if !ok {
		return
	}

	var req dto.AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorEnvelopeForCode(dto.ErrCodeValidationError, nil, "malformed request body"))
		return
	}

	var assignee *primitive.ObjectID
	if req.Assignee != nil && *req.Assignee != "" {
		id, err := primitive.ObjectIDFromHex(*req.Assignee)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewValidationErrorEnvelope([]dto.FieldError{{Field: "assignee", Message: "must be a valid id"}}))
			return
		}
		assignee = &id
	}

	caller, _ := middleware.CurrentUserID(c)
	task, err := h.taskService.AssignTask(c.Request.Context(), caller, projectID, taskID, assignee)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAPIResponse(dto.ToTaskResponse(task)))
}

// DeleteTask handles DELETE /api/projects/{id}/tasks/{taskId}.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	projectID, taskID, ok := pathIDs(c)
	if !ok {
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	if err := h.taskService.SoftDeleteTask(c.Request.Context(), caller, projectID, taskID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAPIResponseWithMessage[any](nil, "task deleted"))
}

// ListTaskActivity handles GET /api/projects/{id}/tasks/{taskId}/activity.
func (h *TaskHandler) ListTaskActivity(c *gin.Context) {
	projectID, taskID, ok := pathIDs(c)
	if !ok {
		return
	}

	var q dto.ListActivityQuery
	_ = c.ShouldBindQuery(&q)
	params := dto.PaginationParams{Page: q.Page, Limit: q.Limit}
	params.Validate(defaultTaskActivityPageSize)
	if !dto.LimitValid(params.Limit) {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorEnvelope([]dto.FieldError{{Field: "limit", Message: "must be between 1 and 100"}}))
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	activities, total, err := h.taskService.ListTaskActivity(c.Request.Context(), caller, projectID, taskID, params.GetOffset(), params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.Actor)
	}
	profiles := make(map[string]*port.UserProfile, len(ids))
	for _, id := range ids {
		if _, ok := profiles[id.Hex()]; ok {
			continue
		}
		if p, err := h.profiles.Resolve(c.Request.Context(), id); err == nil {
			profiles[id.Hex()] = p
		}
	}

	out := make([]dto.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, dto.ToActivityResponse(a, profiles))
	}

	meta := dto.NewPaginationMeta(params, total)
	c.JSON(http.StatusOK, dto.NewAPIResponseWithPagination(out, &meta))
}
