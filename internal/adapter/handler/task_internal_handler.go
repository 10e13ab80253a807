package handler

import (
	"context"
	"net/http"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/service"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskInternalHandler serves the Task service's side of the archive
// cascade (spec §9 Open Question #1, resolved in SPEC_FULL §3): the
// Project service calls this when a project transitions to archived.
type TaskInternalHandler struct {
	taskService *service.TaskService
}

func NewTaskInternalHandler(taskService *service.TaskService) *TaskInternalHandler {
	return &TaskInternalHandler{taskService: taskService}
}

// ArchiveProjectTasks handles POST /internal/projects/{id}/archive-tasks.
// It acknowledges immediately and archives in the background: the caller
// only needs confirmation the cascade was accepted, not that every task
// finished transitioning.
func (h *TaskInternalHandler) ArchiveProjectTasks(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}

	go h.taskService.ArchiveProjectTasks(context.Background(), projectID)

	c.JSON(http.StatusOK, gin.H{"success": true})
}
