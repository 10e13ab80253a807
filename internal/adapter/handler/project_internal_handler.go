package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dhanuprys/infrantery-backend-go/internal/core/service"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectInternalHandler serves the service-to-service endpoints the Task
// service's client adapters call (spec §4.4): role lookups for the
// permission bridge and the task-count rollup receiver.
type ProjectInternalHandler struct {
	projectService *service.ProjectService
}

func NewProjectInternalHandler(projectService *service.ProjectService) *ProjectInternalHandler {
	return &ProjectInternalHandler{projectService: projectService}
}

// GetMemberRole handles GET /internal/projects/{id}/members/{userId}.
func (h *ProjectInternalHandler) GetMemberRole(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}

	// The looked-up user is passed to GetProject as the caller, so its
	// membership check answers the question: ErrProjectAccessDenied means
	// the user is not an active member and is reported as such. This is
	// an internal endpoint, protected by middleware.InternalAuth instead
	// of the public RequireAuth chain.
	project, err := h.projectService.GetProject(c.Request.Context(), userID, projectID)
	if err != nil {
		if err == service.ErrProjectNotFound {
			c.JSON(http.StatusNotFound, gin.H{"success": false})
			return
		}
		if err == service.ErrProjectAccessDenied {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    gin.H{"role": "", "isMember": false},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"role":     project.Role(userID),
			"isMember": project.IsMember(userID),
		},
	})
}

type taskCountsPayload struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// ReportTaskCounts handles POST /internal/projects/{id}/task-counts.
func (h *ProjectInternalHandler) ReportTaskCounts(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}

	var payload taskCountsPayload
	if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	if err := h.projectService.ReportTaskCounts(c.Request.Context(), projectID, payload.Total, payload.Completed); err != nil {
		if err == service.ErrProjectNotFound {
			c.JSON(http.StatusNotFound, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
