package handler

import (
	"net/http"

	"github.com/dhanuprys/infrantery-backend-go/internal/adapter/dto"
	"github.com/dhanuprys/infrantery-backend-go/internal/adapter/middleware"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/domain"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/service"
	"github.com/dhanuprys/infrantery-backend-go/pkg/logger"
	"github.com/dhanuprys/infrantery-backend-go/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultProjectPageSize = 20

type ProjectHandler struct {
	projectService *service.ProjectService
	profiles       port.ProfileResolver
	validator      *validation.ValidationEngine
}

func NewProjectHandler(projectService *service.ProjectService, profiles port.ProfileResolver, validator *validation.ValidationEngine) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		profiles:       profiles,
		validator:      validator,
	}
}

// resolveProfiles resolves a set of member/actor ids into display
// profiles for response enrichment, ignoring lookups that fail so a
// single stale id never fails the whole response.
func (h *ProjectHandler) resolveProfiles(c *gin.Context, ids []primitive.ObjectID) map[string]*port.UserProfile {
	out := make(map[string]*port.UserProfile, len(ids))
	for _, id := range ids {
		if _, ok := out[id.Hex()]; ok {
			continue
		}
		profile, err := h.profiles.Resolve(c.Request.Context(), id)
		if err != nil {
			continue
		}
		out[id.Hex()] = profile
	}
	return out
}

func memberIDs(members []domain.Member) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
		if m.InvitedBy != nil {
			ids = append(ids, *m.InvitedBy)
		}
	}
	return ids
}

// CreateProject handles POST /api/projects.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	project, err := h.projectService.CreateProject(c.Request.Context(), caller, req.Name, req.Description, req.IsPublic, req.AllowMemberInvite, req.MaxMembers)
	if err != nil {
		writeError(c, err)
		return
	}

	logger.Info().Str("project_id", project.ID.Hex()).Str("user_id", logger.SanitizeUserID(caller.Hex())).Msg("project created")

	profiles := h.resolveProfiles(c, memberIDs(project.Members))
	c.JSON(http.StatusCreated, dto.NewAPIResponse(dto.ToProjectDetailResponse(project, caller, profiles)))
}

// ListProjects handles GET /api/projects.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	var q dto.ListProjectsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorEnvelopeForCode(dto.ErrCodeValidationError, nil, "invalid query parameters"))
		return
	}
	params := dto.PaginationParams{Page: q.Page, Limit: q.Limit}
	params.Validate(defaultProjectPageSize)
	if !dto.LimitValid(params.Limit) {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorEnvelope([]dto.FieldError{{Field: "limit", Message: "must be between 1 and 100"}}))
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	filter := port.ProjectListFilter{
		Search:      q.Search,
		Status:      q.Status,
		InvitedOnly: q.InvitedOnly,
		Sort:        q.Sort,
	}

	projects, total, err := h.projectService.ListUserProjects(c.Request.Context(), caller, filter, params.GetOffset(), params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]dto.ProjectSummaryResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, dto.ToProjectSummaryResponse(p, caller))
	}

	meta := dto.NewPaginationMeta(params, total)
	c.JSON(http.StatusOK, dto.NewAPIResponseWithPagination(out, &meta))
}

// GetProject handles GET /api/projects/{id}.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	project, err := h.projectService.GetProject(c.Request.Context(), caller, projectID)
	if err != nil {
		writeError(c, err)
		return
	}

	profiles := h.resolveProfiles(c, memberIDs(project.Members))
	c.JSON(http.StatusOK, dto.NewAPIResponse(dto.ToProjectDetailResponse(project, caller, profiles)))
}

// UpdateProject handles PUT /api/projects/{id}.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return
	}

	var req dto.UpdateProjectRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	patch := service.ProjectPatch{
		Name:              req.Name,
		Description:       req.Description,
		Status:            req.Status,
		IsPublic:          req.IsPublic,
		AllowMemberInvite: req.AllowMemberInvite,
		MaxMembersSet:     req.MaxMembersSet,
		MaxMembers:        req.MaxMembers,
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), caller, projectID, patch)
	if err != nil {
		writeError(c, err)
		return
	}

	profiles := h.resolveProfiles(c, memberIDs(project.Members))
	c.JSON(http.StatusOK, dto.NewAPIResponse(dto.ToProjectDetailResponse(project, caller, profiles)))
}

// DeleteProject handles DELETE /api/projects/{id}.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	if err := h.projectService.DeleteProject(c.Request.Context(), caller, projectID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAPIResponseWithMessage[any](nil, "project deleted"))
}

// InviteMember handles POST /api/projects/{id}/invite.
func (h *ProjectHandler) InviteMember(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return
	}

	var req dto.InviteMemberRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	var userID *primitive.ObjectID
	if req.UserID != "" {
		id, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewValidationErrorEnvelope([]dto.FieldError{{Field: "userId", Message: "must be a valid id"}}))
			return
		}
		userID = &id
	}

	caller, _ := middleware.CurrentUserID(c)
	if err := h.projectService.InviteMember(c.Request.Context(), caller, projectID, req.Email, userID, req.Role); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAPIResponseWithMessage[any](nil, "invitation sent"))
}

// JoinByCode handles POST /api/projects/join/{invitationCode}.
func (h *ProjectHandler) JoinByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorEnvelope([]dto.FieldError{{Field: "code", Message: "invitation code is required"}}))
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	callerEmail := middleware.CurrentUserEmail(c)

	projectID, err := h.projectService.JoinByCode(c.Request.Context(), caller, callerEmail, code)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAPIResponse(gin.H{"projectId": projectID.Hex()}))
}

// ListMembers handles GET /api/projects/{id}/members.
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return
	}

	var q dto.ListMembersQuery
	_ = c.ShouldBindQuery(&q)

	caller, _ := middleware.CurrentUserID(c)
	members, err := h.projectService.ListMembers(c.Request.Context(), caller, projectID, q.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	profiles := h.resolveProfiles(c, memberIDs(members))
	out := make([]dto.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, dto.ToMemberResponse(m, profiles))
	}
	c.JSON(http.StatusOK, dto.NewAPIResponse(out))
}

// UpdateMemberRole handles PUT /api/projects/{id}/members/{memberId}/role.
func (h *ProjectHandler) UpdateMemberRole(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return
	}
	targetUserID, err := primitive.ObjectIDFromHex(c.Param("memberId"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return
	}

	var req dto.UpdateMemberRoleRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	if err := h.projectService.UpdateMemberRole(c.Request.Context(), caller, projectID, targetUserID, req.Role); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAPIResponseWithMessage[any](nil, "member role updated"))
}

// RemoveMember handles DELETE /api/projects/{id}/members/{memberId}.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return
	}
	targetUserID, err := primitive.ObjectIDFromHex(c.Param("memberId"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	if err := h.projectService.RemoveMember(c.Request.Context(), caller, projectID, targetUserID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAPIResponseWithMessage[any](nil, "member removed"))
}

// LeaveProject handles POST /api/projects/{id}/leave.
func (h *ProjectHandler) LeaveProject(c *gin.Context) {
	projectID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodeNotFound, nil))
		return
	}

	caller, _ := middleware.CurrentUserID(c)
	if err := h.projectService.LeaveProject(c.Request.Context(), caller, projectID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAPIResponseWithMessage[any](nil, "left project"))
}
