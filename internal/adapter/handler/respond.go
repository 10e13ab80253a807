package handler

import (
	"errors"
	"net/http"

	"github.com/dhanuprys/infrantery-backend-go/internal/adapter/dto"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/port"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/service"
	"github.com/dhanuprys/infrantery-backend-go/pkg/logger"
	"github.com/dhanuprys/infrantery-backend-go/pkg/validation"
	"github.com/gin-gonic/gin"
)

// bindAndValidate binds the JSON body into req and runs struct
// validation, writing the VALIDATION_ERROR envelope itself on failure.
// Returns false when the handler should stop.
func bindAndValidate(c *gin.Context, ve *validation.ValidationEngine, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorEnvelopeForCode(dto.ErrCodeValidationError, nil, "malformed request body"))
		return false
	}
	if fields := ve.ValidateStruct(req); fields != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorEnvelope(toFieldErrors(*fields)))
		return false
	}
	return true
}

func toFieldErrors(raw []map[string]string) []dto.FieldError {
	out := make([]dto.FieldError, 0, len(raw))
	for _, m := range raw {
		for field, message := range m {
			out = append(out, dto.FieldError{Field: field, Message: message})
		}
	}
	return out
}

// writeError maps a service-layer error to the §7 taxonomy and writes
// the envelope. Unrecognized errors are logged and surfaced as
// INTERNAL_ERROR, never leaking internal detail to the caller.
func writeError(c *gin.Context, err error) {
	status, code, message := classifyError(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled service error")
	}
	c.JSON(status, dto.NewErrorEnvelopeForCode(code, nil, message))
}

func classifyError(err error) (status int, code string, message string) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrInvitationCodeNotFound),
		errors.Is(err, service.ErrTaskNotFound):
		return http.StatusNotFound, dto.ErrCodeNotFound, ""

	case errors.Is(err, service.ErrProjectAccessDenied):
		return http.StatusForbidden, dto.ErrCodeForbidden, "you are not a member of this project"

	case errors.Is(err, service.ErrInsufficientPermission):
		return http.StatusForbidden, dto.ErrCodeForbidden, ""

	case errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrAlreadyInvited),
		errors.Is(err, service.ErrMemberLimitReached):
		return http.StatusConflict, dto.ErrCodeDuplicateResource, err.Error()

	case errors.Is(err, service.ErrCannotRemoveCreator):
		return http.StatusForbidden, dto.ErrCodeForbidden, err.Error()

	case errors.Is(err, service.ErrCreatorCannotLeave):
		return http.StatusBadRequest, dto.ErrCodeValidationError, err.Error()

	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrTaskWriteConflict):
		return http.StatusConflict, dto.ErrCodeInternalError, "could not complete the update, please retry"

	case errors.Is(err, service.ErrAssigneeNotProjectMember):
		return http.StatusBadRequest, dto.ErrCodeAssigneeNotProjectMember, ""

	case errors.Is(err, service.ErrInvalidStatusTransition):
		return http.StatusBadRequest, dto.ErrCodeInvalidStatusTransition, err.Error()

	case errors.Is(err, port.ErrProfileNotFound):
		return http.StatusNotFound, dto.ErrCodeNotFound, "user not found"

	default:
		return http.StatusInternalServerError, dto.ErrCodeInternalError, ""
	}
}
