package dto

// Error codes, spec §7. These are part of the API contract.
const (
	ErrCodeUnauthorized             = "UNAUTHORIZED"
	ErrCodeForbidden                = "FORBIDDEN"
	ErrCodeNotFound                 = "NOT_FOUND"
	ErrCodeValidationError          = "VALIDATION_ERROR"
	ErrCodeInvalidStatusTransition  = "INVALID_STATUS_TRANSITION"
	ErrCodeAssigneeNotProjectMember = "ASSIGNEE_NOT_PROJECT_MEMBER"
	ErrCodeDuplicateResource        = "DUPLICATE_RESOURCE"
	ErrCodeInternalError            = "INTERNAL_ERROR"

	// ErrCodePageNotFound covers routes unmatched by either service's
	// router (gin's NoRoute handler), not part of the §7 taxonomy proper.
	ErrCodePageNotFound = "PAGE_NOT_FOUND"
)

// ErrorMessages holds the default message for each code; handlers may
// override with a more specific message (e.g. naming the attempted
// transition).
var ErrorMessages = map[string]string{
	ErrCodeUnauthorized:             "authentication required",
	ErrCodeForbidden:                "you do not have permission to perform this action",
	ErrCodeNotFound:                 "resource not found",
	ErrCodeValidationError:          "validation failed",
	ErrCodeInvalidStatusTransition:  "invalid status transition",
	ErrCodeAssigneeNotProjectMember: "assignee is not a member of this project",
	ErrCodeDuplicateResource:        "resource already exists",
	ErrCodeInternalError:            "internal server error",
	ErrCodePageNotFound:             "page not found",
}

// NewErrorEnvelopeForCode builds an ErrorEnvelope from code, substituting
// the default message unless a non-empty override is given.
func NewErrorEnvelopeForCode(code string, details any, customMessage ...string) *ErrorEnvelope {
	message := ErrorMessages[code]
	if len(customMessage) > 0 && customMessage[0] != "" {
		message = customMessage[0]
	}
	return NewErrorEnvelope(code, message, details)
}

// FieldError is one entry in a VALIDATION_ERROR's details array.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidationErrorEnvelope builds a VALIDATION_ERROR envelope carrying
// per-field details.
func NewValidationErrorEnvelope(fields []FieldError) *ErrorEnvelope {
	return NewErrorEnvelopeForCode(ErrCodeValidationError, fields)
}
