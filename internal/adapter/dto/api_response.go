package dto

// APIResponse is the uniform envelope every handler returns, spec §6.
type APIResponse[T any] struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message,omitempty"`
	Data       T               `json:"data,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// ErrorEnvelope is the uniform error response shape, spec §6.
type ErrorEnvelope struct {
	Success bool          `json:"success"`
	Error   *ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewAPIResponse wraps data with success=true and no message.
func NewAPIResponse[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Success: true, Data: data}
}

// NewAPIResponseWithMessage wraps data with an accompanying message.
func NewAPIResponseWithMessage[T any](data T, message string) *APIResponse[T] {
	return &APIResponse[T]{Success: true, Message: message, Data: data}
}

// NewAPIResponseWithPagination wraps a page of data with pagination meta.
func NewAPIResponseWithPagination[T any](data T, pagination *PaginationMeta) *APIResponse[T] {
	return &APIResponse[T]{Success: true, Data: data, Pagination: pagination}
}

// NewErrorEnvelope builds the error envelope for code/message, with
// optional details (validation field errors, transition names, etc).
func NewErrorEnvelope(code, message string, details any) *ErrorEnvelope {
	return &ErrorEnvelope{
		Success: false,
		Error: &ErrorPayload{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
