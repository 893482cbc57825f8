package errors

const (
	HttpInternalError  = "internal_error"
	HttpInvalidParams  = "invalid_params"
	HttpStoreNotFound  = "store_not_found"
	HttpStagingError   = "staging_write_failed"
	HttpDuplicateError = "duplicate_record"
)

// ErrorResponse is the error response body for all API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
