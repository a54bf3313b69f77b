package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Resource errors
const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors
const (
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField    ErrorCode = "MISSING_FIELD"
	ErrCodeInvalidFormat   ErrorCode = "INVALID_FORMAT"
	ErrCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
)

// Protocol errors
const (
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"
)

// Authentication errors
const (
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Internal errors
const (
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError   ErrorCode = "DATABASE_ERROR"
	ErrCodeStorageError    ErrorCode = "STORAGE_ERROR"
	ErrCodeThumbnailFailed ErrorCode = "THUMBNAIL_FAILED"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:       true,
	ErrCodeDatabaseError: true,
	ErrCodeStorageError:  true,
	ErrCodeRateLimited:   true,
}

// IsRetryableCode reports whether a client may retry a request that failed
// with code.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
