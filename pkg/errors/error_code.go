package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

// Category groups error codes by how a failure must be handled.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryValidation  Category = "validation"
	CategoryData        Category = "data"
	CategoryInvariant   Category = "invariant"
	CategoryOperational Category = "operational"
)

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeUnsupportedStrategy  ErrorCode = 120
	ErrCodeInvalidProvider      ErrorCode = 121

	// Data errors (200-299)
	ErrCodeDataNotFound        ErrorCode = 200
	ErrCodeDuplicateIndex      ErrorCode = 210
	ErrCodeNotExactlyOneSource ErrorCode = 211
	ErrCodeEmptyResponse       ErrorCode = 212
	ErrCodeProviderError       ErrorCode = 213
	ErrCodeMalformedPayload    ErrorCode = 214
	ErrCodeMissingColumn       ErrorCode = 215
	ErrCodeLengthMismatch      ErrorCode = 216
	ErrCodeFetchFailed         ErrorCode = 220

	// Invariant errors (900-999)
	ErrCodeNegativeBalance     ErrorCode = 900
	ErrCodeLimitOutOfBounds    ErrorCode = 901
	ErrCodeUnsupportedInterval ErrorCode = 902
	ErrCodeUnsupportedEncoding ErrorCode = 903
	ErrCodeInvalidOrderState   ErrorCode = 904

	// Operational errors (1000-1099)
	ErrCodeLockFailed ErrorCode = 1000
	ErrCodeCacheIO    ErrorCode = 1001
	ErrCodeJobTimeout ErrorCode = 1002
)

// Category maps the code's range onto its category.
func (c ErrorCode) Category() Category {
	switch {
	case c >= 100 && c < 200:
		return CategoryValidation
	case c >= 200 && c < 300:
		return CategoryData
	case c >= 900 && c < 1000:
		return CategoryInvariant
	case c >= 1000 && c < 1100:
		return CategoryOperational
	default:
		return CategoryGeneral
	}
}
