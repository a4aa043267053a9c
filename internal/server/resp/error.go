package resp

// Gateway error codes. All denials are 401 except quota (429) and
// internal faults (500).
const (
	CodeMissingKey = "ct-0001"
	CodeInvalidKey = "ct-0002"
	CodeDenied     = "ct-0003"
	CodeInternal   = "ct-0500"
)

const (
	ErrMissingKey     = "missing key"
	ErrInvalidKey     = "invalid key"
	ErrNoPermission   = "insufficient permission"
	ErrQuotaExceeded  = "quota exceeded"
	ErrValidation     = "Input validation failed"
	ErrInternalServer = "An unexpected error occurred"
)
