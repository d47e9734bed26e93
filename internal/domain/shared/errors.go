package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	// ErrAuthenticationFailed is returned when the webhook signature does not
	// verify against the tenant secret. No state change happens after it.
	ErrAuthenticationFailed = NewDomainError("AUTHENTICATION_FAILED", "Webhook signature verification failed")

	// ErrDuplicateEvent marks an event id that has already been accepted.
	// It is a short-circuit outcome, not a failure.
	ErrDuplicateEvent = NewDomainError("DUPLICATE_EVENT", "Event has already been processed")

	// ErrResolutionFailed is returned when a SKU or object reference cannot
	// be resolved to a non-empty SKU list.
	ErrResolutionFailed = NewDomainError("RESOLUTION_FAILED", "Object reference could not be resolved to SKUs")

	// ErrUnsupportedFamily is returned when a price rule shape matches no
	// promotion family.
	ErrUnsupportedFamily = NewDomainError("UNSUPPORTED_FAMILY", "Price rule shape not recognized by any promotion family")

	// ErrValidationFailed is returned when a required field is missing.
	ErrValidationFailed = NewDomainError("VALIDATION_FAILED", "Required field missing or invalid")

	// ErrConfigurationMissing is returned when tenant configuration cannot be
	// resolved or a sync feature flag is disabled.
	ErrConfigurationMissing = NewDomainError("CONFIGURATION_MISSING", "Tenant configuration missing or sync disabled")

	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
