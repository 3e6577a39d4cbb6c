package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrUnauthorized       ErrCode = "UNAUTHORIZED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation       ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload   ErrCode = "INVALID_PAYLOAD"
	ErrMissingUID       ErrCode = "MISSING_UID"
	ErrMissingEmail     ErrCode = "MISSING_EMAIL"
	ErrPasswordTooShort ErrCode = "PASSWORD_TOO_SHORT"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrUserNotFound ErrCode = "USER_NOT_FOUND"
	ErrEmailExists  ErrCode = "EMAIL_EXISTS"
	ErrUIDTaken     ErrCode = "UID_TAKEN"
	ErrLastAdmin    ErrCode = "LAST_ADMIN"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid credentials."
	case ErrUnauthorized:
		return "Unauthorized: Provide a valid Bearer token or X-API-Secret"
	case ErrTokenInvalid:
		return "Invalid or expired authentication token."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrMissingUID:
		return "User UID is required"
	case ErrMissingEmail:
		return "Email is required"
	case ErrPasswordTooShort:
		return "Password must be at least 6 characters"
	case ErrUserNotFound:
		return "User not found"
	case ErrEmailExists:
		return "An account with this email already exists"
	case ErrUIDTaken:
		return "The requested UID is already in use"
	case ErrLastAdmin:
		return "Cannot delete the last admin account"
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
