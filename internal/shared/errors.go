package shared

import "errors"

var (
	// ErrUnauthorized indicates no authenticated principal is present.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the principal lacks a required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the record does not exist or belongs to another
	// organization. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates malformed input to a calculation or action.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps internal errors to messages safe to return to clients.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "Authentication required"
	case errors.Is(err, ErrForbidden):
		return err.Error()
	case errors.Is(err, ErrNotFound):
		return "Record not found"
	case errors.Is(err, ErrInvalidArgument):
		return err.Error()
	default:
		return "Something went wrong, please try again"
	}
}
