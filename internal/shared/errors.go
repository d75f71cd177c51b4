package shared

import "errors"

var (
	// ErrNotFound indicates a product, client or sale absent or outside the tenant scope.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates a role-gated mutation attempted without the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput indicates a malformed quantity, cost or total.
	ErrInvalidInput = errors.New("invalid input")
)

// UserSafeMessage renders an error message safe to surface to API consumers.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrForbidden):
		return "You are not allowed to perform this operation."
	case errors.Is(err, ErrInvalidInput):
		return "The submitted values are invalid."
	default:
		return "The operation could not be completed."
	}
}
