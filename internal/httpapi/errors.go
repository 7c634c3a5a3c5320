package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"permitdesk.org/internal/auth"
	"permitdesk.org/internal/obs"
	"permitdesk.org/internal/permits"
	"permitdesk.org/internal/store"
)

// Error codes carried in error.code.
const (
	CodeUnauthenticated       = "Unauthenticated"
	CodeInsufficientRole      = "InsufficientRole"
	CodeInsufficientOwnership = "InsufficientOwnership"
	CodeNotFound              = "NotFound"
	CodeUniqueViolation       = "UniqueConstraintViolation"
	CodeValidation            = "ValidationError"
	CodeForeignKeyViolation   = "ForeignKeyViolation"
	CodeRateLimited           = "RateLimited"
	CodeMethodNotAllowed      = "MethodNotAllowed"
	CodeUnavailable           = "ServiceUnavailable"
	CodeInternal              = "InternalError"
)

type apiFailure struct {
	Status  int
	Code    string
	Message string
	Details any
}

// requestError is a malformed body or query string.
type requestError struct {
	msg     string
	details any
}

func (e *requestError) Error() string { return e.msg }

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// classifyError is the single mapping from domain and store failures to
// HTTP status and error code.
func classifyError(err error, development bool) apiFailure {
	var reqErr *requestError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &reqErr):
		return apiFailure{http.StatusBadRequest, CodeValidation, reqErr.msg, reqErr.details}
	case errors.As(err, &verrs):
		return apiFailure{http.StatusBadRequest, CodeValidation, "Validation failed", fieldErrors(verrs)}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apiFailure{http.StatusUnauthorized, CodeUnauthenticated, "Invalid credentials", nil}
	case errors.Is(err, auth.ErrInvalidToken):
		return apiFailure{http.StatusUnauthorized, CodeUnauthenticated, "Invalid or expired token", nil}
	case errors.Is(err, auth.ErrUnauthenticated):
		return apiFailure{http.StatusUnauthorized, CodeUnauthenticated, "Authentication required", nil}
	case errors.Is(err, auth.ErrInsufficientRole):
		return apiFailure{http.StatusForbidden, CodeInsufficientRole, "Insufficient role for this operation", nil}
	case errors.Is(err, auth.ErrInsufficientOwnership):
		return apiFailure{http.StatusForbidden, CodeInsufficientOwnership, "You do not have permission to access this application", nil}
	case errors.Is(err, permits.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return apiFailure{http.StatusNotFound, CodeNotFound, "Resource not found", nil}
	case errors.Is(err, auth.ErrEmailTaken):
		return apiFailure{http.StatusConflict, CodeUniqueViolation, "User with this email already exists", nil}
	case errors.Is(err, store.ErrUniqueViolation):
		return apiFailure{http.StatusConflict, CodeUniqueViolation, "Resource already exists", nil}
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, permits.ErrInvalidInput):
		return apiFailure{http.StatusBadRequest, CodeValidation, err.Error(), nil}
	case errors.Is(err, store.ErrInvalidData):
		return apiFailure{http.StatusBadRequest, CodeValidation, "Invalid data", nil}
	case errors.Is(err, store.ErrForeignKeyViolation):
		return apiFailure{http.StatusBadRequest, CodeForeignKeyViolation, "Referenced record does not exist", nil}
	}
	f := apiFailure{http.StatusInternalServerError, CodeInternal, "Internal server error", nil}
	if development && err != nil {
		f.Details = err.Error()
	}
	return f
}

// handleError renders err and logs failures the client cannot act on.
func (a *API) handleError(w http.ResponseWriter, r *http.Request, err error) {
	f := classifyError(err, a.opts.Development)
	if f.Status >= http.StatusInternalServerError {
		obs.Error("request_failed", err, map[string]any{
			"request_id": RequestIDFromContext(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		})
	}
	writeFailure(w, r, f)
}

func fieldErrors(verrs validator.ValidationErrors) []fieldError {
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "notblank":
		return fe.Field() + " must not be blank"
	default:
		return fe.Field() + " is invalid"
	}
}
