package apperrors

import "net/http"

// AppError is a domain error that knows the HTTP status it should be
// rendered with. Controllers pass these straight to utils.RespondAppError.
type AppError struct {
	Code    string
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches errors by code, so a WithMessage copy still compares equal to
// its sentinel under errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// WithMessage returns a copy of the error with a more specific message,
// keeping the code and status intact.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{Code: e.Code, Status: e.Status, Message: msg}
}

var (
	// ErrForbidden -> the principal's role lacks the required permission.
	// Never downgraded; the UI uses it to hide or redirect.
	ErrForbidden = &AppError{
		Code:    "FORBIDDEN",
		Status:  http.StatusForbidden,
		Message: "you do not have permission to perform this action",
	}

	// ErrInvalidTransition -> the table or order state machine rejected the
	// requested move. State is left unchanged.
	ErrInvalidTransition = &AppError{
		Code:    "INVALID_TRANSITION",
		Status:  http.StatusConflict,
		Message: "requested status change is not allowed from the current status",
	}

	// ErrNotAMember -> principal tried to activate a restaurant they do not
	// belong to.
	ErrNotAMember = &AppError{
		Code:    "NOT_A_MEMBER",
		Status:  http.StatusForbidden,
		Message: "you are not a member of this restaurant",
	}

	// ErrSessionClosed -> a cart write arrived for a session that has already
	// been committed or discarded. The caller starts a fresh session.
	ErrSessionClosed = &AppError{
		Code:    "SESSION_CLOSED",
		Status:  http.StatusGone,
		Message: "this cart session is closed, please rejoin the table",
	}

	// ErrEmptyCart -> commit attempted on a cart with no surviving items.
	ErrEmptyCart = &AppError{
		Code:    "EMPTY_CART",
		Status:  http.StatusUnprocessableEntity,
		Message: "cannot commit an empty cart",
	}

	// ErrAlreadyCommitting -> a second commit raced an in-flight one on the
	// same session. Exactly one order is ever created.
	ErrAlreadyCommitting = &AppError{
		Code:    "ALREADY_COMMITTING",
		Status:  http.StatusConflict,
		Message: "this cart is already being committed",
	}

	ErrNotFound = &AppError{
		Code:    "NOT_FOUND",
		Status:  http.StatusNotFound,
		Message: "record not found",
	}

	ErrUnauthorized = &AppError{
		Code:    "UNAUTHORIZED",
		Status:  http.StatusUnauthorized,
		Message: "authentication required",
	}
)
