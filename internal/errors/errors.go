package errors

import "errors"

// Common application errors for type-safe error handling.
// These errors can be checked using errors.Is() instead of string comparison.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal server error")
)

// User-facing rejections. The operation is a no-op and the message is shown
// to the user as a notice.
var (
	ErrRouteTooShort        = errors.New("at least two photos are needed to draw a route")
	ErrDuplicateShare       = errors.New("this photo has already been shared")
	ErrEmptyComment         = errors.New("comment cannot be empty")
	ErrConfirmationRequired = errors.New("clearing all photos must be confirmed")
	ErrUploadInProgress     = errors.New("an upload is already in progress")
	ErrNoSelection          = errors.New("select a photo first")
	ErrUnknownView          = errors.New("unknown view mode")
)

var notices = []error{
	ErrRouteTooShort,
	ErrDuplicateShare,
	ErrEmptyComment,
	ErrConfirmationRequired,
	ErrUploadInProgress,
	ErrNoSelection,
	ErrUnknownView,
}

// IsNotice reports whether err is a user-facing rejection rather than a failure.
func IsNotice(err error) bool {
	for _, n := range notices {
		if errors.Is(err, n) {
			return true
		}
	}
	return false
}
