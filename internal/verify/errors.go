package verify

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every way a verification can fail
type Kind string

const (
	KindInvalidRequest Kind = "InvalidRequest"
	KindConfiguration  Kind = "ConfigurationError"
	KindUpstreamFetch  Kind = "UpstreamFetchError"
	KindInvalidImage   Kind = "InvalidImage"
	KindInternal       Kind = "Internal"
)

// Error is the only error type Service.Verify returns
type Error struct {
	Kind    Kind
	Message string
	// UpstreamStatus is the image host's status code, 0 when no response arrived.
	UpstreamStatus int
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to the gateway's response status
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidRequest, KindUpstreamFetch, KindInvalidImage:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AsError extracts a *Error from err, wrapping unknown errors as internal
func AsError(err error) *Error {
	var verr *Error
	if errors.As(err, &verr) {
		return verr
	}
	return &Error{Kind: KindInternal, Message: "Server error", Err: err}
}

const (
	msgMissingFields = "imageUrl and text are required"
	msgFetchFailed   = "Failed to fetch image from URL"
	msgImageTooSmall = "Image seems invalid or corrupted"
	msgImageTooLarge = "Image is too large"
	msgServerError   = "Server error"
)
