package submission

import "fmt"

// Kind classifies why a submission stopped
type Kind string

const (
	KindMissingFields      Kind = "MissingFields"
	KindRejected           Kind = "Rejected"
	KindVerificationFailed Kind = "VerificationFailed"
	KindUploadFailed       Kind = "UploadFailed"
	KindPersistFailed      Kind = "PersistFailed"
	KindCanceled           Kind = "Canceled"
)

// Error carries a user-facing message; Err holds the underlying cause
type Error struct {
	Kind    Kind
	Message string
	Err     error
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

const (
	msgMissingFields      = "Please fill all required fields"
	msgRejected           = "Photo and description don't match"
	msgVerificationFailed = "Something went wrong"
	msgUploadFailed       = "Failed to upload image"
	msgPersistFailed      = "Submission failed"
	msgCanceled           = "Submission canceled"
)
