package analyzer

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind categorizes an analysis failure.
type ErrorKind string

const (
	// KindConfig indicates the backend is missing its credential or settings.
	KindConfig ErrorKind = "config"

	// KindAuth indicates the provider rejected the credential.
	KindAuth ErrorKind = "auth"

	// KindTransport indicates a network failure reaching the backend.
	KindTransport ErrorKind = "transport"

	// KindProvider indicates the provider or backend reported a failure.
	KindProvider ErrorKind = "provider"

	// KindValidation indicates a bad request, such as a missing image.
	KindValidation ErrorKind = "validation"
)

// FallbackMessage is shown when a failure carries no usable message.
const FallbackMessage = "Something went wrong while analyzing the image. Please try again."

// Error is an analysis failure with a message fit for the user.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus is the status the backend answers with for this failure.
func (e *Error) HTTPStatus() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the text shown to the user for err: the message of an
// *Error when it has one, the fallback otherwise.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return FallbackMessage
}

// HTTPStatus maps any error to a backend response status.
func HTTPStatus(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.HTTPStatus()
	}
	return http.StatusInternalServerError
}
