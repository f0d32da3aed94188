package mapping

import (
	"errors"
	"fmt"
)

// Dispatch failure codes recorded on ERROR deliveries.
const (
	CodeMapperNotFound      = "MAPPER_NOT_FOUND"
	CodeRouteMismatch       = "MAPPER_ROUTE_MISMATCH"
	CodeMissingField        = "MISSING_DESTINATION_FIELD"
	CodeInvalidPayload      = "INVALID_PAYLOAD"
	CodeDestinationDown     = "DESTINATION_UNREACHABLE"
	CodeDestinationHTTP     = "DESTINATION_HTTP_ERROR"
	CodeDispatchUnspecified = "DISPATCH_ERROR"
)

const maxErrorBody = 2048

// DispatchError is the typed failure raised by mappers and the orchestrator.
type DispatchError struct {
	Code    string
	Message string
	// Status and Body are set when the destination answered with a non-2xx status.
	Status int
	Body   string
	// MappedPayload is the outbound body when the failure happened after mapping.
	MappedPayload any
	cause         error
}

func (e *DispatchError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *DispatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Details renders the diagnostic detail stored next to the message.
func (e *DispatchError) Details() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Status != 0:
		return fmt.Sprintf("status=%d body=%s", e.Status, truncate(e.Body, maxErrorBody))
	case e.cause != nil:
		return e.cause.Error()
	}
	return ""
}

// AsDispatchError extracts a DispatchError from err, wrapping foreign errors.
func AsDispatchError(err error) *DispatchError {
	if err == nil {
		return nil
	}
	var de *DispatchError
	if errors.As(err, &de) {
		return de
	}
	return &DispatchError{Code: CodeDispatchUnspecified, Message: err.Error(), cause: err}
}

func missingField(platform, name string) *DispatchError {
	return &DispatchError{
		Code:    CodeMissingField,
		Message: fmt.Sprintf("missing destination field %q for %s", name, platform),
	}
}

// InvalidPayload reports an inbound payload the mapper cannot read.
func InvalidPayload(platform string, err error) *DispatchError {
	return &DispatchError{
		Code:    CodeInvalidPayload,
		Message: fmt.Sprintf("%s mapper: invalid payload: %v", platform, err),
		cause:   err,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
