package services

import (
	"errors"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// ErrorKind is the short, log-friendly name of an error marker.
type ErrorKind string

const (
	KindExternalTool  ErrorKind = "external_tool"
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindTimeout       ErrorKind = "timeout"
	KindTransient     ErrorKind = "transient"
	KindUnknown       ErrorKind = "unknown"
)

// serviceError carries the structured context assembled by Wrap. It unwraps to
// both the marker and the cause so errors.Is matches either.
type serviceError struct {
	marker    error
	stage     string
	operation string
	message   string
	hint      string
	cause     error
}

func (e *serviceError) Error() string {
	detail := buildDetail(e.stage, e.operation, e.message)
	if e.cause != nil {
		return e.marker.Error() + ": " + detail + ": " + e.cause.Error()
	}
	return e.marker.Error() + ": " + detail
}

func (e *serviceError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.marker}
	}
	return []error{e.marker, e.cause}
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &serviceError{
		marker:    marker,
		stage:     strings.TrimSpace(stage),
		operation: strings.TrimSpace(operation),
		message:   strings.TrimSpace(message),
		cause:     err,
	}
}

// WithHint attaches an operator hint to an error produced by Wrap. Other errors
// are returned unchanged.
func WithHint(err error, hint string) error {
	var svcErr *serviceError
	if !errors.As(err, &svcErr) {
		return err
	}
	svcErr.hint = strings.TrimSpace(hint)
	return err
}

// ErrorDetails is the structured view of a stage error used for logging and
// persisted failure messages.
type ErrorDetails struct {
	Kind      ErrorKind
	Stage     string
	Operation string
	Message   string
	Hint      string
	Cause     error
}

// Details extracts structured context from err. Errors that did not pass
// through Wrap still get a kind derived from the markers they match.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Kind: KindUnknown}
	}
	details := ErrorDetails{Kind: kindOf(err)}
	var svcErr *serviceError
	if errors.As(err, &svcErr) {
		details.Stage = svcErr.stage
		details.Operation = svcErr.operation
		details.Message = svcErr.message
		details.Hint = svcErr.hint
		details.Cause = svcErr.cause
		if details.Cause != nil && details.Message != "" {
			details.Message = details.Message + ": " + details.Cause.Error()
		} else if details.Cause != nil {
			details.Message = details.Cause.Error()
		}
	}
	if details.Message == "" {
		details.Message = err.Error()
	}
	if details.Hint == "" {
		details.Hint = defaultHint(details.Kind)
	}
	return details
}

func kindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrExternalTool):
		return KindExternalTool
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindUnknown
	}
}

func defaultHint(kind ErrorKind) string {
	switch kind {
	case KindExternalTool:
		return "check that the external tool is installed and review its output in the job log"
	case KindValidation:
		return "inspect the job artifacts; the input may be unsupported"
	case KindConfiguration:
		return "run 'ytbili config validate' and fix the reported setting"
	case KindNotFound:
		return "confirm the source video still exists and the job directory was not removed"
	case KindTimeout:
		return "raise the relevant timeout_seconds setting or retry the job"
	case KindTransient:
		return "retry the job with 'ytbili queue retry'"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
