// Package errs defines the error taxonomy of the corpus survey pipeline.
//
// Transport and rate-limit failures are retriable; a rate-limit error is
// distinguished so callers can wait for the advertised quota reset instead
// of applying the generic backoff. Duplicate-document errors signal an
// upstream data contract violation and are never retried.
package errs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind categorizes an error.
type Kind int

const (
	// KindTransport - network or HTTP failure, safe to retry.
	KindTransport Kind = iota
	// KindRateLimit - API quota exhaustion, retry after the reset.
	KindRateLimit
	// KindDuplicateDocument - two tree entries mapped to one identifier.
	KindDuplicateDocument
	// KindConfig - missing or invalid configuration.
	KindConfig
	// KindValidation - invalid input to a pipeline stage.
	KindValidation
	// KindStorage - local survey store failure.
	KindStorage
	// KindInternal - unexpected internal state.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "TRANSPORT"
	case KindRateLimit:
		return "RATE_LIMIT"
	case KindDuplicateDocument:
		return "DUPLICATE_DOCUMENT"
	case KindConfig:
		return "CONFIG"
	case KindValidation:
		return "VALIDATION"
	case KindStorage:
		return "STORAGE"
	case KindInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Error is a categorized error with optional context fields.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]any

	// ResetAt is the upstream quota reset instant for rate-limit errors.
	ResetAt time.Time
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches errors of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithContext attaches a context field to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Retriable reports whether re-issuing the failed operation can succeed.
func (e *Error) Retriable() bool {
	return e.Kind == KindTransport || e.Kind == KindRateLimit
}

// DetailedString renders the error with its context fields, for logs.
func (e *Error) DetailedString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Kind, e.Message))
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	for k, v := range e.Context {
		sb.WriteString(fmt.Sprintf(" %s=%v", k, v))
	}
	return sb.String()
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error. Returns nil when err is nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

// Wrapf wraps an existing error with formatting. Returns nil when err is nil.
func Wrapf(err error, kind Kind, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Transport wraps a network or HTTP failure.
func Transport(err error, message string) *Error {
	return Wrap(err, KindTransport, message)
}

// Transportf wraps a network or HTTP failure with formatting.
func Transportf(err error, format string, args ...any) *Error {
	return Wrapf(err, KindTransport, format, args...)
}

// RateLimit creates a rate-limit error carrying the quota reset instant.
// A zero resetAt means the upstream did not advertise one.
func RateLimit(err error, resetAt time.Time, message string) *Error {
	e := Wrap(err, KindRateLimit, message)
	if e != nil {
		e.ResetAt = resetAt
	}
	return e
}

// DuplicateDocumentf creates a duplicate-identifier error.
func DuplicateDocumentf(format string, args ...any) *Error {
	return Newf(KindDuplicateDocument, format, args...)
}

// Configf creates a configuration error.
func Configf(format string, args ...any) *Error {
	return Newf(KindConfig, format, args...)
}

// Validationf creates a validation error.
func Validationf(format string, args ...any) *Error {
	return Newf(KindValidation, format, args...)
}

// Storage wraps a survey store failure.
func Storage(err error, message string) *Error {
	return Wrap(err, KindStorage, message)
}

// Internalf creates an internal error.
func Internalf(format string, args ...any) *Error {
	return Newf(KindInternal, format, args...)
}

// GetKind returns the kind of an error, KindInternal for foreign errors.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransport
}

// IsRateLimit reports whether err is a rate-limit failure.
func IsRateLimit(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRateLimit
}

// IsDuplicate reports whether err is a duplicate-document failure.
func IsDuplicate(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindDuplicateDocument
}

// IsRetriable reports whether the failed operation is safe to retry.
func IsRetriable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retriable()
}

// RateLimitReset extracts the advertised quota reset instant, if any.
func RateLimitReset(err error) (time.Time, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRateLimit && !e.ResetAt.IsZero() {
		return e.ResetAt, true
	}
	return time.Time{}, false
}
