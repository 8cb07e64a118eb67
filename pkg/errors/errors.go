package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the kinds of failure the catalog pipelines distinguish
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeUnknown     ErrorType = "unknown"

	// Scraping pipeline
	ErrorTypeLocator    ErrorType = "locator"
	ErrorTypeChallenge  ErrorType = "challenge"
	ErrorTypeExhausted  ErrorType = "resolution_exhausted"
	ErrorTypeConvention ErrorType = "filename_convention"
	ErrorTypeGenerate   ErrorType = "generate"

	// Validation
	ErrorTypeLoad            ErrorType = "load"
	ErrorTypeSchemaMalformed ErrorType = "schema_malformed"
	ErrorTypeCatalogInvalid  ErrorType = "catalog_invalid"
	ErrorTypeLinkUnreachable ErrorType = "link_unreachable"
)

// Process exit codes used by the CLI.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitLoad    = 2
	ExitSchema  = 3
	ExitLinks   = 4
)

// Error is a typed failure. Code holds an HTTP status where one applies.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a typed error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap attaches a type and message to an underlying error
func Wrap(t ErrorType, err error, message string) *Error {
	return &Error{Type: t, Message: message, Cause: err}
}

// LocatorError reports missing or malformed embedded state on the landing page.
func LocatorError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeLocator, Message: message, Cause: cause}
}

// ChallengeEncountered reports a bot-verification response. It never reaches users;
// the client turns it into a cookie refresh and a retry.
func ChallengeEncountered(status int) *Error {
	return &Error{Type: ErrorTypeChallenge, Message: "bot verification challenge", Code: status}
}

// ResolutionExhausted reports that every attempt for one request failed.
func ResolutionExhausted(url string, attempts, lastStatus int, cause error) *Error {
	return &Error{
		Type:    ErrorTypeExhausted,
		Message: fmt.Sprintf("gave up on %s after %d attempts", url, attempts),
		Code:    lastStatus,
		Cause:   cause,
	}
}

// FilenameConventionMismatch reports a filename that cannot be turned into an image entry.
func FilenameConventionMismatch(filename, reason string) *Error {
	return &Error{Type: ErrorTypeConvention, Message: fmt.Sprintf("%s: %s", filename, reason)}
}

// GenerateFailed marks a fatal catalog generation error. Whatever it wraps,
// the process exits with ExitFailure.
func GenerateFailed(cause error) *Error {
	return &Error{Type: ErrorTypeGenerate, Message: "catalog generation failed", Cause: cause}
}

func LoadFailure(path string, cause error) *Error {
	return &Error{Type: ErrorTypeLoad, Message: fmt.Sprintf("failed to load %s", path), Cause: cause}
}

func SchemaMalformed(cause error) *Error {
	return &Error{Type: ErrorTypeSchemaMalformed, Message: "schema is not a valid JSON schema", Cause: cause}
}

func CatalogInvalid(cause error) *Error {
	return &Error{Type: ErrorTypeCatalogInvalid, Message: "catalog does not conform to schema", Cause: cause}
}

// LinkUnreachable reports how many probed URLs did not return 200.
func LinkUnreachable(failed, total int) *Error {
	return &Error{
		Type:    ErrorTypeLinkUnreachable,
		Message: fmt.Sprintf("%d of %d links failed", failed, total),
	}
}

// NewHTTPError classifies a non-success HTTP status
func NewHTTPError(status int, url string) *Error {
	t := ErrorTypeUnknown
	switch {
	case status == 0:
		t = ErrorTypeNetwork
	case status == 404:
		t = ErrorTypeNotFound
	case status >= 500:
		t = ErrorTypeServerError
	}
	return &Error{Type: t, Message: fmt.Sprintf("unexpected status from %s", url), Code: status}
}

// IsType reports whether any error in err's chain is an *Error of type t
func IsType(err error, t ErrorType) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Cause
	}
	return false
}

// TypeOf returns the type of the outermost *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// ExitCode maps an error to the CLI exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case IsType(err, ErrorTypeGenerate):
		return ExitFailure
	case IsType(err, ErrorTypeLoad):
		return ExitLoad
	case IsType(err, ErrorTypeSchemaMalformed), IsType(err, ErrorTypeCatalogInvalid):
		return ExitSchema
	case IsType(err, ErrorTypeLinkUnreachable):
		return ExitLinks
	default:
		return ExitFailure
	}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeServerError, ErrorTypeChallenge, ErrorTypeUnknown:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429:
		return true
	case 401, 404:
		return false
	default:
		return statusCode >= 500
	}
}
