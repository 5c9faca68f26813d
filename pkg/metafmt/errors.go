package metafmt

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := formatter.Format(ctx, cfg)
//	if errors.Is(err, metafmt.ErrTemplate) {
//	    // Fix the template, not the data
//	}
var (
	// ErrUsage indicates the command line was misused, e.g. a selector the
	// document kind needs is missing.
	ErrUsage = errors.New("usage error")

	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTemplate indicates the template is malformed or names unknown types.
	ErrTemplate = errors.New("template error")

	// ErrContract indicates a DAO did not supply the metadata an element requires.
	ErrContract = errors.New("contract error")

	// ErrConnectionFailed indicates the metadata store could not be reached.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrMetadataInconsistency indicates a query produced an impossible result.
	ErrMetadataInconsistency = errors.New("metadata inconsistency")

	// ErrUnresolvedReference indicates a reference named an identifier
	// that was never registered. It is a metadata inconsistency.
	ErrUnresolvedReference = fmt.Errorf("unresolved reference: %w", ErrMetadataInconsistency)

	// ErrValidationFailed indicates the written document did not pass validation.
	ErrValidationFailed = errors.New("document failed validation")
)

// TemplateError describes a problem with the template: bad syntax, an unknown
// element or DAO type, a node with both or neither of dao/link, or a missing
// global attribute. Path locates the node (e.g. "DocumentSet/SimulationRun").
type TemplateError struct {
	Path    string
	Message string
	Hint    string
	Err     error
}

func (e *TemplateError) Error() string {
	msg := "template error"
	if e.Path != "" {
		msg += " at " + e.Path
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	return msg
}

func (e *TemplateError) Unwrap() error { return e.Err }

func (e *TemplateError) Is(target error) bool { return target == ErrTemplate }

// NewTemplateError builds a TemplateError with a formatted message.
func NewTemplateError(path, format string, args ...interface{}) *TemplateError {
	return &TemplateError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// ContractError reports metadata that breaks an element's contract: a required
// attribute missing, or none of an optional-only element's attributes present.
type ContractError struct {
	Type      string
	Attribute string
	Message   string
}

func (e *ContractError) Error() string {
	switch {
	case e.Attribute != "" && e.Message == "":
		return fmt.Sprintf("contract error in %s: required attribute %q missing", e.Type, e.Attribute)
	case e.Attribute != "":
		return fmt.Sprintf("contract error in %s [attribute: %s]: %s", e.Type, e.Attribute, e.Message)
	default:
		return fmt.Sprintf("contract error in %s: %s", e.Type, e.Message)
	}
}

func (e *ContractError) Is(target error) bool { return target == ErrContract }

// DataAccessKind classifies a DataAccessError.
type DataAccessKind int

const (
	// ConnectionFailure means the backing store is unreachable.
	ConnectionFailure DataAccessKind = iota
	// MetadataInconsistency means a query yielded a contradictory result.
	MetadataInconsistency
)

func (k DataAccessKind) String() string {
	switch k {
	case ConnectionFailure:
		return "connection failure"
	case MetadataInconsistency:
		return "metadata inconsistency"
	default:
		return fmt.Sprintf("DataAccessKind(%d)", int(k))
	}
}

// DataAccessError is returned by DAOs and stores. Neither kind is retried.
type DataAccessError struct {
	Kind    DataAccessKind
	Message string
	Err     error
}

func (e *DataAccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

func (e *DataAccessError) Is(target error) bool {
	switch target {
	case ErrConnectionFailed:
		return e.Kind == ConnectionFailure
	case ErrMetadataInconsistency:
		return e.Kind == MetadataInconsistency
	}
	return false
}

// NewConnectionError wraps a store connection failure.
func NewConnectionError(err error, format string, args ...interface{}) *DataAccessError {
	return &DataAccessError{Kind: ConnectionFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewMetadataError reports an impossible or contradictory query result.
func NewMetadataError(format string, args ...interface{}) *DataAccessError {
	return &DataAccessError{Kind: MetadataInconsistency, Message: fmt.Sprintf(format, args...)}
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrTemplate):
		return ExitTemplateError
	case errors.Is(err, ErrContract):
		return ExitContractError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrMetadataInconsistency):
		return ExitMetadataError
	case errors.Is(err, ErrValidationFailed):
		return ExitValidationFailed
	}

	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
