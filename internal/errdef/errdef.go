package errdef

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeUnknown      Code = "unknown"
	CodeUsage        Code = "usage"
	CodeTarget       Code = "target_not_empty"
	CodeDownload     Code = "download_failed"
	CodeExtract      Code = "extraction_failed"
	CodeTemplateRoot Code = "template_root_not_found"
	CodeManifest     Code = "manifest"
	CodeVCS          Code = "vcs"
	CodeInstall      Code = "install_failed"
	CodeConfig       Code = "config"
	CodeFilesystem   Code = "filesystem"
)

// Exit codes returned by ExitCode for the generic cases.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

type Error struct {
	Code    Code
	Message string
	Err     error
	// Exit overrides the process exit status when non-zero.
	Exit int
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Wrap annotates an existing error with a scaffold error code and optional
// message, returning nil when the original error is nil.
func Wrap(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := ""
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: ensureCode(code), Message: msg, Err: err}
}

// New creates a formatted error with the supplied code.
func New(code Code, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: ensureCode(code), Message: msg}
}

// WithExit attaches an explicit process exit status to err. Errors that do not
// carry a code yet are wrapped as CodeUnknown.
func WithExit(err error, exit int) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stdErrors.As(err, &e) {
		cp := *e
		cp.Exit = exit
		return &cp
	}
	return &Error{Code: CodeUnknown, Err: err, Exit: exit}
}

// CodeOf extracts the error code from the wrapped error value.
func CodeOf(err error) Code {
	var e *Error
	if stdErrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether the supplied error carries the target error code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	var e *Error
	if stdErrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Fatal reports whether an error with this code must abort the run.
func Fatal(code Code) bool {
	switch code {
	case CodeManifest, CodeVCS:
		return false
	default:
		return true
	}
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var e *Error
	if !stdErrors.As(err, &e) {
		return ExitFailure
	}
	if e.Exit != 0 {
		return e.Exit
	}
	if e.Code == CodeUsage {
		return ExitUsage
	}
	return ExitFailure
}

// Message returns the error string or empty when the error is nil.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func ensureCode(code Code) Code {
	if code == "" {
		return CodeUnknown
	}
	return code
}
