package errdef

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies an error so callers can react without string matching.
type Code string

const (
	CodeUnknown                  Code = "unknown"
	CodeFilesystem               Code = "filesystem"
	CodeHTTP                     Code = "http"
	CodeHistory                  Code = "history"
	CodeInvalidPlaceholderKey    Code = "invalid_placeholder_key"
	CodeMissingPlaceholderValue  Code = "missing_placeholder_value"
	CodeEmptyPlaceholder         Code = "empty_placeholder"
	CodeUnknownProfile           Code = "unknown_profile"
	CodeNoProfiles               Code = "no_profiles"
	CodeMissingRequestLine       Code = "missing_request_line"
	CodeMissingRequestURL        Code = "missing_request_url"
	CodeInvalidHeaderLine        Code = "invalid_header_line"
	CodeMissingDirectiveArgument Code = "missing_directive_argument"
	CodeCurlParse                Code = "curl_parse"
	CodeRestrictedDirective      Code = "restricted_directive"
)

type Error struct {
	code Code
	msg  string
	err  error
}

func New(code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...), err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.err == nil {
		return e.msg
	}
	if e.msg == "" {
		return e.err.Error()
	}
	return e.msg + ": " + e.err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeUnknown
	}
	return e.code
}

// CodeOf returns the code of the outermost coded error in err's chain,
// or CodeUnknown when the chain carries none.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return CodeUnknown
}

// Message renders err for humans. Coded errors keep their own message so
// UI surfaces stay stable even when the underlying cause changes.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) {
		return strings.TrimSpace(coded.Error())
	}
	return strings.TrimSpace(err.Error())
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
