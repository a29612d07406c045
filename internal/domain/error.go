package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeUnavailable      ErrorCode = "UNAVAILABLE"
	CodeFailedPrecond    ErrorCode = "FAILED_PRECONDITION"
	CodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	CodeInternal         ErrorCode = "INTERNAL"
	CodeCanceled         ErrorCode = "CANCELED"
	CodeDeadlineExceeded ErrorCode = "DEADLINE_EXCEEDED"
)

var (
	// ErrConnectionFailure reports that no session could be established,
	// including after the single credential refresh.
	ErrConnectionFailure = errors.New("could not connect to MCP server")
	// ErrFetchFailure reports that the tool listing failed on a live session.
	ErrFetchFailure = errors.New("list tools failed")
	// ErrConfigurationIncomplete reports a descriptor missing required fields.
	ErrConfigurationIncomplete = errors.New("configuration incomplete")
	// ErrUnauthorized reports an authorization challenge from the server.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnsupportedTransport reports a transport kind outside the supported set.
	ErrUnsupportedTransport = errors.New("unsupported transport")
	ErrServerNotFound       = errors.New("server not found")
)

type Error struct {
	Code      ErrorCode
	Op        string
	Message   string
	Cause     error
	Retryable bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Code:      existing.Code,
			Op:        op,
			Message:   existing.Message,
			Cause:     existing.Cause,
			Retryable: existing.Retryable,
		}
	}
	return E(code, op, "", err)
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	switch {
	case errors.Is(err, ErrConnectionFailure), errors.Is(err, ErrFetchFailure):
		return CodeUnavailable, true
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthenticated, true
	case errors.Is(err, ErrConfigurationIncomplete):
		return CodeFailedPrecond, true
	case errors.Is(err, ErrUnsupportedTransport):
		return CodeInvalidArgument, true
	case errors.Is(err, ErrServerNotFound):
		return CodeNotFound, true
	default:
		return "", false
	}
}
