package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/joelkehle/circuit-architect/internal/generation"
	"github.com/joelkehle/circuit-architect/internal/llm"
	"github.com/joelkehle/circuit-architect/internal/llmjson"
	"github.com/joelkehle/circuit-architect/internal/store"
	"github.com/joelkehle/circuit-architect/internal/topology"
)

const (
	CodeValidation    = "validation"
	CodeNotFound      = "not_found"
	CodeUnprocessable = "unprocessable"
	CodeUnavailable   = "unavailable"
	CodeInternal      = "internal"
)

type Error struct {
	Code      string
	Message   string
	Transient bool
	Status    int
	Issues    []topology.Issue
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func statusForCode(code string) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnprocessable:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newError(code, message string, transient bool) *Error {
	return &Error{Code: code, Message: message, Transient: transient, Status: statusForCode(code)}
}

func validationJSONError(err error) *Error {
	return newError(CodeValidation, "invalid json: "+err.Error(), false)
}

// apiError maps domain errors onto the wire error shape.
func apiError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var perr *llmjson.ParseError
	switch {
	case errors.As(err, &perr):
		return newError(CodeUnprocessable, llmjson.ErrUnparseable.Error(), true)
	case errors.Is(err, store.ErrNotFound):
		return newError(CodeNotFound, err.Error(), false)
	case errors.Is(err, generation.ErrTopologyInvalid):
		return newError(CodeValidation, err.Error(), false)
	case errors.Is(err, generation.ErrNoCaller), errors.Is(err, llm.ErrDisabled):
		return newError(CodeUnavailable, err.Error(), false)
	}
	class := llm.ClassifyTransportError(err)
	if class == llm.FailureTimeout || class == llm.FailureRateLimit {
		return newError(CodeUnavailable, err.Error(), true)
	}
	return newError(CodeInternal, err.Error(), true)
}
