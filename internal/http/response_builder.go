// Package http exposes the chat engine and the budget executor as a JSON API.
//
// This file holds the fluent builder used by every handler to write JSON
// replies and the mapping from domain errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"budgetbot/internal/core"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
	cookies    []*http.Cookie
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *ResponseBuilder) Cookie(c *http.Cookie) *ResponseBuilder {
	b.cookies = append(b.cookies, c)
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	for _, c := range b.cookies {
		http.SetCookie(w, c)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func TooManyRequestsError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message)
}

// FromError maps a domain error to its response.
func FromError(err error) *ResponseBuilder {
	switch {
	case errors.Is(err, core.ErrNoPlan):
		return NotFoundError("No existing budget plan found")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidAction):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrPersist):
		return InternalServerError("Failed to save budget update")
	default:
		return InternalServerError("Internal server error")
	}
}
