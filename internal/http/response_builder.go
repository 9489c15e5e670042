// Package http serves the ledger as a local JSON API.
//
// This file holds the response builder and the mapping from domain errors to
// status codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"smartwallet/internal/core"
	wlog "smartwallet/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// errorBody is the payload of every failed request.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Kind  string `json:"kind"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, kind, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message, Kind: kind})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, wlog.ErrorTypeValidation, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, wlog.ErrorTypeNotFound, message)
}

// classify maps a domain error onto a status code and an error type.
func classify(err error) (int, string) {
	var ve *core.ValidationError
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, wlog.ErrorTypeNotFound
	case errors.Is(err, core.ErrInsufficientBalance):
		return http.StatusConflict, wlog.ErrorTypeBalance
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, wlog.ErrorTypeValidation
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, wlog.ErrorTypeAmount
	default:
		return http.StatusInternalServerError, wlog.ErrorTypeInternal
	}
}

// FromError builds the response for err. Internal errors are logged and
// reported without detail.
func FromError(r *http.Request, err error) *JSONResponseBuilder {
	status, kind := classify(err)
	logger := wlog.FromContext(r.Context())

	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			wlog.NewFields().WithError(err).WithErrorType(kind).WithComponent(wlog.ComponentHTTP).ToSlice()...)
		return ErrorResponse(status, kind, "internal error")
	}

	body := errorBody{Error: err.Error(), Kind: kind}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	logger.DebugContext(r.Context(), "Request rejected", "error", err, "status_code", status)
	return NewJSONResponse().Status(status).Body(body)
}

var (
	errUnknownTheme    = errors.New("unknown theme")
	errUnknownCurrency = errors.New("unknown currency")
)
