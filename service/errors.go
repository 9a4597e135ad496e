package service

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an APIError independently of its HTTP status.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindInvalidParams ErrorKind = "invalid_params"
	KindInvalidQuery  ErrorKind = "invalid_query"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindRateLimited   ErrorKind = "rate_limited"
	KindTooLarge      ErrorKind = "too_large"
)

// Machine-readable error codes returned to clients.
const (
	CodeValidation              = "validation_error"
	CodeInvalidQuery            = "invalid_query"
	CodeInvalidParams           = "invalid_params"
	CodeBookNotFound            = "book_not_found"
	CodeReservationNotFound     = "reservation_not_found"
	CodeBookNotReservable       = "book_not_reservable"
	CodeInvalidStatusTransition = "invalid_status_transition"
	CodeTooManyRequests         = "too_many_requests"
	CodePayloadTooLarge         = "payload_too_large"
	CodeInternal                = "internal_error"
)

// APIError is a business or input error with a fixed HTTP status and code.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Code    string
	Message string
	Fields  map[string]string // per-field messages, validation only
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func NewValidationError(fields map[string]string) *APIError {
	return &APIError{Kind: KindValidation, Status: http.StatusBadRequest, Code: CodeValidation, Message: "Validation error", Fields: fields}
}

func NewInvalidParams(msg string) *APIError {
	return &APIError{Kind: KindInvalidParams, Status: http.StatusBadRequest, Code: CodeInvalidParams, Message: msg}
}

func NewInvalidQuery(msg string) *APIError {
	return &APIError{Kind: KindInvalidQuery, Status: http.StatusBadRequest, Code: CodeInvalidQuery, Message: msg}
}

func NewNotFound(code, msg string) *APIError {
	return &APIError{Kind: KindNotFound, Status: http.StatusNotFound, Code: code, Message: msg}
}

func NewConflict(code, msg string) *APIError {
	return &APIError{Kind: KindConflict, Status: http.StatusConflict, Code: code, Message: msg}
}

func NewTooManyRequests(msg string) *APIError {
	return &APIError{Kind: KindRateLimited, Status: http.StatusTooManyRequests, Code: CodeTooManyRequests, Message: msg}
}

func NewPayloadTooLarge(limit int64) *APIError {
	return &APIError{Kind: KindTooLarge, Status: http.StatusRequestEntityTooLarge, Code: CodePayloadTooLarge,
		Message: fmt.Sprintf("Request body must not exceed %d bytes", limit)}
}

var (
	errBookNotFound        = NewNotFound(CodeBookNotFound, "Book with given id not found")
	errReservationNotFound = NewNotFound(CodeReservationNotFound, "Reservation with given id not found")
	errBookNotReservable   = NewConflict(CodeBookNotReservable, "Book is already issued or reserved")
)

// AsAPIError unwraps err into an APIError if it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// HasCode reports whether err is an APIError with the given code.
func HasCode(err error, code string) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == code
}
