package domain

import (
	"errors"
	"net/http"
)

type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindValidation
	KindInvalidRequest
	KindCatalogUnavailable
	KindModelUnprocessable
	KindModelClient
	KindModelServer
	KindModelUnavailable
	KindPersistence
)

var kindCodes = map[ErrorKind]string{
	KindUnexpected:         "INTERNAL_ERROR",
	KindValidation:         "VALIDATION_ERROR",
	KindInvalidRequest:     "INVALID_REQUEST",
	KindCatalogUnavailable: "CATALOG_UNAVAILABLE",
	KindModelUnprocessable: "UNPROCESSABLE_ENTITY",
	KindModelClient:        "MODEL_CLIENT_ERROR",
	KindModelServer:        "MODEL_SERVER_ERROR",
	KindModelUnavailable:   "SERVICE_UNAVAILABLE",
	KindPersistence:        "PERSISTENCE_ERROR",
}

// Code is the stable identifier rendered in the error envelope.
func (k ErrorKind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindUnexpected]
}

// HTTPStatus is the status a caller sees for this kind. Client errors from the
// model surface as 500 since a normalized request should never be rejected.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidRequest:
		return http.StatusBadRequest
	case KindModelUnprocessable:
		return http.StatusUnprocessableEntity
	case KindModelUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the tagged error returned across service boundaries.
type Error struct {
	Kind    ErrorKind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// KindOf reports the kind of err, KindUnexpected when err carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
