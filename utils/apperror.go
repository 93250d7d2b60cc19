package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrKind classifies a handler failure so the transport layer can map it to
// a status code without inspecting messages.
type ErrKind int

const (
	KindError ErrKind = iota
	KindNotFound
	KindConflict
	KindInvalid
	KindForbidden
	KindUnauthorized
)

// AppError carries a kind and a human-readable message. Invalid errors may
// also name the offending field.
type AppError struct {
	Kind    ErrKind
	Field   string
	Message string
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func NotFoundf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Invalidf(field, format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindInvalid, Field: field, Message: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Unauthorizedf(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from any error; plain errors count as KindError.
func KindOf(err error) ErrKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindError
}

func httpStatus(kind ErrKind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalid:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondAppError maps a service error onto the JSON envelope. Unclassified
// errors become 500s with their message intact.
func RespondAppError(c *gin.Context, err error) {
	RespondError(c, httpStatus(KindOf(err)), err)
}
