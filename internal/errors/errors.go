package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// AppError is an error that knows how it should be rendered to a client.
// Errors is the short machine-facing summary placed in the envelope's
// "errors" field, Message the sentence placed in data.message.
type AppError struct {
	Code       string `json:"code"`
	Errors     string `json:"-"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Cause      error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause sets the underlying cause of the error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// New creates a new AppError
func New(code, summary, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Errors:     summary,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func BadRequest(summary, message string) *AppError {
	return New(CodeInvalidRequest, summary, message, http.StatusBadRequest)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, "Validation failed.", message, http.StatusBadRequest)
}

func InvalidCredentials() *AppError {
	const msg = "Invalid email or password."
	return New(CodeInvalidCredentials, msg, msg, http.StatusUnauthorized)
}

func Forbidden(summary, message string) *AppError {
	return New(CodeForbidden, summary, message, http.StatusForbidden)
}

func NotFound(summary, message string) *AppError {
	return New(CodeNotFound, summary, message, http.StatusNotFound)
}

func Conflict(summary, message string) *AppError {
	return New(CodeConflict, summary, message, http.StatusConflict)
}

func EmailExists(email string) *AppError {
	return New(CodeEmailExists, "User already exists.",
		fmt.Sprintf("User with email %s already exists.", email), http.StatusConflict)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, "Internal Server Error", message, http.StatusInternalServerError)
}

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success    bool    `json:"success"`
	StatusCode int     `json:"statusCode"`
	Errors     *string `json:"errors"`
	Data       any     `json:"data"`
}

// MessageData is the data payload of failed requests.
type MessageData struct {
	Message string `json:"message"`
}

// AsAppError extracts an AppError from err, wrapping anything unknown as an
// internal error so that causes never reach the client.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return InternalError("Internal Server Error").WithCause(err)
}

// WriteError writes an error envelope to the HTTP response writer
func WriteError(w http.ResponseWriter, requestID string, err error) {
	appErr := AsAppError(err)
	summary := appErr.Errors
	if summary == "" {
		summary = appErr.Message
	}
	writeJSON(w, requestID, appErr.HTTPStatus, Envelope{
		Success:    false,
		StatusCode: appErr.HTTPStatus,
		Errors:     &summary,
		Data:       MessageData{Message: appErr.Message},
	})
}

// WriteSuccess writes a success envelope around data.
func WriteSuccess(w http.ResponseWriter, requestID string, status int, data any) {
	writeJSON(w, requestID, status, Envelope{
		Success:    true,
		StatusCode: status,
		Data:       data,
	})
}

func writeJSON(w http.ResponseWriter, requestID string, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set(RequestIDHeader, requestID)
	}
	w.WriteHeader(status)
	// 304 responses carry no body.
	if status == http.StatusNotModified {
		return
	}
	json.NewEncoder(w).Encode(body)
}

// IsClientError returns true if the error maps to a 4xx status
func IsClientError(err error) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.HTTPStatus >= 400 && appErr.HTTPStatus < 500
}
