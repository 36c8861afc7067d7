package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common error kinds. Every error produced by the client wraps one of these
// so callers can branch with errors.Is.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
	ErrNetwork      = errors.New("network error")
	ErrInternal     = errors.New("internal error")
)

// AppError represents an application error with context.
type AppError struct {
	Err     error
	Message string
	Code    string
	Details map[string]string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message, Code: "FORBIDDEN"}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message, Code: "UNAUTHORIZED"}
}

// NotFound creates a not found error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Code:    "NOT_FOUND",
		Details: map[string]string{"resource": resource, "id": id},
	}
}

// Validation creates a validation error with per-field details.
func Validation(message string, details map[string]string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Code: "VALIDATION_ERROR", Details: details}
}

// Network wraps a transport failure (DNS, refused connection, timeout).
func Network(err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrNetwork, err),
		Message: "Falha de comunicação com o servidor.",
		Code:    "NETWORK",
	}
}

// ---------------------------------------------------------------------------
// APIError -- non-2xx responses from the REST backend
// ---------------------------------------------------------------------------

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
	Body    []byte
}

// NewAPIError builds an APIError, extracting the best human message from the
// response body.
func NewAPIError(status int, method, path string, body []byte) *APIError {
	return &APIError{
		Status:  status,
		Method:  method,
		Path:    path,
		Message: messageFromBody(status, body),
		Body:    body,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Is maps HTTP status codes onto the sentinel kinds.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrBadRequest, ErrValidation:
		return e.Status == http.StatusBadRequest
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrInternal:
		return e.Status >= 500
	}
	return false
}

// messageFromBody prefers "detail", then "message", then the raw JSON.
func messageFromBody(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("HTTP %d", status)
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return trimmed
	}
	if d, ok := obj["detail"]; ok && d != nil {
		return fmt.Sprint(d)
	}
	if m, ok := obj["message"]; ok && m != nil {
		return fmt.Sprint(m)
	}
	return trimmed
}

// Message returns a short user-facing message for any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if IsDuplicateCPF(err) {
		return "Já existe um paciente cadastrado com este CPF."
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if errors.Is(err, ErrNetwork) {
		return "Falha de comunicação com o servidor."
	}
	return err.Error()
}

// IsDuplicateCPF recognises the backend's uniqueness failure for the CPF or
// the CPF-derived username.
func IsDuplicateCPF(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Status != http.StatusBadRequest && apiErr.Status != http.StatusConflict {
		return false
	}
	var obj map[string]any
	if json.Unmarshal(apiErr.Body, &obj) != nil {
		return false
	}
	if dupField(obj["cpf"]) {
		return true
	}
	if user, ok := obj["user"].(map[string]any); ok && dupField(user["username"]) {
		return true
	}
	return dupField(obj["username"])
}

func dupField(v any) bool {
	var msgs []string
	switch t := v.(type) {
	case string:
		msgs = append(msgs, t)
	case []any:
		for _, m := range t {
			msgs = append(msgs, fmt.Sprint(m))
		}
	default:
		return false
	}
	for _, m := range msgs {
		l := strings.ToLower(m)
		if strings.Contains(l, "already exists") || strings.Contains(l, "já existe") || strings.Contains(l, "ja existe") {
			return true
		}
	}
	return false
}
