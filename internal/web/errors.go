package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Given a status derived from the error itself
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. statusFor picks the HTTP status from the error kind
//  4. Error is mapped via core.MapError to get user-friendly message
//  5. Technical error + context is logged with request ID for correlation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/frequencia/internal/core"
	"github.com/JonMunkholm/frequencia/internal/logging"
	"github.com/JonMunkholm/frequencia/internal/web/templates"
)

// errBadRequest marks malformed requests: unreadable bodies, bad query
// parameters, missing path ids.
var errBadRequest = errors.New("bad request")

// badRequest tags err so it is answered with 400.
func badRequest(err error) error {
	return errors.Join(errBadRequest, err)
}

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps an error onto the HTTP status it is answered with.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrEmptyBatch),
		errors.Is(err, core.ErrBatchTooLarge),
		errors.Is(err, core.ErrUnknownEntity):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrParentNotFound),
		errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case core.IsUniqueViolation(err):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManySyncs):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError answers err with the status statusFor picks.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	respondErrorStatus(w, r, err, status)
}

// retryAfterSeconds is suggested to clients turned away by the sync limiter.
const retryAfterSeconds = 5

// respondErrorStatus logs the technical error and writes the user-facing
// message in the format the client asked for.
func respondErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if wantsJSON(r) {
		respondErrorJSON(w, err, userMsg, status)
	} else {
		respondErrorHTML(w, r, userMsg, status)
	}
}

// respondErrorJSON writes a JSON error response. Client errors carry the
// technical text in "error" so a client can tell which field failed; server
// errors never leak it.
func respondErrorJSON(w http.ResponseWriter, err error, msg core.UserMessage, status int) {
	detail := msg.Message
	if status < http.StatusInternalServerError {
		detail = strings.TrimPrefix(err.Error(), errBadRequest.Error()+"\n")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   detail,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML renders the error alert for browser requests.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.ErrorAlert(msg).Render(r.Context(), w)
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
