package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via query.MapError to a user message and code
//  4. Technical error is logged with the request ID for correlation
//  5. User message is rendered as JSON, or as an HTML fragment for browsers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/linequery/internal/logging"
	"github.com/JonMunkholm/linequery/internal/query"
	"github.com/JonMunkholm/linequery/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes a user-facing error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := query.MapError(err)
	status := statusFor(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "error", err, "code", userMsg.Code)
	} else {
		logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err, "code", userMsg.Code)
	}

	if wantsJSON(r) {
		// Not-found errors wrap filesystem failures; only the catalogue
		// message leaves the server for them.
		detail := userMsg.Message
		if status < http.StatusInternalServerError && !errors.Is(err, query.ErrNotFound) {
			detail = err.Error()
		}
		writeJSON(w, status, ErrorResponse{
			Error:   detail,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w); err != nil {
		logger.Error("render error fragment", "error", err)
	}
}

// statusFor picks the HTTP status for a query error. Anything the caller
// got wrong is a 400; a saturated limiter is a 503.
func statusFor(err error) int {
	switch {
	case query.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, query.ErrTooManyQueries):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON checks if the client prefers a JSON response. The query
// endpoints always answer in JSON unless the client asks for HTML.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	if strings.Contains(accept, "text/html") {
		return false
	}
	return true
}
