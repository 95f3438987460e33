package web

// errors.go handles request-level errors: bad paths and unparseable
// forms. Action outcomes never come through here; the controller turns
// those into notices.
//
// The technical error is logged with the request ID. The client gets the
// mapped message as an HTMX fragment, JSON, or plain text.

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/students/internal/form"
	"github.com/JonMunkholm/students/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes a user-friendly response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	n := form.InputError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", n.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		if rerr := templates.ErrorAlert(n.Message, n.Action, n.Code).Render(r.Context(), w); rerr != nil {
			slog.Error("render error alert", "error", rerr)
		}
	case wantsJSON(r):
		writeJSON(w, statusCode, ErrorResponse{
			Error:   n.Message,
			Message: n.Message,
			Action:  n.Action,
			Code:    n.Code,
		})
	default:
		http.Error(w, n.Message+" ("+n.Code+")", statusCode)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
