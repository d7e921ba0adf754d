package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"

	"pronafmonitor/internal/infrastructure"
)

// Problem is the RFC 7807 body written by middleware that answers before
// any handler runs.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace_id,omitempty"`
}

// Render implements the chi render.Renderer interface
func (p Problem) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

// ProblemFromStatus creates a Problem from an HTTP status code
func ProblemFromStatus(status int, detail string, traceID string) Problem {
	var problemType string
	switch status {
	case http.StatusBadRequest:
		problemType = "/errors/bad-request"
	case http.StatusNotFound:
		problemType = "/errors/not-found"
	case http.StatusMethodNotAllowed:
		problemType = "/errors/method-not-allowed"
	case http.StatusRequestEntityTooLarge:
		problemType = "/errors/payload-too-large"
	case http.StatusUnsupportedMediaType:
		problemType = "/errors/unsupported-media-type"
	case http.StatusTooManyRequests:
		problemType = "/errors/rate-limit-exceeded"
	case http.StatusInternalServerError:
		problemType = "/errors/internal-server-error"
	case http.StatusServiceUnavailable:
		problemType = "/errors/service-unavailable"
	case http.StatusGatewayTimeout:
		problemType = "/errors/request-timeout"
	default:
		problemType = "/errors/unknown"
	}

	return Problem{
		Type:   problemType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Trace:  traceID,
	}
}

// writeProblem answers with an application/problem+json document.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemFromStatus(status, detail, infrastructure.GetTraceID(r.Context())))
}
