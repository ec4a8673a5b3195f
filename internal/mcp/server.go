package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"toolforge/internal/autopoiesis"
	"toolforge/internal/dispatch"
	"toolforge/internal/logging"
	"toolforge/internal/tools"
	"toolforge/internal/tools/meta"
)

const maxBodyBytes = 10 << 20

// Reloader re-activates a tool from the store.
type Reloader interface {
	Activate(ctx context.Context, reg *tools.Registry, name string) (*tools.Tool, error)
}

// Server exposes a dispatcher over HTTP.
type Server struct {
	dispatcher     *dispatch.Dispatcher
	reloader       Reloader
	allowedOrigins []string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAllowedOrigins enables CORS for the given origins. "*" allows any.
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// NewServer creates a server. reloader may be nil, in which case the reload
// endpoint reports 501.
func NewServer(d *dispatch.Dispatcher, reloader Reloader, opts ...ServerOption) *Server {
	s := &Server{
		dispatcher: d,
		reloader:   reloader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes registers the HTTP routes on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /mcp", s.handleMCP)
	mux.HandleFunc("GET /tools", s.handleTools)
	mux.HandleFunc("POST /tools/{name}/reload", s.handleReload)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the routes wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(s.cors(mux))
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			writeJSON(w, http.StatusBadRequest, Response{Status: StatusError, Message: "Request must be JSON"})
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Status: StatusError, Message: "Request body could not be read"})
		return
	}

	env, err := ParseEnvelope(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Status: StatusError, Message: err.Error()})
		return
	}

	if env.Context.ToolRequest == nil {
		writeJSON(w, http.StatusOK, Response{
			Status:  StatusSuccess,
			Message: fmt.Sprintf("Hello World! Received context for model '%s'.", env.Model),
		})
		return
	}

	tr := env.Context.ToolRequest
	if tr.Name == "" {
		writeJSON(w, http.StatusBadRequest, Response{Status: StatusError, Message: "tool_request must specify a 'name'"})
		return
	}

	logging.Transport("Processing a '%s' tool request for model '%s'", tr.Name, env.Model)
	res := s.dispatcher.Dispatch(r.Context(), dispatch.Request{Tool: tr.Name, Input: tr.Input})

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ResponseFromResult(tr.Name, res))
}

// ResponseFromResult renders a dispatch result as an /mcp response body.
// On failure the tool output is replaced by the error message.
func ResponseFromResult(name string, res *dispatch.Result) Response {
	resp := Response{
		Status:    StatusSuccess,
		Note:      res.Note,
		RequestID: res.RequestID,
		ToolResponse: &ToolResponse{
			ToolName: name,
			Output:   res.Output,
		},
	}
	if !res.Success {
		resp.Status = StatusError
		resp.ToolResponse.Output = res.Message()
	}
	return resp
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	descs := s.dispatcher.Registry().Descriptors()
	descs = append(descs, meta.CodeExecutorDescriptor())
	writeJSON(w, http.StatusOK, ToolList{Tools: descs})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if s.reloader == nil {
		writeJSON(w, http.StatusNotImplemented, ReloadResponse{Status: StatusError, ToolName: name, Message: "reload is not configured"})
		return
	}

	tool, err := s.reloader.Activate(r.Context(), s.dispatcher.Registry(), name)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, autopoiesis.ErrUnitNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, ReloadResponse{Status: StatusError, ToolName: name, Message: err.Error()})
		return
	}

	logging.Transport("Reloaded %s on request", name)
	writeJSON(w, http.StatusOK, ReloadResponse{Status: StatusSuccess, ToolName: name, Hash: tool.Hash})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok", Tools: s.dispatcher.Registry().Count()})
}

// ParseEnvelope decodes an inbound body. Both model and context are required.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.New("Request must be JSON")
	}
	if _, ok := raw["model"]; !ok {
		return nil, errors.New("Payload must contain 'model' and 'context' keys")
	}
	if _, ok := raw["context"]; !ok {
		return nil, errors.New("Payload must contain 'model' and 'context' keys")
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %v", err)
	}
	if env.Context == nil {
		return nil, errors.New("'context' must be an object")
	}
	return &env, nil
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) cors(next http.Handler) http.Handler {
	if len(s.allowedOrigins) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, o := range s.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.TransportDebug("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
