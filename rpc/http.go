package rpc

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"birdswap/core"
	"birdswap/observability"
	"birdswap/observability/logging"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	limiterIdleTTL  = 10 * time.Minute
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeRateLimited    = -32020
	codeForbidden      = -32031
	codeNotFound       = -32032
	codeInvalid        = -32033
	codeDownstream     = -32034
)

// Config tunes the JSON-RPC server.
type Config struct {
	AuthToken         string
	RequestsPerMinute uint32
	Burst             int
	// TrustProxyHeaders keys rate limits on X-Forwarded-For instead of the
	// socket address. Only enable it behind a proxy that sets the header.
	TrustProxyHeaders bool
	Logger            *slog.Logger
}

type handlerFunc func(ctx context.Context, p *callParams) (interface{}, error)

type method struct {
	write  bool
	handle handlerFunc
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Server struct {
	node      *core.Node
	authToken string
	logger    *slog.Logger
	tracer    trace.Tracer
	methods   map[string]method

	perMinute  float64
	burst      int
	trustProxy bool
	mu         sync.Mutex
	limiters   map[string]*clientLimiter
	now        func() time.Time
}

func NewServer(node *core.Node, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perMinute := float64(cfg.RequestsPerMinute)
	if perMinute <= 0 {
		perMinute = 120
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	s := &Server{
		node:       node,
		authToken:  strings.TrimSpace(cfg.AuthToken),
		logger:     logger.With("component", "rpc"),
		tracer:     otel.Tracer("birdswap/rpc"),
		perMinute:  perMinute,
		burst:      burst,
		trustProxy: cfg.TrustProxyHeaders,
		limiters:   make(map[string]*clientLimiter),
		now:        time.Now,
	}
	s.methods = s.routes()
	return s
}

// Handler returns the HTTP surface: JSON-RPC on POST /, plus health and
// prometheus endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")
	if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	m, ok := s.methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}

	module, name := splitMethod(req.Method)
	start := time.Now()
	ctx, span := s.tracer.Start(r.Context(), "rpc."+req.Method, trace.WithAttributes(
		attribute.String("rpc.system", "jsonrpc"),
		attribute.String("rpc.method", req.Method),
		attribute.Bool("rpc.write", m.write),
	))
	defer span.End()

	if m.write {
		if authErr := s.requireAuth(r); authErr != nil {
			s.finish(span, module, name, authErr.Code, start)
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		if !s.allowSource(s.clientSource(r)) {
			observability.ModuleMetrics().RecordThrottle(module, "rate_limit")
			s.finish(span, module, name, codeRateLimited, start)
			writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", nil)
			return
		}
	}

	params, err := decodeParams(req.Params)
	if err != nil {
		s.finish(span, module, name, codeInvalidParams, start)
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	result, err := m.handle(ctx, params)
	if err != nil {
		status, code, message := classify(err)
		span.RecordError(err)
		s.finish(span, module, name, code, start)
		if code == codeServerError {
			s.logger.Error("rpc call failed", slog.String("method", req.Method), slog.Any("error", err))
		}
		writeError(w, status, req.ID, code, message, errorData(err, code))
		return
	}
	s.finish(span, module, name, 0, start)
	writeResult(w, req.ID, result)
}

func (s *Server) finish(span trace.Span, module, name string, code int, start time.Time) {
	span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", code))
	if code != 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("code %d", code))
	}
	observability.ModuleMetrics().Observe(module, name, code, time.Since(start))
}

func splitMethod(full string) (string, string) {
	module, name, ok := strings.Cut(full, "_")
	if !ok {
		return "unknown", full
	}
	return module, name
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		s.logger.Warn("rpc credentials rejected",
			slog.String("remote", s.clientSource(r)),
			logging.MaskField("token", token))
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func (s *Server) allowSource(source string) bool {
	if source == "" {
		source = "unknown"
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(s.limiters, id)
		}
	}
	entry, ok := s.limiters[source]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(s.perMinute/60.0), s.burst)}
		s.limiters[source] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (s *Server) clientSource(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); s.trustProxy && forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				return candidate
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
