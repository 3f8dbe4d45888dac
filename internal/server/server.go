// Package server exposes the OpenAI-compatible speech HTTP API.
//
// The surface is a single POST /v1/audio/speech endpoint plus a voices
// listing and the Swagger UI. An Authorization header is accepted and
// ignored, per the compatibility contract.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/tonegate/tonegate/docs"
	"github.com/tonegate/tonegate/internal/observability"
	"github.com/tonegate/tonegate/internal/pipeline"
	"github.com/tonegate/tonegate/internal/speech"
	"github.com/tonegate/tonegate/internal/voice"
)

// maxBodyBytes bounds the request body; speech inputs are short text.
const maxBodyBytes = 1 << 20

// Server serves the speech API on a single port.
type Server struct {
	port     int
	timeout  time.Duration
	pipe     *pipeline.Pipeline
	registry *voice.Registry
	server   *http.Server
}

// New creates the API server. timeout is the per-request deadline
// covering queueing, inference, and encoding.
func New(port int, timeout time.Duration, pipe *pipeline.Pipeline, registry *voice.Registry) *Server {
	return &Server{port: port, timeout: timeout, pipe: pipe, registry: registry}
}

// Routes returns the API mux; exported for tests.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/speech", methodOnly(http.MethodPost, s.handleSpeech))
	mux.HandleFunc("/v1/audio/voices", methodOnly(http.MethodGet, s.handleVoices))
	mux.Handle("/swagger/", methodOnly(http.MethodGet, httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	).ServeHTTP))
	return mux
}

// methodOnly emulates Go 1.22+ method-scoped mux patterns on the Go 1.21
// ServeMux: wrong-method requests get 405 with an Allow header, and HEAD
// is accepted wherever GET is.
func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", method)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// Listen starts the HTTP server. It blocks until the context is
// cancelled, then drains with a short grace period.
func (s *Server) Listen(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("speech api listening", "port", s.port)

	go func() {
		<-ctx.Done()
		slog.Info("speech api shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("speech api listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleSpeech synthesizes speech from text.
//
// @Summary     Generate speech audio from text
// @Description OpenAI-compatible speech synthesis. Input segments are separated by "|" and paired
// @Description with the comma-separated language list; when fewer languages than segments are
// @Description given, the last language repeats. Unknown voices resolve to the nearest style
// @Description rather than failing.
// @Tags        audio
// @Accept      json
// @Produce     audio/mpeg
// @Produce     audio/wav
// @Param       request  body  speech.RawRequest  true  "Synthesis request"
// @Success     200  {file}    binary  "Encoded audio in the requested format"
// @Failure     400  {object}  errorBody  "Invalid request field"
// @Failure     500  {object}  errorBody  "Assembly or encoding failure"
// @Failure     502  {object}  errorBody  "Inference engine failure"
// @Failure     504  {object}  errorBody  "Request deadline exceeded"
// @Router      /v1/audio/speech [post]
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := slog.With(slog.String("request_id", uuid.NewString()))

	var raw speech.RawRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid json: "+err.Error())
		observability.RecordRequest("invalid", time.Since(start))
		return
	}

	if !speech.KnownModel(raw.Model) {
		logger.Info("unknown model requested, serving default",
			slog.String("model", raw.Model),
			slog.String("default", speech.DefaultModel))
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.pipe.Speak(ctx, raw)
	if err != nil {
		status, kind := classify(err)
		logger.Warn("speech request failed",
			slog.Int("status", status),
			slog.String("error", err.Error()))
		writeError(w, status, kind, err.Error())
		observability.RecordRequest(outcome(status), time.Since(start))
		return
	}

	w.Header().Set("Content-Type", result.Format.ContentType())
	if result.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	_, _ = w.Write(result.Audio)

	logger.Info("speech request served",
		slog.String("format", string(result.Format)),
		slog.Int("bytes", len(result.Audio)),
		slog.Bool("cached", result.Cached),
		slog.Duration("took", time.Since(start)))
	status := "ok"
	if result.Cached {
		status = "cached"
	}
	observability.RecordRequest(status, time.Since(start))
}

// handleVoices lists the available styles and the alias table.
//
// @Summary     List available voices
// @Tags        audio
// @Produce     json
// @Success     200  {object}  voicesBody
// @Router      /v1/audio/voices [get]
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	aliases := make(map[string]string)
	for name, id := range s.registry.Aliases() {
		aliases[name] = string(id)
	}
	langs := make([]string, 0)
	for _, code := range s.registry.Languages() {
		langs = append(langs, string(code))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(voicesBody{
		Voices:    s.registry.Styles(),
		Aliases:   aliases,
		Default:   string(s.registry.Default()),
		Languages: langs,
	})
}

type voicesBody struct {
	Voices    []voice.Style     `json:"voices"`
	Aliases   map[string]string `json:"aliases"`
	Default   string            `json:"default"`
	Languages []string          `json:"languages"`
}

// errorBody is the OpenAI-style error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Message: message, Type: kind}})
}

// classify maps pipeline errors onto HTTP statuses: client mistakes are
// 400, engine failures 502, deadline expiry 504, everything else 500.
func classify(err error) (int, string) {
	var verr *speech.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, "invalid_request_error"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "timeout_error"
	}
	var ierr *speech.InferenceError
	if errors.As(err, &ierr) {
		return http.StatusBadGateway, "engine_error"
	}
	return http.StatusInternalServerError, "server_error"
}

func outcome(status int) string {
	switch {
	case status == http.StatusGatewayTimeout:
		return "timeout"
	case status >= 500:
		return "error"
	default:
		return "invalid"
	}
}
