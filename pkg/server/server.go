// Package server exposes the lead generation pipeline and run history over
// HTTP+JSON.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/leadscout-ai/leadscout/pkg/crew"
	"github.com/leadscout-ai/leadscout/pkg/errors"
	"github.com/leadscout-ai/leadscout/pkg/report"
	"github.com/leadscout-ai/leadscout/pkg/store"
	"github.com/leadscout-ai/leadscout/pkg/telemetry"
)

// Runner starts one crew run. Implemented by *crew.Crew.
type Runner interface {
	Kickoff(ctx context.Context, in crew.Inputs) (*crew.Output, error)
}

// Server routes HTTP+JSON requests to the crew and the run store.
type Server struct {
	runner    Runner
	runs      *store.RunStore
	metrics   *telemetry.RunMetrics
	reportDir string
	mux       *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithReportDir sets the directory reports are written into.
func WithReportDir(dir string) Option {
	return func(s *Server) { s.reportDir = dir }
}

// WithMetrics attaches run metrics.
func WithMetrics(rm *telemetry.RunMetrics) Option {
	return func(s *Server) { s.metrics = rm }
}

// New creates the HTTP server wrapper.
func New(runner Runner, runs *store.RunStore, opts ...Option) *Server {
	s := &Server{
		runner:    runner,
		runs:      runs,
		reportDir: ".",
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/leads", s.handleGenerate)
	mux.HandleFunc("GET /v1/runs", s.handleListRuns)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("DELETE /v1/runs/{id}", s.handleDeleteRun)
	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// generateRequest is the body of POST /v1/leads.
type generateRequest struct {
	Industry string `json:"industry"`
	Country  string `json:"country"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.CodeInvalidInput, "invalid request body", err))
		return
	}

	ctx := r.Context()
	start := time.Now()
	out, err := s.runner.Kickoff(ctx, crew.Inputs{Industry: req.Industry, Country: req.Country})
	if err != nil {
		s.metrics.RecordRun(ctx, string(store.RunStatusFailed), time.Since(start).Seconds(), 0)
		s.metrics.RecordError(ctx, err, "crew")
		writeError(w, err)
		return
	}

	run := RunFromOutput(out)
	run.Report = report.Build(out.Leads)
	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, run); err != nil {
			// The run succeeded; persistence failure should not hide the result.
			slog.ErrorContext(ctx, "server.run.save_failed",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.reportDir != "" {
		if _, err := report.Write(s.reportDir, out.Industry, out.Country, out.Leads); err != nil {
			slog.ErrorContext(ctx, "server.report.write_failed",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.metrics.RecordRun(ctx, string(run.Status), time.Since(start).Seconds(), len(run.Leads))
	s.metrics.RecordTokens(ctx, run.Model, run.PromptTokens, run.CompletionTokens)

	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, errors.New(errors.CodeInvalidInput, "limit must be a non-negative integer", err))
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.runs.DeleteRun(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunFromOutput converts a finished crew output into a persistable run.
func RunFromOutput(out *crew.Output) *store.Run {
	return &store.Run{
		ID:               out.RunID,
		Industry:         out.Industry,
		Country:          out.Country,
		Status:           store.RunStatusCompleted,
		Model:            out.Usage.Model,
		Leads:            out.Leads,
		Raw:              out.Raw,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		TotalTokens:      out.Usage.TotalTokens,
		TotalCost:        out.Usage.TotalCost,
		CreatedAt:        out.StartedAt,
		FinishedAt:       out.FinishedAt,
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	le := errors.AsLeadScoutError(err)
	var body errorBody
	body.Error.Code = string(le.Code)
	body.Error.Message = le.Message
	writeJSON(w, le.StatusCode, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("server.response.encode_failed", slog.String("error", err.Error()))
	}
}
