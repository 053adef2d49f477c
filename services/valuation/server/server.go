// Package server exposes the valuation service over a small JSON HTTP
// API.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"valuator-backend/lib/telemetry"
	"valuator-backend/services/valuation"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("valuator.services.valuation.server")

type Server struct {
	svc *valuation.Service
}

func New(svc *valuation.Service) *Server {
	return &Server{svc: svc}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /api/test", s.handleTest)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

type evaluateRequest struct {
	RefNumber string `json:"refNumber"`
}

type successResponse struct {
	Success        bool   `json:"success"`
	Data           any    `json:"data"`
	ProcessingTime string `json:"processingTime,omitempty"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleEvaluate")
	defer span.End()

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, valuation.KindInvalidInput, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	span.SetAttributes(attribute.String("ref_number", req.RefNumber))

	start := time.Now()
	result, err := s.svc.Evaluate(ctx, req.RefNumber)
	if err != nil {
		kind := valuation.KindOf(err)
		span.SetStatus(codes.Error, string(kind))
		slog.WarnContext(ctx, "evaluate request failed",
			"ref_number", req.RefNumber, "kind", string(kind), "err", err)
		writeError(w, kind, valuation.PublicMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success:        true,
		Data:           result,
		ProcessingTime: time.Since(start).Round(100 * time.Millisecond).String(),
	})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleTest")
	defer span.End()

	result, err := s.svc.ProbeTarget(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "probe failed", "err", err)
		writeError(w, valuation.KindOf(err), valuation.PublicMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: result})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.History(r.Context(), 20)
	if err != nil {
		slog.WarnContext(r.Context(), "history read failed", "err", err)
		writeError(w, valuation.KindInternal, valuation.PublicMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusForKind maps pipeline failure kinds onto HTTP status codes.
func StatusForKind(kind valuation.Kind) int {
	switch kind {
	case valuation.KindInvalidInput:
		return http.StatusBadRequest
	case valuation.KindAuth:
		return http.StatusUnauthorized
	case valuation.KindBlocked:
		return http.StatusForbidden
	case valuation.KindNoSuggestions, valuation.KindInsufficientData:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, kind valuation.Kind, message string) {
	writeJSON(w, StatusForKind(kind), errorResponse{
		Success: false,
		Error:   errorBody{Kind: string(kind), Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}
