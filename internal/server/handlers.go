package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/echiveai-alt/funnytime2-sub001/internal/pipeline"
	"github.com/echiveai-alt/funnytime2-sub001/internal/server/middleware"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// AnalyzeRequest is the request body for /analyses
type AnalyzeRequest struct {
	JobDescription   string          `json:"jobDescription"`
	KeywordMatchType types.MatchMode `json:"keywordMatchType,omitempty"`
}

// decodeAnalyzeRequest reads the body and binds the caller's identity
func (s *Server) decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (types.AnalysisRequest, *ErrorDetail) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		return types.AnalysisRequest{}, &ErrorDetail{Code: pipeline.CodeAuth, Message: "authenticated user id is required"}
	}

	var body AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return types.AnalysisRequest{}, &ErrorDetail{Code: CodeBadRequest, Message: "request body too large"}
		}
		return types.AnalysisRequest{}, &ErrorDetail{Code: CodeBadRequest, Message: "invalid request body: " + err.Error()}
	}

	return types.AnalysisRequest{
		UserID:           userID,
		JobDescription:   body.JobDescription,
		KeywordMatchType: body.KeywordMatchType,
	}, nil
}

// handleAnalyze runs one analysis and returns the combined result
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, detail := s.decodeAnalyzeRequest(w, r)
	if detail != nil {
		s.errorResponse(w, *detail)
		return
	}

	result, err := s.deps.Analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.errorResponse(w, errorDetail(err))
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleAnalyzeStream runs one analysis and streams stage transitions via SSE
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	req, detail := s.decodeAnalyzeRequest(w, r)
	if detail != nil {
		s.errorResponse(w, *detail)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, ErrorDetail{Code: pipeline.CodeInternal, Message: err.Error()})
		return
	}

	requestID := middleware.GetRequestID(r.Context())
	ctx := pipeline.WithProgress(r.Context(), func(event pipeline.ProgressEvent) {
		// stage markers only; the full result is sent once at the end
		event.Content = nil
		if err := sse.WriteEvent("stage", event); err != nil {
			s.logger.Warn("failed to write SSE event", "request_id", requestID, "error", err)
		}
	})

	result, err := s.deps.Analyzer.Analyze(ctx, req)
	if err != nil {
		sse.WriteError(errorDetail(err))
		return
	}
	sse.WriteResult(result)
}

// handleUsage returns the caller's quota snapshot
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Usage == nil {
		s.errorResponse(w, ErrorDetail{Code: pipeline.CodeInternal, Message: "usage tracking is not configured"})
		return
	}
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, ErrorDetail{Code: pipeline.CodeAuth, Message: "authenticated user id is required"})
		return
	}

	u, err := s.deps.Usage.Get(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to load usage", "request_id", middleware.GetRequestID(r.Context()), "user_id", userID, "error", err)
		s.errorResponse(w, ErrorDetail{Code: pipeline.CodeInternal, Message: "failed to load usage", Retryable: true})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"plan":             u.Plan,
		"analysesLimit":    u.AnalysesLimit,
		"analysesUsed":     u.AnalysesUsed,
		"analysesLeft":     u.Remaining(),
		"bulletsGenerated": u.BulletsGenerated,
		"resetsAt":         u.ResetsAt,
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
