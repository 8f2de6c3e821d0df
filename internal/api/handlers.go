package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sprite-ai/reviewdesk/internal/analysis"
	"github.com/sprite-ai/reviewdesk/internal/model"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, model.HealthStatus{Status: "healthy", Service: ServiceName})
}

// --- Review ---

// reviewError is a failed review with the HTTP status it maps to.
type reviewError struct {
	status int
	detail string
}

func (e *reviewError) Error() string { return e.detail }

func (s *Server) validate(req *model.ReviewRequest) *reviewError {
	if strings.TrimSpace(req.Code) == "" {
		return &reviewError{http.StatusBadRequest, "Code cannot be empty"}
	}
	if utf8.RuneCountInString(req.Code) > s.maxCodeLength {
		return &reviewError{http.StatusBadRequest, fmt.Sprintf("Code exceeds %d characters", s.maxCodeLength)}
	}

	lang, err := model.ParseLanguage(string(req.Language))
	if err != nil {
		return &reviewError{http.StatusBadRequest, fmt.Sprintf("Unsupported language: %s", req.Language)}
	}
	req.Language = lang
	return nil
}

// reviewOne validates and reviews a single request.
func (s *Server) reviewOne(ctx context.Context, req model.ReviewRequest) (*model.ReviewResult, *reviewError) {
	if rerr := s.validate(&req); rerr != nil {
		return nil, rerr
	}

	s.log.Info().Str("language", string(req.Language)).Int("chars", len(req.Code)).Msg("processing code review")

	res, err := s.reviewer.Review(ctx, req)
	if err != nil {
		s.log.Error().Err(err).Msg("code review failed")
		return nil, &reviewError{http.StatusInternalServerError, "Error processing code review: " + err.Error()}
	}
	return res, nil
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req model.ReviewRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	res, rerr := s.reviewOne(r.Context(), req)
	if rerr != nil {
		s.writeError(w, rerr.status, rerr.detail)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// --- Batch review ---

func (s *Server) handleBatchReview(w http.ResponseWriter, r *http.Request) {
	var reqs []model.ReviewRequest
	if err := readJSON(r, &reqs); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	resp := model.BatchResponse{Reviews: make([]model.BatchItem, 0, len(reqs))}
	for _, req := range reqs {
		res, rerr := s.reviewOne(r.Context(), req)
		if rerr != nil {
			resp.Reviews = append(resp.Reviews, model.BatchItem{Error: rerr.detail})
			continue
		}
		resp.Reviews = append(resp.Reviews, model.BatchItem{ReviewResult: *res})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// --- Analyze ---

type analyzeRequest struct {
	Code     string         `json:"code"`
	Language model.Language `json:"language"`
	Skip     []string       `json:"skip,omitempty"`
}

type analyzeResponse struct {
	Summary     string        `json:"summary"`
	MaxSeverity string        `json:"max_severity"`
	Total       int           `json:"total"`
	Findings    []findingJSON `json:"findings"`
}

type findingJSON struct {
	Pass     string `json:"pass"`
	Line     int    `json:"line,omitempty"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func newAnalyzeResponse(results *analysis.Results) analyzeResponse {
	resp := analyzeResponse{
		Summary:     results.Summary(),
		MaxSeverity: results.MaxSeverity().String(),
		Total:       len(results.Findings),
		Findings:    []findingJSON{},
	}
	for _, f := range results.Findings {
		resp.Findings = append(resp.Findings, findingJSON{
			Pass:     f.Pass,
			Line:     f.Line,
			Category: f.Category,
			Message:  f.Message,
			Severity: f.Severity.String(),
		})
	}
	return resp
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	rr := model.ReviewRequest{Code: req.Code, Language: req.Language}
	if rerr := s.validate(&rr); rerr != nil {
		s.writeError(w, rerr.status, rerr.detail)
		return
	}

	results := analysis.Run(analysis.Source{Language: rr.Language, Code: rr.Code}, req.Skip)
	s.writeJSON(w, http.StatusOK, newAnalyzeResponse(results))
}
