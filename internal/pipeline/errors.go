package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/echiveai-alt/funnytime2-sub001/internal/llm"
	"github.com/echiveai-alt/funnytime2-sub001/internal/parsing"
	"github.com/echiveai-alt/funnytime2-sub001/internal/ranking"
	"github.com/echiveai-alt/funnytime2-sub001/internal/rewriting"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
	"github.com/echiveai-alt/funnytime2-sub001/internal/usage"
	"github.com/echiveai-alt/funnytime2-sub001/internal/validation"
	"github.com/go-playground/validator/v10"
)

// Error codes reported to callers
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeAuth          = "AUTH_ERROR"
	CodeTransport     = "TRANSPORT_ERROR"
	CodeExtraction    = "EXTRACTION_ERROR"
	CodeScoringConfig = "SCORING_CONFIG_ERROR"
	CodeGeneration    = "GENERATION_ERROR"
	CodeQuotaExceeded = "QUOTA_EXCEEDED"
	CodeCandidateData = "CANDIDATE_DATA_ERROR"
	CodeCanceled      = "CANCELED"
	CodeInternal      = "INTERNAL_ERROR"
)

// ErrMissingUser is returned when a request carries no authenticated user id
var ErrMissingUser = errors.New("authenticated user id is required")

// QuotaExceededError reports that the user has no analyses left in the current window
type QuotaExceededError struct {
	Usage usage.Usage
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("analysis limit of %d reached for plan %s; resets at %s",
		e.Usage.AnalysesLimit, e.Usage.Plan, e.Usage.ResetsAt.Format("2006-01-02 15:04 MST"))
}

func (e *QuotaExceededError) Unwrap() error {
	return usage.ErrLimitReached
}

// CandidateDataError wraps a failure to load the candidate's stored data
type CandidateDataError struct {
	Cause error
}

func (e *CandidateDataError) Error() string {
	return fmt.Sprintf("failed to load candidate data: %v", e.Cause)
}

func (e *CandidateDataError) Unwrap() error {
	return e.Cause
}

// Error is the single top-level failure of a pipeline run
type Error struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`
	Stage     types.Stage `json:"-"`
	Cause     error       `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// classify maps a stage failure onto the top-level error envelope
func classify(err error, stage types.Stage) *Error {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr
	}

	e := &Error{Code: CodeInternal, Message: err.Error(), Stage: stage, Cause: err}

	var (
		valErr       *validation.ValidationError
		fieldErrs    validator.ValidationErrors
		quotaErr     *QuotaExceededError
		authErr      *llm.AuthError
		transErr     *llm.TransportError
		extractErr   *parsing.ExtractionError
		scoringErr   *ranking.ScoringConfigError
		genErr       *rewriting.GenerationError
		candidateErr *CandidateDataError
	)

	switch {
	case errors.Is(err, ErrMissingUser):
		e.Code = CodeAuth
	case errors.As(err, &valErr):
		e.Code = CodeValidation
		e.Message = valErr.Message
	case errors.As(err, &fieldErrs):
		e.Code = CodeValidation
		e.Message = describeFieldErrors(fieldErrs)
	case errors.As(err, &quotaErr):
		e.Code = CodeQuotaExceeded
		e.Message = quotaErr.Error()
	case errors.Is(err, context.Canceled):
		e.Code = CodeCanceled
		e.Message = "request canceled"
	case errors.As(err, &authErr):
		// the completion service rejected our credentials; not the caller's fault
		e.Code = CodeTransport
		e.Message = "completion service rejected credentials"
	case errors.As(err, &transErr):
		e.Code = CodeTransport
		e.Message = transErr.Message
		e.Retryable = transErr.Retryable
	case errors.As(err, &extractErr):
		e.Code = CodeExtraction
		e.Message = extractErr.Message
	case errors.As(err, &scoringErr):
		e.Code = CodeScoringConfig
		e.Message = scoringErr.Error()
	case errors.As(err, &genErr):
		e.Code = CodeGeneration
		e.Message = genErr.Message
	case errors.As(err, &candidateErr):
		e.Code = CodeCandidateData
		e.Retryable = true
	case errors.Is(err, context.DeadlineExceeded):
		e.Code = CodeTransport
		e.Message = "request timed out"
		e.Retryable = true
	}
	return e
}

func describeFieldErrors(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "invalid request"
	}
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
