package server

import (
	"errors"
	"net/http"

	"github.com/echiveai-alt/funnytime2-sub001/internal/pipeline"
)

// ErrorBody is the JSON error envelope
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the code, message and retry hint of a failure
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Request-level codes that never reach the pipeline
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeRateLimited = "RATE_LIMITED"
)

// statusClientClosedRequest reports a run abandoned by its caller
const statusClientClosedRequest = 499

// HTTPStatus returns the HTTP status for an error code
func HTTPStatus(code string) int {
	switch code {
	case pipeline.CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case pipeline.CodeAuth:
		return http.StatusUnauthorized
	case pipeline.CodeQuotaExceeded, CodeRateLimited:
		return http.StatusTooManyRequests
	case pipeline.CodeTransport:
		return http.StatusBadGateway
	case pipeline.CodeExtraction, pipeline.CodeGeneration:
		return http.StatusUnprocessableEntity
	case pipeline.CodeCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorDetail converts any error to the envelope; non-pipeline errors become INTERNAL_ERROR
func errorDetail(err error) ErrorDetail {
	var pErr *pipeline.Error
	if errors.As(err, &pErr) {
		return ErrorDetail{Code: pErr.Code, Message: pErr.Message, Retryable: pErr.Retryable}
	}
	return ErrorDetail{Code: pipeline.CodeInternal, Message: "internal error", Retryable: false}
}
