// Package parsing turns raw job description text into structured, atomic job requirements.
package parsing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/echiveai-alt/funnytime2-sub001/internal/llm"
	"github.com/echiveai-alt/funnytime2-sub001/internal/prompts"
	"github.com/echiveai-alt/funnytime2-sub001/internal/schemas"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// DefaultMaxOutputTokens is the token budget for requirement extraction
const DefaultMaxOutputTokens = 4096

// Options configures an Extractor
type Options struct {
	Tier            llm.ModelTier
	MaxOutputTokens int32
}

// Extractor is the RequirementExtractor stage
type Extractor struct {
	client llm.Client
	opts   Options
}

// NewExtractor creates an Extractor backed by client
func NewExtractor(client llm.Client, opts Options) *Extractor {
	if opts.Tier == "" {
		opts.Tier = llm.TierStandard
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return &Extractor{client: client, opts: opts}
}

// Extract issues one deterministic completion for jobDescription and returns the
// normalized requirements. Callers validate the input length beforehand.
func (e *Extractor) Extract(ctx context.Context, jobDescription string) (*types.Stage1Result, error) {
	prompt := BuildExtractionPrompt(jobDescription)

	responseText, err := e.client.Complete(ctx, prompt, llm.CompletionOptions{
		Tier:            e.opts.Tier,
		Temperature:     0,
		MaxOutputTokens: e.opts.MaxOutputTokens,
		JSON:            true,
	})
	var empty *llm.EmptyResponseError
	if errors.As(err, &empty) {
		return nil, &ExtractionError{
			Message: "model returned no requirements; try shortening the job description",
			Cause:   err,
		}
	}
	if err != nil {
		return nil, &APICallError{
			Message: "failed to extract job requirements",
			Cause:   err,
		}
	}

	result, err := parseJSONResponse(responseText)
	if err != nil {
		return nil, err
	}

	postProcess(result)
	return result, nil
}

// BuildExtractionPrompt constructs the extraction prompt for a job description
func BuildExtractionPrompt(jobDescription string) string {
	schema := llm.JobRequirementsSchema(
		prompts.MustGet("parsing.json", "extract-requirements"),
		prompts.MustGetLines("parsing.json", "extract-requirements-rules"),
	)
	return llm.BuildExtractionPrompt(schema, jobDescription)
}

// parseJSONResponse validates the model output against the requirements schema and decodes it
func parseJSONResponse(jsonText string) (*types.Stage1Result, error) {
	jsonText = llm.CleanJSONBlock(jsonText)

	if err := schemas.Validate(schemas.JobRequirements, jsonText); err != nil {
		return nil, &ExtractionError{
			Message: "model output does not match the requirements format; try shortening the job description to the role and qualifications",
			Cause:   err,
		}
	}

	var result types.Stage1Result
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, &ExtractionError{
			Message: "failed to parse JSON response; try shortening the job description",
			Cause:   err,
		}
	}
	return &result, nil
}
