// Package rewriting generates resume bullet points from a candidate's verified STAR experiences.
package rewriting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/echiveai-alt/funnytime2-sub001/internal/llm"
	"github.com/echiveai-alt/funnytime2-sub001/internal/prompts"
	"github.com/echiveai-alt/funnytime2-sub001/internal/schemas"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
	"github.com/echiveai-alt/funnytime2-sub001/internal/validation"
)

const (
	// DefaultMaxBulletsPerRole is the hard cap on bullets kept for a single role
	DefaultMaxBulletsPerRole = 6
	// DefaultTemperature is the sampling temperature for bullet generation
	DefaultTemperature = 0.3
	// DefaultMaxOutputTokens is the token budget for bullet generation
	DefaultMaxOutputTokens = 4096

	// averageCharWidth converts the visual-width ceiling into a character hint for the prompt
	averageCharWidth = 0.9
)

// Options configures a Synthesizer
type Options struct {
	Tier              llm.ModelTier
	Temperature       *float32 // nil means DefaultTemperature; 0 is a valid setting
	MaxOutputTokens   int32
	MaxBulletsPerRole int
	MaxVisualWidth    float64
	Logger            *slog.Logger
}

// Input is everything the synthesizer needs for one run
type Input struct {
	JobTitle            string
	ExperiencesByRole   map[types.RoleKey][]types.CandidateExperience
	Roles               []types.Role
	MatchedRequirements []types.MatchResult
	Keywords            []string
	MatchMode           types.MatchMode
}

// Synthesizer is the BulletSynthesizer stage
type Synthesizer struct {
	client llm.Client
	opts   Options
	logger *slog.Logger
}

// NewSynthesizer creates a Synthesizer backed by client
func NewSynthesizer(client llm.Client, opts Options) *Synthesizer {
	if opts.Tier == "" {
		opts.Tier = llm.TierAdvanced
	}
	if opts.Temperature == nil || *opts.Temperature < 0 {
		t := float32(DefaultTemperature)
		opts.Temperature = &t
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if opts.MaxBulletsPerRole <= 0 {
		opts.MaxBulletsPerRole = DefaultMaxBulletsPerRole
	}
	if opts.MaxVisualWidth <= 0 {
		opts.MaxVisualWidth = validation.DefaultMaxVisualWidth
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{client: client, opts: opts, logger: logger}
}

// generatedBullets is the model's response shape
type generatedBullets struct {
	Roles []struct {
		RoleKey string   `json:"roleKey"`
		Bullets []string `json:"bullets"`
	} `json:"roles"`
}

// Synthesize generates bullets for every role in the input and reports keyword coverage.
// Every input role appears in the output, with an empty list when the model wrote nothing for it.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) (*types.BulletOutput, error) {
	mode := in.MatchMode
	if !mode.Valid() {
		mode = types.MatchModeExact
	}

	bulletsByRole := make(map[types.RoleKey][]types.BulletPoint, len(in.ExperiencesByRole))
	for key := range in.ExperiencesByRole {
		bulletsByRole[key] = []types.BulletPoint{}
	}

	if countExperiences(in.ExperiencesByRole) == 0 {
		used, notUsed := KeywordCoverage(bulletsByRole, in.Keywords, mode)
		return &types.BulletOutput{BulletsByRole: bulletsByRole, KeywordsUsed: used, KeywordsNotUsed: notUsed}, nil
	}

	prompt := s.BuildPrompt(in, mode)
	responseText, err := s.client.Complete(ctx, prompt, llm.CompletionOptions{
		Tier:            s.opts.Tier,
		Temperature:     *s.opts.Temperature,
		MaxOutputTokens: s.opts.MaxOutputTokens,
		JSON:            true,
	})
	var empty *llm.EmptyResponseError
	if errors.As(err, &empty) {
		return nil, &GenerationError{
			Message: "model returned no bullets; try shortening the input",
			Cause:   err,
		}
	}
	if err != nil {
		return nil, &APICallError{
			Message: "failed to generate bullets",
			Cause:   err,
		}
	}

	generated, err := parseBulletsResponse(responseText)
	if err != nil {
		return nil, err
	}

	for _, role := range generated.Roles {
		key := types.RoleKey(strings.TrimSpace(role.RoleKey))
		existing, ok := bulletsByRole[key]
		if !ok {
			s.logger.Debug("dropping bullets for unknown role", "role_key", role.RoleKey, "count", len(role.Bullets))
			continue
		}
		for _, text := range role.Bullets {
			if len(existing) >= s.opts.MaxBulletsPerRole {
				break
			}
			text = CleanBullet(text)
			if text == "" {
				continue
			}
			existing = append(existing, validation.MeasureBullet(text, s.opts.MaxVisualWidth))
		}
		bulletsByRole[key] = existing
	}

	used, notUsed := KeywordCoverage(bulletsByRole, in.Keywords, mode)
	return &types.BulletOutput{
		BulletsByRole:   bulletsByRole,
		KeywordsUsed:    used,
		KeywordsNotUsed: notUsed,
	}, nil
}

// BuildPrompt renders the generation prompt for the input
func (s *Synthesizer) BuildPrompt(in Input, mode types.MatchMode) string {
	modeKey := "match-mode-exact"
	if mode == types.MatchModeFlexible {
		modeKey = "match-mode-flexible"
	}

	return prompts.Format(prompts.MustGet("rewriting.json", "generate-bullets"), map[string]string{
		"JobTitle":             orDefault(in.JobTitle, "(not specified)"),
		"MatchedRequirements":  formatRequirements(in.MatchedRequirements),
		"Keywords":             orDefault(strings.Join(in.Keywords, ", "), "(none)"),
		"MatchModeInstruction": prompts.MustGet("rewriting.json", modeKey),
		"Experiences":          formatExperiences(in.ExperiencesByRole, in.Roles),
		"MaxBullets":           fmt.Sprintf("%d", s.opts.MaxBulletsPerRole),
		"MaxChars":             fmt.Sprintf("%d", int(s.opts.MaxVisualWidth/averageCharWidth)),
	})
}

func parseBulletsResponse(responseText string) (*generatedBullets, error) {
	jsonText := llm.CleanJSONBlock(responseText)

	if err := schemas.Validate(schemas.GeneratedBullets, jsonText); err != nil {
		return nil, &GenerationError{
			Message: "model output does not match the bullets format; try shortening the experiences or job description",
			Cause:   err,
		}
	}

	var generated generatedBullets
	if err := json.Unmarshal([]byte(jsonText), &generated); err != nil {
		return nil, &GenerationError{
			Message: "failed to parse JSON response; try shortening the input",
			Cause:   err,
		}
	}
	return &generated, nil
}

func formatRequirements(matched []types.MatchResult) string {
	if len(matched) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, m := range matched {
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", m.Requirement.Requirement, m.Requirement.Importance))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func formatExperiences(experiencesByRole map[types.RoleKey][]types.CandidateExperience, roles []types.Role) string {
	labels := make(map[types.RoleKey]string, len(roles))
	for _, role := range roles {
		labels[role.Key()] = role.Label()
	}

	var sb strings.Builder
	for _, key := range types.SortedRoleKeys(experiencesByRole) {
		experiences := experiencesByRole[key]
		if len(experiences) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("Role key %q", key))
		if label := labels[key]; label != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", label))
		}
		sb.WriteString(":\n")
		for _, exp := range experiences {
			sb.WriteString(fmt.Sprintf("- %s\n", exp.Title))
			writeField(&sb, "Situation", exp.Situation)
			writeField(&sb, "Task", exp.Task)
			writeField(&sb, "Action", exp.Action)
			writeField(&sb, "Result", exp.Result)
			if len(exp.Tags) > 0 {
				writeField(&sb, "Tags", strings.Join(exp.Tags, ", "))
			}
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func writeField(sb *strings.Builder, name, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	sb.WriteString(fmt.Sprintf("  %s: %s\n", name, value))
}

func countExperiences(experiencesByRole map[types.RoleKey][]types.CandidateExperience) int {
	n := 0
	for _, experiences := range experiencesByRole {
		n += len(experiences)
	}
	return n
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
