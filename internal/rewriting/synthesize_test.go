package rewriting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/echiveai-alt/funnytime2-sub001/internal/llm"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient returns a canned response and records the last call
type stubClient struct {
	response string
	err      error
	calls    int
	prompt   string
	opts     llm.CompletionOptions
}

func (s *stubClient) Complete(_ context.Context, prompt string, opts llm.CompletionOptions) (string, error) {
	s.calls++
	s.prompt = prompt
	s.opts = opts
	return s.response, s.err
}

func (s *stubClient) Close() error { return nil }

func sampleInput() Input {
	return Input{
		JobTitle: "Senior Backend Engineer",
		Roles: []types.Role{
			{ID: "role-acme", Title: "Software Engineer", Company: "Acme"},
			{ID: "role-globex", Title: "Intern", Company: "Globex"},
		},
		ExperiencesByRole: map[types.RoleKey][]types.CandidateExperience{
			"role-acme": {{
				ID:        "exp-1",
				RoleID:    "role-acme",
				Title:     "Payments API rewrite",
				Situation: "Legacy monolith timing out under load",
				Action:    "Rewrote the payments API in Go",
				Result:    "Cut p99 latency by 40%",
				Tags:      []string{"Go", "PostgreSQL"},
			}},
			"role-globex": {},
		},
		MatchedRequirements: []types.MatchResult{{
			Requirement: types.JobRequirement{Requirement: "Go", Importance: types.ImportanceHigh, Category: types.CategoryTechnicalSkill},
			MatchType:   types.MatchExact,
		}},
		Keywords:  []string{"Go", "PostgreSQL", "Kafka", "go"},
		MatchMode: types.MatchModeExact,
	}
}

func TestSynthesize_PostProcessesModelOutput(t *testing.T) {
	longBullet := strings.Repeat("W", 200)
	client := &stubClient{response: "```json\n" + `{"roles": [
		{"roleKey": "role-acme", "bullets": [
			"- Rewrote the payments API in Go & PostgreSQL; cut p99 latency by 40%.",
			"   ",
			"` + longBullet + `",
			"Third", "Fourth", "Fifth"
		]},
		{"roleKey": "role-unknown", "bullets": ["Invented bullet"]}
	]}` + "\n```"}

	synth := NewSynthesizer(client, Options{MaxBulletsPerRole: 3})
	out, err := synth.Synthesize(context.Background(), sampleInput())
	require.NoError(t, err)
	require.Equal(t, 1, client.calls)

	assert.Equal(t, llm.TierAdvanced, client.opts.Tier)
	assert.InDelta(t, DefaultTemperature, client.opts.Temperature, 0.0001)
	assert.True(t, client.opts.JSON)

	require.Len(t, out.BulletsByRole, 2)
	assert.NotContains(t, out.BulletsByRole, types.RoleKey("role-unknown"))
	assert.NotNil(t, out.BulletsByRole["role-globex"])
	assert.Empty(t, out.BulletsByRole["role-globex"])

	acme := out.BulletsByRole["role-acme"]
	require.Len(t, acme, 3, "cap applies after empty bullets are dropped")
	assert.Equal(t, "Rewrote the payments API in Go and PostgreSQL, cut p99 latency by 40%", acme[0].Text)
	assert.False(t, acme[0].ExceedsWidth)
	assert.Greater(t, acme[0].VisualWidth, 0.0)
	assert.True(t, acme[1].ExceedsWidth)
	assert.InDelta(t, 220.0, acme[1].VisualWidth, 0.001)
	assert.Equal(t, "Third", acme[2].Text)

	assert.Equal(t, []string{"Go", "PostgreSQL"}, out.KeywordsUsed)
	assert.Equal(t, []string{"Kafka"}, out.KeywordsNotUsed)
}

func TestSynthesize_ZeroTemperatureIsHonored(t *testing.T) {
	client := &stubClient{response: `{"roles": []}`}
	zero := float32(0)

	_, err := NewSynthesizer(client, Options{Temperature: &zero}).Synthesize(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, float32(0), client.opts.Temperature)
}

func TestSynthesize_UnparseableOutput(t *testing.T) {
	client := &stubClient{response: "Here are some great bullets for you!"}

	_, err := NewSynthesizer(client, Options{}).Synthesize(context.Background(), sampleInput())
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Contains(t, genErr.Message, "shortening")
}

func TestSynthesize_WrongShape(t *testing.T) {
	client := &stubClient{response: `{"roles": [{"roleKey": "role-acme", "bullets": "not a list"}]}`}

	_, err := NewSynthesizer(client, Options{}).Synthesize(context.Background(), sampleInput())

	var genErr *GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestSynthesize_EmptyModelOutput(t *testing.T) {
	client := &stubClient{err: &llm.EmptyResponseError{Reason: "no candidates in response"}}

	_, err := NewSynthesizer(client, Options{}).Synthesize(context.Background(), sampleInput())
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Contains(t, genErr.Message, "shortening")
	assert.False(t, llm.IsRetryable(err))
}

func TestSynthesize_TransportErrorKeepsClassification(t *testing.T) {
	client := &stubClient{err: &llm.TransportError{Message: "rate limited", StatusCode: 429, Retryable: true}}

	_, err := NewSynthesizer(client, Options{}).Synthesize(context.Background(), sampleInput())
	require.Error(t, err)

	var apiErr *APICallError
	assert.True(t, errors.As(err, &apiErr))
	assert.True(t, llm.IsRetryable(err))
}

func TestSynthesize_NoExperiencesSkipsModel(t *testing.T) {
	client := &stubClient{}
	in := Input{
		ExperiencesByRole: map[types.RoleKey][]types.CandidateExperience{"role-1": {}},
		Keywords:          []string{"Go"},
	}

	out, err := NewSynthesizer(client, Options{}).Synthesize(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0, client.calls)
	assert.Empty(t, out.BulletsByRole["role-1"])
	assert.Empty(t, out.KeywordsUsed)
	assert.Equal(t, []string{"Go"}, out.KeywordsNotUsed)
}

func TestBuildPrompt(t *testing.T) {
	synth := NewSynthesizer(&stubClient{}, Options{MaxBulletsPerRole: 4})
	in := sampleInput()

	prompt := synth.BuildPrompt(in, types.MatchModeFlexible)

	assert.Contains(t, prompt, "Senior Backend Engineer")
	assert.Contains(t, prompt, `Role key "role-acme" (Software Engineer, Acme)`)
	assert.Contains(t, prompt, "Rewrote the payments API in Go")
	assert.Contains(t, prompt, "Cut p99 latency by 40%")
	assert.Contains(t, prompt, "Tags: Go, PostgreSQL")
	assert.Contains(t, prompt, "- Go (high)")
	assert.Contains(t, prompt, "at most 4 bullets")
	assert.Contains(t, prompt, "natural variants")
	assert.NotContains(t, prompt, "role-globex", "roles without experiences are not sent")
	assert.NotContains(t, prompt, "{{.")
}
