package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/echiveai-alt/funnytime2-sub001/internal/analysiscache"
	"github.com/echiveai-alt/funnytime2-sub001/internal/llm"
	"github.com/echiveai-alt/funnytime2-sub001/internal/parsing"
	"github.com/echiveai-alt/funnytime2-sub001/internal/ranking"
	"github.com/echiveai-alt/funnytime2-sub001/internal/rewriting"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
	"github.com/echiveai-alt/funnytime2-sub001/internal/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const backendPosting = `Senior Backend Engineer at Acme Payments. We build payment infrastructure
for small businesses and need an engineer to own our ledger services. Requirements: strong
experience with Go and PostgreSQL, Kafka is a plus, and clear written communication with product partners.`

// fakeExtractor fails with errs in order, then returns result
type fakeExtractor struct {
	result *types.Stage1Result
	errs   []error
	calls  int
}

func (f *fakeExtractor) Extract(context.Context, string) (*types.Stage1Result, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	return f.result, nil
}

type fakeScorer struct {
	assessment *types.FitAssessment
	err        error
	calls      int
}

func (f *fakeScorer) Score([]types.JobRequirement, []string, map[types.RoleKey][]types.CandidateExperience, []types.Education, []types.Role) (*types.FitAssessment, error) {
	f.calls++
	return f.assessment, f.err
}

type fakeSynthesizer struct {
	out   *types.BulletOutput
	errs  []error
	calls int
	input rewriting.Input
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, in rewriting.Input) (*types.BulletOutput, error) {
	f.calls++
	f.input = in
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	return f.out, nil
}

type fakeCandidates struct {
	profile *types.CandidateProfile
	err     error
}

func (f *fakeCandidates) LoadCandidate(context.Context, string) (*types.CandidateProfile, error) {
	return f.profile, f.err
}

type fakeQuota struct {
	reserveErr error
	recordErr  error
	reserves   int
	releases   int
	records    [][2]int
}

func (f *fakeQuota) Reserve(context.Context, string) (usage.Usage, error) {
	if f.reserveErr != nil {
		return usage.Usage{Plan: usage.DefaultPlan, AnalysesLimit: 10, AnalysesUsed: 10}, f.reserveErr
	}
	f.reserves++
	return usage.Usage{Plan: usage.DefaultPlan, AnalysesLimit: 10, AnalysesUsed: f.reserves}, nil
}

func (f *fakeQuota) Release(context.Context, string) (usage.Usage, error) {
	f.releases++
	return usage.Usage{}, nil
}

func (f *fakeQuota) Record(_ context.Context, _ string, analyses, bullets int) (usage.Usage, error) {
	f.records = append(f.records, [2]int{analyses, bullets})
	return usage.Usage{}, f.recordErr
}

type harness struct {
	extractor   *fakeExtractor
	scorer      *fakeScorer
	synthesizer *fakeSynthesizer
	candidates  *fakeCandidates
	quota       *fakeQuota
	events      []ProgressEvent
	waits       int
	orch        *Orchestrator
}

func stage1() *types.Stage1Result {
	return &types.Stage1Result{
		JobTitle:       "Senior Backend Engineer",
		CompanySummary: "Acme builds payment infrastructure.",
		JobRequirements: []types.JobRequirement{
			{Requirement: "Go", Importance: types.ImportanceCritical, Category: types.CategoryTechnicalSkill},
			{Requirement: "PostgreSQL", Importance: types.ImportanceHigh, Category: types.CategoryTechnicalSkill},
		},
		AllKeywords: []string{"Go", "PostgreSQL", "Kafka"},
	}
}

func candidate() *types.CandidateProfile {
	return &types.CandidateProfile{
		Roles: []types.Role{{ID: "role-1", Title: "Software Engineer", Company: "Globex",
			StartDate: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)}},
		Experiences: []types.CandidateExperience{{
			ID: "exp-1", RoleID: "role-1", Title: "Ledger service",
			Action: "Built the ledger service in Go on PostgreSQL", Result: "Cut reconciliation time by 60%",
		}},
	}
}

func fitAssessment(isFit bool) *types.FitAssessment {
	score := 92
	if !isFit {
		score = 55
	}
	return &types.FitAssessment{
		OverallScore:          score,
		FitLevel:              ranking.FitLevelFor(score),
		IsFit:                 isFit,
		MatchedRequirements:   []types.MatchResult{},
		UnmatchedRequirements: []types.MatchResult{},
		CriticalGaps:          []types.JobRequirement{},
		AbsoluteGaps:          []types.JobRequirement{},
	}
}

func newHarness(isFit bool) *harness {
	h := &harness{
		extractor: &fakeExtractor{result: stage1()},
		scorer:    &fakeScorer{assessment: fitAssessment(isFit)},
		synthesizer: &fakeSynthesizer{out: &types.BulletOutput{
			BulletsByRole: map[types.RoleKey][]types.BulletPoint{
				"role-1": {{Text: "Built the ledger service in Go", VisualWidth: 25}, {Text: "Cut reconciliation time by 60%", VisualWidth: 26}},
			},
			KeywordsUsed:    []string{"Go"},
			KeywordsNotUsed: []string{"PostgreSQL", "Kafka"},
		}},
		candidates: &fakeCandidates{profile: candidate()},
		quota:      &fakeQuota{},
	}
	h.orch = h.build(nil)
	return h
}

func (h *harness) build(cache Stage1Cache) *Orchestrator {
	orch := New(Deps{
		Extractor:   h.extractor,
		Scorer:      h.scorer,
		Synthesizer: h.synthesizer,
		Candidates:  h.candidates,
		Cache:       cache,
		Quota:       h.quota,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnProgress:  func(e ProgressEvent) { h.events = append(h.events, e) },
	}, DefaultConfig())
	orch.retry.wait = func(ctx context.Context, _ time.Duration) error {
		h.waits++
		return ctx.Err()
	}
	return orch
}

func request() types.AnalysisRequest {
	return types.AnalysisRequest{UserID: "user-1", JobDescription: backendPosting}
}

func TestAnalyze_FitRunGeneratesBullets(t *testing.T) {
	h := newHarness(true)

	result, err := h.orch.Analyze(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, []types.Stage{types.StageStart, types.StageExtracting, types.StageMatching, types.StageGenerating, types.StageDone}, result.Stages)
	assert.Equal(t, "Senior Backend Engineer", result.JobTitle)
	assert.Len(t, result.JobRequirements, 2)
	assert.True(t, result.FitAssessment.IsFit)
	require.NotNil(t, result.Bullets)
	assert.Equal(t, 2, result.Bullets.TotalBullets())
	assert.Empty(t, result.BulletGenerationError)
	assert.True(t, result.ActionPlan.ReadyForApplication)
	assert.True(t, result.ActionPlan.ReadyForBulletGeneration)
	assert.False(t, result.FromCache)

	assert.Equal(t, 1, h.synthesizer.calls)
	assert.Equal(t, types.MatchModeExact, h.synthesizer.input.MatchMode)
	assert.Equal(t, []string{"Go", "PostgreSQL", "Kafka"}, h.synthesizer.input.Keywords)
	assert.Equal(t, 1, h.quota.reserves, "analysis counted exactly once")
	assert.Equal(t, 0, h.quota.releases)
	assert.Equal(t, [][2]int{{0, 2}}, h.quota.records)

	require.Len(t, h.events, 5)
	assert.Equal(t, types.StageDone, h.events[4].Stage)
	assert.Equal(t, "user-1", h.events[0].UserID)
}

func TestAnalyze_NotFitNeverCallsSynthesizer(t *testing.T) {
	h := newHarness(false)

	result, err := h.orch.Analyze(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, 0, h.synthesizer.calls)
	assert.Nil(t, result.Bullets)
	assert.Equal(t, []types.Stage{types.StageStart, types.StageExtracting, types.StageMatching, types.StageSkipped, types.StageDone}, result.Stages)
	assert.False(t, result.ActionPlan.ReadyForApplication)
	assert.False(t, result.ActionPlan.ReadyForBulletGeneration)
	assert.Equal(t, 1, h.quota.reserves)
	assert.Equal(t, 0, h.quota.releases)
	assert.Empty(t, h.quota.records)
}

func TestAnalyze_NoExperiencesSkipsGeneration(t *testing.T) {
	h := newHarness(true)
	h.candidates.profile = &types.CandidateProfile{}

	result, err := h.orch.Analyze(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, 0, h.synthesizer.calls)
	assert.Contains(t, result.Stages, types.StageSkipped)
}

func TestAnalyze_ShortJobDescriptionRejectedBeforeNetwork(t *testing.T) {
	h := newHarness(true)
	req := request()
	req.JobDescription = "Go engineer wanted. Apply now."

	result, err := h.orch.Analyze(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, result)

	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, CodeValidation, pErr.Code)
	assert.Equal(t, types.StageStart, pErr.Stage)
	assert.False(t, pErr.Retryable)

	assert.Equal(t, 0, h.extractor.calls)
	assert.Equal(t, 0, h.scorer.calls)
	assert.Equal(t, 0, h.quota.reserves)
	assert.Equal(t, 0, h.quota.releases)
	assert.Equal(t, types.StageFailed, h.events[len(h.events)-1].Stage)
}

func TestAnalyze_MissingUser(t *testing.T) {
	h := newHarness(true)
	req := request()
	req.UserID = "  "

	_, err := h.orch.Analyze(context.Background(), req)

	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, CodeAuth, pErr.Code)
	assert.Equal(t, 0, h.extractor.calls)
}

func TestAnalyze_UnknownMatchMode(t *testing.T) {
	h := newHarness(true)
	req := request()
	req.KeywordMatchType = "fuzzy"

	_, err := h.orch.Analyze(context.Background(), req)

	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, CodeValidation, pErr.Code)
	assert.Contains(t, pErr.Message, "KeywordMatchType")
}

func TestAnalyze_QuotaExceeded(t *testing.T) {
	h := newHarness(true)
	h.quota.reserveErr = usage.ErrLimitReached

	_, err := h.orch.Analyze(context.Background(), request())

	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, CodeQuotaExceeded, pErr.Code)
	assert.Contains(t, pErr.Message, "limit of 10")
	assert.True(t, errors.Is(err, usage.ErrLimitReached))
	assert.Equal(t, 0, h.extractor.calls)
}

func TestAnalyze_RetriesRetryableExtractionErrors(t *testing.T) {
	h := newHarness(true)
	rateLimited := &llm.TransportError{Message: "rate limited", StatusCode: 429, Retryable: true}
	h.extractor.errs = []error{rateLimited, &parsing.APICallError{Message: "timeout", Cause: rateLimited}}

	result, err := h.orch.Analyze(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, 3, h.extractor.calls)
	assert.Equal(t, 2, h.waits)
	assert.Equal(t, "Senior Backend Engineer", result.JobTitle)
}

func TestAnalyze_GivesUpAfterMaxAttempts(t *testing.T) {
	h := newHarness(true)
	unavailable := &llm.TransportError{Message: "service unavailable", StatusCode: 503, Retryable: true}
	h.extractor.errs = []error{unavailable, unavailable, unavailable, unavailable}

	_, err := h.orch.Analyze(context.Background(), request())

	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, CodeTransport, pErr.Code)
	assert.True(t, pErr.Retryable)
	assert.Equal(t, types.StageExtracting, pErr.Stage)
	assert.Equal(t, DefaultRetryAttempts, h.extractor.calls)
	assert.Equal(t, DefaultRetryAttempts-1, h.waits)
	assert.Equal(t, 1, h.quota.releases, "reservation returned for a failed run")
	assert.Empty(t, h.quota.records)
}

func TestAnalyze_ExtractionErrorNotRetried(t *testing.T) {
	h := newHarness(true)
	h.extractor.errs = []error{&parsing.ExtractionError{Message: "failed to parse JSON response; try shortening the job description"}}

	_, err := h.orch.Analyze(context.Background(), request())

	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, CodeExtraction, pErr.Code)
	assert.False(t, pErr.Retryable)
	assert.Equal(t, 1, h.extractor.calls)
	assert.Equal(t, 0, h.waits)
}

func TestAnalyze_ScoringConfigErrorIsFatal(t *testing.T) {
	h := newHarness(true)
	h.scorer.err = &ranking.ScoringConfigError{Index: 0, Field: "category", Value: "certification", Message: "unknown category"}

	_, err := h.orch.Analyze(context.Background(), request())

	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, CodeScoringConfig, pErr.Code)
	assert.Equal(t, types.StageMatching, pErr.Stage)
	assert.Equal(t, 1, h.quota.releases)
	assert.Empty(t, h.quota.records)
}

func TestAnalyze_CandidateDataError(t *testing.T) {
	h := newHarness(true)
	h.candidates.err = errors.New("connection refused")

	_, err := h.orch.Analyze(context.Background(), request())

	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, CodeCandidateData, pErr.Code)
	assert.Equal(t, 0, h.scorer.calls)
}

func TestAnalyze_BulletFailureKeepsAssessment(t *testing.T) {
	h := newHarness(true)
	h.synthesizer.errs = []error{&rewriting.GenerationError{Message: "failed to parse JSON response; try shortening the input"}}

	result, err := h.orch.Analyze(context.Background(), request())
	require.NoError(t, err)

	assert.True(t, result.FitAssessment.IsFit)
	assert.Nil(t, result.Bullets)
	assert.Contains(t, result.BulletGenerationError, "shortening")
	assert.False(t, result.ActionPlan.ReadyForApplication)
	assert.True(t, result.ActionPlan.ReadyForBulletGeneration)
	assert.Equal(t, types.StageDone, result.Stages[len(result.Stages)-1])
	assert.Equal(t, 1, h.synthesizer.calls)
	assert.Equal(t, 0, h.quota.releases, "a completed run keeps its analysis")
	assert.Empty(t, h.quota.records)
}

func TestAnalyze_UsageRecordFailureIsLogged(t *testing.T) {
	h := newHarness(true)
	h.quota.recordErr = errors.New("deadlock detected")

	result, err := h.orch.Analyze(context.Background(), request())
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Len(t, h.quota.records, 1)
}

func TestAnalyze_CacheHitSkipsExtractor(t *testing.T) {
	h := newHarness(true)
	cache := analysiscache.New(analysiscache.NewMemoryStore())
	orch := h.build(cache)

	first, err := orch.Analyze(context.Background(), request())
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	req := request()
	req.JobDescription = "   " + strings.ToUpper(backendPosting) + "\n\n"
	second, err := orch.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, 1, h.extractor.calls)
	assert.Equal(t, first.JobTitle, second.JobTitle)
	assert.Equal(t, 2, h.quota.reserves, "cached runs still count as analyses")
}

func TestAnalyze_CanceledContext(t *testing.T) {
	h := newHarness(true)
	ctx, cancel := context.WithCancel(context.Background())
	h.extractor.errs = []error{&llm.TransportError{Message: "timeout", Retryable: true, Cause: context.DeadlineExceeded}}
	h.orch.retry.wait = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := h.orch.Analyze(ctx, request())

	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, CodeCanceled, pErr.Code)
	assert.Equal(t, 1, h.extractor.calls)
}

func TestAnalyze_WithRealScorer(t *testing.T) {
	h := newHarness(true)
	orch := New(Deps{
		Extractor:   h.extractor,
		Scorer:      ranking.NewScorer(),
		Synthesizer: h.synthesizer,
		Candidates:  h.candidates,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, DefaultConfig())

	result, err := orch.Analyze(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, 100, result.FitAssessment.OverallScore)
	assert.True(t, result.FitAssessment.IsFit)
	assert.Len(t, result.FitAssessment.MatchedRequirements, 2)
	assert.Equal(t, 1, h.synthesizer.calls)
}

func TestAnalyze_ContextProgressCallback(t *testing.T) {
	h := newHarness(false)

	var streamed []types.Stage
	ctx := WithProgress(context.Background(), func(e ProgressEvent) {
		streamed = append(streamed, e.Stage)
	})

	result, err := h.orch.Analyze(ctx, request())
	require.NoError(t, err)

	assert.Equal(t, result.Stages, streamed)
	assert.Len(t, h.events, len(streamed), "Deps.OnProgress still receives every event")
}

// gatedExtractor signals entered and blocks until gate is closed
type gatedExtractor struct {
	entered chan struct{}
	gate    chan struct{}
	result  *types.Stage1Result
}

func (g *gatedExtractor) Extract(ctx context.Context, _ string) (*types.Stage1Result, error) {
	close(g.entered)
	select {
	case <-g.gate:
		return g.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestAnalyze_ConcurrentRunsCannotShareLastAnalysis(t *testing.T) {
	ctx := context.Background()
	quota := usage.NewService()
	_, err := quota.Record(ctx, "user-1", usage.DefaultAnalysesLimit-1, 0)
	require.NoError(t, err)

	extractor := &gatedExtractor{entered: make(chan struct{}), gate: make(chan struct{}), result: stage1()}
	orch := New(Deps{
		Extractor:  extractor,
		Scorer:     &fakeScorer{assessment: fitAssessment(false)},
		Candidates: &fakeCandidates{profile: candidate()},
		Quota:      quota,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, DefaultConfig())

	firstErr := make(chan error, 1)
	go func() {
		_, err := orch.Analyze(ctx, request())
		firstErr <- err
	}()
	<-extractor.entered

	_, err = orch.Analyze(ctx, request())
	var pErr *Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, CodeQuotaExceeded, pErr.Code)

	close(extractor.gate)
	require.NoError(t, <-firstErr)

	u, err := quota.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, usage.DefaultAnalysesLimit, u.AnalysesUsed)
}

func TestAnalyze_FailedRunReleasesReservation(t *testing.T) {
	ctx := context.Background()
	quota := usage.NewService()
	h := newHarness(true)
	h.extractor.errs = []error{&parsing.ExtractionError{Message: "failed to parse JSON response"}}

	orch := New(Deps{
		Extractor:  h.extractor,
		Scorer:     h.scorer,
		Candidates: h.candidates,
		Quota:      quota,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, DefaultConfig())

	_, err := orch.Analyze(ctx, request())
	require.Error(t, err)

	u, err := quota.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, u.AnalysesUsed)
}
