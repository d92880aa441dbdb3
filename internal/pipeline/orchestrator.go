// Package pipeline sequences requirement extraction, fit scoring and bullet synthesis into one analysis run.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/echiveai-alt/funnytime2-sub001/internal/rewriting"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
	"github.com/echiveai-alt/funnytime2-sub001/internal/usage"
	"github.com/echiveai-alt/funnytime2-sub001/internal/validation"
)

// Run outcomes reported to Metrics
const (
	OutcomeDone    = "done"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// RequirementExtractor turns a job description into structured requirements
type RequirementExtractor interface {
	Extract(ctx context.Context, jobDescription string) (*types.Stage1Result, error)
}

// FitScorer matches candidate data against requirements
type FitScorer interface {
	Score(
		requirements []types.JobRequirement,
		keywords []string,
		experiencesByRole map[types.RoleKey][]types.CandidateExperience,
		education []types.Education,
		roles []types.Role,
	) (*types.FitAssessment, error)
}

// BulletSynthesizer writes resume bullets for a fit candidate
type BulletSynthesizer interface {
	Synthesize(ctx context.Context, in rewriting.Input) (*types.BulletOutput, error)
}

// CandidateSource loads the read-only candidate snapshot for a run
type CandidateSource interface {
	LoadCandidate(ctx context.Context, userID string) (*types.CandidateProfile, error)
}

// Stage1Cache stores extraction results. Implementations absorb their own failures.
type Stage1Cache interface {
	Get(ctx context.Context, userID, jobDescription string) *types.Stage1Result
	Put(ctx context.Context, userID, jobDescription string, result *types.Stage1Result)
}

// Quota enforces and records per-user analysis limits. Reserve atomically takes one
// analysis, Release returns it for a run that failed and Record adds the bullets of a
// completed run.
type Quota interface {
	Reserve(ctx context.Context, userID string) (usage.Usage, error)
	Release(ctx context.Context, userID string) (usage.Usage, error)
	Record(ctx context.Context, userID string, analyses, bullets int) (usage.Usage, error)
}

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Stage   types.Stage `json:"stage"`
	Message string      `json:"message"`
	UserID  string      `json:"userId,omitempty"`
	Content any         `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

type progressKey struct{}

// WithProgress returns a context whose runs also report progress to cb, in addition to
// Deps.OnProgress.
func WithProgress(ctx context.Context, cb ProgressCallback) context.Context {
	return context.WithValue(ctx, progressKey{}, cb)
}

// ProgressFromContext returns the callback set by WithProgress, or nil
func ProgressFromContext(ctx context.Context) ProgressCallback {
	cb, _ := ctx.Value(progressKey{}).(ProgressCallback)
	return cb
}

// Config holds the orchestrator's tunables
type Config struct {
	JobDescriptionLimits validation.JobDescriptionLimits
	RetryAttempts        int
	RetryDelay           time.Duration
	DefaultMatchMode     types.MatchMode
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		JobDescriptionLimits: validation.DefaultJobDescriptionLimits(),
		RetryAttempts:        DefaultRetryAttempts,
		RetryDelay:           DefaultRetryDelay,
		DefaultMatchMode:     types.MatchModeExact,
	}
}

// Deps are the orchestrator's collaborators. Cache, Quota, Metrics, Logger and
// OnProgress are optional.
type Deps struct {
	Extractor   RequirementExtractor
	Scorer      FitScorer
	Synthesizer BulletSynthesizer
	Candidates  CandidateSource
	Cache       Stage1Cache
	Quota       Quota
	Metrics     Metrics
	Logger      *slog.Logger
	OnProgress  ProgressCallback
}

// Orchestrator is the PipelineOrchestrator
type Orchestrator struct {
	deps    Deps
	cfg     Config
	logger  *slog.Logger
	metrics Metrics
	retry   *retrier
}

// New creates an Orchestrator
func New(deps Deps, cfg Config) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if !cfg.DefaultMatchMode.Valid() {
		cfg.DefaultMatchMode = types.MatchModeExact
	}
	return &Orchestrator{
		deps:    deps,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		retry:   newRetrier(cfg.RetryAttempts, cfg.RetryDelay, logger, metrics),
	}
}

// run carries the state of one request through the stages
type run struct {
	req      types.AnalysisRequest
	result   *types.AnalysisResult
	stage    types.Stage
	progress ProgressCallback
	reserved bool
}

func (o *Orchestrator) enter(r *run, stage types.Stage, message string, content any) {
	r.stage = stage
	r.result.Stages = append(r.result.Stages, stage)
	if o.deps.OnProgress == nil && r.progress == nil {
		return
	}
	event := ProgressEvent{
		Stage:   stage,
		Message: message,
		UserID:  r.req.UserID,
		Content: content,
	}
	if o.deps.OnProgress != nil {
		o.deps.OnProgress(event)
	}
	if r.progress != nil {
		r.progress(event)
	}
}

// Analyze runs START → EXTRACTING → MATCHING → (GENERATING | SKIPPED) → DONE for one request.
// Any failure moves the run to FAILED and is returned as *Error.
func (o *Orchestrator) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error) {
	r := &run{
		req: req,
		result: &types.AnalysisResult{
			JobRequirements: []types.JobRequirement{},
			AllKeywords:     []string{},
			Stages:          []types.Stage{},
		},
		progress: ProgressFromContext(ctx),
	}
	o.enter(r, types.StageStart, "Validating request", nil)

	result, err := o.analyze(ctx, r)
	if err != nil {
		pErr := classify(err, r.stage)
		o.release(ctx, r)
		o.enter(r, types.StageFailed, pErr.Message, pErr)
		o.metrics.IncOutcome(OutcomeFailed)
		o.logger.Error("analysis failed",
			"user_id", r.req.UserID, "stage", pErr.Stage, "code", pErr.Code, "retryable", pErr.Retryable, "error", err)
		return nil, pErr
	}
	return result, nil
}

func (o *Orchestrator) analyze(ctx context.Context, r *run) (*types.AnalysisResult, error) {
	if err := o.prepare(r); err != nil {
		return nil, err
	}
	userID := r.req.UserID

	if o.deps.Quota != nil {
		u, err := o.deps.Quota.Reserve(ctx, userID)
		if err != nil {
			if isLimitReached(err) {
				return nil, &QuotaExceededError{Usage: u}
			}
			return nil, err
		}
		r.reserved = true
	}

	// EXTRACTING
	o.enter(r, types.StageExtracting, "Extracting job requirements", nil)
	start := time.Now()
	stage1, err := o.extract(ctx, r)
	if err != nil {
		return nil, err
	}
	o.metrics.ObserveStage(types.StageExtracting, time.Since(start))
	r.result.JobTitle = stage1.JobTitle
	r.result.CompanySummary = stage1.CompanySummary
	if stage1.JobRequirements != nil {
		r.result.JobRequirements = stage1.JobRequirements
	}
	if stage1.AllKeywords != nil {
		r.result.AllKeywords = stage1.AllKeywords
	}

	// MATCHING
	o.enter(r, types.StageMatching, "Matching experience against requirements", nil)
	start = time.Now()
	profile, err := o.deps.Candidates.LoadCandidate(ctx, userID)
	if err != nil {
		return nil, &CandidateDataError{Cause: err}
	}
	experiencesByRole := profile.ExperiencesByRole()

	assessment, err := o.deps.Scorer.Score(stage1.JobRequirements, stage1.AllKeywords, experiencesByRole, profile.Education, profile.Roles)
	if err != nil {
		return nil, err
	}
	o.metrics.ObserveStage(types.StageMatching, time.Since(start))
	o.metrics.ObserveScore(assessment.OverallScore)
	r.result.FitAssessment = *assessment

	outcome := OutcomeDone
	if !assessment.IsFit || len(stage1.JobRequirements) == 0 || len(profile.Experiences) == 0 {
		outcome = OutcomeSkipped
		o.enter(r, types.StageSkipped, "Skipping bullet generation", assessment)
	} else {
		o.enter(r, types.StageGenerating, "Generating resume bullets", assessment)
		start = time.Now()
		bullets, err := o.synthesize(ctx, r, profile, experiencesByRole, assessment)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// keep the assessment and report the failure next to it
			r.result.BulletGenerationError = classify(err, types.StageGenerating).Message
			o.logger.Warn("bullet generation failed", "user_id", userID, "stage", types.StageGenerating, "error", err)
		} else {
			r.result.Bullets = bullets
			o.metrics.ObserveStage(types.StageGenerating, time.Since(start))
		}
	}

	r.result.ActionPlan = buildActionPlan(assessment, r.result.Bullets, r.result.BulletGenerationError)
	o.enter(r, types.StageDone, r.result.ActionPlan.Summary, r.result)
	o.metrics.IncOutcome(outcome)
	o.record(ctx, userID, r.result.Bullets.TotalBullets())

	return r.result, nil
}

// prepare normalizes and validates the request before any network call
func (o *Orchestrator) prepare(r *run) error {
	if r.req.KeywordMatchType == "" {
		r.req.KeywordMatchType = o.cfg.DefaultMatchMode
	}
	r.req.Normalize()
	if r.req.UserID == "" {
		return ErrMissingUser
	}
	if err := validation.ValidateJobDescription(r.req.JobDescription, o.cfg.JobDescriptionLimits); err != nil {
		return err
	}
	return r.req.Validate()
}

// extract serves Stage 1 from the cache or the extractor, populating the cache on a miss
func (o *Orchestrator) extract(ctx context.Context, r *run) (*types.Stage1Result, error) {
	userID, jd := r.req.UserID, r.req.JobDescription

	if o.deps.Cache != nil {
		if cached := o.deps.Cache.Get(ctx, userID, jd); cached != nil {
			o.metrics.IncCache(true)
			r.result.FromCache = true
			return cached, nil
		}
		o.metrics.IncCache(false)
	}

	var stage1 *types.Stage1Result
	err := o.retry.do(ctx, types.StageExtracting, userID, func(ctx context.Context) error {
		var err error
		stage1, err = o.deps.Extractor.Extract(ctx, jd)
		return err
	})
	if err != nil {
		return nil, err
	}

	if o.deps.Cache != nil {
		o.deps.Cache.Put(ctx, userID, jd, stage1)
	}
	return stage1, nil
}

func (o *Orchestrator) synthesize(
	ctx context.Context,
	r *run,
	profile *types.CandidateProfile,
	experiencesByRole map[types.RoleKey][]types.CandidateExperience,
	assessment *types.FitAssessment,
) (*types.BulletOutput, error) {
	in := rewriting.Input{
		JobTitle:            r.result.JobTitle,
		ExperiencesByRole:   experiencesByRole,
		Roles:               profile.Roles,
		MatchedRequirements: assessment.MatchedRequirements,
		Keywords:            r.result.AllKeywords,
		MatchMode:           r.req.KeywordMatchType,
	}

	var bullets *types.BulletOutput
	err := o.retry.do(ctx, types.StageGenerating, r.req.UserID, func(ctx context.Context) error {
		var err error
		bullets, err = o.deps.Synthesizer.Synthesize(ctx, in)
		return err
	})
	return bullets, err
}

// record adds the generated bullets of a completed run; its analysis was taken by Reserve.
// Failures are logged only.
func (o *Orchestrator) record(ctx context.Context, userID string, bullets int) {
	if o.deps.Quota == nil || bullets == 0 {
		return
	}
	if _, err := o.deps.Quota.Record(ctx, userID, 0, bullets); err != nil {
		o.logger.Warn("failed to record usage", "user_id", userID, "stage", types.StageDone, "error", err)
	}
}

// release returns the analysis reserved by a failed run. It runs even when ctx is canceled.
func (o *Orchestrator) release(ctx context.Context, r *run) {
	if !r.reserved {
		return
	}
	r.reserved = false
	if _, err := o.deps.Quota.Release(context.WithoutCancel(ctx), r.req.UserID); err != nil {
		o.logger.Warn("failed to release usage reservation", "user_id", r.req.UserID, "stage", r.stage, "error", err)
	}
}

func isLimitReached(err error) bool {
	return errors.Is(err, usage.ErrLimitReached)
}
