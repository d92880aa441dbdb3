package pipeline

import (
	"time"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// Metrics receives pipeline measurements
type Metrics interface {
	ObserveStage(stage types.Stage, d time.Duration)
	IncCache(hit bool)
	IncRetry(stage types.Stage)
	IncOutcome(outcome string)
	ObserveScore(score int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveStage(types.Stage, time.Duration) {}
func (nopMetrics) IncCache(bool)                           {}
func (nopMetrics) IncRetry(types.Stage)                    {}
func (nopMetrics) IncOutcome(string)                       {}
func (nopMetrics) ObserveScore(int)                        {}
