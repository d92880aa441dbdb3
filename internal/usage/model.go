// Package usage tracks per-user analysis quotas over a weekly window.
package usage

import (
	"errors"
	"time"
)

// Plan defaults
const (
	DefaultPlan          = "Starter"
	DefaultAnalysesLimit = 10
	Window               = 7 * 24 * time.Hour
)

// ErrLimitReached indicates the user has no analyses left in the current window.
var ErrLimitReached = errors.New("analysis limit reached")

// Usage represents a user's plan consumption snapshot.
type Usage struct {
	Plan             string    `json:"plan"`
	AnalysesLimit    int       `json:"analysesLimit"`
	AnalysesUsed     int       `json:"analysesUsed"`
	BulletsGenerated int       `json:"bulletsGenerated"`
	ResetsAt         time.Time `json:"resetsAt"`
}

// Remaining returns how many analyses are left in the window
func (u Usage) Remaining() int {
	if u.AnalysesUsed >= u.AnalysesLimit {
		return 0
	}
	return u.AnalysesLimit - u.AnalysesUsed
}

func defaultUsage(now time.Time) Usage {
	return Usage{
		Plan:          DefaultPlan,
		AnalysesLimit: DefaultAnalysesLimit,
		ResetsAt:      now.UTC().Add(Window),
	}
}

// rollWindow starts a new window when the current one has ended
func rollWindow(u Usage, now time.Time) (Usage, bool) {
	if now.Before(u.ResetsAt) {
		return u, false
	}
	u.AnalysesUsed = 0
	u.BulletsGenerated = 0
	u.ResetsAt = now.UTC().Add(Window)
	return u, true
}
