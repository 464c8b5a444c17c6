package service

import (
	"time"

	"github.com/noah-isme/sma-insights-api/pkg/config"
)

// Policy carries the tunable thresholds used by the aggregation engine.
type Policy struct {
	ConcernThreshold  float64
	StrengthThreshold float64
	NearTargetRatio   float64
	DefaultTarget     float64
	UpcomingWindow    time.Duration
	// HighlightLimit caps concerns and strengths; 0 disables the cap.
	HighlightLimit int
	GradingWindow  time.Duration
}

// DefaultPolicy returns the thresholds observed in production reports.
func DefaultPolicy() Policy {
	return Policy{
		ConcernThreshold:  70,
		StrengthThreshold: 90,
		NearTargetRatio:   0.8,
		DefaultTarget:     80,
		UpcomingWindow:    3 * 24 * time.Hour,
		HighlightLimit:    3,
		GradingWindow:     7 * 24 * time.Hour,
	}
}

// PolicyFromConfig maps insights configuration onto a Policy, keeping defaults for unset values.
func PolicyFromConfig(cfg config.InsightsConfig) Policy {
	policy := DefaultPolicy()
	if cfg.ConcernThreshold > 0 {
		policy.ConcernThreshold = cfg.ConcernThreshold
	}
	if cfg.StrengthThreshold > 0 {
		policy.StrengthThreshold = cfg.StrengthThreshold
	}
	if cfg.NearTargetRatio > 0 && cfg.NearTargetRatio <= 1 {
		policy.NearTargetRatio = cfg.NearTargetRatio
	}
	if cfg.DefaultTarget > 0 {
		policy.DefaultTarget = cfg.DefaultTarget
	}
	if cfg.UpcomingWindowDays > 0 {
		policy.UpcomingWindow = time.Duration(cfg.UpcomingWindowDays) * 24 * time.Hour
	}
	if cfg.HighlightLimit >= 0 {
		policy.HighlightLimit = cfg.HighlightLimit
	}
	if cfg.GradingWindow > 0 {
		policy.GradingWindow = cfg.GradingWindow
	}
	return policy
}
