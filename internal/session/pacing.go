// Package session runs rate-limited engagement sessions, one per
// account, and fans accounts out concurrently.
package session

import "time"

// spacing is the derived inter-action delay range for one session.
type spacing struct {
	min time.Duration
	max time.Duration
}

// deriveSpacing computes the effective delay range from the configured
// bounds and the hourly action budget. The target per-action spacing
// (3600s / actionsPerHour) raises the configured minimum when the
// configuration would outpace the hourly budget, and the maximum is
// lifted above the minimum to guarantee a non-degenerate random range.
func deriveSpacing(minDelay, maxDelay time.Duration, actionsPerHour int) spacing {
	if actionsPerHour < 1 {
		actionsPerHour = 1
	}
	target := time.Hour / time.Duration(actionsPerHour)

	effectiveMin := minDelay
	if target > effectiveMin {
		effectiveMin = target
	}

	effectiveMax := maxDelay
	if effectiveMax < effectiveMin {
		lift := effectiveMin * 15 / 100
		if lift < 30*time.Second {
			lift = 30 * time.Second
		}
		effectiveMax = effectiveMin + lift
	}
	if effectiveMax-effectiveMin < time.Second {
		lift := effectiveMin * 5 / 100
		if lift < 5*time.Second {
			lift = 5 * time.Second
		}
		effectiveMax = effectiveMin + lift
	}
	return spacing{min: effectiveMin, max: effectiveMax}
}

// batchSize returns the candidate fetch size for the hourly budget.
func batchSize(actionsPerHour int) int {
	size := actionsPerHour * 4
	if size < 40 {
		size = 40
	}
	return size
}
