// Package updater implements the cooperative updater scheduler: one
// updater at a time on a single logical goroutine, dynamic pacing
// derived from measured update cost, and atomic snapshot publication so
// readers never block on or tear an in-flight update.
package updater

import "math"

// MaxInterval is the pacing ceiling.
const MaxInterval = 60

// PacingRatio is R, the ratio of idle to busy time the scheduler tries to
// maintain.
const PacingRatio = 10

// NextInterval computes T_next = max(T_static, min(MAX_INTERVAL,
// ceil(Δ·R))), the exact formula of original_source's
// get_next_update_interval. A zero or negative Δ is treated as 0.
// Intervals are expressed in whole seconds, an integer-second cadence.
func NextInterval(deltaSeconds float64, staticInterval int) int {
	if deltaSeconds < 0 {
		deltaSeconds = 0
	}
	scaled := int(math.Ceil(deltaSeconds * PacingRatio))
	if scaled > MaxInterval {
		scaled = MaxInterval
	}
	if scaled < staticInterval {
		return staticInterval
	}
	return scaled
}
