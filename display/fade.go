// Package display keeps the interactive-inspection side of the bridge:
// per-submap visibility and distance fade, and a rendered overlay image of
// the composed map.
package display

import "math"

// FadeConfig controls how submaps fade out with vertical distance from the
// tracked pose.
type FadeConfig struct {
	// StartDistance is the distance in meters before which a submap is
	// shown at full opacity.
	StartDistance float64
	// FadeDistance is the distance in meters over which the submap then
	// fades out to fully transparent.
	FadeDistance float64
	// UpdateThreshold is the minimum change in target alpha required to
	// actually update a submap's stored alpha. It keeps small viewer
	// movements from flickering the display.
	UpdateThreshold float64
}

// DefaultFadeConfig returns the stock fade parameters.
func DefaultFadeConfig() FadeConfig {
	return FadeConfig{
		StartDistance:   1.0,
		FadeDistance:    2.0,
		UpdateThreshold: 0.2,
	}
}

// Alpha computes the new alpha for a submap at height submapZ given the
// tracked height trackingZ and the previously stored alpha. The previous
// value is retained unless the target moved more than UpdateThreshold away
// from it; a target of exactly 0 or 1 always wins, so a full appear or
// disappear is never suppressed by the hysteresis.
func (cfg FadeConfig) Alpha(submapZ, trackingZ, previous float64) float64 {
	distanceZ := math.Abs(submapZ - trackingZ)
	fadeDistance := math.Max(distanceZ-cfg.StartDistance, 0)
	target := math.Max(0, 1-fadeDistance/cfg.FadeDistance)

	if math.Abs(target-previous) > cfg.UpdateThreshold || target == 0 || target == 1 {
		return target
	}
	return previous
}
