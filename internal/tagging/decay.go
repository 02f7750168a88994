package tagging

import (
	"math"

	"github.com/zeroaltitude/vestige/pkg/types"
)

// baseRadiusHours anchors the capture-window radius before the per-event-type
// types.RadiusFactor scaling is applied. Spec §4.5 step 2 only fixes the
// scaling factors (0.7x for novelty_spike, 1.5x for emotional, ...), not the
// base magnitude; 4h keeps a typical capture window (default backward/forward
// of 9h/2h) meaningfully inside the decay curve's falloff rather than
// saturating it.
const baseRadiusHours = 4.0

// captureProbability computes p = base_strength · decay(Δt / radius) for fn,
// the decay shape the triggering event type selects via types.DecayFunctionFor
// (spec §4.5 step 2). deltaHours is the (unsigned) distance in hours between
// the event and the tagged memory's creation time.
func captureProbability(fn types.DecayFn, baseStrength, deltaHours, radiusFactor float64) float64 {
	radius := baseRadiusHours * radiusFactor
	if radius <= 0 {
		return 0
	}
	x := math.Abs(deltaHours) / radius

	var shape float64
	switch fn {
	case types.DecayLinear:
		shape = math.Max(0, 1-x)
	case types.DecayPower:
		shape = 1 / math.Pow(1+x, 2)
	case types.DecayLog:
		shape = 1 / (1 + math.Log1p(x))
	default: // types.DecayExp
		shape = math.Exp(-x)
	}
	return clamp01(baseStrength * shape)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
