// Package anim provides interpolation, easing and the per-renderer task
// scheduler that replaces fire-and-forget timers.
package anim

import "math"

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Easing maps a normalized time t in [0,1] to an eased fraction.
type Easing func(t float64) float64

// EaseLinear is the identity easing.
func EaseLinear(t float64) float64 { return t }

// EaseInOutCubic applies smooth in-out easing.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// EaseOutCubic decelerates towards the end; used for marker entrances.
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// EasingByName resolves a config easing name, defaulting to cubic in-out.
func EasingByName(name string) Easing {
	switch name {
	case "linear":
		return EaseLinear
	case "ease-out":
		return EaseOutCubic
	default:
		return EaseInOutCubic
	}
}

// Tween interpolates between two scalar endpoint sets over a duration.
// The map renderer builds one tween per view transition; center lon/lat and
// scale are independent channels.
type Tween struct {
	From     []float64
	To       []float64
	Duration float64 // seconds
	Ease     Easing
}

// At returns the interpolated channel values at time t (seconds since the
// tween started), clamped to the endpoints.
func (tw *Tween) At(t float64) []float64 {
	frac := 1.0
	if tw.Duration > 0 {
		frac = t / tw.Duration
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	if tw.Ease != nil {
		frac = tw.Ease(frac)
	}

	out := make([]float64, len(tw.From))
	for i := range tw.From {
		to := tw.From[i]
		if i < len(tw.To) {
			to = tw.To[i]
		}
		out[i] = Lerp(tw.From[i], to, frac)
	}
	return out
}

// Done reports whether the tween has reached its end at time t.
func (tw *Tween) Done(t float64) bool {
	return t >= tw.Duration
}
