package engine

import "math"

// panGains computes the equal-power pan law: θ = (pan+1)*π/4, (gL,gR) =
// (cos θ, sin θ). gL²+gR² == 1 for every pan in [-1,1] (§8 invariant 6).
func panGains(pan float32) (gL, gR float32) {
	// cos(π/2) is not exactly zero in floating point, so hard right is
	// returned directly to keep the left gain at exactly 0.
	if pan >= 1 {
		return 0, 1
	}
	theta := float64(pan+1) * math.Pi / 4
	return float32(math.Cos(theta)), float32(math.Sin(theta))
}
