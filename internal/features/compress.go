package features

import "math"

// CompressRankGap applies sign(d) * ln(|d| + 1) so that large ranking gaps
// grow logarithmically while keeping direction and mapping 0 to 0.
func CompressRankGap(d float64) float64 {
	if d == 0 {
		return 0
	}
	return math.Copysign(math.Log(math.Abs(d)+1), d)
}
