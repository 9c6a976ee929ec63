package scorer

import "math"

var (
	sigmoidLow  = math.Nextafter32(0, 1)
	sigmoidHigh = math.Nextafter32(1, 0)
)

// Sigmoid is the logistic function 1/(1+e^-x), evaluated in float64 and kept
// strictly inside (0, 1) after rounding to float32.
func Sigmoid(x float32) float32 {
	v := float64(x)
	var s float64
	if v >= 0 {
		s = 1 / (1 + math.Exp(-v))
	} else {
		e := math.Exp(v)
		s = e / (1 + e)
	}
	y := float32(s)
	if y < sigmoidLow {
		return sigmoidLow
	}
	if y > sigmoidHigh {
		return sigmoidHigh
	}
	return y
}

// SigmoidInPlace applies Sigmoid to every element of xs.
func SigmoidInPlace(xs []float32) {
	for i, x := range xs {
		xs[i] = Sigmoid(x)
	}
}
