package align

import "math"

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func turnsEqual(a, b []SpeakerTurn) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Speaker != b[i].Speaker || !approxEqual(a[i].Start, b[i].Start) || !approxEqual(a[i].End, b[i].End) {
			return false
		}
	}
	return true
}
