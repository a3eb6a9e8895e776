package align

import "math"

const (
	// overlapWeight keeps any overlap above the largest proximity score.
	overlapWeight = 10.0

	smartEdgeWindow = 2.0
	smartMidWindow  = 3.0

	aggressiveWindow = 5.0
)

// Score rates how well turn explains span under strategy. Higher is better;
// 0 means no evidence.
func Score(span TranscriptSpan, turn SpeakerTurn, strategy Strategy) float64 {
	switch strategy {
	case StrategyStrict:
		return scoreStrict(span, turn)
	case StrategySmart:
		return scoreSmart(span, turn)
	case StrategyAggressive:
		return scoreAggressive(span, turn)
	default:
		return 0
	}
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	return math.Max(0, math.Min(aEnd, bEnd)-math.Max(aStart, bStart))
}

func scoreStrict(span TranscriptSpan, turn SpeakerTurn) float64 {
	return overlap(span.Start, span.End, turn.Start, turn.End)
}

func scoreSmart(span TranscriptSpan, turn SpeakerTurn) float64 {
	if ov := overlap(span.Start, span.End, turn.Start, turn.End); ov > 0 {
		return ov * overlapWeight
	}

	mid := span.midpoint()
	minGap := math.Min(math.Abs(mid-turn.Start), math.Abs(mid-turn.End))
	if minGap < smartEdgeWindow {
		return smartEdgeWindow - minGap
	}
	if gapToMid := math.Abs(mid - turn.midpoint()); gapToMid < smartMidWindow {
		return math.Max(0, 1.0-gapToMid/smartMidWindow)
	}
	return 0
}

func scoreAggressive(span TranscriptSpan, turn SpeakerTurn) float64 {
	if ov := overlap(span.Start, span.End, turn.Start, turn.End); ov > 0 {
		return ov * overlapWeight
	}

	minDistance := math.Inf(1)
	for _, p := range [...]float64{span.Start, span.End, span.midpoint()} {
		minDistance = math.Min(minDistance, math.Abs(p-turn.Start))
		minDistance = math.Min(minDistance, math.Abs(p-turn.End))
	}
	if minDistance < aggressiveWindow {
		return aggressiveWindow - minDistance
	}
	return 0
}
