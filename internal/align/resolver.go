package align

import "math"

// nearestTurnWindow bounds the midpoint distance accepted by the nearest-turn pass
const nearestTurnWindow = 10.0

// Resolve rewrites the speaker of every Unknown span, in order, trying the
// nearest turn by midpoint, then the resolved neighbours, then the most
// frequent resolved speaker. Spans are updated in place, so a span resolved
// earlier counts as context for the ones after it.
//
// diarized reports whether the diarization collaborator produced any turns at
// all. When it did not, and turns is empty, spans are left Unknown.
func Resolve(aligned []AlignedSpan, turns []SpeakerTurn, diarized bool) []AlignedSpan {
	if len(turns) == 0 && !diarized {
		return aligned
	}

	for i := range aligned {
		if aligned[i].Speaker != Unknown {
			continue
		}

		speaker := nearestTurnSpeaker(aligned[i].midpoint(), turns)
		if speaker == Unknown {
			speaker = contextSpeaker(i, aligned)
		}
		if speaker == Unknown {
			speaker = pluralitySpeaker(aligned, turns)
		}
		aligned[i].Speaker = speaker
	}
	return aligned
}

func nearestTurnSpeaker(mid float64, turns []SpeakerTurn) string {
	nearest := Unknown
	minDistance := math.Inf(1)
	for _, turn := range turns {
		if d := math.Abs(mid - turn.midpoint()); d < minDistance {
			minDistance = d
			nearest = turn.Speaker
		}
	}
	if minDistance < nearestTurnWindow {
		return nearest
	}
	return Unknown
}

func contextSpeaker(idx int, aligned []AlignedSpan) string {
	before, after := Unknown, Unknown
	for i := idx - 1; i >= 0; i-- {
		if aligned[i].Speaker != Unknown {
			before = aligned[i].Speaker
			break
		}
	}
	for i := idx + 1; i < len(aligned); i++ {
		if aligned[i].Speaker != Unknown {
			after = aligned[i].Speaker
			break
		}
	}

	// a span sandwiched by one speaker and a span with only a preceding
	// speaker both take the preceding one
	if before != Unknown {
		return before
	}
	return after
}

// pluralitySpeaker returns the most frequent resolved speaker, ties going to
// the one encountered first; with nothing resolved it falls back to the first
// canonical speaker.
func pluralitySpeaker(aligned []AlignedSpan, turns []SpeakerTurn) string {
	counts := make(map[string]int)
	var order []string
	for _, span := range aligned {
		if span.Speaker == Unknown {
			continue
		}
		if counts[span.Speaker] == 0 {
			order = append(order, span.Speaker)
		}
		counts[span.Speaker]++
	}

	best, bestCount := Unknown, 0
	for _, speaker := range order {
		if counts[speaker] > bestCount {
			best, bestCount = speaker, counts[speaker]
		}
	}
	if best != Unknown {
		return best
	}
	if len(turns) > 0 {
		return turns[0].Speaker
	}
	return SpeakerName(1)
}
