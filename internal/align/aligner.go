package align

import "strings"

// Align attributes every span to its best-scoring turn. Spans with no turn
// scoring above zero stay Unknown; when turns is empty every span is Unknown.
// Spans with unusable timing are dropped and counted in rejected.
func Align(spans []TranscriptSpan, turns []SpeakerTurn, strategy Strategy) (aligned []AlignedSpan, rejected int) {
	aligned = make([]AlignedSpan, 0, len(spans))
	for _, span := range spans {
		if !span.valid() {
			rejected++
			continue
		}

		speaker := Unknown
		if len(turns) > 0 {
			speaker = bestSpeaker(span, turns, strategy)
		}

		aligned = append(aligned, AlignedSpan{
			Start:   span.Start,
			End:     span.End,
			Text:    strings.TrimSpace(span.Text),
			Speaker: speaker,
		})
	}
	return aligned, rejected
}

// bestSpeaker keeps the first turn reaching the maximum score
func bestSpeaker(span TranscriptSpan, turns []SpeakerTurn, strategy Strategy) string {
	best := Unknown
	bestScore := 0.0
	for _, turn := range turns {
		if score := Score(span, turn, strategy); score > bestScore {
			bestScore = score
			best = turn.Speaker
		}
	}
	return best
}
