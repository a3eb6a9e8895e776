package align

import (
	"math"
	"sort"
)

// Consolidate drops empty turns and turns shorter than minDuration, sorts the
// rest by start and merges consecutive same-speaker turns separated by at most gapThreshold.
// The input slice is not modified.
func Consolidate(turns []SpeakerTurn, minDuration, gapThreshold float64) []SpeakerTurn {
	kept := make([]SpeakerTurn, 0, len(turns))
	for _, turn := range turns {
		if math.IsNaN(turn.Start) || math.IsNaN(turn.End) {
			continue
		}
		if turn.Duration() <= 0 || turn.Duration() < minDuration {
			continue
		}
		kept = append(kept, turn)
	}
	if len(kept) == 0 {
		return kept
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

	merged := []SpeakerTurn{kept[0]}
	for _, current := range kept[1:] {
		last := &merged[len(merged)-1]
		if current.Speaker == last.Speaker && current.Start-last.End <= gapThreshold {
			// last.Start is kept, so chains collapse into one turn
			last.End = current.End
			continue
		}
		merged = append(merged, current)
	}
	return merged
}
