package align

// Canonicalize relabels turns as "Speaker 1", "Speaker 2", ... in order of
// first appearance. It must run on consolidated turns so numbering is not
// inflated by micro-turns.
func Canonicalize(turns []SpeakerTurn) []SpeakerTurn {
	mapping := make(map[string]string)
	out := make([]SpeakerTurn, len(turns))
	for i, turn := range turns {
		name, seen := mapping[turn.Speaker]
		if !seen {
			name = SpeakerName(len(mapping) + 1)
			mapping[turn.Speaker] = name
		}
		turn.Speaker = name
		out[i] = turn
	}
	return out
}

// Speakers lists the distinct speaker labels of turns in order of first appearance
func Speakers(turns []SpeakerTurn) []string {
	seen := make(map[string]struct{})
	var speakers []string
	for _, turn := range turns {
		if _, ok := seen[turn.Speaker]; ok {
			continue
		}
		seen[turn.Speaker] = struct{}{}
		speakers = append(speakers, turn.Speaker)
	}
	return speakers
}
