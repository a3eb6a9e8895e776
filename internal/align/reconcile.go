package align

// Options tunes the reconciliation stages
type Options struct {
	Strategy     Strategy
	MinDuration  float64 // turns shorter than this are dropped
	GapThreshold float64 // same-speaker turns closer than this are merged
}

// DefaultOptions returns the smart strategy with a 0.5s minimum turn and a 0.3s merge gap
func DefaultOptions() Options {
	return Options{
		Strategy:     StrategySmart,
		MinDuration:  0.5,
		GapThreshold: 0.3,
	}
}

// Stats summarizes one reconciliation for observability
type Stats struct {
	TurnsBeforeFilter int `json:"turns_before_filter" yaml:"turns_before_filter"`
	TurnsAfterFilter  int `json:"turns_after_filter" yaml:"turns_after_filter"`
	UniqueSpeakers    int `json:"unique_speakers" yaml:"unique_speakers"`
	RejectedSpans     int `json:"rejected_spans" yaml:"rejected_spans"`
	UnknownAligned    int `json:"unknown_aligned" yaml:"unknown_aligned"`
	UnknownResolved   int `json:"unknown_resolved" yaml:"unknown_resolved"`
}

// Result is the output of Reconcile
type Result struct {
	Spans []AlignedSpan
	Turns []SpeakerTurn // consolidated, canonical
	Stats Stats
}

// Reconcile runs consolidation, canonicalization, alignment and unknown
// resolution over one audio input. rawTurns is nil or empty when diarization
// was unavailable.
func Reconcile(spans []TranscriptSpan, rawTurns []SpeakerTurn, opts Options) Result {
	turns := Canonicalize(Consolidate(rawTurns, opts.MinDuration, opts.GapThreshold))

	aligned, rejected := Align(spans, turns, opts.Strategy)
	unknownAligned := CountUnknown(aligned)

	aligned = Resolve(aligned, turns, len(rawTurns) > 0)
	unknownLeft := CountUnknown(aligned)

	return Result{
		Spans: aligned,
		Turns: turns,
		Stats: Stats{
			TurnsBeforeFilter: len(rawTurns),
			TurnsAfterFilter:  len(turns),
			UniqueSpeakers:    len(Speakers(turns)),
			RejectedSpans:     rejected,
			UnknownAligned:    unknownAligned,
			UnknownResolved:   unknownAligned - unknownLeft,
		},
	}
}

// CountUnknown returns how many spans are still Unknown
func CountUnknown(spans []AlignedSpan) int {
	n := 0
	for _, span := range spans {
		if span.Speaker == Unknown {
			n++
		}
	}
	return n
}
