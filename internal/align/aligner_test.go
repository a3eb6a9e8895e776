package align

import (
	"math"
	"testing"
)

var scenarioTurns = []SpeakerTurn{
	{Start: 0, End: 5, Speaker: "Speaker 1"},
	{Start: 5, End: 9, Speaker: "Speaker 2"},
}

func TestAlign(t *testing.T) {
	testCases := []struct {
		description string
		span        TranscriptSpan
		strategy    Strategy
		expected    string
	}{
		{"Strict overlap", TranscriptSpan{Start: 4.5, End: 4.8, Text: "hello"}, StrategyStrict, "Speaker 1"},
		{"Strict no overlap stays unknown", TranscriptSpan{Start: 9.5, End: 10, Text: "bye"}, StrategyStrict, Unknown},
		{"Smart near miss", TranscriptSpan{Start: 9.5, End: 10, Text: "bye"}, StrategySmart, "Speaker 2"},
		{"Aggressive near miss", TranscriptSpan{Start: 12, End: 13, Text: "later"}, StrategyAggressive, "Speaker 2"},
		{"Smart far stays unknown", TranscriptSpan{Start: 30, End: 31, Text: "far"}, StrategySmart, Unknown},
		{"Larger overlap wins", TranscriptSpan{Start: 4, End: 7, Text: "across"}, StrategyStrict, "Speaker 2"},
		{"Equal overlap keeps first turn", TranscriptSpan{Start: 4, End: 6, Text: "tie"}, StrategyStrict, "Speaker 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			aligned, rejected := Align([]TranscriptSpan{tc.span}, scenarioTurns, tc.strategy)
			if rejected != 0 {
				t.Fatalf("Expected no rejected spans, got %d", rejected)
			}
			if len(aligned) != 1 {
				t.Fatalf("Expected 1 aligned span, got %d", len(aligned))
			}
			if aligned[0].Speaker != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, aligned[0].Speaker)
			}
		})
	}
}

func TestAlignWithoutTurns(t *testing.T) {
	spans := []TranscriptSpan{
		{Start: 0, End: 1, Text: " one "},
		{Start: 1, End: 2, Text: "two"},
	}

	aligned, _ := Align(spans, nil, StrategyAggressive)
	if len(aligned) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(aligned))
	}
	for _, span := range aligned {
		if span.Speaker != Unknown {
			t.Errorf("Expected Unknown, got %s", span.Speaker)
		}
	}
	if aligned[0].Text != "one" {
		t.Errorf("Expected trimmed text, got %q", aligned[0].Text)
	}
}

func TestAlignRejectsMalformedSpans(t *testing.T) {
	spans := []TranscriptSpan{
		{Start: 1, End: 2, Text: "ok"},
		{Start: 3, End: 2, Text: "backwards"},
		{Start: -1, End: 2, Text: "negative"},
		{Start: math.NaN(), End: 2, Text: "nan"},
		{Start: 4, End: 4, Text: "instant"},
	}

	aligned, rejected := Align(spans, scenarioTurns, StrategySmart)
	if rejected != 3 {
		t.Errorf("Expected 3 rejected spans, got %d", rejected)
	}
	if len(aligned) != 2 {
		t.Fatalf("Expected 2 aligned spans, got %d", len(aligned))
	}
	if aligned[0].Text != "ok" || aligned[1].Text != "instant" {
		t.Errorf("Span order not preserved: %v", aligned)
	}
}

func TestAlignEmptyTranscript(t *testing.T) {
	aligned, rejected := Align(nil, scenarioTurns, StrategySmart)
	if len(aligned) != 0 || rejected != 0 {
		t.Errorf("Expected empty result, got %v (%d rejected)", aligned, rejected)
	}
}
