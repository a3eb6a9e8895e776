package align

import "testing"

func TestCanonicalize(t *testing.T) {
	turns := []SpeakerTurn{
		{Start: 0, End: 1, Speaker: "SPEAKER_03"},
		{Start: 1, End: 2, Speaker: "SPEAKER_00"},
		{Start: 2, End: 3, Speaker: "SPEAKER_03"},
		{Start: 3, End: 4, Speaker: "SPEAKER_01"},
	}

	result := Canonicalize(turns)

	expected := []string{"Speaker 1", "Speaker 2", "Speaker 1", "Speaker 3"}
	for i, name := range expected {
		if result[i].Speaker != name {
			t.Errorf("Turn %d: expected %s, got %s", i, name, result[i].Speaker)
		}
	}

	if turns[0].Speaker != "SPEAKER_03" {
		t.Errorf("Input labels should be left untouched, got %s", turns[0].Speaker)
	}
}

func TestCanonicalizeAfterConsolidation(t *testing.T) {
	turns := []SpeakerTurn{
		{Start: 0, End: 4, Speaker: "A"},
		{Start: 4.2, End: 5, Speaker: "A"},
		{Start: 5, End: 9, Speaker: "B"},
	}

	result := Canonicalize(Consolidate(turns, 0.5, 0.3))

	expected := []SpeakerTurn{
		{Start: 0, End: 5, Speaker: "Speaker 1"},
		{Start: 5, End: 9, Speaker: "Speaker 2"},
	}
	if !turnsEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestCanonicalizeStableUnderInputOrder(t *testing.T) {
	ordered := []SpeakerTurn{
		{Start: 0, End: 2, Speaker: "x"},
		{Start: 3, End: 5, Speaker: "y"},
		{Start: 6, End: 8, Speaker: "z"},
		{Start: 9, End: 11, Speaker: "y"},
	}
	shuffled := []SpeakerTurn{ordered[3], ordered[1], ordered[2], ordered[0]}

	a := Canonicalize(Consolidate(ordered, 0.5, 0.3))
	b := Canonicalize(Consolidate(shuffled, 0.5, 0.3))
	if !turnsEqual(a, b) {
		t.Errorf("Numbering depends on input order: %v vs %v", a, b)
	}
}

func TestSpeakers(t *testing.T) {
	turns := []SpeakerTurn{
		{Speaker: "Speaker 2"},
		{Speaker: "Speaker 1"},
		{Speaker: "Speaker 2"},
	}
	speakers := Speakers(turns)
	if len(speakers) != 2 || speakers[0] != "Speaker 2" || speakers[1] != "Speaker 1" {
		t.Errorf("Unexpected speakers: %v", speakers)
	}
}
