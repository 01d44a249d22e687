package domain

import (
	"errors"
	"testing"
)

func TestDayValidate(t *testing.T) {
	valid := Day{ID: 3, Question: "Q?", Options: []string{"A", "B", "C"}, CorrectAnswer: 2}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid day, got %v", err)
	}

	cases := map[string]Day{
		"id zero":         {ID: 0, Question: "Q?", Options: []string{"A"}},
		"id past 24":      {ID: 25, Question: "Q?", Options: []string{"A"}},
		"no question":     {ID: 1, Options: []string{"A"}},
		"no options":      {ID: 1, Question: "Q?"},
		"answer too big":  {ID: 1, Question: "Q?", Options: []string{"A", "B"}, CorrectAnswer: 2},
		"answer negative": {ID: 1, Question: "Q?", Options: []string{"A", "B"}, CorrectAnswer: -1},
	}
	for name, day := range cases {
		if err := day.Validate(); !errors.Is(err, ErrInvalidDay) {
			t.Fatalf("%s: expected ErrInvalidDay, got %v", name, err)
		}
	}
}

func TestDayIsCorrect(t *testing.T) {
	day := Day{Options: []string{"A", "B", "C"}, CorrectAnswer: 1}
	if !day.IsCorrect(1) {
		t.Fatalf("expected index 1 to be correct")
	}
	if day.IsCorrect(0) || day.IsCorrect(2) || day.IsCorrect(7) {
		t.Fatalf("expected other indices to be wrong")
	}

	broken := Day{Options: []string{"A", "B"}, CorrectAnswer: 5}
	for i := -1; i < 6; i++ {
		if broken.IsCorrect(i) {
			t.Fatalf("out-of-range answer must never match, matched %d", i)
		}
	}
	if (Day{CorrectAnswer: 0}).IsCorrect(0) {
		t.Fatalf("day without options must never match")
	}
}
