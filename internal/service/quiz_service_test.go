package service

import (
	"errors"
	"testing"

	"github.com/byounghoonpark/PBH-Quiz/internal/util"
)

func choices(correct int, total int) []ChoiceInput {
	out := make([]ChoiceInput, total)
	for i := range out {
		out[i] = ChoiceInput{Text: "보기", IsCorrect: i < correct}
	}
	return out
}

func TestValidateQuestions(t *testing.T) {
	cases := []struct {
		name      string
		questions []QuestionInput
		wantErr   bool
	}{
		{"valid", []QuestionInput{{Text: "q", Choices: choices(1, 3)}}, false},
		{"empty quiz", nil, true},
		{"too few choices", []QuestionInput{{Text: "q", Choices: choices(1, 2)}}, true},
		{"no correct choice", []QuestionInput{{Text: "q", Choices: choices(0, 3)}}, true},
		{"two correct choices", []QuestionInput{{Text: "q", Choices: choices(2, 4)}}, true},
		{"second question invalid", []QuestionInput{
			{Text: "q1", Choices: choices(1, 3)},
			{Text: "q2", Choices: choices(0, 3)},
		}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateQuestions(tc.questions)
			if tc.wantErr {
				if !errors.Is(err, util.ErrInvalidInput) {
					t.Fatalf("got %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
