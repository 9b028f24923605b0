package quiz

import (
	"encoding/json"
	"testing"
)

func TestQuestionCheck(t *testing.T) {
	mc := Question{Type: TypeMultipleChoice, Choices: []string{"a", "b", "c", "d"}, Correct: NumberAnswer(2)}
	text := Question{Type: TypeText, Correct: TextAnswer("Leonardo da Vinci")}
	num := Question{Type: TypeNumber, Correct: NumberAnswer(3.5)}

	tests := []struct {
		name  string
		q     Question
		given Answer
		want  bool
	}{
		{"mc index", mc, NumberAnswer(2), true},
		{"mc numeric string", mc, TextAnswer("2"), true},
		{"mc wrong", mc, NumberAnswer(1), false},
		{"mc fractional", mc, NumberAnswer(2.5), false},
		{"text case and space", text, TextAnswer("  leonardo DA vinci "), true},
		{"text wrong", text, TextAnswer("raphael"), false},
		{"number", num, NumberAnswer(3.5), true},
		{"number as string", num, TextAnswer("3.50"), true},
		{"number wrong", num, NumberAnswer(3), false},
		{"number garbage", num, TextAnswer("three"), false},
		{"unanswered", num, Answer{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Check(tt.given); got != tt.want {
				t.Errorf("Check(%v) = %v, want %v", tt.given, got, tt.want)
			}
		})
	}
}

func TestAnswerJSON(t *testing.T) {
	tests := []struct {
		in       string
		isNumber bool
		out      string
	}{
		{`3`, true, `3`},
		{`3.25`, true, `3.25`},
		{`"paris"`, false, `"paris"`},
		{`null`, false, `null`},
	}
	for _, tt := range tests {
		var a Answer
		if err := json.Unmarshal([]byte(tt.in), &a); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if a.IsNumber() != tt.isNumber {
			t.Errorf("%s: IsNumber = %v", tt.in, a.IsNumber())
		}
		out, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("marshal %s: %v", tt.in, err)
		}
		if string(out) != tt.out {
			t.Errorf("%s: marshal = %s, want %s", tt.in, out, tt.out)
		}
	}

	var a Answer
	if err := json.Unmarshal([]byte(`{"x":1}`), &a); err == nil {
		t.Error("object answer should fail")
	}
}

func TestDecodePassword(t *testing.T) {
	tests := map[string]PasswordKind{
		"$2a$10$abc": PasswordBcrypt,
		"$2b$12$abc": PasswordBcrypt,
		"$2y$10$abc": PasswordBcrypt,
		"admin123":   PasswordPlaintext,
		"$2x$10$abc": PasswordPlaintext,
		"":           PasswordPlaintext,
	}
	for stored, want := range tests {
		p := DecodePassword(stored)
		if p.Kind != want {
			t.Errorf("DecodePassword(%q).Kind = %v, want %v", stored, p.Kind, want)
		}
		if p.Encode() != stored {
			t.Errorf("Encode() = %q, want %q", p.Encode(), stored)
		}
	}
}
