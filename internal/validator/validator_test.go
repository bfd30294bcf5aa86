package validator

import (
	"testing"

	govalidator "github.com/go-playground/validator/v10"
)

func TestContainsMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"е", false},
		{"1, 2; 3", false},
		{"не знаю", false},
		{"2 < 3", false},
		{"<script>alert(1)</script>", true},
		{"< b>", true},
		{"</div>", true},
		{"JavaScript:void(0)", true},
		{`x onerror = "y"`, true},
		{"<!-- -->", true},
	}
	for _, tc := range tests {
		if got := ContainsMarkup(tc.in); got != tc.want {
			t.Errorf("ContainsMarkup(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

type answerBody struct {
	Text string `json:"text" binding:"omitempty,max=10,nomarkup" validate:"omitempty,max=10,nomarkup"`
}

func TestNoMarkupTranslation(t *testing.T) {
	v := govalidator.New()
	register(v)

	if err := v.Struct(answerBody{Text: "о"}); err != nil {
		t.Fatalf("plain answer rejected: %v", err)
	}

	err := v.Struct(answerBody{Text: "<b>о</b>"})
	if err == nil {
		t.Fatal("markup accepted")
	}
	fields := TranslateErrors(err)
	if got := fields["text"]; got != "text must not contain markup" {
		t.Errorf("translated message = %q", got)
	}
}
