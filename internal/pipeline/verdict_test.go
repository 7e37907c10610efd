package pipeline

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SPAM", "SPAM"},
		{"  spam.\n", "SPAM"},
		{`"NOT_SPAM"`, "NOT_SPAM"},
		{"not spam", "NOT_SPAM"},
		{"Not-Covered", "NOT_COVERED"},
		{"**VALID**", "VALID"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		token  string
		vocab  []Verdict
		want   Verdict
		wantOK bool
	}{
		{"SPAM", spamVocabulary, VerdictSpam, true},
		{"not_spam", spamVocabulary, VerdictNotSpam, true},
		{"Verdict: NOT_SPAM", spamVocabulary, VerdictNotSpam, true},
		{"This is SPAM.", spamVocabulary, VerdictSpam, true},
		{"spammy", spamVocabulary, "", false},
		{"covered", readmeVocabulary, VerdictCovered, true},
		{"The README has it: NOT COVERED", readmeVocabulary, VerdictNotCovered, true},
		{"basic", qualityVocabulary, VerdictBasic, true},
		{"I think it is TRIVIAL", prQualityVocabulary, VerdictTrivial, true},
		{"", spamVocabulary, "", false},
		{"NOT A SPAM", spamVocabulary, "", false},
		{"Not really spam", spamVocabulary, "", false},
		{"This is not likely spam", spamVocabulary, "", false},
		{"It isn't spam", spamVocabulary, "", false},
		{"No, SPAM", spamVocabulary, "", false},
		{"This is not spam", spamVocabulary, VerdictNotSpam, true},
		{"not a valid report", qualityVocabulary, "", false},
	}

	for _, tt := range tests {
		got, ok := Match(tt.token, tt.vocab)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tt.token, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNegatedTokenTakesFallback(t *testing.T) {
	got, fallback := matchOr("NOT A SPAM", spamVocabulary, VerdictNotSpam)
	if got != VerdictNotSpam || !fallback {
		t.Errorf("matchOr(%q) = (%q, %v), want (%q, true)", "NOT A SPAM", got, fallback, VerdictNotSpam)
	}
}

func TestUsableAnswer(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"Run tool init.", true},
		{"NO_ANSWER", false},
		{"no answer", false},
		{"  ", false},
		{"None", false},
	}
	for _, tt := range tests {
		if got := usableAnswer(tt.answer); got != tt.want {
			t.Errorf("usableAnswer(%q) = %v, want %v", tt.answer, got, tt.want)
		}
	}
}
