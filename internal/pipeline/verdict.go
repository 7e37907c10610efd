package pipeline

import (
	"regexp"
	"strings"
	"unicode"
)

// Verdict is a stage's closed-vocabulary result
type Verdict string

const (
	VerdictSpam          Verdict = "SPAM"
	VerdictNotSpam       Verdict = "NOT_SPAM"
	VerdictCovered       Verdict = "COVERED"
	VerdictNotCovered    Verdict = "NOT_COVERED"
	VerdictUnclear       Verdict = "UNCLEAR"
	VerdictBasic         Verdict = "BASIC"
	VerdictValid         Verdict = "VALID"
	VerdictValidCommit   Verdict = "VALID_COMMIT"
	VerdictInvalidCommit Verdict = "INVALID_COMMIT"
	VerdictMalicious     Verdict = "MALICIOUS"
	VerdictTrivial       Verdict = "TRIVIAL"
	VerdictLabeled       Verdict = "LABELED"
	VerdictUnlabeled     Verdict = "UNLABELED"
	VerdictSkipped       Verdict = "SKIPPED"
)

// Stage vocabularies
var (
	spamVocabulary      = []Verdict{VerdictSpam, VerdictNotSpam}
	readmeVocabulary    = []Verdict{VerdictCovered, VerdictNotCovered}
	qualityVocabulary   = []Verdict{VerdictUnclear, VerdictBasic, VerdictValid}
	prQualityVocabulary = []Verdict{VerdictMalicious, VerdictTrivial, VerdictUnclear, VerdictValid}
)

var (
	negationRe = regexp.MustCompile(`\bNOT[\s-]+`)
	edgePunct  = "\"'`*_.,;:!?()[]{}<> \t\r\n"
)

// Normalize trims whitespace, quotes and punctuation and uppercases the token.
// "not spam" and "NOT-SPAM" normalize to "NOT_SPAM".
func Normalize(token string) string {
	s := strings.ToUpper(strings.TrimSpace(token))
	s = negationRe.ReplaceAllString(s, "NOT_")
	return strings.Trim(s, edgePunct)
}

// Match maps an oracle token onto a vocabulary: first an exact match of the
// normalized token, then the longest vocabulary word appearing as a whole word.
// A whole-word hit preceded by a negation ("NOT A SPAM", "isn't valid") makes
// the token unrecognized.
func Match(token string, vocabulary []Verdict) (Verdict, bool) {
	norm := Normalize(token)
	if norm == "" {
		return "", false
	}
	for _, v := range vocabulary {
		if norm == string(v) {
			return v, true
		}
	}

	known := make(map[string]Verdict, len(vocabulary))
	for _, v := range vocabulary {
		known[string(v)] = v
	}

	var best Verdict
	negated := false
	for _, w := range strings.FieldsFunc(strings.NewReplacer("'", "", "’", "").Replace(norm), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	}) {
		if v, ok := known[w]; ok {
			if negated {
				return "", false
			}
			if len(v) > len(best) {
				best = v
			}
			continue
		}
		if isNegation(w) {
			negated = true
		}
	}
	return best, best != ""
}

func isNegation(word string) bool {
	switch word {
	case "NOT", "NO", "NEVER", "NOR", "ISNT", "ARENT", "WASNT", "DOESNT", "DONT", "CANNOT", "CANT":
		return true
	}
	return strings.HasPrefix(word, "NOT_") || strings.HasPrefix(word, "NO_")
}

// matchOr returns the matched verdict or fallback, reporting whether the
// fallback was used.
func matchOr(token string, vocabulary []Verdict, fallback Verdict) (Verdict, bool) {
	if v, ok := Match(token, vocabulary); ok {
		return v, false
	}
	return fallback, true
}

// usableAnswer reports whether a free-text answer can be posted
func usableAnswer(answer string) bool {
	a := strings.TrimSpace(answer)
	if a == "" {
		return false
	}
	norm := strings.Join(strings.Fields(Normalize(a)), "_")
	return norm != "NO_ANSWER" && norm != "NONE" && norm != "N/A"
}
