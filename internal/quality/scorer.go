// Package quality scores how complete a submitted issue or PR description is.
package quality

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pthm/triagebot/internal/template"
)

// Level buckets a score
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Analysis is the scored result
type Analysis struct {
	Score   float64  `json:"score"` // 0-100
	Level   Level    `json:"level"`
	Reasons []string `json:"reasons"`
}

// Report renders the analysis for prompts
func (a Analysis) Report() string {
	return fmt.Sprintf("Quality score: %.0f/100 (%s)\nReasons: %s", a.Score, a.Level, strings.Join(a.Reasons, "; "))
}

// Weights are the score contributions of each heuristic branch
type Weights struct {
	Base float64 `yaml:"base"`

	TitleMinLength int     `yaml:"title_min_length"`
	TitleBonus     float64 `yaml:"title_bonus"`
	TitlePenalty   float64 `yaml:"title_penalty"`

	TemplateRich    float64 `yaml:"template_rich"`    // >= 2 valid sections
	TemplatePartial float64 `yaml:"template_partial"` // some content, < 2 sections
	TemplateEmpty   float64 `yaml:"template_empty"`

	BodyLongLength  int     `yaml:"body_long_length"`
	BodyLong        float64 `yaml:"body_long"`
	BodyShortLength int     `yaml:"body_short_length"`
	BodyShort       float64 `yaml:"body_short"`
	BodyMissing     float64 `yaml:"body_missing"`

	HighCutoff   float64 `yaml:"high_cutoff"`
	MediumCutoff float64 `yaml:"medium_cutoff"`
}

// DefaultWeights returns the stock weights
func DefaultWeights() Weights {
	return Weights{
		Base:            50,
		TitleMinLength:  10,
		TitleBonus:      15,
		TitlePenalty:    -10,
		TemplateRich:    25,
		TemplatePartial: 10,
		TemplateEmpty:   -20,
		BodyLongLength:  50,
		BodyLong:        20,
		BodyShortLength: 10,
		BodyShort:       5,
		BodyMissing:     -25,
		HighCutoff:      70,
		MediumCutoff:    40,
	}
}

// Scorer computes quality scores
type Scorer struct {
	w Weights
}

// NewScorer creates a scorer with the given weights
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Score rates title and body completeness. It is a pure function of its inputs.
func (s *Scorer) Score(title, body string, analysis template.Analysis, extracted template.Extracted) Analysis {
	score := s.w.Base
	var reasons []string

	titleLen := utf8.RuneCountInString(strings.TrimSpace(title))
	if titleLen > s.w.TitleMinLength {
		score += s.w.TitleBonus
		reasons = append(reasons, "descriptive title")
	} else {
		score += s.w.TitlePenalty
		reasons = append(reasons, fmt.Sprintf("title too short (%d chars)", titleLen))
	}

	bodyLen := utf8.RuneCountInString(strings.TrimSpace(body))
	switch {
	case analysis.HasTemplate && !extracted.IsEmpty && extracted.ValidSections >= 2:
		score += s.w.TemplateRich
		reasons = append(reasons, fmt.Sprintf("template filled (%d/%d sections)", extracted.ValidSections, extracted.TotalSections))
	case analysis.HasTemplate && !extracted.IsEmpty:
		score += s.w.TemplatePartial
		reasons = append(reasons, fmt.Sprintf("template partially filled (%d/%d sections)", extracted.ValidSections, extracted.TotalSections))
	case analysis.HasTemplate:
		score += s.w.TemplateEmpty
		reasons = append(reasons, "template left empty")
	case bodyLen > s.w.BodyLongLength:
		score += s.w.BodyLong
		reasons = append(reasons, "detailed description")
	case bodyLen > s.w.BodyShortLength:
		score += s.w.BodyShort
		reasons = append(reasons, "brief description")
	default:
		score += s.w.BodyMissing
		reasons = append(reasons, "description missing")
	}

	score = clamp(score, 0, 100)

	return Analysis{
		Score:   score,
		Level:   s.level(score),
		Reasons: reasons,
	}
}

func (s *Scorer) level(score float64) Level {
	switch {
	case score >= s.w.HighCutoff:
		return LevelHigh
	case score >= s.w.MediumCutoff:
		return LevelMedium
	default:
		return LevelLow
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
