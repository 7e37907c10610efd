// Package config loads triagebot configuration: label set, prompt and
// response templates, depth presets and heuristic thresholds.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm/triagebot/internal/diffsummary"
	"github.com/pthm/triagebot/internal/labels"
	"github.com/pthm/triagebot/internal/quality"
	"github.com/pthm/triagebot/internal/template"
)

//go:embed defaults.yaml
var configFS embed.FS

// Prompt template keys
const (
	PromptSpamCheck      = "spam_check"
	PromptReadmeCoverage = "readme_coverage"
	PromptReadmeAnswer   = "readme_answer"
	PromptClassify       = "classify"
	PromptQuality        = "quality"
	PromptUnclearAnswer  = "unclear_answer"
	PromptPRSpamCheck    = "pr_spam_check"
	PromptPRQuality      = "pr_quality"
	PromptPRClassify     = "pr_classify"
)

// Response template keys
const (
	ResponseSpamIssue     = "spam_issue"
	ResponseSpamPR        = "spam_pr"
	ResponseReadmeCovered = "readme_covered"
	ResponseUnclearAnswer = "unclear_answer"
	ResponseNeedsDetail   = "needs_detail"
	ResponseBasicQuestion = "basic_question"
	ResponseInvalidCommit = "invalid_commit"
	ResponseMaliciousPR   = "malicious_pr"
	ResponseTrivialPR     = "trivial_pr"
)

// IssuePrompts are the prompt keys the issue pipeline needs
var IssuePrompts = []string{
	PromptSpamCheck, PromptReadmeCoverage, PromptReadmeAnswer,
	PromptClassify, PromptQuality, PromptUnclearAnswer,
}

// IssueResponses are the response keys the issue pipeline needs
var IssueResponses = []string{
	ResponseSpamIssue, ResponseReadmeCovered, ResponseUnclearAnswer,
	ResponseNeedsDetail, ResponseBasicQuestion,
}

// PullRequestPrompts are the prompt keys the PR pipeline needs
var PullRequestPrompts = []string{PromptPRSpamCheck, PromptPRQuality, PromptPRClassify}

// PullRequestResponses are the response keys the PR pipeline needs
var PullRequestResponses = []string{
	ResponseSpamPR, ResponseInvalidCommit, ResponseMaliciousPR, ResponseTrivialPR,
}

// Thresholds tune template detection
type Thresholds struct {
	TemplateConfidence float64 `yaml:"template_confidence"`
	TitlePrefixWeight  int     `yaml:"title_prefix_weight"`
	MinKeywords        int     `yaml:"min_keywords"`
}

// ServerConfig configures the webhook server
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	MaxConcurrent int    `yaml:"max_concurrent"`
	Secret        string `yaml:"-"` // TRIAGEBOT_WEBHOOK_SECRET only
}

// Config is the complete configuration
type Config struct {
	Model            string                         `yaml:"model"`
	Backend          string                         `yaml:"backend"`
	Depth            string                         `yaml:"depth"`
	Labels           []string                       `yaml:"labels"`
	NeedsDetailStems []string                       `yaml:"needs_detail_stems"`
	SkipAuthors      []string                       `yaml:"skip_authors"`
	PinnedLabel      string                         `yaml:"pinned_label"`
	ReadmeMaxChars   int                            `yaml:"readme_max_chars"`
	DepthPresets     map[string]diffsummary.Profile `yaml:"depth_presets"`
	Thresholds       Thresholds                     `yaml:"thresholds"`
	Quality          quality.Weights                `yaml:"quality"`
	Server           ServerConfig                   `yaml:"server"`
	Prompts          map[string]string              `yaml:"prompts"`
	Responses        map[string]string              `yaml:"responses"`
}

// ConfigurationError reports a missing or invalid configuration value
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// Default returns the embedded configuration
func Default() (*Config, error) {
	data, err := configFS.ReadFile("defaults.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded defaults: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}
	return &cfg, nil
}

// Load returns the defaults overlaid with the YAML file at path (if path is
// non-empty) and with environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if model := os.Getenv("TRIAGEBOT_MODEL"); model != "" {
		cfg.Model = model
	}
	cfg.Server.Secret = os.Getenv("TRIAGEBOT_WEBHOOK_SECRET")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks everything both pipelines depend on. All problems are
// returned together; each is a *ConfigurationError.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if len(c.Labels) == 0 {
		add("labels", "label set is empty")
	}
	for _, bad := range labels.Validate(c.Labels) {
		add("labels", "blank or duplicate label %q", bad)
	}

	if err := CheckTemplates("prompts", c.Prompts, append(append([]string{}, IssuePrompts...), PullRequestPrompts...)); err != nil {
		errs = append(errs, err)
	}
	if err := CheckTemplates("responses", c.Responses, append(append([]string{}, IssueResponses...), PullRequestResponses...)); err != nil {
		errs = append(errs, err)
	}

	for name, p := range c.DepthPresets {
		if p.Files <= 0 {
			add("depth_presets."+name, "files must be positive, got %d", p.Files)
		}
		if p.LinesPerFile < 0 {
			add("depth_presets."+name, "lines_per_file must not be negative, got %d", p.LinesPerFile)
		}
	}
	if _, err := diffsummary.Preset(c.DepthPresets, c.Depth); err != nil {
		add("depth", "%v", err)
	}

	if t := c.Thresholds.TemplateConfidence; t < 0 || t > 100 {
		add("thresholds.template_confidence", "must be within [0,100], got %g", t)
	}
	if c.Thresholds.MinKeywords < 0 {
		add("thresholds.min_keywords", "must not be negative")
	}
	if c.Thresholds.TitlePrefixWeight < 0 {
		add("thresholds.title_prefix_weight", "must not be negative")
	}
	if c.Quality.MediumCutoff > c.Quality.HighCutoff {
		add("quality", "medium_cutoff (%g) exceeds high_cutoff (%g)", c.Quality.MediumCutoff, c.Quality.HighCutoff)
	}
	if c.ReadmeMaxChars < 0 {
		add("readme_max_chars", "must not be negative")
	}

	return errors.Join(errs...)
}

// CheckTemplates verifies that every required key is present and non-blank
// and that no template references an unknown placeholder.
func CheckTemplates(field string, templates map[string]string, required []string) error {
	var errs []error
	for _, key := range required {
		tmpl, ok := templates[key]
		if !ok || isBlank(tmpl) {
			errs = append(errs, &ConfigurationError{Field: field + "." + key, Message: "template is missing"})
			continue
		}
		if unknown := UnknownPlaceholders(tmpl); len(unknown) > 0 {
			errs = append(errs, &ConfigurationError{
				Field:   field + "." + key,
				Message: fmt.Sprintf("unknown placeholder(s) %v", unknown),
			})
		}
	}
	return errors.Join(errs...)
}

// TemplateOptions converts the thresholds to detection options
func (c *Config) TemplateOptions() template.Options {
	return template.Options{
		Threshold:         c.Thresholds.TemplateConfidence,
		TitlePrefixWeight: c.Thresholds.TitlePrefixWeight,
		MinKeywords:       c.Thresholds.MinKeywords,
	}
}

// DepthProfile returns the configured depth preset
func (c *Config) DepthProfile() (diffsummary.Profile, error) {
	p, err := diffsummary.Preset(c.DepthPresets, c.Depth)
	if err != nil {
		return diffsummary.Profile{}, &ConfigurationError{Field: "depth", Message: err.Error()}
	}
	return p, nil
}

// IsSkippedAuthor reports whether login is in skip_authors
func (c *Config) IsSkippedAuthor(login string) bool {
	for _, a := range c.SkipAuthors {
		if a == login {
			return true
		}
	}
	return false
}
