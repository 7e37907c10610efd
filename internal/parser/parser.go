// Package parser splits markdown context documents (README, pinned issues)
// into sections so they can be bounded for prompts.
package parser

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a parsed markdown document
type Document struct {
	Frontmatter map[string]interface{} // YAML frontmatter, if any
	Preamble    string                 // text before the first heading
	Sections    []Section              // every heading, in document order
}

// Section is a heading and the text up to the next heading
type Section struct {
	Title     string
	Level     int
	StartLine int
	EndLine   int
	Content   string // includes the heading line
}

// ParseFrontmatter extracts YAML frontmatter from content between --- delimiters
// Returns the parsed frontmatter and the remaining content without frontmatter
func ParseFrontmatter(content []byte) (map[string]interface{}, []byte) {
	s := string(content)

	if !strings.HasPrefix(s, "---") {
		return nil, content
	}

	rest := s[3:]
	endIdx := strings.Index(rest, "\n---")
	if endIdx == -1 {
		return nil, content
	}

	frontmatterStr := strings.TrimSpace(rest[:endIdx])

	var frontmatter map[string]interface{}
	if err := yaml.Unmarshal([]byte(frontmatterStr), &frontmatter); err != nil {
		return nil, content
	}

	remaining := rest[endIdx+4:] // +4 for "\n---"
	remaining = strings.TrimPrefix(remaining, "\n")

	return frontmatter, []byte(remaining)
}
