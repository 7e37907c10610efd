package parser

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMarkdown parses content into a preamble and flat list of sections.
// Headings inside code blocks are not section boundaries.
func ParseMarkdown(content []byte) *Document {
	frontmatter, body := ParseFrontmatter(content)
	body = bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n"))

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(body))

	sections := extractSections(doc, body)
	lines := strings.Split(string(body), "\n")
	fillSectionContent(sections, lines)

	preambleEnd := len(lines)
	if len(sections) > 0 {
		preambleEnd = sections[0].StartLine - 1
	}

	return &Document{
		Frontmatter: frontmatter,
		Preamble:    strings.TrimSpace(strings.Join(lines[:preambleEnd], "\n")),
		Sections:    sections,
	}
}

// extractSections walks the AST and records every heading
func extractSections(doc ast.Node, source []byte) []Section {
	var sections []Section

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		line := 1
		if heading.Lines().Len() > 0 {
			seg := heading.Lines().At(0)
			line = bytes.Count(source[:seg.Start], []byte("\n")) + 1
		}

		sections = append(sections, Section{
			Title:     string(heading.Text(source)),
			Level:     heading.Level,
			StartLine: line,
		})
		return ast.WalkSkipChildren, nil
	})

	return sections
}

// fillSectionContent sets each section's line range and text. A section ends
// where the next heading starts, whatever its level.
func fillSectionContent(sections []Section, lines []string) {
	for i := range sections {
		section := &sections[i]

		endLine := len(lines)
		if i+1 < len(sections) {
			endLine = sections[i+1].StartLine - 1
		}
		section.EndLine = endLine

		if section.StartLine > 0 && section.EndLine >= section.StartLine {
			start := section.StartLine - 1
			end := min(section.EndLine, len(lines))
			section.Content = strings.TrimRight(strings.Join(lines[start:end], "\n"), "\n ")
		}
	}
}
