package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Bound returns content trimmed to whole sections so that the result is at
// most maxChars runes long (plus a one-line omission note). The preamble is
// kept when it fits. If not even the first block fits it is cut at maxChars.
// maxChars <= 0 disables trimming.
func Bound(content string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(content) <= maxChars {
		return content
	}

	doc := ParseMarkdown([]byte(content))

	var blocks []string
	if doc.Preamble != "" {
		blocks = append(blocks, doc.Preamble)
	}
	for _, s := range doc.Sections {
		if strings.TrimSpace(s.Content) != "" {
			blocks = append(blocks, s.Content)
		}
	}
	if len(blocks) == 0 {
		return truncateRunes(content, maxChars)
	}

	var kept []string
	used := 0
	for _, b := range blocks {
		n := utf8.RuneCountInString(b)
		if len(kept) > 0 {
			n += 2 // blank line separator
		}
		if used+n > maxChars {
			break
		}
		kept = append(kept, b)
		used += n
	}

	if len(kept) == 0 {
		return truncateRunes(blocks[0], maxChars) + fmt.Sprintf("\n\n(%d more section(s) omitted)", len(blocks)-1)
	}

	out := strings.Join(kept, "\n\n")
	if omitted := len(blocks) - len(kept); omitted > 0 {
		out += fmt.Sprintf("\n\n(%d more section(s) omitted)", omitted)
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
