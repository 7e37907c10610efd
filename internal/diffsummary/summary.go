// Package diffsummary builds bounded, prompt-sized summaries of pull request
// file changes.
package diffsummary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// FileChange is one changed file as reported by the repository host
type FileChange struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"` // added, modified, removed, renamed
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch,omitempty"`
}

// Profile bounds how much of a change set is summarised
type Profile struct {
	Files        int `yaml:"files" json:"files"`
	LinesPerFile int `yaml:"lines_per_file" json:"lines_per_file"`
}

// Named depth presets
const (
	DepthLight  = "light"
	DepthNormal = "normal"
	DepthDeep   = "deep"
)

// DefaultPresets returns the built-in depth presets
func DefaultPresets() map[string]Profile {
	return map[string]Profile{
		DepthLight:  {Files: 3, LinesPerFile: 3},
		DepthNormal: {Files: 5, LinesPerFile: 5},
		DepthDeep:   {Files: 10, LinesPerFile: 10},
	}
}

// Preset looks up a named profile
func Preset(presets map[string]Profile, name string) (Profile, error) {
	p, ok := presets[name]
	if !ok {
		names := make([]string, 0, len(presets))
		for n := range presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return Profile{}, fmt.Errorf("unknown depth preset %q (available: %s)", name, strings.Join(names, ", "))
	}
	return p, nil
}

// Summarize renders at most p.Files files, each with at most p.LinesPerFile
// added/removed lines, followed by a truncation note when files were dropped.
func Summarize(files []FileChange, p Profile) string {
	if len(files) == 0 {
		return "(no file changes)"
	}

	shown := len(files)
	if p.Files >= 0 && shown > p.Files {
		shown = p.Files
	}

	var sb strings.Builder
	for _, f := range files[:shown] {
		fmt.Fprintf(&sb, "- %s (%s, +%d -%d)\n", f.Filename, f.Status, f.Additions, f.Deletions)
		for _, line := range ChangedLines(f.Filename, f.Patch, p.LinesPerFile) {
			sb.WriteString("    ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	if shown < len(files) {
		fmt.Fprintf(&sb, "... %d more file(s) not shown (total=%d, shown=%d)\n", len(files)-shown, len(files), shown)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// ChangedLines returns up to limit added/removed lines from a patch, each
// prefixed with + or -. Context lines are skipped.
func ChangedLines(filename, patch string, limit int) []string {
	if limit <= 0 || strings.TrimSpace(patch) == "" {
		return nil
	}

	lines, err := parsedLines(filename, patch, limit)
	if err != nil {
		// Truncated patches miscount their hunks; fall back to a plain scan.
		return scannedLines(patch, limit)
	}
	return lines
}

// parsedLines parses a hunk-only patch (as returned by the GitHub API) by
// giving it a synthetic git file header.
func parsedLines(filename, patch string, limit int) ([]string, error) {
	if filename == "" {
		filename = "file"
	}
	raw := fmt.Sprintf("diff --git a/%[1]s b/%[1]s\n--- a/%[1]s\n+++ b/%[1]s\n%[2]s", filename, patch)
	if !strings.HasSuffix(raw, "\n") {
		raw += "\n"
	}

	files, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing patch for %s: %w", filename, err)
	}

	var out []string
	for _, f := range files {
		for _, frag := range f.TextFragments {
			for _, line := range frag.Lines {
				var prefix string
				switch line.Op {
				case gitdiff.OpAdd:
					prefix = "+"
				case gitdiff.OpDelete:
					prefix = "-"
				default:
					continue
				}
				out = append(out, prefix+strings.TrimRight(line.Line, "\r\n"))
				if len(out) >= limit {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

func scannedLines(patch string, limit int) []string {
	var out []string
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			continue
		}
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
			out = append(out, strings.TrimRight(line, "\r"))
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// Stats returns the number of files and total added/deleted lines
func Stats(files []FileChange) (n, added, deleted int) {
	n = len(files)
	for _, f := range files {
		added += f.Additions
		deleted += f.Deletions
	}
	return
}
