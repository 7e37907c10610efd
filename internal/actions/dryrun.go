package actions

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// DryRun prints the calls it would make instead of making them
type DryRun struct {
	w      io.Writer
	target string
}

// NewDryRun creates a printing executor. target names the artifact, e.g.
// "owner/repo#12".
func NewDryRun(w io.Writer, target string) *DryRun {
	return &DryRun{w: w, target: target}
}

var (
	dryRunHeader = color.New(color.FgCyan, color.Bold)
	dryRunBody   = color.New(color.FgGreen)
)

// Comment prints the comment text
func (d *DryRun) Comment(_ context.Context, text string) error {
	dryRunHeader.Fprintf(d.w, "Would comment on %s:\n", d.target)
	preview := strings.TrimRight(text, "\n")
	dryRunBody.Fprintln(d.w, "  > "+strings.ReplaceAll(preview, "\n", "\n  > "))
	return nil
}

// Close prints the close call
func (d *DryRun) Close(_ context.Context, reason string) error {
	dryRunHeader.Fprintf(d.w, "Would close %s", d.target)
	fmt.Fprintf(d.w, " (reason: %s)\n", reason)
	return nil
}

// Lock prints the lock call
func (d *DryRun) Lock(_ context.Context, reason string) error {
	dryRunHeader.Fprintf(d.w, "Would lock %s", d.target)
	fmt.Fprintf(d.w, " (reason: %s)\n", reason)
	return nil
}

// AddLabel prints the label call
func (d *DryRun) AddLabel(_ context.Context, label string) error {
	dryRunHeader.Fprintf(d.w, "Would label %s", d.target)
	fmt.Fprintf(d.w, " %q\n", label)
	return nil
}
