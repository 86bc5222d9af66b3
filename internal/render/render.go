// Package render produces the three output modes for a PackageRecord: the labeled
// fixed-width info view, the one-line-plus-description search view, and the
// printf-like custom-format mini-language.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/cower-go/cower/internal/aur"
	"github.com/cower-go/cower/internal/license"
)

// Renderer holds the state every render mode needs beyond the record itself: the
// registry host (for building the AUR page URL %p), the terminal width budget for
// wrapping, and the list-join delimiter.
type Renderer struct {
	Proto     string
	Host      string
	Width     int
	ListDelim string
	Quiet     bool
	Verbose   bool

	label *color.Color
}

// New builds a Renderer. width should come from terminal detection (see TermWidth);
// callers that can't detect a terminal (piped output) should pass a generous fallback.
func New(proto, host string, width int, listDelim string, quiet, colorize bool) *Renderer {
	label := color.New(color.Bold)
	label.EnableColor()
	if !colorize {
		label.DisableColor()
	}
	return &Renderer{Proto: proto, Host: host, Width: width, ListDelim: listDelim, Quiet: quiet, label: label}
}

// TermWidth returns the detected terminal column width via golang.org/x/term, or
// fallback if fd isn't a terminal (piped/redirected output, the common case when
// cower's output feeds another program).
func TermWidth(fd int, fallback int) int {
	w, _, err := termSize(fd)
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

const defaultWidth = 80

// infoFields is the fixed label column of the info renderer; the longest entry sets
// the column width every value is aligned to.
var infoFields = []string{
	"Repository", "Name", "Version", "URL", "AUR Page", "Keywords", "License",
	"Groups", "Depends On", "Make Deps", "Opt Deps", "Conflicts With", "Provides",
	"Replaces", "Category", "Votes", "Out Of Date", "Maintainer",
	"Submitted", "Last Modified", "Description",
}

func labelWidth() int {
	w := 0
	for _, f := range infoFields {
		if len(f) > w {
			w = len(f)
		}
	}
	// +1 so even the widest label keeps a space before its colon, +2 for ": ".
	return w + 3
}

// Info renders the fixed-width labeled field view of rec, one field per line, with
// multi-element lists and the description wrapped to r.Width minus the label column.
func (r *Renderer) Info(w io.Writer, rec *aur.PackageRecord) {
	lw := labelWidth()

	field := func(name, value string) {
		r.label.Fprint(w, padLabel(name, lw))
		fmt.Fprintln(w, value)
	}
	listField := func(name string, values []string) {
		if len(values) == 0 {
			field(name, "None")
			return
		}
		field(name, wrapList(values, r.ListDelim, r.Width-lw, lw))
	}

	field("Repository", "aur")
	field("Name", rec.Name)
	field("Version", rec.Version)
	field("URL", rec.URL)
	field("AUR Page", r.pageURL(rec.Name))
	field("License", r.licenseField(rec.License))
	listField("Depends On", rec.Depends)
	listField("Make Deps", rec.MakeDepends)
	listField("Opt Deps", rec.OptDepends)
	listField("Conflicts With", rec.Conflicts)
	listField("Provides", rec.Provides)
	listField("Replaces", rec.Replaces)
	field("Category", aur.CategoryName(rec.CategoryID))
	field("Votes", strconv.Itoa(rec.NumVotes))
	field("Out Of Date", yesNo(rec.OutOfDate))
	field("Maintainer", maintainerOrOrphan(rec.Maintainer))
	field("Submitted", formatUnix(rec.FirstSubmitted))
	field("Last Modified", formatUnix(rec.LastModified))

	r.label.Fprint(w, padLabel("Description", lw))
	fmt.Fprintln(w, wrapText(rec.Description, r.Width-lw, lw))
}

// Search renders one search-result line per record: "repo/name ver (votes)
// [installed?]" with an indented description, or just the bare name in quiet mode.
func (r *Renderer) Search(w io.Writer, rec *aur.PackageRecord, installedVersion string) {
	if r.Quiet {
		fmt.Fprintln(w, rec.Name)
		return
	}

	r.label.Fprintf(w, "aur/%s", rec.Name)
	fmt.Fprintf(w, " %s (%d)", rec.Version, rec.NumVotes)
	if installedVersion != "" {
		fmt.Fprintf(w, " [installed: %s]", installedVersion)
	}
	fmt.Fprintln(w)

	desc := rec.Description
	if desc == "" {
		desc = "(none)"
	}
	fmt.Fprintln(w, "    "+wrapText(desc, r.Width-4, 4))
}

// Update renders one update-check line: "name installed -> remote", or just the bare
// name in quiet mode.
func (r *Renderer) Update(w io.Writer, rec *aur.PackageRecord, installedVersion string) {
	if r.Quiet {
		fmt.Fprintln(w, rec.Name)
		return
	}
	r.label.Fprint(w, rec.Name)
	fmt.Fprintf(w, " %s -> %s\n", installedVersion, rec.Version)
}

// licenseField renders the License value, flagging non-SPDX identifiers in verbose
// mode. AUR packages routinely carry free-form values like "custom", so the flag is
// informational and verbose-only, never an error.
func (r *Renderer) licenseField(l string) string {
	if l == "" {
		return "None"
	}
	if r.Verbose && !license.Valid(l) {
		return l + " (non-SPDX)"
	}
	return l
}

func (r *Renderer) pageURL(name string) string {
	return fmt.Sprintf("%s://%s/packages/%s", r.Proto, r.Host, name)
}

func maintainerOrOrphan(m string) string {
	if m == "" {
		return "(orphan)"
	}
	return m
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatUnix(sec int64) string {
	if sec == 0 {
		return "Unknown"
	}
	return time.Unix(sec, 0).UTC().Format("Mon Jan  2 15:04:05 2006")
}

// padLabel pads the field name on the right to the label column, then appends ": ",
// so the colons line up: "Name           : foo".
func padLabel(name string, width int) string {
	if pad := width - 2 - len(name); pad > 0 {
		name += strings.Repeat(" ", pad)
	}
	return name + ": "
}
