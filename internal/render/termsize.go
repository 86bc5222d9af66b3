package render

import "golang.org/x/term"

// termSize is the one call site depending on golang.org/x/term, isolated so TermWidth
// stays trivially testable without a real terminal.
func termSize(fd int) (width, height int, err error) {
	return term.GetSize(fd)
}
