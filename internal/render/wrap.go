package render

import "strings"

// wrapText space-wraps text to width columns, indenting every continuation line by
// indent spaces so it lines up under the label column the first line started after.
func wrapText(text string, width, indent int) string {
	return wrapWords(strings.Fields(text), " ", width, indent)
}

// wrapList joins values with delim, wrapping at width the same way wrapText does.
func wrapList(values []string, delim string, width, indent int) string {
	return wrapWords(values, delim, width, indent)
}

func wrapWords(words []string, sep string, width, indent int) string {
	if width < 1 {
		width = 1
	}
	if len(words) == 0 {
		return ""
	}

	var lines []string
	var cur strings.Builder
	curLen := 0

	for _, w := range words {
		addLen := len(w)
		if curLen > 0 {
			addLen += len(sep)
		}
		if curLen > 0 && curLen+addLen > width {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteString(sep)
			curLen += len(sep)
		}
		cur.WriteString(w)
		curLen += len(w)
	}
	lines = append(lines, cur.String())

	indentStr := strings.Repeat(" ", indent)
	for i := 1; i < len(lines); i++ {
		lines[i] = indentStr + lines[i]
	}
	return strings.Join(lines, "\n")
}
