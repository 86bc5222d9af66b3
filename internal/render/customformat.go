package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cower-go/cower/internal/aur"
)

// maxCustomWidth bounds a parsed %<width><letter> field-width specifier. A width at
// or above this is treated as malformed and renders '?', same as an unrecognized
// conversion letter.
const maxCustomWidth = 30

// Custom renders rec through format, a printf-like template with %X placeholders.
// format and r.ListDelim both run through unescape first so a caller can pass literal
// `\n`/`\t` sequences from a shell-quoted flag value. Every record's rendering is
// newline-terminated regardless of the format string.
func (r *Renderer) Custom(w io.Writer, format string, rec *aur.PackageRecord) {
	f := unescape(format)
	delim := unescape(r.ListDelim)

	i, n := 0, len(f)
	for i < n {
		c := f[i]
		if c != '%' {
			fmt.Fprintf(w, "%c", c)
			i++
			continue
		}
		i++
		if i >= n {
			fmt.Fprint(w, "%")
			break
		}

		widthStart := i
		for i < n && f[i] >= '0' && f[i] <= '9' {
			i++
		}
		widthStr := f[widthStart:i]

		if i >= n {
			fmt.Fprint(w, "?")
			break
		}
		letter := f[i]
		i++

		value, ok := customValue(letter, rec, delim, r)
		if !ok {
			fmt.Fprint(w, "?")
			continue
		}

		if widthStr == "" {
			fmt.Fprint(w, value)
			continue
		}
		width, err := strconv.Atoi(widthStr)
		if err != nil || width >= maxCustomWidth {
			fmt.Fprint(w, "?")
			continue
		}
		fmt.Fprintf(w, "%*s", width, value)
	}
	fmt.Fprintln(w)
}

func customValue(letter byte, rec *aur.PackageRecord, delim string, r *Renderer) (string, bool) {
	switch letter {
	case '%':
		return "%", true
	case 'a':
		return strconv.FormatInt(rec.LastModified, 10), true
	case 'c':
		return aur.CategoryName(rec.CategoryID), true
	case 'd':
		return rec.Description, true
	case 'i':
		return strconv.Itoa(rec.ID), true
	case 'l':
		return rec.License, true
	case 'm':
		return maintainerOrOrphan(rec.Maintainer), true
	case 'n':
		return rec.Name, true
	case 'o':
		return strconv.Itoa(rec.NumVotes), true
	case 'p':
		return r.pageURL(rec.Name), true
	case 's':
		return strconv.FormatInt(rec.FirstSubmitted, 10), true
	case 't':
		return yesNo(rec.OutOfDate), true
	case 'u':
		return rec.URL, true
	case 'v':
		return rec.Version, true
	case 'C':
		return strings.Join(rec.Conflicts, delim), true
	case 'D':
		return strings.Join(rec.Depends, delim), true
	case 'M':
		return strings.Join(rec.MakeDepends, delim), true
	case 'O':
		return strings.Join(rec.OptDepends, delim), true
	case 'P':
		return strings.Join(rec.Provides, delim), true
	case 'R':
		return strings.Join(rec.Replaces, delim), true
	default:
		return "", false
	}
}

var escapeSequences = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'a':  '\a',
	'b':  '\b',
	'e':  0x1b,
	'v':  '\v',
	'\\': '\\',
	'"':  '"',
}

// unescape processes the recognized backslash escape sequences
// (\n \t \r \a \b \e \v \\ \") in a literal string, leaving any other backslash
// sequence untouched.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	i, n := 0, len(s)
	for i < n {
		if s[i] == '\\' && i+1 < n {
			if r, ok := escapeSequences[s[i+1]]; ok {
				b.WriteByte(r)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
