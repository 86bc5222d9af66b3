package localdb

import "strings"

// VerCmp implements pacman's version-comparison algorithm (alpm_pkg_vercmp): split
// each version into epoch:pkgver-pkgrel, compare epoch numerically, then pkgver and
// pkgrel with the RPM-style alnum-run comparator.
func VerCmp(a, b string) int {
	aEpoch, aRest := splitEpoch(a)
	bEpoch, bRest := splitEpoch(b)
	if c := compareEpoch(aEpoch, bEpoch); c != 0 {
		return c
	}

	aVer, aRel := splitPkgrel(aRest)
	bVer, bRel := splitPkgrel(bRest)

	if c := rpmVerCmp(aVer, bVer); c != 0 {
		return c
	}
	if aRel == "" || bRel == "" {
		return 0
	}
	return rpmVerCmp(aRel, bRel)
}

func splitEpoch(v string) (epoch, rest string) {
	if i := strings.IndexByte(v, ':'); i >= 0 {
		return v[:i], v[i+1:]
	}
	return "0", v
}

func compareEpoch(a, b string) int {
	if a == "" {
		a = "0"
	}
	if b == "" {
		b = "0"
	}
	return rpmVerCmp(a, b)
}

func splitPkgrel(v string) (pkgver, pkgrel string) {
	if i := strings.LastIndexByte(v, '-'); i >= 0 {
		return v[:i], v[i+1:]
	}
	return v, ""
}

// rpmVerCmp compares two version strings segment by segment: runs of digits and runs
// of letters alternate and are compared independently; a numeric segment always
// outranks an alphabetic one at the same position; numeric segments compare by value
// (leading zeros ignored), alphabetic segments compare byte-for-byte. A non-alnum
// separator (including '.', '~', '_') just advances past itself on both sides without
// contributing to the comparison, matching libalpm's rpmvercmp.
func rpmVerCmp(a, b string) int {
	if a == b {
		return 0
	}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		for i < len(a) && !isAlnum(a[i]) {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) {
			j++
		}
		if i >= len(a) || j >= len(b) {
			break
		}

		var aSeg, bSeg string
		if isDigit(a[i]) {
			start := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			aSeg = a[start:i]
		} else {
			start := i
			for i < len(a) && isAlpha(a[i]) {
				i++
			}
			aSeg = a[start:i]
		}
		if isDigit(b[j]) {
			start := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			bSeg = b[start:j]
		} else {
			start := j
			for j < len(b) && isAlpha(b[j]) {
				j++
			}
			bSeg = b[start:j]
		}

		aNumeric := aSeg != "" && isDigit(aSeg[0])
		bNumeric := bSeg != "" && isDigit(bSeg[0])

		switch {
		case aNumeric && !bNumeric:
			return 1
		case !aNumeric && bNumeric:
			return -1
		case aNumeric && bNumeric:
			if c := compareNumeric(aSeg, bSeg); c != 0 {
				return c
			}
		default:
			if c := strings.Compare(aSeg, bSeg); c != 0 {
				return c
			}
		}
	}

	aRem := i < len(a)
	bRem := j < len(b)
	switch {
	case !aRem && !bRem:
		return 0
	case aRem:
		// A remaining alpha segment never beats an empty string: 1.0rc1 < 1.0.
		if isAlpha(a[i]) {
			return -1
		}
		return 1
	default:
		if isAlpha(b[j]) {
			return 1
		}
		return -1
	}
}

func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) > len(b) {
			return 1
		}
		return -1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }
