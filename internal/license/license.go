// Package license validates the license strings cower encounters (a PackageRecord's
// License field off the registry) against the SPDX license list, so the verbose info
// renderer can flag free-form values that won't match distribution licensing policy
// checks.
package license

import "github.com/github/go-spdx/v2/spdxexp"

// Valid reports whether raw is a well-formed SPDX license expression. An empty string
// is valid — the registry and PKGBUILDs both allow an unset license.
func Valid(raw string) bool {
	if raw == "" {
		return true
	}
	ok, _ := spdxexp.ValidateLicenses([]string{raw})
	return ok
}
