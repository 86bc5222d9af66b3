// Package aggregate joins, regex-filters, sorts and deduplicates the per-worker
// PackageRecord lists a pool run produces, ahead of internal/render.
package aggregate

import (
	"regexp"
	"sort"

	"github.com/cower-go/cower/internal/aur"
)

// FilterSearch filters the full result set against the user's search patterns: for
// each target it compiles a case-insensitive, multi-line regex and keeps any record
// whose Name or Description matches. A target whose pattern fails to compile is
// silently skipped along with its would-be matches. Each target is filtered
// independently against the complete candidate set and the survivors unioned, so one
// target's filter never narrows another's candidates.
func FilterSearch(all []*aur.PackageRecord, targets []string) []*aur.PackageRecord {
	matched := make(map[string]*aur.PackageRecord)
	var order []string

	for _, target := range targets {
		re, err := regexp.Compile("(?im)" + target)
		if err != nil {
			continue
		}
		for _, rec := range all {
			if _, ok := matched[rec.Name]; ok {
				continue
			}
			if re.MatchString(rec.Name) || re.MatchString(rec.Description) {
				matched[rec.Name] = rec
				order = append(order, rec.Name)
			}
		}
	}

	out := make([]*aur.PackageRecord, 0, len(order))
	for _, name := range order {
		out = append(out, matched[name])
	}
	return out
}

// Sort orders records by name, case-sensitive ASCII byte comparison.
func Sort(records []*aur.PackageRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
}

// Dedupe assumes records is already Sort-ed and suppresses any record whose name
// equals its predecessor's, keeping the first occurrence.
func Dedupe(records []*aur.PackageRecord) []*aur.PackageRecord {
	out := make([]*aur.PackageRecord, 0, len(records))
	for i, rec := range records {
		if i > 0 && rec.Name == records[i-1].Name {
			continue
		}
		out = append(out, rec)
	}
	return out
}
