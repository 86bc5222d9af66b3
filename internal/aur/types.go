// Package aur is the registry client for the AUR JSON-RPC interface: the streaming
// sink that builds PackageRecord values off an HTTP response body, and the one-shot
// RPC/download operations a worker-pool task drives. The AUR returns one flat record
// per package, with its dependency lists filled in only once a PKGBUILD is parsed;
// there is no separate per-version fetch.
package aur

// Category names indexed by the AUR category ID the registry returns. Index 0 is
// unused; the registry never emits category 0.
var CategoryNames = []string{
	"", "None", "daemons", "devel", "editors", "emulators", "games", "gnome", "i18n",
	"kde", "lib", "modules", "multimedia", "network", "office", "science", "system",
	"x11", "xfce", "kernels", "font",
}

// CategoryName returns the category name for an index, or "unknown" if out of range.
func CategoryName(id int) string {
	if id < 0 || id >= len(CategoryNames) || CategoryNames[id] == "" {
		return "unknown"
	}
	return CategoryNames[id]
}

// PackageRecord is the full metadata for one AUR package.
type PackageRecord struct {
	ID             int
	Name           string
	Version        string
	CategoryID     int
	Description    string
	URL            string
	URLPath        string
	License        string
	Maintainer     string // "" means orphan
	NumVotes       int
	OutOfDate      bool
	FirstSubmitted int64
	LastModified   int64

	Depends     []string
	MakeDepends []string
	OptDepends  []string
	Provides    []string
	Conflicts   []string
	Replaces    []string
}

// Orphan reports whether the package has no registered maintainer.
func (p *PackageRecord) Orphan() bool {
	return p.Maintainer == ""
}

// Clone returns a deep copy of p, owning its own list-field backing arrays. The
// streaming parser builds records into a reusable scratch slot (internal/aur/parser.go)
// and must not let two inserted records alias the same slice.
func (p *PackageRecord) Clone() *PackageRecord {
	out := *p
	out.Depends = append([]string(nil), p.Depends...)
	out.MakeDepends = append([]string(nil), p.MakeDepends...)
	out.OptDepends = append([]string(nil), p.OptDepends...)
	out.Provides = append([]string(nil), p.Provides...)
	out.Conflicts = append([]string(nil), p.Conflicts...)
	out.Replaces = append([]string(nil), p.Replaces...)
	return &out
}

// reset zeroes the record in place for reuse by the next parse, truncating the list
// slices rather than reallocating them.
func (p *PackageRecord) reset() {
	*p = PackageRecord{
		Depends:     p.Depends[:0],
		MakeDepends: p.MakeDepends[:0],
		OptDepends:  p.OptDepends[:0],
		Provides:    p.Provides[:0],
		Conflicts:   p.Conflicts[:0],
		Replaces:    p.Replaces[:0],
	}
}

// Kind selects which AUR RPC operation a Query call issues.
type Kind string

const (
	Info    Kind = "info"
	Search  Kind = "search"
	MSearch Kind = "msearch"
)
