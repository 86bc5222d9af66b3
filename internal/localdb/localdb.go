// Package localdb is the adapter between cower and pacman's package databases. It
// reads the on-disk local and sync databases directly (read-only), in the same formats
// libalpm maintains, avoiding a cgo dependency on libalpm itself.
package localdb

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cower-go/cower/internal/archive"
	"github.com/cower-go/cower/internal/errs"
)

// Record is one installed package as reported by Installed.
type Record struct {
	Name    string
	Version string
}

// DB is the local-package-database interface internal/task depends on, so a fake can
// stand in for tests without a real pacman root.
type DB interface {
	ListForeign() ([]string, error)
	Installed(name string) (*Record, bool)
	SatisfiedBy(dep string) (repo string, ok bool)
	VerCmp(a, b string) int
}

// syncRepo is one registered binary (synced) database: a name -> version index built
// by scanning the repo's compressed tar archive for desc files.
type syncRepo struct {
	name     string
	packages map[string]string
}

// PacmanDB is the concrete DB reading pacman's local and sync database trees.
type PacmanDB struct {
	localRoot string
	syncDBs   []syncRepo

	// mu serializes SatisfiedBy lookups; sync-DB queries are not assumed safe for
	// concurrent use.
	mu sync.Mutex
}

// Open builds a PacmanDB rooted at localRoot (typically /var/lib/pacman/local), loading
// each named synced database from syncRoot (typically /var/lib/pacman/sync). A sync
// database that fails to load is skipped with its error message folded into a single
// returned *errs.LocalDBError (see joinErrors), not fatal to the whole adapter — a single stale/missing repo archive
// shouldn't prevent querying the rest.
func Open(localRoot, syncRoot string, syncNames []string) (*PacmanDB, error) {
	db := &PacmanDB{localRoot: localRoot}
	var errsList []error
	for _, name := range syncNames {
		repo, err := loadSyncRepo(syncRoot, name)
		if err != nil {
			errsList = append(errsList, &errs.LocalDBError{Op: "load sync db " + name, Err: err})
			continue
		}
		db.syncDBs = append(db.syncDBs, repo)
	}
	if len(errsList) > 0 {
		return db, joinErrors(errsList)
	}
	return db, nil
}

func joinErrors(errsList []error) error {
	msgs := make([]string, len(errsList))
	for i, e := range errsList {
		msgs[i] = e.Error()
	}
	return &errs.LocalDBError{Op: "Open", Err: &errs.InvalidArgument{Msg: strings.Join(msgs, "; ")}}
}

// ListForeign returns the names of locally installed packages absent from every
// registered synced database.
func (db *PacmanDB) ListForeign() ([]string, error) {
	entries, err := os.ReadDir(db.localRoot)
	if err != nil {
		return nil, &errs.LocalDBError{Op: "ListForeign", Err: err}
	}

	var foreign []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		desc, err := readDesc(filepath.Join(db.localRoot, e.Name(), "desc"))
		if err != nil {
			continue
		}
		name := desc["NAME"]
		if name == "" || db.inSyncDB(name) {
			continue
		}
		foreign = append(foreign, name)
	}
	sort.Strings(foreign)
	return foreign, nil
}

func (db *PacmanDB) inSyncDB(name string) bool {
	for _, repo := range db.syncDBs {
		if _, ok := repo.packages[name]; ok {
			return true
		}
	}
	return false
}

// Installed reports the installed version of name, if any.
func (db *PacmanDB) Installed(name string) (*Record, bool) {
	entries, err := os.ReadDir(db.localRoot)
	if err != nil {
		return nil, false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		desc, err := readDesc(filepath.Join(db.localRoot, e.Name(), "desc"))
		if err != nil {
			continue
		}
		if desc["NAME"] == name {
			return &Record{Name: name, Version: desc["VERSION"]}, true
		}
	}
	return nil, false
}

// SatisfiedBy reports the first synced database containing a package satisfying the
// version-constrained dependency string dep (e.g. "baz>=2").
func (db *PacmanDB) SatisfiedBy(dep string) (string, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	name, op, want := parseDepString(dep)
	for _, repo := range db.syncDBs {
		ver, ok := repo.packages[name]
		if ok && versionSatisfies(ver, op, want) {
			return repo.name, true
		}
	}
	return "", false
}

// VerCmp implements the distribution's version-ordering algorithm.
func (db *PacmanDB) VerCmp(a, b string) int { return VerCmp(a, b) }

var depOps = []string{">=", "<=", "==", ">", "<", "="}

// parseDepString splits a dependency specifier like "baz>=2" into its bare name and
// version constraint. A bare name with no operator has op == "" and is satisfied by
// any installed version.
func parseDepString(dep string) (name, op, version string) {
	for _, o := range depOps {
		if idx := strings.Index(dep, o); idx >= 0 {
			return dep[:idx], o, dep[idx+len(o):]
		}
	}
	return dep, "", ""
}

func versionSatisfies(have, op, want string) bool {
	if op == "" {
		return true
	}
	c := VerCmp(have, want)
	switch op {
	case ">=":
		return c >= 0
	case "<=":
		return c <= 0
	case "=", "==":
		return c == 0
	case ">":
		return c > 0
	case "<":
		return c < 0
	default:
		return false
	}
}

// loadSyncRepo scans a pacman sync-database archive (a gzip- or zstd-compressed tar of
// "<name>-<version>/desc" entries) into a name->version index, reusing internal/archive's
// compression-sniffing tar reader rather than duplicating it.
func loadSyncRepo(syncRoot, name string) (syncRepo, error) {
	f, err := os.Open(filepath.Join(syncRoot, name+".db"))
	if err != nil {
		return syncRepo{}, err
	}
	defer f.Close()

	tr, closeDecoder, err := archive.NewTarReader(f)
	if err != nil {
		return syncRepo{}, err
	}
	defer closeDecoder()

	packages := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return syncRepo{}, err
		}
		if !strings.HasSuffix(hdr.Name, "/desc") {
			continue
		}
		buf, err := io.ReadAll(tr)
		if err != nil {
			continue
		}
		desc := parseDesc(string(buf))
		if n := desc["NAME"]; n != "" {
			packages[n] = desc["VERSION"]
		}
	}
	return syncRepo{name: name, packages: packages}, nil
}

func readDesc(path string) (map[string]string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseDesc(string(buf)), nil
}

// parseDesc parses pacman's line-oriented "%FIELD%\nvalue\n" desc format: each field
// name is wrapped in percent signs on its own line, followed by one or more value
// lines up to the next blank line.
func parseDesc(content string) map[string]string {
	fields := map[string]string{}
	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if len(line) < 2 || line[0] != '%' || line[len(line)-1] != '%' {
			continue
		}
		key := strings.Trim(line, "%")
		var values []string
		i++
		for i < len(lines) && lines[i] != "" {
			values = append(values, lines[i])
			i++
		}
		fields[key] = strings.Join(values, "\n")
	}
	return fields
}
