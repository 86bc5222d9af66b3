// Package task implements the three units of work a pool worker runs against a popped
// target — query, update, download — dispatched through pool.TaskFunc.
package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cower-go/cower/internal/aur"
	"github.com/cower-go/cower/internal/archive"
	"github.com/cower-go/cower/internal/config"
	"github.com/cower-go/cower/internal/errs"
	"github.com/cower-go/cower/internal/localdb"
	"github.com/cower-go/cower/internal/logging"
	"github.com/cower-go/cower/internal/pool"
	"github.com/cower-go/cower/internal/recipe"
)

// Context carries the state a task needs beyond (session, target): the local package
// database, the merged Config, and the logger. It is shared read-only across workers
// except for the fields localdb.DB itself protects (SatisfiedBy's dedicated lock).
type Context struct {
	DB     localdb.DB
	Cfg    *config.Config
	Logger *logging.Logger

	// CombineDownload is set when -u is combined with -d: an outdated package is
	// downloaded instead of just reported.
	CombineDownload bool
}

// Query returns a pool.TaskFunc issuing one RPC call of the given kind. For
// Search/MSearch, target is the user's full pattern; the RPC itself is issued against
// SearchPrefilter(target), and internal/aggregate applies the full pattern as a regex
// over the returned records' Name/Description.
func (tc *Context) Query(kind aur.Kind) pool.TaskFunc {
	return func(ctx context.Context, sess *aur.Session, wl *pool.WorkList, target string) ([]*aur.PackageRecord, error) {
		arg := target
		if kind == aur.Search || kind == aur.MSearch {
			prefilter, err := SearchPrefilter(target)
			if err != nil {
				return nil, err
			}
			arg = prefilter
		}
		return sess.Query(ctx, kind, arg)
	}
}

// Update returns a pool.TaskFunc for update checking: look up the registry version,
// compare against the locally installed version, and either report the delta, recurse
// into Download (if CombineDownload), or return nothing when the package is up to
// date, not installed, or in IgnorePkgs.
func (tc *Context) Update() pool.TaskFunc {
	return func(ctx context.Context, sess *aur.Session, wl *pool.WorkList, target string) ([]*aur.PackageRecord, error) {
		records, err := sess.Query(ctx, aur.Info, target)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			tc.Logger.Debugf("%s: not found in the registry", target)
			return nil, nil
		}
		remote := records[0]

		installed, ok := tc.DB.Installed(target)
		if !ok {
			tc.Logger.Warnf("%s: not installed locally", target)
			return nil, nil
		}

		if tc.DB.VerCmp(remote.Version, installed.Version) <= 0 {
			return nil, nil
		}

		if tc.Cfg.IgnorePkgs[target] {
			tc.Logger.Warnf("%s: ignoring package upgrade (%s -> %s)", target, installed.Version, remote.Version)
			return nil, nil
		}

		if tc.CombineDownload {
			return tc.Download()(ctx, sess, wl, target)
		}

		return []*aur.PackageRecord{remote}, nil
	}
}

// Download returns a pool.TaskFunc for tarball fetching: skip if a binary repo
// already satisfies the target, fetch info, refuse an existing destination without
// --force, download and extract the tarball, and, if getDeps is set, parse the
// extracted PKGBUILD and enqueue newly discovered dependencies onto wl.
func (tc *Context) Download() pool.TaskFunc {
	return func(ctx context.Context, sess *aur.Session, wl *pool.WorkList, target string) ([]*aur.PackageRecord, error) {
		if repo, ok := tc.DB.SatisfiedBy(target); ok {
			tc.Logger.Warnf("%s: already satisfied by %s, skipping", target, repo)
			return nil, nil
		}

		records, err := sess.Query(ctx, aur.Info, target)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, &errs.NoResults{Target: target}
		}
		rec := records[0]

		destPath := filepath.Join(tc.Cfg.TargetDir, target)
		if _, err := os.Stat(destPath); err == nil && !tc.Cfg.Force {
			return nil, &errs.AlreadyExists{Path: destPath}
		}

		body, err := sess.Download(ctx, target, rec.URLPath)
		if err != nil {
			return nil, err
		}
		defer body.Close()

		topDir, err := archive.Extract(target, tc.Cfg.TargetDir, body, tc.Logger)
		if err != nil {
			return nil, err
		}
		tc.Logger.Infof("%s downloaded to %s", target, tc.Cfg.TargetDir)

		if tc.Cfg.GetDeps {
			tc.resolveDependencies(wl, topDir)
		}

		return []*aur.PackageRecord{rec}, nil
	}
}

// resolveDependencies reads the just-extracted <targetDir>/<topDir>/PKGBUILD, collects
// depends and makedepends, strips version constraints, and enqueues every name not
// already installed or satisfied by a binary repo.
func (tc *Context) resolveDependencies(wl *pool.WorkList, topDir string) {
	path := filepath.Join(tc.Cfg.TargetDir, topDir, "PKGBUILD")
	buf, err := os.ReadFile(path)
	if err != nil {
		tc.Logger.Warnf("%s: could not read PKGBUILD for dependency resolution: %s", topDir, err)
		return
	}

	info := recipe.Parse(string(buf))
	deps := make([]string, 0, len(info.Depends)+len(info.MakeDepends))
	deps = append(deps, info.Depends...)
	deps = append(deps, info.MakeDepends...)

	for _, dep := range deps {
		name := stripVersionConstraint(dep)
		if name == "" {
			continue
		}
		if _, ok := tc.DB.Installed(name); ok {
			continue
		}
		if repo, ok := tc.DB.SatisfiedBy(dep); ok {
			tc.Logger.Warnf("%s: dependency %s already satisfied by %s", topDir, name, repo)
			continue
		}
		if wl.Append(name) {
			tc.Logger.Debugf("%s: discovered new dependency %s", topDir, name)
		}
	}
}

var constraintOps = []byte{'<', '>', '='}

// stripVersionConstraint trims a dependency specifier like "baz>=2" down to its bare
// package name "baz".
func stripVersionConstraint(dep string) string {
	if i := strings.IndexAny(dep, string(constraintOps)); i >= 0 {
		return dep[:i]
	}
	return dep
}

// regexMetachars are the characters SearchPrefilter treats as breaking a contiguous
// literal run. Character-class brackets and braces are deliberately absent: a bracket
// expression's body is still a usable literal.
const regexMetachars = ".^$*+?()|\\"

// SearchPrefilter computes the longest metacharacter-free substring of target, the
// literal fragment actually sent to the registry RPC as the `arg` parameter. A target
// with no such substring of length >= 2 fails before any HTTP request is issued.
func SearchPrefilter(target string) (string, error) {
	best := ""
	i, n := 0, len(target)
	for i < n {
		if strings.IndexByte(regexMetachars, target[i]) >= 0 {
			i++
			continue
		}
		start := i
		for i < n && strings.IndexByte(regexMetachars, target[i]) < 0 {
			i++
		}
		if i-start > len(best) {
			best = target[start:i]
		}
	}
	if len(best) < 2 {
		return "", &errs.InvalidArgument{Msg: fmt.Sprintf("search string %q too short", target)}
	}
	return best, nil
}
