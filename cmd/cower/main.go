// Command cower is a concurrent CLI client for the AUR JSON-RPC registry: search,
// info, update-checking, and dependency-aware tarball download, fanned out over a
// bounded worker pool (internal/pool).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/cower-go/cower/internal/aggregate"
	"github.com/cower-go/cower/internal/aur"
	"github.com/cower-go/cower/internal/config"
	"github.com/cower-go/cower/internal/errs"
	"github.com/cower-go/cower/internal/httpclient"
	"github.com/cower-go/cower/internal/localdb"
	"github.com/cower-go/cower/internal/logging"
	"github.com/cower-go/cower/internal/pool"
	"github.com/cower-go/cower/internal/render"
	"github.com/cower-go/cower/internal/task"
)

const (
	exitSuccess         = 0
	exitUsageError      = 1
	exitIncompatibleOrV = 2
	exitNoOperation     = 3

	pacmanConfPath = "/etc/pacman.conf"
	localDBRoot    = "/var/lib/pacman/local"
	syncDBRoot     = "/var/lib/pacman/sync"

	version = "2.0.0"
)

// opMask records which of the mutually-exclusive (mostly) CLI operations were
// requested. Passing -i or -d twice upgrades them to extended info and
// fetch-dependencies respectively.
type opMask struct {
	search, info, download, msearch, update bool
	extendedInfo, getDeps                   bool
}

// alone reports whether update was requested with nothing else. An update run is the
// one operation where an empty result set means success (nothing outdated), so the
// exit-code computation needs to know.
func (m opMask) alone() bool {
	return m.update && !m.search && !m.info && !m.download && !m.msearch
}

func (m opMask) count() int {
	n := 0
	if m.search {
		n++
	}
	if m.info {
		n++
	}
	if m.msearch {
		n++
	}
	if m.update || m.download {
		n++
	}
	return n
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		searchCount, infoCount, downloadCount int
		msearch, update                       bool
		force, nossl                          bool
		ignorePkgs, ignoreRepos               []string
		targetDir                             string
		threads, timeoutSec                   int
		showHelp, showVersion                 bool
		brief, debug, quiet, verbose          bool
		colorFlag                             string
		format, listDelim                     string
		ignoreOOD, noIgnoreOOD                bool
	)

	fs := flag.NewFlagSet("cower", flag.ContinueOnError)
	fs.CountVarP(&searchCount, "search", "s", "search for packages")
	fs.CountVarP(&infoCount, "info", "i", "show package info (twice for extended info)")
	fs.CountVarP(&downloadCount, "download", "d", "download packages (twice to also fetch dependencies)")
	fs.BoolVarP(&msearch, "msearch", "m", false, "search for packages maintained by a user")
	fs.BoolVarP(&update, "update", "u", false, "check foreign packages for updates")

	fs.BoolVarP(&force, "force", "f", false, "overwrite an existing download directory")
	fs.StringArrayVar(&ignorePkgs, "ignore", nil, "ignore a package")
	fs.StringArrayVar(&ignoreRepos, "ignorerepo", nil, "ignore a distribution sync repository")
	fs.BoolVar(&nossl, "nossl", false, "use plain HTTP to reach the registry")
	fs.StringVarP(&targetDir, "target", "t", "", "download directory")
	fs.IntVar(&threads, "threads", 0, "max concurrent workers")
	fs.IntVar(&timeoutSec, "timeout", 0, "per-request timeout, in seconds")
	fs.BoolVarP(&showHelp, "help", "h", false, "show this help and exit")
	fs.BoolVarP(&showVersion, "version", "V", false, "show version and exit")

	fs.BoolVarP(&brief, "brief", "b", false, "emit brief, tab-delimited output")
	fs.StringVarP(&colorFlag, "color", "c", "", "colorize output: auto|always|never")
	fs.Lookup("color").NoOptDefVal = "always"
	fs.BoolVar(&debug, "debug", false, "enable debug logging")
	fs.StringVar(&format, "format", "", "custom output format string")
	fs.BoolVarP(&ignoreOOD, "ignore-ood", "o", false, "filter out-of-date packages from results")
	fs.BoolVar(&noIgnoreOOD, "no-ignore-ood", false, "do not filter out-of-date packages")
	fs.StringVar(&listDelim, "listdelim", "", "delimiter joining list fields")
	fs.BoolVarP(&quiet, "quiet", "q", false, "only show package names")
	fs.BoolVarP(&verbose, "verbose", "v", false, "show additional information")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: cower <operation> [options] [targets...]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		return exitUsageError
	}

	if showVersion {
		fmt.Printf("cower %s\n", version)
		return exitIncompatibleOrV
	}
	if showHelp {
		fs.Usage()
		return exitSuccess
	}

	mask := opMask{
		search: searchCount > 0, info: infoCount > 0, download: downloadCount > 0,
		msearch: msearch, update: update,
		extendedInfo: infoCount >= 2, getDeps: downloadCount >= 2,
	}
	switch n := mask.count(); {
	case n == 0:
		fmt.Fprintln(os.Stderr, "error: no operation specified (use -h for help)")
		return exitNoOperation
	case n > 1:
		fmt.Fprintln(os.Stderr, "error: operations are mutually exclusive (except -u with -d)")
		return exitIncompatibleOrV
	}

	cfg := config.Default()
	if path, err := config.FilePath(); err == nil {
		if err := cfg.LoadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			return exitUsageError
		}
	}

	applyOverrides(cfg, overrides{
		nossl: nossl, force: force, ignorePkgs: ignorePkgs, ignoreRepos: ignoreRepos,
		targetDir: ifChanged(fs, "target", targetDir), threads: ifChangedInt(fs, "threads", threads),
		timeoutSec: ifChangedInt(fs, "timeout", timeoutSec), color: ifChanged(fs, "color", colorFlag),
		format: ifChanged(fs, "format", format), listDelim: ifChanged(fs, "listdelim", listDelim),
		ignoreOOD: fs.Changed("ignore-ood"), noIgnoreOOD: fs.Changed("no-ignore-ood"),
		quiet: quiet, verbose: verbose, brief: brief, debug: debug,
		extendedInfo: mask.extendedInfo, getDeps: mask.getDeps,
	})

	if cfg.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			return exitUsageError
		}
		cfg.TargetDir = cwd
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return exitUsageError
	}

	level := logging.LevelFor(cfg.Quiet, cfg.Verbose, cfg.Debug)
	logger := logging.New(os.Stderr, level, cfg.Brief)

	db, err := openLocalDB(cfg)
	if err != nil {
		var fatal *errs.Fatal
		if errors.As(err, &fatal) {
			fmt.Fprintf(os.Stderr, "error: %s\n", fatal)
			return fatal.ExitCode()
		}
		logger.Warnf("local db: %s", err)
	}

	targets := fs.Args()
	if mask.update && len(targets) == 0 {
		targets, err = db.ListForeign()
		if err != nil {
			logger.Warnf("could not list foreign packages: %s", err)
		}
	}
	if len(targets) == 0 && !mask.update {
		fmt.Fprintln(os.Stderr, "error: no targets specified (use -h for help)")
		return exitUsageError
	}

	workers := cfg.MaxThreads
	if len(targets) < workers {
		workers = len(targets)
	}
	if workers < 1 {
		workers = 1
	}
	wl := pool.NewWorkList(targets, workers)

	if mask.download || (mask.update && mask.getDeps) {
		if err := os.Chdir(cfg.TargetDir); err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot enter target directory %s: %s\n", cfg.TargetDir, err)
			return exitUsageError
		}
	}

	sessionFactory := func() *aur.Session {
		hc := httpclient.New(httpclient.WithTimeout(time.Duration(cfg.Timeout) * time.Second))
		return aur.NewSession(hc, string(cfg.Protocol), cfg.Host, cfg.IgnoreOutOfDate, cfg.ExtendedInfo)
	}

	tc := &task.Context{DB: db, Cfg: cfg, Logger: logger, CombineDownload: mask.update && mask.download}

	var taskFn pool.TaskFunc
	switch {
	case mask.search:
		taskFn = tc.Query(aur.Search)
	case mask.msearch:
		taskFn = tc.Query(aur.MSearch)
	case mask.info:
		taskFn = tc.Query(aur.Info)
	case mask.update:
		// -u alone reports deltas; -u -d recurses into download per target.
		taskFn = tc.Update()
	default:
		taskFn = tc.Download()
	}

	prog := logger.Progress()
	records := pool.Run(context.Background(), wl, workers, sessionFactory, taskFn, logger)

	if mask.search || mask.msearch {
		records = aggregate.FilterSearch(records, targets)
	}
	aggregate.Sort(records)
	records = aggregate.Dedupe(records)
	prog.Done(fmt.Sprintf("%d results aggregated", len(records)))

	renderResults(cfg, db, mask, records)

	empty := len(records) == 0
	if empty != mask.alone() {
		return 1
	}
	return exitSuccess
}

func renderResults(cfg *config.Config, db localdb.DB, mask opMask, records []*aur.PackageRecord) {
	colorize := shouldColorize(cfg.Color)
	width := render.TermWidth(int(os.Stdout.Fd()), 80)
	r := render.New(string(cfg.Protocol), cfg.Host, width, cfg.ListDelim, cfg.Quiet, colorize)
	r.Verbose = cfg.Verbose

	for _, rec := range records {
		switch {
		case cfg.Format != "":
			r.Custom(os.Stdout, cfg.Format, rec)
		case mask.search || mask.msearch:
			installed := ""
			if inst, ok := db.Installed(rec.Name); ok {
				installed = inst.Version
			}
			r.Search(os.Stdout, rec, installed)
		case mask.update:
			installed := ""
			if inst, ok := db.Installed(rec.Name); ok {
				installed = inst.Version
			}
			r.Update(os.Stdout, rec, installed)
		default:
			r.Info(os.Stdout, rec)
			fmt.Fprintln(os.Stdout)
		}
	}
}

func shouldColorize(c config.Color) bool {
	switch c {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
}

// openLocalDB registers synced DBs from pacman.conf and opens the read-only local-DB
// adapter. A missing pacman.conf is not fatal: cower falls back
// to an empty sync-DB set, degrading SatisfiedBy to always-false.
func openLocalDB(cfg *config.Config) (*localdb.PacmanDB, error) {
	dbNames := []string(nil)
	f, err := os.Open(pacmanConfPath)
	if err == nil {
		defer f.Close()
		var ignorePkgs []string
		dbNames, ignorePkgs, err = localdb.ParsePacmanConf(f, cfg.IgnoreRepos, false)
		if err != nil {
			return nil, &errs.Fatal{Msg: "parsing pacman.conf", Err: err}
		}
		for _, p := range ignorePkgs {
			cfg.IgnorePkgs[p] = true
		}
	}
	return localdb.Open(localDBRoot, syncDBRoot, dbNames)
}

type overrides struct {
	nossl, force                        bool
	ignorePkgs, ignoreRepos             []string
	targetDir, color, format, listDelim string
	threads, timeoutSec                 int
	ignoreOOD, noIgnoreOOD              bool
	quiet, verbose, brief, debug        bool
	extendedInfo, getDeps               bool
}

// applyOverrides layers CLI flags on top of the file-loaded Config: CLI overrides
// file, file overrides defaults.
func applyOverrides(cfg *config.Config, o overrides) {
	if o.nossl {
		cfg.Protocol = config.ProtoHTTP
	}
	for _, p := range o.ignorePkgs {
		cfg.IgnorePkgs[p] = true
	}
	for _, r := range o.ignoreRepos {
		cfg.IgnoreRepos[r] = true
	}
	if o.targetDir != "" {
		cfg.TargetDir = o.targetDir
	}
	if o.threads > 0 {
		cfg.MaxThreads = o.threads
	}
	if o.timeoutSec > 0 {
		cfg.Timeout = o.timeoutSec
	}
	if o.color != "" {
		cfg.Color = config.Color(o.color)
	}
	if o.format != "" {
		cfg.Format = o.format
	}
	if o.listDelim != "" {
		cfg.ListDelim = o.listDelim
	}
	if o.ignoreOOD {
		cfg.IgnoreOutOfDate = true
	}
	if o.noIgnoreOOD {
		cfg.IgnoreOutOfDate = false
	}
	cfg.Force = o.force
	cfg.Quiet = o.quiet
	cfg.Verbose = o.verbose
	cfg.Brief = o.brief
	cfg.Debug = o.debug
	cfg.ExtendedInfo = o.extendedInfo
	cfg.GetDeps = o.getDeps
}

func ifChanged(fs *flag.FlagSet, name, value string) string {
	if fs.Changed(name) {
		return value
	}
	return ""
}

func ifChangedInt(fs *flag.FlagSet, name string, value int) int {
	if fs.Changed(name) {
		return value
	}
	return 0
}
