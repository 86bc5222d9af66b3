// Package config holds the merged runtime configuration: defaults, overlaid by the
// config file, overlaid by CLI flags. cmd/cower builds one Config from pflag output
// and hands it to every other package.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cower-go/cower/internal/errs"
)

// Color is the ANSI escape-emission policy.
type Color string

const (
	ColorNever  Color = "never"
	ColorAlways Color = "always"
	ColorAuto   Color = "auto"
)

// Protocol selects the scheme used to reach the registry host.
type Protocol string

const (
	ProtoHTTPS Protocol = "https"
	ProtoHTTP  Protocol = "http"
)

const (
	defaultMaxThreads = 10
	defaultTimeout    = 10 // seconds
)

// Config is the merged configuration consumed by internal/pool, internal/task,
// internal/aur and internal/render.
type Config struct {
	Color Color

	IgnorePkgs  map[string]bool
	IgnoreRepos map[string]bool

	IgnoreOutOfDate bool
	TargetDir       string

	MaxThreads int
	Timeout    int // seconds

	Protocol Protocol
	Host     string

	Force        bool
	GetDeps      bool
	ExtendedInfo bool

	Format    string
	ListDelim string

	Quiet, Verbose, Brief, Debug bool
}

// Default returns a Config with the documented defaults.
func Default() *Config {
	return &Config{
		Color:       ColorAuto,
		IgnorePkgs:  map[string]bool{},
		IgnoreRepos: map[string]bool{},
		MaxThreads:  defaultMaxThreads,
		Timeout:     defaultTimeout,
		Protocol:    ProtoHTTPS,
		Host:        "aur.archlinux.org",
		ListDelim:   "  ",
	}
}

// Validate enforces the cross-field invariants: targetDir must be absolute,
// maxThreads positive, timeout non-negative.
func (c *Config) Validate() error {
	if c.TargetDir != "" && !filepath.IsAbs(c.TargetDir) {
		return &errs.InvalidArgument{Msg: fmt.Sprintf("target directory %q must be an absolute path", c.TargetDir)}
	}
	if c.MaxThreads <= 0 {
		return &errs.InvalidArgument{Msg: "maxThreads must be > 0"}
	}
	if c.Timeout < 0 {
		return &errs.InvalidArgument{Msg: "timeout must be >= 0"}
	}
	return nil
}

// FilePath resolves the config file location: $XDG_CONFIG_HOME/cower/config, falling
// back to $HOME/.config/cower/config.
func FilePath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cower", "config"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cower", "config"), nil
}

// LoadFile overlays c with the Key = Value lines of the config file at path. A missing
// file is not an error (cower runs fine off flags and defaults alone); a malformed
// value is. CLI flags are applied after LoadFile by cmd/cower so they take precedence.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	return c.load(f)
}

func (c *Config) load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return &errs.InvalidArgument{Msg: fmt.Sprintf("malformed config line: %q", line)}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := c.setKey(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (c *Config) setKey(key, value string) error {
	switch key {
	case "NoSSL":
		if isTruthy(value) {
			c.Protocol = ProtoHTTP
		}
	case "IgnoreRepo":
		for _, r := range strings.Fields(value) {
			c.IgnoreRepos[r] = true
		}
	case "IgnorePkg":
		for _, p := range strings.Fields(value) {
			c.IgnorePkgs[p] = true
		}
	case "IgnoreOOD":
		c.IgnoreOutOfDate = isTruthy(value)
	case "TargetDir":
		c.TargetDir = expandTilde(value)
		if !filepath.IsAbs(c.TargetDir) {
			return &errs.InvalidArgument{Msg: fmt.Sprintf("TargetDir %q must be an absolute path", value)}
		}
	case "MaxThreads":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return &errs.InvalidArgument{Msg: fmt.Sprintf("invalid MaxThreads value %q", value)}
		}
		c.MaxThreads = n
	case "ConnectTimeout":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return &errs.InvalidArgument{Msg: fmt.Sprintf("invalid ConnectTimeout value %q", value)}
		}
		c.Timeout = n
	case "Color":
		switch Color(value) {
		case ColorNever, ColorAlways, ColorAuto:
			c.Color = Color(value)
		default:
			return &errs.InvalidArgument{Msg: fmt.Sprintf("invalid Color value %q", value)}
		}
	default:
		// Unrecognized keys are ignored rather than fatal: a future config key
		// should not break an older binary reading a newer file.
	}
	return nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
