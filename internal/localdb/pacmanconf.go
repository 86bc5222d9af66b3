package localdb

import (
	"bufio"
	"io"
	"strings"
)

// ParsePacmanConf registers synced-DB names and accumulates IgnorePkg entries from a
// pacman.conf-style file: a "[section]" header other than "[options]" registers a DB
// name, skipped when it's in ignoreRepos or skipRepos is set; an "IgnorePkg = a b c"
// line anywhere in the file accumulates into the returned ignorePkgs list.
func ParsePacmanConf(r io.Reader, ignoreRepos map[string]bool, skipRepos bool) (dbNames []string, ignorePkgs []string, err error) {
	scanner := bufio.NewScanner(r)
	seen := map[string]bool{}

	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			if section != "options" && !skipRepos && !ignoreRepos[section] && !seen[section] {
				seen[section] = true
				dbNames = append(dbNames, section)
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(key) == "IgnorePkg" {
			ignorePkgs = append(ignorePkgs, strings.Fields(strings.TrimSpace(value))...)
		}
	}

	return dbNames, ignorePkgs, scanner.Err()
}
