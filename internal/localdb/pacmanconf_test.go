package localdb

import (
	"strings"
	"testing"
)

const samplePacmanConf = `
[options]
IgnorePkg = foo bar

[core]
Include = /etc/pacman.d/mirrorlist

[extra]
Include = /etc/pacman.d/mirrorlist

[testing]
IgnorePkg = baz
Include = /etc/pacman.d/mirrorlist
`

func TestParsePacmanConf(t *testing.T) {
	dbNames, ignorePkgs, err := ParsePacmanConf(strings.NewReader(samplePacmanConf), nil, false)
	if err != nil {
		t.Fatalf("ParsePacmanConf: %v", err)
	}
	want := []string{"core", "extra", "testing"}
	if len(dbNames) != len(want) {
		t.Fatalf("dbNames = %v, want %v", dbNames, want)
	}
	for i := range want {
		if dbNames[i] != want[i] {
			t.Errorf("dbNames[%d] = %q, want %q", i, dbNames[i], want[i])
		}
	}

	wantPkgs := map[string]bool{"foo": true, "bar": true, "baz": true}
	if len(ignorePkgs) != len(wantPkgs) {
		t.Fatalf("ignorePkgs = %v, want keys %v", ignorePkgs, wantPkgs)
	}
	for _, p := range ignorePkgs {
		if !wantPkgs[p] {
			t.Errorf("unexpected ignorePkg %q", p)
		}
	}
}

func TestParsePacmanConfIgnoreRepos(t *testing.T) {
	dbNames, _, err := ParsePacmanConf(strings.NewReader(samplePacmanConf), map[string]bool{"extra": true}, false)
	if err != nil {
		t.Fatalf("ParsePacmanConf: %v", err)
	}
	for _, name := range dbNames {
		if name == "extra" {
			t.Error("ignored repo 'extra' was still registered")
		}
	}
}

func TestParsePacmanConfSkipRepos(t *testing.T) {
	dbNames, _, err := ParsePacmanConf(strings.NewReader(samplePacmanConf), nil, true)
	if err != nil {
		t.Fatalf("ParsePacmanConf: %v", err)
	}
	if len(dbNames) != 0 {
		t.Errorf("dbNames = %v, want none with skipRepos", dbNames)
	}
}
