package localdb

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func writeDesc(t *testing.T, dir, dirName, name, version string) {
	t.Helper()
	pkgDir := filepath.Join(dir, dirName)
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := "%NAME%\n" + name + "\n\n%VERSION%\n" + version + "\n\n"
	if err := os.WriteFile(filepath.Join(pkgDir, "desc"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func writeSyncDB(t *testing.T, dir, repoName string, pkgs map[string]string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, repoName+".db"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, version := range pkgs {
		content := "%NAME%\n" + name + "\n\n%VERSION%\n" + version + "\n\n"
		hdr := &tar.Header{
			Name: name + "-" + version + "/desc",
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar Close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}
}

func TestPacmanDBInstalledAndListForeign(t *testing.T) {
	localRoot := t.TempDir()
	syncRoot := t.TempDir()

	writeDesc(t, localRoot, "foo-1.0-1", "foo", "1.0-1")
	writeDesc(t, localRoot, "bash-5.2-1", "bash", "5.2-1")

	writeSyncDB(t, syncRoot, "core", map[string]string{"bash": "5.2-1"})

	db, err := Open(localRoot, syncRoot, []string{"core"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	rec, ok := db.Installed("foo")
	if !ok || rec.Version != "1.0-1" {
		t.Fatalf("Installed(foo) = %+v, %v", rec, ok)
	}

	if _, ok := db.Installed("doesnotexist"); ok {
		t.Error("Installed(doesnotexist) reported installed")
	}

	foreign, err := db.ListForeign()
	if err != nil {
		t.Fatalf("ListForeign: %v", err)
	}
	if len(foreign) != 1 || foreign[0] != "foo" {
		t.Errorf("ListForeign() = %v, want [foo]", foreign)
	}
}

func TestPacmanDBSatisfiedBy(t *testing.T) {
	localRoot := t.TempDir()
	syncRoot := t.TempDir()
	writeSyncDB(t, syncRoot, "core", map[string]string{"qux": "3.0-1"})

	db, err := Open(localRoot, syncRoot, []string{"core"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if repo, ok := db.SatisfiedBy("qux>=2"); !ok || repo != "core" {
		t.Errorf("SatisfiedBy(qux>=2) = %q, %v, want core, true", repo, ok)
	}
	if _, ok := db.SatisfiedBy("qux>=4"); ok {
		t.Error("SatisfiedBy(qux>=4) reported satisfied by a lower version")
	}
	if _, ok := db.SatisfiedBy("nope"); ok {
		t.Error("SatisfiedBy(nope) reported satisfied for a package not in any sync db")
	}
}

func TestParseDepString(t *testing.T) {
	tests := []struct {
		dep, name, op, ver string
	}{
		{"baz", "baz", "", ""},
		{"baz>=2", "baz", ">=", "2"},
		{"baz=1.0-1", "baz", "=", "1.0-1"},
		{"baz<3", "baz", "<", "3"},
	}
	for _, tt := range tests {
		name, op, ver := parseDepString(tt.dep)
		if name != tt.name || op != tt.op || ver != tt.ver {
			t.Errorf("parseDepString(%q) = (%q,%q,%q), want (%q,%q,%q)",
				tt.dep, name, op, ver, tt.name, tt.op, tt.ver)
		}
	}
}
