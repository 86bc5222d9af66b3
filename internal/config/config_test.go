package config

import (
	"strings"
	"testing"
)

func TestLoadFileOverlaysDefaults(t *testing.T) {
	c := Default()
	err := c.load(strings.NewReader(`
# comment
NoSSL = true
IgnoreRepo = testing community-testing
IgnorePkg = foo bar
IgnoreOOD = yes
MaxThreads = 4
ConnectTimeout = 20
Color = never
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Protocol != ProtoHTTP {
		t.Errorf("Protocol = %q, want http", c.Protocol)
	}
	if !c.IgnoreRepos["testing"] || !c.IgnoreRepos["community-testing"] {
		t.Errorf("IgnoreRepos = %v, missing expected entries", c.IgnoreRepos)
	}
	if !c.IgnorePkgs["foo"] || !c.IgnorePkgs["bar"] {
		t.Errorf("IgnorePkgs = %v, missing expected entries", c.IgnorePkgs)
	}
	if !c.IgnoreOutOfDate {
		t.Error("IgnoreOutOfDate = false, want true")
	}
	if c.MaxThreads != 4 {
		t.Errorf("MaxThreads = %d, want 4", c.MaxThreads)
	}
	if c.Timeout != 20 {
		t.Errorf("Timeout = %d, want 20", c.Timeout)
	}
	if c.Color != ColorNever {
		t.Errorf("Color = %q, want never", c.Color)
	}
}

func TestLoadFileRejectsRelativeTargetDir(t *testing.T) {
	c := Default()
	if err := c.load(strings.NewReader("TargetDir = relative/path\n")); err == nil {
		t.Error("expected error for relative TargetDir, got nil")
	}
}

func TestLoadFileRejectsMalformedLine(t *testing.T) {
	c := Default()
	if err := c.load(strings.NewReader("not-a-key-value-pair\n")); err == nil {
		t.Error("expected error for malformed line, got nil")
	}
}

func TestValidateRejectsRelativeTargetDir(t *testing.T) {
	c := Default()
	c.TargetDir = "relative"
	if err := c.Validate(); err == nil {
		t.Error("expected Validate to reject a relative TargetDir")
	}
}

func TestValidateRejectsNonPositiveMaxThreads(t *testing.T) {
	c := Default()
	c.MaxThreads = 0
	if err := c.Validate(); err == nil {
		t.Error("expected Validate to reject maxThreads <= 0")
	}
}
