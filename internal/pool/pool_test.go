package pool

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/cower-go/cower/internal/aur"
	"github.com/cower-go/cower/internal/logging"
)

func TestRunJoinsAllWorkerResults(t *testing.T) {
	targets := []string{"foo", "bar", "baz"}
	wl := NewWorkList(targets, 2)
	var buf bytes.Buffer
	logger := logging.New(&buf, log.InfoLevel, false)

	task := func(ctx context.Context, sess *aur.Session, wl *WorkList, target string) ([]*aur.PackageRecord, error) {
		if target == "bar" {
			return nil, errors.New("simulated failure")
		}
		return []*aur.PackageRecord{{Name: target}}, nil
	}

	records := Run(context.Background(), wl, 2, func() *aur.Session { return nil }, task, logger)
	if len(records) != 2 {
		t.Fatalf("Run returned %d records, want 2 (bar's failure is logged and skipped)", len(records))
	}
	if !bytes.Contains(buf.Bytes(), []byte("bar")) {
		t.Error("expected the logged failure to mention the failing target")
	}
}

func TestRunMatchesSingleWorkerResultSet(t *testing.T) {
	targets := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	task := func(ctx context.Context, sess *aur.Session, wl *WorkList, target string) ([]*aur.PackageRecord, error) {
		return []*aur.PackageRecord{{Name: target}}, nil
	}
	var buf bytes.Buffer
	logger := logging.New(&buf, log.InfoLevel, false)

	run := func(workers int) map[string]bool {
		wl := NewWorkList(targets, workers)
		records := Run(context.Background(), wl, workers, func() *aur.Session { return nil }, task, logger)
		seen := make(map[string]bool)
		for _, r := range records {
			seen[r.Name] = true
		}
		return seen
	}

	single := run(1)
	many := run(4)

	if len(single) != len(many) {
		t.Fatalf("result set size differs: maxThreads=1 got %d, maxThreads=4 got %d", len(single), len(many))
	}
	for name := range single {
		if !many[name] {
			t.Errorf("target %q present under maxThreads=1 but missing under maxThreads=4", name)
		}
	}
}
