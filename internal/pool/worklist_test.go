package pool

import (
	"sync"
	"testing"
	"time"
)

func TestWorkListPopInOrder(t *testing.T) {
	wl := NewWorkList([]string{"a", "b", "c"}, 1)
	for _, want := range []string{"a", "b", "c"} {
		got, ok := wl.Pop()
		if !ok || got != want {
			t.Fatalf("Pop() = %q, %v, want %q, true", got, ok, want)
		}
	}
	if _, ok := wl.Pop(); ok {
		t.Error("Pop() on an exhausted single-worker list returned ok=true")
	}
}

func TestWorkListDedupesSeedTargets(t *testing.T) {
	wl := NewWorkList([]string{"a", "b", "a"}, 1)
	var got []string
	for {
		v, ok := wl.Pop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Pop sequence = %v, want [a b]", got)
	}
}

func TestWorkListAppendRejectsDuplicates(t *testing.T) {
	wl := NewWorkList([]string{"a"}, 1)
	if wl.Append("a") {
		t.Error("Append(a) reported new, but a was already seeded")
	}
	if !wl.Append("b") {
		t.Error("Append(b) reported not-new for a genuinely new target")
	}
}

func TestWorkListQuiescenceWaitsForAllWorkers(t *testing.T) {
	wl := NewWorkList([]string{"a"}, 2)

	var wg sync.WaitGroup
	results := make([][]string, 2)

	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(idx int) {
			defer wg.Done()
			for {
				v, ok := wl.Pop()
				if !ok {
					return
				}
				results[idx] = append(results[idx], v)
				if v == "a" {
					// Simulate dependency discovery: a new target surfaces
					// while the other worker may already be waiting.
					time.Sleep(5 * time.Millisecond)
					wl.Append("b")
				}
			}
		}(i)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not terminate: quiescence protocol deadlocked or failed to discover b")
	}

	var all []string
	all = append(all, results[0]...)
	all = append(all, results[1]...)
	if len(all) != 2 {
		t.Fatalf("total popped targets = %v, want exactly [a b] across both workers", all)
	}
}
