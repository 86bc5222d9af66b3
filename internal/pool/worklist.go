package pool

import "sync"

// WorkList is the shared, mutex-guarded target queue: an ordered sequence of target
// names, append-only after pool start except that a download task may append newly
// discovered dependencies. Pop removes the head.
type WorkList struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []string
	seen    map[string]bool
	workers int
	waiting int
	done    bool
}

// NewWorkList seeds a WorkList with targets (deduplicated, first occurrence kept),
// sized for workers parallel poppers.
func NewWorkList(targets []string, workers int) *WorkList {
	wl := &WorkList{seen: make(map[string]bool, len(targets)), workers: workers}
	wl.cond = sync.NewCond(&wl.mu)
	for _, t := range targets {
		if !wl.seen[t] {
			wl.seen[t] = true
			wl.items = append(wl.items, t)
		}
	}
	return wl
}

// Pop removes and returns the head of the list. A worker that finds the list empty
// does not exit immediately: it blocks until either new work arrives (via Append) or
// every other worker is also blocked waiting, at which point the whole pool is
// quiescent and Pop returns ok=false to all of them. Recursive dependency discovery
// is therefore exhausted before the pool terminates, at the cost of keeping idle
// workers parked instead of exiting early.
func (wl *WorkList) Pop() (string, bool) {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	for len(wl.items) == 0 && !wl.done {
		wl.waiting++
		if wl.waiting == wl.workers {
			wl.done = true
			wl.cond.Broadcast()
			wl.waiting--
			return "", false
		}
		wl.cond.Wait()
		wl.waiting--
	}
	if wl.done {
		return "", false
	}

	item := wl.items[0]
	wl.items = wl.items[1:]
	return item, true
}

// Append adds target to the tail of the list if it has not already been seen (by any
// prior Append or the initial seed), waking one blocked worker. It reports whether
// target was newly added, so a caller can distinguish "queued for a worker" from
// "already known" without a second lookup.
func (wl *WorkList) Append(target string) bool {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	if wl.seen[target] {
		return false
	}
	wl.seen[target] = true
	wl.items = append(wl.items, target)
	wl.cond.Signal()
	return true
}
