package httpclient

import (
	"context"
	"time"

	"github.com/rs/dnscache"
)

// resolver wraps dnscache.Resolver: a single shared cache per Client, refreshed
// periodically in the background instead of resolving on every dial.
type resolver struct {
	dnscache.Resolver
}

func (r *resolver) refreshLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		r.Refresh(true)
	}
}

func (r *resolver) lookup(ctx context.Context, host string) ([]string, error) {
	return r.LookupHost(ctx, host)
}
