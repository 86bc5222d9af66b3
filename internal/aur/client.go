package aur

import (
	"context"
	"io"

	"github.com/cower-go/cower/internal/errs"
	"github.com/cower-go/cower/internal/httpclient"
	"github.com/cower-go/cower/internal/recipe"
)

// Session is one registry client per worker, each owning its own *httpclient.Client
// and therefore its own circuit-breaker and backoff state.
type Session struct {
	http      *httpclient.Client
	proto     string
	host      string
	ignoreOOD bool
	extended  bool
}

// NewSession constructs a Session bound to hc, talking to proto://host. ignoreOOD is
// threaded through to every Sink the session creates, so a query filters out-of-date
// results at parse time rather than after the fact. When extended is set, a successful
// query additionally fetches and parses each record's PKGBUILD to populate the six
// dependency-list fields.
func NewSession(hc *httpclient.Client, proto, host string, ignoreOOD, extended bool) *Session {
	return &Session{http: hc, proto: proto, host: host, ignoreOOD: ignoreOOD, extended: extended}
}

// Query issues one AUR RPC call and streams the response through a fresh Sink,
// returning the sorted record list. When the session has extended info enabled and at
// least one record comes back, Query fetches each record's PKGBUILD and populates its
// dependency lists before returning.
func (s *Session) Query(ctx context.Context, kind Kind, arg string) ([]*PackageRecord, error) {
	body, err := s.http.Get(ctx, arg, rpcURL(s.proto, s.host, kind, arg))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	sink := NewSink(s.ignoreOOD)
	records, perr := sink.Parse(body)
	if perr != nil {
		return records, &errs.ParseError{Context: arg, Err: perr}
	}

	if s.extended && len(records) > 0 {
		for _, rec := range records {
			if err := s.populateExtendedInfo(ctx, rec); err != nil {
				return records, err
			}
		}
	}

	return records, nil
}

// populateExtendedInfo fetches rec's PKGBUILD and runs internal/recipe over it.
func (s *Session) populateExtendedInfo(ctx context.Context, rec *PackageRecord) error {
	body, err := s.http.Get(ctx, rec.Name, recipeURL(s.proto, s.host, rec.URLPath))
	if err != nil {
		return err
	}
	defer body.Close()

	buf, err := io.ReadAll(body)
	if err != nil {
		return &errs.Transport{Target: rec.Name, Err: err}
	}

	info := recipe.Parse(string(buf))
	rec.Depends = info.Depends
	rec.MakeDepends = info.MakeDepends
	rec.OptDepends = info.OptDepends
	rec.Provides = info.Provides
	rec.Conflicts = info.Conflicts
	rec.Replaces = info.Replaces
	return nil
}

// Download fetches the tarball at pathFragment (a PackageRecord's URLPath), returning
// the response body for internal/archive to extract. The caller is responsible for
// closing the returned reader.
func (s *Session) Download(ctx context.Context, target, pathFragment string) (io.ReadCloser, error) {
	return s.http.Get(ctx, target, tarballURL(s.proto, s.host, pathFragment))
}
