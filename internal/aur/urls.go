package aur

import (
	"net/url"
	"path"
)

// rpcURL builds the JSON-RPC request URL for the given operation kind against the
// configured proto/host: <proto>://<host>/rpc.php?type=<kind>&arg=<url-encoded-arg>.
func rpcURL(proto, host string, kind Kind, arg string) string {
	v := url.Values{}
	v.Set("type", string(kind))
	v.Set("arg", arg)
	return proto + "://" + host + "/rpc.php?" + v.Encode()
}

// tarballURL resolves the URLPath a PackageRecord carries (e.g.
// "/cgit/aur.git/snapshot/foo.tar.gz") to an absolute download URL.
func tarballURL(proto, host, pathFragment string) string {
	return proto + "://" + host + pathFragment
}

// recipeURL resolves the PKGBUILD fetched for extended info: the tarball path's
// directory plus "/PKGBUILD".
func recipeURL(proto, host, pathFragment string) string {
	dir := path.Dir(pathFragment)
	return proto + "://" + host + path.Join(dir, "PKGBUILD")
}
