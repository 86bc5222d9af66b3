// Package archive is the adapter between a downloaded AUR tarball and a directory of
// extracted files. It sniffs the compression (gzip or zstd) off the first bytes of
// the stream and hands the rest to archive/tar.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/cower-go/cower/internal/errs"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Logger receives a warning for each tarball entry extraction skips rather than fails
// on; an unsupported Typeflag is a warning, not a fatal error.
type Logger interface {
	Warnf(format string, args ...any)
}

// NewTarReader sniffs r's first bytes for a gzip or zstd magic number and wraps it in
// the matching decompressor, returning a ready-to-read *tar.Reader plus a closer for
// the decompressor's own resources. internal/localdb reuses this to enumerate pacman
// sync-database archives (also gzip- or zstd-compressed tarballs) without duplicating
// the sniffing logic.
func NewTarReader(r io.Reader) (*tar.Reader, func() error, error) {
	br := bufio.NewReaderSize(r, 4096)
	magic, _ := br.Peek(4)

	var reader io.Reader = br
	closer := func() error { return nil }

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		reader = gz
		closer = gz.Close
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		reader = zr
		closer = func() error { zr.Close(); return nil }
	}

	return tar.NewReader(reader), closer, nil
}

// Extract reads r as a (possibly gzip- or zstd-compressed) tar stream and writes its
// contents under destDir. It returns the name of the first directory entry in the
// archive with any trailing slash stripped; AUR tarballs are always a single pkgbase
// directory at the root.
func Extract(target, destDir string, r io.Reader, logger Logger) (string, error) {
	tr, closeDecoder, err := NewTarReader(r)
	if err != nil {
		return "", &errs.ExtractFailed{Target: target, Err: err}
	}
	defer closeDecoder()

	topLevelDir := ""

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return topLevelDir, &errs.ExtractFailed{Target: target, Err: err}
		}

		name := strings.TrimPrefix(hdr.Name, "./")
		if name == "" {
			continue
		}
		if topLevelDir == "" {
			topLevelDir = strings.TrimSuffix(strings.SplitN(name, "/", 2)[0], "/")
		}

		destPath := filepath.Join(destDir, name)
		if !withinDir(destDir, destPath) {
			if logger != nil {
				logger.Warnf("%s: skipping entry %q outside extraction root", target, hdr.Name)
			}
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return topLevelDir, &errs.ExtractFailed{Target: target, Err: err}
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
				return topLevelDir, &errs.ExtractFailed{Target: target, Err: err}
			}
			if err := writeFile(destPath, tr, os.FileMode(hdr.Mode&0o777)); err != nil {
				return topLevelDir, &errs.ExtractFailed{Target: target, Err: err}
			}
			if !hdr.ModTime.IsZero() {
				_ = os.Chtimes(destPath, hdr.ModTime, hdr.ModTime)
			}

		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
				return topLevelDir, &errs.ExtractFailed{Target: target, Err: err}
			}
			_ = os.Remove(destPath)
			if err := os.Symlink(hdr.Linkname, destPath); err != nil {
				return topLevelDir, &errs.ExtractFailed{Target: target, Err: err}
			}

		default:
			if logger != nil {
				logger.Warnf("%s: skipping unsupported tar entry %q (typeflag %d)", target, hdr.Name, hdr.Typeflag)
			}
		}
	}

	return topLevelDir, nil
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}

func withinDir(root, path string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}
