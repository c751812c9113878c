// Package datasource opens the bytes behind a file argument: a local path,
// "." for stdin, or an http(s) URL.
package datasource

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"dbetl/internal/datasource/file"
	"dbetl/internal/datasource/httpds"
)

// Source yields a fresh reader on every Open.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Sized is implemented by readers that know their total length up front.
type Sized interface {
	Size() int64
}

// Resolve picks the Source for location. stdin serves "."; client may be nil
// for a default HTTP client.
func Resolve(location string, client *httpds.Client, stdin io.Reader) Source {
	switch {
	case location == ".":
		return file.NewStdin(stdin)
	case IsRemote(location):
		return httpds.NewURL(client, location)
	}
	return file.NewLocal(location)
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Size returns the length of rc when known, else -1.
func Size(rc io.ReadCloser) int64 {
	switch r := rc.(type) {
	case Sized:
		return r.Size()
	case *os.File:
		if fi, err := r.Stat(); err == nil && fi.Mode().IsRegular() {
			return fi.Size()
		}
	}
	return -1
}

// pathOf returns the path part of location with forward slashes.
func pathOf(location string) string {
	if IsRemote(location) {
		if u, err := url.Parse(location); err == nil {
			return u.Path
		}
	}
	return filepath.ToSlash(location)
}

// Ext returns the lower-case extension of location, ignoring any URL query.
func Ext(location string) string {
	if location == "." {
		return ""
	}
	return strings.ToLower(path.Ext(pathOf(location)))
}

// BaseName is the last element of location without its extension, e.g. the
// default table name of an import. URLs without a usable path are named
// after their query.
func BaseName(location string) string {
	base := path.Base(pathOf(location))
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "" || name == "." || name == "/" {
		if IsRemote(location) {
			return httpds.SafeFilenameFromURL(location)
		}
		return "stdin"
	}
	return name
}
