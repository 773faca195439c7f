// Package upload stores avatar images on disk and serves them back under
// a fixed public prefix.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// PublicPrefix is the URL path under which stored files are reachable.
const PublicPrefix = "/uploads/"

// ErrForeignPath is returned by Remove for paths this storage never issued.
var ErrForeignPath = errors.New("upload: path is not under the upload root")

// Storage writes uploaded files into a single flat directory.
type Storage struct {
	root string
}

// New creates the upload root if needed.
func New(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("upload: create root %s: %w", root, err)
	}
	return &Storage{root: root}, nil
}

// Root returns the directory files are written to.
func (s *Storage) Root() string {
	return s.root
}

// Save writes a multipart file and returns its public path.
func (s *Storage) Save(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("upload: open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return s.SaveReader(fh.Filename, f)
}

// SaveReader writes r under a fresh ULID name that keeps the extension of
// originalName, and returns the public path ("/uploads/<name>").
func (s *Storage) SaveReader(originalName string, r io.Reader) (string, error) {
	name := ulid.Make().String() + strings.ToLower(filepath.Ext(originalName))
	full := filepath.Join(s.root, name)

	out, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("upload: create %s: %w", name, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(full)
		return "", fmt.Errorf("upload: write %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("upload: close %s: %w", name, err)
	}
	return PublicPrefix + name, nil
}

// Remove deletes the file behind a public path. A file that is already gone
// is not an error.
func (s *Storage) Remove(publicPath string) error {
	name, ok := strings.CutPrefix(publicPath, PublicPrefix)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrForeignPath, publicPath)
	}
	err := os.Remove(filepath.Join(s.root, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("upload: remove %s: %w", name, err)
	}
	return nil
}

// Handler serves stored files. Mount it at PublicPrefix; directory
// listings are not served.
func (s *Storage) Handler() http.Handler {
	files := http.StripPrefix(PublicPrefix, http.FileServer(http.Dir(s.root)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
