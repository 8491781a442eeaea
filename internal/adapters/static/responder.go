// Package static serves files from a fixed asset root. Every resolved path,
// including symlink targets, must stay inside the canonical root.
package static

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// IndexDocument is served for "/".
const IndexDocument = "index.html"

var mimeTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
}

// MimeType maps a file extension to a Content-Type, defaulting to
// application/octet-stream.
func MimeType(name string) string {
	if t, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return "application/octet-stream"
}

var errOutsideRoot = errors.New("static: path escapes asset root")

// Responder is an http.Handler for the asset tree.
type Responder struct {
	root   string
	logger logrus.FieldLogger
}

// NewResponder resolves root to an absolute, symlink-free path. The root must
// exist and be a directory.
func NewResponder(root string, logger logrus.FieldLogger) (*Responder, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("static: resolve asset root: %w", err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("static: resolve asset root: %w", err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("static: stat asset root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static: asset root %q is not a directory", canonical)
	}
	return &Responder{root: canonical, logger: logger}, nil
}

// Root returns the canonical asset root.
func (s *Responder) Root() string { return s.root }

// ServeHTTP serves the file addressed by the request path.
func (s *Responder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name, err := s.resolve(r.URL.Path)
	switch {
	case errors.Is(err, errOutsideRoot):
		s.logger.WithField("path", r.URL.Path).Warn("blocked path outside asset root")
		writeText(w, http.StatusForbidden, "Forbidden")
		return
	case errors.Is(err, fs.ErrNotExist):
		writeText(w, http.StatusNotFound, "File not found")
		return
	case err != nil:
		s.logger.WithError(err).WithField("path", r.URL.Path).Debug("static lookup failed")
		writeText(w, http.StatusNotFound, "File not found")
		return
	}

	f, err := os.Open(name)
	if err != nil {
		writeText(w, http.StatusNotFound, "File not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		writeText(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", MimeType(name))
	http.ServeContent(w, r, filepath.Base(name), info.ModTime(), f)
}

// resolve maps a URL path to a canonical file path inside the root.
func (s *Responder) resolve(urlPath string) (string, error) {
	if urlPath == "" || urlPath == "/" {
		urlPath = "/" + IndexDocument
	}

	candidate := filepath.Join(s.root, filepath.FromSlash(urlPath))
	if !s.contains(candidate) {
		return "", errOutsideRoot
	}

	real, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", err
	}
	if !s.contains(real) {
		return "", errOutsideRoot
	}
	return real, nil
}

// contains reports whether p is the root or below it. Comparing via Rel
// rather than a string prefix keeps sibling directories like "public-evil"
// out of "public".
func (s *Responder) contains(p string) bool {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
