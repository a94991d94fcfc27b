package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store holds uploaded binary objects. Only profile pictures pass through
// here, path-scoped per identity.
type Store interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
	DownloadURL(ref string) string
}

// FS keeps blobs on local disk under a single root directory and serves them
// from a static file route.
type FS struct {
	root    string
	baseURL string
}

func NewFS(root, baseURL string) *FS {
	return &FS{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (f *FS) Upload(_ context.Context, name string, r io.Reader) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if clean == "" || strings.Contains(clean, "..") {
		return "", fmt.Errorf("blobstore: invalid object name %q", name)
	}

	target := filepath.Join(f.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	file, err := os.Create(target)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return clean, nil
}

func (f *FS) DownloadURL(ref string) string {
	return f.baseURL + "/" + ref
}

// Root exposes the storage directory for the static file route.
func (f *FS) Root() string { return f.root }
