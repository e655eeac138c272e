package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists uploaded files on the local disk under a base directory.
// Files are addressed by a generated key and served back by URL path.
type Store struct {
	baseDir string
	baseURL string
}

// allowedExtensions for avatar and verification document uploads.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

// New creates the base directory if needed and returns a Store.
func New(baseDir, baseURL string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %q: %w", baseDir, err)
	}
	return &Store{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes the upload under scope/<uuid><ext> and returns its public URL.
func (s *Store) Save(_ context.Context, scope, filename string, r io.Reader, maxBytes int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	scope = sanitizeScope(scope)
	dir := filepath.Join(s.baseDir, scope)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	key := uuid.NewString() + ext
	path := filepath.Join(dir, key)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", path, err)
	}
	defer f.Close()

	limited := io.LimitReader(r, maxBytes+1)
	written, err := io.Copy(f, limited)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write %q: %w", path, err)
	}
	if written > maxBytes {
		os.Remove(path)
		return "", fmt.Errorf("file exceeds %d bytes", maxBytes)
	}

	return fmt.Sprintf("%s/%s/%s", s.baseURL, scope, key), nil
}

// Remove deletes the file addressed by its public URL, ignoring files that
// are already gone.
func (s *Store) Remove(_ context.Context, publicURL string) error {
	rel := strings.TrimPrefix(publicURL, s.baseURL+"/")
	if rel == publicURL || rel == "" {
		return fmt.Errorf("url %q is not managed by this store", publicURL)
	}
	rel = filepath.Clean(rel)
	if strings.HasPrefix(rel, "..") {
		return fmt.Errorf("url %q escapes the store root", publicURL)
	}
	err := os.Remove(filepath.Join(s.baseDir, rel))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Dir returns the base directory, used to mount a static file server.
func (s *Store) Dir() string {
	return s.baseDir
}

func sanitizeScope(scope string) string {
	scope = strings.Trim(filepath.Clean(scope), "/.")
	if scope == "" {
		return "misc"
	}
	return scope
}
