package publish

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vango-dev/stencil/internal/errors"
)

// Content types used for snapshots.
const (
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeJSON = "application/json"
)

// Store is a destination for published snapshots.
type Store interface {
	// Put stores body under key, replacing any previous content.
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Open returns the store named by uri.
func Open(ctx context.Context, uri string) (Store, error) {
	if uri == "" {
		return nil, errors.New(errors.CodePublish).WithDetail("empty destination")
	}
	if !strings.Contains(uri, "://") {
		return openFile(uri)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.New(errors.CodePublish).WithDetail(uri).Wrap(err)
	}
	switch u.Scheme {
	case "file":
		return openFile(filepath.FromSlash(u.Host + u.Path))
	case "s3":
		if u.Host == "" {
			return nil, errors.New(errors.CodePublish).
				WithDetail(uri).
				WithSuggestion("Use s3://bucket/prefix")
		}
		client, err := newS3Client(ctx, envS3Config())
		if err != nil {
			return nil, errors.New(errors.CodePublish).WithDetail(uri).Wrap(err)
		}
		return NewS3Store(client, u.Host, strings.TrimPrefix(u.Path, "/")), nil
	}
	return nil, errors.New(errors.CodePublish).
		WithDetail(fmt.Sprintf("unsupported scheme %q", u.Scheme)).
		WithSuggestion("Use a directory path, file:// or s3://")
}

func openFile(dir string) (Store, error) {
	s, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CleanKey validates a snapshot key and returns it in canonical form.
// Keys are slash separated and may not leave the store root.
func CleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	slashed := strings.ReplaceAll(key, `\`, "/")
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", fmt.Errorf("key %q leaves the store root", key)
		}
	}
	clean := strings.TrimPrefix(path.Clean("/"+slashed), "/")
	if clean == "" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return clean, nil
}

// FileStore stores snapshots below a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New(errors.CodePublish).WithDetail(dir).Wrap(err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

// Put writes body to a temporary file and renames it into place, so
// readers never see a partial snapshot.
func (s *FileStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := CleanKey(key)
	if err != nil {
		return errors.New(errors.CodePublish).Wrap(err)
	}
	dst := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.New(errors.CodePublish).WithDetail(dst).Wrap(err)
	}

	f, err := os.CreateTemp(filepath.Dir(dst), ".snapshot-*")
	if err != nil {
		return errors.New(errors.CodePublish).WithDetail(dst).Wrap(err)
	}
	tmp := f.Name()
	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.New(errors.CodePublish).WithDetail(dst).Wrap(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.New(errors.CodePublish).WithDetail(dst).Wrap(err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return errors.New(errors.CodePublish).WithDetail(dst).Wrap(err)
	}
	return nil
}
