//go:generate go run go.uber.org/mock/mockgen -source=object_store.go -destination=../mocks/mock_object_store.go -package=mocks
package storage

import (
	"context"
	cerrors "cryptochat/errors"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type IObjectStore interface {
	Put(ctx context.Context, objectPath string, r io.Reader) error
	Open(objectPath string) (*os.File, error)
	PublicURL(objectPath string) string
}

// DiskObjectStore keeps objects as plain files below a root directory.
// Object paths are slash separated and must stay inside the root.
type DiskObjectStore struct {
	root          string
	publicBaseURL string
	log           *slog.Logger
}

func NewDiskObjectStore(root, publicBaseURL string, log *slog.Logger) (*DiskObjectStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create object store root: %w", err)
	}
	return &DiskObjectStore{
		root:          root,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log,
	}, nil
}

// Put writes the object through a temporary file renamed into place, so a
// reader never sees a partial object.
func (d *DiskObjectStore) Put(ctx context.Context, objectPath string, r io.Reader) error {
	target, err := d.resolve(objectPath)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return err
	}
	d.log.Debug("Object stored", "path", objectPath)
	return nil
}

func (d *DiskObjectStore) Open(objectPath string) (*os.File, error) {
	target, err := d.resolve(objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cerrors.ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return nil, cerrors.ErrObjectNotFound
	}
	return f, nil
}

func (d *DiskObjectStore) PublicURL(objectPath string) string {
	return d.publicBaseURL + "/objects/" + path.Clean(objectPath)
}

func (d *DiskObjectStore) resolve(objectPath string) (string, error) {
	local := filepath.FromSlash(objectPath)
	if objectPath == "" || !filepath.IsLocal(local) {
		return "", cerrors.ErrInvalidPath
	}
	return filepath.Join(d.root, local), nil
}
