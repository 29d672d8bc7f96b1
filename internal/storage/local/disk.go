package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dtroode/vibenotes-server/internal/model"
)

var _ model.Storage = (*Disk)(nil)

// Disk stores objects as flat files inside one directory.
type Disk struct {
	dir string
}

// NewDisk creates dir if needed and returns a storage rooted at it.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// Dir returns the directory objects are stored in.
func (d *Disk) Dir() string {
	return d.dir
}

// Upload writes the object to a temporary file and renames it into place,
// so a failed write never leaves a partial object under key.
func (d *Disk) Upload(ctx context.Context, key string, reader io.Reader) (int64, error) {
	target, err := d.path(key)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	size, err := io.Copy(tmp, &contextReader{ctx: ctx, r: reader})
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write object: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to sync object: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close object: %w", err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return 0, fmt.Errorf("failed to move object into place: %w", err)
	}

	return size, nil
}

func (d *Disk) Download(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

func (d *Disk) Delete(_ context.Context, key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (d *Disk) Exists(_ context.Context, key string) (bool, error) {
	p, err := d.path(key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// path maps key to a file directly inside dir. Keys with separators or dot
// segments are rejected.
func (d *Disk) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".upload-") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(d.dir, key), nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
