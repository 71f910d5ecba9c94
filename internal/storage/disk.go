// Package storage is the application's public blob store for uploaded assets.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage is a key-addressed binary object store. Keys are slash-separated
// relative paths such as "project/0b1f.../logo.png".
type Storage interface {
	Store(file io.Reader, filename, prefix string) (string, error)
	Delete(key string) error
}

// Disk keeps objects under a local root directory.
type Disk struct {
	root string
}

func NewDisk(root string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Disk{root: root}, nil
}

// Root returns the directory objects are stored under, for serving them
// over HTTP.
func (d *Disk) Root() string {
	return d.root
}

// Store writes the file under <prefix>/<random-segment>/<filename> and
// returns that key. The random segment keeps uploads with equal filenames
// from colliding.
func (d *Disk) Store(file io.Reader, filename, prefix string) (string, error) {
	segment := strings.ReplaceAll(uuid.NewString(), "-", "")
	key := path.Join(prefix, segment, filepath.Base(filename))

	full := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}
	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write object: %w", err)
	}
	return key, nil
}

// Delete removes the object for key and prunes its segment directory if
// that leaves it empty.
func (d *Disk) Delete(key string) error {
	clean := path.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "..") || path.IsAbs(clean) {
		return fmt.Errorf("invalid storage key %q", key)
	}
	full := filepath.Join(d.root, filepath.FromSlash(clean))
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	// Best effort; the directory may still hold other objects.
	os.Remove(filepath.Dir(full))
	return nil
}
