// internal/storage/archive/interface.go
package archive

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Read when nothing is stored at the path.
	ErrNotFound = errors.New("archive: object not found")
	// ErrCorrupt is returned by ReadJSON when stored data does not decode.
	ErrCorrupt = errors.New("archive: corrupt object")
)

// Storage defines the interface for archive storage backends holding the
// price cache and saved run results.
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Options selects and configures a backend.
type Options struct {
	Type string // "localfs" (default) or "s3"
	Path string // base directory for localfs
	S3   S3Config
}

// Open creates the backend described by opts.
func Open(opts Options) (Storage, error) {
	switch opts.Type {
	case "", "localfs":
		return NewLocalFS(opts.Path)
	case "s3":
		return NewS3(opts.S3)
	default:
		return nil, errors.New("archive: unknown storage type " + opts.Type)
	}
}
