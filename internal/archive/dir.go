package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirDestination writes archive objects into a local directory.
type DirDestination struct {
	dir string
}

// NewDirDestination creates the directory if needed and returns a
// destination writing into it.
func NewDirDestination(dir string) (*DirDestination, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &DirDestination{dir: dir}, nil
}

// Write stores data as a file named name inside the directory.
func (d *DirDestination) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := filepath.Join(d.dir, name)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}
