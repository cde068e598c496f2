package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/dmitrijs2005/threeline/internal/filex"
)

// DirArchive keeps archives as files in a directory.
type DirArchive struct {
	dir string
}

var _ Archive = (*DirArchive)(nil)

// NewDirArchive creates dir when missing.
func NewDirArchive(dir string) (*DirArchive, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("backup dir: %w", err)
	}
	return &DirArchive{dir: abs}, nil
}

func (a *DirArchive) Put(ctx context.Context, key string, data []byte) error {
	if err := CheckName(key); err != nil {
		return err
	}
	return filex.WriteFileAtomic(filepath.Join(a.dir, key), data, 0o600)
}

func (a *DirArchive) Get(ctx context.Context, key string) ([]byte, error) {
	if err := CheckName(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(a.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return data, nil
}

func (a *DirArchive) List(ctx context.Context) ([]ArchiveInfo, error) {
	items, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}

	out := []ArchiveInfo{}
	for _, it := range items {
		if it.IsDir() {
			continue
		}
		fi, err := it.Info()
		if err != nil {
			continue
		}
		if info, ok := describe(it.Name(), fi.Size(), fi.ModTime()); ok {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (a *DirArchive) Delete(ctx context.Context, key string) error {
	if err := CheckName(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(a.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrArchiveNotFound, key)
	}
	return err
}
