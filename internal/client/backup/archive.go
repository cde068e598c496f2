package backup

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ErrArchiveNotFound is returned when a named archive does not exist.
var ErrArchiveNotFound = errors.New("archive not found")

// ErrInvalidName is returned for archive names that are empty or contain a
// path separator.
var ErrInvalidName = errors.New("invalid archive name")

// ArchiveInfo describes a stored archive.
type ArchiveInfo struct {
	Name      string
	Size      int64
	ModTime   time.Time
	Encrypted bool
}

// Archive stores backup payloads. Keys are file names as produced by
// FileName; List reports only keys that look like archives.
type Archive interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]ArchiveInfo, error)
	Delete(ctx context.Context, name string) error
}

const (
	plainExt  = ".json"
	sealedExt = ".json.age"
)

// FileName returns the stored file name for an archive.
func FileName(name string, sealed bool) string {
	if sealed {
		return name + sealedExt
	}
	return name + plainExt
}

// ArchiveName strips the archive extension from a stored file name. ok is
// false for files that are not archives.
func ArchiveName(file string) (name string, sealed, ok bool) {
	switch {
	case strings.HasSuffix(file, sealedExt):
		return strings.TrimSuffix(file, sealedExt), true, true
	case strings.HasSuffix(file, plainExt):
		return strings.TrimSuffix(file, plainExt), false, true
	}
	return "", false, false
}

// CheckName rejects names that cannot be stored safely.
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || path.Clean(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func describe(key string, size int64, mod time.Time) (ArchiveInfo, bool) {
	name, sealed, ok := ArchiveName(key)
	if !ok || name == "" {
		return ArchiveInfo{}, false
	}
	return ArchiveInfo{Name: name, Size: size, ModTime: mod, Encrypted: sealed}, true
}
