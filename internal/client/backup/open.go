package backup

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/threeline/internal/common"
)

// Archive store types accepted by OpenArchive.
const (
	TypeFilesystem = "filesystem"
	TypeS3         = "s3"
	TypeMemory     = "memory"
)

// Config selects an archive store.
type Config struct {
	Type string
	Dir  string
	S3   S3Config
}

// OpenArchive builds the store named by cfg.Type.
func OpenArchive(ctx context.Context, cfg Config, clock common.Clock) (Archive, error) {
	switch cfg.Type {
	case TypeFilesystem, "":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("%w: backup dir is required", common.ErrValidation)
		}
		return NewDirArchive(cfg.Dir)
	case TypeS3:
		return NewS3Archive(ctx, cfg.S3)
	case TypeMemory:
		return NewMemoryArchive(clock), nil
	}
	return nil, fmt.Errorf("%w: unknown backup type %q", common.ErrValidation, cfg.Type)
}
