package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/threeline/internal/client/backup"
	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/logging"
)

// Restorer is the engine surface the backup service works against.
type Restorer interface {
	Entries() []models.Entry
	Restore(ctx context.Context, entries []models.Entry) error
}

// BackupService exports and restores the whole journal.
//
// Import is a restore: the local table is replaced and every imported entry
// is queued for push. Invalid documents leave local state untouched.
type BackupService interface {
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, raw []byte) (int, error)

	SaveArchive(ctx context.Context, name, passphrase string) (backup.ArchiveInfo, error)
	LoadArchive(ctx context.Context, name, passphrase string) (int, error)
	ListArchives(ctx context.Context) ([]backup.ArchiveInfo, error)
	DeleteArchive(ctx context.Context, name string) error
}

type backupService struct {
	journal Restorer
	archive backup.Archive
	clock   common.Clock
	log     logging.Logger
}

// NewBackupService builds the service. archive may be nil, in which case
// only Export and Import are available.
func NewBackupService(journal Restorer, archive backup.Archive, clock common.Clock, log logging.Logger) BackupService {
	if log == nil {
		log = logging.Nop()
	}
	return &backupService{journal: journal, archive: archive, clock: clock, log: log.With("component", "backup")}
}

var errNoArchive = errors.New("backup archive not configured")

func (s *backupService) Export(ctx context.Context) ([]byte, error) {
	return backup.Encode(s.journal.Entries(), common.NowMillis(s.clock))
}

func (s *backupService) Import(ctx context.Context, raw []byte) (int, error) {
	entries, err := backup.Decode(raw, common.NowMillis(s.clock))
	if err != nil {
		return 0, err
	}
	if err := s.journal.Restore(ctx, entries); err != nil {
		return 0, fmt.Errorf("restore backup: %w", err)
	}
	s.log.Info(ctx, "backup imported", "entries", len(entries))
	return len(entries), nil
}

// SaveArchive exports the journal under name, sealed with passphrase when
// one is given. A plain and a sealed archive of the same name may coexist.
func (s *backupService) SaveArchive(ctx context.Context, name, passphrase string) (backup.ArchiveInfo, error) {
	if s.archive == nil {
		return backup.ArchiveInfo{}, errNoArchive
	}
	if err := backup.CheckName(name); err != nil {
		return backup.ArchiveInfo{}, err
	}

	data, err := s.Export(ctx)
	if err != nil {
		return backup.ArchiveInfo{}, err
	}
	sealed := passphrase != ""
	if sealed {
		if data, err = backup.Seal(data, passphrase); err != nil {
			return backup.ArchiveInfo{}, err
		}
	}

	if err := s.archive.Put(ctx, backup.FileName(name, sealed), data); err != nil {
		return backup.ArchiveInfo{}, fmt.Errorf("save archive: %w", err)
	}
	s.log.Info(ctx, "archive saved", "name", name, "encrypted", sealed, "bytes", len(data))

	return backup.ArchiveInfo{
		Name:      name,
		Size:      int64(len(data)),
		ModTime:   s.clock.Now(),
		Encrypted: sealed,
	}, nil
}

// LoadArchive restores the journal from a named archive. The sealed
// variant is preferred when both exist.
func (s *backupService) LoadArchive(ctx context.Context, name, passphrase string) (int, error) {
	data, err := s.fetch(ctx, name)
	if err != nil {
		return 0, err
	}
	if backup.Sealed(data) {
		if data, err = backup.Open(data, passphrase); err != nil {
			return 0, err
		}
	}
	return s.Import(ctx, data)
}

func (s *backupService) fetch(ctx context.Context, name string) ([]byte, error) {
	if s.archive == nil {
		return nil, errNoArchive
	}
	if err := backup.CheckName(name); err != nil {
		return nil, err
	}

	data, err := s.archive.Get(ctx, backup.FileName(name, true))
	if errors.Is(err, backup.ErrArchiveNotFound) {
		data, err = s.archive.Get(ctx, backup.FileName(name, false))
	}
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	return data, nil
}

func (s *backupService) ListArchives(ctx context.Context) ([]backup.ArchiveInfo, error) {
	if s.archive == nil {
		return nil, errNoArchive
	}
	return s.archive.List(ctx)
}

// DeleteArchive removes both variants of name.
func (s *backupService) DeleteArchive(ctx context.Context, name string) error {
	if s.archive == nil {
		return errNoArchive
	}
	if err := backup.CheckName(name); err != nil {
		return err
	}

	found := false
	for _, sealed := range []bool{true, false} {
		err := s.archive.Delete(ctx, backup.FileName(name, sealed))
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, backup.ErrArchiveNotFound):
			return fmt.Errorf("delete archive: %w", err)
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", backup.ErrArchiveNotFound, name)
	}
	return nil
}
