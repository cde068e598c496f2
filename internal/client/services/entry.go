// Package services contains the application services of the journal
// client: entry editing, identity and backups. They sit between the CLI and
// the sync engine.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/logging"
)

// Journal is the engine surface the entry service works against.
type Journal interface {
	Entries() []models.Entry
	Mutate(ctx context.Context, fn func(current []models.Entry) ([]models.Entry, error)) ([]models.Entry, error)
}

// Draft is user input for one day.
type Draft struct {
	Date     string
	Lines    []string
	ImageURI *string
}

// EntryService defines journal editing and read projections.
//
// Mutations are written through to local storage and queued for push
// before they return; reads never touch the network.
type EntryService interface {
	SaveToday(ctx context.Context, lines []string) (models.Entry, error)
	Save(ctx context.Context, d Draft) (models.Entry, error)
	Remove(ctx context.Context, id string) error

	List() []models.Entry
	Search(keyword string) []models.Entry
	Month(month string) ([]models.Entry, error)
	Get(id string) (models.Entry, error)
	ForDate(date string) (models.Entry, error)
}

type entryService struct {
	journal Journal
	clock   common.Clock
	ids     common.IDGenerator
	log     logging.Logger
}

func NewEntryService(journal Journal, clock common.Clock, ids common.IDGenerator, log logging.Logger) EntryService {
	if log == nil {
		log = logging.Nop()
	}
	return &entryService{journal: journal, clock: clock, ids: ids, log: log}
}

// SaveToday saves lines for the current local day.
func (s *entryService) SaveToday(ctx context.Context, lines []string) (models.Entry, error) {
	return s.Save(ctx, Draft{Date: models.DateKey(s.clock.Now()), Lines: lines})
}

// Save edits the visible entry of d.Date in place, or creates a new entry
// when the day has none.
func (s *entryService) Save(ctx context.Context, d Draft) (models.Entry, error) {
	if err := models.ValidateDate(d.Date); err != nil {
		return models.Entry{}, err
	}
	lines, err := models.ValidateLines(d.Lines)
	if err != nil {
		return models.Entry{}, err
	}
	image := d.ImageURI
	if image != nil && strings.TrimSpace(*image) == "" {
		image = nil
	}

	changed, err := s.journal.Mutate(ctx, func(current []models.Entry) ([]models.Entry, error) {
		now := common.NowMillis(s.clock)

		if existing, ok := models.VisibleForDate(current, d.Date); ok {
			next := existing.Clone()
			next.Lines = lines
			next.ImageURI = image
			next.DeletedAt = nil
			next.UpdatedAt = models.NextStamp(now, existing.UpdatedAt)
			return []models.Entry{next}, nil
		}

		return []models.Entry{{
			ID:        s.ids.New(),
			Date:      d.Date,
			Lines:     lines,
			ImageURI:  image,
			CreatedAt: now,
			UpdatedAt: now,
		}}, nil
	})
	if err != nil {
		return models.Entry{}, fmt.Errorf("save entry: %w", err)
	}

	s.log.Debug(ctx, "entry saved", "id", changed[0].ID, "date", d.Date)
	return changed[0], nil
}

// Remove tombstones an entry. Removing an entry that is already a
// tombstone is a no-op.
func (s *entryService) Remove(ctx context.Context, id string) error {
	_, err := s.journal.Mutate(ctx, func(current []models.Entry) ([]models.Entry, error) {
		target, ok := models.FindByID(current, id)
		if !ok {
			return nil, fmt.Errorf("%w: entry %s", common.ErrNotFound, id)
		}
		if target.IsDeleted() {
			return nil, nil
		}

		now := models.NextStamp(common.NowMillis(s.clock), target.UpdatedAt)
		next := target.Clone()
		next.UpdatedAt = now
		next.DeletedAt = &now
		return []models.Entry{next}, nil
	})
	if err != nil {
		return fmt.Errorf("remove entry: %w", err)
	}
	return nil
}

// List returns the visible entries, newest day first.
func (s *entryService) List() []models.Entry {
	return models.Visible(s.journal.Entries())
}

func (s *entryService) Search(keyword string) []models.Entry {
	return models.Search(s.journal.Entries(), keyword)
}

// Month returns the visible entries of a YYYY-MM month.
func (s *entryService) Month(month string) ([]models.Entry, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, fmt.Errorf("%w: month %q must be YYYY-MM", common.ErrValidation, month)
	}
	return models.InMonth(s.journal.Entries(), month), nil
}

// Get returns a live entry by id.
func (s *entryService) Get(id string) (models.Entry, error) {
	e, ok := models.FindByID(s.journal.Entries(), id)
	if !ok || e.IsDeleted() {
		return models.Entry{}, fmt.Errorf("%w: entry %s", common.ErrNotFound, id)
	}
	return e, nil
}

// ForDate returns the visible entry of a day.
func (s *entryService) ForDate(date string) (models.Entry, error) {
	if err := models.ValidateDate(date); err != nil {
		return models.Entry{}, err
	}
	e, ok := models.VisibleForDate(s.journal.Entries(), date)
	if !ok {
		return models.Entry{}, fmt.Errorf("%w: no entry for %s", common.ErrNotFound, date)
	}
	return e, nil
}
