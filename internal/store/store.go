// Package store persists location records and the settings row through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"locamark/internal/models"
)

var (
	// ErrNotFound is returned when an update or lookup targets an id that does not exist.
	ErrNotFound = errors.New("location not found")
	// ErrPersistence wraps any failed write to the underlying database.
	ErrPersistence = errors.New("persistence failure")
	// ErrClosed is reported to deletes queued after Close.
	ErrClosed = errors.New("store closed")
)

// Migrate creates or updates the tables the store needs.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.LocationRecord{}, &models.Settings{})
}

// deleteJob is a delete queued for the background worker.
type deleteJob struct {
	ctx  context.Context
	id   uuid.UUID
	done func(deleted bool, err error)
}

// Store owns the location table. Reads, inserts and updates run on the caller's
// goroutine; deletes run on a single background worker.
type Store struct {
	db      *gorm.DB
	deletes chan deleteJob
	quit    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// New starts the background worker over an already migrated database.
func New(db *gorm.DB) *Store {
	s := &Store{
		db:      db,
		deletes: make(chan deleteJob),
		quit:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Close stops the background worker. Deletes queued afterwards report ErrClosed.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.quit)
		s.wg.Wait()
	})
}

// run executes queued deletes one at a time.
func (s *Store) run() {
	defer s.wg.Done()
	for {
		select {
		case job := <-s.deletes:
			deleted, err := s.deleteByID(job.ctx, job.id)
			if job.done != nil {
				job.done(deleted, err)
			}
		case <-s.quit:
			return
		}
	}
}

// Query returns the records matching the search text and category, newest first.
// Empty search text and category return every record.
func (s *Store) Query(ctx context.Context, searchText, category string) ([]models.LocationRecord, error) {
	var records []models.LocationRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}

	f := newFilter(searchText, category)
	matched := records[:0]
	for _, r := range records {
		if f.match(r) {
			matched = append(matched, r)
		}
	}

	now := time.Now()
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].SortTime(now).After(matched[j].SortTime(now))
	})
	return matched, nil
}

// Find loads a single record by id.
func (s *Store) Find(ctx context.Context, id uuid.UUID) (models.LocationRecord, error) {
	var record models.LocationRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LocationRecord{}, ErrNotFound
		}
		return models.LocationRecord{}, fmt.Errorf("find location %s: %w", id, err)
	}
	return record, nil
}

// Insert persists a new record, assigning an id when it has none.
func (s *Store) Insert(ctx context.Context, record *models.LocationRecord) error {
	record.Normalize()
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("%w: insert location: %w", ErrPersistence, err)
	}
	return nil
}

// Update sets the custom name and category of a record. An empty custom name
// clears it and an empty category becomes "other".
func (s *Store) Update(ctx context.Context, id uuid.UUID, customName *string, category string) error {
	result := s.db.WithContext(ctx).
		Model(&models.LocationRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"custom_name": models.NormalizeCustomName(customName),
			"category":    models.NormalizeCategory(category),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: update location %s: %w", ErrPersistence, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByID removes a record on the background worker and waits for the
// transaction to commit. A missing id reports false without an error.
func (s *Store) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	type result struct {
		deleted bool
		err     error
	}
	ch := make(chan result, 1)
	s.DeleteAsync(ctx, id, func(deleted bool, err error) {
		ch <- result{deleted, err}
	})

	select {
	case r := <-ch:
		return r.deleted, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// DeleteAsync queues a delete on the background worker. onDone is always called
// exactly once, after the delete has committed or failed.
func (s *Store) DeleteAsync(ctx context.Context, id uuid.UUID, onDone func(deleted bool, err error)) {
	job := deleteJob{ctx: ctx, id: id, done: onDone}
	go func() {
		select {
		case s.deletes <- job:
		case <-s.quit:
			if onDone != nil {
				onDone(false, ErrClosed)
			}
		}
	}()
}

func (s *Store) deleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.LocationRecord
		if err := tx.Where("id = ?", id).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Delete(&record).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		logrus.WithError(err).WithField("location_id", id).Error("Delete location failed")
		return false, fmt.Errorf("%w: delete location %s: %w", ErrPersistence, id, err)
	}

	if deleted {
		logrus.WithField("location_id", id).Info("Location deleted")
	} else {
		logrus.WithField("location_id", id).Warn("Location not found for deletion")
	}
	return deleted, nil
}

// Count returns the number of stored location records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.LocationRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}
	return n, nil
}

// GetOrCreateSettings returns the settings row, creating it with defaults on first use.
func (s *Store) GetOrCreateSettings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := s.db.WithContext(ctx).
		Attrs(models.DefaultSettings()).
		FirstOrCreate(&settings, models.Settings{ID: models.SettingsID}).Error
	if err != nil {
		return models.Settings{}, fmt.Errorf("%w: load settings: %w", ErrPersistence, err)
	}
	return settings, nil
}

// SaveSettings writes the settings row.
func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	settings.ID = models.SettingsID
	if settings.Language == "" {
		settings.Language = models.DefaultLanguage
	}
	if err := s.db.WithContext(ctx).Save(&settings).Error; err != nil {
		return fmt.Errorf("%w: save settings: %w", ErrPersistence, err)
	}
	return nil
}
