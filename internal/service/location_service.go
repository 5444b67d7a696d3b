// Package service keeps the ordered timeline of saved locations and
// coordinates the store, the position feed and the encoders.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"locamark/internal/codec"
	"locamark/internal/geo"
	"locamark/internal/i18n"
	"locamark/internal/models"
	"locamark/internal/store"
)

var (
	// ErrLocationUnavailable wraps the position feed's error when marking fails.
	ErrLocationUnavailable = errors.New("current location unavailable")
	// ErrNothingToExport is returned by ExportCSV when there are no records.
	ErrNothingToExport = errors.New("no locations to export")
	// ErrUnsupportedLanguage is returned by SetLanguage for codes outside the catalog.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// PositionSource supplies the device's latest fix.
type PositionSource interface {
	CurrentPosition() (geo.Position, error)
}

// LocationService is the single entry point the HTTP handlers and CLI use.
type LocationService struct {
	store    *store.Store
	position PositionSource
	geocoder geo.Geocoder
	now      func() time.Time

	mu        sync.RWMutex
	locations []models.LocationRecord
	search    string
	category  string
}

// New wires the service. The timeline starts empty until FetchLocations runs.
func New(s *store.Store, position PositionSource, geocoder geo.Geocoder) *LocationService {
	return &LocationService{
		store:    s,
		position: position,
		geocoder: geocoder,
		now:      time.Now,
	}
}

// Locations returns a copy of the current timeline.
func (s *LocationService) Locations() []models.LocationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.LocationRecord, len(s.locations))
	copy(out, s.locations)
	return out
}

// FetchLocations requeries the store and replaces the timeline. The filter is
// remembered and reused by later refreshes.
func (s *LocationService) FetchLocations(ctx context.Context, searchText, category string) ([]models.LocationRecord, error) {
	records, err := s.store.Query(ctx, searchText, category)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"search":   searchText,
			"category": category,
		}).Error("Failed to fetch locations")
		return nil, err
	}

	s.mu.Lock()
	s.locations = records
	s.search = searchText
	s.category = category
	s.mu.Unlock()

	return s.Locations(), nil
}

func (s *LocationService) refresh(ctx context.Context) error {
	s.mu.RLock()
	search, category := s.search, s.category
	s.mu.RUnlock()
	_, err := s.FetchLocations(ctx, search, category)
	return err
}

// Location loads one record by id.
func (s *LocationService) Location(ctx context.Context, id uuid.UUID) (models.LocationRecord, error) {
	return s.store.Find(ctx, id)
}

// MarkCurrentLocation saves the device's current position, reverse geocoded,
// with category "other" and puts it at the top of the timeline.
func (s *LocationService) MarkCurrentLocation(ctx context.Context) (models.LocationRecord, error) {
	pos, err := s.position.CurrentPosition()
	if err != nil {
		logrus.WithError(err).Warn("Cannot mark location: current position unavailable")
		return models.LocationRecord{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}

	name := s.geocoder.ReverseGeocode(ctx, pos.Latitude, pos.Longitude)
	now := s.now()
	record := models.LocationRecord{
		Latitude:     pos.Latitude,
		Longitude:    pos.Longitude,
		Timestamp:    &now,
		LocationName: name,
		Category:     models.CategoryOther,
	}
	if err := s.insertAndPrepend(ctx, &record); err != nil {
		return models.LocationRecord{}, err
	}

	logrus.WithFields(logrus.Fields{
		"location_id":   record.ID,
		"latitude":      record.Latitude,
		"longitude":     record.Longitude,
		"location_name": record.LocationName,
	}).Info("Current location marked")
	return record, nil
}

func (s *LocationService) insertAndPrepend(ctx context.Context, record *models.LocationRecord) error {
	if err := s.store.Insert(ctx, record); err != nil {
		logrus.WithError(err).Error("Failed to save location")
		return err
	}
	s.mu.Lock()
	s.locations = append([]models.LocationRecord{*record}, s.locations...)
	s.mu.Unlock()
	return nil
}

// UpdateLocation changes the custom name and category, then refreshes the timeline.
func (s *LocationService) UpdateLocation(ctx context.Context, id uuid.UUID, customName *string, category string) error {
	if err := s.store.Update(ctx, id, customName, category); err != nil {
		logrus.WithError(err).WithField("location_id", id).Error("Failed to update location")
		return err
	}
	logrus.WithFields(logrus.Fields{
		"location_id": id,
		"category":    models.NormalizeCategory(category),
	}).Info("Location updated")
	return s.refresh(ctx)
}

// DeleteLocation removes a record on the store's background worker. Once the
// delete commits the record is dropped from the timeline and onDone is called.
// onDone always runs, with deleted false for unknown ids.
func (s *LocationService) DeleteLocation(ctx context.Context, id uuid.UUID, onDone func(deleted bool, err error)) {
	s.store.DeleteAsync(ctx, id, func(deleted bool, err error) {
		if err == nil && deleted {
			s.removeFromTimeline(id)
		}
		if onDone != nil {
			onDone(deleted, err)
		}
	})
}

func (s *LocationService) removeFromTimeline(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.locations[:0]
	for _, r := range s.locations {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.locations = kept
}

// GenerateShareableEncoding renders the share text block for a record.
func (s *LocationService) GenerateShareableEncoding(record models.LocationRecord) string {
	return codec.EncodeSharePayload(record)
}

// GenerateQRCode renders the share text block as a PNG QR code.
func (s *LocationService) GenerateQRCode(record models.LocationRecord) ([]byte, error) {
	png, err := codec.EncodeQR(codec.EncodeSharePayload(record))
	if err != nil {
		logrus.WithError(err).WithField("location_id", record.ID).Error("Failed to generate QR code")
		return nil, err
	}
	return png, nil
}

// ShareMessage is the one-line message for the share sheet.
func (s *LocationService) ShareMessage(record models.LocationRecord) string {
	return codec.ShareMessage(record)
}

// MapsURL links the record in a maps application.
func (s *LocationService) MapsURL(record models.LocationRecord) string {
	return codec.MapsURL(record)
}

// ImportSharePayload saves the location carried by a scanned share block,
// timestamped now.
func (s *LocationService) ImportSharePayload(ctx context.Context, text string) (models.LocationRecord, error) {
	payload, err := codec.DecodeSharePayload(text)
	if err != nil {
		logrus.WithError(err).Warn("Rejected share payload")
		return models.LocationRecord{}, err
	}

	record := payload.Record(s.now())
	if err := s.insertAndPrepend(ctx, &record); err != nil {
		return models.LocationRecord{}, err
	}
	logrus.WithFields(logrus.Fields{
		"location_id":   record.ID,
		"location_name": record.LocationName,
	}).Info("Location imported from share payload")
	return record, nil
}

// ImportQRImage decodes a QR code from an image and imports its share block.
func (s *LocationService) ImportQRImage(ctx context.Context, r io.Reader) (models.LocationRecord, error) {
	text, err := codec.DecodeQRImage(r)
	if err != nil {
		logrus.WithError(err).Warn("Failed to read QR code from image")
		return models.LocationRecord{}, err
	}
	return s.ImportSharePayload(ctx, text)
}

// ExportCSV writes every stored record as a CSV backup and returns how many were written.
func (s *LocationService) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	records, err := s.store.Query(ctx, "", "")
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, ErrNothingToExport
	}
	if err := codec.EncodeCSV(w, records); err != nil {
		logrus.WithError(err).Error("Failed to write CSV export")
		return 0, fmt.Errorf("write CSV: %w", err)
	}
	logrus.WithField("count", len(records)).Info("Locations exported to CSV")
	return len(records), nil
}

// ImportCSV inserts every usable row of a CSV backup as a new record and
// refreshes the timeline. Rows that fail to save are logged and skipped.
func (s *LocationService) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	records, err := codec.DecodeCSV(r, s.now)
	if err != nil {
		logrus.WithError(err).Warn("Rejected CSV import")
		return 0, err
	}

	imported := 0
	for i := range records {
		if err := s.store.Insert(ctx, &records[i]); err != nil {
			logrus.WithError(err).WithField("row", i+1).Error("Failed to import CSV row")
			continue
		}
		imported++
	}
	logrus.WithFields(logrus.Fields{
		"rows":     len(records),
		"imported": imported,
	}).Info("Locations imported from CSV")

	if err := s.refresh(ctx); err != nil {
		return imported, err
	}
	return imported, nil
}

// ExportGeoJSON renders every stored record as a GeoJSON FeatureCollection.
func (s *LocationService) ExportGeoJSON(ctx context.Context) ([]byte, error) {
	records, err := s.store.Query(ctx, "", "")
	if err != nil {
		return nil, err
	}
	return codec.EncodeGeoJSON(records)
}

// Settings returns the settings row, creating it on first use.
func (s *LocationService) Settings(ctx context.Context) (models.Settings, error) {
	return s.store.GetOrCreateSettings(ctx)
}

// SetLanguage stores one of the supported language codes.
func (s *LocationService) SetLanguage(ctx context.Context, code string) (models.Settings, error) {
	normalized, ok := i18n.Normalize(code)
	if !ok {
		return models.Settings{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return s.updateSettings(ctx, func(st *models.Settings) {
		st.Language = normalized
	})
}

// SetDarkMode stores the dark mode preference.
func (s *LocationService) SetDarkMode(ctx context.Context, enabled bool) (models.Settings, error) {
	return s.updateSettings(ctx, func(st *models.Settings) {
		st.IsDarkMode = enabled
	})
}

// ToggleDarkMode flips the dark mode preference.
func (s *LocationService) ToggleDarkMode(ctx context.Context) (models.Settings, error) {
	return s.updateSettings(ctx, func(st *models.Settings) {
		st.IsDarkMode = !st.IsDarkMode
	})
}

func (s *LocationService) updateSettings(ctx context.Context, apply func(*models.Settings)) (models.Settings, error) {
	settings, err := s.store.GetOrCreateSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	apply(&settings)
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		logrus.WithError(err).Error("Failed to save settings")
		return models.Settings{}, err
	}
	logrus.WithFields(logrus.Fields{
		"language":     settings.Language,
		"is_dark_mode": settings.IsDarkMode,
	}).Info("Settings updated")
	return settings, nil
}
