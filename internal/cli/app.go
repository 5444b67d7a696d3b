package cli

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"locamark/internal/config"
	"locamark/internal/geo"
	"locamark/internal/service"
	"locamark/internal/store"
)

// app is the object graph behind every command that touches the database.
type app struct {
	db      *gorm.DB
	store   *store.Store
	tracker *geo.Tracker
	svc     *service.LocationService
}

func openApp(cfg config.Config) (*app, error) {
	db, err := config.OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	st := store.New(db)
	tracker := geo.NewTracker()
	geocoder := geo.NewLocationIQ(cfg.LocationIQEndpoint, cfg.LocationIQAPIKey)

	return &app{
		db:      db,
		store:   st,
		tracker: tracker,
		svc:     service.New(st, tracker, geocoder),
	}, nil
}

func (a *app) Close() {
	a.tracker.Close()
	a.store.Close()
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}
}
