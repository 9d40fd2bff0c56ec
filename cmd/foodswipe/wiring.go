package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jask/foodswipe/internal/config"
	"github.com/jask/foodswipe/internal/database"
	"github.com/jask/foodswipe/internal/database/repository"
	"github.com/jask/foodswipe/internal/liked"
	"github.com/jask/foodswipe/internal/location"
	"github.com/jask/foodswipe/internal/pipeline"
	"github.com/jask/foodswipe/internal/prefs"
	"github.com/jask/foodswipe/internal/search"
	"github.com/jask/foodswipe/internal/secrets"
	"github.com/jask/foodswipe/internal/service"
	"github.com/jask/foodswipe/internal/settings"
)

const likedKey = liked.SlotKey

// environment is everything a surface needs, plus what to release on exit.
type environment struct {
	Session *service.SessionService
	closers []func()
}

func (e *environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Config, logger *log.Logger) (*environment, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	env := &environment{}

	slot, closeSlot, err := buildSlot(cfg)
	if err != nil {
		return nil, err
	}
	env.closers = append(env.closers, closeSlot)

	gateway, closeGateway, err := buildGateway(cfg)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.closers = append(env.closers, closeGateway)

	store := liked.New(slot, logger)
	store.Load(ctx)

	p := pipeline.New(gateway, store, cfg.Search.PageSize)
	svc := service.NewSessionService(p, store, buildLocation(cfg), cfg.SessionSettings(), logger)
	svc.OnSettingsChanged = func(s settings.Settings) {
		if err := config.Save(cfg.WithSession(s)); err != nil {
			logger.Printf("save settings: %v", err)
		}
	}
	env.Session = svc
	return env, nil
}

func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

func fileSlot(cfg config.Config) (*prefs.FileSlot, error) {
	dir := cfg.Storage.Dir
	if dir == "" {
		d, err := prefs.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return prefs.NewFileSlot(dir), nil
}

func buildSlot(cfg config.Config) (liked.Slot, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case "file":
		slot, err := fileSlot(cfg)
		if err != nil {
			return nil, nil, err
		}
		return slot, func() {}, nil
	case "sqlite", "":
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSlotRepo(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage.backend %q", cfg.Storage.Backend)
	}
}

func buildGateway(cfg config.Config) (search.Gateway, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Search.Provider)) {
	case "yelp", "":
		var lookup config.KeyLookup
		if store, err := secrets.Default(); err == nil {
			lookup = store.FetchAPIKey
		}
		key, err := cfg.ResolveAPIKey(lookup)
		if err != nil {
			return nil, nil, fmt.Errorf("%w (set %s or run `foodswipe key set yelp <key>`)", err, cfg.Search.APIKeyEnv)
		}
		return search.NewYelpGateway(key, cfg.Search.BaseURL, cfg.Search.Locale, cfg.Search.Timeout), func() {}, nil
	case "elastic":
		client, err := search.NewElasticClient(cfg.Elastic.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect elastic: %w", err)
		}
		return search.NewElasticGateway(client, cfg.Elastic.Index), client.Stop, nil
	case "fixture":
		return search.NewFixtureGateway(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown search.provider %q", cfg.Search.Provider)
	}
}

func buildLocation(cfg config.Config) location.Source {
	if ref, ok := cfg.Reference(); ok {
		return location.Fixed{Point: ref}
	}
	return location.Unavailable{Reason: "location.latitude and location.longitude are not configured"}
}

func openLogFile() (*os.File, error) {
	dir, err := prefs.DefaultDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "foodswipe.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}
