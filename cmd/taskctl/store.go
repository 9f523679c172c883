package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

var errUnreadableStore = errors.New("stored tasks are unreadable; refusing to overwrite them")

// session - открытый слот и загруженный стор на время одной команды
type session struct {
	store   *service.TaskStore
	slot    repository.Slot
	loadErr error
}

func openSession(ctx context.Context) (*session, error) {
	// logs go to stderr so that -o json/yaml stays parseable
	logger.InitWriter(os.Stderr, "warn", false)
	cfg := config.Load()

	slot, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	store := service.NewTaskStore(slot, service.WithKey(cfg.StorageKey))
	return &session{store: store, slot: slot, loadErr: store.Load(ctx)}, nil
}

// writable fails when Load could not read the slot: the next save would
// replace whatever is there with an empty list.
func (s *session) writable() error {
	if s.loadErr != nil {
		return fmt.Errorf("%w: %w", errUnreadableStore, s.loadErr)
	}
	return nil
}

func (s *session) Close() {
	_ = s.slot.Close()
}

// parseDue accepts YYYY-MM-DD or RFC3339.
func parseDue(s string) (*time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("bad --due %q: use YYYY-MM-DD or RFC3339", s)
	}
	return &t, nil
}
