// Package loader fills a state store from persisted collections and keeps it
// current as change events arrive.
package loader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dyluth/roster/internal/logfields"
	"github.com/dyluth/roster/internal/repository"
	"github.com/dyluth/roster/pkg/state"
)

// Source returns the current contents of a collection as the typed slice the
// store holds for it. *repository.Client implements Source.
type Source interface {
	Fetch(ctx context.Context, collection state.Path) (any, error)
}

// Feed delivers change events. *repository.ChangeSubscription implements Feed.
type Feed interface {
	Events() <-chan repository.ChangeEvent
	Errors() <-chan error
}

// LoadAll fetches every collection and writes it into the store, one Set per
// collection, so subscribers see each collection replaced once.
func LoadAll(ctx context.Context, src Source, store *state.Store) error {
	for _, collection := range state.Collections {
		if err := reload(ctx, src, store, collection); err != nil {
			return err
		}
	}
	return nil
}

// Follow re-fetches a collection each time the feed reports a change to it,
// until ctx is cancelled or the feed's event channel closes.
// Fetch failures and feed errors are logged and do not stop the loop.
func Follow(ctx context.Context, feed Feed, src Source, store *state.Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	errs := feed.Errors()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("change feed error", logfields.Error(err))

		case ev, ok := <-feed.Events():
			if !ok {
				return nil
			}
			if err := reload(ctx, src, store, ev.Collection); err != nil {
				logger.Warn("failed to reload collection",
					logfields.Collection(string(ev.Collection)),
					logfields.RecordID(ev.ID),
					logfields.Error(err))
				continue
			}
			logger.Debug("collection reloaded",
				logfields.Collection(string(ev.Collection)),
				logfields.RecordID(ev.ID))
		}
	}
}

func reload(ctx context.Context, src Source, store *state.Store, collection state.Path) error {
	value, err := src.Fetch(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", collection, err)
	}
	if err := store.Set(collection, value); err != nil {
		return fmt.Errorf("failed to store %s: %w", collection, err)
	}
	return nil
}
