package source

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/brendtumi/feasible/internal/cache"
	"github.com/brendtumi/feasible/internal/logging"
)

// Fetcher retrieves a remote document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// CachedFetcher remembers every successful fetch and serves the remembered
// copy when a later fetch fails. A cancelled context is never masked.
type CachedFetcher struct {
	Fetcher Fetcher
	Cache   *cache.Cache
	Log     logrus.FieldLogger
}

func (f *CachedFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	log := f.Log
	if log == nil {
		log = logging.Discard()
	}

	content, err := f.Fetcher.Fetch(ctx, rawURL)
	if err == nil {
		if storeErr := f.Cache.Store(rawURL, content); storeErr != nil {
			log.WithError(storeErr).Debug("Could not cache configuration")
		}
		return content, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	cached, found, lookupErr := f.Cache.Lookup(rawURL)
	if lookupErr != nil || !found {
		return nil, err
	}
	log.WithError(err).Warnf("Using cached copy of %s", rawURL)
	return cached, nil
}
