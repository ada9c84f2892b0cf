package translate

import (
	"context"
	"log/slog"
	"strings"

	"subtrans/internal/cache"
	"subtrans/internal/logging"
)

// Store is the translation memory the cached translator reads and writes.
type Store interface {
	Lookup(ctx context.Context, key cache.Key) (string, bool, error)
	Put(ctx context.Context, key cache.Key, translated string) error
}

// Cached wraps a translator with a translation memory. Cache failures are
// logged and never fail the translation.
type Cached struct {
	next   Translator
	store  Store
	model  string
	from   string
	to     string
	logger *slog.Logger
}

// NewCached returns next unchanged when store is nil.
func NewCached(next Translator, store Store, model, from, to string, logger *slog.Logger) Translator {
	if store == nil {
		return next
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cached{
		next:   next,
		store:  store,
		model:  model,
		from:   from,
		to:     to,
		logger: logging.NewComponentLogger(logger, "cache"),
	}
}

// Translate serves from the cache when possible, otherwise delegates and
// records the result.
func (c *Cached) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return c.next.Translate(ctx, text)
	}
	key := cache.Key{Model: c.model, From: c.from, To: c.to, Source: text}
	if hit, ok, err := c.store.Lookup(ctx, key); err != nil {
		logging.WarnWithContext(c.logger, "translation cache lookup failed", "cache_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the cache path or clear the cache"),
			logging.String(logging.FieldImpact, "translation requested from the model"),
		)
	} else if ok {
		c.logger.DebugContext(ctx, "translation cache hit", logging.String("model", c.model))
		return hit, nil
	}

	translated, err := c.next.Translate(ctx, text)
	if err != nil {
		return "", err
	}
	if err := c.store.Put(ctx, key, translated); err != nil {
		logging.WarnWithContext(c.logger, "translation cache write failed", "cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the cache path or clear the cache"),
			logging.String(logging.FieldImpact, "line will be translated again next run"),
		)
	}
	return translated, nil
}
