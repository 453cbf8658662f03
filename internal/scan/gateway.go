package scan

import (
	"context"
	"strings"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/database"
	"scanorder-backend/internal/models"

	"github.com/rs/zerolog"
)

const storeClosed = "Store not found or is currently closed."

// MenuSource loads stores and their public menu. Implemented by the
// catalog repository.
type MenuSource interface {
	FindStoreByCode(ctx context.Context, code string) (*models.Store, error)
	LoadMenu(ctx context.Context, id uint) (*models.Store, error)
}

type Gateway struct {
	source MenuSource
	cache  MenuCache
	logger zerolog.Logger
}

// NewGateway builds a gateway; a nil cache disables caching.
func NewGateway(source MenuSource, cache MenuCache, logger zerolog.Logger) *Gateway {
	return &Gateway{source: source, cache: cache, logger: logger}
}

// ResolveStoreCode returns the menu snapshot of the active store with the
// given code.
func (g *Gateway) ResolveStoreCode(ctx context.Context, code string) (*models.Store, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Validation("The given data was invalid.", map[string]string{
			"store_code": "The store code field is required.",
		})
	}

	if g.cache != nil {
		menu, ok, err := g.cache.Get(ctx, code)
		switch {
		case err != nil:
			g.logger.Warn().Err(err).Str("store_code", code).Msg("menu cache read failed")
		case ok:
			return menu, nil
		}
	}

	store, err := g.source.FindStoreByCode(ctx, code)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound(storeClosed)
		}
		return nil, err
	}
	if !store.IsActive {
		return nil, apperr.NotFound(storeClosed)
	}

	menu, err := g.source.LoadMenu(ctx, store.ID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound(storeClosed)
		}
		return nil, err
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, code, menu); err != nil {
			g.logger.Warn().Err(err).Str("store_code", code).Msg("menu cache write failed")
		}
	}
	return menu, nil
}
