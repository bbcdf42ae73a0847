package catalog

import (
	"context"
	"fmt"

	"modeldeck/internal/domain"
	"modeldeck/internal/logging"
)

// Import loads a seed file into the store.
func Import(ctx context.Context, s *Store, seedPath string) (int, error) {
	models, err := LoadSeed(seedPath)
	if err != nil {
		return 0, err
	}
	n, err := s.Upsert(ctx, models)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", seedPath, err)
	}
	return n, nil
}

// Bootstrap makes sure the catalog has content: the configured seed file is
// imported when set, otherwise an empty catalog gets the built-in seed.
func Bootstrap(ctx context.Context, s *Store, seedPath string) (domain.CatalogStats, error) {
	if seedPath != "" {
		n, err := Import(ctx, s, seedPath)
		if err != nil {
			return domain.CatalogStats{}, err
		}
		logging.Info("catalog: imported seed", "path", seedPath, "models", n)
		return s.Stats(ctx)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return domain.CatalogStats{}, err
	}
	if stats.Models > 0 {
		return stats, nil
	}

	n, err := s.Upsert(ctx, DefaultSeed())
	if err != nil {
		return domain.CatalogStats{}, fmt.Errorf("import built-in seed: %w", err)
	}
	logging.Info("catalog: imported built-in seed", "models", n)
	return s.Stats(ctx)
}
