package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Simplici0/maestro/internal/ingredient"
	"github.com/Simplici0/maestro/internal/store"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run upserts every catalog ingredient in one transaction. Running it again
// with the same catalog changes nothing.
func Run(ctx context.Context, db *sql.DB, catalog *ingredient.Catalog) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	s := store.New(tx)
	for _, item := range catalog.All() {
		change, err := s.UpsertIngredient(ctx, item)
		if err != nil {
			_ = tx.Rollback()
			return Stats{}, fmt.Errorf("seed ingredient %s: %w", item.Name, err)
		}
		switch change {
		case store.Inserted:
			stats.Inserts++
		case store.Updated:
			stats.Updates++
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	slog.Default().Debug("catalog seeded", "inserts", stats.Inserts, "updates", stats.Updates)
	return stats, nil
}
