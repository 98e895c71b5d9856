// Package store persists the ingredient catalog and saved menu pizzas in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/maestro/internal/ingredient"
	"github.com/Simplici0/maestro/internal/pizza"
)

var (
	// ErrNotFound is returned when a saved pizza does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownIngredient is returned when a saved pizza names an ingredient
	// missing from the catalog.
	ErrUnknownIngredient = errors.New("unknown ingredient")
)

const sqliteTimestamp = "2006-01-02 15:04:05"

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store reads and writes catalog and menu rows.
type Store struct {
	q Querier
}

func New(q Querier) *Store {
	return &Store{q: q}
}

// Change reports what an upsert did.
type Change int

const (
	Unchanged Change = iota
	Inserted
	Updated
)

// LoadCatalog builds a catalog from every stored ingredient, in insertion
// order.
func (s *Store) LoadCatalog(ctx context.Context) (*ingredient.Catalog, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT name, category, price, protein, carbohydrates, calories, fat_samples
		FROM ingredients
		ORDER BY position, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	defer rows.Close()

	var items []ingredient.Ingredient
	for rows.Next() {
		item, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingredients: %w", err)
	}

	catalog, err := ingredient.NewCatalog(items...)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return catalog, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIngredient(row scanner) (ingredient.Ingredient, error) {
	var (
		item     ingredient.Ingredient
		category string
		fat      string
	)
	if err := row.Scan(&item.Name, &category, &item.Price, &item.Protein, &item.Carbohydrates, &item.Calories, &fat); err != nil {
		return ingredient.Ingredient{}, fmt.Errorf("scan ingredient: %w", err)
	}
	cat, err := ingredient.ParseCategory(category)
	if err != nil {
		return ingredient.Ingredient{}, fmt.Errorf("ingredient %s: %w", item.Name, err)
	}
	item.Category = cat
	if err := json.Unmarshal([]byte(fat), &item.Fat); err != nil {
		return ingredient.Ingredient{}, fmt.Errorf("ingredient %s: decode fat samples: %w", item.Name, err)
	}
	return item, nil
}

// UpsertIngredient inserts item or updates the stored row with the same
// name. Rows that already hold the same values are left alone.
func (s *Store) UpsertIngredient(ctx context.Context, item ingredient.Ingredient) (Change, error) {
	fat, err := json.Marshal(item.Fat)
	if err != nil {
		return Unchanged, fmt.Errorf("encode fat samples of %s: %w", item.Name, err)
	}

	row := s.q.QueryRowContext(ctx, `
		SELECT name, category, price, protein, carbohydrates, calories, fat_samples
		FROM ingredients
		WHERE name = ?
	`, item.Name)
	existing, err := scanIngredient(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.q.ExecContext(ctx, `
			INSERT INTO ingredients (name, category, price, protein, carbohydrates, calories, fat_samples, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM ingredients))
		`, item.Name, item.Category.String(), item.Price, item.Protein, item.Carbohydrates, item.Calories, string(fat)); err != nil {
			return Unchanged, fmt.Errorf("insert ingredient %s: %w", item.Name, err)
		}
		return Inserted, nil
	case err != nil:
		return Unchanged, err
	}

	if sameIngredient(existing, item) {
		return Unchanged, nil
	}
	if _, err := s.q.ExecContext(ctx, `
		UPDATE ingredients
		SET category = ?, price = ?, protein = ?, carbohydrates = ?, calories = ?, fat_samples = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, item.Category.String(), item.Price, item.Protein, item.Carbohydrates, item.Calories, string(fat), item.Name); err != nil {
		return Unchanged, fmt.Errorf("update ingredient %s: %w", item.Name, err)
	}
	return Updated, nil
}

func sameIngredient(a, b ingredient.Ingredient) bool {
	return a.Category == b.Category &&
		a.Price == b.Price &&
		a.Protein == b.Protein &&
		a.Carbohydrates == b.Carbohydrates &&
		a.Calories == b.Calories &&
		slices.Equal(a.Fat, b.Fat)
}

// SavedPizza is a menu pizza with its storage identity.
type SavedPizza struct {
	ID        string
	CreatedAt time.Time
	Pizza     *pizza.Pizza
}

// SavePizza stores p under a new id.
func (s *Store) SavePizza(ctx context.Context, p *pizza.Pizza) (SavedPizza, error) {
	names, err := json.Marshal(p.Ingredients())
	if err != nil {
		return SavedPizza{}, fmt.Errorf("encode pizza ingredients: %w", err)
	}

	saved := SavedPizza{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Pizza:     p,
	}
	if _, err := s.q.ExecContext(ctx, `
		INSERT INTO pizzas (id, name, ingredients, created_at)
		VALUES (?, ?, ?, ?)
	`, saved.ID, p.Name(), string(names), saved.CreatedAt.Format(sqliteTimestamp)); err != nil {
		return SavedPizza{}, fmt.Errorf("insert pizza: %w", err)
	}
	return saved, nil
}

// ListPizzas returns saved pizzas in the order they were saved, rebuilt from
// catalog.
func (s *Store) ListPizzas(ctx context.Context, catalog *ingredient.Catalog) ([]SavedPizza, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, ingredients, created_at
		FROM pizzas
		ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query pizzas: %w", err)
	}
	defer rows.Close()

	var out []SavedPizza
	for rows.Next() {
		var saved SavedPizza
		var name, names, createdAtRaw string
		if err := rows.Scan(&saved.ID, &name, &names, &createdAtRaw); err != nil {
			return nil, fmt.Errorf("scan pizza: %w", err)
		}
		createdAt, err := time.Parse(sqliteTimestamp, createdAtRaw)
		if err != nil {
			return nil, fmt.Errorf("pizza %s: parse created_at: %w", saved.ID, err)
		}
		saved.CreatedAt = createdAt

		var held []string
		if err := json.Unmarshal([]byte(names), &held); err != nil {
			return nil, fmt.Errorf("pizza %s: decode ingredients: %w", saved.ID, err)
		}
		p, err := Rebuild(catalog, held)
		if err != nil {
			return nil, fmt.Errorf("pizza %s: %w", saved.ID, err)
		}
		saved.Pizza = p.Named(name)
		out = append(out, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pizzas: %w", err)
	}
	return out, nil
}

// DeletePizza removes the saved pizza with id.
func (s *Store) DeletePizza(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM pizzas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pizza: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pizza: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pizza %s: %w", id, ErrNotFound)
	}
	return nil
}

// Rebuild composes a pizza from ingredient names looked up in catalog. The
// first dough and the first sauce fill their slots; everything else is a
// topping.
func Rebuild(catalog *ingredient.Catalog, names []string) (*pizza.Pizza, error) {
	var (
		dough, sauce *ingredient.Ingredient
		toppings     []ingredient.Ingredient
	)
	for _, name := range names {
		item, ok := catalog.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownIngredient, name)
		}
		switch {
		case item.Category == ingredient.Dough && dough == nil:
			dough = &item
		case item.Category == ingredient.Sauce && sauce == nil:
			sauce = &item
		default:
			toppings = append(toppings, item)
		}
	}
	if dough == nil || sauce == nil {
		return nil, fmt.Errorf("%w: needs one dough and one sauce", pizza.ErrInvalidPizza)
	}
	return pizza.New(*dough, *sauce, toppings...)
}
