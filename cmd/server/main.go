package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/maestro/internal/config"
	"github.com/Simplici0/maestro/internal/db"
	"github.com/Simplici0/maestro/internal/ingredient"
	"github.com/Simplici0/maestro/internal/menu"
	"github.com/Simplici0/maestro/internal/migrations"
	"github.com/Simplici0/maestro/internal/optimizer"
	"github.com/Simplici0/maestro/internal/pizza"
	"github.com/Simplici0/maestro/internal/pricing"
	"github.com/Simplici0/maestro/internal/seed"
	"github.com/Simplici0/maestro/internal/store"
)

type server struct {
	logger  *slog.Logger
	auth    *tokenAuth
	store   *store.Store
	catalog *ingredient.Catalog
	engine  *optimizer.Engine
	pricing pricing.Settings

	mu   sync.Mutex
	menu *menu.Menu
	ids  map[string]*pizza.Pizza
	// idOf maps menu pizzas back to their stored id.
	idOf map[*pizza.Pizza]string
}

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	srv, err := newServer(ctx, database, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "err", err)
		os.Exit(1)
	}

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "ingredients", srv.catalog.Len(), "menu", srv.menu.Len())
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// newServer migrates and seeds the database, loads the catalog and the saved
// menu, and wires the optimizer.
func newServer(ctx context.Context, database *sql.DB, cfg config.Config, logger *slog.Logger) (*server, error) {
	if err := migrations.Up(ctx, database); err != nil {
		return nil, err
	}
	stats, err := seed.Run(ctx, database, ingredient.Default())
	if err != nil {
		return nil, err
	}
	logger.Info("catalog seeded", "inserts", stats.Inserts, "updates", stats.Updates)

	st := store.New(database)
	catalog, err := st.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := st.ListPizzas(ctx, catalog)
	if err != nil {
		return nil, err
	}

	srv := &server{
		logger:  logger,
		auth:    newTokenAuth(cfg.APIToken),
		store:   st,
		catalog: catalog,
		engine: optimizer.New(catalog,
			optimizer.WithLogger(logger),
			optimizer.WithTimeout(cfg.SolverTimeout),
			optimizer.WithNodeLimit(cfg.SolverNodeLimit),
		),
		pricing: cfg.Pricing,
		menu:    menu.New(nil, menu.WithLogger(logger)),
		ids:     make(map[string]*pizza.Pizza, len(saved)),
		idOf:    make(map[*pizza.Pizza]string, len(saved)),
	}
	for _, sp := range saved {
		srv.track(sp.ID, sp.Pizza)
	}
	return srv, nil
}

// track adds p to the menu under id. Callers hold mu or own the server
// exclusively.
func (s *server) track(id string, p *pizza.Pizza) {
	s.menu.Add(p)
	s.ids[id] = p
	s.idOf[p] = id
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ingredients", s.handleIngredients)
	r.Post("/pizzas/cheapest", s.handleCheapest)
	r.Post("/pizzas/tastiest", s.handleTastiest)

	r.Route("/menu", func(r chi.Router) {
		r.Get("/", s.handleMenu)
		r.Get("/extremes/{kind}", s.handleExtreme)
		r.Get("/fattest", s.handleFattest)
		r.Get("/sensitivities", s.handleSensitivities)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.require)
			r.Post("/", s.handleMenuAdd)
			r.Delete("/{id}", s.handleMenuDelete)
		})
	})
	return r
}
