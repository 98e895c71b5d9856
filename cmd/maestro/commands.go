package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Simplici0/maestro/internal/db"
	"github.com/Simplici0/maestro/internal/ingredient"
	"github.com/Simplici0/maestro/internal/menu"
	"github.com/Simplici0/maestro/internal/migrations"
	"github.com/Simplici0/maestro/internal/optimizer"
	"github.com/Simplici0/maestro/internal/pizza"
	"github.com/Simplici0/maestro/internal/seed"
	"github.com/Simplici0/maestro/internal/store"
)

type options struct {
	dbPath      string
	timeout     time.Duration
	nodeLimit   int
	verbose     bool
	constraints string
	tradeoff    float64
	sortBy      string
	descending  bool
	csv         bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "maestro",
		Short:        "Compose pizzas that meet nutrition and price constraints",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "load the catalog from this SQLite database instead of the built-in one")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "solver time limit")
	root.PersistentFlags().IntVar(&opts.nodeLimit, "node-limit", 100000, "solver branch-and-bound node limit (0 = none)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log solver details")

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the ingredients available to the optimizer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, cleanup, err := opts.loadCatalog(commandContext(cmd))
			if err != nil {
				return err
			}
			defer cleanup()
			fmt.Fprintln(cmd.OutOrStdout(), renderCatalog(catalog))
			return nil
		},
	}

	cheapestCmd := &cobra.Command{
		Use:   "cheapest",
		Short: "Find the cheapest pizza meeting the constraints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.optimize(cmd, func(ctx context.Context, e *optimizer.Engine, c optimizer.Constraints) (*pizza.Pizza, error) {
				return e.MinimizePrice(ctx, c)
			})
		},
	}
	cheapestCmd.Flags().StringVarP(&opts.constraints, "constraints", "c", "", "YAML constraints file")

	tastiestCmd := &cobra.Command{
		Use:   "tastiest",
		Short: "Find the tastiest pizza meeting the constraints, trading taste against price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.optimize(cmd, func(ctx context.Context, e *optimizer.Engine, c optimizer.Constraints) (*pizza.Pizza, error) {
				return e.MaximizeTaste(ctx, c, opts.tradeoff)
			})
		},
	}
	tastiestCmd.Flags().StringVarP(&opts.constraints, "constraints", "c", "", "YAML constraints file")
	tastiestCmd.Flags().Float64Var(&opts.tradeoff, "tradeoff", 0, "price penalty per unit of price")

	menuCmd := &cobra.Command{
		Use:   "menu",
		Short: "Show the pizzas saved in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dbPath == "" {
				return fmt.Errorf("menu needs --db")
			}
			return opts.showMenu(cmd)
		},
	}
	menuCmd.Flags().StringVar(&opts.sortBy, "sort", "", "sort column (name, price, protein, average_fat, carbohydrates, calories)")
	menuCmd.Flags().BoolVar(&opts.descending, "desc", false, "sort descending")
	menuCmd.Flags().BoolVar(&opts.csv, "csv", false, "write CSV instead of a table")

	root.AddCommand(catalogCmd, cheapestCmd, tastiestCmd, menuCmd)
	return root
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadCatalog returns the built-in catalog, or the one stored in --db. An
// empty database is seeded with the built-in catalog first.
func (o *options) loadCatalog(ctx context.Context) (*ingredient.Catalog, func(), error) {
	if o.dbPath == "" {
		return ingredient.Default(), func() {}, nil
	}
	st, cleanup, err := o.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := st.LoadCatalog(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return catalog, cleanup, nil
}

func (o *options) openStore(ctx context.Context) (*store.Store, func(), error) {
	database, err := db.Open(ctx, o.dbPath)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { database.Close() }
	if err := migrations.Up(ctx, database); err != nil {
		cleanup()
		return nil, nil, err
	}

	st := store.New(database)
	catalog, err := st.LoadCatalog(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if catalog.Len() == 0 {
		if _, err := seed.Run(ctx, database, ingredient.Default()); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return st, cleanup, nil
}

func (o *options) readConstraints() (optimizer.Constraints, error) {
	if o.constraints == "" {
		return optimizer.DefaultConstraints(), nil
	}
	data, err := os.ReadFile(o.constraints)
	if err != nil {
		return optimizer.Constraints{}, fmt.Errorf("read constraints: %w", err)
	}
	return optimizer.ParseConstraintsYAML(data)
}

func (o *options) optimize(cmd *cobra.Command, solve func(context.Context, *optimizer.Engine, optimizer.Constraints) (*pizza.Pizza, error)) error {
	ctx := commandContext(cmd)
	c, err := o.readConstraints()
	if err != nil {
		return err
	}
	catalog, cleanup, err := o.loadCatalog(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	engine := optimizer.New(catalog,
		optimizer.WithLogger(o.logger(cmd.ErrOrStderr())),
		optimizer.WithTimeout(o.timeout),
		optimizer.WithNodeLimit(o.nodeLimit),
	)
	p, err := solve(ctx, engine, c)
	if err != nil {
		return err
	}
	out, err := renderPizza(p)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func (o *options) showMenu(cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	st, cleanup, err := o.openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	catalog, err := st.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	saved, err := st.ListPizzas(ctx, catalog)
	if err != nil {
		return err
	}
	m := menu.New(nil, menu.WithLogger(o.logger(cmd.ErrOrStderr())))
	for _, sp := range saved {
		m.Add(sp.Pizza)
	}

	table, err := m.Table(menu.Column(o.sortBy), o.descending)
	if err != nil {
		return err
	}
	if o.csv {
		return table.WriteCSV(cmd.OutOrStdout())
	}
	fmt.Fprintln(cmd.OutOrStdout(), table.Render())
	return nil
}
