package menu

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ErrUnknownColumn is returned when sorting by a column the table lacks.
var ErrUnknownColumn = errors.New("unknown menu column")

// Column names a menu table column.
type Column string

const (
	ColumnName          Column = "name"
	ColumnPrice         Column = "price"
	ColumnProtein       Column = "protein"
	ColumnAverageFat    Column = "average_fat"
	ColumnCarbohydrates Column = "carbohydrates"
	ColumnCalories      Column = "calories"
	ColumnIngredients   Column = "ingredients"
)

// Columns lists the table columns in display order.
var Columns = []Column{
	ColumnName,
	ColumnPrice,
	ColumnProtein,
	ColumnAverageFat,
	ColumnCarbohydrates,
	ColumnCalories,
	ColumnIngredients,
}

// Row is one pizza in tabular form.
type Row struct {
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	Protein       float64  `json:"protein"`
	AverageFat    float64  `json:"average_fat"`
	Carbohydrates float64  `json:"carbohydrates"`
	Calories      float64  `json:"calories"`
	Ingredients   []string `json:"ingredients"`
}

// Table is a snapshot of a menu. SortedBy is empty when rows keep menu order.
type Table struct {
	Rows       []Row    `json:"rows"`
	SortedBy   Column   `json:"sorted_by,omitempty"`
	Descending bool     `json:"descending,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Table builds a table sorted by sortBy. An empty sortBy keeps menu order.
// Ingredient lists have no order, so sorting by them logs a warning and
// returns the rows unsorted.
func (m *Menu) Table(sortBy Column, descending bool) (*Table, error) {
	if sortBy != "" && !slices.Contains(Columns, sortBy) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, sortBy)
	}

	t := &Table{Rows: make([]Row, 0, len(m.pizzas))}
	for _, p := range m.pizzas {
		t.Rows = append(t.Rows, Row{
			Name:          p.Name(),
			Price:         p.Price(),
			Protein:       p.Protein(),
			AverageFat:    p.AverageFat(),
			Carbohydrates: p.Carbohydrates(),
			Calories:      p.Calories(),
			Ingredients:   p.Ingredients(),
		})
	}

	switch sortBy {
	case "":
		return t, nil
	case ColumnIngredients:
		msg := "sorting by ingredients is not defined; rows left in menu order"
		m.logger.Warn(msg, "column", sortBy)
		t.Warnings = append(t.Warnings, msg)
		return t, nil
	}

	compare := rowComparator(sortBy)
	slices.SortStableFunc(t.Rows, func(a, b Row) int {
		if descending {
			return compare(b, a)
		}
		return compare(a, b)
	})
	t.SortedBy = sortBy
	t.Descending = descending
	return t, nil
}

func rowComparator(c Column) func(a, b Row) int {
	switch c {
	case ColumnName:
		return func(a, b Row) int { return strings.Compare(a.Name, b.Name) }
	case ColumnPrice:
		return func(a, b Row) int { return cmp.Compare(a.Price, b.Price) }
	case ColumnProtein:
		return func(a, b Row) int { return cmp.Compare(a.Protein, b.Protein) }
	case ColumnAverageFat:
		return func(a, b Row) int { return cmp.Compare(a.AverageFat, b.AverageFat) }
	case ColumnCarbohydrates:
		return func(a, b Row) int { return cmp.Compare(a.Carbohydrates, b.Carbohydrates) }
	default:
		return func(a, b Row) int { return cmp.Compare(a.Calories, b.Calories) }
	}
}

func (r Row) cells() []string {
	return []string{
		r.Name,
		formatFloat(r.Price),
		formatFloat(r.Protein),
		formatFloat(r.AverageFat),
		formatFloat(r.Carbohydrates),
		formatFloat(r.Calories),
		strings.Join(r.Ingredients, ", "),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func headers() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = string(c)
	}
	return out
}

// Render draws the table for a terminal.
func (t *Table) Render() string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#16858E"))).
		Headers(headers()...)
	for _, r := range t.Rows {
		tbl.Row(r.cells()...)
	}
	return tbl.String()
}

// WriteCSV writes a header line and one record per row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range t.Rows {
		cells := r.cells()
		cells[len(cells)-1] = strings.Join(r.Ingredients, ";")
		if err := cw.Write(cells); err != nil {
			return fmt.Errorf("write csv row %q: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
