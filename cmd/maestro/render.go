package main

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Simplici0/maestro/internal/ingredient"
	"github.com/Simplici0/maestro/internal/menu"
	"github.com/Simplici0/maestro/internal/pizza"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16858E"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E8A33D"))
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func renderCatalog(c *ingredient.Catalog) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("name", "category", "price", "protein", "carbohydrates", "calories", "mean_fat")
	for _, it := range c.All() {
		tbl.Row(it.Name, it.Category.String(), num(it.Price), num(it.Protein), num(it.Carbohydrates), num(it.Calories), num(it.MeanFat()))
	}
	return tbl.String()
}

func renderPizza(p *pizza.Pizza) (string, error) {
	t, err := menu.New([]*pizza.Pizza{p}).Table("", false)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Name()))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString("taste " + num(p.Taste()) + "  fat p90 " + num(p.FatQuantile(0.9)))
	return b.String(), nil
}
