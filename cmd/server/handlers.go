package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/maestro/internal/ingredient"
	"github.com/Simplici0/maestro/internal/menu"
	"github.com/Simplici0/maestro/internal/optimizer"
	"github.com/Simplici0/maestro/internal/pizza"
	"github.com/Simplici0/maestro/internal/pricing"
	"github.com/Simplici0/maestro/internal/store"
)

const (
	maxBodyBytes  = 1 << 20
	warningHeader = "X-Menu-Warning"
)

type ingredientView struct {
	Name          string              `json:"name"`
	Category      ingredient.Category `json:"category"`
	Price         float64             `json:"price"`
	Protein       float64             `json:"protein"`
	Carbohydrates float64             `json:"carbohydrates"`
	Calories      float64             `json:"calories"`
	MeanFat       float64             `json:"mean_fat"`
	Samples       int                 `json:"samples"`
}

type pizzaView struct {
	ID            string         `json:"id,omitempty"`
	Name          string         `json:"name"`
	Dough         string         `json:"dough"`
	Sauce         string         `json:"sauce"`
	Cheese        []string       `json:"cheese"`
	Meat          []string       `json:"meat"`
	Vegetables    []string       `json:"vegetables"`
	Fruits        []string       `json:"fruits"`
	Price         float64        `json:"price"`
	Protein       float64        `json:"protein"`
	Carbohydrates float64        `json:"carbohydrates"`
	Calories      float64        `json:"calories"`
	AverageFat    float64        `json:"average_fat"`
	Taste         float64        `json:"taste"`
	RetailPrice   float64        `json:"retail_price"`
	Quote         pricing.Result `json:"quote"`
}

type sensitivitiesView struct {
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
}

type menuAddRequest struct {
	Name     string   `json:"name"`
	Dough    string   `json:"dough"`
	Sauce    string   `json:"sauce"`
	Toppings []string `json:"toppings"`
}

func names(items []ingredient.Ingredient) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func (s *server) view(id string, p *pizza.Pizza) pizzaView {
	quote := pricing.Calculate(p.Price(), s.pricing)
	return pizzaView{
		ID:            id,
		Name:          p.Name(),
		Dough:         p.Dough().Name,
		Sauce:         p.Sauce().Name,
		Cheese:        names(p.Cheese()),
		Meat:          names(p.Meat()),
		Vegetables:    names(p.Vegetables()),
		Fruits:        names(p.Fruits()),
		Price:         p.Price(),
		Protein:       p.Protein(),
		Carbohydrates: p.Carbohydrates(),
		Calories:      p.Calories(),
		AverageFat:    p.AverageFat(),
		Taste:         p.Taste(),
		RetailPrice:   quote.Totals.Total,
		Quote:         quote,
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleIngredients(w http.ResponseWriter, r *http.Request) {
	items := s.catalog.All()
	out := make([]ingredientView, 0, len(items))
	for _, it := range items {
		out = append(out, ingredientView{
			Name:          it.Name,
			Category:      it.Category,
			Price:         it.Price,
			Protein:       it.Protein,
			Carbohydrates: it.Carbohydrates,
			Calories:      it.Calories,
			MeanFat:       it.MeanFat(),
			Samples:       len(it.Fat),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleCheapest(w http.ResponseWriter, r *http.Request) {
	c, err := decodeConstraints(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.engine.MinimizePrice(r.Context(), c)
	if err != nil {
		s.writeOptimizerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view("", p))
}

func (s *server) handleTastiest(w http.ResponseWriter, r *http.Request) {
	tradeoff := 0.0
	if raw := r.URL.Query().Get("tradeoff"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "tradeoff must be numeric")
			return
		}
		tradeoff = v
	}
	c, err := decodeConstraints(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.engine.MaximizeTaste(r.Context(), c, tradeoff)
	if err != nil {
		s.writeOptimizerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view("", p))
}

// decodeConstraints reads an optional constraints document. An empty body
// means the default constraints.
func decodeConstraints(w http.ResponseWriter, r *http.Request) (optimizer.Constraints, error) {
	var doc optimizer.ConstraintsDoc
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return optimizer.Constraints{}, fmt.Errorf("invalid constraints: %v", err)
	}
	return doc.Constraints(), nil
}

func (s *server) writeOptimizerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, optimizer.ErrInvalidConstraints):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, optimizer.ErrInfeasible):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("optimization failed", "err", err)
		writeError(w, http.StatusInternalServerError, "optimization failed")
	}
}

func (s *server) handleMenu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	descending, _ := strconv.ParseBool(q.Get("desc"))

	s.mu.Lock()
	table, err := s.menu.Table(menu.Column(q.Get("sort")), descending)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(table.Warnings) > 0 {
		w.Header().Set(warningHeader, strings.Join(table.Warnings, "; "))
	}

	if q.Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := table.WriteCSV(w); err != nil {
			s.logger.Error("write menu csv", "err", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *server) handleExtreme(w http.ResponseWriter, r *http.Request) {
	var pick func(*menu.Menu) (*pizza.Pizza, error)
	switch chi.URLParam(r, "kind") {
	case "cheapest":
		pick = (*menu.Menu).Cheapest
	case "most-expensive":
		pick = (*menu.Menu).MostExpensive
	case "most-caloric":
		pick = (*menu.Menu).MostCaloric
	case "fewest-calories":
		pick = (*menu.Menu).FewestCalories
	case "most-protein":
		pick = (*menu.Menu).MostProtein
	default:
		writeError(w, http.StatusNotFound, "unknown extreme")
		return
	}

	s.mu.Lock()
	p, err := pick(s.menu)
	id := s.idOf[p]
	s.mu.Unlock()
	if err != nil {
		writeMenuError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(id, p))
}

func (s *server) handleFattest(w http.ResponseWriter, r *http.Request) {
	q := 0.5
	if raw := r.URL.Query().Get("quantile"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "quantile must be numeric")
			return
		}
		q = v
	}

	s.mu.Lock()
	p, err := s.menu.MostFat(q)
	id := s.idOf[p]
	s.mu.Unlock()
	if err != nil {
		writeMenuError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(id, p))
}

func (s *server) handleSensitivities(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out sensitivitiesView
	var err error
	if out.Protein, err = s.menu.SensitivityProtein(); err != nil {
		writeMenuError(w, err)
		return
	}
	if out.Carbohydrates, err = s.menu.SensitivityCarbs(); err != nil {
		writeMenuError(w, err)
		return
	}
	if out.Fat, err = s.menu.SensitivityFat(); err != nil {
		writeMenuError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func writeMenuError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, menu.ErrEmptyMenu), errors.Is(err, menu.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, menu.ErrInvalidQuantile):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, menu.ErrDegenerateRegression):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "menu query failed")
	}
}

func (s *server) handleMenuAdd(w http.ResponseWriter, r *http.Request) {
	var req menuAddRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid pizza: "+err.Error())
		return
	}
	if req.Dough == "" || req.Sauce == "" {
		writeError(w, http.StatusBadRequest, "dough and sauce are required")
		return
	}

	for _, slot := range []struct {
		name string
		want ingredient.Category
	}{{req.Dough, ingredient.Dough}, {req.Sauce, ingredient.Sauce}} {
		if item, ok := s.catalog.Lookup(slot.name); ok && item.Category != slot.want {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s is a %s, not a %s", slot.name, item.Category, slot.want))
			return
		}
	}

	held := append([]string{req.Dough, req.Sauce}, req.Toppings...)
	p, err := store.Rebuild(s.catalog, held)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p = p.Named(strings.TrimSpace(req.Name))

	s.mu.Lock()
	defer s.mu.Unlock()
	saved, err := s.store.SavePizza(r.Context(), p)
	if err != nil {
		s.logger.Error("save pizza", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to save pizza")
		return
	}
	s.track(saved.ID, p)
	writeJSON(w, http.StatusCreated, s.view(saved.ID, p))
}

func (s *server) handleMenuDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.ids[id]
	if !ok {
		writeError(w, http.StatusNotFound, "pizza not found")
		return
	}
	if err := s.store.DeletePizza(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("delete pizza", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete pizza")
		return
	}
	if err := s.menu.Remove(p); err != nil {
		writeMenuError(w, err)
		return
	}
	delete(s.ids, id)
	delete(s.idOf, p)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
