package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// ListProducts returns the catalog with recipes resolved against current
// ingredient availability, so menus can grey out what the kitchen cannot
// make right now.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		mapError(w, r, err)
		return
	}

	ingredients, err := h.ingredients.List(r.Context())
	if err != nil {
		mapError(w, r, err)
		return
	}
	paused := make(map[string]bool, len(ingredients))
	for _, ing := range ingredients {
		if !ing.IsActive || !ing.CurrentStock.IsPositive() {
			paused[ing.ID] = true
		}
	}

	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range products {
			available := p.Active
			for _, line := range p.Recipe {
				if paused[line.IngredientID] {
					available = false
					break
				}
			}

			e.ObjStart()
			e.FieldStart("id")
			e.Str(p.ID)
			e.FieldStart("name")
			e.Str(p.Name)
			e.FieldStart("category")
			e.Str(p.Category)
			e.FieldStart("price")
			encodeDecimal(e, p.EffectivePrice())
			e.FieldStart("base_price")
			encodeDecimal(e, p.BasePrice)
			e.FieldStart("available")
			e.Bool(available)
			if len(p.Options) > 0 {
				e.FieldStart("options")
				e.ArrStart()
				for _, opt := range p.Options {
					e.ObjStart()
					e.FieldStart("id")
					e.Str(opt.ID)
					e.FieldStart("name")
					e.Str(opt.Name)
					e.FieldStart("price")
					encodeDecimal(e, opt.Price)
					e.ObjEnd()
				}
				e.ArrEnd()
			}
			e.ObjEnd()
		}
		e.ArrEnd()
	})
}
