package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/library/service"
	"go.uber.org/zap"
)

type CategoriesHandler struct {
	Categories *service.Categories
	Validate   *Validator
	Logger     *zap.Logger
}

type categoriesResponse struct {
	Items []categoryResponse `json:"items"`
}

// List serves GET /categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := newQueryReader(r).Err(h.Validate, &struct{}{}); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	items, err := h.Categories.List(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Items: toCategories(items)})
}
