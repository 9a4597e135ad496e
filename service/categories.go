package service

import (
	"context"
	"fmt"

	"github.com/kevinaaaquil/library/models"
)

type CategoryStore interface {
	AllCategories(ctx context.Context) ([]models.Category, error)
}

type Categories struct {
	store CategoryStore
}

func NewCategories(store CategoryStore) *Categories {
	return &Categories{store: store}
}

// List returns every category sorted by name.
func (c *Categories) List(ctx context.Context) ([]models.Category, error) {
	items, err := c.store.AllCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if items == nil {
		items = []models.Category{}
	}
	return items, nil
}
