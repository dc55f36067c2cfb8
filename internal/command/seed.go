package command

import (
	"fmt"

	"github.com/example/ec-storefront/internal/domain/catalog"
)

type seedProduct struct {
	name, description, price, image string
}

var seedCatalog = []struct {
	category CreateCategory
	products []seedProduct
}{
	{
		category: CreateCategory{Name: "Electronics", Description: "Gadgets and devices"},
		products: []seedProduct{
			{"Laptop", "14-inch ultrabook", "999.99", "/media/products/laptop.jpg"},
			{"Headphones", "Noise-cancelling over-ear", "149.50", "/media/products/headphones.jpg"},
		},
	},
	{
		category: CreateCategory{Name: "Books", Description: "Printed and bound"},
		products: []seedProduct{
			{"Go in Practice", "Techniques for real systems", "39.90", "/media/products/go-book.jpg"},
			{"Notebook", "A5 dotted, 120 pages", "7.25", ""},
		},
	},
	{
		category: CreateCategory{Name: "Home", Description: "Around the house"},
		products: []seedProduct{
			{"Desk Lamp", "Warm LED lamp", "34.00", "/media/products/lamp.jpg"},
		},
	},
}

// SeedCatalog loads the demo categories and products. imageBase is
// prepended to relative image paths.
func (h *Handler) SeedCatalog(imageBase string) error {
	for _, entry := range seedCatalog {
		category, err := h.CreateCategory(entry.category)
		if err != nil {
			return fmt.Errorf("failed to seed category %s: %w", entry.category.Name, err)
		}
		for _, p := range entry.products {
			image := p.image
			if image != "" {
				image = imageBase + image
			}
			if _, err := h.CreateProduct(CreateProduct{
				Name:        p.name,
				Description: p.description,
				Price:       catalog.RequirePrice(p.price),
				CategoryID:  category.ID,
				Image:       image,
			}); err != nil {
				return fmt.Errorf("failed to seed product %s: %w", p.name, err)
			}
		}
	}
	return nil
}
