package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/models"
	"github.com/Skotchmaster/brewhaven/internal/mykafka"
	"github.com/Skotchmaster/brewhaven/internal/repo"
)

// SeedCatalog is the BrewHaven menu written on first start. Ids are stable so
// concurrent seeders collide on the same keys instead of duplicating items.
func SeedCatalog() []models.CatalogItem {
	item := func(id, name, category, price string, stock int, image, description string) models.CatalogItem {
		return models.CatalogItem{
			ID:          id,
			Name:        name,
			Category:    category,
			Description: description,
			Price:       decimal.RequireFromString(price),
			Stock:       stock,
			Image:       image,
		}
	}
	return []models.CatalogItem{
		item("1", "Espresso Shot", "Coffee", "2.75", 80, "☕", "Rich, concentrated single shot of espresso brewed with freshly ground beans."),
		item("2", "Cappuccino", "Coffee", "4.25", 60, "🫖", "Double espresso with silky steamed milk and a cloud of microfoam."),
		item("3", "Café Latte", "Coffee", "4.45", 60, "🥛", "Smooth espresso balanced with plenty of steamed milk and a light foam cap."),
		item("4", "Mocha Latte", "Specialty Drinks", "4.95", 50, "🍫", "Espresso, steamed milk, and rich chocolate syrup topped with whipped cream."),
		item("5", "Iced Caramel Latte", "Specialty Drinks", "4.95", 55, "🧋", "Chilled espresso over ice with milk and caramel drizzle."),
		item("6", "Americano", "Coffee", "3.25", 70, "☕", "Espresso topped with hot water for a smooth, long coffee."),
		item("7", "Butter Croissant", "Pastry", "3.50", 40, "🥐", "Flaky, buttery croissant baked fresh every morning."),
		item("8", "Chocolate Croissant", "Pastry", "3.95", 35, "🥐", "Classic croissant filled with dark chocolate."),
		item("9", "Blueberry Muffin", "Pastry", "3.25", 45, "🫐", "Soft muffin with juicy blueberries and a crumb topping."),
		item("10", "Vanilla Bean Ice Cream", "Dessert", "3.75", 30, "🍨", "Creamy vanilla ice cream served in a cup."),
		item("11", "Chocolate Fudge Ice Cream", "Dessert", "3.95", 30, "🍨", "Chocolate ice cream with fudge swirls."),
		item("12", "Matcha Latte", "Specialty Drinks", "4.95", 40, "🍵", "Ceremonial-grade matcha whisked with steamed milk."),
		item("13", "Hot Chocolate", "Specialty Drinks", "3.95", 50, "🍫", "Steamed milk with cocoa and whipped cream on top."),
	}
}

type SeedReport struct {
	AlreadySeeded bool
	Created       int
	Skipped       int
}

type Seeder struct {
	catalog *repo.CatalogRepo
	items   []models.CatalogItem
	after   func(ctx context.Context)
	events  events
}

// NewSeeder seeds items into catalog. after, when set, runs once a pass has
// written anything; it is used to refresh derived views of the catalog.
func NewSeeder(catalog *repo.CatalogRepo, items []models.CatalogItem, after func(ctx context.Context), pub Publisher, topic string) *Seeder {
	return &Seeder{
		catalog: catalog,
		items:   items,
		after:   after,
		events:  events{pub: pub, topic: topic},
	}
}

// EnsureSeeded writes the seed set when the catalog is empty. It is safe to
// run from several instances at once: every item is created only if absent.
func (s *Seeder) EnsureSeeded(ctx context.Context) (SeedReport, error) {
	l := logging.FromContext(ctx).With("component", "seeder")

	empty, err := s.catalog.Empty(ctx)
	if err != nil {
		return SeedReport{}, fmt.Errorf("%w: %v", ErrSeedingFailed, err)
	}
	if !empty {
		l.Info("catalog_already_seeded")
		return SeedReport{AlreadySeeded: true}, nil
	}

	var rep SeedReport
	for _, it := range s.items {
		err := s.catalog.Create(ctx, it)
		switch {
		case err == nil:
			rep.Created++
		case errors.Is(err, docstore.ErrAlreadyExists):
			rep.Skipped++
		default:
			return rep, fmt.Errorf("%w: item %s: %v", ErrSeedingFailed, it.ID, err)
		}
	}
	l.Info("catalog_seeded", "created", rep.Created, "skipped", rep.Skipped)

	if rep.Created > 0 {
		if s.after != nil {
			s.after(ctx)
		}
		s.events.emit(ctx, "catalog", mykafka.Event{
			Type:  mykafka.EventCatalogSeeded,
			Count: rep.Created,
			At:    time.Now().UTC(),
		})
	}
	return rep, nil
}
