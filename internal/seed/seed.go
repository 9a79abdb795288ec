package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/orderstack/go-commerce-orders/internal/catalog"
	"github.com/orderstack/go-commerce-orders/internal/identity"
)

// Run seeds a default admin user and a small product set on first startup.
// Existing data is left untouched.
func Run(ctx context.Context, users *identity.Directory, products *catalog.Repo, log *zap.Logger) error {
	if err := seedAdmin(ctx, users, log); err != nil {
		return err
	}
	return seedProducts(ctx, products, log)
}

func seedAdmin(ctx context.Context, users *identity.Directory, log *zap.Logger) error {
	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Debug("users already seeded")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := users.Create(ctx, uuid.NewString(), "admin", string(hash), "ADMIN"); err != nil {
		return err
	}
	log.Info("seeded default admin user")
	return nil
}

func seedProducts(ctx context.Context, products *catalog.Repo, log *zap.Logger) error {
	n, err := products.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Debug("products already seeded")
		return nil
	}

	defaults := []catalog.Product{
		{ID: uuid.NewString(), Name: "Laptop Pro 14", PriceCents: 189900, Quantity: 15},
		{ID: uuid.NewString(), Name: "Noise-Canceling Headphones", PriceCents: 29900, Quantity: 40},
		{ID: uuid.NewString(), Name: `4K Monitor 27"`, PriceCents: 44900, Quantity: 25},
		{ID: uuid.NewString(), Name: "Mechanical Keyboard", PriceCents: 12900, Quantity: 35},
	}
	for _, p := range defaults {
		if err := products.Create(ctx, p); err != nil {
			return err
		}
	}
	log.Info("seeded sample products", zap.Int("count", len(defaults)))
	return nil
}
