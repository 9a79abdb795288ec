package orders_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderstack/go-commerce-orders/internal/orders"
	"github.com/orderstack/go-commerce-orders/internal/testutil"
)

func insertUser(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, 'x', 'CUSTOMER')`,
		id, "test-user-"+id[:8])
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func insertTestProduct(t *testing.T, pool *pgxpool.Pool, priceCents int64) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO products (id, name, price_cents, quantity)
		VALUES ($1, $2, $3, 100)`,
		id, "test-product-"+id[:8], priceCents)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM products WHERE id = $1`, id)
	})
	return id
}

func cleanupOrder(t *testing.T, pool *pgxpool.Pool, orderID string) {
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = pool.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
		_, _ = pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	})
}

func TestRepo_CreateOrderAndListByUser(t *testing.T) {
	pool := testutil.Pool(t)
	repo := &orders.Repo{DB: pool}
	ctx := context.Background()

	userID := insertUser(t, pool)
	prodA := insertTestProduct(t, pool, 1000)
	prodB := insertTestProduct(t, pool, 500)

	var placed []string
	for i := 0; i < 2; i++ {
		o := orders.Order{
			ID:         uuid.NewString(),
			UserID:     userID,
			Status:     orders.StatusConfirmed,
			TotalCents: 2500,
			CreatedAt:  time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
			Items: []orders.Line{
				{ProductID: prodA, Quantity: 2, PriceCents: 1000},
				{ProductID: prodB, Quantity: 1, PriceCents: 500},
			},
		}
		cleanupOrder(t, pool, o.ID)
		if err := repo.CreateOrder(ctx, o); err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
		placed = append(placed, o.ID)
	}

	got, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(got))
	}
	for i, id := range placed {
		if got[i].ID != id {
			t.Errorf("expected order %d to be %s, got %s", i, id, got[i].ID)
		}
	}

	first := got[0]
	if first.Status != orders.StatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", first.Status)
	}
	if first.TotalCents != 2500 {
		t.Errorf("expected total 2500, got %d", first.TotalCents)
	}
	if len(first.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(first.Items))
	}
	if first.Items[0].ProductID != prodA || first.Items[1].ProductID != prodB {
		t.Errorf("expected items in insertion order, got %+v", first.Items)
	}
	if first.Items[0].PriceCents != 1000 || first.Items[1].PriceCents != 500 {
		t.Errorf("expected snapshot prices, got %+v", first.Items)
	}
}

func TestRepo_ListByUser_Empty(t *testing.T) {
	pool := testutil.Pool(t)
	repo := &orders.Repo{DB: pool}

	userID := insertUser(t, pool)
	got, err := repo.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no orders, got %d", len(got))
	}
}

func TestRepo_CreateOrder_RejectsUnknownProduct(t *testing.T) {
	pool := testutil.Pool(t)
	repo := &orders.Repo{DB: pool}

	userID := insertUser(t, pool)
	o := orders.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Status:     orders.StatusConfirmed,
		TotalCents: 100,
		CreatedAt:  time.Now().UTC(),
		Items:      []orders.Line{{ProductID: uuid.NewString(), Quantity: 1, PriceCents: 100}},
	}
	cleanupOrder(t, pool, o.ID)

	if err := repo.CreateOrder(context.Background(), o); err == nil {
		t.Fatal("expected foreign key violation")
	}

	// The transaction rolled back: no order row either.
	var n int
	_ = pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM orders WHERE id = $1`, o.ID).Scan(&n)
	if n != 0 {
		t.Errorf("expected no order row, got %d", n)
	}
}

func TestRepo_GetStatus(t *testing.T) {
	pool := testutil.Pool(t)
	repo := &orders.Repo{DB: pool}
	ctx := context.Background()

	userID := insertUser(t, pool)
	prod := insertTestProduct(t, pool, 700)
	o := orders.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Status:     orders.StatusConfirmed,
		TotalCents: 700,
		CreatedAt:  time.Now().UTC(),
		Items:      []orders.Line{{ProductID: prod, Quantity: 1, PriceCents: 700}},
	}
	cleanupOrder(t, pool, o.ID)
	if err := repo.CreateOrder(ctx, o); err != nil {
		t.Fatalf("create order: %v", err)
	}

	status, err := repo.GetStatus(ctx, o.ID)
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if status != orders.StatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", status)
	}

	_, err = repo.GetStatus(ctx, uuid.NewString())
	if !errors.Is(err, orders.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
