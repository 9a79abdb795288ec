package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUnknownUser = errors.New("unknown user")

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Directory resolves already-authenticated caller identities. Credential
// verification happens upstream; this only maps usernames to user records.
type Directory struct{ DB *pgxpool.Pool }

func (d *Directory) Resolve(ctx context.Context, username string) (User, error) {
	var u User
	err := d.DB.QueryRow(ctx, `
		SELECT id, username, role, created_at FROM users WHERE username = $1`,
		username).Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: %s", ErrUnknownUser, username)
	}
	if err != nil {
		return User{}, fmt.Errorf("resolve user %s: %w", username, err)
	}
	return u, nil
}

func (d *Directory) Exists(ctx context.Context, userID string) (bool, error) {
	var ok bool
	err := d.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("user exists %s: %w", userID, err)
	}
	return ok, nil
}

func (d *Directory) Create(ctx context.Context, id, username, passwordHash, role string) error {
	_, err := d.DB.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)`,
		id, username, passwordHash, role)
	if err != nil {
		return fmt.Errorf("create user %s: %w", username, err)
	}
	return nil
}

func (d *Directory) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
