package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinesignal/internal/domain"
)

// UsersRepository is a thin user table accessor.
type UsersRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a user. An empty name falls back to the login.
func (r *UsersRepository) Create(ctx context.Context, params UserCreateParams) (domain.User, error) {
	user := domain.User{Email: params.Email, Login: params.Login, Name: params.Name}
	if user.Name == "" {
		user.Name = user.Login
	}
	err := r.pool.QueryRow(ctx, `
        INSERT INTO users (email, login, name)
        VALUES ($1,$2,$3)
        RETURNING user_id
    `, user.Email, user.Login, user.Name).Scan(&user.ID)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Exists reports whether a user row is present.
func (r *UsersRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, id).Scan(&exists)
	return exists, err
}
