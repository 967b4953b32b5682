package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User is the database representation of a user row.
type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string
	Name             string
	StripeCustomerID string
	EmailVerified    bool
	EmailVerifiedAt  sql.NullTime
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const userColumns = `id, email, password_hash, name, stripe_customer_id,
	email_verified, email_verified_at, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name,
		&u.StripeCustomerID, &u.EmailVerified, &u.EmailVerifiedAt,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserParams holds the parameters for CreateUser.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		arg.Email, arg.PasswordHash, arg.Name)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (q *Queries) GetUserByStripeCustomerID(ctx context.Context, stripeCustomerID string) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE stripe_customer_id = $1 AND stripe_customer_id <> ''`,
		stripeCustomerID)
	return scanUser(row)
}

func (q *Queries) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users
		SET email_verified = TRUE, email_verified_at = now(), updated_at = now()
		WHERE id = $1`, id)
	return err
}

// UpdatePasswordParams holds the parameters for UpdatePassword.
type UpdatePasswordParams struct {
	ID           uuid.UUID
	PasswordHash string
}

func (q *Queries) UpdatePassword(ctx context.Context, arg UpdatePasswordParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1`, arg.ID, arg.PasswordHash)
	return err
}

// UpdateStripeCustomerParams holds the parameters for UpdateStripeCustomer.
type UpdateStripeCustomerParams struct {
	ID               uuid.UUID
	StripeCustomerID string
}

func (q *Queries) UpdateStripeCustomer(ctx context.Context, arg UpdateStripeCustomerParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users SET stripe_customer_id = $2, updated_at = now()
		WHERE id = $1`, arg.ID, arg.StripeCustomerID)
	return err
}
