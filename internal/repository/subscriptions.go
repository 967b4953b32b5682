package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ProviderAccount links a user to an OAuth identity.
type ProviderAccount struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// LinkProviderAccountParams holds the parameters for LinkProviderAccount.
type LinkProviderAccountParams struct {
	UserID         uuid.UUID
	Provider       string
	ProviderUserID string
}

func (q *Queries) LinkProviderAccount(ctx context.Context, arg LinkProviderAccountParams) (ProviderAccount, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO provider_accounts (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, provider, provider_user_id, created_at`,
		arg.UserID, arg.Provider, arg.ProviderUserID)

	var p ProviderAccount
	err := row.Scan(&p.ID, &p.UserID, &p.Provider, &p.ProviderUserID, &p.CreatedAt)
	return p, err
}

// GetProviderAccountParams holds the parameters for GetProviderAccount.
type GetProviderAccountParams struct {
	Provider       string
	ProviderUserID string
}

func (q *Queries) GetProviderAccount(ctx context.Context, arg GetProviderAccountParams) (ProviderAccount, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, provider, provider_user_id, created_at
		FROM provider_accounts
		WHERE provider = $1 AND provider_user_id = $2`,
		arg.Provider, arg.ProviderUserID)

	var p ProviderAccount
	err := row.Scan(&p.ID, &p.UserID, &p.Provider, &p.ProviderUserID, &p.CreatedAt)
	return p, err
}

// Subscription is the database representation of the subscription read model.
type Subscription struct {
	UserID               uuid.UUID
	StripeSubscriptionID string
	Status               string
	Plan                 string
	TrialEnd             sql.NullTime
	PeriodStart          sql.NullTime
	PeriodEnd            sql.NullTime
	CancelAtPeriodEnd    bool
	UpdatedAt            time.Time
}

const subscriptionColumns = `user_id, stripe_subscription_id, status, plan,
	trial_end, period_start, period_end, cancel_at_period_end, updated_at`

func scanSubscription(row *sql.Row) (Subscription, error) {
	var s Subscription
	err := row.Scan(&s.UserID, &s.StripeSubscriptionID, &s.Status, &s.Plan,
		&s.TrialEnd, &s.PeriodStart, &s.PeriodEnd, &s.CancelAtPeriodEnd,
		&s.UpdatedAt)
	return s, err
}

func (q *Queries) GetSubscription(ctx context.Context, userID uuid.UUID) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`,
		userID)
	return scanSubscription(row)
}

// UpsertSubscriptionParams holds the parameters for UpsertSubscription.
type UpsertSubscriptionParams struct {
	UserID               uuid.UUID
	StripeSubscriptionID string
	Status               string
	Plan                 string
	TrialEnd             sql.NullTime
	PeriodStart          sql.NullTime
	PeriodEnd            sql.NullTime
	CancelAtPeriodEnd    bool
}

func (q *Queries) UpsertSubscription(ctx context.Context, arg UpsertSubscriptionParams) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO subscriptions (user_id, stripe_subscription_id, status, plan,
			trial_end, period_start, period_end, cancel_at_period_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (user_id) DO UPDATE SET
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			status = EXCLUDED.status,
			plan = EXCLUDED.plan,
			trial_end = EXCLUDED.trial_end,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at = now()
		RETURNING `+subscriptionColumns,
		arg.UserID, arg.StripeSubscriptionID, arg.Status, arg.Plan,
		arg.TrialEnd, arg.PeriodStart, arg.PeriodEnd, arg.CancelAtPeriodEnd)
	return scanSubscription(row)
}
