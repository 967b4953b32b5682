package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newTestQueries(t *testing.T) (*Queries, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestGetUserByEmail(t *testing.T) {
	q, mock := newTestQueries(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "name", "stripe_customer_id",
			"email_verified", "email_verified_at", "created_at", "updated_at",
		}).AddRow(userID.String(), "alice@example.com", "hash", "Alice", "cus_123",
			true, now, now, now))

	user, err := q.GetUserByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user.ID != userID || user.StripeCustomerID != "cus_123" {
		t.Errorf("user = %+v", user)
	}
	if !user.EmailVerifiedAt.Valid {
		t.Error("EmailVerifiedAt should scan as valid")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDeleteSession_ZeroRowsIsErrNoRows(t *testing.T) {
	q, mock := newTestQueries(t)

	mock.ExpectExec("DELETE FROM sessions WHERE token_hash").
		WithArgs("missing-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := q.DeleteSession(context.Background(), "missing-hash")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDeleteSession_Found(t *testing.T) {
	q, mock := newTestQueries(t)

	mock.ExpectExec("DELETE FROM sessions WHERE token_hash").
		WithArgs("known-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := q.DeleteSession(context.Background(), "known-hash"); err != nil {
		t.Errorf("DeleteSession: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertSubscription(t *testing.T) {
	q, mock := newTestQueries(t)
	userID := uuid.New()
	periodEnd := time.Now().Add(30 * 24 * time.Hour)

	mock.ExpectQuery("INSERT INTO subscriptions (.+) ON CONFLICT \\(user_id\\) DO UPDATE").
		WithArgs(userID.String(), "sub_123", "active", "pro",
			nil, sqlmock.AnyArg(), sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "stripe_subscription_id", "status", "plan",
			"trial_end", "period_start", "period_end", "cancel_at_period_end", "updated_at",
		}).AddRow(userID.String(), "sub_123", "active", "pro",
			nil, time.Now(), periodEnd, false, time.Now()))

	sub, err := q.UpsertSubscription(context.Background(), UpsertSubscriptionParams{
		UserID:               userID,
		StripeSubscriptionID: "sub_123",
		Status:               "active",
		Plan:                 "pro",
		PeriodStart:          sql.NullTime{Time: time.Now(), Valid: true},
		PeriodEnd:            sql.NullTime{Time: periodEnd, Valid: true},
	})
	if err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}
	if sub.Plan != "pro" || sub.Status != "active" {
		t.Errorf("sub = %+v", sub)
	}
	if sub.TrialEnd.Valid {
		t.Error("TrialEnd should scan as null")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetSessionByTokenHash_NotFound(t *testing.T) {
	q, mock := newTestQueries(t)

	mock.ExpectQuery("SELECT (.+) FROM sessions WHERE token_hash").
		WithArgs("unknown-hash").
		WillReturnError(sql.ErrNoRows)

	_, err := q.GetSessionByTokenHash(context.Background(), "unknown-hash")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
