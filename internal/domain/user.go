// Package domain contains core business types and interfaces.
//
// This file defines the User domain type and related types for authentication.
// These types are separate from the repository models to allow for business
// logic enrichment and to decouple the domain layer from the database layer.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user of the Stackpad platform.
type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string // Never expose this in API responses
	Name             string
	StripeCustomerID string
	EmailVerified    bool
	EmailVerifiedAt  *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Session represents an authenticated session.
//
// Sessions are stored in the database with a hashed token.
// The raw token is only given to the client once (at sign-in).
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ProviderAccount links a user to an external OAuth identity.
type ProviderAccount struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Provider       string // e.g. "github"
	ProviderUserID string
	CreatedAt      time.Time
}

// RegisterParams contains the validated parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string // Raw password, will be hashed by service
	Name     string
}

// LoginResult contains the result of a successful sign-in.
type LoginResult struct {
	User  *User
	Token string // Raw session token (not hashed) - only returned once
}

// EmailVerificationResult contains a freshly issued verification token.
type EmailVerificationResult struct {
	User      *User
	Token     string // Raw token to embed in the verification link
	ExpiresAt time.Time
}

// PasswordResetResult contains a freshly issued password reset token.
type PasswordResetResult struct {
	User      *User
	Token     string // Raw token to embed in the reset link
	ExpiresAt time.Time
}

// ResetPasswordParams contains parameters for completing a password reset.
type ResetPasswordParams struct {
	Token       string
	NewPassword string
}
