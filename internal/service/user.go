// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, external APIs,
// and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/mwestcott/stackpad/internal/domain"
	"github.com/mwestcott/stackpad/internal/repository"
)

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Cost 12 provides good security while being fast enough for sign-in flows.
	BcryptCost = 12

	// SessionTokenBytes is the number of random bytes for session tokens.
	// 32 bytes = 256 bits of entropy; hex-encoded to 64 characters.
	SessionTokenBytes = 32

	// SessionDuration is how long a session remains valid.
	SessionDuration = 7 * 24 * time.Hour

	// EmailVerificationTokenDuration is the verification link lifetime.
	EmailVerificationTokenDuration = 24 * time.Hour

	// PasswordResetTokenDuration is the reset link lifetime.
	PasswordResetTokenDuration = time.Hour

	// MinPasswordLength is the minimum password length.
	MinPasswordLength = 8

	// MaxPasswordLength caps input before bcrypt's own 72-byte limit.
	MaxPasswordLength = 72
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// UserService defines the interface for user, session, and subscription
// read-model operations consumed by the auth engine and the route guards.
type UserService interface {
	// Register creates a new user account.
	// Returns domain.ECONFLICT if email already exists.
	// Returns domain.EINVALID for validation errors.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error)

	// Login authenticates a user and creates a new session.
	// Returns domain.EUNAUTHORIZED for invalid credentials.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)

	// LoginWithProvider signs a user in via an external OAuth identity,
	// creating and linking the account on first sight.
	LoginWithProvider(ctx context.Context, provider, providerUserID, email, name string) (*domain.LoginResult, error)

	// CreateSession issues a new session for an already-authenticated user.
	// Returns the raw session token.
	CreateSession(ctx context.Context, userID uuid.UUID) (string, error)

	// Logout invalidates a session by its raw token.
	// This is idempotent - calling with an invalid token is not an error.
	Logout(ctx context.Context, token string) error

	// GetByID retrieves a user by their ID.
	// Returns domain.ENOTFOUND if user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// ResolveSession validates a raw session token and returns the session
	// and its user. Returns domain.EUNAUTHORIZED if invalid or expired.
	ResolveSession(ctx context.Context, token string) (*domain.Session, *domain.User, error)

	// CreateEmailVerificationToken issues a fresh verification token for a
	// user, replacing any outstanding ones.
	CreateEmailVerificationToken(ctx context.Context, userID uuid.UUID) (*domain.EmailVerificationResult, error)

	// VerifyEmail validates a verification token and marks the user verified.
	// Returns domain.ENOTFOUND if token is invalid or expired.
	VerifyEmail(ctx context.Context, token string) error

	// CreatePasswordResetToken issues a reset token for the account with the
	// given email. Returns domain.ENOTFOUND when no account exists; callers
	// must not expose that to end users.
	CreatePasswordResetToken(ctx context.Context, email string) (*domain.PasswordResetResult, error)

	// ResetPassword validates the token, updates the password, and
	// invalidates all sessions.
	ResetPassword(ctx context.Context, params domain.ResetPasswordParams) error

	// UpdateStripeCustomer saves the Stripe customer ID for a user.
	UpdateStripeCustomer(ctx context.Context, userID uuid.UUID, stripeCustomerID string) error

	// GetByStripeCustomerID retrieves a user by their Stripe customer ID.
	// Returns domain.ENOTFOUND if no user has that customer ID.
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*domain.User, error)

	// UpdateSubscription replaces a user's subscription read model.
	UpdateSubscription(ctx context.Context, sub domain.Subscription) error

	// GetSubscription returns a user's subscription read model. A user with
	// no synced subscription gets the inactive zero state, not an error.
	GetSubscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)

	// DeleteExpiredSessions removes all expired sessions.
	DeleteExpiredSessions(ctx context.Context) error

	// DeleteExpiredTokens removes expired verification and reset tokens.
	DeleteExpiredTokens(ctx context.Context) error
}

// userService is the concrete implementation of UserService.
type userService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(queries *repository.Queries, logger *slog.Logger) UserService {
	return &userService{
		queries: queries,
		logger:  logger,
	}
}

// =============================================================================
// Registration
// =============================================================================

func (s *userService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	const op = "UserService.Register"

	email := strings.ToLower(strings.TrimSpace(params.Email))
	if err := validateEmail(email); err != nil {
		return nil, domain.Invalid(op, err.Error())
	}
	if err := ValidatePassword(params.Password); err != nil {
		return nil, domain.Invalid(op, err.Error())
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	repoUser, err := s.queries.CreateUser(ctx, repository.CreateUserParams{
		Email:        email,
		PasswordHash: string(passwordHash),
		Name:         strings.TrimSpace(params.Name),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict(op, "An account with this email already exists")
		}
		return nil, domain.Internal(err, op, "Failed to create user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// =============================================================================
// Sign-in / sessions
// =============================================================================

func (s *userService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "UserService.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	repoUser, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn a bcrypt comparison so the miss is not observable via timing.
			dummyHash := "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, domain.Unauthorized(op, "Invalid email or password")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(repoUser.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	token, err := s.createSession(ctx, repoUser.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create session")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	s.logger.Info("user signed in", "user_id", user.ID, "email", user.Email)
	return &domain.LoginResult{User: user, Token: token}, nil
}

func (s *userService) LoginWithProvider(ctx context.Context, provider, providerUserID, email, name string) (*domain.LoginResult, error) {
	const op = "UserService.LoginWithProvider"

	var repoUser repository.User

	account, err := s.queries.GetProviderAccount(ctx, repository.GetProviderAccountParams{
		Provider:       provider,
		ProviderUserID: providerUserID,
	})
	switch {
	case err == nil:
		repoUser, err = s.queries.GetUserByID(ctx, account.UserID)
		if err != nil {
			return nil, domain.Internal(err, op, "Linked user not found")
		}

	case errors.Is(err, sql.ErrNoRows):
		repoUser, err = s.findOrCreateProviderUser(ctx, provider, providerUserID, email, name)
		if err != nil {
			return nil, err
		}
		if _, err := s.queries.LinkProviderAccount(ctx, repository.LinkProviderAccountParams{
			UserID:         repoUser.ID,
			Provider:       provider,
			ProviderUserID: providerUserID,
		}); err != nil && !isUniqueViolation(err) {
			return nil, domain.Internal(err, op, "Failed to link provider account")
		}

	default:
		return nil, domain.Internal(err, op, "Failed to look up provider account")
	}

	token, err := s.createSession(ctx, repoUser.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create session")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	s.logger.Info("user signed in via provider", "user_id", user.ID, "provider", provider)
	return &domain.LoginResult{User: user, Token: token}, nil
}

// findOrCreateProviderUser matches by email when the provider supplies one,
// otherwise creates a fresh account with an unusable random password.
func (s *userService) findOrCreateProviderUser(ctx context.Context, provider, providerUserID, email, name string) (repository.User, error) {
	const op = "UserService.LoginWithProvider"

	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if existing, err := s.queries.GetUserByEmail(ctx, email); err == nil {
			return existing, nil
		} else if !errors.Is(err, sql.ErrNoRows) {
			return repository.User{}, domain.Internal(err, op, "Failed to look up user by email")
		}
	} else {
		// Provider withheld the email; synthesize a unique placeholder.
		email = provider + "_" + providerUserID + "@" + provider + ".oauth.invalid"
	}

	placeholder, err := generateToken()
	if err != nil {
		return repository.User{}, domain.Internal(err, op, "Failed to generate placeholder password")
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(placeholder), BcryptCost)
	if err != nil {
		return repository.User{}, domain.Internal(err, op, "Failed to hash placeholder password")
	}

	created, err := s.queries.CreateUser(ctx, repository.CreateUserParams{
		Email:        email,
		PasswordHash: string(passwordHash),
		Name:         strings.TrimSpace(name),
	})
	if err != nil {
		return repository.User{}, domain.Internal(err, op, "Failed to create user")
	}
	return created, nil
}

func (s *userService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	const op = "UserService.CreateSession"

	token, err := s.createSession(ctx, userID)
	if err != nil {
		return "", domain.Internal(err, op, "Failed to create session")
	}
	return token, nil
}

func (s *userService) createSession(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	_, err = s.queries.CreateSession(ctx, repository.CreateSessionParams{
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(SessionDuration),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *userService) Logout(ctx context.Context, token string) error {
	if token == "" || len(token) != SessionTokenBytes*2 {
		return nil // Idempotent - a malformed token is simply a no-op
	}

	err := s.queries.DeleteSession(ctx, hashToken(token))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("failed to delete session", "error", err)
	}
	return nil
}

func (s *userService) ResolveSession(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	const op = "UserService.ResolveSession"

	if token == "" || len(token) != SessionTokenBytes*2 {
		return nil, nil, domain.Unauthorized(op, "Invalid session")
	}

	repoSession, err := s.queries.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.Unauthorized(op, "Invalid session")
		}
		return nil, nil, domain.Internal(err, op, "Failed to retrieve session")
	}

	session := &domain.Session{
		ID:        repoSession.ID,
		UserID:    repoSession.UserID,
		TokenHash: repoSession.TokenHash,
		ExpiresAt: repoSession.ExpiresAt,
		CreatedAt: repoSession.CreatedAt,
	}
	if session.IsExpired() {
		_ = s.queries.DeleteSession(ctx, repoSession.TokenHash)
		return nil, nil, domain.Unauthorized(op, "Session expired")
	}

	repoUser, err := s.queries.GetUserByID(ctx, repoSession.UserID)
	if err != nil {
		return nil, nil, domain.Internal(err, op, "Failed to retrieve session user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return session, user, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "UserService.GetByID"

	repoUser, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// =============================================================================
// Email verification
// =============================================================================

func (s *userService) CreateEmailVerificationToken(ctx context.Context, userID uuid.UUID) (*domain.EmailVerificationResult, error) {
	const op = "UserService.CreateEmailVerificationToken"

	repoUser, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", userID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}
	if repoUser.EmailVerified {
		return nil, domain.Conflict(op, "Email is already verified")
	}

	// One outstanding token per user
	if err := s.queries.DeleteEmailVerificationTokensForUser(ctx, userID); err != nil {
		return nil, domain.Internal(err, op, "Failed to replace verification tokens")
	}

	token, err := generateToken()
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to generate verification token")
	}

	expiresAt := time.Now().Add(EmailVerificationTokenDuration)
	_, err = s.queries.CreateEmailVerificationToken(ctx, repository.CreateEmailVerificationTokenParams{
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to store verification token")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return &domain.EmailVerificationResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	const op = "UserService.VerifyEmail"

	repoToken, err := s.queries.GetEmailVerificationToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "verification token", "")
		}
		return domain.Internal(err, op, "Failed to retrieve verification token")
	}
	if time.Now().After(repoToken.ExpiresAt) {
		return domain.NotFound(op, "verification token", "")
	}

	if err := s.queries.MarkEmailVerified(ctx, repoToken.UserID); err != nil {
		return domain.Internal(err, op, "Failed to mark email verified")
	}
	if err := s.queries.DeleteEmailVerificationTokensForUser(ctx, repoToken.UserID); err != nil {
		s.logger.Warn("failed to clean up verification tokens", "error", err, "user_id", repoToken.UserID)
	}

	s.logger.Info("email verified", "user_id", repoToken.UserID)
	return nil
}

// =============================================================================
// Password reset
// =============================================================================

func (s *userService) CreatePasswordResetToken(ctx context.Context, email string) (*domain.PasswordResetResult, error) {
	const op = "UserService.CreatePasswordResetToken"

	email = strings.ToLower(strings.TrimSpace(email))
	repoUser, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", email)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	if err := s.queries.DeletePasswordResetTokensForUser(ctx, repoUser.ID); err != nil {
		return nil, domain.Internal(err, op, "Failed to replace reset tokens")
	}

	token, err := generateToken()
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to generate reset token")
	}

	expiresAt := time.Now().Add(PasswordResetTokenDuration)
	_, err = s.queries.CreatePasswordResetToken(ctx, repository.CreatePasswordResetTokenParams{
		UserID:    repoUser.ID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to store reset token")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return &domain.PasswordResetResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *userService) ResetPassword(ctx context.Context, params domain.ResetPasswordParams) error {
	const op = "UserService.ResetPassword"

	if err := ValidatePassword(params.NewPassword); err != nil {
		return domain.Invalid(op, err.Error())
	}

	repoToken, err := s.queries.GetPasswordResetToken(ctx, hashToken(params.Token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "reset token", "")
		}
		return domain.Internal(err, op, "Failed to retrieve reset token")
	}
	if repoToken.UsedAt.Valid || time.Now().After(repoToken.ExpiresAt) {
		return domain.NotFound(op, "reset token", "")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.NewPassword), BcryptCost)
	if err != nil {
		return domain.Internal(err, op, "Failed to hash password")
	}

	if err := s.queries.UpdatePassword(ctx, repository.UpdatePasswordParams{
		ID:           repoToken.UserID,
		PasswordHash: string(passwordHash),
	}); err != nil {
		return domain.Internal(err, op, "Failed to update password")
	}

	if err := s.queries.MarkPasswordResetTokenUsed(ctx, repoToken.ID); err != nil {
		s.logger.Warn("failed to mark reset token used", "error", err)
	}

	// A password change invalidates every open session.
	if err := s.queries.DeleteUserSessions(ctx, repoToken.UserID); err != nil {
		s.logger.Warn("failed to invalidate sessions after reset", "error", err, "user_id", repoToken.UserID)
	}

	s.logger.Info("password reset", "user_id", repoToken.UserID)
	return nil
}

// =============================================================================
// Billing
// =============================================================================

func (s *userService) UpdateStripeCustomer(ctx context.Context, userID uuid.UUID, stripeCustomerID string) error {
	const op = "UserService.UpdateStripeCustomer"

	if err := s.queries.UpdateStripeCustomer(ctx, repository.UpdateStripeCustomerParams{
		ID:               userID,
		StripeCustomerID: stripeCustomerID,
	}); err != nil {
		return domain.Internal(err, op, "Failed to save Stripe customer ID")
	}
	return nil
}

func (s *userService) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*domain.User, error) {
	const op = "UserService.GetByStripeCustomerID"

	repoUser, err := s.queries.GetUserByStripeCustomerID(ctx, stripeCustomerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", stripeCustomerID)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateSubscription(ctx context.Context, sub domain.Subscription) error {
	const op = "UserService.UpdateSubscription"

	userID, err := uuid.Parse(sub.UserID)
	if err != nil {
		return domain.Invalid(op, "Invalid user ID")
	}

	_, err = s.queries.UpsertSubscription(ctx, repository.UpsertSubscriptionParams{
		UserID:               userID,
		StripeSubscriptionID: sub.StripeSubscriptionID,
		Status:               string(sub.Status),
		Plan:                 sub.Plan,
		TrialEnd:             toNullTime(sub.TrialEnd),
		PeriodStart:          toNullTime(sub.PeriodStart),
		PeriodEnd:            toNullTime(sub.PeriodEnd),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to update subscription")
	}
	return nil
}

func (s *userService) GetSubscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	const op = "UserService.GetSubscription"

	repoSub, err := s.queries.GetSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.Subscription{
				UserID: userID.String(),
				Status: domain.SubscriptionStatusInactive,
			}, nil
		}
		return nil, domain.Internal(err, op, "Failed to retrieve subscription")
	}

	return &domain.Subscription{
		UserID:               repoSub.UserID.String(),
		StripeSubscriptionID: repoSub.StripeSubscriptionID,
		Status:               domain.SubscriptionStatus(repoSub.Status),
		Plan:                 repoSub.Plan,
		TrialEnd:             fromNullTime(repoSub.TrialEnd),
		PeriodStart:          fromNullTime(repoSub.PeriodStart),
		PeriodEnd:            fromNullTime(repoSub.PeriodEnd),
		CancelAtPeriodEnd:    repoSub.CancelAtPeriodEnd,
	}, nil
}

// =============================================================================
// Cleanup
// =============================================================================

func (s *userService) DeleteExpiredSessions(ctx context.Context) error {
	return s.queries.DeleteExpiredSessions(ctx)
}

func (s *userService) DeleteExpiredTokens(ctx context.Context) error {
	if err := s.queries.DeleteExpiredEmailVerificationTokens(ctx); err != nil {
		return err
	}
	return s.queries.DeleteExpiredPasswordResetTokens(ctx)
}

// =============================================================================
// Helpers
// =============================================================================

// generateToken returns a 64-character hex token with 256 bits of entropy.
func generateToken() (string, error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashToken returns the SHA-256 hex digest of a raw token.
// Only hashes are stored; a leaked database yields no usable tokens.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidatePassword enforces the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return errors.New("password must be at most 72 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email is not a valid address")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func repoUserToDomain(u repository.User) *domain.User {
	user := &domain.User{
		ID:               u.ID,
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		Name:             u.Name,
		StripeCustomerID: u.StripeCustomerID,
		EmailVerified:    u.EmailVerified,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	if u.EmailVerifiedAt.Valid {
		t := u.EmailVerifiedAt.Time
		user.EmailVerifiedAt = &t
	}
	return user
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
