// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/wingconfig/internal/platform/apperr"
	"github.com/taibuivan/wingconfig/internal/platform/constants"
	"github.com/taibuivan/wingconfig/internal/platform/ctxutil"
	"github.com/taibuivan/wingconfig/internal/platform/dberr"
	"github.com/taibuivan/wingconfig/internal/platform/sec"
)

// # Contracts & Types

// TokenCodec issues and verifies signed tokens.
type TokenCodec interface {
	// Issue signs a token of the given kind for subject, valid for ttl.
	Issue(subject string, kind sec.TokenKind, ttl time.Duration) (string, error)

	// Verify returns the subject of a valid token of the given kind.
	// Any rejection matches [sec.ErrInvalidToken].
	Verify(token string, kind sec.TokenKind) (string, error)
}

// PasswordVerifier checks a plain-text password against a stored hash.
type PasswordVerifier interface {
	// Verify returns (false, nil) on mismatch and an error only when the
	// check itself could not be performed.
	Verify(plainTextPassword, hash string) (bool, error)
}

// OutcomeRecorder counts authentication outcomes.
type OutcomeRecorder interface {
	RecordAuth(operation, outcome string)
}

// Policy holds the lockout threshold and the token lifetimes.
type Policy struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
}

// DefaultPolicy returns the lockout defaults with the given token lifetimes.
func DefaultPolicy(accessTokenTTL, refreshTokenTTL time.Duration) Policy {
	return Policy{
		MaxFailedAttempts: constants.DefaultMaxFailedLoginAttempts,
		LockoutDuration:   constants.DefaultLockoutDuration,
		AccessTokenTTL:    accessTokenTTL,
		RefreshTokenTTL:   refreshTokenTTL,
	}
}

// Operation labels for outcome metrics.
const (
	operationLogin   = "login"
	operationRefresh = "refresh"
	outcomeSuccess   = "success"
	outcomeError     = "ERROR"
)

// loginRetries bounds how often Login re-reads a principal whose state changed
// between the read and the guarded success update.
const loginRetries = 3

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to lockout, token
// rotation or authority resolution must be reviewed by the security team.
type Service struct {
	store    CredentialStore
	verifier PasswordVerifier
	codec    TokenCodec
	policy   Policy
	now      func() time.Time
	recorder OutcomeRecorder
}

// Option customizes a [Service].
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(service *Service) { service.now = now }
}

// WithRecorder reports outcomes to recorder.
func WithRecorder(recorder OutcomeRecorder) Option {
	return func(service *Service) { service.recorder = recorder }
}

// NewService constructs a new [Service] with its dependencies.
func NewService(store CredentialStore, verifier PasswordVerifier, codec TokenCodec, policy Policy, options ...Option) *Service {
	service := &Service{
		store:    store,
		verifier: verifier,
		codec:    codec,
		policy:   policy,
		now:      time.Now,
	}
	for _, option := range options {
		option(service)
	}
	return service
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login validates credentials and issues a token pair.

Description: Checks, in order, that the principal exists, is not locked and
is not INACTIVE, then verifies the password. A wrong password is counted and
may lock the account; a correct one resets the lockout state and stores the
new refresh token.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: Token pair and claims
  - error: ErrInvalidCredentials, ErrAccountLocked, ErrAccountInactive or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {
	session, err := service.login(context, input)
	service.record(operationLogin, err)
	return session, err
}

func (service *Service) login(context context.Context, input LoginInput) (*Session, error) {
	logger := ctxutil.GetLogger(context)
	email := NormalizeEmail(input.Email)

	principal, err := service.store.FindByEmail(context, email)
	if err != nil {
		if dberr.IsNotFound(err) {
			logger.WarnContext(context, "login_failed", slog.String("email", email), slog.String("reason", "unknown_email"))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth_login_lookup_failed: %w", err)
	}

	for attempt := 0; ; attempt++ {
		now := service.now()

		if err := service.checkAdmissible(context, principal, now); err != nil {
			return nil, err
		}

		// Only on the first pass: a retry re-evaluates state, not the password.
		if attempt == 0 {
			matched, err := service.verifier.Verify(input.Password, principal.PasswordHash)
			if err != nil {
				return nil, fmt.Errorf("auth_password_verify_failed: %w", err)
			}
			if !matched {
				return nil, service.recordFailure(context, principal, now)
			}
		}

		session, refreshToken, err := service.issueSession(principal)
		if err != nil {
			return nil, err
		}

		applied, err := service.store.CompleteLogin(context, principal.ID, refreshToken, now)
		if err != nil {
			return nil, fmt.Errorf("auth_complete_login_failed: %w", err)
		}
		if applied {
			logger.InfoContext(context, "login_succeeded", slog.String("principal_id", principal.ID))
			return session, nil
		}

		// The row became locked or inactive after it was read.
		if attempt+1 >= loginRetries {
			return nil, fmt.Errorf("auth_complete_login_failed: principal %s kept changing", principal.ID)
		}
		principal, err = service.store.FindByID(context, principal.ID)
		if err != nil {
			if dberr.IsNotFound(err) {
				return nil, ErrInvalidCredentials
			}
			return nil, fmt.Errorf("auth_login_reload_failed: %w", err)
		}
	}
}

// checkAdmissible rejects principals that are locked or inactive.
func (service *Service) checkAdmissible(context context.Context, principal *Principal, now time.Time) error {
	logger := ctxutil.GetLogger(context)

	if principal.IsLocked(now) {
		logger.WarnContext(context, "login_rejected_locked",
			slog.String("principal_id", principal.ID),
			slog.Time("locked_until", *principal.LockedUntil),
		)
		return ErrAccountLocked.WithMessage(
			"Account is locked. Please try again after " + principal.LockedUntil.UTC().Format(time.RFC3339),
		)
	}

	if principal.Status == StatusInactive {
		logger.WarnContext(context, "login_rejected_inactive", slog.String("principal_id", principal.ID))
		return ErrAccountInactive
	}

	return nil
}

// recordFailure counts a wrong password and builds the matching error.
func (service *Service) recordFailure(context context.Context, principal *Principal, now time.Time) error {
	logger := ctxutil.GetLogger(context)

	result, err := service.store.RecordFailedLogin(context, principal.ID,
		service.policy.MaxFailedAttempts, now.Add(service.policy.LockoutDuration), now)
	if err != nil {
		return fmt.Errorf("auth_record_failure_failed: %w", err)
	}

	if result.Locked(now) {
		logger.WarnContext(context, "account_locked",
			slog.String("principal_id", principal.ID),
			slog.Int("failed_attempts", result.Attempts),
			slog.Time("locked_until", *result.LockedUntil),
		)
		return ErrAccountLocked.WithMessage(fmt.Sprintf(
			"Account has been locked for %d minutes due to too many failed login attempts",
			int(service.policy.LockoutDuration.Minutes()),
		))
	}

	remaining := max(service.policy.MaxFailedAttempts-result.Attempts, 0)
	logger.WarnContext(context, "login_failed",
		slog.String("principal_id", principal.ID),
		slog.Int("failed_attempts", result.Attempts),
	)
	return ErrInvalidCredentials.WithMessage(fmt.Sprintf("Invalid email or password. %d attempts remaining", remaining))
}

// # Session Rotation

/*
Refresh exchanges the current refresh token for a new token pair.

Description: The presented token must be a valid refresh token and equal the
one stored for its principal. The stored token is replaced by compare-and-swap,
so of two concurrent refreshes with the same token only one succeeds.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *Session: New token pair and claims from the live record
  - error: ErrInvalidToken, ErrPrincipalNotFound, ErrTokenMismatch or internal failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*Session, error) {
	session, err := service.refresh(context, refreshToken)
	service.record(operationRefresh, err)
	return session, err
}

func (service *Service) refresh(context context.Context, refreshToken string) (*Session, error) {
	logger := ctxutil.GetLogger(context)

	subject, err := service.codec.Verify(refreshToken, sec.TokenKindRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	principal, err := service.store.FindByEmail(context, subject)
	if err != nil {
		if dberr.IsNotFound(err) {
			logger.WarnContext(context, "refresh_failed", slog.String("email", subject), slog.String("reason", "principal_not_found"))
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("auth_refresh_lookup_failed: %w", err)
	}

	if principal.RefreshToken == nil || *principal.RefreshToken != refreshToken {
		logger.WarnContext(context, "refresh_failed", slog.String("principal_id", principal.ID), slog.String("reason", "token_mismatch"))
		return nil, ErrTokenMismatch
	}

	session, next, err := service.issueSession(principal)
	if err != nil {
		return nil, err
	}

	swapped, err := service.store.RotateRefreshToken(context, principal.ID, refreshToken, next)
	if err != nil {
		return nil, fmt.Errorf("auth_rotate_refresh_token_failed: %w", err)
	}
	if !swapped {
		logger.WarnContext(context, "refresh_failed", slog.String("principal_id", principal.ID), slog.String("reason", "rotation_lost"))
		return nil, ErrTokenMismatch
	}

	logger.InfoContext(context, "refresh_succeeded", slog.String("principal_id", principal.ID))
	return session, nil
}

/*
Logout forgets the stored refresh token of the principal.

Access tokens already issued stay valid until they expire.
*/
func (service *Service) Logout(context context.Context, principalID string) error {
	if err := service.store.ClearRefreshToken(context, principalID); err != nil {
		if dberr.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("auth_logout_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "logout_succeeded", slog.String("principal_id", principalID))
	return nil
}

// # Identity Resolution

/*
ResolveIdentity authenticates a resource request from its access token.

Roles and authorities come from the live record, so role changes take effect
on the next request. Lock and status are not re-checked.

Returns:
  - *sec.Identity: The caller
  - error: ErrInvalidToken, ErrPrincipalNotFound or internal failures
*/
func (service *Service) ResolveIdentity(context context.Context, accessToken string) (*sec.Identity, error) {
	subject, err := service.codec.Verify(accessToken, sec.TokenKindAccess)
	if err != nil {
		return nil, ErrInvalidToken
	}

	principal, err := service.store.FindByEmail(context, subject)
	if err != nil {
		if dberr.IsNotFound(err) {
			ctxutil.GetLogger(context).WarnContext(context, "identity_not_found", slog.String("email", subject))
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("auth_resolve_identity_failed: %w", err)
	}

	return identityFor(principal), nil
}

// # Helpers

// issueSession signs a fresh access/refresh pair for the principal.
func (service *Service) issueSession(principal *Principal) (*Session, string, error) {
	accessToken, err := service.codec.Issue(principal.Email, sec.TokenKindAccess, service.policy.AccessTokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("auth_issue_access_token_failed: %w", err)
	}

	refreshToken, err := service.codec.Issue(principal.Email, sec.TokenKindRefresh, service.policy.RefreshTokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("auth_issue_refresh_token_failed: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    constants.TokenTypeBearer,
		ExpiresIn:    int64(service.policy.AccessTokenTTL / time.Second),
		User:         ClaimsOf(principal),
	}, refreshToken, nil
}

// record reports the outcome of an operation when a recorder is configured.
func (service *Service) record(operation string, err error) {
	if service.recorder == nil {
		return
	}

	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
		var appError *apperr.AppError
		if errors.As(err, &appError) {
			outcome = appError.Code
		}
	}
	service.recorder.RecordAuth(operation, outcome)
}
