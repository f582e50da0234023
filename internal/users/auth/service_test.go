// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/wingconfig/internal/platform/apperr"
	"github.com/taibuivan/wingconfig/internal/platform/sec"
	"github.com/taibuivan/wingconfig/internal/users/auth"
)

const (
	principalID     = "0195d0a4-7c1e-7b2a-9f3d-5e6a7b8c9d0e"
	principalEmail  = "admin@wing.test"
	correctPassword = "Correct#Pass1"
	wrongPassword   = "wrong-password"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// # Fixture

type recorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recorder) RecordAuth(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, operation+":"+outcome)
}

type fixture struct {
	store    *auth.MemoryCredentialStore
	service  *auth.Service
	codec    *sec.TokenCodec
	recorder *recorder
	now      time.Time
	policy   auth.Policy
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    auth.NewMemoryCredentialStore(),
		recorder: &recorder{},
		now:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		policy:   auth.DefaultPolicy(15*time.Minute, 7*24*time.Hour),
	}

	codec, err := sec.NewTokenCodec(sec.TokenConfig{
		Secret:          testSecret,
		Issuer:          "wingconfig.test",
		AccessTokenTTL:  f.policy.AccessTokenTTL,
		RefreshTokenTTL: f.policy.RefreshTokenTTL,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), sec.WithCodecClock(f.clock))
	require.NoError(t, err)
	f.codec = codec

	f.service = auth.NewService(f.store, sec.NewBcryptHasher(bcrypt.MinCost), codec, f.policy,
		auth.WithClock(f.clock),
		auth.WithRecorder(f.recorder),
	)
	return f
}

// addPrincipal stores the default principal after applying mutate.
func (f *fixture) addPrincipal(t *testing.T, mutate func(*auth.Principal)) *auth.Principal {
	t.Helper()

	hash, err := sec.NewBcryptHasher(bcrypt.MinCost).Hash(correctPassword)
	require.NoError(t, err)

	principal := &auth.Principal{
		ID:           principalID,
		Email:        principalEmail,
		PasswordHash: hash,
		FullName:     "Wing Admin",
		Status:       auth.StatusActive,
		Roles: []auth.Role{
			{ID: "r1", Name: "ADMIN", Status: auth.StatusActive, Permissions: []auth.Permission{
				{ID: "p1", Name: "USER_VIEW", Module: "USER"},
				{ID: "p2", Name: "ROLE_VIEW", Module: "ROLE"},
			}},
			{ID: "r2", Name: "EDITOR", Status: auth.StatusActive, Permissions: []auth.Permission{
				{ID: "p1", Name: "USER_VIEW", Module: "USER"},
				{ID: "p3", Name: "TRANSLATION_UPDATE", Module: "TRANSLATION"},
			}},
		},
	}
	if mutate != nil {
		mutate(principal)
	}
	f.store.Put(principal)
	return principal
}

func (f *fixture) stored(t *testing.T) *auth.Principal {
	t.Helper()
	principal, err := f.store.FindByID(context.Background(), principalID)
	require.NoError(t, err)
	return principal
}

func (f *fixture) login(password string) (*auth.Session, error) {
	return f.service.Login(context.Background(), auth.LoginInput{Email: principalEmail, Password: password})
}

func requireAppError(t *testing.T, err error, sentinel *apperr.AppError) *apperr.AppError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, sentinel)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	return appError
}

// # Login

/*
TestLogin_Success issues a pair, resolves claims and resets lockout state.
*/
func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, func(p *auth.Principal) { p.FailedLoginAttempts = 3 })

	session, err := f.service.Login(context.Background(), auth.LoginInput{Email: "  ADMIN@Wing.Test ", Password: correctPassword})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, int64(900), session.ExpiresIn)
	assert.Equal(t, auth.Claims{
		ID:          principalID,
		Email:       principalEmail,
		FullName:    "Wing Admin",
		Roles:       []string{"ADMIN", "EDITOR"},
		Permissions: []string{"ROLE_VIEW", "TRANSLATION_UPDATE", "USER_VIEW"},
	}, session.User)

	subject, err := f.codec.Verify(session.AccessToken, sec.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, principalEmail, subject)

	stored := f.stored(t)
	assert.Equal(t, 0, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, session.RefreshToken, *stored.RefreshToken)
	assert.Equal(t, []string{"login:success"}, f.recorder.outcomes)
}

/*
TestLogin_UnknownEmail returns the generic credentials error.
*/
func TestLogin_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.login(correctPassword)
	appError := requireAppError(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, "Invalid email or password", appError.Message)
	assert.Equal(t, 401, appError.HTTPStatus)
}

/*
TestLogin_FailureCountdown walks the counter up to the lock.
*/
func TestLogin_FailureCountdown(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, nil)

	for attempt := 1; attempt <= 4; attempt++ {
		_, err := f.login(wrongPassword)
		appError := requireAppError(t, err, auth.ErrInvalidCredentials)
		assert.Equal(t, fmt.Sprintf("Invalid email or password. %d attempts remaining", 5-attempt), appError.Message)
		assert.Equal(t, attempt, f.stored(t).FailedLoginAttempts)
		assert.Nil(t, f.stored(t).LockedUntil)
	}

	// The fifth failure is the locking attempt.
	_, err := f.login(wrongPassword)
	appError := requireAppError(t, err, auth.ErrAccountLocked)
	assert.Equal(t, "Account has been locked for 30 minutes due to too many failed login attempts", appError.Message)

	stored := f.stored(t)
	assert.Equal(t, 5, stored.FailedLoginAttempts)
	assert.Equal(t, auth.StatusLocked, stored.Status)
	require.NotNil(t, stored.LockedUntil)
	assert.Equal(t, f.now.Add(30*time.Minute), *stored.LockedUntil)
}

/*
TestLogin_FourPriorFailures checks the boundary scenario directly.
*/
func TestLogin_FourPriorFailures(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, func(p *auth.Principal) { p.FailedLoginAttempts = 4 })

	_, err := f.login(wrongPassword)
	requireAppError(t, err, auth.ErrAccountLocked)
	assert.Equal(t, 5, f.stored(t).FailedLoginAttempts)
}

/*
TestLogin_LockedRejectsCorrectPassword never checks the password while locked.
*/
func TestLogin_LockedRejectsCorrectPassword(t *testing.T) {
	f := newFixture(t)
	lockedUntil := f.now.Add(time.Second)
	f.addPrincipal(t, func(p *auth.Principal) {
		p.FailedLoginAttempts = 5
		p.LockedUntil = &lockedUntil
		p.Status = auth.StatusLocked
	})

	for _, password := range []string{correctPassword, wrongPassword} {
		_, err := f.login(password)
		appError := requireAppError(t, err, auth.ErrAccountLocked)
		assert.Equal(t, "Account is locked. Please try again after 2026-03-01T09:00:01Z", appError.Message)
	}

	// No attempt was counted while locked.
	assert.Equal(t, 5, f.stored(t).FailedLoginAttempts)
}

/*
TestLogin_LockExpires lets correct credentials through once the lock elapsed.
*/
func TestLogin_LockExpires(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, nil)

	for i := 0; i < 5; i++ {
		_, _ = f.login(wrongPassword)
	}
	_, err := f.login(correctPassword)
	requireAppError(t, err, auth.ErrAccountLocked)

	// Exactly at lockedUntil the lock is no longer in force.
	f.advance(30 * time.Minute)

	_, err = f.login(correctPassword)
	require.NoError(t, err)

	stored := f.stored(t)
	assert.Equal(t, 0, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)
	assert.Equal(t, auth.StatusActive, stored.Status)
}

/*
TestLogin_RelockAfterExpiry documents that the counter survives lock expiry:
a single further failure locks again.
*/
func TestLogin_RelockAfterExpiry(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, nil)

	for i := 0; i < 5; i++ {
		_, _ = f.login(wrongPassword)
	}
	f.advance(31 * time.Minute)

	_, err := f.login(wrongPassword)
	requireAppError(t, err, auth.ErrAccountLocked)
	assert.Equal(t, 6, f.stored(t).FailedLoginAttempts)
}

// lockingStore locks the principal right after handing out its unlocked row,
// as a concurrent locking attempt would.
type lockingStore struct {
	*auth.MemoryCredentialStore
	lockedUntil time.Time
}

func (store lockingStore) FindByEmail(ctx context.Context, email string) (*auth.Principal, error) {
	principal, err := store.MemoryCredentialStore.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	locked := principal.Clone()
	locked.FailedLoginAttempts = 5
	locked.Status = auth.StatusLocked
	locked.LockedUntil = &store.lockedUntil
	store.Put(locked)

	return principal, nil
}

/*
TestLogin_LockedConcurrently keeps the expiry of a lock set after the row was read.
*/
func TestLogin_LockedConcurrently(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, func(p *auth.Principal) { p.FailedLoginAttempts = 4 })

	lockedUntil := f.now.Add(10 * time.Minute)
	service := auth.NewService(lockingStore{f.store, lockedUntil}, sec.NewBcryptHasher(bcrypt.MinCost), f.codec, f.policy, auth.WithClock(f.clock))

	_, err := service.Login(context.Background(), auth.LoginInput{Email: principalEmail, Password: wrongPassword})
	requireAppError(t, err, auth.ErrAccountLocked)

	stored := f.stored(t)
	assert.Equal(t, 5, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockedUntil)
	assert.Equal(t, lockedUntil, *stored.LockedUntil)
}

/*
TestLogin_Inactive rejects inactive principals before the password check.
*/
func TestLogin_Inactive(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, func(p *auth.Principal) { p.Status = auth.StatusInactive })

	for _, password := range []string{correctPassword, wrongPassword} {
		_, err := f.login(password)
		appError := requireAppError(t, err, auth.ErrAccountInactive)
		assert.Equal(t, "Account is inactive. Please contact administrator", appError.Message)
	}
	assert.Equal(t, 0, f.stored(t).FailedLoginAttempts)
}

/*
TestLogin_LockedStatusWithoutTimestamp is decided by the timestamp, not the status.
*/
func TestLogin_LockedStatusWithoutTimestamp(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, func(p *auth.Principal) { p.Status = auth.StatusLocked })

	_, err := f.login(correctPassword)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusActive, f.stored(t).Status)
}

/*
TestLogin_CorruptHash surfaces verifier failures as internal errors without counting them.
*/
func TestLogin_CorruptHash(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, func(p *auth.Principal) { p.PasswordHash = "not-a-bcrypt-hash" })

	_, err := f.login(correctPassword)
	require.Error(t, err)
	assert.False(t, apperr.IsAppError(err))
	assert.Equal(t, 0, f.stored(t).FailedLoginAttempts)
	assert.Equal(t, []string{"login:ERROR"}, f.recorder.outcomes)
}

/*
TestLogin_ConcurrentFailures never loses an increment.
*/
func TestLogin_ConcurrentFailures(t *testing.T) {
	f := newFixture(t)
	f.policy.MaxFailedAttempts = 100
	f.service = auth.NewService(f.store, sec.NewBcryptHasher(bcrypt.MinCost), f.codec, f.policy, auth.WithClock(f.clock))
	f.addPrincipal(t, nil)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.login(wrongPassword)
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, f.stored(t).FailedLoginAttempts)
}

// # Refresh

/*
TestRefresh_Rotation is single use: the same token succeeds once.
*/
func TestRefresh_Rotation(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, nil)

	session, err := f.login(correctPassword)
	require.NoError(t, err)

	rotated, err := f.service.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, session.User, rotated.User)
	assert.Equal(t, rotated.RefreshToken, *f.stored(t).RefreshToken)

	_, err = f.service.Refresh(context.Background(), session.RefreshToken)
	requireAppError(t, err, auth.ErrTokenMismatch)

	// The rotated token is still good.
	_, err = f.service.Refresh(context.Background(), rotated.RefreshToken)
	require.NoError(t, err)
}

/*
TestRefresh_Concurrent lets exactly one of many racing refreshes win.
*/
func TestRefresh_Concurrent(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, nil)

	session, err := f.login(correctPassword)
	require.NoError(t, err)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		mismatch  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Refresh(context.Background(), session.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, auth.ErrTokenMismatch):
				mismatch++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, mismatch)
}

/*
TestRefresh_Rejections covers every failure branch.
*/
func TestRefresh_Rejections(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, nil)

	session, err := f.login(correctPassword)
	require.NoError(t, err)

	expired, err := f.codec.Issue(principalEmail, sec.TokenKindRefresh, 0)
	require.NoError(t, err)

	ghost, err := f.codec.Issue("ghost@wing.test", sec.TokenKindRefresh, time.Hour)
	require.NoError(t, err)

	unstored, err := f.codec.Issue(principalEmail, sec.TokenKindRefresh, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		sentinel *apperr.AppError
	}{
		{"garbage", "not-a-token", auth.ErrInvalidToken},
		{"expired", expired, auth.ErrInvalidToken},
		{"access_token", session.AccessToken, auth.ErrInvalidToken},
		{"unknown_principal", ghost, auth.ErrPrincipalNotFound},
		{"not_current", unstored, auth.ErrTokenMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Refresh(context.Background(), tt.token)
			requireAppError(t, err, tt.sentinel)
		})
	}

	// None of the rejections disturbed the stored token.
	assert.Equal(t, session.RefreshToken, *f.stored(t).RefreshToken)
}

/*
TestRefresh_AfterExpiry rejects a refresh token past its lifetime.
*/
func TestRefresh_AfterExpiry(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, nil)

	session, err := f.login(correctPassword)
	require.NoError(t, err)

	f.advance(7 * 24 * time.Hour)

	_, err = f.service.Refresh(context.Background(), session.RefreshToken)
	requireAppError(t, err, auth.ErrInvalidToken)
}

/*
TestRefresh_SecondLoginInvalidatesFirst documents the single active session.
*/
func TestRefresh_SecondLoginInvalidatesFirst(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, nil)

	first, err := f.login(correctPassword)
	require.NoError(t, err)
	second, err := f.login(correctPassword)
	require.NoError(t, err)

	_, err = f.service.Refresh(context.Background(), first.RefreshToken)
	requireAppError(t, err, auth.ErrTokenMismatch)

	_, err = f.service.Refresh(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

/*
TestRefresh_ReflectsRoleChanges re-resolves claims from the live record.
*/
func TestRefresh_ReflectsRoleChanges(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, nil)

	session, err := f.login(correctPassword)
	require.NoError(t, err)

	principal := f.stored(t)
	principal.Roles = principal.Roles[:1]
	f.store.Put(principal)

	rotated, err := f.service.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN"}, rotated.User.Roles)
	assert.Equal(t, []string{"ROLE_VIEW", "USER_VIEW"}, rotated.User.Permissions)
}

// # Logout & Identity

/*
TestLogout makes the stored refresh token unusable.
*/
func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, nil)

	session, err := f.login(correctPassword)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), principalID))
	assert.Nil(t, f.stored(t).RefreshToken)

	_, err = f.service.Refresh(context.Background(), session.RefreshToken)
	requireAppError(t, err, auth.ErrTokenMismatch)

	// Unknown principals are a no-op.
	assert.NoError(t, f.service.Logout(context.Background(), "missing"))
}

/*
TestResolveIdentity builds the caller from an access token only.
*/
func TestResolveIdentity(t *testing.T) {
	f := newFixture(t)
	f.addPrincipal(t, nil)

	session, err := f.login(correctPassword)
	require.NoError(t, err)

	identity, err := f.service.ResolveIdentity(context.Background(), session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, principalID, identity.PrincipalID)
	assert.True(t, identity.Can("ROLE_ADMIN"))
	assert.True(t, identity.Can("TRANSLATION_UPDATE"))
	assert.False(t, identity.Can("USER_DELETE"))

	_, err = f.service.ResolveIdentity(context.Background(), session.RefreshToken)
	requireAppError(t, err, auth.ErrInvalidToken)

	f.advance(15 * time.Minute)
	_, err = f.service.ResolveIdentity(context.Background(), session.AccessToken)
	requireAppError(t, err, auth.ErrInvalidToken)
}
