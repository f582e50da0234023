// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/wingconfig/internal/platform/dberr"
)

// # Memory Store

// MemoryCredentialStore is an in-process [CredentialStore].
//
// A single mutex serializes every operation, which gives the same atomicity as
// the row-level statements of the PostgreSQL store. Principals are cloned on
// the way in and out.
type MemoryCredentialStore struct {
	mu         sync.Mutex
	principals map[string]*Principal
	byEmail    map[string]string
}

// NewMemoryCredentialStore creates an empty store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		principals: make(map[string]*Principal),
		byEmail:    make(map[string]string),
	}
}

// Put inserts or replaces a principal. The e-mail is stored normalized.
func (repository *MemoryCredentialStore) Put(principal *Principal) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored := principal.Clone()
	stored.Email = NormalizeEmail(stored.Email)

	if previous, found := repository.principals[stored.ID]; found {
		delete(repository.byEmail, previous.Email)
	}
	repository.principals[stored.ID] = stored
	repository.byEmail[stored.Email] = stored.ID
}

// FindByEmail implements [CredentialStore].
func (repository *MemoryCredentialStore) FindByEmail(_ context.Context, email string) (*Principal, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	id, found := repository.byEmail[NormalizeEmail(email)]
	if !found {
		return nil, dberr.ErrNotFound
	}
	return repository.principals[id].Clone(), nil
}

// FindByID implements [CredentialStore].
func (repository *MemoryCredentialStore) FindByID(_ context.Context, id string) (*Principal, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, found := repository.principals[id]
	if !found {
		return nil, dberr.ErrNotFound
	}
	return principal.Clone(), nil
}

// RecordFailedLogin implements [CredentialStore].
func (repository *MemoryCredentialStore) RecordFailedLogin(_ context.Context, id string, threshold int, lockUntil, now time.Time) (FailedLoginResult, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, found := repository.principals[id]
	if !found {
		return FailedLoginResult{}, dberr.ErrNotFound
	}

	if !principal.IsLocked(now) {
		principal.FailedLoginAttempts++
		if principal.FailedLoginAttempts >= threshold && principal.Status != StatusInactive {
			lockedUntil := lockUntil
			principal.LockedUntil = &lockedUntil
			principal.Status = StatusLocked
		}
		principal.UpdatedAt = time.Now()
	}

	result := FailedLoginResult{Attempts: principal.FailedLoginAttempts}
	if principal.LockedUntil != nil {
		lockedUntil := *principal.LockedUntil
		result.LockedUntil = &lockedUntil
	}
	return result, nil
}

// CompleteLogin implements [CredentialStore].
func (repository *MemoryCredentialStore) CompleteLogin(_ context.Context, id, refreshToken string, now time.Time) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, found := repository.principals[id]
	if !found {
		return false, dberr.ErrNotFound
	}
	if principal.IsLocked(now) || principal.Status == StatusInactive {
		return false, nil
	}

	principal.FailedLoginAttempts = 0
	principal.LockedUntil = nil
	principal.Status = StatusActive
	principal.RefreshToken = &refreshToken
	principal.UpdatedAt = now
	return true, nil
}

// RotateRefreshToken implements [CredentialStore].
func (repository *MemoryCredentialStore) RotateRefreshToken(_ context.Context, id, presented, next string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, found := repository.principals[id]
	if !found {
		return false, dberr.ErrNotFound
	}
	if principal.RefreshToken == nil || *principal.RefreshToken != presented {
		return false, nil
	}

	principal.RefreshToken = &next
	principal.UpdatedAt = time.Now()
	return true, nil
}

// ClearRefreshToken implements [CredentialStore].
func (repository *MemoryCredentialStore) ClearRefreshToken(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, found := repository.principals[id]
	if !found {
		return dberr.ErrNotFound
	}

	principal.RefreshToken = nil
	principal.UpdatedAt = time.Now()
	return nil
}
