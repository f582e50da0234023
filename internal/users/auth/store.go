// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # Credential Data Access

// FailedLoginResult is the state of a principal right after a failed attempt was recorded.
type FailedLoginResult struct {
	Attempts    int
	LockedUntil *time.Time
}

// Locked reports whether the recorded attempt put a lock in force at now.
func (result FailedLoginResult) Locked(now time.Time) bool {
	return result.LockedUntil != nil && result.LockedUntil.After(now)
}

// CredentialStore defines the data access contract for principals.
//
// Every mutation is a single atomic step: concurrent calls for the same
// principal never lose an update.
type CredentialStore interface {

	/*
		FindByEmail returns the principal with the given (normalized) email,
		roles and permissions included.

		Returns:
		  - *Principal: Hydrated entity
		  - error: dberr.ErrNotFound when no live principal matches
	*/
	FindByEmail(context context.Context, email string) (*Principal, error)

	/*
		FindByID returns the principal with the given ID, roles and permissions included.

		Returns:
		  - *Principal: Hydrated entity
		  - error: dberr.ErrNotFound when no live principal matches
	*/
	FindByID(context context.Context, id string) (*Principal, error)

	/*
		RecordFailedLogin increments the failed attempt counter. When the new
		count reaches threshold, the principal is locked until lockUntil and
		its status set to LOCKED, in the same step.

		A lock still in force at now is left untouched: the counter does not
		move and the lock keeps its expiry. This covers attempts that read the
		row before a concurrent attempt locked it.

		Returns:
		  - FailedLoginResult: Counter and lock after the increment
		  - error: dberr.ErrNotFound or persistence failures
	*/
	RecordFailedLogin(context context.Context, id string, threshold int, lockUntil, now time.Time) (FailedLoginResult, error)

	/*
		CompleteLogin resets the counter, clears the lock, sets status ACTIVE
		and stores refreshToken as the current refresh token.

		It applies only while the principal is neither locked at now nor
		INACTIVE; otherwise nothing changes and it returns false.
	*/
	CompleteLogin(context context.Context, id, refreshToken string, now time.Time) (bool, error)

	/*
		RotateRefreshToken replaces the stored refresh token with next, provided
		it still equals presented. It returns false when another rotation or a
		login won the race.
	*/
	RotateRefreshToken(context context.Context, id, presented, next string) (bool, error)

	/*
		ClearRefreshToken forgets the stored refresh token.
	*/
	ClearRefreshToken(context context.Context, id string) error
}
