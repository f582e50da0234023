// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"github.com/taibuivan/wingconfig/internal/platform/apperr"
)

// # Authentication Failures
//
// Every failure is a 401 [apperr.AppError]. Messages may be refined per call
// with WithMessage; errors.Is still matches on the code.

var (
	ErrInvalidCredentials = apperr.Unauthorized("Invalid email or password").WithCode("INVALID_CREDENTIALS")
	ErrAccountLocked      = apperr.Unauthorized("Account is locked").WithCode("ACCOUNT_LOCKED")
	ErrAccountInactive    = apperr.Unauthorized("Account is inactive. Please contact administrator").WithCode("ACCOUNT_INACTIVE")
	ErrInvalidToken       = apperr.Unauthorized("Invalid or expired token").WithCode("INVALID_TOKEN")
	ErrTokenMismatch      = apperr.Unauthorized("Refresh token does not match. Please login again").WithCode("TOKEN_MISMATCH")
	ErrPrincipalNotFound  = apperr.Unauthorized("User not found").WithCode("PRINCIPAL_NOT_FOUND")
)
