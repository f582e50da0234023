// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces declared by the consumers.
package sec

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// # Token Kinds

// TokenKind distinguishes access tokens from refresh tokens.
//
// Both kinds are signed by the same key; the kind travels in the "typ" claim
// so a refresh token is never accepted where an access token is expected,
// and vice versa.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// # Failure Diagnostics

// TokenFailure names why a token was rejected. It is for logs only.
type TokenFailure string

const (
	FailureEmpty            TokenFailure = "empty"
	FailureMalformed        TokenFailure = "malformed"
	FailureExpired          TokenFailure = "expired"
	FailureUnsupportedAlg   TokenFailure = "unsupported_algorithm"
	FailureInvalidSignature TokenFailure = "invalid_signature"
	FailureInvalidClaims    TokenFailure = "invalid_claims"
	FailureWrongKind        TokenFailure = "wrong_kind"
)

// ErrInvalidToken is the single failure callers see for any rejected token.
var ErrInvalidToken = errors.New("sec: invalid token")

// errUnsupportedAlgorithm is returned by the key function for non-HS256 tokens.
var errUnsupportedAlgorithm = errors.New("sec: unsupported signing algorithm")

// TokenError carries the diagnostic reason of a rejected token.
//
// Every TokenError satisfies errors.Is(err, [ErrInvalidToken]).
type TokenError struct {
	Reason TokenFailure
	cause  error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("sec: invalid token (%s)", e.Reason)
}

// Is makes every TokenError match [ErrInvalidToken].
func (e *TokenError) Is(target error) bool { return target == ErrInvalidToken }

// Unwrap exposes the underlying jwt error.
func (e *TokenError) Unwrap() error { return e.cause }

// # Configuration

// TokenConfig is the immutable signing configuration, built once at startup.
type TokenConfig struct {
	// Secret is the shared HMAC-SHA256 key.
	Secret []byte

	// Issuer is written to and required in the 'iss' claim.
	Issuer string

	// AccessTokenTTL is the lifetime of access tokens.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL is the lifetime of refresh tokens.
	RefreshTokenTTL time.Duration
}

// TTL returns the configured lifetime for the given kind.
func (c TokenConfig) TTL(kind TokenKind) time.Duration {
	if kind == TokenKindRefresh {
		return c.RefreshTokenTTL
	}
	return c.AccessTokenTTL
}

// # Claims

// TokenClaims is the payload of every token: subject, issued-at, expiry, issuer,
// kind and a random token id that keeps two tokens issued in the same second
// distinct.
//
// Nothing else is embedded. Roles and permissions are always resolved from the
// live principal record.
type TokenClaims struct {
	jwt.RegisteredClaims

	Kind TokenKind `json:"typ"`
}

// # Codec

// TokenCodec signs and verifies HS256 JWTs with a shared secret.
//
// It holds no mutable state after construction and is safe for concurrent use.
type TokenCodec struct {
	config TokenConfig
	logger *slog.Logger
	now    func() time.Time
}

// CodecOption customizes a [TokenCodec].
type CodecOption func(*TokenCodec)

// WithCodecClock overrides the time source used for issuing and verifying.
func WithCodecClock(now func() time.Time) CodecOption {
	return func(codec *TokenCodec) { codec.now = now }
}

// NewTokenCodec creates a codec bound to the given configuration.
func NewTokenCodec(config TokenConfig, logger *slog.Logger, options ...CodecOption) (*TokenCodec, error) {
	if len(config.Secret) == 0 {
		return nil, errors.New("sec: token secret is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	secret := make([]byte, len(config.Secret))
	copy(secret, config.Secret)
	config.Secret = secret

	codec := &TokenCodec{config: config, logger: logger, now: time.Now}
	for _, option := range options {
		option(codec)
	}
	return codec, nil
}

// Config returns the codec configuration (the secret is a private copy).
func (codec *TokenCodec) Config() TokenConfig {
	return codec.config
}

// Issue signs a token for subject that expires ttl after now.
func (codec *TokenCodec) Issue(subject string, kind TokenKind, ttl time.Duration) (string, error) {
	issuedAt := codec.now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    codec.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		Kind: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(codec.config.Secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks signature, algorithm, issuer, expiry and kind, and returns the subject.
//
// Any failure is reported as a [*TokenError] matching [ErrInvalidToken]; the
// reason is logged at warn level.
func (codec *TokenCodec) Verify(tokenString string, kind TokenKind) (string, error) {
	if tokenString == "" {
		return "", codec.reject(FailureEmpty, nil)
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, codec.keyFunc,
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(codec.config.Issuer),
		jwt.WithTimeFunc(codec.now),
	)
	if err != nil {
		return "", codec.reject(classify(err), err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", codec.reject(FailureInvalidClaims, nil)
	}

	if claims.Kind != kind {
		return "", codec.reject(FailureWrongKind, nil)
	}

	return claims.Subject, nil
}

// keyFunc only releases the secret to HS256 tokens.
func (codec *TokenCodec) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, fmt.Errorf("%w: %v", errUnsupportedAlgorithm, token.Header["alg"])
	}
	return codec.config.Secret, nil
}

// reject logs the diagnostic reason and builds the caller-facing error.
func (codec *TokenCodec) reject(reason TokenFailure, cause error) error {
	attributes := []any{slog.String("reason", string(reason))}
	if cause != nil {
		attributes = append(attributes, slog.String("error", cause.Error()))
	}
	codec.logger.Warn("token_verification_failed", attributes...)
	return &TokenError{Reason: reason, cause: cause}
}

// classify maps jwt parse errors to diagnostic reasons.
func classify(err error) TokenFailure {
	switch {
	case errors.Is(err, errUnsupportedAlgorithm), errors.Is(err, jwt.ErrTokenUnverifiable):
		return FailureUnsupportedAlg
	case errors.Is(err, jwt.ErrTokenMalformed):
		return FailureMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return FailureExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return FailureInvalidSignature
	default:
		return FailureInvalidClaims
	}
}
