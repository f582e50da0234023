// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/taibuivan/wingconfig/internal/platform/ctxutil"
	"github.com/taibuivan/wingconfig/internal/platform/respond"
)

// WindowCounter counts hits per key in a shared fixed window.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)
}

// ThrottleObserver is notified of every rejected request.
type ThrottleObserver interface {
	RecordThrottled()
}

// LoginThrottle caps credential-bearing requests per client IP.
//
// It complements the per-principal lockout: the lockout protects one account,
// the throttle slows down a client spraying many accounts. When the counter
// backend fails the request is let through and the failure is logged.
func LoginThrottle(counter WindowCounter, limit int, window time.Duration, observer ThrottleObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			clientIP := RealIP(request)

			count, remaining, err := counter.Hit(request.Context(), clientIP, window)
			if err != nil {
				ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "login_throttle_unavailable",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(writer, request)
				return
			}

			if count > int64(limit) {
				if observer != nil {
					observer.RecordThrottled()
				}
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "login_throttled",
					slog.Int64("count", count),
				)
				respond.RateLimited(writer, request, retryAfterSeconds(remaining))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// retryAfterSeconds rounds up so clients never retry before the window resets.
func retryAfterSeconds(remaining time.Duration) int {
	seconds := int(math.Ceil(remaining.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
