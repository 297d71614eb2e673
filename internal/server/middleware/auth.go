// Package middleware provides the HTTP middleware chain: CORS, request
// logging, rate limiting, API-key auth, and signed caller identity.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	tmcrypto "github.com/tunemarket/tunemarket/internal/crypto"
)

// Caller identity headers. A client signs crypto.AuthMessage(timestamp)
// with its wallet key and sends all three headers on every authenticated
// request.
const (
	HeaderCallerAddress   = "X-Caller-Address"
	HeaderCallerSignature = "X-Caller-Signature"
	HeaderCallerTimestamp = "X-Caller-Timestamp"
)

type ctxKey int

const callerKey ctxKey = 0

// Auth returns middleware that validates requests against a static API key,
// accepted as either an Authorization Bearer token or the X-API-Key header.
// An empty apiKey disables the check.
func Auth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				writeUnauthorized(w, "missing authentication token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				writeUnauthorized(w, "invalid authentication token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Identity returns middleware that recovers the caller's wallet address from
// the signed identity headers and attaches it to the request context.
// Requests without identity headers pass through anonymously; handlers that
// mutate state reject those via CallerFrom. A bad or stale signature is a
// hard 401.
func Identity(maxClockSkew time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claimed := strings.TrimSpace(r.Header.Get(HeaderCallerAddress))
			sig := strings.TrimSpace(r.Header.Get(HeaderCallerSignature))
			tsRaw := strings.TrimSpace(r.Header.Get(HeaderCallerTimestamp))

			if claimed == "" && sig == "" && tsRaw == "" {
				next.ServeHTTP(w, r)
				return
			}
			if claimed == "" || sig == "" || tsRaw == "" {
				writeUnauthorized(w, "incomplete caller identity headers")
				return
			}
			if !common.IsHexAddress(claimed) {
				writeUnauthorized(w, "invalid caller address")
				return
			}

			ts, err := strconv.ParseInt(tsRaw, 10, 64)
			if err != nil {
				writeUnauthorized(w, "invalid caller timestamp")
				return
			}
			if skew := time.Since(time.Unix(ts, 0)); skew > maxClockSkew || skew < -maxClockSkew {
				writeUnauthorized(w, "caller timestamp outside allowed window")
				return
			}

			recovered, err := tmcrypto.RecoverAddress(tmcrypto.AuthMessage(ts), sig)
			if err != nil {
				writeUnauthorized(w, "invalid caller signature")
				return
			}
			if recovered != common.HexToAddress(claimed) {
				writeUnauthorized(w, "signature does not match caller address")
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, recovered)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFrom returns the verified caller address attached by Identity, or
// false for anonymous requests.
func CallerFrom(ctx context.Context) (common.Address, bool) {
	addr, ok := ctx.Value(callerKey).(common.Address)
	return addr, ok
}

// WithCaller attaches a caller address to ctx. Test hook for handler tests
// that bypass the middleware chain.
func WithCaller(ctx context.Context, addr common.Address) context.Context {
	return context.WithValue(ctx, callerKey, addr)
}

// extractToken looks for a token in the Authorization header (Bearer
// scheme) or in the X-API-Key header.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}
	return ""
}

// writeUnauthorized sends a 401 response with a JSON error body.
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
