package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func GzipHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") == "gzip" {
			gzr, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(rw, "Failed to create gzip reader", http.StatusBadRequest)
				return
			}
			defer gzr.Close()
			r.Body = io.NopCloser(gzr)
		}

		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			rw.Header().Set("Content-Encoding", "gzip")
			gzw := gzip.NewWriter(rw)
			defer gzw.Close()

			gzrw := gzipResponseWriter{Writer: gzw, ResponseWriter: rw}
			next.ServeHTTP(gzrw, r)
		} else {
			next.ServeHTTP(rw, r)
		}
	})
}

// MemberClaims are the token claims this service reads. Members are
// registered and authenticated elsewhere; tokens arrive already minted.
type MemberClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin,omitempty"`
}

type ctxKeyMemberID struct{}
type ctxKeyMemberName struct{}
type ctxKeyAdmin struct{}

// JWTMiddleware verifies the bearer token and puts the member identity
// into the request context.
func JWTMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims := &MemberClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			memberID, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyMemberID{}, memberID)
			ctx = context.WithValue(ctx, ctxKeyMemberName{}, claims.Name)
			ctx = context.WithValue(ctx, ctxKeyAdmin{}, claims.Admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func MemberIDFromContext(ctx context.Context) int64 {
	return ctx.Value(ctxKeyMemberID{}).(int64)
}

func MemberNameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(ctxKeyMemberName{}).(string); ok {
		return name
	}
	return ""
}

func IsAdminFromContext(ctx context.Context) bool {
	admin, ok := ctx.Value(ctxKeyAdmin{}).(bool)
	return ok && admin
}

func ContextWithMember(ctx context.Context, memberID int64, name string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyMemberID{}, memberID)
	return context.WithValue(ctx, ctxKeyMemberName{}, name)
}

// RequireAdmin gates a route group on the token's admin claim. It must
// sit inside JWTMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdminFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
