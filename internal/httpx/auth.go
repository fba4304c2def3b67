package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

// Claims identify the cashier and the store their session is bound to.
type Claims struct {
	StoreID string `json:"store_id"`
	UserID  string `json:"user_id"`
	jwt.RegisteredClaims
}

type Actor struct {
	StoreID pos.StoreID
	UserID  string
}

func (a Actor) Cart() pos.CartKey { return pos.CartKey{StoreID: a.StoreID, UserID: a.UserID} }

type actorKey struct{}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func IssueToken(secret []byte, store, user string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := &Claims{
		StoreID: store,
		UserID:  user,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

func ParseToken(secret []byte, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if c.StoreID == "" || c.UserID == "" {
		return nil, errors.New("token lacks store or user")
	}
	return c, nil
}

// Authenticate resolves the store and cashier from the bearer token. Every
// handler behind it reads them from the request context instead of trusting
// the body.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token", Kind: "UNAUTHORIZED"})
				return
			}
			c, err := ParseToken(secret, raw)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token", Kind: "UNAUTHORIZED"})
				return
			}
			ctx := WithActor(r.Context(), Actor{StoreID: pos.StoreID(c.StoreID), UserID: c.UserID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
