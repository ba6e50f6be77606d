package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taskdeck/taskdeck-be/internal/models"
)

// ErrInvalidToken is returned for every verification failure: bad
// signature, malformed payload, wrong algorithm, or expired claim.
// Callers never learn which sub-case occurred.
var ErrInvalidToken = errors.New("invalid token")

// Claims defines the JWT claims structure.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type contextKey string

const userContextKey = contextKey("authUser")

// UserFinder looks up a user by id. Satisfied by services.UserService.
type UserFinder interface {
	GetUserByID(id int64) (models.User, error)
}

// TokenCodec issues and verifies signed bearer tokens. The secret,
// signing method, and TTL come from process configuration; the codec
// holds no other state and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewTokenCodec creates a TokenCodec. An unknown algorithm name is an
// error rather than a silent fallback.
func NewTokenCodec(secret string, algorithm string, ttl time.Duration) (*TokenCodec, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, errors.New("unknown signing algorithm: " + algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unsupported signing algorithm: " + algorithm)
	}
	return &TokenCodec{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// Issue creates a new signed token for a given user. IssuedAt is part
// of the signed payload, so tokens minted at different instants differ.
func (c *TokenCodec) Issue(user models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(c.method, claims)
	return token.SignedString(c.secret)
}

// Verify parses and validates a token string. Expiration is checked
// during parsing; all failures collapse to ErrInvalidToken.
func (c *TokenCodec) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{c.method.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware protects routes behind bearer authentication. A request
// reaches the wrapped handler only after its token verifies and the
// claimed user still exists; the user is then available through
// UserFromContext. A missing header, a non-Bearer scheme, an invalid
// token, and a deleted user all produce the same 401 response.
func (c *TokenCodec) Middleware(users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				unauthenticated(w)
				return
			}

			claims, err := c.Verify(tokenStr)
			if err != nil {
				unauthenticated(w)
				return
			}

			// Tokens outlive accounts: the claim alone is not proof
			// that the user still exists.
			user, err := users.GetUserByID(claims.UserID)
			if err != nil {
				unauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user resolved by Middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Any other shape counts as no credential supplied.
func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Authentication required"}`))
}
