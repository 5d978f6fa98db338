package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quiz-attempt-service/internal/domain"
)

// Claims is the bearer token payload. Subject carries the numeric user id.
type Claims struct {
	Username  string   `json:"username"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 tokens. Identity management itself lives elsewhere;
// this service only trusts what a valid token says about the caller.
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret, issuer string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue mints a token for user.
func (a *Authenticator) Issue(user domain.User) (string, error) {
	now := a.now()
	claims := &Claims{
		Username:  user.Login,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Mail,
		Roles:     user.RoleSet.Names(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.UserID, 10),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse verifies tokenStr and builds the principal it describes.
func (a *Authenticator) Parse(tokenStr string) (domain.User, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return domain.User{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.User{}, errors.New("invalid token")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.User{}, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return domain.User{
		UserID:    id,
		Login:     claims.Username,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Mail:      claims.Email,
		RoleSet:   domain.ParseRoles(claims.Roles),
	}, nil
}

// Middleware rejects requests without a valid bearer token and stores the principal in the context.
// Browsers cannot set headers on websocket upgrades, so the access_token query parameter is accepted too.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("access_token")
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		}
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Kind: "unauthorized", Message: "missing bearer token"})
			return
		}
		user, err := a.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Kind: "unauthorized", Message: "invalid token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), user)))
	})
}

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

func PrincipalFromContext(ctx context.Context) domain.Principal {
	if p, ok := ctx.Value(ctxKeyPrincipal).(domain.Principal); ok {
		return p
	}
	return nil
}
