package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey string

const userKey ctxKey = "user"

// Auth issues and checks HS256 bearer tokens for a single configured user.
type Auth struct {
	SigningKey   []byte
	Username     string
	PasswordHash string
	TTL          time.Duration
	Now          func() time.Time
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HashPassword returns a bcrypt hash suitable for server.password_hash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (a *Auth) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Auth) ttl() time.Duration {
	if a.TTL <= 0 {
		return time.Hour
	}
	return a.TTL
}

func (a *Auth) checkPassword(user credentials) bool {
	if a.Username == "" || user.Username != a.Username {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(user.Password)) == nil
}

// Issue signs a token for username.
func (a *Auth) Issue(username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"exp":      a.now().Add(a.ttl()).Unix(),
	})
	return token.SignedString(a.SigningKey)
}

// GetToken exchanges a username and password for a bearer token.
func (a *Auth) GetToken(w http.ResponseWriter, r *http.Request) {
	var user credentials
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if !a.checkPassword(user) {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	tokenString, err := a.Issue(user.Username)
	if err != nil {
		http.Error(w, "Could not sign token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}

func (a *Auth) parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.SigningKey, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	name, _ := claims["username"].(string)
	return name, nil
}

// Middleware rejects requests without a valid bearer token.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}
		name, err := a.parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFrom returns the authenticated username.
func UserFrom(ctx context.Context) string {
	name, _ := ctx.Value(userKey).(string)
	return name
}
