package auth

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	jwtExpirationHours = 24
)

var jwtSecretKey = os.Getenv("JWT_SECRET")

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
	roleKey     contextKey = "role"
)

// User is a service account able to view or control the timer.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type NewUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type UserLoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserLoginResponse struct {
	Token string `json:"token"`
}

type JWTClaims struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateJWT issues a signed token for the given user.
func GenerateJWT(user *User) (string, error) {
	if user.ID == "" || user.Username == "" {
		return "", jwt.ErrInvalidKey
	}

	now := time.Now()
	claims := &JWTClaims{
		Username: user.Username,
		UserID:   user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpirationHours * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "focus-service",
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecretKey))
}

// ValidateJWT parses and verifies a token.
func ValidateJWT(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrInvalidKey
	}
	return claims, nil
}

// GetUserFromContext extracts the authenticated user from a request context.
func GetUserFromContext(ctx context.Context) (userID, username, role string, ok bool) {
	userID, ok1 := ctx.Value(userIDKey).(string)
	username, ok2 := ctx.Value(usernameKey).(string)
	role, ok3 := ctx.Value(roleKey).(string)
	if !ok1 || !ok2 || !ok3 {
		return "", "", "", false
	}
	return userID, username, role, true
}

// RequireRole builds middleware that authenticates the bearer token and
// requires the user's current role to be one of the allowed ones. The role is
// re-read from the repository so revocations take effect immediately.
func RequireRole(repo AuthRepository, allowed ...string) func(http.Handler) http.Handler {
	allowedSet := make(map[string]bool, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := ValidateJWT(tokenParts[1])
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			user, err := repo.GetUserInfo(r.Context(), claims.Username)
			if err != nil {
				http.Error(w, "Failed to get user information", http.StatusInternalServerError)
				return
			}
			if !allowedSet[user.Role] {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, usernameKey, claims.Username)
			ctx = context.WithValue(ctx, roleKey, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminRole allows only admins.
func RequireAdminRole(repo AuthRepository) func(http.Handler) http.Handler {
	return RequireRole(repo, RoleAdmin)
}

// RequireAnyUserRole allows regular users and admins.
func RequireAnyUserRole(repo AuthRepository) func(http.Handler) http.Handler {
	return RequireRole(repo, RoleUser, RoleAdmin)
}
