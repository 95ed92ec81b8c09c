package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	httpError "github.com/IT-Nick/mathquiz/pkg/http"
)

// UserIDClaim имя claim с идентификатором пользователя
const UserIDClaim = "user_id"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("user_id does not match token")
)

type userIDKey struct{}

// Identity проверяет Bearer токен (HS256) и кладет user_id из него в контекст.
// Без секрета или без заголовка Authorization запрос проходит без изменений.
func Identity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := ParseToken(secret, strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
			if err != nil {
				httpError.ErrorResponse(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// NewToken подписывает токен с user_id
func NewToken(secret string, userID int64, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		UserIDClaim: userID,
		"exp":       time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок токена и возвращает user_id
func ParseToken(secret, tokenString string) (int64, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}

	var userID int64
	switch v := claims[UserIDClaim].(type) {
	case float64:
		userID = int64(v)
	case string:
		userID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: malformed %s", ErrInvalidToken, UserIDClaim)
		}
	}
	if userID <= 0 {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidToken, UserIDClaim)
	}
	return userID, nil
}

// WithUserID кладет user_id в контекст
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext возвращает user_id из проверенного токена
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey{}).(int64)
	return userID, ok
}

// ResolveUserID сверяет явно переданный user_id с токеном.
// Без токена явный user_id принимается как есть, при отсутствии явного берется user_id из токена.
func ResolveUserID(ctx context.Context, explicit int64) (int64, error) {
	tokenUserID, ok := UserIDFromContext(ctx)
	if !ok {
		return explicit, nil
	}
	if explicit == 0 {
		return tokenUserID, nil
	}
	if explicit != tokenUserID {
		return 0, ErrForbidden
	}
	return explicit, nil
}
