package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func identityProbe(t *testing.T, secret, header string) (*httptest.ResponseRecorder, int64, bool) {
	t.Helper()

	var (
		gotID int64
		gotOK bool
	)
	h := Identity(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/modules", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, gotID, gotOK
}

func TestIdentity_ValidToken(t *testing.T) {
	token, err := NewToken(testSecret, 7, time.Hour)
	if err != nil {
		t.Fatalf("Ошибка подписи: %v", err)
	}

	rec, userID, ok := identityProbe(t, testSecret, "Bearer "+token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Ожидался проход запроса, получено %d", rec.Code)
	}
	if !ok || userID != 7 {
		t.Errorf("Ожидался user_id 7 в контексте, получено %d (%v)", userID, ok)
	}
}

func TestIdentity_InvalidToken(t *testing.T) {
	foreign, _ := NewToken("other-secret", 7, time.Hour)
	expired, _ := NewToken(testSecret, 7, -time.Hour)
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{UserIDClaim: 7}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}).SignedString([]byte(testSecret))

	for name, token := range map[string]string{
		"чужой секрет":  foreign,
		"истекший":      expired,
		"алгоритм none": noneAlg,
		"без user_id":   noUser,
		"не токен":      "garbage",
	} {
		t.Run(name, func(t *testing.T) {
			rec, _, _ := identityProbe(t, testSecret, "Bearer "+token)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Ожидался 401, получено %d", rec.Code)
			}
		})
	}
}

func TestIdentity_Passthrough(t *testing.T) {
	rec, _, ok := identityProbe(t, testSecret, "")
	if rec.Code != http.StatusNoContent || ok {
		t.Errorf("Запрос без токена должен проходить без идентичности: %d %v", rec.Code, ok)
	}

	rec, _, ok = identityProbe(t, "", "Bearer whatever")
	if rec.Code != http.StatusNoContent || ok {
		t.Errorf("Без секрета токен не проверяется: %d %v", rec.Code, ok)
	}
}

func TestParseToken_StringClaim(t *testing.T) {
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		UserIDClaim: "42",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	userID, err := ParseToken(testSecret, token)
	if err != nil || userID != 42 {
		t.Errorf("Ожидался user_id 42, получено %d, %v", userID, err)
	}
}

func TestResolveUserID(t *testing.T) {
	anonymous := context.Background()
	if id, err := ResolveUserID(anonymous, 5); err != nil || id != 5 {
		t.Errorf("Без токена явный user_id принимается: %d, %v", id, err)
	}

	authed := WithUserID(context.Background(), 7)
	if id, err := ResolveUserID(authed, 0); err != nil || id != 7 {
		t.Errorf("Без явного user_id берется токен: %d, %v", id, err)
	}
	if id, err := ResolveUserID(authed, 7); err != nil || id != 7 {
		t.Errorf("Совпадающий user_id принимается: %d, %v", id, err)
	}
	if _, err := ResolveUserID(authed, 8); !errors.Is(err, ErrForbidden) {
		t.Errorf("Ожидалась ErrForbidden, получено %v", err)
	}
}
