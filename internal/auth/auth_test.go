package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testBotToken = "123456:TEST-token"

func signInitData(t *testing.T, token string, values url.Values) string {
	t.Helper()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	signed := url.Values{}
	for k := range values {
		signed.Set(k, values.Get(k))
	}
	signed.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return signed.Encode()
}

func initDataValues(authDate time.Time) url.Values {
	return url.Values{
		"auth_date":   {strconv.FormatInt(authDate.Unix(), 10)},
		"query_id":    {"AAH"},
		"user":        {`{"id":42,"first_name":"Ada","username":"ada"}`},
		"start_param": {"REF1123"},
	}
}

func TestValidateInitData(t *testing.T) {
	now := time.Now()
	data := signInitData(t, testBotToken, initDataValues(now))

	login, err := ValidateInitData(testBotToken, data, now)
	if err != nil {
		t.Fatalf("ValidateInitData failed: %v", err)
	}
	if login.User.ID != 42 || login.User.Username != "ada" || login.User.FirstName != "Ada" || login.StartParam != "REF1123" {
		t.Errorf("unexpected login %+v", login)
	}

	if _, err := ValidateInitData("654321:other", data, now); err == nil {
		t.Errorf("expected signature check to fail with another bot token")
	}

	tampered := strings.Replace(data, "Ada", "Eve", 1)
	if _, err := ValidateInitData(testBotToken, tampered, now); err == nil {
		t.Errorf("expected tampered data to be rejected")
	}

	stale := signInitData(t, testBotToken, initDataValues(now.Add(-48*time.Hour)))
	if _, err := ValidateInitData(testBotToken, stale, now); err == nil {
		t.Errorf("expected stale init data to be rejected")
	}

	if _, err := ValidateInitData("", data, now); err == nil {
		t.Errorf("expected an error without a bot token")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken(7, 42)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 7 || claims.TelegramID != 42 {
		t.Errorf("unexpected claims %+v", claims)
	}

	InitJWT("another-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Errorf("expected token signed with another secret to be rejected")
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitJWT("test-secret")

	router := gin.New()
	router.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		telegramID, ok := GetTelegramID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "telegram_id": telegramID})
	})

	token, _ := GenerateToken(7, 42)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestValidateTokenRejectsExpiredAndAnonymous(t *testing.T) {
	InitJWT("test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:     7,
		TelegramID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if _, err := ValidateToken(signed); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}

	anonymous, err := GenerateToken(7, 0)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ValidateToken(anonymous); err == nil {
		t.Errorf("expected token without telegram id to be rejected")
	}
}
