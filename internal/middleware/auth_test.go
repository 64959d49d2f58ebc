package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func validClaims(sub, role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

func newAuthRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"caller": CallerID(c), "role": CallerRole(c)})
	})
	r.GET("/probe", handlers...)
	return r
}

func TestRequired(t *testing.T) {
	t.Parallel()
	auth := NewAuthenticator(testSecret)
	router := newAuthRouter(auth.Required())

	testCases := []struct {
		name       string
		setup      func(*testing.T, *http.Request)
		wantStatus int
	}{
		{
			name:       "no token",
			setup:      func(*testing.T, *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "valid bearer",
			setup: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("u1", "rider")))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "valid cookie",
			setup: func(t *testing.T, r *http.Request) {
				r.AddCookie(&http.Cookie{Name: TokenCookie, Value: signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("u1", "rider"))})
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "wrong secret",
			setup: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, "other", jwt.SigningMethodHS256, validClaims("u1", "rider")))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong algorithm",
			setup: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.SigningMethodHS512, validClaims("u1", "rider")))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired",
			setup: func(t *testing.T, r *http.Request) {
				claims := validClaims("u1", "rider")
				claims["exp"] = time.Now().Add(-time.Minute).Unix()
				r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.SigningMethodHS256, claims))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "missing subject",
			setup: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"role": "rider"}))
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			tc.setup(t, req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tc.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestOptional_AllowsAnonymous(t *testing.T) {
	t.Parallel()
	router := newAuthRouter(NewAuthenticator(testSecret).Optional())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != `{"caller":"","role":""}` {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	auth := NewAuthenticator(testSecret)
	router := newAuthRouter(auth.Required(), RequireRole("driver", "admin"))

	testCases := []struct {
		role       string
		wantStatus int
	}{
		{role: "driver", wantStatus: http.StatusOK},
		{role: "admin", wantStatus: http.StatusOK},
		{role: "rider", wantStatus: http.StatusForbidden},
		{role: "", wantStatus: http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run("role "+tc.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("u1", tc.role)))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, w.Code)
			}
		})
	}
}
