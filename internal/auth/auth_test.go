package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Cablecalc/internal/repo"
)

func newEnv() *Authenv {
	return &Authenv{JWTkey: []byte("test-key"), Repo: repo.NewMemory()}
}

func TestIssueAndParseToken(t *testing.T) {
	env := newEnv()
	tok, exp, err := env.IssueToken(7, "sparky", time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), exp, time.Minute)

	claims, err := env.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "sparky", claims.Login)

	t.Run("expired", func(t *testing.T) {
		old, _, err := env.IssueToken(7, "sparky", time.Now().Add(-2*TokenTTL))
		require.NoError(t, err)
		_, err = env.ParseToken(old)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := &Authenv{JWTkey: []byte("other")}
		_, err := other.ParseToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong method", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7, Login: "sparky"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = env.ParseToken(none)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRegisterLoginAndMiddleware(t *testing.T) {
	env := newEnv()

	rec := httptest.NewRecorder()
	env.RegisterHandler(rec, httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"login":"sparky","password":"hunter22","email":"s@example.com"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies())

	rec = httptest.NewRecorder()
	env.RegisterHandler(rec, httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"login":"sparky","password":"hunter22","email":"s@example.com"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	env.AuthHandler(rec, httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"login":"sparky","password":"wrong-one"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	env.AuthHandler(rec, httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"login":"sparky","password":"hunter22"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)

	var seen int
	var seenLogin string
	protected := env.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
		seenLogin, _ = UserLogin(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, seen)
	assert.Equal(t, "sparky", seenLogin)

	req = httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: resp.Token})
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminMiddleware(t *testing.T) {
	h := AdminMiddleware([]string{"chief"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name string
		ctx  func(*http.Request) *http.Request
		want int
	}{
		{"anonymous", func(r *http.Request) *http.Request { return r }, http.StatusForbidden},
		{"regular user", func(r *http.Request) *http.Request {
			return r.WithContext(WithUser(r.Context(), 2, "sparky"))
		}, http.StatusForbidden},
		{"admin", func(r *http.Request) *http.Request {
			return r.WithContext(WithUser(r.Context(), 1, "chief"))
		}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.ctx(httptest.NewRequest(http.MethodPost, "/api/catalog/import", nil)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	AdminMiddleware(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, requestAs(t, "chief"))
	assert.Equal(t, http.StatusForbidden, rec.Code, "no admins configured means nobody")
}

func requestAs(t *testing.T, login string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/catalog/import", nil)
	return r.WithContext(WithUser(r.Context(), 1, login))
}

func TestRegisterValidation(t *testing.T) {
	env := newEnv()
	for _, body := range []string{
		`not json`,
		`{"login":"","password":"hunter22","email":"a@b"}`,
		`{"login":"x","password":"123","email":"a@b"}`,
	} {
		rec := httptest.NewRecorder()
		env.RegisterHandler(rec, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestLimitMiddleware(t *testing.T) {
	l := NewIPRateLimiter(0, 2)
	h := l.LimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/tools/vdrop/methods", nil)
		req.RemoteAddr = "10.0.0.1:" + strconv.Itoa(1000+i)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLimiterForgetsIdleVisitors(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.getLimiter("a")
	now = now.Add(time.Hour)
	l.getLimiter("b")

	assert.Len(t, l.ips, 1)
	assert.Contains(t, l.ips, "b")
}
