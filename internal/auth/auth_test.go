package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  "user-123",
		"aud":  "authenticated",
		"role": "authenticated",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("", "authenticated")
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	v, err := NewVerifier(testSecret, "authenticated")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   func() string
		wantSub string
	}{
		{
			name:    "valid",
			token:   func() string { return sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()) },
			wantSub: "user-123",
		},
		{
			name: "wrong secret",
			token: func() string {
				return sign(t, jwt.SigningMethodHS256, []byte("another-secret"), validClaims())
			},
		},
		{
			name: "expired",
			token: func() string {
				c := validClaims()
				c["exp"] = time.Now().Add(-time.Hour).Unix()
				return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
		},
		{
			name: "no expiry",
			token: func() string {
				c := validClaims()
				delete(c, "exp")
				return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
		},
		{
			name: "wrong audience",
			token: func() string {
				c := validClaims()
				c["aud"] = "anon"
				return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
		},
		{
			name: "missing subject",
			token: func() string {
				c := validClaims()
				delete(c, "sub")
				return sign(t, jwt.SigningMethodHS256, []byte(testSecret), c)
			},
		},
		{
			name: "other hmac size",
			token: func() string {
				return sign(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims())
			},
		},
		{
			name:  "garbage",
			token: func() string { return "not.a.token" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := v.Verify(tt.token())
			if tt.wantSub == "" {
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.Empty(t, sub)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, sub)
		})
	}
}

func TestVerifyWithoutAudience(t *testing.T) {
	v, err := NewVerifier(testSecret, "")
	require.NoError(t, err)

	c := validClaims()
	delete(c, "aud")
	sub, err := v.Verify(sign(t, jwt.SigningMethodHS256, []byte(testSecret), c))
	require.NoError(t, err)
	assert.Equal(t, "user-123", sub)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]struct {
		header string
		want   string
	}{
		"missing":      {header: "", want: ""},
		"wrong scheme": {header: "Basic abc", want: ""},
		"empty token":  {header: "Bearer ", want: ""},
		"ok":           {header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		"lowercase":    {header: "bearer abc", want: "abc"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := BearerToken(r)
			if tt.want == "" {
				assert.ErrorIs(t, err, ErrMissingToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMiddleware(t *testing.T) {
	v, err := NewVerifier(testSecret, "authenticated")
	require.NoError(t, err)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	onFail := func(w http.ResponseWriter, _ *http.Request, _ error) {
		w.WriteHeader(http.StatusUnauthorized)
	}
	h := Middleware(v, onFail)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, seen)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-123", seen)
}
