package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("unit-test-signing-secret")

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestRequireAuthInjectsIdentity(t *testing.T) {
	authn, err := NewAuthenticator(testSecret)
	if err != nil {
		t.Fatalf("failed to construct authenticator: %v", err)
	}

	tokenStr := signTestToken(t, jwt.MapClaims{
		"sub":      "buyer-1",
		"email":    "buyer@example.com",
		"role":     "buyer",
		"approved": true,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	var got *Identity
	handler := authn.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if got == nil {
		t.Fatal("expected identity in context")
	}
	if got.UID != "buyer-1" {
		t.Fatalf("expected uid buyer-1, got %q", got.UID)
	}
	if !got.Approved {
		t.Fatal("expected approved identity")
	}
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	authn, err := NewAuthenticator(testSecret)
	if err != nil {
		t.Fatalf("failed to construct authenticator: %v", err)
	}

	handler := authn.RequireAuth()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be invoked")
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	authn, err := NewAuthenticator(testSecret, WithLeeway(time.Second))
	if err != nil {
		t.Fatalf("failed to construct authenticator: %v", err)
	}

	tokenStr := signTestToken(t, jwt.MapClaims{
		"sub": "buyer-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	handler := authn.RequireAuth()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be invoked")
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestRequireAuthEnforcesRoles(t *testing.T) {
	authn, err := NewAuthenticator(testSecret)
	if err != nil {
		t.Fatalf("failed to construct authenticator: %v", err)
	}

	tokenStr := signTestToken(t, jwt.MapClaims{
		"sub":  "buyer-1",
		"role": "buyer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	handler := authn.RequireAuth(RoleAdmin)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be invoked")
	}))

	req := httptest.NewRequest(http.MethodPut, "/admin/orders/o1/status", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}

func TestVerifyTokenEnforcesIssuer(t *testing.T) {
	authn, err := NewAuthenticator(testSecret, WithIssuer("loomline-auth"), WithLeeway(time.Second))
	if err != nil {
		t.Fatalf("failed to construct authenticator: %v", err)
	}

	wrongIssuer := signTestToken(t, jwt.MapClaims{
		"sub": "buyer-1",
		"iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := authn.VerifyToken(wrongIssuer); err == nil {
		t.Fatal("expected issuer mismatch to fail verification")
	}

	rightIssuer := signTestToken(t, jwt.MapClaims{
		"sub": "buyer-1",
		"iss": "loomline-auth",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	identity, err := authn.VerifyToken(rightIssuer)
	if err != nil {
		t.Fatalf("expected matching issuer to verify, got %v", err)
	}
	if identity.UID != "buyer-1" {
		t.Fatalf("expected uid buyer-1, got %q", identity.UID)
	}
}

func TestVerifyTokenAppliesFallbackRole(t *testing.T) {
	authn, err := NewAuthenticator(testSecret, WithFallbackRole(RoleBuyer))
	if err != nil {
		t.Fatalf("failed to construct authenticator: %v", err)
	}

	tokenStr := signTestToken(t, jwt.MapClaims{
		"sub": "buyer-2",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	identity, err := authn.VerifyToken(tokenStr)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}
	if identity.Role != RoleBuyer {
		t.Fatalf("expected fallback role buyer, got %q", identity.Role)
	}
}
