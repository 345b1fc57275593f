package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIssueAndParse(t *testing.T) {
	token, err := Issue("usher-1", false, "gradgate", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := Parse(token, "secret", "gradgate")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "usher-1" {
		t.Errorf("subject = %q; want usher-1", claims.Subject)
	}
	if claims.Admin {
		t.Error("admin flag should be false")
	}
}

func TestParseAdminClaim(t *testing.T) {
	token, err := Issue("registrar", true, "gradgate", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := Parse(token, "secret", "gradgate")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !claims.Admin {
		t.Error("admin flag should survive the round trip")
	}
}

func TestParseWrongKey(t *testing.T) {
	token, _ := Issue("usher-1", false, "gradgate", "secret", time.Hour)
	if _, err := Parse(token, "other-secret", "gradgate"); err == nil {
		t.Error("token signed with a different key should be rejected")
	}
}

func TestParseIssuerMismatch(t *testing.T) {
	token, _ := Issue("usher-1", false, "someone-else", "secret", time.Hour)
	if _, err := Parse(token, "secret", "gradgate"); err == nil {
		t.Error("token from another issuer should be rejected")
	}
}

func TestParseExpired(t *testing.T) {
	token, _ := Issue("usher-1", false, "gradgate", "secret", -time.Minute)
	if _, err := Parse(token, "secret", "gradgate"); err == nil {
		t.Error("expired token should be rejected")
	}
}

func newTestRouter(signingKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/", Middleware(signingKey, "gradgate"))
	g.GET("/open", func(c *gin.Context) { c.Status(http.StatusOK) })
	g.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	r := newTestRouter("secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", w.Code)
	}
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	r := newTestRouter("secret")
	token, _ := Issue("usher-1", false, "gradgate", "secret", time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d; want 200", w.Code)
	}
}

func TestMiddlewareDisabledWithoutKey(t *testing.T) {
	r := newTestRouter("")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d; want 200 with auth disabled", w.Code)
	}
}

func TestCallerClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware("secret", "gradgate"))

	var claims Claims
	var found bool
	r.GET("/whoami", func(c *gin.Context) {
		claims, found = CallerClaims(c)
		c.Status(http.StatusOK)
	})

	token, _ := Issue("usher-1", false, "gradgate", "secret", time.Hour)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if !found {
		t.Fatal("claims not available to the handler")
	}
	if claims.Subject != "usher-1" {
		t.Errorf("subject = %q; want usher-1", claims.Subject)
	}
}

func TestRequireAdmin(t *testing.T) {
	r := newTestRouter("secret")

	usher, _ := Issue("usher-1", false, "gradgate", "secret", time.Hour)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+usher)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d; want 403", w.Code)
	}

	registrar, _ := Issue("registrar", true, "gradgate", "secret", time.Hour)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+registrar)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("admin status = %d; want 200", w.Code)
	}
}
