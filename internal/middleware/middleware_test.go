package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/metrics"
)

func TestBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
		{"Bearer a b", ""},
	}
	for _, tt := range tests {
		if got := bearer(tt.header); got != tt.want {
			t.Errorf("bearer(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestRecoveryReturnsJSON500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "Internal Server Error") {
		t.Fatalf("got %d %s", w.Code, w.Body)
	}
}

func TestRequestLoggerObservesRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New(prometheus.NewRegistry())
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop(), m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/7", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if n := testutil.CollectAndCount(m.HTTPRequests); n != 1 {
		t.Fatalf("observed %d series, want 1", n)
	}
}

func TestCSRFDisabledWithoutKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CSRF(nil, false, nil))
	r.POST("/form", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCSRFIssuesTokenOnSafeRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CSRF([]byte("0123456789abcdef0123456789abcdef"), false, nil))
	r.GET("/view", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/form", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/view", nil))
	if w.Code != http.StatusOK || w.Header().Get(CSRFHeader) == "" {
		t.Fatalf("GET = %d, token %q", w.Code, w.Header().Get(CSRFHeader))
	}

	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("POST without token = %d", w.Code)
	}
}

func TestSaveReplacesQueuedSessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewCookieStore("0123456789abcdef0123456789abcdef", false)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	http.SetCookie(c.Writer, &http.Cookie{Name: "_gorilla_csrf", Value: "keep"})
	sess, _ := store.Get(c.Request, SessionName)
	c.Set(ctxSession, sess)
	sess.Values[sessionClientID] = "c1"
	if err := save(c, sess); err != nil {
		t.Fatal(err)
	}
	if err := SetIDToken(c, "tok"); err != nil {
		t.Fatal(err)
	}
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	var sessionCookies, others int
	for _, ck := range w.Result().Cookies() {
		switch ck.Name {
		case SessionName:
			sessionCookies++
		case "_gorilla_csrf":
			others++
		}
	}
	if sessionCookies != 1 || others != 1 {
		t.Fatalf("session cookies = %d, other cookies = %d, want 1 and 1", sessionCookies, others)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range w.Result().Cookies() {
		req.AddCookie(ck)
	}
	got, err := store.Get(req, SessionName)
	if err != nil {
		t.Fatal(err)
	}
	if got.Values[sessionIDToken] != "tok" || got.Values[sessionClientID] != "c1" {
		t.Errorf("decoded session = %v", got.Values)
	}
}
