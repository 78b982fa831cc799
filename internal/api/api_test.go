package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/campmeeting/internal/client"
	"github.com/example/campmeeting/internal/core"
	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/identity"
	"github.com/example/campmeeting/internal/metrics"
	"github.com/example/campmeeting/internal/middleware"
	"github.com/example/campmeeting/internal/render"
)

type fakeToolkit struct {
	passwords map[string]string // email -> password
	uids      map[string]string // email -> uid
}

func (f *fakeToolkit) VerifyPassword(_ context.Context, email, password string) (*identity.Session, error) {
	if want, ok := f.passwords[email]; !ok || want != password {
		return nil, identity.ErrInvalidCredential
	}
	uid := f.uids[email]
	return &identity.Session{IDToken: "tok-" + uid, UID: uid, Email: email, Provider: "password"}, nil
}

func (f *fakeToolkit) SignUp(_ context.Context, email, password, displayName string) (*identity.Session, error) {
	if _, ok := f.passwords[email]; ok {
		return nil, identity.ErrEmailExists
	}
	uid := "new-" + strings.Split(email, "@")[0]
	f.passwords[email], f.uids[email] = password, uid
	return &identity.Session{IDToken: "tok-" + uid, UID: uid, Email: email, DisplayName: displayName, Provider: "password"}, nil
}

func (f *fakeToolkit) SendPasswordReset(context.Context, string) error { return nil }

func (f *fakeToolkit) VerifyAssertion(context.Context, string, string) (*identity.Session, error) {
	return &identity.Session{IDToken: "tok-g1", UID: "g1", Email: "g1@example.com", Provider: "google.com"}, nil
}

type fakeAdmin struct{}

func (fakeAdmin) VerifyIDToken(_ context.Context, token string) (*auth.Token, error) {
	uid, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return nil, errors.New("malformed token")
	}
	return &auth.Token{
		UID:      uid,
		Firebase: auth.FirebaseInfo{SignInProvider: "password"},
		Claims:   map[string]interface{}{"email": uid + "@example.com"},
	}, nil
}

func (fakeAdmin) RevokeRefreshTokens(context.Context, string) error { return nil }

type harness struct {
	t       *testing.T
	store   *db.MemoryStore
	router  *gin.Engine
	cookies []*http.Cookie
}

func newHarness(t *testing.T, oauth identity.OAuthConfig, csrfKey []byte, opts ...func(*RouteDeps)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := db.NewMemoryStore(nil)
	ctx := context.Background()
	for uid, role := range map[string]string{"u1": "attendee", "boss": "admin"} {
		if err := store.Set(ctx, db.UsersCollection, uid, map[string]interface{}{
			"uid": uid, "email": uid + "@example.com", "role": role, "church": "Grace",
		}); err != nil {
			t.Fatal(err)
		}
	}

	renderer, err := render.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	profiles := db.NewProfileRepository(store)
	profileSvc := core.NewProfileService(profiles, nil)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	registry := client.NewRegistry(client.Deps{
		Store:    store,
		Profiles: profileSvc,
		Users:    profiles,
		Schedule: db.NewScheduleRepository(store),
		Renderer: renderer,
		Metrics:  m,
	}, time.Hour)
	t.Cleanup(registry.Close)

	toolkit := &fakeToolkit{
		passwords: map[string]string{"u1@example.com": "pw", "boss@example.com": "pw"},
		uids:      map[string]string{"u1@example.com": "u1", "boss@example.com": "boss"},
	}
	deps := RouteDeps{
		Registry: registry,
		Sessions: middleware.NewCookieStore("0123456789abcdef0123456789abcdef", false),
		Identity: identity.NewService(toolkit, fakeAdmin{}, oauth, nil),
		Services: Services{
			Profiles:      profileSvc,
			Prayers:       core.NewPrayerService(store, nil, nil),
			Feedback:      core.NewFeedbackService(store, nil, nil),
			Announcements: core.NewAnnouncementService(store),
		},
		Metrics:  m,
		Gatherer: reg,
		CSRFKey:  csrfKey,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	router := gin.New()
	SetupRoutes(router, deps)
	return &harness{t: t, store: store, router: router}
}

// do sends a request carrying the harness cookies and keeps any cookies set in reply.
func (h *harness) do(method, target string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	for _, set := range w.Result().Cookies() {
		h.keep(set)
	}
	return w
}

// keep stores c, replacing a cookie of the same name like a browser would.
func (h *harness) keep(c *http.Cookie) {
	for i, old := range h.cookies {
		if old.Name == c.Name {
			h.cookies[i] = c
			return
		}
	}
	h.cookies = append(h.cookies, c)
}

func (h *harness) login(email string) {
	h.t.Helper()
	w := h.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "pw"}, nil)
	if w.Code != http.StatusOK {
		h.t.Fatalf("login status = %d, body = %s", w.Code, w.Body)
	}
}

func (h *harness) view(fragment string) client.View {
	h.t.Helper()
	w := h.do(http.MethodGet, "/api/v1/view?fragment="+url.QueryEscape(fragment), nil, nil)
	if w.Code != http.StatusOK {
		h.t.Fatalf("view status = %d, body = %s", w.Code, w.Body)
	}
	var v client.View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		h.t.Fatal(err)
	}
	return v
}

func TestViewSignedOutRedirectsToLogin(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	v := h.view("#/home")
	if v.Outcome != "redirect-login" || v.Target != "/login.html?return=%2F%23%2Fhome" {
		t.Fatalf("view = %+v", v)
	}
	if !v.Nav.ShowLoginCTA || v.Nav.ShowLogout {
		t.Errorf("nav = %+v", v.Nav)
	}
}

func TestLoginKeepsReturnPath(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	w := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "u1@example.com", "password": "pw", "return": "/#/prayer"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp SignInResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Redirect != "/#/prayer" || resp.Identity == nil || resp.Identity.UID != "u1" {
		t.Fatalf("resp = %+v", resp)
	}

	w = h.do(http.MethodPost, "/auth/login", map[string]string{"email": "u1@example.com", "password": "pw", "return": "//evil.example"}, nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Redirect != "/#/home" {
		t.Errorf("offsite return accepted: %q", resp.Redirect)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	w := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "u1@example.com", "password": "nope"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != identity.ErrInvalidCredential.Error() {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestPrayerSubmissionReachesOwnList(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	h.login("u1@example.com")

	w := h.do(http.MethodPost, "/api/v1/prayers", map[string]interface{}{"requestText": "safe travels"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		v := h.view("#/prayer")
		if strings.Contains(string(v.Fragments["myPrayerList"]), "safe travels") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("prayer never listed: %+v", v.Fragments)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFormPostsRequireLogin(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	w := h.do(http.MethodPost, "/api/v1/feedback", map[string]interface{}{"type": "general"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if docs, _ := h.store.GetAll(context.Background(), db.FeedbackCollection); len(docs) != 0 {
		t.Fatal("signed-out submission was written")
	}
}

func TestAttendeeCannotUseAdminEndpoints(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	h.login("u1@example.com")

	w := h.do(http.MethodPost, "/api/v1/admin/announcements", map[string]string{"title": "t", "message": "m"}, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if docs, _ := h.store.GetAll(context.Background(), db.AnnouncementsCollection); len(docs) != 0 {
		t.Fatal("forbidden announcement was written")
	}
	v := h.view("#/admin/analytics")
	if v.Outcome != "redirect-home" || v.Target != "#/home" {
		t.Errorf("view = %+v", v)
	}
}

func TestAdminFlagsFeedback(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	ctx := context.Background()
	_ = h.store.Set(ctx, db.FeedbackCollection, "f1", map[string]interface{}{
		"type": "general", "timestamp": time.Now(), "flags": map[string]interface{}{"needsResponse": false},
	})
	h.login("boss@example.com")

	w := h.do(http.MethodPost, "/api/v1/admin/feedback/f1/flag", map[string]bool{"needsResponse": true}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	doc, err := h.store.Get(ctx, db.FeedbackCollection, "f1")
	if err != nil {
		t.Fatal(err)
	}
	flags, _ := doc.Data["flags"].(map[string]interface{})
	if flags["needsResponse"] != true || doc.Data["type"] != "general" {
		t.Fatalf("doc = %+v", doc.Data)
	}
}

func TestBearerTokenIdentifiesRequest(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	w := h.do(http.MethodGet, "/api/v1/view?fragment=%23%2Fadmin%2Ffeedback", nil, http.Header{"Authorization": {"Bearer tok-boss"}})
	var v client.View
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	if v.Outcome != "activate" {
		t.Fatalf("view = %+v", v)
	}
}

func TestLogoutSignsTheSessionOut(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	h.login("u1@example.com")
	if v := h.view("#/home"); v.Outcome != "activate" {
		t.Fatalf("signed-in home = %+v", v)
	}
	if w := h.do(http.MethodPost, "/auth/logout", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}
	if v := h.view("#/home"); v.Outcome != "redirect-login" {
		t.Fatalf("signed-out home = %+v", v)
	}
}

func TestGoogleFallsBackToRedirect(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{ClientID: "cid", ClientSecret: "secret", RedirectURL: "http://localhost/auth/google/callback"}, nil)
	w := h.do(http.MethodPost, "/auth/google", map[string]string{}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp SignInResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	consent, err := url.Parse(resp.Redirect)
	if err != nil || consent.Host != "accounts.google.com" || consent.Query().Get("state") == "" {
		t.Fatalf("redirect = %q", resp.Redirect)
	}

	w = h.do(http.MethodGet, "/auth/google/callback?state=wrong&code=x", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("callback with wrong state = %d", w.Code)
	}
}

func TestGooglePopupCredentialSignsIn(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	w := h.do(http.MethodPost, "/auth/google", map[string]string{"credential": "google-id-token"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	doc, err := h.store.Get(context.Background(), db.UsersCollection, "g1")
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if doc.Data["authProvider"] != "google" || doc.Data["role"] != "attendee" {
		t.Errorf("profile = %+v", doc.Data)
	}
}

func TestGoogleWithoutRedirectConfigured(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	w := h.do(http.MethodPost, "/auth/google", map[string]string{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}

func TestCSRFProtectsFormEncodedPosts(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, []byte("0123456789abcdef0123456789abcdef"))
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("email=u1%40example.com&password=pw"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("form post without token = %d", w.Code)
	}

	h.login("u1@example.com")
}

func TestHealthPingMetrics(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	for path, want := range map[string]string{"/health": `"status":"UP"`, "/ping": "pong"} {
		w := h.do(http.MethodGet, path, nil, nil)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), want) {
			t.Errorf("%s = %d %s", path, w.Code, w.Body)
		}
	}
	if w := h.do(http.MethodGet, "/metrics", nil, nil); w.Code != http.StatusOK {
		t.Errorf("/metrics = %d", w.Code)
	}
}

func TestWithoutIdentityAuthRoutesAreAbsent(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil, func(d *RouteDeps) { d.Identity = nil })

	w := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "u1@example.com", "password": "pw"}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("login status = %d, want 404", w.Code)
	}

	w = h.do(http.MethodGet, "/api/v1/view?fragment=%23%2Fhome", nil, http.Header{"Authorization": {"Bearer tok-u1"}})
	var v client.View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.Outcome != "redirect-login" {
		t.Fatalf("bearer token accepted without identity: %+v", v)
	}

	if v := h.view("#/schedule"); v.Outcome != "activate" {
		t.Fatalf("public view = %+v", v)
	}
}

func TestLoginOnFreshSessionSetsOneSessionCookie(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	w := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "u1@example.com", "password": "pw"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	n := 0
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionName {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("login set %d session cookies, want 1", n)
	}
	if v := h.view("#/home"); v.Outcome != "activate" {
		t.Fatalf("view after login = %+v", v)
	}
}

func TestFormEncodedAnonymousPrayer(t *testing.T) {
	h := newHarness(t, identity.OAuthConfig{}, nil)
	h.login("u1@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prayers", strings.NewReader("requestText=hi&isAnonymous=on"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}

	docs, err := h.store.GetAll(context.Background(), db.PrayerRequestsCollection)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d prayer requests", len(docs))
	}
	if owner, ok := docs[0].Data["userId"]; !ok || owner != nil {
		t.Errorf("userId = %v, want null", owner)
	}
	if docs[0].Data["isAnonymous"] != true {
		t.Errorf("isAnonymous = %v", docs[0].Data["isAnonymous"])
	}
}
