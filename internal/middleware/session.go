package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/client"
)

// SessionName is the browser session cookie.
const SessionName = "campmeeting"

// Session values.
const (
	sessionClientID = "cid"
	sessionIDToken  = "idToken"
	sessionState    = "oauthState"
)

const (
	ctxSession = "session"
	ctxApp     = "clientApp"
)

// NewCookieStore creates the session store. secure marks cookies Secure with
// SameSite=None; otherwise SameSite=Lax for local development.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}
	return store
}

// Sessions loads the browser session, assigns it a client id on first use and
// attaches that client's App to the request.
func Sessions(store sessions.Store, registry *client.Registry, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, SessionName)
		if err != nil {
			// A cookie signed with an old secret decodes with an error but still yields a fresh session.
			logger.Debug("Discarding unreadable session cookie", zap.Error(err))
		}
		id, _ := sess.Values[sessionClientID].(string)
		if id == "" {
			id = uuid.NewString()
			sess.Values[sessionClientID] = id
			if err := save(c, sess); err != nil {
				logger.Error("Failed to save session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to start session", Details: err.Error()})
				return
			}
		}
		c.Set(ctxSession, sess)
		c.Set(ctxApp, registry.Get(c.Request.Context(), id))
		c.Next()
	}
}

// App returns the client App attached by Sessions.
func App(c *gin.Context) *client.App {
	app, _ := c.MustGet(ctxApp).(*client.App)
	return app
}

// Session returns the browser session attached by Sessions.
func Session(c *gin.Context) *sessions.Session {
	sess, _ := c.MustGet(ctxSession).(*sessions.Session)
	return sess
}

// IDToken returns the ID token kept in the session.
func IDToken(c *gin.Context) string {
	token, _ := Session(c).Values[sessionIDToken].(string)
	return token
}

// SetIDToken stores or, when token is empty, clears the session's ID token.
func SetIDToken(c *gin.Context, token string) error {
	sess := Session(c)
	if token == "" {
		delete(sess.Values, sessionIDToken)
	} else {
		sess.Values[sessionIDToken] = token
	}
	return save(c, sess)
}

// SetOAuthState remembers the state parameter of a redirect sign-in.
func SetOAuthState(c *gin.Context, state string) error {
	sess := Session(c)
	sess.Values[sessionState] = state
	return save(c, sess)
}

// TakeOAuthState returns and forgets the remembered state parameter.
func TakeOAuthState(c *gin.Context) (string, error) {
	sess := Session(c)
	state, _ := sess.Values[sessionState].(string)
	delete(sess.Values, sessionState)
	return state, save(c, sess)
}

// save writes the session cookie, replacing any session cookie already queued
// on this response so the browser only ever receives the latest one.
func save(c *gin.Context, sess *sessions.Session) error {
	header := c.Writer.Header()
	queued := header.Values("Set-Cookie")
	header.Del("Set-Cookie")
	for _, v := range queued {
		if !strings.HasPrefix(v, SessionName+"=") {
			header.Add("Set-Cookie", v)
		}
	}
	return sess.Save(c.Request, c.Writer)
}
