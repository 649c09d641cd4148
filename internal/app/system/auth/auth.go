// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
	userEmail = "user_email"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the resolved identity attached to r.Context().
// ID is the hex ObjectID of an identity owned by the user-management service.
type SessionUser struct {
	ID     string
	Name   string
	Email  string
	Source string // "session" or "token"
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context. Tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager resolves the caller's identity. Credentials are issued by
// the storefront login service; this service only reads them:
//   - Authorization: Bearer <jwt> (verified by a TokenVerifier), else
//   - the shared session cookie.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	tokens *TokenVerifier
	log    *zap.Logger
}

// NewSessionManager builds a cookie-backed SessionManager.
//
// In production (secure=true), cookies should be Secure + SameSite=None
// (for cross-site use with HTTPS). In local dev over http://localhost,
// use secure=false so cookies are accepted. An empty key is only accepted
// when secure=false, in which case a random key is generated (sessions
// written by another process will not decode, which is fine for dev).
func NewSessionManager(sessionKey, name, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	key := []byte(sessionKey)
	if sessionKey == "" {
		if secure {
			return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
		}
		key = securecookie.GenerateRandomKey(32)
		logger.Warn("session key not set; using a random per-process key")
	} else if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "shopkeep-session"
	}

	store := sessions.NewCookieStore(key)
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetTokenVerifier enables bearer-token identities.
func (sm *SessionManager) SetTokenVerifier(v *TokenVerifier) {
	sm.tokens = v
}

// LoadSessionUser injects the caller's identity into context when present.
// It never rejects a request; enforcement is done by RequireSignedIn and
// the authz middleware.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := sm.fromBearer(r); ok {
			next.ServeHTTP(w, withUser(r, u))
			return
		}

		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			// Undecodable cookie: treat as anonymous.
			next.ServeHTTP(w, r)
			return
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			if id := getString(sess, userIDKey); id != "" {
				r = withUser(r, &SessionUser{
					ID:     id,
					Name:   getString(sess, userName),
					Email:  getString(sess, userEmail),
					Source: "session",
				})
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// Callers without an identity get 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		writeUnauthorized(w)
	})
}

// SaveSessionUser writes u into the session cookie. The login service owns
// this in production; it is exposed for tooling and tests.
func (sm *SessionManager) SaveSessionUser(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[userEmail] = u.Email
	return sess.Save(r, w)
}

func (sm *SessionManager) fromBearer(r *http.Request) (*SessionUser, bool) {
	if sm.tokens == nil {
		return nil, false
	}
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, false
	}
	u, err := sm.tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		sm.log.Debug("bearer token rejected", zap.Error(err))
		return nil, false
	}
	return u, true
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthenticated","message":"Authentication required"}` + "\n"))
}
