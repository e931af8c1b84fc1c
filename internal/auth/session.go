package auth

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "esi-proxy"

	sessionAccountID  = "account_id"
	sessionLoginState = "login_state"

	// SessionMaxAge is how long a login lasts, in seconds.
	SessionMaxAge = 7 * 24 * 60 * 60
)

// Sessions wraps a signed and encrypted cookie store holding the
// logged-in account and the pending login state.
type Sessions struct {
	store *sessions.CookieStore
}

// NewSessions builds a cookie store. authKey signs the cookie and
// encKey (16, 24 or 32 bytes) encrypts it. secure restricts the cookie
// to HTTPS.
func NewSessions(authKey, encKey []byte, secure bool) *Sessions {
	store := sessions.NewCookieStore(authKey, encKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   SessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Sessions{store: store}
}

// get never fails: an undecodable cookie yields a fresh session.
func (s *Sessions) get(r *http.Request) *sessions.Session {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		sess, _ = s.store.New(r, sessionName)
	}

	return sess
}

// AccountID returns the logged-in account id, or 0.
func (s *Sessions) AccountID(r *http.Request) int64 {
	id, _ := s.get(r).Values[sessionAccountID].(int64)
	return id
}

// SignIn records accountID in the session and clears any login state.
func (s *Sessions) SignIn(w http.ResponseWriter, r *http.Request, accountID int64) error {
	sess := s.get(r)
	sess.Values[sessionAccountID] = accountID
	delete(sess.Values, sessionLoginState)

	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	return nil
}

// SetLoginState remembers the state token of an in-flight SSO login.
func (s *Sessions) SetLoginState(w http.ResponseWriter, r *http.Request, state string) error {
	sess := s.get(r)
	sess.Values[sessionLoginState] = state

	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	return nil
}

// LoginState returns the remembered SSO login state, or "".
func (s *Sessions) LoginState(r *http.Request) string {
	v, _ := s.get(r).Values[sessionLoginState].(string)
	return v
}

// SignOut deletes the session cookie.
func (s *Sessions) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess := s.get(r)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1

	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return nil
}
