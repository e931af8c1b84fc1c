package api

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexjbarnes/esi-proxy/internal/auth"
	apperrors "github.com/alexjbarnes/esi-proxy/internal/errors"
	"github.com/alexjbarnes/esi-proxy/internal/models"
	"github.com/alexjbarnes/esi-proxy/internal/sso"
	"github.com/go-chi/chi/v5"
)

const adminOnlyMessage = "Only administrative accounts are allowed to create access keys, sorry!"

func checkSource(source string) error {
	if source != SourceEVE {
		return fmt.Errorf("%w %q", apperrors.ErrUnknownLoginSource, source)
	}

	return nil
}

// canCreateKeys reports whether acct may add access keys.
func (a *API) canCreateKeys(acct *models.Account) error {
	if a.opts.RestrictLoginToAdmin && !acct.Admin {
		return apperrors.ErrAdminOnly
	}

	return nil
}

// handleLogin starts a login. In debug mode the debug user is signed in
// directly; otherwise the browser is sent to the SSO with a fresh login
// state remembered in the session.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if err := checkSource(source); err != nil {
		a.logger.Warn("login: rejected", slog.String("error", err.Error()))
		a.redirect(w, r, a.errorURL(authErrorMessage(source)))

		return
	}

	if a.opts.DebugMode {
		acct, _, err := a.store.FindOrCreateAccount(SourceEVE, a.opts.DebugUser, a.opts.IsAdmin(a.opts.DebugUser))
		if err != nil {
			a.logger.Error("login: creating debug account", slog.String("error", err.Error()))
			a.redirect(w, r, a.errorURL(authErrorMessage("EVE")))

			return
		}

		if err := a.sessions.SignIn(w, r, acct.ID); err != nil {
			a.logger.Error("login: saving session", slog.String("error", err.Error()))
		}

		a.redirect(w, r, a.connectionsURL())

		return
	}

	state, err := auth.NewStateToken()
	if err != nil {
		a.logger.Error("login: generating state", slog.String("error", err.Error()))
		a.redirect(w, r, a.errorURL(authErrorMessage("EVE")))

		return
	}

	if err := a.sessions.SetLoginState(w, r, state); err != nil {
		a.logger.Error("login: saving session", slog.String("error", err.Error()))
		a.redirect(w, r, a.errorURL(authErrorMessage("EVE")))

		return
	}

	a.redirect(w, r, a.sso.AuthCodeURL(state, ""))
}

// handleCallback finishes either a new access key authorization (state
// matches a pending entry) or a plain login (state matches the session).
func (a *API) handleCallback(w http.ResponseWriter, r *http.Request) {
	if err := checkSource(chi.URLParam(r, "source")); err != nil {
		a.logger.Warn("callback: rejected", slog.String("error", err.Error()))
		a.redirect(w, r, a.errorURL(authErrorMessage("Unknown Scheme")))

		return
	}

	state := r.URL.Query().Get("state")
	if state != "" {
		if p, ok := a.pending.Take(state); ok && a.completeNewKey(w, r, p) {
			return
		}
	}

	a.completeLogin(w, r, state)
}

func (a *API) completeLogin(w http.ResponseWriter, r *http.Request, state string) {
	fail := func(msg string, attrs ...any) {
		a.logger.Warn("callback: "+msg, attrs...)
		a.redirect(w, r, a.errorURL(authErrorMessage("EVE")))
	}

	expected := a.sessions.LoginState(r)
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		fail("login state mismatch")
		return
	}

	if e := r.URL.Query().Get("error"); e != "" {
		fail("provider returned error", slog.String("error", e))
		return
	}

	tok, err := a.sso.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		fail("code exchange failed", slog.String("error", err.Error()))
		return
	}

	name, err := a.sso.CharacterName(r.Context(), tok)
	if err != nil {
		fail("character lookup failed", slog.String("error", err.Error()))
		return
	}

	acct, created, err := a.store.FindOrCreateAccount(SourceEVE, name, a.opts.IsAdmin(name))
	if err != nil {
		fail("loading account", slog.String("error", err.Error()))
		return
	}

	if !acct.Active {
		fail("account inactive", slog.Int64("account_id", acct.ID))
		return
	}

	if err := a.store.TouchAccount(acct.ID, a.now()); err != nil {
		a.logger.Warn("callback: recording login time", slog.String("error", err.Error()))
	}

	if err := a.sessions.SignIn(w, r, acct.ID); err != nil {
		fail("saving session", slog.String("error", err.Error()))
		return
	}

	a.logger.Info("account signed in",
		slog.Int64("account_id", acct.ID),
		slog.String("character", name),
		slog.Bool("created", created),
	)
	a.redirect(w, r, a.connectionsURL())
}

// completeNewKey creates the access key requested by p. It returns false
// when the requesting account no longer exists, leaving the request to
// the login flow.
func (a *API) completeNewKey(w http.ResponseWriter, r *http.Request, p models.PendingAuth) bool {
	acct, err := a.store.GetAccount(p.AccountID)
	if err != nil {
		a.logger.Warn("callback: pending key owner unavailable",
			slog.Int64("account_id", p.AccountID),
			slog.String("error", err.Error()),
		)

		return false
	}

	if err := a.canCreateKeys(acct); err != nil {
		a.logger.Warn("callback: access key refused",
			slog.Int64("account_id", acct.ID),
			slog.String("error", err.Error()),
		)
		a.redirect(w, r, a.errorURL(adminOnlyMessage))

		return true
	}

	fail := func(msg string, err error) bool {
		a.logger.Warn("callback: adding access key failed",
			slog.String("step", msg),
			slog.Int64("account_id", acct.ID),
			slog.String("error", err.Error()),
		)
		a.redirect(w, r, a.errorURL(authErrorMessage("EVE")))

		return true
	}

	tok, err := a.sso.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		return fail("exchange", err)
	}

	name, err := a.sso.CharacterName(r.Context(), tok)
	if err != nil {
		return fail("character lookup", err)
	}

	salt, err := a.creds.NewSalt()
	if err != nil {
		return fail("salt", err)
	}

	key := &models.AccessKey{
		AccountID:     acct.ID,
		Salt:          salt,
		ServerType:    p.ServerType,
		Scopes:        p.Scopes,
		Expiry:        p.Expiry,
		CharacterName: name,
	}
	key.ApplyTokens(sso.Tokens(tok, a.now()))

	if err := a.store.CreateAccessKey(key); err != nil {
		return fail("store", err)
	}

	a.logger.Info("access key created",
		slog.Int64("account_id", acct.ID),
		slog.Int64("key_id", key.ID),
		slog.String("server", string(key.ServerType)),
		slog.String("character", name),
	)
	a.redirect(w, r, a.connectionsURL())

	return true
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.SignOut(w, r); err != nil {
		a.logger.Warn("logout: clearing session", slog.String("error", err.Error()))
	}

	a.redirect(w, r, a.homeURL())
}

// handleUser returns the logged-in account, or null.
func (a *API) handleUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.RequestAccount(r.Context()))
}
