// Package api serves the account and access key management endpoints
// mounted under /api/ws: SSO login, key creation through the SSO
// authorization flow, key listing and deletion, and build metadata.
package api

//go:generate mockgen -source=api.go -destination=mock_api_test.go -package=api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alexjbarnes/esi-proxy/internal/auth"
	apperrors "github.com/alexjbarnes/esi-proxy/internal/errors"
	"github.com/alexjbarnes/esi-proxy/internal/models"
	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

// SourceEVE is the only supported login source.
const SourceEVE = "eve"

// Store is the account and access key persistence the API needs.
type Store interface {
	FindOrCreateAccount(source, screenName string, admin bool) (*models.Account, bool, error)
	GetAccount(id int64) (*models.Account, error)
	TouchAccount(id int64, at time.Time) error
	CreateAccessKey(k *models.AccessKey) error
	AccountAccessKeys(accountID int64) ([]models.AccessKey, error)
	UpdateAccessKeyExpiry(accountID, keyID int64, expiry time.Time) error
	DeleteAccessKey(accountID, keyID int64) error
}

// Credentials issues salt for new keys and computes the hash shown to
// the key owner.
type Credentials interface {
	NewSalt() ([]byte, error)
	Credential(k *models.AccessKey) string
}

// SSO is the identity provider client.
type SSO interface {
	AuthCodeURL(state, scopes string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	CharacterName(ctx context.Context, tok *oauth2.Token) (string, error)
}

// Options configures the API.
type Options struct {
	// AppPath is the externally visible base URL of the web app, without
	// a trailing slash. Redirects after login land here.
	AppPath string

	// UpstreamHost and Client are used to fetch the upstream API
	// description when listing scopes.
	UpstreamHost string
	Client       *http.Client

	KeyLimit             int
	RestrictLoginToAdmin bool
	IsAdmin              func(characterName string) bool

	// DebugMode skips the SSO entirely: logins sign in as DebugUser and
	// new keys are created without tokens.
	DebugMode bool
	DebugUser string

	Version   string
	BuildDate string

	Logger *slog.Logger
}

// API holds the management endpoint dependencies.
type API struct {
	opts     Options
	store    Store
	creds    Credentials
	sso      SSO
	pending  *auth.PendingStore
	sessions *auth.Sessions
	logger   *slog.Logger
	now      func() time.Time
}

// New returns the management API.
func New(opts Options, store Store, creds Credentials, sso SSO, pending *auth.PendingStore, sessions *auth.Sessions) *API {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	if opts.IsAdmin == nil {
		opts.IsAdmin = func(string) bool { return false }
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &API{
		opts:     opts,
		store:    store,
		creds:    creds,
		sso:      sso,
		pending:  pending,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Routes returns the router for everything below /api/ws.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(auth.Middleware(a.sessions, a.store, a.logger))

	r.Get("/login/{source}", a.handleLogin)
	r.Get("/callback/{source}", a.handleCallback)
	r.Get("/logout", a.handleLogout)
	r.Get("/user", a.handleUser)

	r.Get("/access_key", a.handleListKeys)
	r.Post("/access_key", a.handleSaveKey)
	r.Delete("/access_key/{kid}", a.handleDeleteKey)

	r.Get("/get_scopes/{server}", a.handleGetScopes)
	r.Get("/version", a.handleVersion)
	r.Get("/build_date", a.handleBuildDate)

	return r
}

// CallbackPath is the SSO redirect path relative to the app base.
func CallbackPath(source string) string {
	return "/api/ws/callback/" + source
}

// serviceError is the JSON error body for management endpoints.
type serviceError struct {
	Code    int    `json:"errorCode"`
	Message string `json:"errorMessage"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, serviceError{Code: status, Message: msg})
}

// writeAppError writes msg with the status StatusCode maps err to.
func writeAppError(w http.ResponseWriter, err error, msg string) {
	writeError(w, apperrors.StatusCode(err), msg)
}

func (a *API) homeURL() string {
	return a.opts.AppPath + "/"
}

func (a *API) connectionsURL() string {
	return a.opts.AppPath + "/#/connections"
}

func (a *API) errorURL(msg string) string {
	return a.homeURL() + "?" + url.Values{"auth_error": {msg}}.Encode()
}

func (a *API) redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func authErrorMessage(source string) string {
	return "Error while authenticating with " + source + ".  Please retry.  If the problem persists, please contact the site admin."
}
