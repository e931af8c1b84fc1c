package e2e_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexjbarnes/esi-proxy/internal/api"
	"github.com/alexjbarnes/esi-proxy/internal/auth"
	"github.com/alexjbarnes/esi-proxy/internal/keyhash"
	"github.com/alexjbarnes/esi-proxy/internal/proxy"
	"github.com/alexjbarnes/esi-proxy/internal/server"
	"github.com/alexjbarnes/esi-proxy/internal/sso"
	"github.com/alexjbarnes/esi-proxy/internal/state"
	"github.com/stretchr/testify/require"
)

const (
	appName     = "esi-proxy"
	keyParam    = "esiProxyKey"
	hashParam   = "esiProxyHash"
	pilotName   = "Test Pilot"
	testSecret  = "e2e-key-secret-that-is-at-least-32-bytes"
	upstreamDoc = `{"swagger":"2.0","host":"esi.evetech.net","basePath":"/latest","schemes":["https"],` +
		`"paths":{"/characters/{character_id}/wallet/":{"get":{"security":[{"evesso":["esi-wallet.read_character_wallet.v1"]}]}}},` +
		`"securityDefinitions":{"evesso":{"authorizationUrl":"https://login.eveonline.com/oauth/authorize",` +
		`"flow":"implicit","scopes":{"esi-wallet.read_character_wallet.v1":"EVE SSO scope esi-wallet.read_character_wallet.v1"},` +
		`"type":"oauth2"}}}`
)

// fakeSSO issues sequential tokens. Authorization codes yield
// access-N/refresh-N; refresh grants rotate both.
type fakeSSO struct {
	mu        sync.Mutex
	seq       int
	expiresIn int
	refreshes []string
	srv       *httptest.Server
}

func newFakeSSO(t *testing.T) *fakeSSO {
	t.Helper()

	f := &fakeSSO{expiresIn: 1200}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", f.handleToken)
	mux.HandleFunc("/verify", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer access-") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		fmt.Fprintf(w, `{"CharacterID":90000001,"CharacterName":%q}`, pilotName)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeSSO) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		if r.PostForm.Get("code") == "" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
	case "refresh_token":
		f.refreshes = append(f.refreshes, r.PostForm.Get("refresh_token"))
	default:
		http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
		return
	}

	f.seq++

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"access_token":  fmt.Sprintf("access-%d", f.seq),
		"refresh_token": fmt.Sprintf("refresh-%d", f.seq),
		"token_type":    "Bearer",
		"expires_in":    f.expiresIn,
	})
}

func (f *fakeSSO) setExpiresIn(seconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.expiresIn = seconds
}

func (f *fakeSSO) refreshTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.refreshes...)
}

// fakeESI records the Authorization header and raw query of each
// request it serves.
type fakeESI struct {
	mu      sync.Mutex
	auth    []string
	queries []string
	srv     *httptest.Server
}

func newFakeESI(t *testing.T) *fakeESI {
	t.Helper()

	e := &fakeESI{}
	e.srv = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.auth = append(e.auth, r.Header.Get("Authorization"))
		e.queries = append(e.queries, r.URL.RawQuery)
		e.mu.Unlock()

		if strings.HasSuffix(r.URL.Path, "/swagger.json") {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, upstreamDoc)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"balance":1000000.5}`)
	}))
	t.Cleanup(e.srv.Close)

	return e
}

func (e *fakeESI) last() (authorization, query string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.auth) == 0 {
		return "", ""
	}

	return e.auth[len(e.auth)-1], e.queries[len(e.queries)-1]
}

func (e *fakeESI) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.auth)
}

// harness holds the full stack: bbolt state, the management API and
// proxy behind the production router, a fake SSO and a fake ESI.
type harness struct {
	URL    string
	Client *http.Client
	State  *state.State
	SSO    *fakeSSO
	ESI    *fakeESI
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	st, err := state.LoadAt(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	keys, err := keyhash.Derive(testSecret)
	require.NoError(t, err)

	accessKeys := state.NewAccessKeyStore(st, keyhash.NewHasher(keys.Hash))

	ssoFake := newFakeSSO(t)
	esi := newFakeESI(t)

	ts := httptest.NewUnstartedServer(nil)
	baseURL := "http://" + ts.Listener.Addr().String()
	appPath := baseURL + "/" + appName

	ssoClient := sso.New(sso.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		AuthURL:      ssoFake.srv.URL + "/authorize",
		TokenURL:     ssoFake.srv.URL + "/token",
		VerifyURL:    ssoFake.srv.URL + "/verify",
		RedirectURL:  appPath + api.CallbackPath(api.SourceEVE),
	}, ssoFake.srv.Client())

	upstreamHost := esi.srv.Listener.Addr().String()

	proxyHandler := proxy.NewHandler(proxy.Options{
		UpstreamHost: upstreamHost,
		Prefix:       "/" + appName,
		KeyName:      keyParam,
		HashName:     hashParam,
		Transport:    esi.srv.Client().Transport,
		Logger:       logger,
	},
		proxy.NewResolver(accessKeys, ssoClient, 3*time.Minute, logger),
		proxy.NewRegexRewriter(proxy.RewriteConfig{
			ProxyHost: "proxy.example.com",
			ProxyPort: 443,
			AppName:   appName,
			KeyName:   keyParam,
			HashName:  hashParam,
		}),
	)

	pending := auth.NewPendingStore(logger, time.Minute, time.Minute)
	t.Cleanup(pending.Stop)

	apiHandler := api.New(api.Options{
		AppPath:      appPath,
		UpstreamHost: upstreamHost,
		Client:       esi.srv.Client(),
		KeyLimit:     5,
		Version:      "e2e",
		Logger:       logger,
	}, st, accessKeys, ssoClient, pending, auth.NewSessions(keys.CookieAuth, keys.CookieEncrypt, false))

	ts.Config.Handler = server.NewRouter(server.RouterConfig{
		Prefix: "/" + appName,
		API:    apiHandler.Routes(),
		Proxy:  proxyHandler,
		Logger: logger,
	})
	ts.Start()
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &harness{
		URL: baseURL + "/" + appName,
		Client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		State: st,
		SSO:   ssoFake,
		ESI:   esi,
	}
}

func (h *harness) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, h.URL+path, r)
	require.NoError(t, err)

	resp, err := h.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(data)
}

// followSSO plays the browser at the SSO: it takes the authorize URL and
// returns the callback path the SSO would redirect back to.
func followSSO(t *testing.T, authorizeURL, code string) string {
	t.Helper()

	u, err := url.Parse(authorizeURL)
	require.NoError(t, err)

	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	return "/api/ws/callback/eve?" + url.Values{"state": {state}, "code": {code}}.Encode()
}

// login signs in as pilotName through the SSO.
func (h *harness) login(t *testing.T) {
	t.Helper()

	resp, _ := h.do(t, http.MethodGet, "/api/ws/login/eve", "")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, followSSO(t, resp.Header.Get("Location"), "login-code"), "")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	require.Equal(t, h.URL+"/#/connections", resp.Header.Get("Location"))
}

type keyView struct {
	KID           int64  `json:"kid"`
	Credential    string `json:"credential"`
	CharacterName string `json:"characterName"`
	ServerType    string `json:"serverType"`
	Scopes        string `json:"scopes"`
}

// createKey runs the new key flow and returns the listed key.
func (h *harness) createKey(t *testing.T, serverType, scopes string) keyView {
	t.Helper()

	body, err := json.Marshal(map[string]any{"kid": -1, "expiry": -1, "serverType": serverType, "scopes": scopes})
	require.NoError(t, err)

	resp, out := h.do(t, http.MethodPost, "/api/ws/access_key", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode, out)

	var created struct {
		NewLocation string `json:"newLocation"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &created))

	resp, _ = h.do(t, http.MethodGet, followSSO(t, created.NewLocation, "key-code"), "")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	require.Equal(t, h.URL+"/#/connections", resp.Header.Get("Location"))

	keys := h.listKeys(t)
	require.NotEmpty(t, keys)

	return keys[len(keys)-1]
}

func (h *harness) listKeys(t *testing.T) []keyView {
	t.Helper()

	resp, out := h.do(t, http.MethodGet, "/api/ws/access_key", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, out)

	var keys []keyView
	require.NoError(t, json.Unmarshal([]byte(out), &keys))

	return keys
}

func credentialQuery(k keyView) string {
	return url.Values{keyParam: {fmt.Sprint(k.KID)}, hashParam: {k.Credential}}.Encode()
}
