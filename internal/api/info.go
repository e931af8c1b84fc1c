package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/alexjbarnes/esi-proxy/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"
)

const (
	scopesPath = "securityDefinitions.evesso.scopes"

	maxDocumentSize = 64 << 20
)

// handleGetScopes returns the scope map the upstream advertises for a
// server variant, keyed by scope name with descriptions as values.
func (a *API) handleGetScopes(w http.ResponseWriter, r *http.Request) {
	server, err := models.ParseServerType(chi.URLParam(r, "server"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown server type (must be one of 'latest', 'legacy', or 'dev')")
		return
	}

	scopes, err := a.fetchScopes(r, server)
	if err != nil {
		a.logger.Warn("failed to retrieve and parse swagger.json",
			slog.String("server", string(server)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to retrieve and parse swagger.json")

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, scopes)
}

func (a *API) fetchScopes(r *http.Request, server models.ServerType) (string, error) {
	target := fmt.Sprintf("https://%s/%s/swagger.json", a.opts.UpstreamHost, server)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}

	resp, err := a.opts.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("document is not valid JSON")
	}

	res := gjson.GetBytes(body, scopesPath)
	if !res.IsObject() {
		return "", fmt.Errorf("document has no %s object", scopesPath)
	}

	return res.Raw, nil
}

func (a *API) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": orUnknown(a.opts.Version)})
}

func (a *API) handleBuildDate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"buildDate": orUnknown(a.opts.BuildDate)})
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}

	return s
}
