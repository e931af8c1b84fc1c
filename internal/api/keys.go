package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alexjbarnes/esi-proxy/internal/auth"
	apperrors "github.com/alexjbarnes/esi-proxy/internal/errors"
	"github.com/alexjbarnes/esi-proxy/internal/models"
	"github.com/go-chi/chi/v5"
)

// newKeyID marks a save request as a creation rather than an update.
const newKeyID = -1

// accessKeyView is the JSON shape of an access key. Tokens are never
// included. Times are unix milliseconds with -1 meaning unset.
type accessKeyView struct {
	KID           int64  `json:"kid"`
	Expiry        int64  `json:"expiry"`
	ServerType    string `json:"serverType"`
	Scopes        string `json:"scopes"`
	CharacterName string `json:"characterName"`
	Credential    string `json:"credential"`
	Created       int64  `json:"created"`
}

// saveKeyRequest is the POST body for creating or updating a key.
type saveKeyRequest struct {
	KID        int64  `json:"kid"`
	Expiry     int64  `json:"expiry"`
	ServerType string `json:"serverType"`
	Scopes     string `json:"scopes"`
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return -1
	}

	return t.UnixMilli()
}

// expiryFromMillis maps a requested expiry to a time. Values <= 0 mean
// the key never expires.
func expiryFromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}

	return time.UnixMilli(ms)
}

func (a *API) view(k *models.AccessKey) accessKeyView {
	return accessKeyView{
		KID:           k.ID,
		Expiry:        millis(k.Expiry),
		ServerType:    string(k.ServerType),
		Scopes:        k.Scopes,
		CharacterName: k.CharacterName,
		Credential:    a.creds.Credential(k),
		Created:       millis(k.CreatedAt),
	}
}

func (a *API) handleListKeys(w http.ResponseWriter, r *http.Request) {
	acct := auth.RequestAccount(r.Context())
	if acct == nil {
		writeAppError(w, apperrors.ErrNotLoggedIn, "User not logged in")
		return
	}

	keys, err := a.store.AccountAccessKeys(acct.ID)
	if err != nil {
		a.logger.Error("listing access keys",
			slog.Int64("account_id", acct.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Error retrieving access keys, contact admin if this problem persists")

		return
	}

	out := make([]accessKeyView, 0, len(keys))
	for i := range keys {
		out = append(out, a.view(&keys[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

// handleSaveKey creates a key (kid -1) or updates the expiry of an
// existing one. Creation normally returns the SSO URL the browser must
// visit to authorize the requested scopes.
func (a *API) handleSaveKey(w http.ResponseWriter, r *http.Request) {
	acct := auth.RequestAccount(r.Context())
	if acct == nil {
		writeAppError(w, apperrors.ErrNotLoggedIn, "user not logged in")
		return
	}

	var req saveKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.KID != newKeyID {
		err := a.store.UpdateAccessKeyExpiry(acct.ID, req.KID, expiryFromMillis(req.Expiry))
		if errors.Is(err, apperrors.ErrKeyNotFound) {
			writeAppError(w, err, "Target access key not found")
			return
		}

		if err != nil {
			a.logger.Error("updating access key", slog.Int64("key_id", req.KID), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "Internal error updating access key, contact admin if this problem persists")

			return
		}

		w.WriteHeader(http.StatusOK)

		return
	}

	existing, err := a.store.AccountAccessKeys(acct.ID)
	if err != nil {
		a.logger.Error("counting access keys", slog.Int64("account_id", acct.ID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Error retrieving access keys, contact admin if this problem persists")

		return
	}

	if len(existing) >= a.opts.KeyLimit {
		writeAppError(w, apperrors.ErrKeyLimit,
			fmt.Sprintf("you already have the maximum number of connections which is %d", a.opts.KeyLimit))

		return
	}

	serverType, err := models.ParseServerType(req.ServerType)
	if err != nil {
		writeAppError(w, err, fmt.Sprintf("unknown server type '%s'", req.ServerType))
		return
	}

	expiry := expiryFromMillis(max(-1, req.Expiry))

	if a.opts.DebugMode {
		a.createDebugKey(w, acct, expiry, serverType, req.Scopes)
		return
	}

	state, err := a.pending.Put(models.PendingAuth{
		AccountID:  acct.ID,
		Expiry:     expiry,
		ServerType: serverType,
		Scopes:     req.Scopes,
	})
	if err != nil {
		a.logger.Error("storing pending key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Internal error creating access key, contact admin if this problem persists")

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"newLocation": a.sso.AuthCodeURL(state, req.Scopes),
	})
}

// createDebugKey stores a key with no tokens. It exists to exercise the
// web UI without a reachable SSO.
func (a *API) createDebugKey(w http.ResponseWriter, acct *models.Account, expiry time.Time, serverType models.ServerType, scopes string) {
	salt, err := a.creds.NewSalt()
	if err == nil {
		err = a.store.CreateAccessKey(&models.AccessKey{
			AccountID:     acct.ID,
			Salt:          salt,
			ServerType:    serverType,
			Scopes:        scopes,
			Expiry:        expiry,
			CharacterName: "fakechar " + strconv.FormatInt(a.now().UnixMilli(), 10),
		})
	}

	if err != nil {
		a.logger.Error("creating debug access key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Internal error creating access key, contact admin if this problem persists")

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (a *API) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	acct := auth.RequestAccount(r.Context())
	if acct == nil {
		writeAppError(w, apperrors.ErrNotLoggedIn, "Requestor not logged in")
		return
	}

	kid, err := strconv.ParseInt(chi.URLParam(r, "kid"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Target key not found")
		return
	}

	err = a.store.DeleteAccessKey(acct.ID, kid)
	if errors.Is(err, apperrors.ErrKeyNotFound) {
		writeAppError(w, err, "Target key not found")
		return
	}

	if err != nil {
		a.logger.Error("deleting access key", slog.Int64("key_id", kid), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Internal error deleting access key, contact admin if this problem persists")

		return
	}

	a.logger.Info("access key deleted", slog.Int64("account_id", acct.ID), slog.Int64("key_id", kid))
	w.WriteHeader(http.StatusOK)
}
