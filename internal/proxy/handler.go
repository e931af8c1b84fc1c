// Package proxy forwards ESI requests, translating proxy credentials in
// the query string into OAuth bearer tokens and rewriting ESI's API
// description to advertise the proxy.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"strconv"
	"strings"

	apperrors "github.com/alexjbarnes/esi-proxy/internal/errors"
	"github.com/alexjbarnes/esi-proxy/internal/models"
)

// maxDocumentSize caps the API description read into memory.
const maxDocumentSize = 64 << 20

// Options configures a Handler.
type Options struct {
	// UpstreamHost is the ESI host, reached over HTTPS.
	UpstreamHost string
	// Prefix is stripped from inbound paths before the server segment,
	// e.g. "/esi-proxy". May be empty.
	Prefix   string
	KeyName  string
	HashName string
	// Transport defaults to NewTransport(0, nil).
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Handler serves /{prefix}/{latest|legacy|dev}/... by forwarding to ESI.
type Handler struct {
	classifier Classifier
	resolver   *Resolver
	rewriter   DocumentRewriter
	prefix     string
	upstream   string
	proxy      *httputil.ReverseProxy
	logger     *slog.Logger
}

type planKey struct{}

// routed is carried from ServeHTTP into the reverse proxy callbacks.
type routed struct {
	plan   Plan
	bearer string
}

// NewHandler builds the proxy handler.
func NewHandler(opts Options, resolver *Resolver, rewriter DocumentRewriter) *Handler {
	transport := opts.Transport
	if transport == nil {
		transport = NewTransport(0, nil)
	}

	h := &Handler{
		classifier: Classifier{KeyName: opts.KeyName, HashName: opts.HashName},
		resolver:   resolver,
		rewriter:   rewriter,
		prefix:     strings.TrimRight(opts.Prefix, "/"),
		upstream:   opts.UpstreamHost,
		logger:     opts.Logger,
	}

	h.proxy = &httputil.ReverseProxy{
		Rewrite:        h.rewrite,
		ModifyResponse: h.modifyResponse,
		ErrorHandler:   h.errorHandler,
		Transport:      transport,
	}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server, rest, ok := h.split(r.URL.EscapedPath())
	if !ok {
		http.NotFound(w, r)
		return
	}

	plan, err := h.classifier.Classify(server, rest, r.URL.RawQuery)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rt := &routed{plan: plan}

	if plan.Disposition == Credentialed {
		rt.bearer, err = h.resolver.Resolve(r.Context(), plan.Credential)
		if err != nil {
			h.fail(w, r, err)
			return
		}
	}

	h.logger.Debug("proxying request",
		slog.String("method", r.Method),
		slog.String("path", plan.Path),
		slog.String("disposition", plan.Disposition.String()),
	)

	ctx := context.WithValue(r.Context(), planKey{}, rt)
	h.proxy.ServeHTTP(w, r.WithContext(ctx))
}

// split strips the prefix and returns the server variant and the escaped
// remainder of the path.
func (h *Handler) split(p string) (models.ServerType, string, bool) {
	if h.prefix != "" {
		if !strings.HasPrefix(p, h.prefix+"/") {
			return "", "", false
		}

		p = p[len(h.prefix):]
	}

	seg, rest, found := strings.Cut(strings.TrimPrefix(p, "/"), "/")

	server, err := models.ParseServerType(seg)
	if err != nil {
		return "", "", false
	}

	if found {
		rest = "/" + rest
	}

	return server, rest, true
}

func (h *Handler) rewrite(pr *httputil.ProxyRequest) {
	rt, _ := pr.In.Context().Value(planKey{}).(*routed)

	pr.Out.URL.Scheme = "https"
	pr.Out.URL.Host = h.upstream
	pr.Out.URL.Path = rt.plan.Path
	pr.Out.URL.RawPath = rt.plan.RawPath
	pr.Out.URL.RawQuery = rt.plan.RawQuery
	pr.Out.Host = h.upstream
	pr.SetXForwarded()

	if rt.bearer != "" {
		pr.Out.Header.Set("Authorization", rt.bearer)
	}
}

func (h *Handler) modifyResponse(resp *http.Response) error {
	rt, _ := resp.Request.Context().Value(planKey{}).(*routed)
	if rt == nil || rt.plan.Disposition != RewriteDocument || resp.StatusCode != http.StatusOK {
		return nil
	}

	// No entity to rewrite; headers pass through untouched.
	if resp.Request.Method == http.MethodHead || resp.ContentLength == 0 || resp.Body == http.NoBody {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	resp.Body.Close()

	if err != nil {
		return fmt.Errorf("reading API description: %w", err)
	}

	if len(body) > maxDocumentSize {
		return fmt.Errorf("API description exceeds %d bytes", maxDocumentSize)
	}

	gzipped := strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip")

	out, err := h.rewriter.Rewrite(body, gzipped)
	if err != nil {
		return fmt.Errorf("rewriting API description: %w", err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(out))
	resp.ContentLength = int64(len(out))
	resp.Header.Set("Content-Length", strconv.Itoa(len(out)))

	return nil
}

func (h *Handler) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		h.logger.Debug("client went away", slog.String("path", r.URL.Path))
		w.WriteHeader(http.StatusBadGateway)

		return
	}

	h.logger.Error("upstream error",
		slog.String("upstream", h.upstream),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, "Bad Gateway", http.StatusBadGateway)
}

// fail writes a plain text error for a request that is not forwarded.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.StatusCode(err)

	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("proxy request failed", attrs...)
	} else {
		h.logger.Info("proxy request rejected", attrs...)
	}

	http.Error(w, clientMessage(err), status)
}

func clientMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrMalformedRequest):
		return "Malformed request: " + strings.TrimPrefix(err.Error(), apperrors.ErrMalformedRequest.Error()+": ")
	case errors.Is(err, apperrors.ErrUnknownKey):
		return "No access key found for proxy key"
	case errors.Is(err, apperrors.ErrHashMismatch):
		return "Incorrect hash for proxy key"
	case errors.Is(err, apperrors.ErrKeyExpired):
		return "Access key has expired"
	case errors.Is(err, apperrors.ErrMissingRefreshToken):
		return "Access key does not have a valid refresh token. Please delete and re-create it."
	case errors.Is(err, apperrors.ErrRefreshFailed):
		return "Failed to refresh token. Please delete the access key and re-create it."
	default:
		return "Internal server error"
	}
}
