package proxy

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	apperrors "github.com/alexjbarnes/esi-proxy/internal/errors"
	"github.com/alexjbarnes/esi-proxy/internal/models"
)

// DocumentName is the final path segment of ESI's API description.
const DocumentName = "swagger.json"

// Disposition is how a request is handled.
type Disposition int

const (
	// Passthrough forwards the request unchanged.
	Passthrough Disposition = iota
	// RewriteDocument forwards the request and rewrites the response body.
	RewriteDocument
	// Credentialed strips the proxy credential and injects a bearer token.
	Credentialed
)

func (d Disposition) String() string {
	switch d {
	case Passthrough:
		return "passthrough"
	case RewriteDocument:
		return "rewrite_document"
	case Credentialed:
		return "credentialed"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// Credential is a key id and hash presented in a query string.
type Credential struct {
	KeyID int64
	Hash  string
}

// Plan is the classification of one inbound request.
type Plan struct {
	Disposition Disposition
	Server      models.ServerType

	// Upstream path, e.g. "/latest/characters/1/". RawPath is set only
	// when the escaped form differs from Path.
	Path    string
	RawPath string

	// RawQuery is forwarded to upstream as is.
	RawQuery string

	// Credential is only set for Credentialed plans.
	Credential Credential
}

// Classifier decides the disposition of requests.
type Classifier struct {
	KeyName  string
	HashName string
}

// Classify plans a request for server whose path below the server
// segment is rest (escaped form, leading slash optional). rawQuery is
// the inbound query without the leading '?'.
func (c Classifier) Classify(server models.ServerType, rest, rawQuery string) (Plan, error) {
	if rest != "" && !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}

	rawPath := "/" + string(server) + rest

	p, err := url.PathUnescape(rawPath)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: bad path escape", apperrors.ErrMalformedRequest)
	}

	plan := Plan{
		Server:   server,
		Path:     p,
		RawQuery: rawQuery,
	}

	if rawPath != p {
		plan.RawPath = rawPath
	}

	if path.Base(p) == DocumentName {
		plan.Disposition = RewriteDocument

		// The document request is forwarded as is, minus any credential.
		if params, err := parseQuery(rawQuery); err == nil {
			plan.RawQuery = params.without(c.KeyName, c.HashName)
		}

		return plan, nil
	}

	params, err := parseQuery(rawQuery)
	if err != nil {
		return Plan{}, err
	}

	key, hasKey := params.last(c.KeyName)
	hash, hasHash := params.last(c.HashName)

	if !hasKey || !hasHash {
		plan.Disposition = Passthrough
		return plan, nil
	}

	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: bad proxy key %q", apperrors.ErrMalformedRequest, key)
	}

	plan.Disposition = Credentialed
	plan.Credential = Credential{KeyID: id, Hash: hash}
	plan.RawQuery = params.without(c.KeyName, c.HashName)

	return plan, nil
}

type queryParam struct {
	raw   string
	name  string
	value string
}

type queryParams []queryParam

// parseQuery splits a raw query into its parameters in order. Every
// segment is kept, including duplicates, so untouched parameters can be
// re-emitted byte for byte.
func parseQuery(rawQuery string) (queryParams, error) {
	if i := strings.IndexByte(rawQuery, '#'); i >= 0 {
		rawQuery = rawQuery[:i]
	}

	var params queryParams

	for _, seg := range strings.Split(rawQuery, "&") {
		if seg == "" {
			continue
		}

		rawName, rawValue, _ := strings.Cut(seg, "=")

		name, err := url.QueryUnescape(rawName)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedRequest, err)
		}

		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedRequest, err)
		}

		params = append(params, queryParam{raw: seg, name: name, value: value})
	}

	return params, nil
}

// last returns the value of the final occurrence of name.
func (q queryParams) last(name string) (string, bool) {
	for i := len(q) - 1; i >= 0; i-- {
		if q[i].name == name {
			return q[i].value, true
		}
	}

	return "", false
}

// without re-joins the raw segments of every parameter not named in drop.
func (q queryParams) without(drop ...string) string {
	kept := make([]string, 0, len(q))

	for _, p := range q {
		skip := false

		for _, d := range drop {
			if p.name == d {
				skip = true
				break
			}
		}

		if !skip {
			kept = append(kept, p.raw)
		}
	}

	return strings.Join(kept, "&")
}
