package proxy

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// DocumentRewriter transforms an upstream API description so it
// advertises the proxy's own host and credential scheme.
type DocumentRewriter interface {
	Rewrite(body []byte, gzipped bool) ([]byte, error)
}

// RewriteConfig describes the proxy as clients should see it.
type RewriteConfig struct {
	ProxyHost string
	ProxyPort int
	AppName   string
	KeyName   string
	HashName  string
}

// Patterns are matched against the whole document, newlines included.
var (
	hostPattern     = regexp.MustCompile(`"host"[ ]*:[ ]*"([a-zA-Z0-9.]+)"`)
	basePathPattern = regexp.MustCompile(`"basePath"[ ]*:[ ]*"([a-zA-Z/]+)"`)
	schemesPattern  = regexp.MustCompile(`"schemes"[ ]*:[ ]*\["https"\]`)
	secDefPattern   = regexp.MustCompile(`(?s)"securityDefinitions"[ ]*:.*"type"[ ]*:[ ]*"oauth2"[ ]*\}\}`)
	securityPattern = regexp.MustCompile(`(?s)"security"[ ]*:[ ]*\[\{"evesso".*?\]\}\]`)
)

// RegexRewriter rewrites swagger documents by pattern substitution. A
// pattern that does not match leaves that part of the document alone.
type RegexRewriter struct {
	host     string
	appName  string
	schemes  string
	secDef   string
	security string
}

// NewRegexRewriter precomputes the replacement fragments for cfg.
func NewRegexRewriter(cfg RewriteConfig) *RegexRewriter {
	host := cfg.ProxyHost
	if cfg.ProxyPort != 80 && cfg.ProxyPort != 443 {
		host += ":" + strconv.Itoa(cfg.ProxyPort)
	}

	scheme := "http"
	if cfg.ProxyPort == 443 {
		scheme = "https"
	}

	k, h := cfg.KeyName, cfg.HashName

	return &RegexRewriter{
		host:    `"host": "` + host + `"`,
		appName: cfg.AppName,
		schemes: `"schemes": ["` + scheme + `"]`,
		secDef: `"securityDefinitions":{ "` + k + `" : { "type" : "apiKey", "name" : "` + k +
			`", "in" : "query"}, "` + h + `" : { "type" : "apiKey", "name" : "` + h + `", "in" : "query"}}`,
		security: `"security":[{"` + k + `":[], "` + h + `":[]}]`,
	}
}

// Rewrite decompresses body when gzipped, rewrites it, and recompresses.
func (r *RegexRewriter) Rewrite(body []byte, gzipped bool) ([]byte, error) {
	if !gzipped {
		return []byte(r.RewriteText(string(body))), nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("opening gzip body: %w", err)
	}
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompressing body: %w", err)
	}

	var buf bytes.Buffer

	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(r.RewriteText(string(plain)))); err != nil {
		return nil, fmt.Errorf("compressing body: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing body: %w", err)
	}

	return buf.Bytes(), nil
}

// RewriteText applies the substitutions in order: host, base path (only
// with an application name), schemes, security definitions, then every
// security requirement.
func (r *RegexRewriter) RewriteText(doc string) string {
	doc = replaceFirst(hostPattern, doc, func([]string) string { return r.host })

	if r.appName != "" {
		doc = replaceFirst(basePathPattern, doc, func(m []string) string {
			return `"basePath":"/` + r.appName + m[1] + `"`
		})
	}

	doc = replaceFirst(schemesPattern, doc, func([]string) string { return r.schemes })
	doc = replaceFirst(secDefPattern, doc, func([]string) string { return r.secDef })

	return securityPattern.ReplaceAllLiteralString(doc, r.security)
}

// replaceFirst replaces only the first match of re. fn receives the
// match and its groups.
func replaceFirst(re *regexp.Regexp, s string, fn func([]string) string) string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}

	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}

	return s[:loc[0]] + fn(groups) + s[loc[1]:]
}
