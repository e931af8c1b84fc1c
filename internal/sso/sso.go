// Package sso talks to EVE single sign-on: building authorization URLs,
// exchanging codes, refreshing tokens and identifying the character a
// token belongs to.
package sso

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alexjbarnes/esi-proxy/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/text/unicode/norm"
)

// maxVerifyBody caps the verify response read into memory.
const maxVerifyBody = 64 << 10

// Config identifies the SSO application and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	VerifyURL    string
	RedirectURL  string
}

// Client wraps an oauth2 configuration for EVE SSO.
type Client struct {
	oauth      *oauth2.Config
	verifyURL  string
	httpClient *http.Client
}

// New returns a client. A nil httpClient uses http.DefaultClient.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		verifyURL:  cfg.VerifyURL,
		httpClient: httpClient,
	}
}

func (c *Client) ctx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// AuthCodeURL returns the authorize URL for state. scopes is a
// space-separated list and may be empty for a plain login.
func (c *Client) AuthCodeURL(state, scopes string) string {
	var opts []oauth2.AuthCodeOption
	if s := strings.TrimSpace(scopes); s != "" {
		opts = append(opts, oauth2.SetAuthURLParam("scope", s))
	}

	return c.oauth.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}

	tok, err := c.oauth.Exchange(c.ctx(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	return tok, nil
}

// Refresh performs a refresh-token grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := c.oauth.TokenSource(c.ctx(ctx), &oauth2.Token{RefreshToken: refreshToken})

	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	return tok, nil
}

// CharacterName identifies the character tok was issued for. The verify
// endpoint is asked first; SSO v2 access tokens are JWTs carrying a
// "name" claim, which is used when the endpoint fails. The result is NFC
// normalised.
func (c *Client) CharacterName(ctx context.Context, tok *oauth2.Token) (string, error) {
	name, verr := c.verify(ctx, tok.AccessToken)
	if verr == nil && name != "" {
		return norm.NFC.String(name), nil
	}

	name, jerr := nameClaim(tok.AccessToken)
	if jerr != nil {
		if verr == nil {
			verr = fmt.Errorf("verify response has no CharacterName")
		}

		return "", fmt.Errorf("character lookup: %w (token: %v)", verr, jerr)
	}

	return norm.NFC.String(name), nil
}

func (c *Client) verify(ctx context.Context, accessToken string) (string, error) {
	if c.verifyURL == "" {
		return "", fmt.Errorf("no verify URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.verifyURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating verify request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVerifyBody))
	if err != nil {
		return "", fmt.Errorf("reading verify response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("verify returned %d", resp.StatusCode)
	}

	return gjson.GetBytes(body, "CharacterName").String(), nil
}

// nameClaim reads the "name" claim without verifying the signature. The
// token came straight from the token endpoint over TLS.
func nameClaim(accessToken string) (string, error) {
	claims := jwt.MapClaims{}

	_, _, err := jwt.NewParser(jwt.WithoutClaimsValidation()).ParseUnverified(accessToken, claims)
	if err != nil {
		return "", err
	}

	name, _ := claims["name"].(string)
	if name == "" {
		return "", fmt.Errorf("no name claim")
	}

	return name, nil
}

// Tokens converts an oauth2 token into the stored triple. The expiry is
// now plus the provider's stated lifetime when present.
func Tokens(tok *oauth2.Token, now time.Time) models.TokenSet {
	expiry := tok.Expiry
	if tok.ExpiresIn > 0 {
		expiry = now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	return models.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       expiry,
	}
}
