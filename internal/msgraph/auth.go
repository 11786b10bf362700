package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

var calendarScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

// TenantEndpoint returns the Microsoft identity platform endpoints of a
// tenant ("common", "organizations" or a tenant ID).
func TenantEndpoint(tenantID string) oauth2.Endpoint {
	base := "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/"
	return oauth2.Endpoint{
		DeviceAuthURL: base + "devicecode",
		TokenURL:      base + "token",
		AuthStyle:     oauth2.AuthStyleInParams,
	}
}

// Auth signs in to Microsoft Graph with the device code flow and keeps the
// token in a cache file.
type Auth struct {
	ClientID string
	// Endpoint is usually TenantEndpoint(tenantID).
	Endpoint oauth2.Endpoint
	// TokenPath is the token cache file. It is created with mode 0600.
	TokenPath string
	// HTTPClient talks to the identity endpoints and Graph. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client
	// GraphURL is the Graph API root used by NewClient. Empty means v1.0 of
	// the public cloud.
	GraphURL string
	Logger   *slog.Logger
}

func (a *Auth) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID: a.ClientID,
		Scopes:   calendarScopes,
		Endpoint: a.Endpoint,
	}
}

func (a *Auth) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a.Logger
}

// withHTTPClient makes the oauth2 package use a.HTTPClient for ctx.
func (a *Auth) withHTTPClient(ctx context.Context) context.Context {
	if a.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.HTTPClient)
}

// Token returns a usable token: the cached one while it is valid, a
// refreshed one when it has expired, or a new one from the device code flow.
// The sign-in instructions of the device code flow are written to w.
func (a *Auth) Token(ctx context.Context, w io.Writer) (*oauth2.Token, error) {
	ctx = a.withHTTPClient(ctx)
	cfg := a.config()
	log := a.logger()

	cached, err := a.load()
	if err != nil {
		log.Warn("ignoring cached token", "path", a.TokenPath, "err", err)
		cached = nil
	}
	switch {
	case cached == nil:
	case cached.Valid():
		log.Debug("using cached token", "expiry", cached.Expiry)
		return cached, nil
	case cached.RefreshToken != "":
		tok, err := cfg.TokenSource(ctx, cached).Token()
		if err == nil {
			log.Debug("token refreshed", "expiry", tok.Expiry)
			a.store(tok)
			return tok, nil
		}
		log.Info("token refresh failed, signing in again", "err", err)
	}

	code, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting device code: %w", err)
	}
	fmt.Fprintf(w, "\nTo sign in, open %s in a browser and enter the code %s\n\n", code.VerificationURI, code.UserCode)

	tok, err := cfg.DeviceAccessToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("device sign-in: %w", err)
	}
	a.store(tok)
	return tok, nil
}

// NewClient returns a Graph client that authenticates with tok and writes
// every refreshed token back to the cache.
func (a *Auth) NewClient(ctx context.Context, tok *oauth2.Token) *Client {
	ctx = a.withHTTPClient(ctx)
	src := &cachingTokenSource{auth: a, src: a.config().TokenSource(ctx, tok), last: tok.AccessToken}
	base := a.GraphURL
	if base == "" {
		base = graphBaseURL
	}
	c := NewClientWithHTTP(oauth2.NewClient(ctx, src), base)
	c.log = a.logger()
	return c
}

// load reads the cached token. A missing cache is not an error.
func (a *Auth) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.TokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token cache: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token cache (delete %s to sign in again): %w", a.TokenPath, err)
	}
	return &tok, nil
}

// save writes tok to the cache through a temporary file.
func (a *Auth) save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(a.TokenPath), 0o700); err != nil {
		return fmt.Errorf("creating token cache directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	tmp := a.TokenPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing token cache: %w", err)
	}
	if err := os.Rename(tmp, a.TokenPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing token cache: %w", err)
	}
	return nil
}

// store saves tok; a failure only costs a sign-in next time.
func (a *Auth) store(tok *oauth2.Token) {
	if err := a.save(tok); err != nil {
		a.logger().Warn("could not cache token", "path", a.TokenPath, "err", err)
	}
}

// cachingTokenSource saves tokens it has not seen before.
type cachingTokenSource struct {
	auth *Auth
	src  oauth2.TokenSource
	last string
}

func (s *cachingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		s.auth.store(tok)
	}
	return tok, nil
}
