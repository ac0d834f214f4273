package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/docusign-mcp-server/internal/errors"
	"github.com/jrsteele09/docusign-mcp-server/oauthmodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Provider is the authentication server as seen by the session manager.
type Provider interface {
	// ExchangeJWT trades a signed grant assertion for an access token.
	ExchangeJWT(ctx context.Context, assertion string) (*oauth2.Token, error)

	// UserInfo returns the user and account memberships for an access token.
	UserInfo(ctx context.Context, accessToken string) (*oauthmodel.UserInfo, error)
}

// Client talks to the DocuSign authentication server (account-d.docusign.com
// or account.docusign.com).
type Client struct {
	authBaseURL string
	httpClient  *http.Client
	provider    *oidc.Provider
	logger      zerolog.Logger
}

var _ Provider = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the given auth base URL.
func New(authBaseURL string, options ...Option) *Client {
	c := &Client{
		authBaseURL: strings.TrimRight(authBaseURL, "/"),
		httpClient:  http.DefaultClient,
		logger:      log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}

	// The userinfo endpoint is fixed, so no discovery document is fetched.
	providerConfig := &oidc.ProviderConfig{
		IssuerURL:   c.authBaseURL,
		TokenURL:    c.authBaseURL + oauthmodel.TokenPath,
		UserInfoURL: c.authBaseURL + oauthmodel.UserInfoPath,
	}
	c.provider = providerConfig.NewProvider(oidc.ClientContext(context.Background(), c.httpClient))
	return c
}

// ExchangeJWT implements the jwt-bearer grant. Failures wrap
// errors.ErrAuthentication and carry the consent hint.
func (c *Client) ExchangeJWT(ctx context.Context, assertion string) (*oauth2.Token, error) {
	cfg := clientcredentials.Config{
		TokenURL:  c.authBaseURL + oauthmodel.TokenPath,
		AuthStyle: oauth2.AuthStyleInParams,
		EndpointParams: url.Values{
			"grant_type": {string(oauthmodel.JWTBearerGrant)},
			"assertion":  {assertion},
		},
	}

	token, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		reason := failureReason(err)
		c.logger.Warn().Str("reason", reason).Msg("jwt grant rejected")
		return nil, fmt.Errorf("%w: failed to obtain JWT token: %s. %s", errors.ErrAuthentication, reason, errors.ConsentHint)
	}
	return token, nil
}

// UserInfo fetches the account memberships for the token owner.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*oauthmodel.UserInfo, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})

	raw, err := c.provider.UserInfo(oidc.ClientContext(ctx, c.httpClient), source)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to discover base URI: %v", errors.ErrDiscovery, err)
	}

	var info oauthmodel.UserInfo
	if err := raw.Claims(&info); err != nil {
		return nil, fmt.Errorf("%w: failed to decode userinfo: %v", errors.ErrDiscovery, err)
	}
	return &info, nil
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// failureReason extracts the upstream reason (e.g. consent_required) from a
// token endpoint failure.
func failureReason(err error) string {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return err.Error()
	}

	code, description := retrieveErr.ErrorCode, retrieveErr.ErrorDescription
	if code == "" {
		var body errorBody
		if json.Unmarshal(retrieveErr.Body, &body) == nil {
			code, description = body.Error, body.ErrorDescription
		}
	}

	switch {
	case code != "" && description != "":
		return code + " (" + description + ")"
	case code != "":
		return code
	case retrieveErr.Response != nil:
		return retrieveErr.Response.Status
	}
	return err.Error()
}
