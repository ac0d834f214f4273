package jwt

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/docusign-mcp-server/internal/config"
	"github.com/jrsteele09/docusign-mcp-server/token/keys"
)

// AssertionCreator builds the signed JWT that is exchanged for an access
// token with the jwt-bearer grant.
type AssertionCreator struct {
	config  config.DocuSignConfig
	nowFunc func() time.Time
}

type AssertionOption func(*AssertionCreator)

// WithNowFunc sets the clock used for the iat and exp claims.
func WithNowFunc(now func() time.Time) AssertionOption {
	return func(c *AssertionCreator) {
		c.nowFunc = now
	}
}

// NewAssertionCreator creates a new grant assertion creator
func NewAssertionCreator(cfg config.DocuSignConfig, options ...AssertionOption) *AssertionCreator {
	c := &AssertionCreator{
		config:  cfg,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// CreateAssertion creates a user token assertion impersonating the configured user
func (c *AssertionCreator) CreateAssertion(signer keys.Signer) (string, error) {
	now := c.nowFunc()
	claims := jwtlib.MapClaims{
		"iss":   c.config.GetIntegrationKey(),                    // The integration key (client id)
		"sub":   c.config.GetImpersonatedUserID(),                // The user being impersonated
		"aud":   AudienceFromBaseURL(c.config.GetAuthBaseURL()), // Host name of the authentication server
		"iat":   now.Unix(),
		"exp":   now.Add(c.config.GetTokenLifetime()).Unix(),
		"scope": strings.Join(c.config.GetOAuthScopes(), " "),
		"jti":   uuid.New().String(),
	}

	signed, err := signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign grant assertion: %w", err)
	}
	return signed, nil
}

// AudienceFromBaseURL strips the scheme and path, DocuSign expects the bare
// host (e.g. account-d.docusign.com) as the assertion audience.
func AudienceFromBaseURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		host := strings.TrimPrefix(strings.TrimPrefix(baseURL, "https://"), "http://")
		return strings.TrimRight(host, "/")
	}
	return u.Host
}
