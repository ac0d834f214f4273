package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/docusign-mcp-server/internal/errors"
)

const (
	authBaseVar       = "DS_AUTH_BASE"
	integrationKeyVar = "DS_INTEGRATION_KEY"
	userIDVar         = "DS_USER_ID"
	oauthScopeVar     = "DS_OAUTH_SCOPE"
	privateKeyPathVar = "DS_PRIVATE_KEY_PATH"
	privateKeyVar     = "DS_PRIVATE_KEY"
	tokenExpSecsVar   = "DS_TOKEN_EXP_SECS"
)

const (
	DefaultAuthBaseURL    = "https://account-d.docusign.com"
	DefaultOAuthScope     = "signature impersonation"
	DefaultPrivateKeyPath = "./private.key"
	DefaultTokenLifetime  = 3600 * time.Second
)

// PrivateKeySource holds exactly one of a PEM file path or base64 encoded
// inline PEM material.
type PrivateKeySource struct {
	Path   string
	Inline string
}

// IsInline reports whether the key material was supplied inline.
func (p PrivateKeySource) IsInline() bool {
	return p.Inline != ""
}

func (p PrivateKeySource) String() string {
	if p.IsInline() {
		return "inline"
	}
	return p.Path
}

// NewPrivateKeySource applies the exactly-one rule: both set is an error and
// neither set falls back to DefaultPrivateKeyPath.
func NewPrivateKeySource(path, inline string) (PrivateKeySource, error) {
	path = strings.TrimSpace(path)
	inline = strings.TrimSpace(inline)
	switch {
	case path != "" && inline != "":
		return PrivateKeySource{}, fmt.Errorf("%w: provide either %s or %s, not both", errors.ErrConfiguration, privateKeyVar, privateKeyPathVar)
	case path == "" && inline == "":
		return PrivateKeySource{Path: DefaultPrivateKeyPath}, nil
	}
	return PrivateKeySource{Path: path, Inline: inline}, nil
}

type DocuSign struct {
	AuthBaseURL        string
	IntegrationKey     string
	ImpersonatedUserID string
	OAuthScopes        []string
	PrivateKey         PrivateKeySource
	TokenLifetime      time.Duration
}

var _ DocuSignConfig = DocuSign{}

// LoadDocuSign reads the DS_ prefixed environment variables.
func LoadDocuSign() (DocuSign, error) {
	source, err := NewPrivateKeySource(os.Getenv(privateKeyPathVar), os.Getenv(privateKeyVar))
	if err != nil {
		return DocuSign{}, err
	}

	lifetime := DefaultTokenLifetime
	if raw := os.Getenv(tokenExpSecsVar); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return DocuSign{}, fmt.Errorf("%w: %s must be a positive number of seconds, got %q", errors.ErrConfiguration, tokenExpSecsVar, raw)
		}
		lifetime = time.Duration(secs) * time.Second
	}

	ds := DocuSign{
		AuthBaseURL:        strings.TrimRight(GetEnv(authBaseVar, DefaultAuthBaseURL), "/"),
		IntegrationKey:     os.Getenv(integrationKeyVar),
		ImpersonatedUserID: os.Getenv(userIDVar),
		OAuthScopes:        strings.Fields(GetEnv(oauthScopeVar, DefaultOAuthScope)),
		PrivateKey:         source,
		TokenLifetime:      lifetime,
	}
	if err := ds.Validate(); err != nil {
		return DocuSign{}, err
	}
	return ds, nil
}

// Validate checks the required fields.
func (d DocuSign) Validate() error {
	var missing []string
	if d.IntegrationKey == "" {
		missing = append(missing, integrationKeyVar)
	}
	if d.ImpersonatedUserID == "" {
		missing = append(missing, userIDVar)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required environment variables: %s", errors.ErrConfiguration, strings.Join(missing, ", "))
	}
	if d.PrivateKey.Path != "" && d.PrivateKey.Inline != "" {
		return fmt.Errorf("%w: provide either %s or %s, not both", errors.ErrConfiguration, privateKeyVar, privateKeyPathVar)
	}
	if d.PrivateKey.Path == "" && d.PrivateKey.Inline == "" {
		return fmt.Errorf("%w: no private key source", errors.ErrConfiguration)
	}
	if d.TokenLifetime <= 0 {
		return fmt.Errorf("%w: token lifetime must be positive", errors.ErrConfiguration)
	}
	return nil
}

func (d DocuSign) GetAuthBaseURL() string {
	return d.AuthBaseURL
}

func (d DocuSign) GetIntegrationKey() string {
	return d.IntegrationKey
}

func (d DocuSign) GetImpersonatedUserID() string {
	return d.ImpersonatedUserID
}

func (d DocuSign) GetOAuthScopes() []string {
	return append([]string(nil), d.OAuthScopes...)
}

func (d DocuSign) GetPrivateKeySource() PrivateKeySource {
	return d.PrivateKey
}

func (d DocuSign) GetTokenLifetime() time.Duration {
	return d.TokenLifetime
}
