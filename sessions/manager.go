package sessions

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/docusign-mcp-server/identity"
	"github.com/jrsteele09/docusign-mcp-server/internal/config"
	"github.com/jrsteele09/docusign-mcp-server/internal/errors"
	"github.com/jrsteele09/docusign-mcp-server/token/jwt"
	"github.com/jrsteele09/docusign-mcp-server/token/keys"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// RefreshMargin is how long before expiry a token is treated as expired.
const RefreshMargin = 5 * time.Minute

// Manager owns the Session. It acquires tokens lazily, discovers the
// operating account once per process and hands out authenticated handles.
type Manager struct {
	config     config.DocuSignConfig
	identity   identity.Provider
	assertions *jwt.AssertionCreator
	httpClient *http.Client
	logger     zerolog.Logger
	nowFunc    func() time.Time

	lock    sync.Mutex
	session Session
	handle  *Handle
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHTTPClient sets the base client used by handles for REST calls.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = client
	}
}

func NewManager(cfg config.DocuSignConfig, provider identity.Provider, options ...ManagerOption) *Manager {
	m := &Manager{
		config:   cfg,
		identity: provider,
		logger:   log.Logger,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	if m.httpClient == nil {
		m.httpClient = http.DefaultClient
	}
	m.assertions = jwt.NewAssertionCreator(cfg, jwt.WithNowFunc(m.nowFunc))
	return m
}

// EnsureAuthenticated refreshes the token when missing or within
// RefreshMargin of expiry, then discovers the operating account if it has
// not been discovered yet. A new token is kept even if discovery fails.
func (m *Manager) EnsureAuthenticated(ctx context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.ensureAuthenticated(ctx)
}

func (m *Manager) ensureAuthenticated(ctx context.Context) error {
	now := m.nowFunc()

	if m.session.needsToken(now, RefreshMargin) {
		accessToken, err := m.acquireToken(ctx)
		if err != nil {
			return err
		}
		m.session.AccessToken = accessToken
		m.session.IssuedAt = now
		m.session.ExpiresAt = now.Add(m.config.GetTokenLifetime())
		m.handle = nil
		m.logger.Info().Time("expiresAt", m.session.ExpiresAt).Msg("access token acquired")
	}

	if !m.session.isDiscovered() {
		baseURI, accountID, err := m.discover(ctx, m.session.AccessToken)
		if err != nil {
			return err
		}
		m.session.BaseURI, m.session.AccountID = baseURI, accountID
		m.handle = nil
		m.logger.Info().Str("accountId", accountID).Str("baseUri", baseURI).Msg("operating account discovered")
	}

	return nil
}

func (m *Manager) acquireToken(ctx context.Context) (string, error) {
	keyPair, err := keys.LoadKeyPair(m.config.GetPrivateKeySource())
	if err != nil {
		return "", err
	}

	assertion, err := m.assertions.CreateAssertion(keys.NewKeyPairSigner(keyPair))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrCredentialLoad, err)
	}

	token, err := m.identity.ExchangeJWT(ctx, assertion)
	if err != nil {
		return "", err
	}
	if token == nil || token.AccessToken == "" {
		return "", fmt.Errorf("%w: token response had no access token. %s", errors.ErrAuthentication, errors.ConsentHint)
	}
	return token.AccessToken, nil
}

func (m *Manager) discover(ctx context.Context, accessToken string) (string, string, error) {
	info, err := m.identity.UserInfo(ctx, accessToken)
	if err != nil {
		return "", "", err
	}
	if len(info.Accounts) == 0 {
		return "", "", fmt.Errorf("%w: no accounts found for user %s", errors.ErrDiscovery, m.config.GetImpersonatedUserID())
	}

	account := info.Accounts[0]
	return account.RestBaseURI(), account.AccountID, nil
}

// AuthenticatedHandle returns a handle carrying a non-expired token.
func (m *Manager) AuthenticatedHandle(ctx context.Context) (*Handle, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	if m.handle == nil {
		m.handle = m.newHandle()
	}
	return m.handle, nil
}

func (m *Manager) newHandle() *Handle {
	token := &oauth2.Token{
		AccessToken: m.session.AccessToken,
		TokenType:   "Bearer",
	}
	client := oauth2.NewClient(context.WithValue(context.Background(), oauth2.HTTPClient, m.httpClient), oauth2.StaticTokenSource(token))
	client.Timeout = m.httpClient.Timeout

	return &Handle{
		BaseURI:     m.session.BaseURI,
		AccessToken: m.session.AccessToken,
		HTTPClient:  client,
	}
}

// AccountID returns the discovered operating account id.
func (m *Manager) AccountID(ctx context.Context) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if err := m.ensureAuthenticated(ctx); err != nil {
		return "", err
	}
	return m.session.AccountID, nil
}

// State reports the current lifecycle state without touching the network.
func (m *Manager) State() State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.session.state()
}

// Snapshot returns a copy of the session.
func (m *Manager) Snapshot() Session {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.session
}
