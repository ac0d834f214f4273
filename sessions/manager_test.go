package sessions_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/docusign-mcp-server/identity/identityfake"
	"github.com/jrsteele09/docusign-mcp-server/internal/config"
	"github.com/jrsteele09/docusign-mcp-server/internal/errors"
	"github.com/jrsteele09/docusign-mcp-server/oauthmodel"
	"github.com/jrsteele09/docusign-mcp-server/sessions"
	"github.com/jrsteele09/docusign-mcp-server/token/keys"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testAccountID = "acct-123"
	testBaseURI   = "https://demo.docusign.net"
)

var inlineKey = sync.OnceValue(func() string {
	keyPair, err := keys.GenerateRSAKeyPair("", 2048)
	if err != nil {
		panic(err)
	}
	privatePEM, err := keyPair.ExportPrivateKeyPEM()
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString([]byte(privatePEM))
})

// testClock is a settable clock
type testClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *testClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = t
}

// testFixture holds all test dependencies
type testFixture struct {
	clock    *testClock
	identity *identityfake.FakeIdentityProvider
	manager  *sessions.Manager
	start    time.Time
}

func testConfig(source config.PrivateKeySource) config.DocuSign {
	return config.DocuSign{
		AuthBaseURL:        config.DefaultAuthBaseURL,
		IntegrationKey:     "integration-key",
		ImpersonatedUserID: "user-guid",
		OAuthScopes:        []string{"signature", "impersonation"},
		PrivateKey:         source,
		TokenLifetime:      time.Hour,
	}
}

func setupTestFixture(t *testing.T, options ...sessions.ManagerOption) *testFixture {
	t.Helper()
	return setupTestFixtureWithSource(t, config.PrivateKeySource{Inline: inlineKey()}, options...)
}

func setupTestFixtureWithSource(t *testing.T, source config.PrivateKeySource, options ...sessions.ManagerOption) *testFixture {
	t.Helper()

	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	clock := &testClock{now: start}
	provider := identityfake.NewFakeIdentityProvider(testAccountID, testBaseURI)

	options = append([]sessions.ManagerOption{
		sessions.WithNowFunc(clock.Now),
		sessions.WithLogger(zerolog.Nop()),
	}, options...)

	return &testFixture{
		clock:    clock,
		identity: provider,
		manager:  sessions.NewManager(testConfig(source), provider, options...),
		start:    start,
	}
}

func TestEnsureAuthenticatedFromScratch(t *testing.T) {
	f := setupTestFixture(t)
	require.Equal(t, sessions.StateUnauthenticated, f.manager.State())

	require.NoError(t, f.manager.EnsureAuthenticated(context.Background()))
	require.Equal(t, 1, f.identity.ExchangeCalls())
	require.Equal(t, 1, f.identity.UserInfoCalls())
	require.Equal(t, "token-1", f.identity.LastUserInfoToken())
	require.Equal(t, sessions.StateReady, f.manager.State())

	session := f.manager.Snapshot()
	require.Equal(t, "token-1", session.AccessToken)
	require.Equal(t, f.start.Add(time.Hour), session.ExpiresAt)
	require.Equal(t, testBaseURI+"/restapi", session.BaseURI)
	require.Equal(t, testAccountID, session.AccountID)
}

func TestEnsureAuthenticatedWithinFreshnessWindow(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.EnsureAuthenticated(ctx))

	// Just inside the window: expiry minus the margin minus one second
	f.clock.Set(f.start.Add(time.Hour - sessions.RefreshMargin - time.Second))
	require.NoError(t, f.manager.EnsureAuthenticated(ctx))

	accountID, err := f.manager.AccountID(ctx)
	require.NoError(t, err)
	require.Equal(t, testAccountID, accountID)

	_, err = f.manager.AuthenticatedHandle(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, f.identity.ExchangeCalls())
	require.Equal(t, 1, f.identity.UserInfoCalls())
}

func TestEnsureAuthenticatedRefreshesInsideMargin(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.EnsureAuthenticated(ctx))

	refreshAt := f.start.Add(time.Hour - sessions.RefreshMargin)
	f.clock.Set(refreshAt)
	require.NoError(t, f.manager.EnsureAuthenticated(ctx))

	require.Equal(t, 2, f.identity.ExchangeCalls())
	require.Equal(t, 1, f.identity.UserInfoCalls())

	session := f.manager.Snapshot()
	require.Equal(t, "token-2", session.AccessToken)
	require.Equal(t, refreshAt.Add(time.Hour), session.ExpiresAt)
}

func TestExpiredTokenKeepsDiscoveredAccount(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.EnsureAuthenticated(ctx))
	before := f.manager.Snapshot()

	// The account changes upstream, but discovery is not repeated
	f.identity.SetUserInfo(&oauthmodel.UserInfo{
		Accounts: []oauthmodel.Account{{AccountID: "acct-other", BaseURI: "https://eu.docusign.net"}},
	}, nil)

	f.clock.Set(before.ExpiresAt)
	require.NoError(t, f.manager.EnsureAuthenticated(ctx))

	after := f.manager.Snapshot()
	require.Equal(t, 2, f.identity.ExchangeCalls())
	require.Equal(t, 1, f.identity.UserInfoCalls())
	require.Equal(t, before.BaseURI, after.BaseURI)
	require.Equal(t, before.AccountID, after.AccountID)
	require.NotEqual(t, before.AccessToken, after.AccessToken)
}

func TestDiscoveryWithNoAccounts(t *testing.T) {
	f := setupTestFixture(t)
	f.identity.SetUserInfo(&oauthmodel.UserInfo{Sub: "user-guid"}, nil)
	ctx := context.Background()

	err := f.manager.EnsureAuthenticated(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrDiscovery))

	// The token survives the failed discovery
	session := f.manager.Snapshot()
	require.Equal(t, "token-1", session.AccessToken)
	require.Empty(t, session.BaseURI)
	require.Empty(t, session.AccountID)
	require.Equal(t, sessions.StateAuthenticatedUndiscovered, f.manager.State())

	// Next call retries discovery only
	f.identity.SetUserInfo(identityfake.NewFakeIdentityProvider(testAccountID, testBaseURI).UserInfoResponse, nil)
	accountID, err := f.manager.AccountID(ctx)
	require.NoError(t, err)
	require.Equal(t, testAccountID, accountID)
	require.Equal(t, 1, f.identity.ExchangeCalls())
	require.Equal(t, 2, f.identity.UserInfoCalls())
}

func TestDiscoveryUsesFirstAccount(t *testing.T) {
	f := setupTestFixture(t)
	f.identity.SetUserInfo(&oauthmodel.UserInfo{
		Accounts: []oauthmodel.Account{
			{AccountID: "acct-first", IsDefault: false, BaseURI: "https://na3.docusign.net"},
			{AccountID: "acct-second", IsDefault: true, BaseURI: "https://na2.docusign.net"},
		},
	}, nil)

	handle, err := f.manager.AuthenticatedHandle(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://na3.docusign.net/restapi", handle.BaseURI)

	accountID, err := f.manager.AccountID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "acct-first", accountID)
}

func TestAuthenticationFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.identity.ExchangeErr = errors.ErrInvalidArgument

	_, err := f.manager.AuthenticatedHandle(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrAuthentication))
	require.Contains(t, err.Error(), errors.ConsentHint)
	require.Equal(t, 0, f.identity.UserInfoCalls())
	require.Equal(t, sessions.StateUnauthenticated, f.manager.State())
}

func TestFailedRefreshKeepsPreviousToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.EnsureAuthenticated(ctx))

	f.identity.ExchangeErr = errors.ErrInvalidArgument
	f.clock.Set(f.start.Add(2 * time.Hour))
	require.True(t, errors.Is(f.manager.EnsureAuthenticated(ctx), errors.ErrAuthentication))

	session := f.manager.Snapshot()
	require.Equal(t, "token-1", session.AccessToken)
	require.Equal(t, testAccountID, session.AccountID)
}

func TestCredentialLoadFailure(t *testing.T) {
	f := setupTestFixtureWithSource(t, config.PrivateKeySource{Path: filepath.Join(t.TempDir(), "missing.key")})

	err := f.manager.EnsureAuthenticated(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrCredentialLoad))
	require.Equal(t, 0, f.identity.ExchangeCalls())
}

func TestConcurrentCallersShareOneExchange(t *testing.T) {
	f := setupTestFixture(t)
	f.identity.ExchangeDelay = 20 * time.Millisecond

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.AuthenticatedHandle(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.identity.ExchangeCalls())
	require.Equal(t, 1, f.identity.UserInfoCalls())
}

func TestAssertionUsesManagerClock(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.manager.EnsureAuthenticated(context.Background()))

	assertions := f.identity.Assertions()
	require.Len(t, assertions, 1)

	claims := jwtlib.MapClaims{}
	_, _, err := jwtlib.NewParser().ParseUnverified(assertions[0], claims)
	require.NoError(t, err)
	require.EqualValues(t, f.start.Unix(), claims["iat"])
	require.EqualValues(t, f.start.Add(time.Hour).Unix(), claims["exp"])
}

func TestHandleSendsBearerToken(t *testing.T) {
	authHeaders := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders <- r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	f := setupTestFixture(t, sessions.WithHTTPClient(server.Client()))
	handle, err := f.manager.AuthenticatedHandle(context.Background())
	require.NoError(t, err)

	resp, err := handle.HTTPClient.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "Bearer token-1", <-authHeaders)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "unauthenticated", sessions.StateUnauthenticated.String())
	require.Equal(t, "authenticated_undiscovered", sessions.StateAuthenticatedUndiscovered.String())
	require.Equal(t, "ready", sessions.StateReady.String())
}
