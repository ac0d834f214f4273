package identityfake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/docusign-mcp-server/identity"
	"github.com/jrsteele09/docusign-mcp-server/internal/errors"
	"github.com/jrsteele09/docusign-mcp-server/oauthmodel"
	"golang.org/x/oauth2"
)

var _ identity.Provider = (*FakeIdentityProvider)(nil)

// FakeIdentityProvider issues sequential tokens and serves a fixed userinfo
// document while counting calls.
type FakeIdentityProvider struct {
	UserInfoResponse *oauthmodel.UserInfo
	ExchangeErr      error
	UserInfoErr      error
	ExchangeDelay    time.Duration

	lock          sync.Mutex
	exchangeCalls int
	userInfoCalls int
	assertions    []string
	userInfoToken string
}

// NewFakeIdentityProvider returns a provider whose user belongs to one account.
func NewFakeIdentityProvider(accountID, baseURI string) *FakeIdentityProvider {
	return &FakeIdentityProvider{
		UserInfoResponse: &oauthmodel.UserInfo{
			Sub:   "user-guid",
			Name:  "Test User",
			Email: "test.user@example.com",
			Accounts: []oauthmodel.Account{
				{AccountID: accountID, IsDefault: true, AccountName: "Test Account", BaseURI: baseURI},
			},
		},
	}
}

func (f *FakeIdentityProvider) ExchangeJWT(ctx context.Context, assertion string) (*oauth2.Token, error) {
	if f.ExchangeDelay > 0 {
		time.Sleep(f.ExchangeDelay)
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	f.exchangeCalls++
	f.assertions = append(f.assertions, assertion)
	if f.ExchangeErr != nil {
		return nil, fmt.Errorf("%w: failed to obtain JWT token: %v. %s", errors.ErrAuthentication, f.ExchangeErr, errors.ConsentHint)
	}
	return &oauth2.Token{
		AccessToken: fmt.Sprintf("token-%d", f.exchangeCalls),
		TokenType:   "Bearer",
	}, nil
}

func (f *FakeIdentityProvider) UserInfo(ctx context.Context, accessToken string) (*oauthmodel.UserInfo, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.userInfoCalls++
	f.userInfoToken = accessToken
	if f.UserInfoErr != nil {
		return nil, fmt.Errorf("%w: failed to discover base URI: %v", errors.ErrDiscovery, f.UserInfoErr)
	}
	info := *f.UserInfoResponse
	return &info, nil
}

func (f *FakeIdentityProvider) ExchangeCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.exchangeCalls
}

func (f *FakeIdentityProvider) UserInfoCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.userInfoCalls
}

// Assertions returns every assertion received, oldest first.
func (f *FakeIdentityProvider) Assertions() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.assertions...)
}

// LastUserInfoToken is the access token presented on the last userinfo call.
func (f *FakeIdentityProvider) LastUserInfoToken() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.userInfoToken
}

func (f *FakeIdentityProvider) SetUserInfo(info *oauthmodel.UserInfo, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.UserInfoResponse = info
	f.UserInfoErr = err
}
