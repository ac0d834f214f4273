package oauthmodel

// UserInfo is the response from the userinfo endpoint.
// Returned for any valid access token, it lists the accounts the user belongs to.
type UserInfo struct {
	// Sub is the user GUID.
	// Example: "4799e5e9-1559-4915-9862-cf4713bbcacc"
	Sub string `json:"sub"`

	// Name is the user's full name.
	// Example: "Susan Smart"
	Name string `json:"name,omitempty"`

	// Email is the user's email address.
	// Example: "susan.smart@example.com"
	Email string `json:"email,omitempty"`

	// Accounts lists every account the user is a member of.
	// Usage: The first entry is treated as the operating account
	// Note: May be empty if the user was removed from all accounts
	Accounts []Account `json:"accounts"`
}

// Account is a single account membership within UserInfo.
type Account struct {
	// AccountID is the account GUID used in every REST path.
	// Example: "18b4799a-b53a-4475-ae9b-dc1c0c2a5a52"
	AccountID string `json:"account_id"`

	// IsDefault marks the user's default account.
	IsDefault bool `json:"is_default"`

	// AccountName is the display name of the account.
	// Example: "NewCo"
	AccountName string `json:"account_name,omitempty"`

	// BaseURI is the account's data centre.
	// Example: "https://demo.docusign.net"
	// Usage: REST calls go to BaseURI + RestAPISuffix
	BaseURI string `json:"base_uri"`
}

// RestBaseURI returns the REST endpoint for the account.
func (a Account) RestBaseURI() string {
	return a.BaseURI + RestAPISuffix
}
