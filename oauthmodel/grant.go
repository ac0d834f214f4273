package oauthmodel

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// JWTBearerGrant exchanges a signed JWT assertion for an access token (RFC 7523).
	// Used in: Server-to-server impersonation, no user interaction at runtime
	// Token request includes: grant_type, assertion
	// Returns: access_token, token_type, expires_in (no refresh_token)
	// Prerequisite: The impersonated user (or an admin) has granted consent to the integration key
	JWTBearerGrant GrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

const (
	// TokenPath is appended to the auth base URL for the token endpoint.
	// Example: https://account-d.docusign.com/oauth/token
	TokenPath = "/oauth/token"

	// UserInfoPath is appended to the auth base URL for the userinfo endpoint.
	// Example: https://account-d.docusign.com/oauth/userinfo
	UserInfoPath = "/oauth/userinfo"

	// RestAPISuffix is appended to an account base URI to form the REST endpoint.
	// Example: https://demo.docusign.net + /restapi
	RestAPISuffix = "/restapi"
)
