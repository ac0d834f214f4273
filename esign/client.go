package esign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/docusign-mcp-server/internal/errors"
	"github.com/jrsteele09/docusign-mcp-server/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	apiVersion = "v2.1"

	contentTypeJSON = "application/json"
	contentTypePDF  = "application/pdf"
)

// API is the subset of the eSignature REST API the tools use.
type API interface {
	CreateEnvelope(ctx context.Context, accountID string, definition *EnvelopeDefinition) (*EnvelopeSummary, error)
	GetEnvelope(ctx context.Context, accountID, envelopeID string) (*Envelope, error)
	ListStatusChanges(ctx context.Context, accountID string, options ListStatusChangesOptions) (*EnvelopesInformation, error)
	ListDocuments(ctx context.Context, accountID, envelopeID string) (*EnvelopeDocumentsResult, error)
	// GetDocument returns the raw document bytes.
	GetDocument(ctx context.Context, accountID, envelopeID, documentID string) ([]byte, error)
	ListTemplates(ctx context.Context, accountID string, options ListTemplatesOptions) (*EnvelopeTemplateResults, error)
	GetTemplate(ctx context.Context, accountID, templateID string) (*EnvelopeTemplate, error)
}

// Client calls the REST API under an authenticated handle's base URI.
type Client struct {
	baseURI    string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ API = (*Client)(nil)

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New binds a client to the handle's base URI and bearer transport.
func New(handle *sessions.Handle, options ...Option) *Client {
	c := &Client{
		baseURI:    strings.TrimRight(handle.BaseURI, "/"),
		httpClient: handle.HTTPClient,
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c
}

func (c *Client) CreateEnvelope(ctx context.Context, accountID string, definition *EnvelopeDefinition) (*EnvelopeSummary, error) {
	var summary EnvelopeSummary
	err := c.doJSON(ctx, "create envelope", http.MethodPost, c.accountPath(accountID, "envelopes"), nil, definition, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) GetEnvelope(ctx context.Context, accountID, envelopeID string) (*Envelope, error) {
	var envelope Envelope
	err := c.doJSON(ctx, "get envelope", http.MethodGet, c.accountPath(accountID, "envelopes", envelopeID), nil, nil, &envelope)
	if err != nil {
		return nil, err
	}
	return &envelope, nil
}

func (c *Client) ListStatusChanges(ctx context.Context, accountID string, options ListStatusChangesOptions) (*EnvelopesInformation, error) {
	query := url.Values{}
	setIfNotEmpty(query, "from_date", options.FromDate)
	setIfNotEmpty(query, "to_date", options.ToDate)
	setIfNotEmpty(query, "status", options.Status)

	var info EnvelopesInformation
	err := c.doJSON(ctx, "list envelopes", http.MethodGet, c.accountPath(accountID, "envelopes"), query, nil, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) ListDocuments(ctx context.Context, accountID, envelopeID string) (*EnvelopeDocumentsResult, error) {
	var result EnvelopeDocumentsResult
	err := c.doJSON(ctx, "list envelope documents", http.MethodGet, c.accountPath(accountID, "envelopes", envelopeID, "documents"), nil, nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetDocument(ctx context.Context, accountID, envelopeID, documentID string) ([]byte, error) {
	const operation = "download envelope document"

	resp, err := c.do(ctx, operation, http.MethodGet, c.accountPath(accountID, "envelopes", envelopeID, "documents", documentID), contentTypePDF, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading body: %v", errors.ErrRemoteAPI, operation, err)
	}
	return content, nil
}

func (c *Client) ListTemplates(ctx context.Context, accountID string, options ListTemplatesOptions) (*EnvelopeTemplateResults, error) {
	query := url.Values{}
	setIfNotEmpty(query, "search_text", options.SearchText)

	var results EnvelopeTemplateResults
	err := c.doJSON(ctx, "list templates", http.MethodGet, c.accountPath(accountID, "templates"), query, nil, &results)
	if err != nil {
		return nil, err
	}
	return &results, nil
}

func (c *Client) GetTemplate(ctx context.Context, accountID, templateID string) (*EnvelopeTemplate, error) {
	var template EnvelopeTemplate
	err := c.doJSON(ctx, "get template", http.MethodGet, c.accountPath(accountID, "templates", templateID), nil, nil, &template)
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// accountPath builds {baseURI}/v2.1/accounts/{accountID}/{segments...} with
// every segment path-escaped.
func (c *Client) accountPath(accountID string, segments ...string) string {
	escaped := make([]string, 0, len(segments)+3)
	escaped = append(escaped, apiVersion, "accounts", url.PathEscape(accountID))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return c.baseURI + "/" + strings.Join(escaped, "/")
}

func (c *Client) doJSON(ctx context.Context, operation, method, endpoint string, query url.Values, body, out any) error {
	resp, err := c.do(ctx, operation, method, endpoint, contentTypeJSON, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decoding response: %v", errors.ErrRemoteAPI, operation, err)
	}
	return nil
}

// do sends the request and returns the response for 2xx statuses. Any other
// status is returned as *errors.APIError.
func (c *Client) do(ctx context.Context, operation, method, endpoint, accept string, query url.Values, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: encoding request: %v", errors.ErrRemoteAPI, operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrRemoteAPI, operation, err)
	}
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	c.logger.Debug().Str("operation", operation).Str("method", method).Str("url", endpoint).Msg("esign request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrRemoteAPI, operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := parseAPIError(operation, resp)
		c.logger.Warn().Str("operation", operation).Int("status", resp.StatusCode).Str("errorCode", apiErr.ErrorCode).Msg("esign request failed")
		return nil, apiErr
	}
	return resp, nil
}

type errorDetails struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func parseAPIError(operation string, resp *http.Response) *errors.APIError {
	apiErr := &errors.APIError{StatusCode: resp.StatusCode, Operation: operation}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}

	var details errorDetails
	if json.Unmarshal(raw, &details) == nil {
		apiErr.ErrorCode, apiErr.Message = details.ErrorCode, details.Message
	} else if text := strings.TrimSpace(string(raw)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}

func setIfNotEmpty(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}
