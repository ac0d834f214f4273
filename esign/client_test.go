package esign_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/jrsteele09/docusign-mcp-server/esign"
	"github.com/jrsteele09/docusign-mcp-server/internal/errors"
	"github.com/jrsteele09/docusign-mcp-server/internal/utils"
	"github.com/jrsteele09/docusign-mcp-server/sessions"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const accountPrefix = "/restapi/v2.1/accounts/acct-123"

type capturedRequest struct {
	method string
	path   string
	query  url.Values
	accept string
	body   []byte
}

// testFixture holds all test dependencies
type testFixture struct {
	client *esign.Client
	mux    *http.ServeMux

	lock     sync.Mutex
	requests []capturedRequest
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{mux: http.NewServeMux()}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.lock.Lock()
		f.requests = append(f.requests, capturedRequest{method: r.Method, path: r.URL.EscapedPath(), query: r.URL.Query(), accept: r.Header.Get("Accept"), body: body})
		f.lock.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	handle := &sessions.Handle{BaseURI: server.URL + "/restapi/", HTTPClient: server.Client()}
	f.client = esign.New(handle, esign.WithLogger(zerolog.Nop()))
	return f
}

func (f *testFixture) lastRequest(t *testing.T) capturedRequest {
	t.Helper()
	f.lock.Lock()
	defer f.lock.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestCreateEnvelope(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("POST "+accountPrefix+"/envelopes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"envelopeId":"env-1","status":"sent","statusDateTime":"2026-10-15T09:00:00.0000000Z","uri":"/envelopes/env-1"}`)
	})

	definition := &esign.EnvelopeDefinition{
		TemplateID:   "tmpl-1",
		EmailSubject: "Please sign",
		TemplateRoles: []esign.TemplateRole{
			{RoleName: "Signer1", Name: "John Doe", Email: "john@example.com"},
		},
		Status: "sent",
	}

	summary, err := f.client.CreateEnvelope(context.Background(), "acct-123", definition)
	require.NoError(t, err)
	require.Equal(t, "env-1", utils.Value(summary.EnvelopeID))
	require.Equal(t, "sent", utils.Value(summary.Status))
	require.Equal(t, "2026-10-15T09:00:00.0000000Z", utils.Value(summary.StatusDateTime))

	req := f.lastRequest(t)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(req.body, &sent))
	require.Equal(t, "tmpl-1", sent["templateId"])
	require.Equal(t, "Please sign", sent["emailSubject"])
	require.NotContains(t, sent, "emailBlurb")
	require.NotContains(t, sent, "documents")

	roles := sent["templateRoles"].([]any)
	require.Len(t, roles, 1)
	role := roles[0].(map[string]any)
	require.Equal(t, "Signer1", role["roleName"])
	require.Equal(t, "john@example.com", role["email"])
	require.NotContains(t, role, "clientUserId")
}

func TestGetEnvelopeKeepsAbsentFieldsNil(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET "+accountPrefix+"/envelopes/env-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"envelopeId":"env-1","status":"completed","emailSubject":"Please sign","completedDateTime":"2026-10-15T10:00:00Z"}`)
	})

	envelope, err := f.client.GetEnvelope(context.Background(), "acct-123", "env-1")
	require.NoError(t, err)
	require.Equal(t, "completed", utils.Value(envelope.Status))
	require.Equal(t, "2026-10-15T10:00:00Z", utils.Value(envelope.CompletedDateTime))
	require.Nil(t, envelope.EmailBlurb)
	require.Nil(t, envelope.VoidedDateTime)
}

func TestListStatusChangesForwardsOnlySetFilters(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET "+accountPrefix+"/envelopes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"envelopes":[{"envelopeId":"env-1","status":"sent"}],"resultSetSize":"1","totalSetSize":"1"}`)
	})

	info, err := f.client.ListStatusChanges(context.Background(), "acct-123", esign.ListStatusChangesOptions{FromDate: "2026-01-01T00:00:00Z"})
	require.NoError(t, err)
	require.Len(t, info.Envelopes, 1)
	require.Equal(t, "1", utils.Value(info.ResultSetSize))

	req := f.lastRequest(t)
	require.Equal(t, "application/json", req.accept)
	require.Equal(t, "2026-01-01T00:00:00Z", req.query.Get("from_date"))
	require.NotContains(t, req.query, "to_date")
	require.NotContains(t, req.query, "status")
}

func TestListDocuments(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET "+accountPrefix+"/envelopes/env-1/documents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"envelopeId":"env-1","envelopeDocuments":[
			{"documentId":"1","name":"contract.pdf","type":"content","uri":"/envelopes/env-1/documents/1","order":"1","pages":[{"pageId":"a","sequence":"1"},{"pageId":"b","sequence":"2"}]},
			{"documentId":"certificate","name":"Summary","type":"summary","uri":"/envelopes/env-1/documents/certificate"}
		]}`)
	})

	result, err := f.client.ListDocuments(context.Background(), "acct-123", "env-1")
	require.NoError(t, err)
	require.Len(t, result.EnvelopeDocuments, 2)
	require.Len(t, result.EnvelopeDocuments[0].Pages, 2)
	require.Nil(t, result.EnvelopeDocuments[1].Order)
}

func TestGetDocumentReturnsRawBytes(t *testing.T) {
	f := setupTestFixture(t)
	content := []byte("%PDF-1.7\x00\x01\x02binary")
	f.mux.HandleFunc("GET "+accountPrefix+"/envelopes/env-1/documents/combined", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(content)
	})

	downloaded, err := f.client.GetDocument(context.Background(), "acct-123", "env-1", "combined")
	require.NoError(t, err)
	require.Equal(t, content, downloaded)
	require.Equal(t, "application/pdf", f.lastRequest(t).accept)
}

func TestListTemplatesSearchText(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET "+accountPrefix+"/templates", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"resultSetSize":"0","totalSetSize":"0"}`)
	})

	results, err := f.client.ListTemplates(context.Background(), "acct-123", esign.ListTemplatesOptions{SearchText: "NDA"})
	require.NoError(t, err)
	require.Empty(t, results.EnvelopeTemplates)
	require.Equal(t, "NDA", f.lastRequest(t).query.Get("search_text"))

	_, err = f.client.ListTemplates(context.Background(), "acct-123", esign.ListTemplatesOptions{})
	require.NoError(t, err)
	require.Empty(t, f.lastRequest(t).query)
}

func TestGetTemplate(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET "+accountPrefix+"/templates/tmpl-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"templateId":"tmpl-1","name":"NDA","shared":"false",
			"recipients":{"signers":[{"roleName":"Signer1","recipientId":"1","routingOrder":"1"}]},
			"documents":[{"documentId":"1","name":"nda.pdf","fileExtension":"pdf","order":"1"}]}`)
	})

	template, err := f.client.GetTemplate(context.Background(), "acct-123", "tmpl-1")
	require.NoError(t, err)
	require.Equal(t, "NDA", utils.Value(template.Name))
	require.Len(t, template.Recipients.Signers, 1)
	require.Equal(t, "Signer1", utils.Value(template.Recipients.Signers[0].RoleName))
	require.Len(t, template.Documents, 1)
}

func TestPathSegmentsAreEscaped(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	_, err := f.client.GetEnvelope(context.Background(), "acct-123", "a/b")
	require.NoError(t, err)
	require.Equal(t, accountPrefix+"/envelopes/a%2Fb", f.lastRequest(t).path)
}

func TestRemoteErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		errorCode    string
		message      string
		unauthorized bool
	}{
		{
			name:      "docusign error body",
			status:    http.StatusBadRequest,
			body:      `{"errorCode":"ENVELOPE_DOES_NOT_EXIST","message":"The envelope specified either does not exist or you have no rights to it."}`,
			errorCode: "ENVELOPE_DOES_NOT_EXIST",
			message:   "The envelope specified either does not exist or you have no rights to it.",
		},
		{
			name:         "expired token",
			status:       http.StatusUnauthorized,
			body:         `{"errorCode":"AUTHORIZATION_INVALID_TOKEN","message":"The access token provided is expired, revoked or malformed."}`,
			errorCode:    "AUTHORIZATION_INVALID_TOKEN",
			message:      "The access token provided is expired, revoked or malformed.",
			unauthorized: true,
		},
		{
			name:    "plain text body",
			status:  http.StatusBadGateway,
			body:    "upstream unavailable",
			message: "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			f.mux.HandleFunc("GET "+accountPrefix+"/envelopes/env-1", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := f.client.GetEnvelope(context.Background(), "acct-123", "env-1")
			require.Error(t, err)
			require.True(t, errors.Is(err, errors.ErrRemoteAPI))

			var apiErr *errors.APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.errorCode, apiErr.ErrorCode)
			require.Equal(t, tt.message, apiErr.Message)
			require.Equal(t, "get envelope", apiErr.Operation)
			require.Equal(t, tt.unauthorized, apiErr.IsUnauthorized())
		})
	}
}
