package apifake

import (
	"context"
	"sync"

	"github.com/jrsteele09/docusign-mcp-server/esign"
)

var _ esign.API = (*FakeAPI)(nil)

// Call is one recorded API call.
type Call struct {
	Method     string
	AccountID  string
	ID         string // Envelope or template id, when the call has one
	DocumentID string
	Definition *esign.EnvelopeDefinition
	Envelopes  esign.ListStatusChangesOptions
	Templates  esign.ListTemplatesOptions
}

// FakeAPI returns canned responses and records every call. Err, when set, is
// returned by every method.
type FakeAPI struct {
	Summary         *esign.EnvelopeSummary
	Envelope        *esign.Envelope
	EnvelopesInfo   *esign.EnvelopesInformation
	DocumentsResult *esign.EnvelopeDocumentsResult
	DocumentContent []byte
	TemplateResults *esign.EnvelopeTemplateResults
	Template        *esign.EnvelopeTemplate
	Err             error

	lock  sync.Mutex
	calls []Call
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{}
}

func (f *FakeAPI) record(call Call) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls = append(f.calls, call)
	return f.Err
}

// Calls returns the recorded calls, oldest first.
func (f *FakeAPI) Calls() []Call {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *FakeAPI) CreateEnvelope(ctx context.Context, accountID string, definition *esign.EnvelopeDefinition) (*esign.EnvelopeSummary, error) {
	if err := f.record(Call{Method: "CreateEnvelope", AccountID: accountID, Definition: definition}); err != nil {
		return nil, err
	}
	return orEmpty(f.Summary), nil
}

func (f *FakeAPI) GetEnvelope(ctx context.Context, accountID, envelopeID string) (*esign.Envelope, error) {
	if err := f.record(Call{Method: "GetEnvelope", AccountID: accountID, ID: envelopeID}); err != nil {
		return nil, err
	}
	return orEmpty(f.Envelope), nil
}

func (f *FakeAPI) ListStatusChanges(ctx context.Context, accountID string, options esign.ListStatusChangesOptions) (*esign.EnvelopesInformation, error) {
	if err := f.record(Call{Method: "ListStatusChanges", AccountID: accountID, Envelopes: options}); err != nil {
		return nil, err
	}
	return orEmpty(f.EnvelopesInfo), nil
}

func (f *FakeAPI) ListDocuments(ctx context.Context, accountID, envelopeID string) (*esign.EnvelopeDocumentsResult, error) {
	if err := f.record(Call{Method: "ListDocuments", AccountID: accountID, ID: envelopeID}); err != nil {
		return nil, err
	}
	return orEmpty(f.DocumentsResult), nil
}

func (f *FakeAPI) GetDocument(ctx context.Context, accountID, envelopeID, documentID string) ([]byte, error) {
	if err := f.record(Call{Method: "GetDocument", AccountID: accountID, ID: envelopeID, DocumentID: documentID}); err != nil {
		return nil, err
	}
	return append([]byte(nil), f.DocumentContent...), nil
}

func (f *FakeAPI) ListTemplates(ctx context.Context, accountID string, options esign.ListTemplatesOptions) (*esign.EnvelopeTemplateResults, error) {
	if err := f.record(Call{Method: "ListTemplates", AccountID: accountID, Templates: options}); err != nil {
		return nil, err
	}
	return orEmpty(f.TemplateResults), nil
}

func (f *FakeAPI) GetTemplate(ctx context.Context, accountID, templateID string) (*esign.EnvelopeTemplate, error) {
	if err := f.record(Call{Method: "GetTemplate", AccountID: accountID, ID: templateID}); err != nil {
		return nil, err
	}
	return orEmpty(f.Template), nil
}

func orEmpty[T any](v *T) *T {
	if v == nil {
		return new(T)
	}
	return v
}
