package tools

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/docusign-mcp-server/esign"
	"github.com/jrsteele09/docusign-mcp-server/internal/errors"
	"github.com/jrsteele09/docusign-mcp-server/internal/utils"
	"github.com/jrsteele09/docusign-mcp-server/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultEnvelopeStatus = "sent"
	DefaultRoutingOrder   = "1"
)

// Session supplies the authenticated handle and operating account id.
// *sessions.Manager satisfies it.
type Session interface {
	AuthenticatedHandle(ctx context.Context) (*sessions.Handle, error)
	AccountID(ctx context.Context) (string, error)
}

// APIFactory binds an eSignature client to a handle.
type APIFactory func(handle *sessions.Handle) esign.API

// Service implements the tool operations. Each operation makes exactly one
// remote call and returns a flat mapping.
type Service struct {
	session Session
	newAPI  APIFactory
	logger  zerolog.Logger
}

type ServiceOption func(*Service)

func WithAPIFactory(factory APIFactory) ServiceOption {
	return func(s *Service) {
		s.newAPI = factory
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(session Session, options ...ServiceOption) *Service {
	s := &Service{
		session: session,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.newAPI == nil {
		logger := s.logger
		s.newAPI = func(handle *sessions.Handle) esign.API {
			return esign.New(handle, esign.WithLogger(logger))
		}
	}
	return s
}

// RoleAssignment binds a recipient to a template role.
type RoleAssignment struct {
	RoleName     string `json:"roleName"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ClientUserID string `json:"clientUserId,omitempty"` // Embedded signing only
}

type TemplateEnvelopeRequest struct {
	TemplateID      string
	EmailSubject    string
	RoleAssignments []RoleAssignment
	EmailBlurb      string
	Status          string // Defaults to "sent"; "created" saves a draft
}

type DocumentInput struct {
	Name           string `json:"name"`
	DocumentID     string `json:"documentId"`
	FileExtension  string `json:"fileExtension"`
	DocumentBase64 string `json:"documentBase64"`
}

type SignerInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	RecipientID  string `json:"recipientId"`
	RoutingOrder string `json:"routingOrder"` // Defaults to "1"
	ClientUserID string `json:"clientUserId,omitempty"`
}

type RecipientsInput struct {
	Signers []SignerInput `json:"signers"`
}

type DocumentsEnvelopeRequest struct {
	Documents    []DocumentInput
	Recipients   RecipientsInput
	EmailSubject string
	EmailBlurb   string
	Status       string
}

type ListEnvelopesRequest struct {
	FromDate string
	ToDate   string
	Status   string
}

// connect resolves the handle and account id for one tool call.
func (s *Service) connect(ctx context.Context) (esign.API, string, error) {
	handle, err := s.session.AuthenticatedHandle(ctx)
	if err != nil {
		return nil, "", err
	}
	accountID, err := s.session.AccountID(ctx)
	if err != nil {
		return nil, "", err
	}
	return s.newAPI(handle), accountID, nil
}

func requireArgument(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", errors.ErrInvalidArgument, name)
	}
	return nil
}

func statusOrDefault(status string) string {
	if status == "" {
		return DefaultEnvelopeStatus
	}
	return status
}

func summaryResult(summary *esign.EnvelopeSummary) map[string]any {
	return map[string]any{
		"envelopeId":     utils.OrNil(summary.EnvelopeID),
		"status":         utils.OrNil(summary.Status),
		"statusDateTime": utils.OrNil(summary.StatusDateTime),
	}
}

// CreateEnvelopeFromTemplate creates an envelope from a server-side template.
func (s *Service) CreateEnvelopeFromTemplate(ctx context.Context, req TemplateEnvelopeRequest) (map[string]any, error) {
	if err := requireArgument("template_id", req.TemplateID); err != nil {
		return nil, err
	}
	if err := requireArgument("email_subject", req.EmailSubject); err != nil {
		return nil, err
	}

	roles := make([]esign.TemplateRole, 0, len(req.RoleAssignments))
	for _, ra := range req.RoleAssignments {
		roles = append(roles, esign.TemplateRole{
			RoleName:     ra.RoleName,
			Name:         ra.Name,
			Email:        ra.Email,
			ClientUserID: ra.ClientUserID,
		})
	}

	definition := &esign.EnvelopeDefinition{
		TemplateID:    req.TemplateID,
		EmailSubject:  req.EmailSubject,
		EmailBlurb:    req.EmailBlurb,
		TemplateRoles: roles,
		Status:        statusOrDefault(req.Status),
	}

	api, accountID, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := api.CreateEnvelope(ctx, accountID, definition)
	if err != nil {
		return nil, err
	}
	return summaryResult(summary), nil
}

// CreateEnvelopeFromDocuments creates an envelope from inline documents and
// signers.
func (s *Service) CreateEnvelopeFromDocuments(ctx context.Context, req DocumentsEnvelopeRequest) (map[string]any, error) {
	if err := requireArgument("email_subject", req.EmailSubject); err != nil {
		return nil, err
	}

	documents := make([]esign.Document, 0, len(req.Documents))
	for _, doc := range req.Documents {
		documents = append(documents, esign.Document{
			Name:           utils.PtrIfNotEmpty(doc.Name),
			DocumentID:     utils.PtrIfNotEmpty(doc.DocumentID),
			FileExtension:  utils.PtrIfNotEmpty(doc.FileExtension),
			DocumentBase64: utils.PtrIfNotEmpty(doc.DocumentBase64),
		})
	}

	signers := make([]esign.Signer, 0, len(req.Recipients.Signers))
	for _, signer := range req.Recipients.Signers {
		routingOrder := signer.RoutingOrder
		if routingOrder == "" {
			routingOrder = DefaultRoutingOrder
		}
		signers = append(signers, esign.Signer{
			Name:         utils.PtrIfNotEmpty(signer.Name),
			Email:        utils.PtrIfNotEmpty(signer.Email),
			RecipientID:  utils.PtrIfNotEmpty(signer.RecipientID),
			RoutingOrder: utils.Ptr(routingOrder),
			ClientUserID: utils.PtrIfNotEmpty(signer.ClientUserID),
		})
	}

	definition := &esign.EnvelopeDefinition{
		EmailSubject: req.EmailSubject,
		EmailBlurb:   req.EmailBlurb,
		Documents:    documents,
		Recipients:   &esign.Recipients{Signers: signers},
		Status:       statusOrDefault(req.Status),
	}

	api, accountID, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := api.CreateEnvelope(ctx, accountID, definition)
	if err != nil {
		return nil, err
	}
	return summaryResult(summary), nil
}

// GetEnvelopeStatus returns an envelope's status and lifecycle timestamps.
func (s *Service) GetEnvelopeStatus(ctx context.Context, envelopeID string) (map[string]any, error) {
	if err := requireArgument("envelope_id", envelopeID); err != nil {
		return nil, err
	}

	api, accountID, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	envelope, err := api.GetEnvelope(ctx, accountID, envelopeID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"envelopeId":        utils.OrNil(envelope.EnvelopeID),
		"status":            utils.OrNil(envelope.Status),
		"emailSubject":      utils.OrNil(envelope.EmailSubject),
		"emailBlurb":        utils.OrNil(envelope.EmailBlurb),
		"createdDateTime":   utils.OrNil(envelope.CreatedDateTime),
		"sentDateTime":      utils.OrNil(envelope.SentDateTime),
		"deliveredDateTime": utils.OrNil(envelope.DeliveredDateTime),
		"signedDateTime":    utils.OrNil(envelope.SignedDateTime),
		"completedDateTime": utils.OrNil(envelope.CompletedDateTime),
		"declinedDateTime":  utils.OrNil(envelope.DeclinedDateTime),
		"voidedDateTime":    utils.OrNil(envelope.VoidedDateTime),
	}, nil
}

// ListEnvelopes lists envelope status changes. Empty filters are not sent.
func (s *Service) ListEnvelopes(ctx context.Context, req ListEnvelopesRequest) (map[string]any, error) {
	api, accountID, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	info, err := api.ListStatusChanges(ctx, accountID, esign.ListStatusChangesOptions{
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
		Status:   req.Status,
	})
	if err != nil {
		return nil, err
	}

	envelopes := make([]map[string]any, 0, len(info.Envelopes))
	for _, env := range info.Envelopes {
		envelopes = append(envelopes, map[string]any{
			"envelopeId":        utils.OrNil(env.EnvelopeID),
			"status":            utils.OrNil(env.Status),
			"emailSubject":      utils.OrNil(env.EmailSubject),
			"createdDateTime":   utils.OrNil(env.CreatedDateTime),
			"sentDateTime":      utils.OrNil(env.SentDateTime),
			"completedDateTime": utils.OrNil(env.CompletedDateTime),
		})
	}

	return map[string]any{
		"envelopes":     envelopes,
		"resultSetSize": utils.OrNil(info.ResultSetSize),
		"totalSetSize":  utils.OrNil(info.TotalSetSize),
	}, nil
}

// ListEnvelopeDocuments lists the documents of an envelope. pages is the
// page count, nil when the remote omits it.
func (s *Service) ListEnvelopeDocuments(ctx context.Context, envelopeID string) (map[string]any, error) {
	if err := requireArgument("envelope_id", envelopeID); err != nil {
		return nil, err
	}

	api, accountID, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	result, err := api.ListDocuments(ctx, accountID, envelopeID)
	if err != nil {
		return nil, err
	}

	documents := make([]map[string]any, 0, len(result.EnvelopeDocuments))
	for _, doc := range result.EnvelopeDocuments {
		var pages any
		if doc.Pages != nil {
			pages = len(doc.Pages)
		}
		documents = append(documents, map[string]any{
			"documentId": utils.OrNil(doc.DocumentID),
			"name":       utils.OrNil(doc.Name),
			"type":       utils.OrNil(doc.Type),
			"uri":        utils.OrNil(doc.URI),
			"order":      utils.OrNil(doc.Order),
			"pages":      pages,
		})
	}

	return map[string]any{
		"envelopeId": envelopeID,
		"documents":  documents,
	}, nil
}

// DownloadEnvelopeDocument fetches one document and returns it base64
// encoded. documentID also accepts "combined" and "certificate".
func (s *Service) DownloadEnvelopeDocument(ctx context.Context, envelopeID, documentID string) (map[string]any, error) {
	if err := requireArgument("envelope_id", envelopeID); err != nil {
		return nil, err
	}
	if err := requireArgument("document_id", documentID); err != nil {
		return nil, err
	}

	api, accountID, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	content, err := api.GetDocument(ctx, accountID, envelopeID, documentID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"envelopeId":    envelopeID,
		"documentId":    documentID,
		"contentBase64": base64.StdEncoding.EncodeToString(content),
		"sizeBytes":     len(content),
	}, nil
}

// ListTemplates lists templates, optionally filtered by name.
func (s *Service) ListTemplates(ctx context.Context, searchText string) (map[string]any, error) {
	api, accountID, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	results, err := api.ListTemplates(ctx, accountID, esign.ListTemplatesOptions{SearchText: searchText})
	if err != nil {
		return nil, err
	}

	templates := make([]map[string]any, 0, len(results.EnvelopeTemplates))
	for _, tmpl := range results.EnvelopeTemplates {
		templates = append(templates, templateSummary(&tmpl))
	}

	return map[string]any{
		"templates":     templates,
		"resultSetSize": utils.OrNil(results.ResultSetSize),
		"totalSetSize":  utils.OrNil(results.TotalSetSize),
	}, nil
}

func templateSummary(tmpl *esign.EnvelopeTemplate) map[string]any {
	return map[string]any{
		"templateId":   utils.OrNil(tmpl.TemplateID),
		"name":         utils.OrNil(tmpl.Name),
		"description":  utils.OrNil(tmpl.Description),
		"shared":       utils.OrNil(tmpl.Shared),
		"created":      utils.OrNil(tmpl.Created),
		"lastModified": utils.OrNil(tmpl.LastModified),
	}
}

// GetTemplateDefinition returns a template with its signer roles and
// documents.
func (s *Service) GetTemplateDefinition(ctx context.Context, templateID string) (map[string]any, error) {
	if err := requireArgument("template_id", templateID); err != nil {
		return nil, err
	}

	api, accountID, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	tmpl, err := api.GetTemplate(ctx, accountID, templateID)
	if err != nil {
		return nil, err
	}

	roles := []map[string]any{}
	if tmpl.Recipients != nil {
		for _, signer := range tmpl.Recipients.Signers {
			roles = append(roles, map[string]any{
				"roleName":     utils.OrNil(signer.RoleName),
				"name":         utils.OrNil(signer.Name),
				"recipientId":  utils.OrNil(signer.RecipientID),
				"routingOrder": utils.OrNil(signer.RoutingOrder),
			})
		}
	}

	documents := make([]map[string]any, 0, len(tmpl.Documents))
	for _, doc := range tmpl.Documents {
		documents = append(documents, map[string]any{
			"documentId":    utils.OrNil(doc.DocumentID),
			"name":          utils.OrNil(doc.Name),
			"fileExtension": utils.OrNil(doc.FileExtension),
			"order":         utils.OrNil(doc.Order),
		})
	}

	result := templateSummary(tmpl)
	result["emailSubject"] = utils.OrNil(tmpl.EmailSubject)
	result["emailBlurb"] = utils.OrNil(tmpl.EmailBlurb)
	result["roles"] = roles
	result["documents"] = documents
	return result, nil
}
