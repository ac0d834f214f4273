package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/docusign-mcp-server/internal/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names
const (
	CreateEnvelopeFromTemplateTool  = "create_envelope_from_template"
	CreateEnvelopeFromDocumentsTool = "create_envelope_from_documents"
	GetEnvelopeStatusTool           = "get_envelope_status"
	ListEnvelopesTool               = "list_envelopes"
	ListEnvelopeDocumentsTool       = "list_envelope_documents"
	DownloadEnvelopeDocumentTool    = "download_envelope_document"
	ListTemplatesTool               = "list_templates"
	GetTemplateDefinitionTool       = "get_template_definition"
)

var (
	roleAssignmentSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"roleName":     map[string]any{"type": "string", "description": "Role name in the template"},
			"name":         map[string]any{"type": "string", "description": "Recipient's full name"},
			"email":        map[string]any{"type": "string", "description": "Recipient's email address"},
			"clientUserId": map[string]any{"type": "string", "description": "Set for embedded signing"},
		},
		"required": []string{"roleName", "name", "email"},
	}

	documentSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":           map[string]any{"type": "string", "description": "Document name"},
			"documentId":     map[string]any{"type": "string", "description": "Document ID, e.g. \"1\""},
			"fileExtension":  map[string]any{"type": "string", "description": "File extension, e.g. \"pdf\""},
			"documentBase64": map[string]any{"type": "string", "description": "Base64 encoded document content"},
		},
		"required": []string{"name", "documentId", "fileExtension", "documentBase64"},
	}

	signerSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":         map[string]any{"type": "string"},
			"email":        map[string]any{"type": "string"},
			"recipientId":  map[string]any{"type": "string"},
			"routingOrder": map[string]any{"type": "string", "default": DefaultRoutingOrder},
			"clientUserId": map[string]any{"type": "string"},
		},
		"required": []string{"name", "email", "recipientId"},
	}
)

// Register adds every tool to the MCP server.
func Register(srv *server.MCPServer, svc *Service) {
	srv.AddTool(
		mcp.NewTool(CreateEnvelopeFromTemplateTool,
			mcp.WithDescription("Create an envelope from a DocuSign template."),
			mcp.WithString("template_id",
				mcp.Required(),
				mcp.Description("The template ID to use"),
			),
			mcp.WithString("email_subject",
				mcp.Required(),
				mcp.Description("Subject line for the email"),
			),
			mcp.WithArray("role_assignments",
				mcp.Required(),
				mcp.Description("Recipients for the template roles"),
				mcp.Items(roleAssignmentSchema),
			),
			mcp.WithString("email_blurb",
				mcp.Description("Body text for the email"),
			),
			mcp.WithString("status",
				mcp.Description("\"sent\" to send immediately or \"created\" for a draft"),
				mcp.DefaultString(DefaultEnvelopeStatus),
			),
		),
		handleCreateEnvelopeFromTemplate(svc),
	)

	srv.AddTool(
		mcp.NewTool(CreateEnvelopeFromDocumentsTool,
			mcp.WithDescription("Create an envelope from documents without a template."),
			mcp.WithArray("documents",
				mcp.Required(),
				mcp.Description("Documents to include"),
				mcp.Items(documentSchema),
			),
			mcp.WithObject("recipients",
				mcp.Required(),
				mcp.Description("Recipients by type; only signers are supported"),
				mcp.Properties(map[string]any{
					"signers": map[string]any{"type": "array", "items": signerSchema},
				}),
			),
			mcp.WithString("email_subject",
				mcp.Required(),
				mcp.Description("Subject line for the email"),
			),
			mcp.WithString("email_blurb",
				mcp.Description("Body text for the email"),
			),
			mcp.WithString("status",
				mcp.Description("\"sent\" to send immediately or \"created\" for a draft"),
				mcp.DefaultString(DefaultEnvelopeStatus),
			),
		),
		handleCreateEnvelopeFromDocuments(svc),
	)

	srv.AddTool(
		mcp.NewTool(GetEnvelopeStatusTool,
			mcp.WithDescription("Get the status and metadata of an envelope."),
			mcp.WithString("envelope_id",
				mcp.Required(),
				mcp.Description("The envelope ID to query"),
			),
		),
		handleGetEnvelopeStatus(svc),
	)

	srv.AddTool(
		mcp.NewTool(ListEnvelopesTool,
			mcp.WithDescription("List envelopes with optional filters."),
			mcp.WithString("from_date",
				mcp.Description("Start date, ISO 8601, e.g. 2024-01-01T00:00:00Z"),
			),
			mcp.WithString("to_date",
				mcp.Description("End date, ISO 8601"),
			),
			mcp.WithString("status",
				mcp.Description("Status filter, e.g. sent, delivered, completed, declined"),
			),
		),
		handleListEnvelopes(svc),
	)

	srv.AddTool(listEnvelopeDocumentsTool(), handleListEnvelopeDocuments(svc))

	srv.AddTool(
		mcp.NewTool(DownloadEnvelopeDocumentTool,
			mcp.WithDescription("Download a document from an envelope as base64."),
			mcp.WithString("envelope_id",
				mcp.Required(),
				mcp.Description("The envelope ID"),
			),
			mcp.WithString("document_id",
				mcp.Required(),
				mcp.Description("The document ID, or \"combined\" / \"certificate\""),
			),
		),
		handleDownloadEnvelopeDocument(svc),
	)

	srv.AddTool(
		mcp.NewTool(ListTemplatesTool,
			mcp.WithDescription("List available DocuSign templates."),
			mcp.WithString("search_text",
				mcp.Description("Filter templates by name"),
			),
		),
		handleListTemplates(svc),
	)

	srv.AddTool(
		mcp.NewTool(GetTemplateDefinitionTool,
			mcp.WithDescription("Get the definition of a template including roles and documents."),
			mcp.WithString("template_id",
				mcp.Required(),
				mcp.Description("The template ID to retrieve"),
			),
		),
		handleGetTemplateDefinition(svc),
	)
}

func listEnvelopeDocumentsTool() mcp.Tool {
	return mcp.NewTool(ListEnvelopeDocumentsTool,
		mcp.WithDescription("List all documents in an envelope. Each document's pages field is its page count, not a list of pages."),
		mcp.WithString("envelope_id",
			mcp.Required(),
			mcp.Description("The envelope ID to query"),
		),
	)
}

func handleCreateEnvelopeFromTemplate(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		var roles []RoleAssignment
		if err := decodeArgument(args, "role_assignments", &roles); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return toolResult(svc.CreateEnvelopeFromTemplate(ctx, TemplateEnvelopeRequest{
			TemplateID:      stringArgument(args, "template_id"),
			EmailSubject:    stringArgument(args, "email_subject"),
			RoleAssignments: roles,
			EmailBlurb:      stringArgument(args, "email_blurb"),
			Status:          stringArgument(args, "status"),
		}))
	}
}

func handleCreateEnvelopeFromDocuments(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		var documents []DocumentInput
		if err := decodeArgument(args, "documents", &documents); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var recipients RecipientsInput
		if err := decodeArgument(args, "recipients", &recipients); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return toolResult(svc.CreateEnvelopeFromDocuments(ctx, DocumentsEnvelopeRequest{
			Documents:    documents,
			Recipients:   recipients,
			EmailSubject: stringArgument(args, "email_subject"),
			EmailBlurb:   stringArgument(args, "email_blurb"),
			Status:       stringArgument(args, "status"),
		}))
	}
}

func handleGetEnvelopeStatus(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toolResult(svc.GetEnvelopeStatus(ctx, stringArgument(req.GetArguments(), "envelope_id")))
	}
}

func handleListEnvelopes(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		return toolResult(svc.ListEnvelopes(ctx, ListEnvelopesRequest{
			FromDate: stringArgument(args, "from_date"),
			ToDate:   stringArgument(args, "to_date"),
			Status:   stringArgument(args, "status"),
		}))
	}
}

func handleListEnvelopeDocuments(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toolResult(svc.ListEnvelopeDocuments(ctx, stringArgument(req.GetArguments(), "envelope_id")))
	}
}

func handleDownloadEnvelopeDocument(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		return toolResult(svc.DownloadEnvelopeDocument(ctx, stringArgument(args, "envelope_id"), stringArgument(args, "document_id")))
	}
}

func handleListTemplates(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toolResult(svc.ListTemplates(ctx, stringArgument(req.GetArguments(), "search_text")))
	}
}

func handleGetTemplateDefinition(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toolResult(svc.GetTemplateDefinition(ctx, stringArgument(req.GetArguments(), "template_id")))
	}
}

// toolResult encodes a mapping as JSON text. Failures become tool errors so
// the calling agent sees the message.
func toolResult(result map[string]any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(encoded)), nil
}

func stringArgument(args map[string]any, name string) string {
	value, _ := args[name].(string)
	return value
}

// decodeArgument converts a structured argument into target via JSON.
func decodeArgument(args map[string]any, name string, target any) error {
	value, ok := args[name]
	if !ok || value == nil {
		return fmt.Errorf("%w: %s is required", errors.ErrInvalidArgument, name)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrInvalidArgument, name, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrInvalidArgument, name, err)
	}
	return nil
}
