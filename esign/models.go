package esign

// Models follow the eSignature REST API v2.1 JSON shapes. The API encodes
// nearly every scalar as a string. Optional fields are pointers so an absent
// field can be told apart from an empty one.

// EnvelopeDefinition is the body of a create envelope call.
type EnvelopeDefinition struct {
	TemplateID    string         `json:"templateId,omitempty"`
	EmailSubject  string         `json:"emailSubject,omitempty"`
	EmailBlurb    string         `json:"emailBlurb,omitempty"`
	TemplateRoles []TemplateRole `json:"templateRoles,omitempty"`
	Documents     []Document     `json:"documents,omitempty"`
	Recipients    *Recipients    `json:"recipients,omitempty"`
	Status        string         `json:"status,omitempty"` // "sent" or "created" (draft)
}

// TemplateRole binds a person to a role declared by a template.
type TemplateRole struct {
	RoleName     string `json:"roleName,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	ClientUserID string `json:"clientUserId,omitempty"` // Set for embedded signing
}

// Document is a document carried by an envelope or declared by a template.
type Document struct {
	DocumentID     *string `json:"documentId,omitempty"`
	Name           *string `json:"name,omitempty"`
	FileExtension  *string `json:"fileExtension,omitempty"`
	DocumentBase64 *string `json:"documentBase64,omitempty"`
	Order          *string `json:"order,omitempty"`
}

type Recipients struct {
	Signers []Signer `json:"signers"`
}

type Signer struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	RecipientID  *string `json:"recipientId,omitempty"`
	RoutingOrder *string `json:"routingOrder,omitempty"`
	RoleName     *string `json:"roleName,omitempty"`
	ClientUserID *string `json:"clientUserId,omitempty"`
}

// EnvelopeSummary is returned by a create envelope call.
type EnvelopeSummary struct {
	EnvelopeID     *string `json:"envelopeId,omitempty"`
	Status         *string `json:"status,omitempty"`
	StatusDateTime *string `json:"statusDateTime,omitempty"`
	URI            *string `json:"uri,omitempty"`
}

type Envelope struct {
	EnvelopeID        *string `json:"envelopeId,omitempty"`
	Status            *string `json:"status,omitempty"`
	EmailSubject      *string `json:"emailSubject,omitempty"`
	EmailBlurb        *string `json:"emailBlurb,omitempty"`
	CreatedDateTime   *string `json:"createdDateTime,omitempty"`
	SentDateTime      *string `json:"sentDateTime,omitempty"`
	DeliveredDateTime *string `json:"deliveredDateTime,omitempty"`
	SignedDateTime    *string `json:"signedDateTime,omitempty"`
	CompletedDateTime *string `json:"completedDateTime,omitempty"`
	DeclinedDateTime  *string `json:"declinedDateTime,omitempty"`
	VoidedDateTime    *string `json:"voidedDateTime,omitempty"`
}

// EnvelopesInformation is a page of status changes.
type EnvelopesInformation struct {
	Envelopes     []Envelope `json:"envelopes,omitempty"`
	ResultSetSize *string    `json:"resultSetSize,omitempty"`
	TotalSetSize  *string    `json:"totalSetSize,omitempty"`
}

type EnvelopeDocumentsResult struct {
	EnvelopeID        *string            `json:"envelopeId,omitempty"`
	EnvelopeDocuments []EnvelopeDocument `json:"envelopeDocuments,omitempty"`
}

type EnvelopeDocument struct {
	DocumentID *string `json:"documentId,omitempty"`
	Name       *string `json:"name,omitempty"`
	Type       *string `json:"type,omitempty"`
	URI        *string `json:"uri,omitempty"`
	Order      *string `json:"order,omitempty"`
	Pages      []Page  `json:"pages,omitempty"`
}

type Page struct {
	PageID   *string `json:"pageId,omitempty"`
	Sequence *string `json:"sequence,omitempty"`
}

// EnvelopeTemplateResults is a page of templates.
type EnvelopeTemplateResults struct {
	EnvelopeTemplates []EnvelopeTemplate `json:"envelopeTemplates,omitempty"`
	ResultSetSize     *string            `json:"resultSetSize,omitempty"`
	TotalSetSize      *string            `json:"totalSetSize,omitempty"`
}

type EnvelopeTemplate struct {
	TemplateID   *string     `json:"templateId,omitempty"`
	Name         *string     `json:"name,omitempty"`
	Description  *string     `json:"description,omitempty"`
	Shared       *string     `json:"shared,omitempty"`
	Created      *string     `json:"created,omitempty"`
	LastModified *string     `json:"lastModified,omitempty"`
	EmailSubject *string     `json:"emailSubject,omitempty"`
	EmailBlurb   *string     `json:"emailBlurb,omitempty"`
	Recipients   *Recipients `json:"recipients,omitempty"`
	Documents    []Document  `json:"documents,omitempty"`
}

// ListStatusChangesOptions are the list envelopes filters. Empty values are
// not sent.
type ListStatusChangesOptions struct {
	FromDate string
	ToDate   string
	Status   string
}

// ListTemplatesOptions are the list templates filters. Empty values are not
// sent.
type ListTemplatesOptions struct {
	SearchText string
}
