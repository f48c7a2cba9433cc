package amocrm

import "context"

// Client defines the interface for amoCRM API operations
type Client interface {
	// AccountInfo returns the cached account metadata, fetching it on first use
	AccountInfo(ctx context.Context) (*AccountInfo, error)

	// CustomFieldID resolves a custom field code within a section
	CustomFieldID(ctx context.Context, code, section string) (ID, bool, error)

	// LeadStatusID resolves a lead status name
	LeadStatusID(ctx context.Context, name string) (ID, bool, error)

	// Invalidate drops the cached account metadata
	Invalidate()

	ListContacts(ctx context.Context, q ContactsQuery) (*Result, error)
	SetContacts(ctx context.Context, contacts any) (*Result, error)
	ListContactLinks(ctx context.Context, q LinksQuery) (*Result, error)

	ListLeads(ctx context.Context, q LeadsQuery) (*Result, error)
	SetLeads(ctx context.Context, leads any) (*Result, error)

	ListCompanies(ctx context.Context, q CompaniesQuery) (*Result, error)
	SetCompanies(ctx context.Context, companies any) (*Result, error)

	ListTasks(ctx context.Context, q TasksQuery) (*Result, error)
	SetTasks(ctx context.Context, tasks any) (*Result, error)

	ListNotes(ctx context.Context, q NotesQuery) (*Result, error)
	SetNotes(ctx context.Context, notes any) (*Result, error)

	SetFields(ctx context.Context, fields any) (*Result, error)

	// AddCalls logs calls through the telephony endpoint
	AddCalls(ctx context.Context, calls any) (*Result, error)

	// Close releases the transport
	Close() error
}

var _ Client = (*Session)(nil)
