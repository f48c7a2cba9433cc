package amocrm

import (
	"context"
	"net/url"
	"time"
)

// ContactsQuery filters contacts/list.
type ContactsQuery struct {
	ListOptions
	// Query is a free-text search over name, phone and email.
	Query              string
	ResponsibleUserIDs []ID
	// Type is "contact", "company" or "all".
	Type string
}

func (q ContactsQuery) values() url.Values {
	v := url.Values{}
	q.apply(v)
	setString(v, "query", q.Query)
	setIDs(v, "responsible_user_id", q.ResponsibleUserIDs)
	setString(v, "type", q.Type)
	return v
}

// LinksQuery filters contacts/links, the contact to lead relations.
type LinksQuery struct {
	LimitRows     int
	LimitOffset   int
	ContactIDs    []ID
	ModifiedSince time.Time
}

func (q LinksQuery) values() url.Values {
	v := url.Values{}
	ListOptions{LimitRows: q.LimitRows, LimitOffset: q.LimitOffset}.apply(v)
	setIDs(v, "contacts_link", q.ContactIDs)
	return v
}

func (q LinksQuery) since() time.Time {
	return q.ModifiedSince
}

// ListContacts returns the contacts matching q.
func (s *Session) ListContacts(ctx context.Context, q ContactsQuery) (*Result, error) {
	return s.read(ctx, opContactsList, q)
}

// SetContacts adds or updates contacts, usually given as a Batch.
func (s *Session) SetContacts(ctx context.Context, contacts any) (*Result, error) {
	return s.write(ctx, opContactsSet, contacts)
}

// ListContactLinks returns the links between contacts and leads.
func (s *Session) ListContactLinks(ctx context.Context, q LinksQuery) (*Result, error) {
	return s.read(ctx, opContactsLinks, q)
}
