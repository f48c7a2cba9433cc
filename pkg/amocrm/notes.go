package amocrm

import (
	"context"
	"net/url"
)

type NotesQuery struct {
	ListOptions
	// ElementID is the contact, lead, company or task the notes belong to.
	ElementID ID
	// Type is the element type: "contact", "lead", "company" or "task".
	Type string
}

func (q NotesQuery) values() url.Values {
	v := url.Values{}
	q.apply(v)
	if q.ElementID != 0 {
		v.Set("element_id", q.ElementID.String())
	}
	setString(v, "type", q.Type)
	return v
}

func (s *Session) ListNotes(ctx context.Context, q NotesQuery) (*Result, error) {
	return s.read(ctx, opNotesList, q)
}

func (s *Session) SetNotes(ctx context.Context, notes any) (*Result, error) {
	return s.write(ctx, opNotesSet, notes)
}
