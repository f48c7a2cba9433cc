package amocrm

import (
	"context"
	"net/url"
)

// LeadsQuery filters leads/list.
type LeadsQuery struct {
	ListOptions
	Query              string
	ResponsibleUserIDs []ID
	// Statuses filters by lead status id; see LeadStatusID.
	Statuses []ID
}

func (q LeadsQuery) values() url.Values {
	v := url.Values{}
	q.apply(v)
	setString(v, "query", q.Query)
	setIDs(v, "responsible_user_id", q.ResponsibleUserIDs)
	setIDs(v, "status", q.Statuses)
	return v
}

// ListLeads returns the leads matching q.
func (s *Session) ListLeads(ctx context.Context, q LeadsQuery) (*Result, error) {
	return s.read(ctx, opLeadsList, q)
}

// SetLeads adds or updates leads. Every record in Result.Added("leads") carries
// last_modified, the server time at which it was accepted.
func (s *Session) SetLeads(ctx context.Context, leads any) (*Result, error) {
	return s.write(ctx, opLeadsSet, leads)
}
