package amocrm

import (
	"context"
	"net/url"
)

type CompaniesQuery struct {
	ListOptions
	Query              string
	ResponsibleUserIDs []ID
}

func (q CompaniesQuery) values() url.Values {
	v := url.Values{}
	q.apply(v)
	setString(v, "query", q.Query)
	setIDs(v, "responsible_user_id", q.ResponsibleUserIDs)
	return v
}

func (s *Session) ListCompanies(ctx context.Context, q CompaniesQuery) (*Result, error) {
	return s.read(ctx, opCompanyList, q)
}

// SetCompanies adds or updates companies. Results are reported under "contacts".
func (s *Session) SetCompanies(ctx context.Context, companies any) (*Result, error) {
	return s.write(ctx, opCompanySet, companies)
}
