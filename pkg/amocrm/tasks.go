package amocrm

import (
	"context"
	"net/url"
)

type TasksQuery struct {
	ListOptions
	Query              string
	ResponsibleUserIDs []ID
	// Type is the element the task is attached to: "contact" or "lead".
	Type string
}

func (q TasksQuery) values() url.Values {
	v := url.Values{}
	q.apply(v)
	setString(v, "query", q.Query)
	setIDs(v, "responsible_user_id", q.ResponsibleUserIDs)
	setString(v, "type", q.Type)
	return v
}

func (s *Session) ListTasks(ctx context.Context, q TasksQuery) (*Result, error) {
	return s.read(ctx, opTasksList, q)
}

func (s *Session) SetTasks(ctx context.Context, tasks any) (*Result, error) {
	return s.write(ctx, opTasksSet, tasks)
}
