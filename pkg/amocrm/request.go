package amocrm

import (
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	httpclient "github.com/natserract/amocrm/pkg/http"
)

const (
	authPath  = "/private/api/auth.php"
	apiPrefix = "/private/api/v2/json/"
	callsPath = "/api/calls/add/"
)

type mode int

const (
	modeRead mode = iota
	modeWrite
)

// operation describes one API call: where it goes, which envelope key its payload and
// response use, and whether it reads or writes.
type operation struct {
	name   string
	path   string
	entity string
	mode   mode
}

var (
	opAuth            = operation{name: "auth", path: authPath, mode: modeRead}
	opAccountsCurrent = operation{name: "accounts.current", path: apiPrefix + "accounts/current", entity: "account", mode: modeRead}

	opContactsList  = operation{name: "contacts.list", path: apiPrefix + "contacts/list", entity: "contacts", mode: modeRead}
	opContactsSet   = operation{name: "contacts.set", path: apiPrefix + "contacts/set", entity: "contacts", mode: modeWrite}
	opContactsLinks = operation{name: "contacts.links", path: apiPrefix + "contacts/links", entity: "links", mode: modeRead}

	opLeadsList = operation{name: "leads.list", path: apiPrefix + "leads/list", entity: "leads", mode: modeRead}
	opLeadsSet  = operation{name: "leads.set", path: apiPrefix + "leads/set", entity: "leads", mode: modeWrite}

	// Companies are filed under the contacts envelope on the v2 API.
	opCompanyList = operation{name: "company.list", path: apiPrefix + "company/list", entity: "contacts", mode: modeRead}
	opCompanySet  = operation{name: "company.set", path: apiPrefix + "company/set", entity: "contacts", mode: modeWrite}

	opTasksList = operation{name: "tasks.list", path: apiPrefix + "tasks/list", entity: "tasks", mode: modeRead}
	opTasksSet  = operation{name: "tasks.set", path: apiPrefix + "tasks/set", entity: "tasks", mode: modeWrite}

	opNotesList = operation{name: "notes.list", path: apiPrefix + "notes/list", entity: "notes", mode: modeRead}
	opNotesSet  = operation{name: "notes.set", path: apiPrefix + "notes/set", entity: "notes", mode: modeWrite}

	opFieldsSet = operation{name: "fields.set", path: apiPrefix + "fields/set", entity: "fields", mode: modeWrite}

	opCallsAdd = operation{name: "calls.add", path: callsPath, entity: "calls", mode: modeWrite}
)

// listQuery is implemented by the per-entity query types.
type listQuery interface {
	values() url.Values
	since() time.Time
}

// ListOptions are the paging and id filters shared by every list call.
// Zero values are not sent.
type ListOptions struct {
	LimitRows int
	// LimitOffset is only sent together with LimitRows.
	LimitOffset int
	IDs         []ID
	// ModifiedSince sends If-Modified-Since so only records changed after it are returned.
	ModifiedSince time.Time
}

func (o ListOptions) apply(v url.Values) {
	if o.LimitRows > 0 {
		v.Set("limit_rows", strconv.Itoa(o.LimitRows))
		if o.LimitOffset > 0 {
			v.Set("limit_offset", strconv.Itoa(o.LimitOffset))
		}
	}
	setIDs(v, "id", o.IDs)
}

func (o ListOptions) since() time.Time {
	return o.ModifiedSince
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// setIDs sends a single id as key=1 and several as key[]=1&key[]=2.
func setIDs(v url.Values, key string, ids []ID) {
	switch len(ids) {
	case 0:
	case 1:
		v.Set(key, ids[0].String())
	default:
		for _, id := range ids {
			v.Add(key+"[]", id.String())
		}
	}
}

func (s *Session) buildRead(op operation, q listQuery) (httpclient.RequestOptions, error) {
	var (
		query url.Values
		since time.Time
	)
	if q != nil {
		query = q.values()
		since = q.since()
	}

	endpoint, err := httpclient.BuildURL(s.config.Host(), op.path, query)
	if err != nil {
		return httpclient.RequestOptions{}, err
	}

	headers := map[string]string{}
	if !since.IsZero() {
		headers["If-Modified-Since"] = since.UTC().Format(http.TimeFormat)
	}

	return httpclient.RequestOptions{
		Method:  http.MethodGet,
		URL:     endpoint,
		Headers: headers,
	}, nil
}

func (s *Session) buildWrite(op operation, payload any) (httpclient.RequestOptions, error) {
	if isEmptyPayload(payload) {
		return httpclient.RequestOptions{}, &InvalidArgumentError{Op: op.name, Reason: "no entities to send"}
	}

	endpoint, err := httpclient.BuildURL(s.config.Host(), op.path, nil)
	if err != nil {
		return httpclient.RequestOptions{}, err
	}

	return httpclient.RequestOptions{
		Method: http.MethodPost,
		URL:    endpoint,
		Body: map[string]any{
			"request": map[string]any{op.entity: payload},
		},
		Encoding: httpclient.EncodingJSON,
	}, nil
}

// isEmptyPayload reports nil, nil pointers, empty collections and empty batches.
func isEmptyPayload(payload any) bool {
	if payload == nil {
		return true
	}

	v := reflect.ValueOf(payload)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return true
		}
		return isEmptyPayload(v.Elem().Interface())
	}

	if e, ok := payload.(interface{ IsEmpty() bool }); ok {
		return e.IsEmpty()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return v.Len() == 0
	}
	return false
}
