package amocrm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Custom field sections of an account.
const (
	SectionContacts  = "contacts"
	SectionCompanies = "companies"
	SectionLeads     = "leads"
	SectionCustomers = "customers"
)

// ID is a numeric amoCRM identifier. The API sends ids both as JSON numbers and as
// numeric strings ("1234"); ID accepts either.
type ID int64

// UnmarshalJSON implements json.Unmarshaler for ID
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*id = 0
			return nil
		}
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("unable to parse id: %s", raw)
	}
	*id = ID(n)
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Record is a single entity as sent to or returned by the API.
type Record map[string]any

// Batch is the usual write payload: records to create and records to update.
type Batch struct {
	Add    []Record `json:"add,omitempty"`
	Update []Record `json:"update,omitempty"`
}

func (b Batch) IsEmpty() bool {
	return len(b.Add) == 0 && len(b.Update) == 0
}

// CustomField is a custom field definition from the account metadata. Flags are kept as
// decoded ("Y"/"N" strings on most accounts, booleans on some).
type CustomField struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	TypeID   any    `json:"type_id"`
	Multiple any    `json:"multiple"`
	Disabled any    `json:"disabled"`
}

// CustomFieldSets holds custom field definitions keyed by section. The API sends an empty
// array instead of an object when an account has none.
type CustomFieldSets map[string][]CustomField

// UnmarshalJSON implements json.Unmarshaler for CustomFieldSets
func (c *CustomFieldSets) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		*c = CustomFieldSets{}
		return nil
	}
	var sets map[string][]CustomField
	if err := json.Unmarshal(data, &sets); err != nil {
		return err
	}
	*c = sets
	return nil
}

// LeadStatus is a lead pipeline stage from the account metadata.
type LeadStatus struct {
	ID         ID     `json:"id"`
	Name       string `json:"name"`
	Color      any    `json:"color"`
	PipelineID any    `json:"pipeline_id"`
	Editable   any    `json:"editable"`
}

// AccountInfo is the metadata returned by accounts/current.
type AccountInfo struct {
	ID            ID              `json:"id"`
	Name          string          `json:"name"`
	Subdomain     string          `json:"subdomain"`
	Currency      string          `json:"currency"`
	Timezone      string          `json:"timezone"`
	Language      string          `json:"language"`
	CustomFields  CustomFieldSets `json:"custom_fields"`
	LeadsStatuses []LeadStatus    `json:"leads_statuses"`

	// ServerTime is the server clock (unix seconds) at the time the metadata was fetched.
	ServerTime int64 `json:"-"`
	// Raw is the account object exactly as decoded.
	Raw map[string]any `json:"-"`
}

// Result is the normalized outcome of a successful call.
//
// Ack is set when the server answered with an empty response: the call succeeded and no
// data is attached. Otherwise Data holds the unwrapped "response" value (or the whole body
// for endpoints without that envelope). Numbers are json.Number.
type Result struct {
	Ack        bool
	Data       any
	ServerTime int64
}

// Map returns Data as an object, or nil.
func (r *Result) Map() map[string]any {
	if r == nil {
		return nil
	}
	m, _ := r.Data.(map[string]any)
	return m
}

// Records returns the list stored under key, e.g. Records("leads") on a leads/list result.
func (r *Result) Records(key string) []Record {
	return toRecords(r.Map()[key])
}

// Added returns the records created by a write call, e.g. Added("leads") on a leads/set
// result. Each record carries last_modified.
func (r *Result) Added(section string) []Record {
	return r.action(section, "add")
}

// Updated returns the records reported under the "update" action of a write call.
func (r *Result) Updated(section string) []Record {
	return r.action(section, "update")
}

func (r *Result) action(section, action string) []Record {
	s, ok := r.Map()[section].(map[string]any)
	if !ok {
		return nil
	}
	return toRecords(s[action])
}

// Decode re-encodes Data into v.
func (r *Result) Decode(v any) error {
	if r == nil || r.Data == nil {
		return fmt.Errorf("%w: no data to decode", ErrUnexpectedResponse)
	}
	b, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

func toRecords(v any) []Record {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	records := make([]Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			records = append(records, Record(m))
		}
	}
	return records
}
