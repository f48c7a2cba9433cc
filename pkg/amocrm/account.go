package amocrm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// AccountInfo returns the account metadata, fetching it on first use. Later calls are
// served from the cache until Invalidate.
func (s *Session) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	entry, err := s.loadAccount(ctx)
	if err != nil {
		return nil, err
	}
	return entry.account, nil
}

// loadAccount returns the cached entry, filling it at most once per cache generation.
func (s *Session) loadAccount(ctx context.Context) (*accountEntry, error) {
	s.cache.mu.RLock()
	if entry := s.cache.entry; entry != nil {
		s.cache.mu.RUnlock()
		s.logger.Debug("Using cached account info")
		return entry, nil
	}
	s.cache.mu.RUnlock()

	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()

	// Another caller may have filled the cache while we waited for the lock.
	if s.cache.entry != nil {
		return s.cache.entry, nil
	}

	account, err := s.fetchAccountInfo(ctx)
	if err != nil {
		return nil, err
	}

	entry := &accountEntry{
		account:      account,
		customFields: indexCustomFields(account.Raw),
		leadStatuses: indexLeadStatuses(account.Raw),
	}
	s.cache.entry = entry

	s.logger.Info("Cached account info",
		zap.String("account", account.Subdomain),
		zap.Int("custom_field_sections", len(account.CustomFields)),
		zap.Int("lead_statuses", len(account.LeadsStatuses)))
	return entry, nil
}

func (s *Session) fetchAccountInfo(ctx context.Context) (*AccountInfo, error) {
	result, err := s.read(ctx, opAccountsCurrent, nil)
	if err != nil {
		return nil, err
	}

	raw, ok := result.Map()[opAccountsCurrent.entity].(map[string]any)
	if !ok {
		s.logger.Error("Account info missing from response")
		return nil, fmt.Errorf("%w: %s: no account object", ErrUnexpectedResponse, opAccountsCurrent.name)
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode account info: %w", err)
	}
	var account AccountInfo
	if err := json.Unmarshal(b, &account); err != nil {
		// The lookups only need Raw; typed fields that failed to decode stay partial.
		s.logger.Warn("Account info does not match the expected layout", zap.Error(err))
	}
	account.Raw = raw
	account.ServerTime = result.ServerTime

	return &account, nil
}

// Invalidate drops the cached account metadata; the next lookup fetches it again.
func (s *Session) Invalidate() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()

	s.cache.entry = nil
	s.logger.Debug("Account info cache invalidated")
}

// CustomFieldID resolves a custom field code within a section (SectionContacts when empty)
// to its id. The boolean is false when no field has that code.
func (s *Session) CustomFieldID(ctx context.Context, code, section string) (ID, bool, error) {
	if section == "" {
		section = SectionContacts
	}
	entry, err := s.loadAccount(ctx)
	if err != nil {
		return 0, false, err
	}

	id, ok := entry.customFields[section][code]
	return id, ok, nil
}

// LeadStatusID resolves a lead status display name to its id. The boolean is false when no
// status has that name.
func (s *Session) LeadStatusID(ctx context.Context, name string) (ID, bool, error) {
	entry, err := s.loadAccount(ctx)
	if err != nil {
		return 0, false, err
	}

	id, ok := entry.leadStatuses[name]
	return id, ok, nil
}

// indexCustomFields maps section -> code -> id from the raw account object, reading only
// code and id. The first definition of a code wins.
func indexCustomFields(raw map[string]any) map[string]map[string]ID {
	sections, _ := raw["custom_fields"].(map[string]any)
	index := make(map[string]map[string]ID, len(sections))
	for section, list := range sections {
		fields, _ := list.([]any)
		codes := make(map[string]ID, len(fields))
		for _, item := range fields {
			field, ok := item.(map[string]any)
			if !ok {
				continue
			}
			code, _ := field["code"].(string)
			id, ok := idField(field, "id")
			if code == "" || !ok {
				continue
			}
			if _, seen := codes[code]; !seen {
				codes[code] = id
			}
		}
		index[section] = codes
	}
	return index
}

// indexLeadStatuses maps status name -> id, reading only name and id.
func indexLeadStatuses(raw map[string]any) map[string]ID {
	statuses, _ := raw["leads_statuses"].([]any)
	index := make(map[string]ID, len(statuses))
	for _, item := range statuses {
		status, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := status["name"].(string)
		id, ok := idField(status, "id")
		if !ok {
			continue
		}
		if _, seen := index[name]; !seen {
			index[name] = id
		}
	}
	return index
}

func idField(m map[string]any, key string) (ID, bool) {
	switch v := m[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return ID(n), err == nil
	case float64:
		return ID(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return ID(n), err == nil
	}
	return 0, false
}
