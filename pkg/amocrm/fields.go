package amocrm

import "context"

// SetFields adds or removes custom field definitions. Call Invalidate afterwards if
// CustomFieldID should see the change.
func (s *Session) SetFields(ctx context.Context, fields any) (*Result, error) {
	return s.write(ctx, opFieldsSet, fields)
}
