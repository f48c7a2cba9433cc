package amocrm

import (
	"context"
	"net/http"
	"net/url"

	httpclient "github.com/natserract/amocrm/pkg/http"
	"go.uber.org/zap"
)

// AddCalls logs calls through the telephony endpoint. It needs the vendor-issued
// CallsCode / CallsKey pair from the config in addition to the session cookie.
// The payload is sent as {"add": calls}.
func (s *Session) AddCalls(ctx context.Context, calls any) (*Result, error) {
	if s.config.CallsCode == "" || s.config.CallsKey == "" {
		return nil, &InvalidArgumentError{Op: opCallsAdd.name, Reason: "calls code and key are not configured"}
	}
	if isEmptyPayload(calls) {
		s.logger.Warn("Write rejected", zap.String("op", opCallsAdd.name))
		return nil, &InvalidArgumentError{Op: opCallsAdd.name, Reason: "no entities to send"}
	}

	endpoint, err := httpclient.BuildURL(s.config.Host(), opCallsAdd.path, url.Values{
		"code": []string{s.config.CallsCode},
		"key":  []string{s.config.CallsKey},
	})
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, opCallsAdd, httpclient.RequestOptions{
		Method:   http.MethodPost,
		URL:      endpoint,
		Body:     map[string]any{"add": calls},
		Encoding: httpclient.EncodingJSON,
	})
}
