package amocrm

import (
	"bytes"
	"encoding/json"
	"fmt"

	httpclient "github.com/natserract/amocrm/pkg/http"
)

// normalize turns a raw response into a Result or a typed error.
func normalize(op operation, resp *httpclient.Response) (*Result, error) {
	decoded, decodeErr := decodeBody(resp.Body)

	if resp.StatusCode >= 400 {
		// An undecodable error body still yields an APIError carrying the status text.
		return nil, newAPIError(resp.StatusCode, decoded)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnexpectedResponse, op.name, decodeErr)
	}
	if decoded == nil {
		return &Result{Ack: true}, nil
	}

	root, ok := decoded.(map[string]any)
	if !ok {
		return &Result{Data: decoded}, nil
	}

	// Without a "response" key the root itself is the payload.
	payload, hasEnvelope := root["response"]
	if !hasEnvelope {
		payload = root
	}
	if hasEnvelope && isEmptyContainer(payload) {
		return &Result{Ack: true}, nil
	}

	result := &Result{Data: payload}
	if m, ok := payload.(map[string]any); ok {
		result.ServerTime = int64Field(m, "server_time")
		if op.mode == modeWrite && op.entity != "" {
			stampAdded(m, op.entity)
		}
	}
	return result, nil
}

func decodeBody(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func isEmptyContainer(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// stampAdded copies server_time onto every record under <entity>.add as last_modified.
func stampAdded(payload map[string]any, entity string) {
	serverTime, ok := payload["server_time"]
	if !ok {
		return
	}
	section, ok := payload[entity].(map[string]any)
	if !ok {
		return
	}
	added, ok := section["add"].([]any)
	if !ok {
		return
	}
	for _, item := range added {
		if record, ok := item.(map[string]any); ok {
			record["last_modified"] = serverTime
		}
	}
}

func int64Field(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	case float64:
		return int64(v)
	}
	return 0
}
