package amocrm

import (
	"encoding/json"
	"net/http"
	"testing"

	httpclient "github.com/natserract/amocrm/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(status int, body string) *httpclient.Response {
	return &httpclient.Response{StatusCode: status, Headers: http.Header{}, Body: []byte(body)}
}

func TestNormalize_Ack(t *testing.T) {
	bodies := map[string]string{
		"empty body":      ``,
		"whitespace body": " \n",
		"empty object":    `{"response":{}}`,
		"empty array":     `{"response":[]}`,
		"null":            `{"response":null}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			result, err := normalize(opLeadsSet, response(http.StatusOK, body))
			require.NoError(t, err)
			assert.True(t, result.Ack)
			assert.Nil(t, result.Data)
		})
	}
}

func TestNormalize_StampsAddedRecords(t *testing.T) {
	body := `{"response":{"leads":{"add":[{"id":1,"request_id":0},{"id":2,"request_id":1}],"update":[{"id":3}]},"server_time":1000}}`

	result, err := normalize(opLeadsSet, response(http.StatusOK, body))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.ServerTime)

	added := result.Added("leads")
	require.Len(t, added, 2)
	for _, record := range added {
		assert.Equal(t, json.Number("1000"), record["last_modified"])
	}
	assert.Equal(t, json.Number("1"), added[0]["id"])

	updated := result.Updated("leads")
	require.Len(t, updated, 1)
	assert.NotContains(t, updated[0], "last_modified")
}

func TestNormalize_StampsAddedRecordsWithoutEnvelope(t *testing.T) {
	result, err := normalize(opLeadsSet, response(http.StatusOK, `{"leads":{"add":[{"id":1}]},"server_time":1000}`))
	require.NoError(t, err)
	assert.False(t, result.Ack)
	assert.Equal(t, int64(1000), result.ServerTime)

	added := result.Added("leads")
	require.Len(t, added, 1)
	assert.Equal(t, json.Number("1000"), added[0]["last_modified"])
	assert.Equal(t, json.Number("1"), added[0]["id"])
}

func TestNormalize_StampingEdgeCases(t *testing.T) {
	t.Run("no server time", func(t *testing.T) {
		result, err := normalize(opLeadsSet, response(http.StatusOK, `{"response":{"leads":{"add":[{"id":1}]}}}`))
		require.NoError(t, err)
		assert.NotContains(t, result.Added("leads")[0], "last_modified")
	})

	t.Run("reads are not stamped", func(t *testing.T) {
		result, err := normalize(opLeadsList, response(http.StatusOK, `{"response":{"leads":{"add":[{"id":1}]},"server_time":5}}`))
		require.NoError(t, err)
		assert.NotContains(t, result.Added("leads")[0], "last_modified")
	})

	t.Run("companies stamped under contacts", func(t *testing.T) {
		result, err := normalize(opCompanySet, response(http.StatusOK, `{"response":{"contacts":{"add":[{"id":1}]},"server_time":5}}`))
		require.NoError(t, err)
		assert.Equal(t, json.Number("5"), result.Added("contacts")[0]["last_modified"])
	})

	t.Run("other entity untouched", func(t *testing.T) {
		result, err := normalize(opLeadsSet, response(http.StatusOK, `{"response":{"contacts":{"add":[{"id":1}]},"server_time":5}}`))
		require.NoError(t, err)
		assert.NotContains(t, result.Added("contacts")[0], "last_modified")
	})
}

func TestNormalize_Data(t *testing.T) {
	t.Run("unwraps response", func(t *testing.T) {
		result, err := normalize(opContactsList, response(http.StatusOK, `{"response":{"contacts":[{"id":4}],"server_time":77}}`))
		require.NoError(t, err)
		assert.False(t, result.Ack)
		assert.Equal(t, int64(77), result.ServerTime)
		assert.Len(t, result.Records("contacts"), 1)
	})

	t.Run("body without envelope", func(t *testing.T) {
		result, err := normalize(opCallsAdd, response(http.StatusOK, `{"status":"ok","server_time":12}`))
		require.NoError(t, err)
		assert.Equal(t, "ok", result.Map()["status"])
		assert.Equal(t, int64(12), result.ServerTime)
	})

	t.Run("non object body", func(t *testing.T) {
		result, err := normalize(opCallsAdd, response(http.StatusOK, `[1,2]`))
		require.NoError(t, err)
		assert.Nil(t, result.Map())
		assert.Len(t, result.Data, 2)
	})

	t.Run("undecodable success body", func(t *testing.T) {
		_, err := normalize(opLeadsList, response(http.StatusOK, `<html></html>`))
		assert.ErrorIs(t, err, ErrUnexpectedResponse)
	})
}

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		decoded     any
		wantMessage string
		wantCode    string
	}{
		{
			name:        "top level message wins",
			status:      http.StatusBadRequest,
			decoded:     map[string]any{"message": "bad", "response": map[string]any{"error": "worse", "error_code": "244"}},
			wantMessage: "bad",
			wantCode:    "244",
		},
		{
			name:        "numeric error code",
			status:      http.StatusForbidden,
			decoded:     map[string]any{"response": map[string]any{"error": "forbidden", "error_code": json.Number("403")}},
			wantMessage: "forbidden",
			wantCode:    "403",
		},
		{
			name:        "flat error",
			status:      http.StatusBadRequest,
			decoded:     map[string]any{"error": "flat", "code": "E1"},
			wantMessage: "flat",
			wantCode:    "E1",
		},
		{
			name:        "nothing decoded",
			status:      http.StatusServiceUnavailable,
			decoded:     nil,
			wantMessage: http.StatusText(http.StatusServiceUnavailable),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newAPIError(tt.status, tt.decoded)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, tt.wantMessage, err.Message)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}
