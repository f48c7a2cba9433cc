package amocrm

import (
	"context"
	"net/http"
	"testing"

	"github.com/natserract/amocrm/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCalls(t *testing.T) {
	api := newFakeAPI(t)
	api.handle(callsPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "calls-code", r.URL.Query().Get("code"))
		assert.Equal(t, "calls-key", r.URL.Query().Get("key"))

		body := decodeRequest(t, r)
		added, ok := body["add"].([]any)
		assert.True(t, ok)
		assert.Len(t, added, 1)
		assert.NotContains(t, body, "request")

		writeJSON(w, http.StatusOK, `{"response":{"calls":{"add":[{"id":1}]},"server_time":10}}`)
	})
	s := api.session(t, func(c *config.Config) {
		c.CallsCode = "calls-code"
		c.CallsKey = "calls-key"
	})

	result, err := s.AddCalls(context.Background(), []Record{{"phone_number": "+79990000000", "duration": 60}})
	require.NoError(t, err)
	assert.Len(t, result.Added("calls"), 1)
}

func TestAddCalls_Rejected(t *testing.T) {
	api := newFakeAPI(t)

	t.Run("not configured", func(t *testing.T) {
		s := api.session(t)
		_, err := s.AddCalls(context.Background(), []Record{{"phone_number": "1"}})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("empty payload", func(t *testing.T) {
		s := api.session(t, func(c *config.Config) {
			c.CallsCode = "c"
			c.CallsKey = "k"
		})
		_, err := s.AddCalls(context.Background(), []Record{})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	assert.Equal(t, 0, api.total())
}
