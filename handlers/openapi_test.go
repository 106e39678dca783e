package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"discoveryserver/api"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAPIValidator(t *testing.T) {
	t.Run("embedded document is valid", func(t *testing.T) {
		_, err := NewOpenAPIValidator(api.Spec)
		assert.NoError(t, err)
	})

	t.Run("garbage document", func(t *testing.T) {
		_, err := NewOpenAPIValidator([]byte("{not yaml"))
		assert.ErrorContains(t, err, "can't load openapi document")
	})

	t.Run("document without paths is invalid", func(t *testing.T) {
		_, err := NewOpenAPIValidator([]byte("openapi: 3.0.3\ninfo:\n  title: x\n"))
		assert.Error(t, err)
	})
}

func TestOpenAPIMiddleware(t *testing.T) {
	validator, err := NewOpenAPIValidator(api.Spec)
	require.NoError(t, err)

	tests := []struct {
		name        string
		method      string
		target      string
		body        string
		expectNext  bool
		expectError bool
	}{
		{name: "valid request", method: http.MethodPut, target: "/v1/services/billing/instances/i1/status", body: `{"status":"UP"}`, expectNext: true},
		{name: "undocumented path passes through", method: http.MethodGet, target: "/health", expectNext: true},
		{name: "missing body", method: http.MethodPut, target: "/v1/services/billing/instances/i1/status", expectError: true},
		{name: "wrong type", method: http.MethodPost, target: "/v1/services/billing/instances", body: `{"instance_id":"i1","address":"a:1","ttl_ms":"soon"}`, expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest(tt.method, tt.target, nil)
			} else {
				req = httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			}
			c := echo.New().NewContext(req, httptest.NewRecorder())
			called := false

			err := validator(func(echo.Context) error {
				called = true
				return nil
			})(c)

			assert.Equal(t, tt.expectNext, called)
			if !tt.expectError {
				assert.NoError(t, err)
				return
			}
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusBadRequest, he.Code)
			var reqErr *openapi3filter.RequestError
			assert.ErrorAs(t, he.Internal, &reqErr)
		})
	}
}
