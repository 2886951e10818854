// Package testutil builds gin contexts and decodes API envelopes for
// handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tenantbilling/internal/shared/constants"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewTestContext builds a context whose body is body encoded as JSON. A nil
// body sends no payload.
func NewTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	if body == nil {
		return NewRawContext(method, path, nil, nil)
	}
	raw, _ := json.Marshal(body)
	return NewRawContext(method, path, raw, map[string]string{
		constants.HeaderContentType: constants.ContentTypeJSON,
	})
}

// NewRawContext builds a context that carries body byte for byte.
func NewRawContext(method, path string, body []byte, headers map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c, w
}

// SetTenantContext stands in for the auth middleware.
func SetTenantContext(c *gin.Context, tenantID, role, userID string) {
	c.Set(constants.ContextKeyTenantID, tenantID)
	c.Set(constants.ContextKeyRole, role)
	c.Set(constants.ContextKeyUserID, userID)
}

func SetURLParam(c *gin.Context, key, value string) {
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
}

func SetQueryParams(c *gin.Context, params map[string]string) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	c.Request.URL.RawQuery = q.Encode()
}

// ParseResponse decodes a body that is not wrapped in the API envelope.
func ParseResponse(w *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), target)
}

// Envelope decodes the API envelope and fails the test on malformed JSON.
func Envelope(t testing.TB, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeData decodes the envelope's data field into target.
func DecodeData(t testing.TB, w *httptest.ResponseRecorder, target interface{}) APIResponse {
	t.Helper()
	resp := Envelope(t, w)
	require.NotEmpty(t, resp.Data, "response has no data")
	require.NoError(t, json.Unmarshal(resp.Data, target))
	return resp
}

// APIResponse mirrors utils.APIResponse.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
